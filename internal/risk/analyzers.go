package risk

import (
	"github.com/jmcallister/riskgate/internal/geo"
	"github.com/jmcallister/riskgate/internal/models"
)

// Stable factor identifiers. These are part of the external contract; the
// descriptions are not.
const (
	FactorNewDevice         = "new_device"
	FactorNewLocation       = "new_location"
	FactorImpossibleTravel  = "impossible_travel"
	FactorOddTime           = "odd_time"
	FactorExcessiveFailures = "excessive_failures"
)

// analyzerInput carries everything an analyzer may consult. History is an
// immutable snapshot; analyzers must not retain or mutate it.
type analyzerInput struct {
	history      []*models.LoginRecord
	attempt      *models.LoginAttempt
	failureCount int
}

// analyzer is one member of the closed factor set. A nil return means the
// factor did not fire or could not be evaluated; analyzers never error.
type analyzer func(cfg Config, in analyzerInput) *models.RiskFactor

// analyzers lists the full factor set in output priority order. Evaluation
// order never changes which factors fire, only where they appear in the
// result.
var analyzers = []analyzer{
	analyzeNewDevice,
	analyzeNewLocation,
	analyzeImpossibleTravel,
	analyzeOddTime,
	analyzeExcessiveFailures,
}

// analyzeNewDevice fires when the attempt's device has never appeared in the
// user's history. Skipped on empty history: a first login establishes the
// baseline rather than being judged against one.
func analyzeNewDevice(cfg Config, in analyzerInput) *models.RiskFactor {
	if len(in.history) == 0 {
		return nil
	}
	for _, rec := range in.history {
		if rec.DeviceID == in.attempt.DeviceID {
			return nil
		}
	}
	return &models.RiskFactor{
		Name:        FactorNewDevice,
		Description: "Login from a new device",
		Weight:      cfg.NewDeviceWeight,
	}
}

// analyzeNewLocation fires when the attempt carries a location and no
// historical login was within the familiar radius of it. A missing location
// disables the check without penalty.
func analyzeNewLocation(cfg Config, in analyzerInput) *models.RiskFactor {
	if len(in.history) == 0 || in.attempt.Location == nil {
		return nil
	}
	for _, rec := range in.history {
		if rec.Location == nil {
			continue
		}
		if geo.DistanceKm(*rec.Location, *in.attempt.Location) < cfg.KnownLocationRadiusKm {
			return nil
		}
	}
	return &models.RiskFactor{
		Name:        FactorNewLocation,
		Description: "Login from a new geographic location",
		Weight:      cfg.NewLocationWeight,
	}
}

// analyzeImpossibleTravel compares the attempt against the nearest-in-time
// geolocated record only; older records don't define the travel baseline.
// Moves within the familiar radius are never flagged, so a same-place login
// seconds after the previous one doesn't read as infinite speed.
func analyzeImpossibleTravel(cfg Config, in analyzerInput) *models.RiskFactor {
	if len(in.history) == 0 || in.attempt.Location == nil {
		return nil
	}

	var baseline *models.LoginRecord
	for i := len(in.history) - 1; i >= 0; i-- {
		if in.history[i].Location != nil {
			baseline = in.history[i]
			break
		}
	}
	if baseline == nil {
		return nil
	}

	if geo.DistanceKm(*baseline.Location, *in.attempt.Location) <= cfg.KnownLocationRadiusKm {
		return nil
	}

	speed := geo.TravelSpeedKmh(*baseline.Location, baseline.Timestamp, *in.attempt.Location, in.attempt.Timestamp)
	if speed <= cfg.MaxTravelSpeedKmh {
		return nil
	}

	return &models.RiskFactor{
		Name:        FactorImpossibleTravel,
		Description: "Physically impossible travel speed between login locations",
		Weight:      cfg.ImpossibleTravelWeight,
	}
}

// analyzeOddTime fires when the attempt's hour-of-day is rare for the user.
// The profile is a frequency histogram over successful logins and stays
// inactive until it has enough samples to mean anything.
func analyzeOddTime(cfg Config, in analyzerInput) *models.RiskFactor {
	if len(in.history) == 0 {
		return nil
	}

	hourCounts := make(map[int]int)
	successes := 0
	for _, rec := range in.history {
		if !rec.Success {
			continue
		}
		hourCounts[rec.Timestamp.UTC().Hour()]++
		successes++
	}

	if successes < cfg.MinSamplesForTimeProfile {
		return nil
	}

	hour := in.attempt.Timestamp.UTC().Hour()
	frequency := float64(hourCounts[hour]) / float64(successes)
	if frequency >= cfg.UnusualHourFrequency {
		return nil
	}

	return &models.RiskFactor{
		Name:        FactorOddTime,
		Description: "Login at an unusual time for this user",
		Weight:      cfg.OddTimeWeight,
	}
}

// analyzeExcessiveFailures fires when the identity's rolling failure window
// exceeds the threshold. Unlike the baseline analyzers it does not need
// history: the counter is keyed by identity and applies even to accounts
// the store has never seen.
func analyzeExcessiveFailures(cfg Config, in analyzerInput) *models.RiskFactor {
	if in.failureCount <= cfg.FailureThreshold {
		return nil
	}
	return &models.RiskFactor{
		Name:        FactorExcessiveFailures,
		Description: "Multiple recent failed login attempts for this identity",
		Weight:      cfg.ExcessiveFailuresWeight,
	}
}
