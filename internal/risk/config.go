package risk

import (
	"fmt"
	"time"
)

// Config holds the tunable weights and thresholds for risk analysis. Every
// value here is deployment configuration, not policy baked into code.
type Config struct {
	// Factor weights, each contributing to the capped 0-100 score.
	NewDeviceWeight         int
	NewLocationWeight       int
	ImpossibleTravelWeight  int
	OddTimeWeight           int
	ExcessiveFailuresWeight int

	// Action thresholds: score < MFAThreshold allows, score >= BlockThreshold
	// blocks, anything between requires MFA.
	MFAThreshold   int
	BlockThreshold int

	// KnownLocationRadiusKm is how close a login must be to a historical
	// location to count as familiar.
	KnownLocationRadiusKm float64

	// MaxTravelSpeedKmh is the fastest plausible travel between two logins.
	MaxTravelSpeedKmh float64

	// MinSamplesForTimeProfile is how many successful logins are needed
	// before the hour-of-day profile activates.
	MinSamplesForTimeProfile int

	// UnusualHourFrequency: an hour seen in less than this share of the
	// user's successful logins is unusual.
	UnusualHourFrequency float64

	// FailureThreshold: more failures than this within the counter's window
	// raises the excessive_failures factor.
	FailureThreshold int

	// ClockSkewTolerance is how far in the future an attempt timestamp may
	// sit before the input is rejected outright.
	ClockSkewTolerance time.Duration
}

// DefaultConfig returns the standard policy.
func DefaultConfig() Config {
	return Config{
		NewDeviceWeight:          20,
		NewLocationWeight:        15,
		ImpossibleTravelWeight:   30,
		OddTimeWeight:            15,
		ExcessiveFailuresWeight:  20,
		MFAThreshold:             30,
		BlockThreshold:           70,
		KnownLocationRadiusKm:    50,
		MaxTravelSpeedKmh:        1000,
		MinSamplesForTimeProfile: 5,
		UnusualHourFrequency:     0.10,
		FailureThreshold:         5,
		ClockSkewTolerance:       5 * time.Minute,
	}
}

// Validate rejects configs that would produce nonsensical policy.
func (c Config) Validate() error {
	if c.MFAThreshold < 0 || c.BlockThreshold < 0 {
		return fmt.Errorf("thresholds must be non-negative (mfa=%d, block=%d)", c.MFAThreshold, c.BlockThreshold)
	}
	if c.MFAThreshold > c.BlockThreshold {
		return fmt.Errorf("MFA threshold (%d) must not exceed block threshold (%d)", c.MFAThreshold, c.BlockThreshold)
	}
	for name, w := range map[string]int{
		"new_device":         c.NewDeviceWeight,
		"new_location":       c.NewLocationWeight,
		"impossible_travel":  c.ImpossibleTravelWeight,
		"odd_time":           c.OddTimeWeight,
		"excessive_failures": c.ExcessiveFailuresWeight,
	} {
		if w < 0 {
			return fmt.Errorf("weight for %s must be non-negative (got %d)", name, w)
		}
	}
	if c.KnownLocationRadiusKm < 0 {
		return fmt.Errorf("known location radius must be non-negative (got %.1f)", c.KnownLocationRadiusKm)
	}
	if c.MaxTravelSpeedKmh <= 0 {
		return fmt.Errorf("max travel speed must be positive (got %.1f)", c.MaxTravelSpeedKmh)
	}
	if c.UnusualHourFrequency < 0 || c.UnusualHourFrequency > 1 {
		return fmt.Errorf("unusual hour frequency must be within [0,1] (got %.2f)", c.UnusualHourFrequency)
	}
	return nil
}
