package geo_test

import (
	"math"
	"testing"
	"time"

	"github.com/jmcallister/riskgate/internal/geo"
	"github.com/jmcallister/riskgate/internal/models"
	"github.com/stretchr/testify/assert"
)

var (
	london = models.GeoLocation{Latitude: 51.5074, Longitude: -0.1278, Country: "GB", City: "London"}
	paris  = models.GeoLocation{Latitude: 48.8566, Longitude: 2.3522, Country: "FR", City: "Paris"}
	nyc    = models.GeoLocation{Latitude: 40.7128, Longitude: -74.0060, Country: "US", City: "New York"}
	origin = models.GeoLocation{Latitude: 0, Longitude: 0}
)

func TestDistanceKm_KnownPairs(t *testing.T) {
	tests := []struct {
		name     string
		a, b     models.GeoLocation
		expected float64
		delta    float64
	}{
		{"london to paris", london, paris, 344, 5},
		{"london to new york", london, nyc, 5570, 30},
		{"equator origin to london", origin, london, 5715, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, geo.DistanceKm(tt.a, tt.b), tt.delta)
		})
	}
}

func TestDistanceKm_Symmetric(t *testing.T) {
	assert.Equal(t, geo.DistanceKm(london, nyc), geo.DistanceKm(nyc, london))
}

func TestDistanceKm_SamePointIsZero(t *testing.T) {
	assert.Equal(t, 0.0, geo.DistanceKm(paris, paris))
}

func TestTravelSpeedKmh_OneHourHop(t *testing.T) {
	now := time.Now()
	speed := geo.TravelSpeedKmh(london, now, nyc, now.Add(1*time.Hour))

	assert.InDelta(t, 5570, speed, 30)
}

func TestTravelSpeedKmh_ZeroElapsedIsInfinite(t *testing.T) {
	now := time.Now()

	assert.True(t, math.IsInf(geo.TravelSpeedKmh(london, now, nyc, now), 1))
	assert.True(t, math.IsInf(geo.TravelSpeedKmh(london, now, nyc, now.Add(-time.Minute)), 1))
}
