// Package geo provides great-circle distance and travel-speed helpers for
// location-based risk analysis.
package geo

import (
	"math"
	"time"

	"github.com/jmcallister/riskgate/internal/models"
)

// earthRadiusKm is the mean Earth radius used by the spherical approximation.
const earthRadiusKm = 6371.0

// DistanceKm returns the haversine great-circle distance between two
// locations in kilometers. It is symmetric and zero for identical points.
func DistanceKm(a, b models.GeoLocation) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	deltaLat := toRadians(b.Latitude - a.Latitude)
	deltaLon := toRadians(b.Longitude - a.Longitude)

	h := math.Pow(math.Sin(deltaLat/2), 2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin(deltaLon/2), 2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// TravelSpeedKmh returns the implied speed of moving from location a at ta to
// location b at tb. Zero or negative elapsed time yields +Inf so that
// simultaneous logins from distinct places always read as impossible.
func TravelSpeedKmh(a models.GeoLocation, ta time.Time, b models.GeoLocation, tb time.Time) float64 {
	hours := tb.Sub(ta).Hours()
	if hours <= 0 {
		return math.Inf(1)
	}
	return DistanceKm(a, b) / hours
}

func toRadians(degrees float64) float64 {
	return degrees * math.Pi / 180
}
