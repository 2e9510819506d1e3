// Package geofence checks punches against the configured site radius.
package geofence

import (
	"math"

	"github.com/and161185/pontofacil/internal/errs"
	"github.com/and161185/pontofacil/internal/model"
)

// EarthRadiusM is the mean Earth radius used by the haversine formula.
const EarthRadiusM = 6371000.0

func radians(deg float64) float64 { return deg * math.Pi / 180 }

// Distance returns the great-circle distance in meters between two coordinates.
func Distance(lat1, lng1, lat2, lng2 float64) float64 {
	phi1, phi2 := radians(lat1), radians(lat2)
	dPhi := radians(lat2 - lat1)
	dLambda := radians(lng2 - lng1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	// rounding can push a just outside [0, 1] near antipodes
	a = math.Min(1, math.Max(0, a))
	return 2 * EarthRadiusM * math.Asin(math.Sqrt(a))
}

// Validate rejects coordinates that are not finite or fall outside the WGS84 ranges.
func Validate(loc model.Location) error {
	switch {
	case math.IsNaN(loc.Lat) || math.IsInf(loc.Lat, 0) || loc.Lat < -90 || loc.Lat > 90:
		return errs.Invalid("latitude out of range: %v", loc.Lat)
	case math.IsNaN(loc.Lng) || math.IsInf(loc.Lng, 0) || loc.Lng < -180 || loc.Lng > 180:
		return errs.Invalid("longitude out of range: %v", loc.Lng)
	}
	return nil
}

// Check measures loc against site. A nil site disables the check and yields a
// nil distance. A position beyond the radius fails with *errs.GeofenceError;
// a distance that cannot be compared never admits.
func Check(site *model.SiteConfig, loc model.Location) (*float64, error) {
	if err := Validate(loc); err != nil {
		return nil, err
	}
	if site == nil {
		return nil, nil
	}
	d := Distance(loc.Lat, loc.Lng, site.Lat, site.Lng)
	if !(d <= float64(site.RadiusM)) {
		return nil, &errs.GeofenceError{DistanceM: d, RadiusM: site.RadiusM}
	}
	return &d, nil
}
