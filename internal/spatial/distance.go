package spatial

import "math"

// EarthRadiusMeters is Earth's mean radius in meters used by the haversine
// formula and the equirectangular nearest-neighbor approximation.
const EarthRadiusMeters float64 = 6371000.0

// HaversineMeters computes the great-circle distance between two WGS84
// points, in meters, rounded to the nearest millimeter to keep cache keys
// and test fixtures stable.
func HaversineMeters(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lon1Rad := lon1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	lon2Rad := lon2 * math.Pi / 180.0

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Asin(math.Sqrt(a))
	dist := EarthRadiusMeters * c

	return math.Round(dist*1000) / 1000
}

// EquirectangularApproxMeters is a fast, small-radius approximation of
// HaversineMeters used for bulk nearest-neighbor scans where sub-meter
// accuracy does not matter (nearest-meter and meter-count lookups).
func EquirectangularApproxMeters(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180.0
	phi2 := lat2 * math.Pi / 180.0
	dPhi := phi2 - phi1
	dLambda := (lon2 - lon1) * math.Pi / 180.0

	x := dLambda * math.Cos((phi1+phi2)/2)
	y := dPhi
	return EarthRadiusMeters * math.Sqrt(x*x+y*y)
}

// MetersToDegreesLat converts a distance in meters to an equivalent span of
// latitude degrees.
func MetersToDegreesLat(meters float64) float64 {
	return meters / 111320.0
}

// MetersToDegreesLng converts a distance in meters to an equivalent span of
// longitude degrees at the given latitude.
func MetersToDegreesLng(meters, latDeg float64) float64 {
	latRad := latDeg * math.Pi / 180.0
	denom := 111320.0 * math.Cos(latRad)
	if denom == 0 {
		return 0
	}
	return meters / denom
}
