// Shiplog - Vessel Port Call Reconciliation and Feed Generation
// Copyright 2026 Shiplog Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/shiplog/shiplog

package geofence

import "math"

const earthRadiusKm = 6371.0

// Haversine returns the great-circle distance in kilometers between
// two coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180.0
	lat2Rad := lat2 * math.Pi / 180.0
	dLat := (lat2 - lat1) * math.Pi / 180.0
	dLon := (lon2 - lon1) * math.Pi / 180.0

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// isUnknownPosition reports whether the coordinates are the (0, 0)
// unknown-location sentinel, using epsilon comparison rather than
// direct float equality.
func isUnknownPosition(lat, lon float64) bool {
	return math.Abs(lat) < coordinateEpsilon && math.Abs(lon) < coordinateEpsilon
}
