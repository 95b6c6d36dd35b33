// Package geo contains pure geographic computation helpers and the
// coordinate value types shared across modules.
package geo

import "math"

// earthRadiusM is the mean Earth radius in metres (spherical model).
const earthRadiusM = 6371000.0

// Point is a WGS84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies inside the WGS84 coordinate ranges.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// PlanarPoint is a position in metres east (X) and north (Y) of the
// projection center that produced it. Planar points from different centers
// must never be compared.
type PlanarPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance returns the great-circle (haversine) distance in metres between
// two points.
func Distance(a, b Point) float64 {
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	rLat1 := degreesToRadians(a.Lat)
	rLat2 := degreesToRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusM * c
}

// Bearing returns the initial bearing in degrees from a to b, 0 = north,
// clockwise positive, always in [0,360).
func Bearing(a, b Point) float64 {
	phi1 := degreesToRadians(a.Lat)
	phi2 := degreesToRadians(b.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	y := math.Sin(dLng) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLng)

	theta := math.Atan2(y, x)
	return math.Mod(radiansToDegrees(theta)+360, 360)
}

// Project maps p into the local planar frame centered on center using an
// equirectangular approximation. Good for spans up to a few kilometres; no
// curvature correction.
func Project(p, center Point) PlanarPoint {
	return PlanarPoint{
		X: degreesToRadians(p.Lng-center.Lng) * earthRadiusM * math.Cos(degreesToRadians(center.Lat)),
		Y: degreesToRadians(p.Lat-center.Lat) * earthRadiusM,
	}
}

// Unproject is the exact inverse of Project for the same center.
func Unproject(pl PlanarPoint, center Point) Point {
	return Point{
		Lat: center.Lat + radiansToDegrees(pl.Y/earthRadiusM),
		Lng: center.Lng + radiansToDegrees(pl.X/(earthRadiusM*math.Cos(degreesToRadians(center.Lat)))),
	}
}

// Rotate rotates pl about the origin by angleDegrees, counter-clockwise
// positive.
func Rotate(pl PlanarPoint, angleDegrees float64) PlanarPoint {
	rad := degreesToRadians(angleDegrees)
	sin, cos := math.Sincos(rad)
	return PlanarPoint{
		X: pl.X*cos - pl.Y*sin,
		Y: pl.X*sin + pl.Y*cos,
	}
}

// DestinationPoint returns the point reached by travelling distanceM metres
// from center along the given initial bearing (forward spherical solution).
func DestinationPoint(center Point, distanceM, bearingDegrees float64) Point {
	delta := distanceM / earthRadiusM
	theta := degreesToRadians(bearingDegrees)
	phi1 := degreesToRadians(center.Lat)
	lambda1 := degreesToRadians(center.Lng)

	phi2 := math.Asin(math.Sin(phi1)*math.Cos(delta) +
		math.Cos(phi1)*math.Sin(delta)*math.Cos(theta))
	lambda2 := lambda1 + math.Atan2(
		math.Sin(theta)*math.Sin(delta)*math.Cos(phi1),
		math.Cos(delta)-math.Sin(phi1)*math.Sin(phi2))

	return Point{Lat: radiansToDegrees(phi2), Lng: radiansToDegrees(lambda2)}
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func radiansToDegrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
