// Package geo converts between vehicle-local offsets and WGS-84 coordinates.
// Angles are radians, distances are metres.
package geo

import (
	"math"

	"github.com/autopeer-io/teleop/pkg/imc"
)

const (
	// SemiMajorAxis of the WGS-84 ellipsoid.
	SemiMajorAxis = 6378137.0
	// Flattening of the WGS-84 ellipsoid.
	Flattening = 1 / 298.257223563
)

var eccentricitySq = Flattening * (2 - Flattening)

// radii returns the meridional and prime-vertical radii of curvature at lat.
func radii(lat float64) (meridional, primeVertical float64) {
	s := math.Sin(lat)
	w := 1 - eccentricitySq*s*s
	primeVertical = SemiMajorAxis / math.Sqrt(w)
	meridional = SemiMajorAxis * (1 - eccentricitySq) / (w * math.Sqrt(w))
	return meridional, primeVertical
}

// Displace moves (lat, lon) by north and east metres.
func Displace(lat, lon, north, east float64) (float64, float64) {
	m, n := radii(lat)
	lat2 := lat + north/m
	lon2 := lon + east/(n*math.Cos(lat))
	return lat2, wrapLon(lon2)
}

// ToWGS84 applies a NED offset to a reference point and returns the absolute
// latitude, longitude and height above ellipsoid.
func ToWGS84(lat, lon float64, height, x, y, z float64) (float64, float64, float64) {
	lat2, lon2 := Displace(lat, lon, x, y)
	return lat2, lon2, height - z
}

// StateToWGS84 is ToWGS84 for an estimated state message.
func StateToWGS84(es *imc.EstimatedState) (lat, lon, hae float64) {
	return ToWGS84(es.Lat, es.Lon, float64(es.Height), float64(es.X), float64(es.Y), float64(es.Z))
}

// Offset returns the north and east distance from the first point to the second.
// It is a local approximation, fine over the few kilometres a plan spans.
func Offset(lat1, lon1, lat2, lon2 float64) (north, east float64) {
	m, n := radii((lat1 + lat2) / 2)
	north = (lat2 - lat1) * m
	east = wrapLon(lon2-lon1) * n * math.Cos((lat1+lat2)/2)
	return north, east
}

// Distance is the horizontal distance between two points, see Offset.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	n, e := Offset(lat1, lon1, lat2, lon2)
	return math.Hypot(n, e)
}

func wrapLon(lon float64) float64 {
	for lon > math.Pi {
		lon -= 2 * math.Pi
	}
	for lon < -math.Pi {
		lon += 2 * math.Pi
	}
	return lon
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 { return deg * math.Pi / 180 }

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 { return rad * 180 / math.Pi }
