package core

import (
	"errors"
	"math"
	"time"
)

// EarthRadiusKm is the mean equatorial radius used to place observers.
const EarthRadiusKm = 6378.137

// Vec3 is a Cartesian vector in kilometres (or km/s for velocities).
type Vec3 struct {
	X, Y, Z float64
}

// DistanceTo returns the straight-line distance between two points.
func (v Vec3) DistanceTo(other Vec3) float64 {
	return v.Sub(other).Norm()
}

// Norm returns the Euclidean norm of the vector.
func (v Vec3) Norm() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// Add returns v + other.
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z}
}

// Sub returns v - other.
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z}
}

// Scale returns v multiplied by k.
func (v Vec3) Scale(k float64) Vec3 {
	return Vec3{X: v.X * k, Y: v.Y * k, Z: v.Z * k}
}

// Dot returns the dot product of two vectors.
func (v Vec3) Dot(other Vec3) float64 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z
}

// GeodeticToEarthFixed places an observer at latitude/longitude (degrees) on
// a sphere of radius EarthRadiusKm and tags the result with the Earth-fixed
// frame at t.
func GeodeticToEarthFixed(latDeg, lonDeg float64, t time.Time) Framed {
	lat := latDeg * math.Pi / 180
	lon := lonDeg * math.Pi / 180
	sLat, cLat := math.Sincos(lat)
	sLon, cLon := math.Sincos(lon)
	return Tag(Vec3{
		X: EarthRadiusKm * cLat * cLon,
		Y: EarthRadiusKm * cLat * sLon,
		Z: EarthRadiusKm * sLat,
	}, EarthFixed(t))
}

// ElevationDegrees returns the elevation angle of the target as seen from
// the observer, in degrees. 0° = geometric horizon, 90° = overhead.
func ElevationDegrees(observer, target Vec3) float64 {
	v := target.Sub(observer)
	vNorm := v.Norm()
	if vNorm == 0 {
		return 90
	}

	// Local zenith at observer is its normalised position vector.
	r := observer.Norm()
	if r == 0 {
		return 90
	}
	zenith := observer.Scale(1 / r)

	cosGamma := v.Dot(zenith) / vNorm
	if cosGamma > 1 {
		cosGamma = 1
	} else if cosGamma < -1 {
		cosGamma = -1
	}
	gammaDeg := math.Acos(cosGamma) * 180.0 / math.Pi

	return 90.0 - gammaDeg
}

// AzimuthDegrees returns the azimuth of target from observer, clockwise
// from north in [0, 360). The local vertical is the observer's radius
// vector.
func AzimuthDegrees(observer, target Vec3) float64 {
	lon := math.Atan2(observer.Y, observer.X)
	lat := math.Atan2(observer.Z, math.Hypot(observer.X, observer.Y))
	sLat, cLat := math.Sincos(lat)
	sLon, cLon := math.Sincos(lon)

	v := target.Sub(observer)
	east := -sLon*v.X + cLon*v.Y
	north := -sLat*cLon*v.X - sLat*sLon*v.Y + cLat*v.Z
	az := math.Atan2(east, north) * 180 / math.Pi
	if az < 0 {
		az += 360
	}
	return az
}

// LookAngle is the direction and distance to a satellite from an observer.
type LookAngle struct {
	AzimuthDeg   float64
	ElevationDeg float64
	RangeKm      float64
}

// Visible reports whether the satellite is above the geometric horizon.
func (l LookAngle) Visible() bool { return l.ElevationDeg > 0 }

var errObserverFrame = errors.New("core: observer must be tagged with the Earth-fixed frame")

// LookAngles expresses the observation in the observer's Earth-fixed frame
// at the observation time and returns azimuth, elevation and slant range.
// An Earth-fixed observer is stationary, so its coordinates are reused at
// the observation time.
func LookAngles(observer Framed, obs *Observation) (LookAngle, error) {
	if !observer.Tagged || observer.Frame.Kind != FrameEarthFixed {
		return LookAngle{}, errObserverFrame
	}
	frame := EarthFixed(obs.Time)
	target, err := obs.Position.In(frame)
	if err != nil {
		return LookAngle{}, err
	}
	return LookAngle{
		AzimuthDeg:   AzimuthDegrees(observer.Vec3, target.Vec3),
		ElevationDeg: ElevationDegrees(observer.Vec3, target.Vec3),
		RangeKm:      observer.DistanceTo(target.Vec3),
	}, nil
}
