package model

import (
	"fmt"
	"math"
	"time"
)

// Classification is the security classification carried in column 7 of line 1.
type Classification int

const (
	Unclassified Classification = iota
	Classified
	Secret
)

// Code returns the single-letter TLE code for the classification.
func (c Classification) Code() string {
	switch c {
	case Classified:
		return "C"
	case Secret:
		return "S"
	default:
		return "U"
	}
}

func (c Classification) String() string {
	switch c {
	case Classified:
		return "classified"
	case Secret:
		return "secret"
	default:
		return "unclassified"
	}
}

// ClassificationFromCode maps a TLE classification letter to a Classification.
func ClassificationFromCode(code string) (Classification, bool) {
	switch code {
	case "U":
		return Unclassified, true
	case "C":
		return Classified, true
	case "S":
		return Secret, true
	}
	return Unclassified, false
}

// Designator is the international (COSPAR) designator of a launch.
type Designator struct {
	LaunchYear   int    // two-digit year
	LaunchNumber int    // launch of the year
	Piece        string // up to three characters
}

// IsZero reports whether the designator was left blank in the source record.
func (d Designator) IsZero() bool {
	return d == Designator{}
}

func (d Designator) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%02d%03d%s", d.LaunchYear, d.LaunchNumber, d.Piece)
}

// Angle stores an angle in both degrees and radians.
type Angle struct {
	Degrees float64
	Radians float64
}

// AngleFromDegrees builds an Angle from a value in degrees.
func AngleFromDegrees(deg float64) Angle {
	return Angle{Degrees: deg, Radians: deg * math.Pi / 180}
}

// AngleFromRadians builds an Angle from a value in radians.
func AngleFromRadians(rad float64) Angle {
	return Angle{Degrees: rad * 180 / math.Pi, Radians: rad}
}

// Record holds the raw text lines an element set was decoded from.
type Record struct {
	Name  string
	Line1 string
	Line2 string
}

// ElementSet is a decoded two-line element set. Values are read-only once
// returned by the parser; callers share it by pointer but never mutate it.
type ElementSet struct {
	Name           string
	CatalogNumber  int
	Classification Classification
	Designator     Designator
	Epoch          time.Time

	MeanMotionDot    float64 // first derivative of mean motion / 2, rev/day²
	MeanMotionDDot   float64 // second derivative of mean motion / 6, rev/day³
	BStar            float64 // drag term, 1/earth radii
	EphemerisType    int
	ElementSetNumber int

	Inclination     Angle
	RightAscension  Angle
	Eccentricity    float64
	ArgOfPerigee    Angle
	MeanAnomaly     Angle
	MeanMotion      float64 // rev/day
	RevolutionCount int

	Source Record
}

// MeanMotionRadPerMin converts the mean motion from revolutions per day to
// radians per minute.
func (e *ElementSet) MeanMotionRadPerMin() float64 {
	return e.MeanMotion * 2 * math.Pi / (24 * 60)
}

// MinutesSinceEpoch returns the elapsed time from the element-set epoch to t
// in minutes. Negative values are times before the epoch.
func (e *ElementSet) MinutesSinceEpoch(t time.Time) float64 {
	return t.Sub(e.Epoch).Minutes()
}

// Label is a short human-readable identity used in logs.
func (e *ElementSet) Label() string {
	if e.Name == "" {
		return fmt.Sprintf("%d", e.CatalogNumber)
	}
	return fmt.Sprintf("%d (%s)", e.CatalogNumber, e.Name)
}
