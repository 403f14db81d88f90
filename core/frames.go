package core

import (
	"fmt"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"
)

// FrameKind enumerates the supported reference frames.
type FrameKind int

const (
	// FrameGCRF is the geocentric celestial baseline frame.
	FrameGCRF FrameKind = iota
	// FrameTEME is the true-equator, mean-equinox frame SGP4 works in.
	FrameTEME
	// FrameEarthFixed is a pseudo Earth-fixed frame: TEME rotated by GMST.
	// UT1 is taken equal to UTC and polar motion is ignored.
	FrameEarthFixed
)

// Frame identifies a reference frame at an instant. Time-independent frames
// ignore Epoch.
type Frame struct {
	Kind  FrameKind
	Epoch time.Time
}

// GCRF returns the baseline frame.
func GCRF() Frame { return Frame{Kind: FrameGCRF} }

// TEME returns the propagator-native frame at t.
func TEME(t time.Time) Frame { return Frame{Kind: FrameTEME, Epoch: t.UTC()} }

// EarthFixed returns the Earth-fixed frame at t.
func EarthFixed(t time.Time) Frame { return Frame{Kind: FrameEarthFixed, Epoch: t.UTC()} }

type frameOps struct {
	name string
	// toBaseline returns the matrix rotating frame coordinates into GCRF.
	toBaseline func(epoch time.Time) Matrix
}

var frameTable = [...]frameOps{
	FrameGCRF: {
		name:       "GCRF",
		toBaseline: func(time.Time) Matrix { return Identity },
	},
	FrameTEME: {
		name: "TEME",
		toBaseline: func(epoch time.Time) Matrix {
			return temeToGCRF(UTCToTT(JulianDate(epoch)), EOPCorrection{})
		},
	},
	FrameEarthFixed: {
		name: "EarthFixed",
		toBaseline: func(epoch time.Time) Matrix {
			jd := JulianDate(epoch)
			teme := temeToGCRF(UTCToTT(jd), EOPCorrection{})
			return Compose(teme, R3(-satellite.ThetaG_JD(jd)))
		},
	},
}

func (f Frame) ops() frameOps {
	if f.Kind < 0 || int(f.Kind) >= len(frameTable) {
		panic(fmt.Sprintf("core: unknown frame kind %d", int(f.Kind)))
	}
	return frameTable[f.Kind]
}

// Name returns the frame's short name.
func (f Frame) Name() string { return f.ops().name }

func (f Frame) String() string {
	if f.Kind == FrameGCRF {
		return f.Name()
	}
	return f.Name() + "@" + f.Epoch.Format(time.RFC3339Nano)
}

// Equal reports whether f and g denote the same frame at the same instant.
func (f Frame) Equal(g Frame) bool {
	if f.Kind != g.Kind {
		return false
	}
	return f.Kind == FrameGCRF || f.Epoch.Equal(g.Epoch)
}

// BaselineMatrix returns the rotation taking f coordinates into GCRF.
func (f Frame) BaselineMatrix() Matrix {
	return f.ops().toBaseline(f.Epoch)
}

// ToBaseline converts v from f into GCRF.
func (f Frame) ToBaseline(v Vec3) (Vec3, error) {
	return f.BaselineMatrix().Rotate(v), nil
}

// FromBaseline converts v from GCRF into f, using the inverse of the
// to-baseline matrix.
func (f Frame) FromBaseline(v Vec3) (Vec3, error) {
	inv, err := f.BaselineMatrix().Invert()
	if err != nil {
		return Vec3{}, fmt.Errorf("core: %s from baseline: %w", f.Name(), err)
	}
	return inv.Rotate(v), nil
}

// Transform returns the matrix converting coordinates in from into to,
// routed through the baseline frame.
func Transform(from, to Frame) (Matrix, error) {
	if from.Equal(to) {
		return Identity, nil
	}
	inv, err := to.BaselineMatrix().Invert()
	if err != nil {
		return Matrix{}, fmt.Errorf("core: %s from baseline: %w", to.Name(), err)
	}
	return Compose(inv, from.BaselineMatrix()), nil
}

// Framed is a vector with an optional frame tag.
type Framed struct {
	Vec3
	Frame  Frame
	Tagged bool
}

// Tag returns v tagged with f.
func Tag(v Vec3, f Frame) Framed {
	return Framed{Vec3: v, Frame: f, Tagged: true}
}

// In expresses p in target. An untagged vector is tagged with target
// without conversion.
func (p Framed) In(target Frame) (Framed, error) {
	if !p.Tagged {
		return Tag(p.Vec3, target), nil
	}
	if p.Frame.Equal(target) {
		return p, nil
	}
	base, err := p.Frame.ToBaseline(p.Vec3)
	if err != nil {
		return Framed{}, err
	}
	out, err := target.FromBaseline(base)
	if err != nil {
		return Framed{}, err
	}
	return Tag(out, target), nil
}
