package core

import (
	"math"

	"github.com/soniakeys/meeus/v3/nutation"
	"github.com/soniakeys/unit"
)

// EOPCorrection holds the celestial pole offsets δΔψ and δΔε (radians)
// published with Earth orientation parameters. No EOP source is wired in,
// so conversions use the zero value.
type EOPCorrection struct {
	DeltaPsi     float64
	DeltaEpsilon float64
}

// fk5Precession returns the IAU 1976 precession angles ζ, θ, z (radians)
// for t Julian centuries of TT since J2000.
func fk5Precession(t float64) (zeta, theta, z float64) {
	zeta = unit.AngleFromSec(EvalPoly(t, 0, 2306.2181, 0.30188, 0.017998)).Rad()
	theta = unit.AngleFromSec(EvalPoly(t, 0, 2004.3109, -0.42665, -0.041833)).Rad()
	z = unit.AngleFromSec(EvalPoly(t, 0, 2306.2181, 1.09468, 0.018203)).Rad()
	return zeta, theta, z
}

// modToGCRF rotates mean-of-date coordinates into GCRF.
func modToGCRF(jdTT float64) Matrix {
	zeta, theta, z := fk5Precession((jdTT - J2000) / DaysPerCentury)
	return EulerRotation(ZYZ, z, -theta, zeta)
}

// lunarNode returns the mean longitude of the Moon's ascending node
// (radians) for t Julian centuries of TT since J2000.
func lunarNode(t float64) float64 {
	deg := EvalPoly(t, 125.04452222, -5*360-134.1362608, 0.0020708, 2.2e-6)
	return math.Mod(deg, 360) * math.Pi / 180
}

// temeToMOD rotates TEME coordinates into the mean-of-date frame: TEME to
// true-of-date through the equation of the equinoxes, then true-of-date to
// mean-of-date through IAU 1980 nutation.
func temeToMOD(jdTT float64, eop EOPCorrection) Matrix {
	t := (jdTT - J2000) / DaysPerCentury

	meanEps := nutation.MeanObliquity(jdTT).Rad()
	dPsi, dEps := nutation.Nutation(jdTT)
	deltaPsi := dPsi.Rad() + eop.DeltaPsi
	deltaEps := dEps.Rad() + eop.DeltaEpsilon
	eps := meanEps + deltaEps

	node := lunarNode(t)
	eqEq := deltaPsi*math.Cos(meanEps) +
		unit.AngleFromSec(0.002640*math.Sin(node)+0.000063*math.Sin(2*node)).Rad()

	todFromTEME := EulerRotation(ZYX, -eqEq, 0, 0)
	modFromTOD := EulerRotation(XZX, eps, deltaPsi, -meanEps)
	return Compose(modFromTOD, todFromTEME)
}

// temeToGCRF returns the full TEME to GCRF rotation at the TT Julian date.
func temeToGCRF(jdTT float64, eop EOPCorrection) Matrix {
	return Compose(modToGCRF(jdTT), temeToMOD(jdTT, eop))
}
