package core

import (
	"errors"
	"fmt"
	"math"
	"time"

	satellite "github.com/joshuaferrara/go-satellite"

	"github.com/signalsfoundry/satobs/model"
	"github.com/signalsfoundry/satobs/tle"
)

// ErrUnsupportedMode is returned when a propagator cannot run the requested
// operating mode.
var ErrUnsupportedMode = errors.New("core: unsupported sgp4 operating mode")

// sgp4EarthRadiusKm is the WGS72 equatorial radius SGP4 uses for its decay
// check.
const sgp4EarthRadiusKm = 6378.135

const sgp4MuKm3PerSec2 = 398600.8

// apogeeMargin scales the epoch apogee into the largest radius a propagated
// state may reach before it is treated as diverged.
const apogeeMargin = 1.5

// SGP4Propagator runs SGP4 through go-satellite. go-satellite only accepts
// element lines, so Initialize renders canonical lines from the parameters.
type SGP4Propagator struct{}

// NewSGP4Propagator returns the go-satellite backed propagator.
func NewSGP4Propagator() *SGP4Propagator { return &SGP4Propagator{} }

// Initialize validates p and builds the SGP4 state for one satellite.
func (SGP4Propagator) Initialize(p InitParams) (Handle, error) {
	if p.Mode != OpsImproved {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMode, p.Mode)
	}
	gravity, err := satelliteGravity(p.Gravity)
	if err != nil {
		return nil, err
	}
	if p.Eccentricity < 0 || p.Eccentricity >= 1 || math.IsNaN(p.Eccentricity) {
		return nil, NewPropagationError(1, fmt.Sprintf("eccentricity %g outside [0, 1)", p.Eccentricity))
	}
	if !(p.MeanMotion > 0) {
		return nil, NewPropagationError(2, fmt.Sprintf("mean motion %g rad/min is not positive", p.MeanMotion))
	}

	line1, line2, err := tle.Format(elementSetFor(p))
	if err != nil {
		return nil, &PropagationError{Kind: PropUnknown, Detail: err.Error()}
	}

	sat := satellite.TLEToSat(line1, line2, gravity)
	if sat.Error != 0 {
		return nil, NewPropagationError(sat.Error, sat.ErrorStr)
	}
	return &sgp4Handle{
		sat:         sat,
		epoch:       p.Epoch.UTC(),
		maxRadiusKm: apogeeRadiusKm(p.MeanMotion, p.Eccentricity) * apogeeMargin,
		drag:        p.BStar > 0,
	}, nil
}

// apogeeRadiusKm derives a(1+e) from a mean motion in radians per minute.
func apogeeRadiusKm(meanMotion, ecc float64) float64 {
	n := meanMotion / 60
	a := math.Cbrt(sgp4MuKm3PerSec2 / (n * n))
	return a * (1 + ecc)
}

func satelliteGravity(g Gravity) (satellite.Gravity, error) {
	switch g {
	case GravityWGS72, "":
		return satellite.GravityWGS72, nil
	case GravityWGS72Old:
		return satellite.GravityWGS72Old, nil
	case GravityWGS84:
		return satellite.GravityWGS84, nil
	default:
		return satellite.GravityWGS72, fmt.Errorf("core: unknown gravity model %q", g)
	}
}

// elementSetFor rebuilds the subset of an element set SGP4 reads.
func elementSetFor(p InitParams) *model.ElementSet {
	num := p.CatalogNumber
	if num < 0 || num > 99999 {
		// go-satellite only reads numeric catalog numbers; SGP4 ignores it.
		num = 0
	}
	return &model.ElementSet{
		CatalogNumber:  num,
		Epoch:          p.Epoch.UTC(),
		BStar:          p.BStar,
		Inclination:    model.AngleFromRadians(p.Inclination),
		RightAscension: model.AngleFromRadians(normalizeRadians(p.RAAN)),
		Eccentricity:   p.Eccentricity,
		ArgOfPerigee:   model.AngleFromRadians(normalizeRadians(p.ArgPerigee)),
		MeanAnomaly:    model.AngleFromRadians(normalizeRadians(p.MeanAnomaly)),
		MeanMotion:     p.MeanMotion * 1440 / (2 * math.Pi),
	}
}

func normalizeRadians(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

type sgp4Handle struct {
	sat         satellite.Satellite
	epoch       time.Time
	maxRadiusKm float64
	drag        bool
}

// Compute propagates to whole seconds through go-satellite and advances the
// position linearly over the remaining fraction of a second.
//
// go-satellite drops its error codes because Propagate copies the satellite,
// so the returned state is checked instead: it must be finite and lie between
// the surface and a margin above the epoch apogee.
func (h *sgp4Handle) Compute(minutesSinceEpoch float64) (StateVector, error) {
	if math.IsNaN(minutesSinceEpoch) || math.IsInf(minutesSinceEpoch, 0) {
		return StateVector{}, &PropagationError{Kind: PropUnknown, Detail: "non-finite propagation time"}
	}
	t := h.epoch.Add(time.Duration(math.Round(minutesSinceEpoch * float64(time.Minute))))
	whole := t.Truncate(time.Second)
	frac := t.Sub(whole).Seconds()

	year, month, day := whole.Date()
	hour, minute, sec := whole.Clock()
	pos, vel := satellite.Propagate(h.sat, year, int(month), day, hour, minute, sec)

	sv := StateVector{
		Position: Vec3{X: pos.X + vel.X*frac, Y: pos.Y + vel.Y*frac, Z: pos.Z + vel.Z*frac},
		Velocity: Vec3{X: vel.X, Y: vel.Y, Z: vel.Z},
	}
	if err := h.checkState(Vec3{X: pos.X, Y: pos.Y, Z: pos.Z}, sv.Velocity); err != nil {
		return StateVector{}, err
	}
	return sv, nil
}

func (h *sgp4Handle) checkState(pos, vel Vec3) error {
	r := pos.Norm()
	switch {
	case math.IsNaN(r) || math.IsInf(r, 0) || r == 0:
		return &PropagationError{Kind: PropUnknown, Detail: "propagator returned no state"}
	case r < sgp4EarthRadiusKm:
		return NewPropagationError(6, fmt.Sprintf("radius %.3f km is below the surface", r))
	case r > h.maxRadiusKm:
		detail := fmt.Sprintf("radius %.3f km exceeds bound %.3f km", r, h.maxRadiusKm)
		if h.drag {
			// Drag has driven the mean semi-major axis through zero.
			return NewPropagationError(6, detail)
		}
		return NewPropagationError(3, detail)
	}
	if v := vel.Norm(); math.IsNaN(v) || math.IsInf(v, 0) {
		return &PropagationError{Kind: PropUnknown, Detail: "propagator returned non-finite velocity"}
	}
	return nil
}
