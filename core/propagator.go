package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/signalsfoundry/satobs/model"
)

// OpsMode selects the SGP4 operating mode.
type OpsMode int

const (
	// OpsImproved is the modern mode with the improved GMST and
	// deep-space resonance handling.
	OpsImproved OpsMode = iota
	// OpsAFSPC reproduces the historical AFSPC code paths.
	OpsAFSPC
)

func (m OpsMode) String() string {
	switch m {
	case OpsImproved:
		return "improved"
	case OpsAFSPC:
		return "afspc"
	default:
		return fmt.Sprintf("OpsMode(%d)", int(m))
	}
}

// ParseOpsMode accepts "improved" / "i" and "afspc" / "a".
func ParseOpsMode(s string) (OpsMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "improved", "i":
		return OpsImproved, nil
	case "afspc", "a":
		return OpsAFSPC, nil
	default:
		return 0, fmt.Errorf("core: unknown ops mode %q", s)
	}
}

// Gravity selects the geopotential constant set.
type Gravity string

const (
	GravityWGS72Old Gravity = "wgs72old"
	GravityWGS72    Gravity = "wgs72"
	GravityWGS84    Gravity = "wgs84"
)

// ParseGravity validates a constant-set name. An empty name selects WGS72,
// the set element sets are fitted with.
func ParseGravity(s string) (Gravity, error) {
	switch g := Gravity(strings.ToLower(strings.TrimSpace(s))); g {
	case "":
		return GravityWGS72, nil
	case GravityWGS72Old, GravityWGS72, GravityWGS84:
		return g, nil
	default:
		return "", fmt.Errorf("core: unknown gravity model %q", s)
	}
}

// InitParams carries everything the propagator needs to initialise one
// satellite. Angles are radians and MeanMotion is radians per minute.
type InitParams struct {
	CatalogNumber int
	Mode          OpsMode
	Gravity       Gravity

	BStar        float64
	Eccentricity float64
	Epoch        time.Time
	ArgPerigee   float64
	Inclination  float64
	MeanAnomaly  float64
	MeanMotion   float64
	RAAN         float64
}

// InitParamsFor derives propagator parameters from an element set.
func InitParamsFor(es *model.ElementSet, mode OpsMode, gravity Gravity) InitParams {
	return InitParams{
		CatalogNumber: es.CatalogNumber,
		Mode:          mode,
		Gravity:       gravity,
		BStar:         es.BStar,
		Eccentricity:  es.Eccentricity,
		Epoch:         es.Epoch,
		ArgPerigee:    es.ArgOfPerigee.Radians,
		Inclination:   es.Inclination.Radians,
		MeanAnomaly:   es.MeanAnomaly.Radians,
		MeanMotion:    es.MeanMotionRadPerMin(),
		RAAN:          es.RightAscension.Radians,
	}
}

// StateVector is a position (km) and velocity (km/s) in TEME.
type StateVector struct {
	Position Vec3
	Velocity Vec3
}

// Propagator initialises per-satellite propagation state.
type Propagator interface {
	Initialize(p InitParams) (Handle, error)
}

// Handle is the propagation state of one satellite. A Handle is owned by a
// single caller; Compute may update internal state and must not be called
// concurrently on the same Handle.
type Handle interface {
	// Compute propagates to the given minutes since epoch.
	Compute(minutesSinceEpoch float64) (StateVector, error)
}

// PropagationErrorKind classifies SGP4 failures.
type PropagationErrorKind int

const (
	PropUnknown PropagationErrorKind = iota
	PropMeanElements
	PropMeanMotion
	PropPerturbedElements
	PropNegativeSemiLatusRectum
	PropSubOrbitalEpoch
	PropDecayed
)

func (k PropagationErrorKind) String() string {
	switch k {
	case PropMeanElements:
		return "mean_elements"
	case PropMeanMotion:
		return "mean_motion"
	case PropPerturbedElements:
		return "perturbed_elements"
	case PropNegativeSemiLatusRectum:
		return "negative_semi_latus_rectum"
	case PropSubOrbitalEpoch:
		return "sub_orbital_epoch"
	case PropDecayed:
		return "decayed"
	default:
		return "unknown"
	}
}

// PropagationErrorKindFromCode maps SGP4 error codes 1-6 to a kind. Other
// codes map to PropUnknown.
func PropagationErrorKindFromCode(code int64) PropagationErrorKind {
	if code >= 1 && code <= 6 {
		return PropagationErrorKind(code)
	}
	return PropUnknown
}

// PropagationError reports a propagator failure. Code carries the raw SGP4
// error code when one is available.
type PropagationError struct {
	Kind   PropagationErrorKind
	Code   int64
	Detail string
}

// NewPropagationError builds an error from a raw SGP4 error code.
func NewPropagationError(code int64, detail string) *PropagationError {
	return &PropagationError{Kind: PropagationErrorKindFromCode(code), Code: code, Detail: detail}
}

func (e *PropagationError) Error() string {
	msg := "sgp4: " + e.Kind.String()
	if e.Code != 0 {
		msg += fmt.Sprintf(" (code %d)", e.Code)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

// Is matches another *PropagationError of the same kind.
func (e *PropagationError) Is(target error) bool {
	t, ok := target.(*PropagationError)
	return ok && t.Kind == e.Kind
}

// PropagationKindOf extracts the failure kind from err. ok is false when err
// carries no PropagationError.
func PropagationKindOf(err error) (kind PropagationErrorKind, ok bool) {
	var pe *PropagationError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return PropUnknown, false
}
