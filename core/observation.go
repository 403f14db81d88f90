package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/satobs/internal/logging"
	"github.com/signalsfoundry/satobs/internal/observability"
	"github.com/signalsfoundry/satobs/model"
)

// ErrCannotComputePosition is the only propagation failure callers of the
// pipeline see. The specific PropagationError kind is logged and counted.
var ErrCannotComputePosition = errors.New("core: cannot compute position")

// ErrNilElementSet is returned when no element set is supplied.
var ErrNilElementSet = errors.New("core: nil element set")

// Observation is the state of a satellite at one instant. Brightness is not
// modelled and is always 0.
type Observation struct {
	Time       time.Time
	Position   Framed
	Velocity   Framed
	Brightness float64
}

// ObservationService turns element sets into observations in the baseline
// frame using a Propagator.
type ObservationService struct {
	prop    Propagator
	mode    OpsMode
	gravity Gravity
	log     logging.Logger
	metrics *observability.ObservationCollector
	tracer  trace.Tracer
}

// ObservationOption configures an ObservationService.
type ObservationOption func(*ObservationService)

// WithLogger sets the service logger.
func WithLogger(l logging.Logger) ObservationOption {
	return func(s *ObservationService) {
		if l != nil {
			s.log = l
		}
	}
}

// WithMetrics records pipeline metrics on c.
func WithMetrics(c *observability.ObservationCollector) ObservationOption {
	return func(s *ObservationService) { s.metrics = c }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) ObservationOption {
	return func(s *ObservationService) {
		if t != nil {
			s.tracer = t
		}
	}
}

// WithOpsMode selects the SGP4 operating mode.
func WithOpsMode(m OpsMode) ObservationOption {
	return func(s *ObservationService) { s.mode = m }
}

// WithGravity selects the geopotential constant set.
func WithGravity(g Gravity) ObservationOption {
	return func(s *ObservationService) { s.gravity = g }
}

// NewObservationService builds a service around prop.
func NewObservationService(prop Propagator, opts ...ObservationOption) *ObservationService {
	s := &ObservationService{
		prop:    prop,
		mode:    OpsImproved,
		gravity: GravityWGS72,
		log:     logging.Noop(),
		tracer:  observability.Tracer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ObserveAt initialises a fresh propagator handle for es and observes it at
// t. Use a Session to reuse one handle across many queries.
func (s *ObservationService) ObserveAt(ctx context.Context, es *model.ElementSet, t time.Time) (*Observation, error) {
	start := time.Now()
	ctx, span := s.startSpan(ctx, "satobs.ObserveAt", es, t)
	defer span.End()

	obs, err := s.observeOnce(ctx, es, t)
	s.metrics.RecordObservation("observe", err, time.Since(start))
	endSpan(span, err)
	return obs, err
}

func (s *ObservationService) observeOnce(ctx context.Context, es *model.ElementSet, t time.Time) (*Observation, error) {
	h, err := s.initialize(ctx, es)
	if err != nil {
		return nil, err
	}
	return s.observe(ctx, es, h, t)
}

func (s *ObservationService) initialize(ctx context.Context, es *model.ElementSet) (Handle, error) {
	if es == nil {
		return nil, ErrNilElementSet
	}
	h, err := s.prop.Initialize(InitParamsFor(es, s.mode, s.gravity))
	if err != nil {
		return nil, s.propagationFailed(ctx, es, "initialize", err)
	}
	return h, nil
}

// observe runs one compute step on h and converts the TEME state to GCRF.
func (s *ObservationService) observe(ctx context.Context, es *model.ElementSet, h Handle, t time.Time) (*Observation, error) {
	t = t.UTC()
	log := logging.FromContext(ctx, s.log)
	sv, err := h.Compute(es.MinutesSinceEpoch(t))
	if err != nil {
		return nil, s.propagationFailed(ctx, es, "compute", err)
	}

	m, err := Transform(TEME(t), GCRF())
	if err != nil {
		log.Error(ctx, "frame conversion failed", logging.Satellite(es.CatalogNumber), logging.Err(err))
		return nil, fmt.Errorf("core: convert %s to GCRF: %w", es.Label(), err)
	}
	obs := &Observation{
		Time:     t,
		Position: Tag(m.Rotate(sv.Position), GCRF()),
		Velocity: Tag(m.Rotate(sv.Velocity), GCRF()),
	}
	log.Debug(ctx, "observation computed",
		logging.Satellite(es.CatalogNumber),
		logging.String("time", t.Format(time.RFC3339Nano)),
		logging.Float64("radius_km", obs.Position.Norm()),
	)
	return obs, nil
}

// propagationFailed logs and counts err, then collapses it into
// ErrCannotComputePosition.
func (s *ObservationService) propagationFailed(ctx context.Context, es *model.ElementSet, stage string, err error) error {
	kind, _ := PropagationKindOf(err)
	logging.FromContext(ctx, s.log).Warn(ctx, "propagation failed",
		logging.Satellite(es.CatalogNumber),
		logging.String("name", es.Name),
		logging.String("stage", stage),
		logging.String("kind", kind.String()),
		logging.Err(err),
	)
	s.metrics.IncPropagationFailure(kind.String())
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.String("satobs.propagation.stage", stage),
		attribute.String("satobs.propagation.kind", kind.String()),
	)
	return ErrCannotComputePosition
}

func (s *ObservationService) startSpan(ctx context.Context, name string, es *model.ElementSet, t time.Time) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{attribute.String("satobs.time", t.UTC().Format(time.RFC3339Nano))}
	if es != nil {
		attrs = append(attrs, attribute.Int("satobs.norad_id", es.CatalogNumber))
	}
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}
