package core

import (
	"context"
	"sync"
	"time"

	"github.com/signalsfoundry/satobs/internal/logging"
	"github.com/signalsfoundry/satobs/model"
)

// Session tracks one satellite with a single propagator handle. The handle
// is owned by the session and Compute calls are serialised, so a Session may
// be shared between goroutines.
type Session struct {
	id  string
	svc *ObservationService
	es  *model.ElementSet
	log logging.Logger

	mu     sync.Mutex
	handle Handle
}

// NewSession initialises a handle for es. Initialisation failures are
// logged and reported as ErrCannotComputePosition.
func (s *ObservationService) NewSession(ctx context.Context, es *model.ElementSet) (*Session, error) {
	ctx, log := logging.WithSessionLogger(ctx, s.log)
	ctx = logging.ContextWithLogger(ctx, log)
	h, err := s.initialize(ctx, es)
	if err != nil {
		return nil, err
	}
	id := logging.SessionIDFromContext(ctx)
	log.Debug(ctx, "tracking session started", logging.Satellite(es.CatalogNumber))
	return &Session{id: id, svc: s, es: es, log: log, handle: h}, nil
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }

// ElementSet returns the element set the session propagates.
func (s *Session) ElementSet() *model.ElementSet { return s.es }

// ObserveAt observes the session's satellite at t.
func (s *Session) ObserveAt(ctx context.Context, t time.Time) (*Observation, error) {
	start := time.Now()
	ctx = logging.ContextWithLogger(logging.ContextWithSessionID(ctx, s.id), s.log)
	ctx, span := s.svc.startSpan(ctx, "satobs.Session.ObserveAt", s.es, t)
	defer span.End()

	s.mu.Lock()
	obs, err := s.svc.observe(ctx, s.es, s.handle, t)
	s.mu.Unlock()

	s.svc.metrics.RecordObservation("track", err, time.Since(start))
	endSpan(span, err)
	return obs, err
}
