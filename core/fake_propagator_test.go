package core

import (
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// FakePropagator is a deterministic Propagator for tests. Handles follow a
// circular equatorial orbit at RadiusKm with the requested mean motion, or
// fail with the scripted errors.
type FakePropagator struct {
	InitErr    error
	ComputeErr error
	RadiusKm   float64       // defaults to 7000
	Delay      time.Duration // slows Compute to expose unsynchronised callers

	mu     sync.Mutex
	inits  int
	params []InitParams
}

// Initialize records p and returns a fake handle or InitErr.
func (f *FakePropagator) Initialize(p InitParams) (Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inits++
	f.params = append(f.params, p)
	if f.InitErr != nil {
		return nil, f.InitErr
	}
	r := f.RadiusKm
	if r == 0 {
		r = 7000
	}
	return &FakeHandle{radius: r, rate: p.MeanMotion, err: f.ComputeErr, delay: f.Delay}, nil
}

// Inits returns how many times Initialize was called.
func (f *FakePropagator) Inits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inits
}

// LastParams returns the parameters of the most recent Initialize call.
func (f *FakePropagator) LastParams() (InitParams, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.params) == 0 {
		return InitParams{}, false
	}
	return f.params[len(f.params)-1], true
}

// FakeHandle is the Handle returned by FakePropagator.
type FakeHandle struct {
	radius float64
	rate   float64 // rad/min
	err    error
	delay  time.Duration

	calls    atomic.Int64
	inUse    atomic.Int32
	overlaps atomic.Int64
}

// Compute returns the circular-orbit state at the given time.
func (h *FakeHandle) Compute(minutes float64) (StateVector, error) {
	if !h.inUse.CompareAndSwap(0, 1) {
		h.overlaps.Add(1)
	} else {
		defer h.inUse.Store(0)
	}
	h.calls.Add(1)
	if h.delay > 0 {
		time.Sleep(h.delay)
	}
	if h.err != nil {
		return StateVector{}, h.err
	}
	s, c := math.Sincos(h.rate * minutes)
	speed := h.radius * h.rate / 60
	return StateVector{
		Position: Vec3{X: h.radius * c, Y: h.radius * s},
		Velocity: Vec3{X: -speed * s, Y: speed * c},
	}, nil
}

// Calls returns how many times Compute ran.
func (h *FakeHandle) Calls() int64 { return h.calls.Load() }

// Overlaps returns how many Compute calls started while another was running.
func (h *FakeHandle) Overlaps() int64 { return h.overlaps.Load() }
