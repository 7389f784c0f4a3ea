package agenda

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"leadly/internal/crm"
	"leadly/internal/gcal"
)

// SyncState summarizes how the external calendar side of a load went.
type SyncState int

const (
	// StateDisconnected means no external calendar is configured. Not an
	// error; the grid simply shows local data only.
	StateDisconnected SyncState = iota
	// StateOK means the external fetch succeeded.
	StateOK
	// StateAuthDegraded means the external calendar rejected our
	// credential. The connection needs to be redone.
	StateAuthDegraded
	// StateFailed means the external fetch failed for any other reason.
	StateFailed
)

func (s SyncState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateOK:
		return "ok"
	case StateAuthDegraded:
		return "auth required"
	case StateFailed:
		return "sync failed"
	}
	return "unknown"
}

// LocalSource lists stored appointments overlapping a date span.
type LocalSource interface {
	ListAppointments(from, to time.Time) ([]crm.Appointment, error)
}

// ExternalFetch pulls external calendar events for a date span. A nil fetch
// means no calendar is connected.
type ExternalFetch func(ctx context.Context, from, to time.Time) ([]crm.Appointment, error)

// Result is one completed load. Generation identifies the navigation that
// requested it; the caller drops results whose generation is stale.
type Result struct {
	Generation uint64
	Local      []crm.Appointment
	External   []crm.Appointment
	Merged     []crm.Appointment
	State      SyncState
	SyncErr    error
}

// Loader runs grid loads. The local store and the external calendar are
// fetched concurrently and merged once both settle. Each load is tagged
// with a generation taken at request time; navigating again before a load
// finishes bumps the generation so the slow response can be discarded.
type Loader struct {
	local    LocalSource
	external ExternalFetch
	gen      atomic.Uint64
}

// NewLoader creates a loader. external may be nil when no calendar is
// connected.
func NewLoader(local LocalSource, external ExternalFetch) *Loader {
	return &Loader{local: local, external: external}
}

// SetExternal swaps the external fetch, for when a calendar is connected or
// disconnected while running.
func (l *Loader) SetExternal(external ExternalFetch) {
	l.external = external
}

// NextGeneration claims a generation for a new navigation. Call it before
// Load and pass the value through.
func (l *Loader) NextGeneration() uint64 {
	return l.gen.Add(1)
}

// Current returns the most recently claimed generation.
func (l *Loader) Current() uint64 {
	return l.gen.Load()
}

// Superseded reports whether a result belongs to an outdated navigation.
func (l *Loader) Superseded(r *Result) bool {
	return r.Generation != l.gen.Load()
}

// Load fetches both sides for [from, to] and merges them. A local read
// failure fails the whole load; an external failure degrades the sync state
// and still returns the local data.
func (l *Loader) Load(ctx context.Context, generation uint64, from, to time.Time) (*Result, error) {
	res := &Result{Generation: generation, State: StateDisconnected}

	type fetched struct {
		apps []crm.Appointment
		err  error
	}
	localCh := make(chan fetched, 1)
	extCh := make(chan fetched, 1)

	go func() {
		apps, err := l.local.ListAppointments(from, to)
		localCh <- fetched{apps, err}
	}()
	go func() {
		if l.external == nil {
			extCh <- fetched{}
			return
		}
		apps, err := l.external(ctx, from, to)
		extCh <- fetched{apps, err}
	}()

	local := <-localCh
	ext := <-extCh

	if local.err != nil {
		return nil, local.err
	}
	res.Local = local.apps

	if l.external != nil {
		switch {
		case ext.err == nil:
			res.State = StateOK
			res.External = ext.apps
		case errors.Is(ext.err, gcal.ErrAuthDegraded):
			res.State = StateAuthDegraded
			res.SyncErr = ext.err
		default:
			res.State = StateFailed
			res.SyncErr = ext.err
		}
	}

	res.Merged = Merge(res.Local, res.External)
	return res, nil
}
