package agenda

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"leadly/internal/crm"
	"leadly/internal/gcal"
)

type fakeStore struct {
	apps []crm.Appointment
	err  error
}

func (f *fakeStore) ListAppointments(from, to time.Time) ([]crm.Appointment, error) {
	return f.apps, f.err
}

func span() (time.Time, time.Time) {
	return time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, time.March, 31, 0, 0, 0, 0, time.UTC)
}

func TestLoadDisconnectedWithoutExternal(t *testing.T) {
	local := &fakeStore{apps: []crm.Appointment{app("l1", time.Now())}}
	l := NewLoader(local, nil)

	from, to := span()
	res, err := l.Load(context.Background(), l.NextGeneration(), from, to)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.State != StateDisconnected {
		t.Fatalf("state = %v, want disconnected", res.State)
	}
	if res.SyncErr != nil {
		t.Fatalf("disconnected must not carry a sync error: %v", res.SyncErr)
	}
	if len(res.Merged) != 1 {
		t.Fatalf("merged %d, want 1", len(res.Merged))
	}
}

func TestLoadMergesBothSources(t *testing.T) {
	local := &fakeStore{apps: []crm.Appointment{app("l1", time.Now())}}
	external := func(ctx context.Context, from, to time.Time) ([]crm.Appointment, error) {
		ev := app("e1", time.Now())
		ev.Source = crm.SourceExternal
		return []crm.Appointment{ev}, nil
	}
	l := NewLoader(local, external)

	from, to := span()
	res, err := l.Load(context.Background(), l.NextGeneration(), from, to)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.State != StateOK {
		t.Fatalf("state = %v, want ok", res.State)
	}
	if len(res.Merged) != 2 {
		t.Fatalf("merged %d, want 2", len(res.Merged))
	}
}

func TestLoadAuthDegradedKeepsLocal(t *testing.T) {
	local := &fakeStore{apps: []crm.Appointment{app("l1", time.Now())}}
	external := func(ctx context.Context, from, to time.Time) ([]crm.Appointment, error) {
		return nil, fmt.Errorf("listing events: %w", gcal.ErrAuthDegraded)
	}
	l := NewLoader(local, external)

	from, to := span()
	res, err := l.Load(context.Background(), l.NextGeneration(), from, to)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.State != StateAuthDegraded {
		t.Fatalf("state = %v, want auth degraded", res.State)
	}
	if len(res.Merged) != 1 {
		t.Fatalf("local data missing from degraded load")
	}
}

func TestLoadTransportFailureIsFailedNotAuth(t *testing.T) {
	local := &fakeStore{}
	external := func(ctx context.Context, from, to time.Time) ([]crm.Appointment, error) {
		return nil, errors.New("connection refused")
	}
	l := NewLoader(local, external)

	from, to := span()
	res, err := l.Load(context.Background(), l.NextGeneration(), from, to)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if res.State != StateFailed {
		t.Fatalf("state = %v, want failed", res.State)
	}
	if res.SyncErr == nil {
		t.Fatalf("failed load must carry the error")
	}
}

func TestLoadLocalFailureFailsWholeLoad(t *testing.T) {
	local := &fakeStore{err: errors.New("disk gone")}
	l := NewLoader(local, nil)

	from, to := span()
	if _, err := l.Load(context.Background(), l.NextGeneration(), from, to); err == nil {
		t.Fatalf("expected error when local store fails")
	}
}

func TestSupersededGeneration(t *testing.T) {
	local := &fakeStore{}
	l := NewLoader(local, nil)

	from, to := span()
	first := l.NextGeneration()
	res, err := l.Load(context.Background(), first, from, to)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if l.Superseded(res) {
		t.Fatalf("fresh result reported as superseded")
	}

	// A new navigation claims a newer generation; the old result is stale.
	l.NextGeneration()
	if !l.Superseded(res) {
		t.Fatalf("old result not reported as superseded")
	}
}

func TestLoadRunsFetchesConcurrently(t *testing.T) {
	release := make(chan struct{})
	localStarted := make(chan struct{}, 1)
	local := &blockingStore{started: localStarted, release: release}
	external := func(ctx context.Context, from, to time.Time) ([]crm.Appointment, error) {
		// Unblocks the local fetch; only possible if both run at once.
		<-localStarted
		close(release)
		return nil, nil
	}
	l := NewLoader(local, external)

	from, to := span()
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := l.Load(context.Background(), l.NextGeneration(), from, to); err != nil {
			t.Errorf("Load: %v", err)
		}
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("load deadlocked; fetches are not concurrent")
	}
}

type blockingStore struct {
	started chan struct{}
	release chan struct{}
}

func (b *blockingStore) ListAppointments(from, to time.Time) ([]crm.Appointment, error) {
	b.started <- struct{}{}
	<-b.release
	return nil, nil
}
