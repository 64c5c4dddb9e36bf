package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"fleetwatch/internal/domain"
)

type fakeFleetAPI struct {
	mu      sync.Mutex
	calls   int
	list    func(call int) ([]domain.Vessel, error)
	syncErr error
	syncs   int
}

func (f *fakeFleetAPI) ListVessels(_ context.Context) ([]domain.Vessel, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	list := f.list
	f.mu.Unlock()
	if list == nil {
		return nil, nil
	}
	return list(call)
}

func (f *fakeFleetAPI) SyncMockData(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs++
	if f.syncErr != nil {
		return "", f.syncErr
	}
	return "Updated 1 vessels", nil
}

func (f *fakeFleetAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func floatPtr(v float64) *float64 { return &v }

func orion() domain.Vessel {
	return domain.Vessel{
		ID:              1,
		Name:            "Orion",
		Status:          domain.VesselStatusInTransit,
		LastPositionLat: floatPtr(35.6),
		LastPositionLon: floatPtr(139.7),
	}
}

func TestFleetSynchronizer_InitialFetch(t *testing.T) {
	fake := &fakeFleetAPI{list: func(int) ([]domain.Vessel, error) {
		return []domain.Vessel{orion()}, nil
	}}
	s := NewFleetSynchronizer(fake, time.Hour, zap.NewNop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	waitFor(t, "first fetch", func() bool { return !s.Loading() })

	snap := s.Snapshot()
	if len(snap.Vessels) != 1 || snap.Vessels[0].Name != "Orion" {
		t.Fatalf("unexpected vessels: %+v", snap.Vessels)
	}
	if snap.Loading || snap.LastError != "" || snap.FetchedAt.IsZero() {
		t.Fatalf("unexpected snapshot state: %+v", snap)
	}
}

func TestFleetSynchronizer_StartTwice(t *testing.T) {
	s := NewFleetSynchronizer(&fakeFleetAPI{}, time.Hour, zap.NewNop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.Start(context.Background()); !errors.Is(err, ErrSyncAlreadyStarted) {
		t.Fatalf("expected ErrSyncAlreadyStarted, got %v", err)
	}
	s.Stop()
	if err := s.Start(context.Background()); !errors.Is(err, ErrSyncStopped) {
		t.Fatalf("expected ErrSyncStopped after stop, got %v", err)
	}
}

func TestFleetSynchronizer_TicksRepeat(t *testing.T) {
	fake := &fakeFleetAPI{list: func(int) ([]domain.Vessel, error) {
		return []domain.Vessel{orion()}, nil
	}}
	s := NewFleetSynchronizer(fake, 10*time.Millisecond, zap.NewNop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "three fetches", func() bool { return fake.callCount() >= 3 })

	s.Stop()
	time.Sleep(30 * time.Millisecond)
	after := fake.callCount()
	time.Sleep(50 * time.Millisecond)
	if fake.callCount() != after {
		t.Fatalf("ticker kept firing after stop: %d -> %d", after, fake.callCount())
	}
}

func TestFleetSynchronizer_FailedTickKeepsSnapshot(t *testing.T) {
	fake := &fakeFleetAPI{list: func(call int) ([]domain.Vessel, error) {
		if call == 1 {
			return []domain.Vessel{orion()}, nil
		}
		return nil, errors.New("503 service unavailable")
	}}
	s := NewFleetSynchronizer(fake, time.Hour, zap.NewNop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()
	waitFor(t, "first fetch", func() bool { return !s.Loading() })

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	snap := s.Snapshot()
	if snap.LastError == "" {
		t.Fatalf("expected last error to be recorded")
	}
	if len(snap.Vessels) != 1 || snap.Vessels[0].Name != "Orion" {
		t.Fatalf("failed refresh must keep the previous list, got %+v", snap.Vessels)
	}
}

func TestFleetSynchronizer_FailedFirstFetchClearsLoading(t *testing.T) {
	fake := &fakeFleetAPI{list: func(int) ([]domain.Vessel, error) {
		return nil, errors.New("boom")
	}}
	s := NewFleetSynchronizer(fake, time.Hour, zap.NewNop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()

	waitFor(t, "loading cleared", func() bool { return !s.Loading() })
	snap := s.Snapshot()
	if len(snap.Vessels) != 0 || snap.LastError == "" {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}
}

func TestFleetSynchronizer_LateResponseAfterStopIsDropped(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	fake := &fakeFleetAPI{list: func(int) ([]domain.Vessel, error) {
		started <- struct{}{}
		<-release
		return []domain.Vessel{orion()}, nil
	}}
	s := NewFleetSynchronizer(fake, time.Hour, zap.NewNop())

	var published int
	var mu sync.Mutex
	s.OnSnapshot(func(domain.Snapshot) {
		mu.Lock()
		published++
		mu.Unlock()
	})

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	<-started
	s.Stop()

	done := make(chan struct{})
	go func() {
		s.refresh(context.Background(), "late")
		close(done)
	}()
	<-started
	close(release)
	<-done

	snap := s.Snapshot()
	if len(snap.Vessels) != 0 {
		t.Fatalf("late response mutated the snapshot: %+v", snap.Vessels)
	}
	mu.Lock()
	defer mu.Unlock()
	if published != 0 {
		t.Fatalf("no snapshot should be published after stop, got %d", published)
	}
}

func TestFleetSynchronizer_StaleResponseIsDiscarded(t *testing.T) {
	s := NewFleetSynchronizer(&fakeFleetAPI{}, time.Hour, zap.NewNop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	defer s.Stop()
	waitFor(t, "first fetch", func() bool { return !s.Loading() })

	s.mu.Lock()
	s.issuedID++
	older := s.issuedID
	s.issuedID++
	newer := s.issuedID
	s.mu.Unlock()

	fresh := orion()
	fresh.Name = "Orion II"
	s.apply(newer, "test", []domain.Vessel{fresh}, nil, 0)
	s.apply(older, "test", []domain.Vessel{orion()}, nil, 0)

	snap := s.Snapshot()
	if len(snap.Vessels) != 1 || snap.Vessels[0].Name != "Orion II" {
		t.Fatalf("stale response overwrote a newer one: %+v", snap.Vessels)
	}
}

func TestFleetSynchronizer_StaleFailureKeepsFreshSnapshot(t *testing.T) {
	// Sin Start: solo interesa el orden de aplicacion, no el ticker.
	s := NewFleetSynchronizer(&fakeFleetAPI{}, time.Hour, zap.NewNop())
	s.mu.Lock()
	s.alive = true
	s.loading = true
	s.mu.Unlock()

	var mu sync.Mutex
	published := 0
	s.OnSnapshot(func(domain.Snapshot) {
		mu.Lock()
		published++
		mu.Unlock()
	})

	s.mu.Lock()
	s.issuedID++
	older := s.issuedID
	s.issuedID++
	newer := s.issuedID
	s.mu.Unlock()

	s.apply(newer, "test", []domain.Vessel{orion()}, nil, 0)
	s.apply(older, "test", nil, errors.New("timeout"), 0)

	snap := s.Snapshot()
	if len(snap.Vessels) != 1 || snap.LastError != "" {
		t.Fatalf("stale failure leaked into fresh snapshot: vessels=%d LastError=%q", len(snap.Vessels), snap.LastError)
	}
	if snap.Loading {
		t.Fatalf("loading must stay cleared")
	}
	mu.Lock()
	defer mu.Unlock()
	if published != 1 {
		t.Fatalf("expected only the fresh snapshot published, got %d", published)
	}
}

func TestFleetSynchronizer_ResyncFetchesEvenIfSideEffectFails(t *testing.T) {
	fake := &fakeFleetAPI{
		syncErr: errors.New("500"),
		list: func(call int) ([]domain.Vessel, error) {
			v := orion()
			if call > 1 {
				v.Name = "Orion (moved)"
			}
			return []domain.Vessel{v}, nil
		},
	}
	s := NewFleetSynchronizer(fake, time.Hour, zap.NewNop())
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "first fetch", func() bool { return !s.Loading() })

	if err := s.Resync(context.Background()); err != nil {
		t.Fatalf("resync should not surface side-effect errors, got %v", err)
	}
	if fake.syncs != 1 {
		t.Fatalf("expected one sync call, got %d", fake.syncs)
	}
	if got := s.Snapshot().Vessels[0].Name; got != "Orion (moved)" {
		t.Fatalf("expected refreshed list after resync, got %q", got)
	}

	s.Stop()
	if err := s.Resync(context.Background()); !errors.Is(err, ErrSyncStopped) {
		t.Fatalf("expected ErrSyncStopped, got %v", err)
	}
	if err := s.Refresh(context.Background()); !errors.Is(err, ErrSyncStopped) {
		t.Fatalf("expected ErrSyncStopped, got %v", err)
	}
}

func TestFleetSynchronizer_Selection(t *testing.T) {
	fake := &fakeFleetAPI{list: func(int) ([]domain.Vessel, error) {
		return []domain.Vessel{orion()}, nil
	}}
	s := NewFleetSynchronizer(fake, time.Hour, zap.NewNop())
	var got []*domain.Vessel
	s.OnSelect(func(v *domain.Vessel) { got = append(got, v) })

	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("start: %v", err)
	}
	waitFor(t, "first fetch", func() bool { return !s.Loading() })

	id := int64(1)
	s.Select(&id)
	if v, ok := s.Selected(); !ok || v.Name != "Orion" {
		t.Fatalf("expected Orion selected, got %+v ok=%v", v, ok)
	}
	if len(got) != 1 || got[0] == nil || got[0].ID != 1 {
		t.Fatalf("expected select notification for vessel 1, got %+v", got)
	}

	missing := int64(99)
	s.Select(&missing)
	if _, ok := s.Selected(); ok {
		t.Fatalf("selection of an unknown id should not resolve")
	}

	s.Select(nil)
	if len(got) != 3 || got[2] != nil {
		t.Fatalf("expected nil notification on clear, got %+v", got)
	}

	s.Select(&id)
	s.Stop()
	if s.Snapshot().SelectedID != nil {
		t.Fatalf("stop must clear the selection")
	}
}
