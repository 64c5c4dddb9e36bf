package service

import (
	"context"
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"

	"fleetwatch/internal/domain"
	"fleetwatch/internal/repository"
)

func newTestVesselService(pageSize int) (*VesselService, *repository.MemVesselRepository) {
	repo := repository.NewMemVesselRepository()
	provider := NewMockAISProvider(repo, zap.NewNop(), 42)
	return NewVesselService(repo, provider, pageSize), repo
}

func TestMockAISProvider_SeedsAndJitters(t *testing.T) {
	svc, repo := newTestVesselService(0)
	ctx := context.Background()

	n, err := svc.SyncMockData(ctx)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if n != len(mockSeed) {
		t.Fatalf("expected %d vessels updated, got %d", len(mockSeed), n)
	}

	before, _, _ := repo.List(ctx, 0, 0)
	if _, err := svc.SyncMockData(ctx); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	after, total, _ := repo.List(ctx, 0, 0)
	if total != len(mockSeed) {
		t.Fatalf("second sync must not reseed, total=%d", total)
	}

	for i, v := range after {
		if v.Status != domain.VesselStatusInTransit {
			t.Fatalf("expected in_transit, got %s", v.Status)
		}
		if !v.HasPosition() || v.LastSpeed == nil || v.LastHeading == nil {
			t.Fatalf("expected full position for %s", v.Name)
		}
		if *v.LastSpeed < 10 || *v.LastSpeed > 20 {
			t.Fatalf("speed out of range: %f", *v.LastSpeed)
		}
		if *v.LastHeading < 0 || *v.LastHeading > 360 {
			t.Fatalf("heading out of range: %f", *v.LastHeading)
		}
		dLat := math.Abs(*v.LastPositionLat - *before[i].LastPositionLat)
		dLon := math.Abs(*v.LastPositionLon - *before[i].LastPositionLon)
		if dLat > 0.01 || dLon > 0.01 {
			t.Fatalf("jitter too large: dLat=%f dLon=%f", dLat, dLon)
		}
	}
}

func TestVesselService_ListPages(t *testing.T) {
	svc, _ := newTestVesselService(2)
	ctx := context.Background()
	if _, err := svc.SyncMockData(ctx); err != nil {
		t.Fatalf("sync: %v", err)
	}

	first, err := svc.List(ctx, 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(first.Vessels) != 2 || first.Total != 5 || !first.HasNext {
		t.Fatalf("unexpected first page: %+v", first)
	}

	last, err := svc.List(ctx, 3)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(last.Vessels) != 1 || last.HasNext {
		t.Fatalf("unexpected last page: %+v", last)
	}

	beyond, err := svc.List(ctx, 9)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if beyond.Vessels == nil || len(beyond.Vessels) != 0 {
		t.Fatalf("expected empty non-nil page, got %+v", beyond.Vessels)
	}
}

func TestVesselService_ListUnpaginated(t *testing.T) {
	svc, _ := newTestVesselService(0)
	if svc.Paginated() {
		t.Fatalf("page size 0 means no pagination")
	}
	page, err := svc.List(context.Background(), 1)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if page.Vessels == nil || len(page.Vessels) != 0 || page.HasNext {
		t.Fatalf("unexpected empty fleet page: %+v", page)
	}
}

func TestVesselService_History(t *testing.T) {
	svc, _ := newTestVesselService(0)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := svc.SyncMockData(ctx); err != nil {
			t.Fatalf("sync: %v", err)
		}
	}

	positions, err := svc.History(ctx, 1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(positions) != 3 {
		t.Fatalf("expected 3 positions, got %d", len(positions))
	}
	if positions[0].Timestamp.Before(positions[2].Timestamp) {
		t.Fatalf("expected newest first")
	}

	if _, err := svc.History(ctx, 99); !errors.Is(err, ErrVesselNotFound) {
		t.Fatalf("expected ErrVesselNotFound, got %v", err)
	}
}

func TestVesselService_SyncWithoutProvider(t *testing.T) {
	svc := NewVesselService(repository.NewMemVesselRepository(), nil, 0)
	if _, err := svc.SyncMockData(context.Background()); err == nil {
		t.Fatalf("expected error without provider")
	}
}
