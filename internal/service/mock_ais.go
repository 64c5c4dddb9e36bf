package service

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"fleetwatch/internal/domain"
	"fleetwatch/internal/repository"
)

// Centro por defecto de la flota simulada (Tokio).
const (
	mockCenterLat = 35.6895
	mockCenterLon = 139.6917
)

type seedVessel struct {
	name string
	imo  int64
	mmsi int64
	kind string
	flag string
}

var mockSeed = []seedVessel{
	{name: "MAERSK SEALAND", imo: 9123456, mmsi: 211378120, kind: "container", flag: "DK"},
	{name: "EVER GIVEN", imo: 9811000, mmsi: 353136000, kind: "container", flag: "PA"},
	{name: "MSC GULSUN", imo: 9839430, mmsi: 357498000, kind: "container", flag: "PA"},
	{name: "HMM ALGECIRAS", imo: 9863297, mmsi: 440336000, kind: "container", flag: "KR"},
	{name: "OOCL HONG KONG", imo: 9776171, mmsi: 477333500, kind: "container", flag: "HK"},
}

// MockAISProvider simula datos AIS en vivo moviendo levemente a cada buque.
type MockAISProvider struct {
	vessels repository.VesselRepository
	logger  *zap.Logger

	mu  sync.Mutex
	rnd *rand.Rand
	now func() time.Time
}

func NewMockAISProvider(vessels repository.VesselRepository, logger *zap.Logger, seed uint64) *MockAISProvider {
	return &MockAISProvider{
		vessels: vessels,
		logger:  logger,
		rnd:     rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (p *MockAISProvider) uniform(lo, hi float64) float64 {
	return lo + p.rnd.Float64()*(hi-lo)
}

// GeneratePositions siembra la flota si esta vacia y registra una posicion nueva por buque.
func (p *MockAISProvider) GeneratePositions(ctx context.Context) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	vessels, total, err := p.vessels.List(ctx, 0, 0)
	if err != nil {
		return 0, err
	}
	if total == 0 {
		if err := p.seed(ctx); err != nil {
			return 0, err
		}
		if vessels, _, err = p.vessels.List(ctx, 0, 0); err != nil {
			return 0, err
		}
	}

	updated := 0
	for _, v := range vessels {
		lat, lon := mockCenterLat, mockCenterLon
		if v.LastPositionLat != nil {
			lat = *v.LastPositionLat
		}
		if v.LastPositionLon != nil {
			lon = *v.LastPositionLon
		}
		speed := p.uniform(10, 20)
		heading := p.uniform(0, 360)
		pos := domain.VesselPosition{
			VesselID:  v.ID,
			Latitude:  lat + p.uniform(-0.01, 0.01),
			Longitude: lon + p.uniform(-0.01, 0.01),
			Speed:     &speed,
			Heading:   &heading,
			Timestamp: p.now(),
		}
		v.Status = domain.VesselStatusInTransit
		if err := p.vessels.RecordPosition(ctx, v, pos); err != nil {
			return updated, err
		}
		updated++
	}
	p.logger.Info("mock ais positions generated", zap.Int("count", updated))
	return updated, nil
}

func (p *MockAISProvider) seed(ctx context.Context) error {
	for _, s := range mockSeed {
		lat := mockCenterLat + p.uniform(-0.5, 0.5)
		lon := mockCenterLon + p.uniform(-0.5, 0.5)
		v := domain.Vessel{
			IMO:             s.imo,
			MMSI:            s.mmsi,
			Name:            s.name,
			VesselType:      s.kind,
			Flag:            s.flag,
			Status:          domain.VesselStatusOffline,
			LastPositionLat: &lat,
			LastPositionLon: &lon,
		}
		if err := p.vessels.CreateIfMissing(ctx, v); err != nil {
			return err
		}
	}
	return nil
}
