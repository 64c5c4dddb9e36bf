package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"fleetwatch/internal/domain"
	"fleetwatch/internal/repository"
)

// historyLimit es la cantidad maxima de posiciones devueltas por History.
const historyLimit = 100

var ErrVesselNotFound = errors.New("vessel not found")

// VesselPage es una pagina del listado; Total es la cantidad completa de buques.
type VesselPage struct {
	Vessels []domain.Vessel
	Total   int
	Page    int
	HasNext bool
}

// VesselService sirve el listado y el historial de buques del simulador.
type VesselService struct {
	vessels  repository.VesselRepository
	provider *MockAISProvider
	pageSize int
}

func NewVesselService(vessels repository.VesselRepository, provider *MockAISProvider, pageSize int) *VesselService {
	if pageSize < 0 {
		pageSize = 0
	}
	return &VesselService{vessels: vessels, provider: provider, pageSize: pageSize}
}

// Paginated indica si el listado se sirve en paginas.
func (s *VesselService) Paginated() bool {
	return s.pageSize > 0
}

// List devuelve la pagina pedida (desde 1), o toda la flota si no hay paginacion.
func (s *VesselService) List(ctx context.Context, page int) (VesselPage, error) {
	if page < 1 {
		page = 1
	}
	offset := 0
	if s.pageSize > 0 {
		offset = (page - 1) * s.pageSize
	}
	vessels, total, err := s.vessels.List(ctx, offset, s.pageSize)
	if err != nil {
		return VesselPage{}, fmt.Errorf("list vessels: %w", err)
	}
	if vessels == nil {
		vessels = []domain.Vessel{}
	}
	return VesselPage{
		Vessels: vessels,
		Total:   total,
		Page:    page,
		HasNext: s.pageSize > 0 && offset+len(vessels) < total,
	}, nil
}

// SyncMockData ejecuta un ciclo del proveedor AIS simulado.
func (s *VesselService) SyncMockData(ctx context.Context) (int, error) {
	if s.provider == nil {
		return 0, errors.New("mock ais provider not configured")
	}
	return s.provider.GeneratePositions(ctx)
}

func (s *VesselService) History(ctx context.Context, vesselID int64) ([]domain.VesselPosition, error) {
	if _, err := s.vessels.GetByID(ctx, vesselID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVesselNotFound
		}
		return nil, err
	}
	positions, err := s.vessels.History(ctx, vesselID, historyLimit)
	if err != nil {
		return nil, fmt.Errorf("vessel history: %w", err)
	}
	if positions == nil {
		positions = []domain.VesselPosition{}
	}
	return positions, nil
}
