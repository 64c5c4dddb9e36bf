package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"fleetwatch/internal/domain"
)

// DefaultPollInterval es la cadencia de refresco de la flota.
const DefaultPollInterval = 30 * time.Second

var (
	ErrSyncAlreadyStarted = errors.New("fleet synchronizer already started")
	ErrSyncStopped        = errors.New("fleet synchronizer stopped")
)

// FleetAPI es el subconjunto del contrato remoto que usa el FleetSynchronizer.
type FleetAPI interface {
	ListVessels(ctx context.Context) ([]domain.Vessel, error)
	SyncMockData(ctx context.Context) (string, error)
}

// FleetSynchronizer mantiene vigente el snapshot de la flota mientras hay sesion.
//
// Cada fetch recibe un id creciente al emitirse; una respuesta solo se aplica si su id
// supera al de la ultima aplicada. Los ticks no se suprimen aunque haya un fetch en vuelo.
type FleetSynchronizer struct {
	api      FleetAPI
	logger   *zap.Logger
	interval time.Duration

	mu        sync.Mutex
	started   bool
	alive     bool
	cancel    context.CancelFunc
	vessels   []domain.Vessel
	fetchedAt time.Time
	lastErr   string
	loading   bool
	selected  *int64
	issuedID  uint64
	appliedID uint64

	subsMu     sync.Mutex
	onSnapshot []func(domain.Snapshot)
	onSelect   []func(*domain.Vessel)
}

func NewFleetSynchronizer(fleetAPI FleetAPI, interval time.Duration, logger *zap.Logger) *FleetSynchronizer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FleetSynchronizer{
		api:      fleetAPI,
		logger:   logger,
		interval: interval,
	}
}

// Start hace un fetch inmediato y arma el ticker hasta Stop.
func (s *FleetSynchronizer) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		if s.Alive() {
			return ErrSyncAlreadyStarted
		}
		return ErrSyncStopped
	}
	runCtx, cancel := context.WithCancel(ctx)
	s.started = true
	s.alive = true
	s.loading = true
	s.cancel = cancel
	s.mu.Unlock()

	go s.refresh(runCtx, "initial")
	go s.loop(runCtx)
	return nil
}

func (s *FleetSynchronizer) loop(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			go s.refresh(ctx, "tick")
		}
	}
}

// Stop desarma el ticker e impide que fetches en vuelo muten el estado. Idempotente.
func (s *FleetSynchronizer) Stop() {
	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return
	}
	s.alive = false
	s.selected = nil
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.logger.Debug("fleet synchronizer stopped")
}

// Alive indica si el sincronizador fue iniciado y no detenido.
func (s *FleetSynchronizer) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alive
}

// Loading es true desde Start hasta que termina el primer fetch.
func (s *FleetSynchronizer) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Resync dispara la regeneracion remota y luego vuelve a traer la flota.
// Un fallo del efecto secundario solo se registra; no impide el fetch ni se reporta.
func (s *FleetSynchronizer) Resync(ctx context.Context) error {
	if !s.Alive() {
		return ErrSyncStopped
	}
	msg, err := s.api.SyncMockData(ctx)
	if err != nil {
		s.logger.Warn("mock data sync failed", zap.Error(err))
	} else {
		s.logger.Info("mock data synced", zap.String("message", msg))
	}
	s.refresh(ctx, "resync")
	return nil
}

// Refresh ejecuta un fetch fuera de la cadencia del ticker y espera su resultado.
func (s *FleetSynchronizer) Refresh(ctx context.Context) error {
	if !s.Alive() {
		return ErrSyncStopped
	}
	s.refresh(ctx, "manual")
	return nil
}

func (s *FleetSynchronizer) refresh(ctx context.Context, reason string) {
	s.mu.Lock()
	s.issuedID++
	id := s.issuedID
	s.mu.Unlock()

	start := time.Now()
	vessels, err := s.api.ListVessels(ctx)
	s.apply(id, reason, vessels, err, time.Since(start))
}

func (s *FleetSynchronizer) apply(id uint64, reason string, vessels []domain.Vessel, fetchErr error, took time.Duration) {
	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		s.logger.Debug("dropping fleet response after stop", zap.Uint64("fetch_id", id))
		return
	}
	s.loading = false

	// Un fetch emitido antes del ultimo aplicado no toca el snapshot ni el error.
	if id <= s.appliedID {
		applied := s.appliedID
		s.mu.Unlock()
		s.logger.Debug("dropping stale fleet response",
			zap.Uint64("fetch_id", id),
			zap.Uint64("applied_id", applied),
			zap.Bool("failed", fetchErr != nil),
		)
		return
	}

	switch {
	case fetchErr != nil:
		s.lastErr = fetchErr.Error()
		s.logger.Warn("fleet refresh failed",
			zap.String("reason", reason),
			zap.Uint64("fetch_id", id),
			zap.Error(fetchErr),
		)
	default:
		s.appliedID = id
		s.vessels = append([]domain.Vessel(nil), vessels...)
		s.fetchedAt = time.Now().UTC()
		s.lastErr = ""
		s.logger.Info("fleet refreshed",
			zap.String("reason", reason),
			zap.Uint64("fetch_id", id),
			zap.Int("count", len(vessels)),
			zap.Int64("duration_ms", took.Milliseconds()),
		)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.publishSnapshot(snap)
}

// Snapshot devuelve una vista de solo lectura del estado actual.
func (s *FleetSynchronizer) Snapshot() domain.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *FleetSynchronizer) snapshotLocked() domain.Snapshot {
	snap := domain.Snapshot{
		Vessels:   append([]domain.Vessel(nil), s.vessels...),
		FetchedAt: s.fetchedAt,
		LastError: s.lastErr,
		Loading:   s.loading,
	}
	if s.selected != nil {
		id := *s.selected
		snap.SelectedID = &id
	}
	return snap
}

// Select fija o limpia (nil) la seleccion. Sin efectos remotos.
func (s *FleetSynchronizer) Select(vesselID *int64) {
	s.mu.Lock()
	if !s.alive {
		s.mu.Unlock()
		return
	}
	if vesselID == nil {
		s.selected = nil
	} else {
		id := *vesselID
		s.selected = &id
	}
	selected, ok := s.snapshotLocked().Selected()
	s.mu.Unlock()

	if ok {
		s.publishSelection(&selected)
		return
	}
	s.publishSelection(nil)
}

// Selected resuelve la seleccion contra el ultimo snapshot.
func (s *FleetSynchronizer) Selected() (domain.Vessel, bool) {
	return s.Snapshot().Selected()
}

// OnSnapshot suscribe fn a cada snapshot aplicado o fallo de refresco.
func (s *FleetSynchronizer) OnSnapshot(fn func(domain.Snapshot)) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.onSnapshot = append(s.onSnapshot, fn)
}

// OnSelect suscribe fn a los cambios de seleccion; recibe nil al limpiar.
func (s *FleetSynchronizer) OnSelect(fn func(*domain.Vessel)) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	s.onSelect = append(s.onSelect, fn)
}

func (s *FleetSynchronizer) publishSnapshot(snap domain.Snapshot) {
	s.subsMu.Lock()
	subs := append([]func(domain.Snapshot){}, s.onSnapshot...)
	s.subsMu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

func (s *FleetSynchronizer) publishSelection(v *domain.Vessel) {
	s.subsMu.Lock()
	subs := append([]func(*domain.Vessel){}, s.onSelect...)
	s.subsMu.Unlock()
	for _, fn := range subs {
		fn(v)
	}
}
