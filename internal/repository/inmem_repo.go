package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/jackc/pgx/v5"

	"fleetwatch/internal/domain"
)

// MemUserRepository guarda usuarios en memoria; se usa cuando no hay DATABASE_URL.
type MemUserRepository struct {
	mu         sync.RWMutex
	byID       map[string]domain.User
	byUsername map[string]string
}

func NewMemUserRepository() *MemUserRepository {
	return &MemUserRepository{
		byID:       make(map[string]domain.User),
		byUsername: make(map[string]string),
	}
}

func (r *MemUserRepository) Create(_ context.Context, user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byUsername[user.Username]; ok {
		return ErrDuplicate
	}
	r.byID[user.ID] = user
	r.byUsername[user.Username] = user.ID
	return nil
}

func (r *MemUserRepository) GetByID(_ context.Context, id string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return u, nil
}

func (r *MemUserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	r.mu.RLock()
	id, ok := r.byUsername[username]
	r.mu.RUnlock()
	if !ok {
		return domain.User{}, pgx.ErrNoRows
	}
	return r.GetByID(ctx, id)
}

// MemVesselRepository guarda buques e historial en memoria.
type MemVesselRepository struct {
	mu        sync.RWMutex
	nextID    int64
	vessels   map[int64]domain.Vessel
	byIMO     map[int64]int64
	positions map[int64][]domain.VesselPosition
}

func NewMemVesselRepository() *MemVesselRepository {
	return &MemVesselRepository{
		vessels:   make(map[int64]domain.Vessel),
		byIMO:     make(map[int64]int64),
		positions: make(map[int64][]domain.VesselPosition),
	}
}

func (r *MemVesselRepository) List(_ context.Context, offset, limit int) ([]domain.Vessel, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]domain.Vessel, 0, len(r.vessels))
	for _, v := range r.vessels {
		all = append(all, v)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	total := len(all)
	if offset >= total {
		return []domain.Vessel{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return all[offset:end], total, nil
}

func (r *MemVesselRepository) GetByID(_ context.Context, id int64) (domain.Vessel, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.vessels[id]
	if !ok {
		return domain.Vessel{}, pgx.ErrNoRows
	}
	return v, nil
}

func (r *MemVesselRepository) CreateIfMissing(_ context.Context, v domain.Vessel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byIMO[v.IMO]; ok {
		return nil
	}
	r.nextID++
	v.ID = r.nextID
	r.vessels[v.ID] = v
	r.byIMO[v.IMO] = v.ID
	return nil
}

func (r *MemVesselRepository) RecordPosition(_ context.Context, v domain.Vessel, pos domain.VesselPosition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.vessels[v.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	lat, lon := pos.Latitude, pos.Longitude
	ts := pos.Timestamp
	current.LastPositionLat = &lat
	current.LastPositionLon = &lon
	current.LastSpeed = pos.Speed
	current.LastHeading = pos.Heading
	current.LastPositionUpdate = &ts
	current.Status = v.Status
	r.vessels[v.ID] = current

	pos.VesselID = v.ID
	r.positions[v.ID] = append(r.positions[v.ID], pos)
	return nil
}

func (r *MemVesselRepository) History(_ context.Context, vesselID int64, limit int) ([]domain.VesselPosition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	src := r.positions[vesselID]
	out := make([]domain.VesselPosition, 0, len(src))
	for i := len(src) - 1; i >= 0; i-- {
		out = append(out, src[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}
