package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"fleetwatch/internal/domain"
)

// VesselRepository define el contrato de persistencia para buques y su historial de posiciones.
type VesselRepository interface {
	List(ctx context.Context, offset, limit int) ([]domain.Vessel, int, error)
	GetByID(ctx context.Context, id int64) (domain.Vessel, error)
	// CreateIfMissing inserta el buque si no existe otro con el mismo IMO.
	CreateIfMissing(ctx context.Context, vessel domain.Vessel) error
	// RecordPosition actualiza los campos last_* y agrega la posicion al historial.
	RecordPosition(ctx context.Context, vessel domain.Vessel, pos domain.VesselPosition) error
	History(ctx context.Context, vesselID int64, limit int) ([]domain.VesselPosition, error)
}

type PgVesselRepository struct {
	pool *pgxpool.Pool
}

func NewPgVesselRepository(pool *pgxpool.Pool) *PgVesselRepository {
	return &PgVesselRepository{pool: pool}
}

const vesselColumns = `id, imo, mmsi, name, vessel_type, flag, status,
	last_position_lat, last_position_lon, last_speed, last_heading, last_position_update`

func scanVessel(row pgx.Row) (domain.Vessel, error) {
	var v domain.Vessel
	err := row.Scan(
		&v.ID,
		&v.IMO,
		&v.MMSI,
		&v.Name,
		&v.VesselType,
		&v.Flag,
		&v.Status,
		&v.LastPositionLat,
		&v.LastPositionLon,
		&v.LastSpeed,
		&v.LastHeading,
		&v.LastPositionUpdate,
	)
	return v, err
}

// List devuelve una pagina ordenada por id; limit <= 0 trae todo.
func (r *PgVesselRepository) List(ctx context.Context, offset, limit int) ([]domain.Vessel, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM vessels`).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + vesselColumns + ` FROM vessels ORDER BY id OFFSET $1`
	args := []any{offset}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var vessels []domain.Vessel
	for rows.Next() {
		v, err := scanVessel(rows)
		if err != nil {
			return nil, 0, err
		}
		vessels = append(vessels, v)
	}
	return vessels, total, rows.Err()
}

func (r *PgVesselRepository) GetByID(ctx context.Context, id int64) (domain.Vessel, error) {
	v, err := scanVessel(r.pool.QueryRow(ctx, `SELECT `+vesselColumns+` FROM vessels WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Vessel{}, err
	}
	return v, err
}

func (r *PgVesselRepository) CreateIfMissing(ctx context.Context, v domain.Vessel) error {
	const query = `
		INSERT INTO vessels (imo, mmsi, name, vessel_type, flag, status, last_position_lat, last_position_lon)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (imo) DO NOTHING
	`
	_, err := r.pool.Exec(ctx, query,
		v.IMO,
		v.MMSI,
		v.Name,
		v.VesselType,
		v.Flag,
		v.Status,
		v.LastPositionLat,
		v.LastPositionLon,
	)
	return err
}

func (r *PgVesselRepository) RecordPosition(ctx context.Context, v domain.Vessel, pos domain.VesselPosition) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		UPDATE vessels
		SET last_position_lat = $2, last_position_lon = $3, last_speed = $4,
			last_heading = $5, last_position_update = $6, status = $7, updated_at = now()
		WHERE id = $1
	`, v.ID, pos.Latitude, pos.Longitude, pos.Speed, pos.Heading, pos.Timestamp, v.Status)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO vessel_positions (vessel_id, latitude, longitude, speed, heading, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, v.ID, pos.Latitude, pos.Longitude, pos.Speed, pos.Heading, pos.Timestamp)
	if err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *PgVesselRepository) History(ctx context.Context, vesselID int64, limit int) ([]domain.VesselPosition, error) {
	const query = `
		SELECT latitude, longitude, speed, heading, timestamp
		FROM vessel_positions
		WHERE vessel_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, vesselID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var positions []domain.VesselPosition
	for rows.Next() {
		p := domain.VesselPosition{VesselID: vesselID}
		if err := rows.Scan(&p.Latitude, &p.Longitude, &p.Speed, &p.Heading, &p.Timestamp); err != nil {
			return nil, err
		}
		positions = append(positions, p)
	}
	return positions, rows.Err()
}
