package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/samirrijal/geodraw/internal/core/domain"
)

// PostgreSQL SQLSTATE for insufficient_privilege.
const sqlStateInsufficientPrivilege = "42501"

// LocationRepo implements ports.LocationRepository with pgx and PostGIS.
type LocationRepo struct {
	db *DB
}

// NewLocationRepo creates a new LocationRepo.
func NewLocationRepo(db *DB) *LocationRepo {
	return &LocationRepo{db: db}
}

const locationColumns = `id, name, type, ST_AsEWKB(geometry), version,
	COALESCE(metadata, '{}'), updated_at`

// GetByID returns a location by UUID.
func (r *LocationRepo) GetByID(ctx context.Context, id string) (*domain.Location, error) {
	row := r.db.Pool.QueryRow(ctx, `SELECT `+locationColumns+` FROM locations WHERE id = $1`, id)
	loc, err := scanLocation(row)
	if err != nil {
		return nil, mapError(err)
	}
	return loc, nil
}

func scanLocation(row pgx.Row) (*domain.Location, error) {
	var (
		loc  domain.Location
		wkb  []byte
		meta map[string]any
	)
	if err := row.Scan(&loc.ID, &loc.Name, &loc.Type, &wkb, &loc.Version, &meta, &loc.UpdatedAt); err != nil {
		return nil, err
	}

	geometry, err := decodeEWKB(wkb)
	if err != nil {
		return nil, fmt.Errorf("location %s: %w", loc.ID, err)
	}
	loc.Geometry = geometry
	if len(meta) > 0 {
		loc.Metadata = meta
	}
	return &loc, nil
}

// Create inserts a new location.
func (r *LocationRepo) Create(ctx context.Context, loc *domain.Location) error {
	gj, err := encodeGeoJSON(loc.Geometry)
	if err != nil {
		return fmt.Errorf("encode geometry: %w", err)
	}
	_, err = r.db.Pool.Exec(ctx, `
		INSERT INTO locations (id, name, type, geometry, version, metadata, updated_at)
		VALUES ($1, $2, $3, ST_SetSRID(ST_GeomFromGeoJSON($4), 4326), $5, $6, $7)
	`, loc.ID, loc.Name, loc.Type, string(gj), loc.Version, loc.Metadata, loc.UpdatedAt)
	return mapError(err)
}

// UpdateGeometry writes the geometry, and the name when one is given,
// if the stored version still matches expectedVersion. It returns the row
// as stored.
func (r *LocationRepo) UpdateGeometry(ctx context.Context, id string, upd domain.LocationUpdate, expectedVersion int) (*domain.Location, error) {
	gj, err := encodeGeoJSON(upd.Geometry)
	if err != nil {
		return nil, fmt.Errorf("encode geometry: %w", err)
	}

	row := r.db.Pool.QueryRow(ctx, `
		UPDATE locations
		SET geometry = ST_SetSRID(ST_GeomFromGeoJSON($2), 4326),
		    name = COALESCE(NULLIF($3, ''), name),
		    version = version + 1,
		    updated_at = now()
		WHERE id = $1 AND version = $4
		RETURNING `+locationColumns, id, string(gj), upd.Name, expectedVersion)
	loc, err := scanLocation(row)
	if err == nil {
		return loc, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, mapError(err)
	}

	// Nothing updated: either the row is gone or someone else saved first.
	var current int
	err = r.db.Pool.QueryRow(ctx, `SELECT version FROM locations WHERE id = $1`, id).Scan(&current)
	if err != nil {
		return nil, mapError(err)
	}
	return nil, fmt.Errorf("location %s at version %d, expected %d: %w", id, current, expectedVersion, domain.ErrVersionConflict)
}

// mapError translates driver errors into domain sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlStateInsufficientPrivilege {
		return fmt.Errorf("%s: %w", pgErr.Message, domain.ErrPermissionDenied)
	}
	return err
}
