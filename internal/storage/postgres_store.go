package storage

import (
	"context"
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/example/ride-tracking/internal/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	// quick ping
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &PostgresStore{db: db}, nil
}

// Migrate applies a schema script, e.g. migrations/001_create_tracking_lookups.sql.
func (p *PostgresStore) Migrate(ctx context.Context, script string) error {
	_, err := p.db.ExecContext(ctx, script)
	return err
}

func (p *PostgresStore) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *PostgresStore) Record(ctx context.Context, l models.Lookup) error {
	_, err := p.db.ExecContext(ctx, `INSERT INTO tracking_lookups(ride_id, raw_status, status, progress, route_source, has_tracking, fetched_at) VALUES($1,$2,$3,$4,$5,$6,$7)`,
		l.RideID, l.RawStatus, l.Status, l.Progress, string(l.RouteSource), l.HasTracking, l.FetchedAt)
	return err
}

func (p *PostgresStore) History(ctx context.Context, rideID string, limit int) ([]models.Lookup, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	rows, err := p.db.QueryContext(ctx, `SELECT ride_id, raw_status, status, progress, route_source, has_tracking, fetched_at FROM tracking_lookups WHERE ride_id=$1 ORDER BY fetched_at DESC LIMIT $2`, rideID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Lookup
	for rows.Next() {
		var l models.Lookup
		var src string
		if err := rows.Scan(&l.RideID, &l.RawStatus, &l.Status, &l.Progress, &src, &l.HasTracking, &l.FetchedAt); err != nil {
			return nil, err
		}
		l.RouteSource = models.RouteSource(src)
		out = append(out, l)
	}
	return out, rows.Err()
}

func (p *PostgresStore) Close() error { return p.db.Close() }
