package trips

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"tripconcierge/internal/models"
	"tripconcierge/internal/storage"
)

// SQLStore keeps trips in a relational table created by storage.Migrate.
type SQLStore struct {
	db     *sql.DB
	driver string
}

func NewSQLStore(db *sql.DB, driver string) *SQLStore {
	return &SQLStore{db: db, driver: driver}
}

func (s *SQLStore) Insert(ctx context.Context, trip *models.Trip) error {
	meta, err := json.Marshal(trip.Metadata)
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(
		`INSERT INTO trips (id, name, itinerary, metadata, created_at) VALUES (?, ?, ?, ?, ?)`),
		trip.ID, trip.Name, trip.Itinerary, string(meta), trip.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert trip: %w", err)
	}
	return nil
}

func (s *SQLStore) FindByID(ctx context.Context, id string) (*models.Trip, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(
		`SELECT id, name, itinerary, metadata, created_at FROM trips WHERE id = ?`), id)
	trip, err := scanTrip(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("query trip: %w", err)
	}
	return trip, nil
}

func (s *SQLStore) ListAll(ctx context.Context) ([]models.Trip, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, itinerary, metadata, created_at FROM trips ORDER BY name ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	defer rows.Close()

	var list []models.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trips: %w", err)
	}
	return list, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

func (s *SQLStore) rebind(query string) string {
	return storage.Rebind(s.driver, query)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrip(row rowScanner) (*models.Trip, error) {
	var (
		trip models.Trip
		meta []byte
	)
	if err := row.Scan(&trip.ID, &trip.Name, &trip.Itinerary, &meta, &trip.CreatedAt); err != nil {
		return nil, err
	}
	trip.Metadata = map[string]any{}
	if len(meta) > 0 {
		if err := json.Unmarshal(meta, &trip.Metadata); err != nil {
			return nil, fmt.Errorf("decode metadata for trip %s: %w", trip.ID, err)
		}
	}
	return &trip, nil
}
