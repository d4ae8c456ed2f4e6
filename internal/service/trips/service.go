// Package trips persists saved itineraries.
package trips

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tripconcierge/internal/models"
)

var (
	ErrStoreUnavailable = errors.New("trip store not configured")
	ErrInvalidTripID    = errors.New("invalid trip id")
	ErrTripNotFound     = errors.New("trip not found")
)

// CreateInput carries the optional fields of a new trip. Nil fields take
// their defaults.
type CreateInput struct {
	Name      *string
	Itinerary *string
	Metadata  map[string]any
}

// Service handles trip persistence. A Service without a Store reports
// ErrStoreUnavailable for every call.
type Service struct {
	store Store
	log   *zap.Logger
	now   func() time.Time
}

// NewService builds a trip service over store, which may be nil.
func NewService(store Store, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{store: store, log: log, now: time.Now}
}

// Available reports whether a store is configured.
func (s *Service) Available() bool {
	return s != nil && s.store != nil
}

// Create saves a new trip and returns its id.
func (s *Service) Create(ctx context.Context, in CreateInput) (string, error) {
	if !s.Available() {
		return "", ErrStoreUnavailable
	}
	trip := &models.Trip{
		ID:        uuid.NewString(),
		Name:      models.DefaultTripName,
		Metadata:  in.Metadata,
		CreatedAt: s.now().UTC().Truncate(time.Microsecond),
	}
	if in.Name != nil {
		trip.Name = *in.Name
	}
	if in.Itinerary != nil {
		trip.Itinerary = *in.Itinerary
	}
	if trip.Metadata == nil {
		trip.Metadata = map[string]any{}
	}

	if err := s.store.Insert(ctx, trip); err != nil {
		s.log.Error("save trip failed", zap.Error(err))
		return "", fmt.Errorf("save trip: %w", err)
	}
	s.log.Debug("trip saved", zap.String("trip_id", trip.ID))
	return trip.ID, nil
}

// Get returns the trip with the given id.
func (s *Service) Get(ctx context.Context, id string) (*models.Trip, error) {
	if !s.Available() {
		return nil, ErrStoreUnavailable
	}
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, ErrInvalidTripID
	}
	trip, err := s.store.FindByID(ctx, parsed.String())
	if err != nil {
		if errors.Is(err, ErrTripNotFound) {
			return nil, err
		}
		s.log.Error("load trip failed", zap.String("trip_id", id), zap.Error(err))
		return nil, fmt.Errorf("load trip: %w", err)
	}
	return trip, nil
}

// List returns every trip ordered by name.
func (s *Service) List(ctx context.Context) ([]models.TripSummary, error) {
	if !s.Available() {
		return []models.TripSummary{}, ErrStoreUnavailable
	}
	all, err := s.store.ListAll(ctx)
	if err != nil {
		s.log.Error("list trips failed", zap.Error(err))
		return []models.TripSummary{}, fmt.Errorf("list trips: %w", err)
	}
	out := make([]models.TripSummary, 0, len(all))
	for i := range all {
		out = append(out, all[i].Summary())
	}
	return out, nil
}

// Ping checks the backend. It returns ErrStoreUnavailable without a store.
func (s *Service) Ping(ctx context.Context) error {
	if !s.Available() {
		return ErrStoreUnavailable
	}
	return s.store.Ping(ctx)
}
