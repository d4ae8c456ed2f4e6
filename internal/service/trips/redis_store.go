package trips

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tripconcierge/internal/models"
	"tripconcierge/internal/redis"
)

const tripsHashKey = "trips"

// RedisStore keeps every trip as a JSON document in one redis hash.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Insert(ctx context.Context, trip *models.Trip) error {
	doc, err := json.Marshal(trip)
	if err != nil {
		return fmt.Errorf("encode trip: %w", err)
	}
	if err := s.client.HSet(ctx, tripsHashKey, trip.ID, doc); err != nil {
		return fmt.Errorf("store trip: %w", err)
	}
	return nil
}

func (s *RedisStore) FindByID(ctx context.Context, id string) (*models.Trip, error) {
	doc, err := s.client.HGet(ctx, tripsHashKey, id)
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, ErrTripNotFound
		}
		return nil, fmt.Errorf("fetch trip: %w", err)
	}
	return decodeTrip(doc)
}

func (s *RedisStore) ListAll(ctx context.Context) ([]models.Trip, error) {
	docs, err := s.client.HGetAll(ctx, tripsHashKey)
	if err != nil {
		return nil, fmt.Errorf("list trips: %w", err)
	}
	list := make([]models.Trip, 0, len(docs))
	for _, doc := range docs {
		trip, err := decodeTrip(doc)
		if err != nil {
			return nil, err
		}
		list = append(list, *trip)
	}
	sortByName(list)
	return list, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func decodeTrip(doc string) (*models.Trip, error) {
	var trip models.Trip
	if err := json.Unmarshal([]byte(doc), &trip); err != nil {
		return nil, fmt.Errorf("decode trip: %w", err)
	}
	if trip.Metadata == nil {
		trip.Metadata = map[string]any{}
	}
	return &trip, nil
}
