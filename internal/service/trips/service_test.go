package trips

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"tripconcierge/internal/config"
	"tripconcierge/internal/models"
)

func strPtr(s string) *string { return &s }

func openSQLiteService(t *testing.T) *Service {
	t.Helper()
	store, err := Open(context.Background(), config.StoreConfig{Driver: "sqlite3", DSN: ":memory:"}, zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return NewService(store, zap.NewNop())
}

func TestCreateAndGetTrip(t *testing.T) {
	svc := openSQLiteService(t)
	fixed := time.Date(2025, 3, 1, 9, 30, 0, 123456000, time.UTC)
	svc.now = func() time.Time { return fixed }
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateInput{
		Name:      strPtr("Dubai"),
		Itinerary: strPtr("Day 1: Dubai Mall"),
		Metadata:  map[string]any{"days": float64(3), "tags": []any{"family"}},
	})
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	require.NoError(t, err)

	trip, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, trip.ID)
	assert.Equal(t, "Dubai", trip.Name)
	assert.Equal(t, "Day 1: Dubai Mall", trip.Itinerary)
	assert.Equal(t, map[string]any{"days": float64(3), "tags": []any{"family"}}, trip.Metadata)
	assert.True(t, fixed.Equal(trip.CreatedAt), "created_at = %v", trip.CreatedAt)
}

func TestCreateAppliesDefaults(t *testing.T) {
	svc := openSQLiteService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, CreateInput{})
	require.NoError(t, err)
	trip, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTripName, trip.Name)
	assert.Equal(t, "", trip.Itinerary)
	assert.Equal(t, map[string]any{}, trip.Metadata)
}

func TestGetTripErrors(t *testing.T) {
	svc := openSQLiteService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, ErrInvalidTripID)

	_, err = svc.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, ErrTripNotFound)
}

func TestListTripsSortedByName(t *testing.T) {
	svc := openSQLiteService(t)
	ctx := context.Background()

	for _, name := range []string{"Oslo", "Cairo", "Lima"} {
		_, err := svc.Create(ctx, CreateInput{Name: strPtr(name), Itinerary: strPtr("long text")})
		require.NoError(t, err)
	}

	list, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "Cairo", list[0].Name)
	assert.Equal(t, "Lima", list[1].Name)
	assert.Equal(t, "Oslo", list[2].Name)
	assert.Equal(t, map[string]any{}, list[0].Metadata)
}

func TestListEmptyStore(t *testing.T) {
	list, err := openSQLiteService(t).List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestServiceWithoutStore(t *testing.T) {
	svc := NewService(nil, nil)
	ctx := context.Background()
	assert.False(t, svc.Available())

	_, err := svc.Create(ctx, CreateInput{})
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	// availability is checked before the id
	_, err = svc.Get(ctx, "bad")
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	list, err := svc.List(ctx)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.NotNil(t, list)
	assert.Empty(t, list)

	assert.ErrorIs(t, svc.Ping(ctx), ErrStoreUnavailable)
}

type failingStore struct{ err error }

func (f failingStore) Insert(context.Context, *models.Trip) error { return f.err }
func (f failingStore) FindByID(context.Context, string) (*models.Trip, error) {
	return nil, f.err
}
func (f failingStore) ListAll(context.Context) ([]models.Trip, error) { return nil, f.err }
func (f failingStore) Ping(context.Context) error                     { return f.err }
func (f failingStore) Close() error                                   { return nil }

func TestServiceWrapsBackendErrors(t *testing.T) {
	boom := errors.New("connection reset")
	svc := NewService(failingStore{err: boom}, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateInput{})
	assert.ErrorIs(t, err, boom)

	_, err = svc.Get(ctx, uuid.NewString())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrTripNotFound)

	list, err := svc.List(ctx)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, list)
}

func TestOpenDisabledStore(t *testing.T) {
	store, err := Open(context.Background(), config.StoreConfig{Driver: "sqlite3"}, nil)
	require.NoError(t, err)
	assert.Nil(t, store)
}

func TestOpenUnreachableStore(t *testing.T) {
	_, err := Open(context.Background(), config.StoreConfig{Driver: "redis", DSN: "redis://127.0.0.1:1"}, nil)
	assert.Error(t, err)
}
