package trips

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"tripconcierge/internal/config"
	"tripconcierge/internal/models"
	"tripconcierge/internal/redis"
	"tripconcierge/internal/storage"
)

// Store is a trip backend.
type Store interface {
	Insert(ctx context.Context, trip *models.Trip) error
	// FindByID returns ErrTripNotFound when no trip has id.
	FindByID(ctx context.Context, id string) (*models.Trip, error)
	// ListAll returns all trips sorted by name.
	ListAll(ctx context.Context) ([]models.Trip, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open connects the backend selected by cfg. It returns a nil Store and no
// error when no DSN is configured.
func Open(ctx context.Context, cfg config.StoreConfig, log *zap.Logger) (Store, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Enabled() {
		log.Warn("no trip store configured, trips disabled")
		return nil, nil
	}

	driver := strings.ToLower(cfg.Driver)
	switch driver {
	case "redis":
		client, err := redis.NewRedisClient(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect redis trip store: %w", err)
		}
		log.Info("trip store connected", zap.String("driver", driver))
		return NewRedisStore(client), nil
	default:
		db, err := storage.Open(ctx, driver, cfg.DSN)
		if err != nil {
			return nil, err
		}
		if err := storage.Migrate(ctx, db, driver); err != nil {
			db.Close()
			return nil, err
		}
		log.Info("trip store connected", zap.String("driver", driver))
		return NewSQLStore(db, driver), nil
	}
}

func sortByName(list []models.Trip) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Name != list[j].Name {
			return list[i].Name < list[j].Name
		}
		return list[i].ID < list[j].ID
	})
}
