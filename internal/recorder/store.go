package recorder

import (
	"context"
	"fmt"

	"github.com/wonny/itrading/internal/contracts"
	"github.com/wonny/itrading/internal/selection"
	"github.com/wonny/itrading/pkg/config"
	"github.com/wonny/itrading/pkg/database"
	"github.com/wonny/itrading/pkg/logger"
)

// Open creates the RunStore selected by cfg.Store.Driver.
// The returned close function releases the underlying connection.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (contracts.RunStore, func() error, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		repo := selection.NewRepository(db.Pool)
		if err := repo.Migrate(ctx); err != nil {
			db.Close()
			return nil, nil, err
		}
		log.Info("Using PostgreSQL run store")
		store := &postgresStore{Repository: repo, db: db}
		return store, func() error { db.Close(); return nil }, nil

	case config.StoreDriverSQLite:
		rec, err := NewSQLiteRecorder(cfg.Store.SQLitePath, log)
		if err != nil {
			return nil, nil, err
		}
		return rec, rec.Close, nil

	case config.StoreDriverNone, "":
		log.Warn("Run persistence disabled")
		return Noop{}, func() error { return nil }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver: %s", cfg.Store.Driver)
	}
}

// postgresStore is the pgx repository plus the pool it runs on
type postgresStore struct {
	*selection.Repository
	db *database.DB
}

// Health reports pool latency and connection counters
func (s *postgresStore) Health(ctx context.Context) (map[string]interface{}, error) {
	hs, err := s.db.HealthCheck(ctx)
	status := map[string]interface{}{"driver": "postgres"}
	if hs != nil {
		status["response_time"] = hs.ResponseTime.String()
		status["acquired_conns"] = hs.AcquiredConns
		status["total_conns"] = hs.TotalConns
		status["max_conns"] = hs.MaxConns
	}
	return status, err
}
