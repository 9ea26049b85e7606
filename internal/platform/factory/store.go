// Package factory constructs driver-specific dependencies from config.
package factory

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/companionlabs/companion/internal/config"
	storepkg "github.com/companionlabs/companion/internal/store"
	storepg "github.com/companionlabs/companion/internal/store/postgres"
	storesq "github.com/companionlabs/companion/internal/store/sqlite"
)

// NewStore returns the store.Store selected by cfg.DBDriver.
// Postgres bootstrap runs asynchronously so startup stays fast; SQLite
// applies its schema synchronously on open.
func NewStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (storepkg.Store, error) {
	switch cfg.DBDriver {
	case "sqlite":
		db, err := storesq.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return storesq.NewWithDB(db), nil

	case "postgres":
		db, err := storepg.Open(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}

		go func() {
			bootstrapCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			if err := storepg.Bootstrap(bootstrapCtx, cfg.PostgresDSN); err != nil {
				log.Warn().Err(err).Str("driver", cfg.DBDriver).Msg("store bootstrap check failed")
			} else {
				log.Debug().Str("driver", cfg.DBDriver).Msg("store bootstrap check completed")
			}
		}()

		return storepg.NewWithDB(db), nil

	default:
		return nil, fmt.Errorf("unknown DB_DRIVER: %s", cfg.DBDriver)
	}
}
