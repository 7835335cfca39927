package cli

import (
	"context"
	"fmt"
	"time"

	"assessment-service/internal/app"
	"assessment-service/internal/config"
	"assessment-service/internal/infra/memory"
	mongostore "assessment-service/internal/infra/mongo"
	"assessment-service/internal/infra/postgres"
	redisstore "assessment-service/internal/infra/redis"
	"assessment-service/internal/platform/logger"
	"github.com/redis/go-redis/v9"
)

// backend is the opened storage for one process.
type backend struct {
	stores  app.Stores
	closers []func()
}

func (b *backend) Close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

// openBackend connects the configured storage driver. When withCache is set
// the active question set and quiz attempts are wired too, backed by Redis
// if an address is configured.
func openBackend(ctx context.Context, cfg config.Config, log *logger.Logger, withCache bool) (*backend, error) {
	b := &backend{}
	switch cfg.Storage.Driver {
	case "", "memory":
		b.stores = app.Stores{
			Questions:   memory.NewQuestionStore(),
			Submissions: memory.NewSubmissionStore(),
			Users:       memory.NewUserStore(),
			Admins:      memory.NewAdminStore(),
		}
	case "mongo", "mongodb":
		if cfg.Mongo.URI == "" {
			return nil, fmt.Errorf("mongo uri not configured")
		}
		client, err := mongostore.Connect(ctx, cfg.Mongo.URI)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(shutdownCtx)
		})
		db := client.Database(cfg.Mongo.Database)
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			b.Close()
			return nil, err
		}
		b.stores = app.Stores{
			Questions:   mongostore.NewQuestionStore(db),
			Submissions: mongostore.NewSubmissionStore(db),
			Users:       mongostore.NewUserStore(db),
			Admins:      mongostore.NewAdminStore(db),
		}
	case "postgres":
		if err := runMigrationsWithConfig(ctx, cfg, log); err != nil {
			return nil, err
		}
		pool, err := postgres.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return nil, err
		}
		b.closers = append(b.closers, pool.Close)
		b.stores = app.Stores{
			Questions:   postgres.NewQuestionStore(pool),
			Submissions: postgres.NewSubmissionStore(pool),
			Users:       postgres.NewUserStore(pool),
			Admins:      postgres.NewAdminStore(pool),
		}
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
	log.Info("storage opened", "driver", cfg.Storage.Driver)

	if !withCache {
		return b, nil
	}

	cacheTTL := config.TTLDuration(cfg.Quiz.CacheTTL, 10*time.Minute)
	attemptTTL := config.TTLDuration(cfg.Quiz.AttemptTTL, app.DefaultAttemptTTL)
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = client.Close() })
		cacheTTL = config.TTLDuration(cfg.Redis.TTL, cacheTTL)
		b.stores.Active = redisstore.NewQuestionCache(client, b.stores.Questions, cacheTTL, log)
		if err := client.Ping(ctx).Err(); err != nil {
			// Attempts started here are only gradeable by this process.
			log.Warn("redis ping failed, question cache falls back to storage and attempts stay in memory",
				"addr", cfg.Redis.Addr, "error", err)
			b.stores.Attempts = memory.NewAttemptStore(attemptTTL)
			return b, nil
		}
		b.stores.Attempts = redisstore.NewAttemptStore(client, attemptTTL)
		log.Info("redis cache enabled", "addr", cfg.Redis.Addr)
	} else {
		b.stores.Active = memory.NewQuestionCache(b.stores.Questions, cacheTTL)
		b.stores.Attempts = memory.NewAttemptStore(attemptTTL)
	}
	return b, nil
}
