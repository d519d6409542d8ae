package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/natserract/aukro/pkg/aukro"
	"github.com/natserract/aukro/pkg/postgres"
)

// Store kinds accepted by New
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// ErrUnknownStore is returned by New for an unsupported Config.Store
var ErrUnknownStore = errors.New("unknown session store")

// RedisConfig holds the redis connection settings
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Config selects and configures a session store
type Config struct {
	Store    string
	Name     string
	File     string
	TTL      time.Duration
	Redis    RedisConfig
	Postgres *postgres.Config
}

// New opens the store named by cfg.Store. The returned close func releases
// any connection the store holds and is never nil.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (aukro.SessionHandler, func(), error) {
	noop := func() {}

	switch cfg.Store {
	case "", StoreMemory:
		return NewMemory(), noop, nil

	case StoreFile:
		if cfg.File == "" {
			return nil, noop, fmt.Errorf("session file path is required")
		}
		return NewFile(cfg.File), noop, nil

	case StoreRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, noop, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Redis.Addr, err)
		}
		logger.Info("Using redis session store", zap.String("addr", cfg.Redis.Addr), zap.String("name", cfg.Name))
		return NewRedis(client, cfg.Name, cfg.TTL, logger), func() { client.Close() }, nil

	case StorePostgres:
		dbCfg := cfg.Postgres
		if dbCfg == nil {
			dbCfg = postgres.NewConfig()
		}
		db, err := postgres.New(ctx, dbCfg, logger)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.InitSchema(ctx, postgres.SessionSchema); err != nil {
			db.Close()
			return nil, noop, err
		}
		logger.Info("Using postgres session store", zap.String("name", cfg.Name))
		return NewPostgres(db.Pool(), cfg.Name, logger), db.Close, nil
	}

	return nil, noop, fmt.Errorf("%w: %q", ErrUnknownStore, cfg.Store)
}
