package kvstore

import (
	"fmt"

	"github.com/angelmondragon/filmex-backend/pkg/config"
	pfredis "github.com/angelmondragon/filmex-backend/pkg/redis"
	"gorm.io/gorm"
)

// Backends carries the already connected clients a store may be built on.
type Backends struct {
	Redis *pfredis.Client
	DB    *gorm.DB
}

// Open builds the configured store and the locker that matches its
// deployment shape.
func Open(cfg config.StoreConfig, backends Backends) (Store, Locker, error) {
	switch cfg.Backend {
	case "", config.StoreBackendMemory:
		return NewMemoryStore(), NewLocalLocker(), nil
	case config.StoreBackendRedis:
		if backends.Redis == nil {
			return nil, nil, fmt.Errorf("redis store requires a redis client")
		}
		store, err := NewRedisStore(backends.Redis)
		if err != nil {
			return nil, nil, err
		}
		locker, err := NewRedisLocker(backends.Redis, cfg.LockTTL, cfg.LockWait)
		if err != nil {
			return nil, nil, err
		}
		return store, locker, nil
	case config.StoreBackendSQL:
		if backends.DB == nil {
			return nil, nil, fmt.Errorf("sql store requires a database connection")
		}
		store, err := NewSQLStore(backends.DB)
		if err != nil {
			return nil, nil, err
		}
		if backends.Redis != nil {
			locker, err := NewRedisLocker(backends.Redis, cfg.LockTTL, cfg.LockWait)
			if err != nil {
				return nil, nil, err
			}
			return store, locker, nil
		}
		return store, NewLocalLocker(), nil
	default:
		return nil, nil, fmt.Errorf("unsupported store backend %q", cfg.Backend)
	}
}
