package store

import (
	"context"
	"fmt"

	"github.com/go-go-golems/grillo/pkg/steps/ai/settings"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// NewStoreFromSettings opens the backend selected by the store settings.
func NewStoreFromSettings(ctx context.Context, s *settings.StoreSettings) (Store, error) {
	if s == nil {
		s = settings.NewStoreSettings()
	}

	switch s.Type {
	case settings.StoreTypeMemory, "":
		log.Debug().Msg("using in-memory store, conversations are lost on exit")
		return NewInMemoryStore(), nil

	case settings.StoreTypeSQLite:
		if s.Path == "" {
			return nil, errors.New("sqlite store requires a path")
		}
		dsn, err := SQLiteDSNForFile(s.Path)
		if err != nil {
			return nil, err
		}
		log.Debug().Str("path", s.Path).Msg("opening sqlite store")
		st, err := NewSQLiteStore(dsn)
		if err != nil {
			return nil, err
		}
		return st, nil

	case settings.StoreTypeRedis:
		if s.RedisURL == "" {
			return nil, errors.New("redis store requires a redis_url")
		}
		log.Debug().Msg("connecting to redis store")
		st, err := NewRedisStoreFromURL(ctx, s.RedisURL)
		if err != nil {
			return nil, err
		}
		return st, nil

	default:
		return nil, fmt.Errorf("unsupported store type: %s", s.Type)
	}
}
