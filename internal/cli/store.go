package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	backend "github.com/redis/go-redis/v9"

	"github.com/aretw0/storytree/internal/config"
	"github.com/aretw0/storytree/pkg/adapters/file"
	"github.com/aretw0/storytree/pkg/adapters/memory"
	"github.com/aretw0/storytree/pkg/adapters/redis"
	"github.com/aretw0/storytree/pkg/adapters/sqlite"
	"github.com/aretw0/storytree/pkg/persistence/middleware"
	"github.com/aretw0/storytree/pkg/ports"
	"github.com/aretw0/storytree/pkg/session"
)

// Persistence is the session stack selected by the configuration.
type Persistence struct {
	Store    ports.StateStore
	Sessions *session.Manager

	closers []io.Closer
}

// Close releases the backend connections.
func (p *Persistence) Close() error {
	var errs []error
	for _, c := range p.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// OpenStore builds the configured store, wraps it with the masking and
// encryption middlewares and puts a session manager in front of it.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*Persistence, error) {
	p := &Persistence{}
	var opts []session.Option

	switch cfg.Driver {
	case "", config.DriverMemory:
		p.Store = memory.NewStore()
	case config.DriverFile:
		p.Store = file.NewStore(cfg.Path)
	case config.DriverSQLite:
		st, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, err
		}
		p.Store = st
		p.closers = append(p.closers, st)
	case config.DriverRedis:
		redisOpts, err := backend.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		client := backend.NewClient(redisOpts)
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("redis ping: %w", err)
		}

		prefix := cfg.Prefix
		if prefix == "" {
			prefix = redis.DefaultPrefix
		}
		p.Store = redis.NewFromClient(client, redis.WithPrefix(prefix), redis.WithTTL(cfg.TTL))
		p.closers = append(p.closers, client)
		opts = append(opts, session.WithLocker(redis.NewLocker(client, prefix)))
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}

	mws, err := storeMiddlewares(cfg)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	p.Store = middleware.Chain(p.Store, mws...)

	if cfg.LockTTL > 0 {
		opts = append(opts, session.WithLockTTL(cfg.LockTTL))
	}
	opts = append(opts, session.WithLogger(logger))
	p.Sessions = session.NewManager(p.Store, opts...)

	logger.Debug("session store ready", "driver", cfg.Driver, "middlewares", len(mws))
	return p, nil
}

// storeMiddlewares masks first so that the encrypted payload never holds
// the sensitive values.
func storeMiddlewares(cfg config.StoreConfig) ([]middleware.Middleware, error) {
	var mws []middleware.Middleware
	if len(cfg.MaskVars) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.MaskVars)
		if err != nil {
			return nil, err
		}
		mws = append(mws, pii)
	}
	if cfg.EncryptionKey != "" {
		active, err := config.DecodeKey(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("encryption key: %w", err)
		}
		enc := middleware.EncryptionConfig{ActiveKey: active}
		for i, k := range cfg.FallbackKeys {
			key, err := config.DecodeKey(k)
			if err != nil {
				return nil, fmt.Errorf("fallback key %d: %w", i, err)
			}
			enc.FallbackKeys = append(enc.FallbackKeys, key)
		}
		mw, err := middleware.NewEncryptionMiddleware(enc)
		if err != nil {
			return nil, err
		}
		mws = append(mws, mw)
	}
	return mws, nil
}
