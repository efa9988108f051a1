// AngelaMos | 2026
// storage.go

package storage

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/venuedesk/internal/config"
	"github.com/carterperez-dev/venuedesk/internal/core"
)

const (
	KeyToken    = "token"
	KeyUser     = "user"
	KeyDemoMode = "demo_mode"
)

// SessionKeys are removed together on logout or when a stored session fails
// verification.
var SessionKeys = []string{KeyToken, KeyUser, KeyDemoMode}

// Store is a synchronous string key-value store that survives restarts.
// Get reports a missing key with ok=false rather than an error.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Remove(key string) error
}

type Pinger interface {
	Ping(ctx context.Context) error
}

func Open(ctx context.Context, cfg config.StorageConfig) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.StorageMemory:
		return NewMemory(), noop, nil

	case config.StorageFile:
		var sealer *core.Sealer
		if cfg.Passphrase != "" {
			s, err := core.NewSealer(cfg.Passphrase)
			if err != nil {
				return nil, nil, err
			}
			sealer = s
		}
		store, err := NewFile(cfg.Path, sealer)
		if err != nil {
			return nil, nil, err
		}
		return store, noop, nil

	case config.StorageRedis:
		store, err := DialRedis(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil

	default:
		return nil, nil, fmt.Errorf("open storage %q: %w", cfg.Driver, core.ErrInvalidInput)
	}
}

func RemoveAll(s Store, keys ...string) error {
	var first error
	for _, key := range keys {
		if err := s.Remove(key); err != nil && first == nil {
			first = fmt.Errorf("remove %s: %w", key, err)
		}
	}
	return first
}

const keyProbe = "health_probe"

type roundTrip struct{ s Store }

// AsPinger returns s when it already pings a remote service. Other stores
// are checked with a write, read and delete of a probe key.
func AsPinger(s Store) Pinger {
	if p, ok := s.(Pinger); ok {
		return p
	}
	return roundTrip{s: s}
}

func (r roundTrip) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.s.Set(keyProbe, "1"); err != nil {
		return fmt.Errorf("probe write: %w", err)
	}
	if v, ok := r.s.Get(keyProbe); !ok || v != "1" {
		return fmt.Errorf("probe read: %w", core.ErrStorageFormat)
	}
	if err := r.s.Remove(keyProbe); err != nil {
		return fmt.Errorf("probe remove: %w", err)
	}
	return nil
}
