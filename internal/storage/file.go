// AngelaMos | 2026
// file.go

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/carterperez-dev/venuedesk/internal/core"
)

// File keeps the whole key space in one JSON document, optionally sealed.
// Writes go to a temp file that is renamed over the original.
type File struct {
	mu     sync.Mutex
	path   string
	sealer *core.Sealer
	values map[string]string
}

func NewFile(path string, sealer *core.Sealer) (*File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}

	f := &File{
		path:   path,
		sealer: sealer,
		values: make(map[string]string),
	}

	if err := f.load(); err != nil {
		// An unreadable store behaves like an empty one; the next write
		// replaces it.
		slog.Warn("discarding unreadable session storage",
			"path", path,
			"error", err,
		)
		f.values = make(map[string]string)
	}

	return f, nil
}

func (f *File) load() error {
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read storage: %w", err)
	}

	if len(raw) == 0 {
		return nil
	}

	if f.sealer != nil {
		raw, err = f.sealer.Open(raw)
		if err != nil {
			return err
		}
	}

	values := make(map[string]string)
	if err := json.Unmarshal(raw, &values); err != nil {
		return fmt.Errorf("decode storage: %w", core.ErrStorageFormat)
	}

	f.values = values
	return nil
}

func (f *File) flushLocked() error {
	raw, err := json.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("encode storage: %w", err)
	}

	if f.sealer != nil {
		raw, err = f.sealer.Seal(raw)
		if err != nil {
			return fmt.Errorf("seal storage: %w", err)
		}
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write storage: %w", err)
	}

	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("replace storage: %w", err)
	}

	return nil
}

func (f *File) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.values[key]
	return v, ok
}

func (f *File) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.values[key]
	f.values[key] = value

	if err := f.flushLocked(); err != nil {
		if had {
			f.values[key] = prev
		} else {
			delete(f.values, key)
		}
		return err
	}

	return nil
}

func (f *File) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.values[key]; !ok {
		return nil
	}

	delete(f.values, key)
	return f.flushLocked()
}
