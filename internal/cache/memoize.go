package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"
)

// Memoizer wraps a Store with read-through loading. Concurrent misses of
// the same key are collapsed to a single loader call via singleflight;
// loader errors are returned and never cached, so a transient failure
// does not become a poisoned entry for the TTL window.
type Memoizer struct {
	store  *Store
	ttl    time.Duration
	group  singleflight.Group
	logger *slog.Logger
}

// NewMemoizer creates a Memoizer. A non-positive ttl means each load
// uses the store's default TTL.
func NewMemoizer(store *Store, ttl time.Duration) *Memoizer {
	return &Memoizer{store: store, ttl: ttl, logger: slog.Default()}
}

// GetOrLoad returns the cached value under key, or invokes load, caches
// the result and returns it. A cache read failure is logged and treated
// as a miss: the loader is the source of truth, the cache only an
// accelerator.
func GetOrLoad[T any](ctx context.Context, m *Memoizer, key string, load func(ctx context.Context) (T, error)) (T, error) {
	var cached T
	hit, err := m.store.GetInto(ctx, key, &cached)
	if err != nil {
		m.logger.WarnContext(ctx, "cache read failed, falling through to loader", "key", key, "error", err)
	} else if hit {
		return cached, nil
	}

	v, err, _ := m.group.Do(key, func() (any, error) {
		fresh, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if err := m.store.SetWithTTL(ctx, key, fresh, m.ttl); err != nil {
			m.logger.WarnContext(ctx, "cache write failed", "key", key, "error", err)
		}
		return fresh, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// ArgsKey derives a stable cache key from a function name and its
// arguments. Arguments are JSON-serialized and hashed, so the key stays
// bounded no matter how large the argument list is. Unserializable
// arguments fall back to their fmt representation.
func ArgsKey(name string, args ...any) string {
	h := sha256.New()
	h.Write([]byte(name))
	for _, arg := range args {
		data, err := json.Marshal(arg)
		if err != nil {
			data = []byte(fmt.Sprintf("%#v", arg))
		}
		h.Write([]byte{0})
		h.Write(data)
	}
	return name + ":" + hex.EncodeToString(h.Sum(nil))[:32]
}
