// Package cache provides a namespaced, tenant-aware read-through cache on
// Redis. Keys carry a logical namespace prefix; tenant-scoped entries
// embed the company ID so a whole tenant can be invalidated by pattern.
package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "github.com/Egem97/ttl-apg/internal/errors"
)

// Namespace is the logical category of a cached entry.
type Namespace string

const (
	NSData      Namespace = "data"
	NSQuery     Namespace = "query"
	NSUser      Namespace = "user"
	NSCompany   Namespace = "company"
	NSDashboard Namespace = "dashboard"
	NSReport    Namespace = "report"
	NSAPI       Namespace = "api"
)

// Namespaces lists every valid namespace, in stable order.
var Namespaces = []Namespace{NSData, NSQuery, NSUser, NSCompany, NSDashboard, NSReport, NSAPI}

// Valid reports whether the namespace is one of the enumerated values.
func (n Namespace) Valid() bool {
	for _, ns := range Namespaces {
		if n == ns {
			return true
		}
	}
	return false
}

// Key builds a cache key in the given namespace with no tenant scope.
func Key(ns Namespace, identifier string) string {
	return fmt.Sprintf("%s:%s", ns, identifier)
}

// TenantKey builds a tenant-scoped cache key. The company segment sits
// between namespace and identifier so tenant-wide invalidation can match
// on it regardless of namespace.
func TenantKey(ns Namespace, companyID int64, identifier string) string {
	return fmt.Sprintf("%s:company_%d:%s", ns, companyID, identifier)
}

// tenantPattern matches every key of one tenant across all namespaces.
func tenantPattern(companyID int64) string {
	return fmt.Sprintf("*company_%d:*", companyID)
}

// Store is a Redis-backed cache with dual serialization. All operations
// degrade gracefully: a connectivity failure surfaces as StoreUnavailable
// and callers are expected to fall through to the underlying source.
type Store struct {
	client     redis.UniversalClient
	defaultTTL time.Duration
	logger     *slog.Logger
}

// StoreOption customizes a Store.
type StoreOption func(*Store)

// WithStoreLogger sets the logger used for invalidation events.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) { s.logger = logger }
}

// NewStore creates a cache store. defaultTTL applies to Set calls that
// do not specify their own.
func NewStore(client redis.UniversalClient, defaultTTL time.Duration, opts ...StoreOption) *Store {
	s := &Store{
		client:     client,
		defaultTTL: defaultTTL,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Set stores a value under key with the default TTL.
func (s *Store) Set(ctx context.Context, key string, value any) error {
	return s.SetWithTTL(ctx, key, value, s.defaultTTL)
}

// SetWithTTL stores a value under key with an explicit TTL. A zero or
// negative TTL falls back to the default; entries never live forever.
func (s *Store) SetWithTTL(ctx context.Context, key string, value any, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	data, err := encode(value)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return apperrors.StoreUnavailable("cache set", err)
	}
	return nil
}

// Get retrieves and decodes a value. The second return is false on a
// miss. Corrupt entries cannot occur by construction (any byte string is
// a valid raw payload), so decode never fails here.
func (s *Store) Get(ctx context.Context, key string) (any, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, apperrors.StoreUnavailable("cache get", err)
	}
	return decode(data), true, nil
}

// GetInto retrieves a JSON entry into dest. Returns false on a miss.
// An entry that does not decode into dest is treated as a miss and
// evicted so one bad write cannot poison every subsequent read.
func (s *Store) GetInto(ctx context.Context, key string, dest any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, apperrors.StoreUnavailable("cache get", err)
	}
	if err := decodeInto(data, dest); err != nil {
		s.logger.WarnContext(ctx, "evicting undecodable cache entry", "key", key, "error", err)
		if delErr := s.client.Del(ctx, key).Err(); delErr != nil {
			return false, apperrors.StoreUnavailable("cache evict", delErr)
		}
		return false, nil
	}
	return true, nil
}

// Delete removes a single entry. Returns false when it did not exist.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return false, apperrors.StoreUnavailable("cache delete", err)
	}
	return n > 0, nil
}

// Exists reports whether a key is present without reading its value.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, apperrors.StoreUnavailable("cache exists", err)
	}
	return n > 0, nil
}

// TTLRemaining returns the time an entry has left. The second return is
// false when the key does not exist.
func (s *Store) TTLRemaining(ctx context.Context, key string) (time.Duration, bool, error) {
	d, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, false, apperrors.StoreUnavailable("cache ttl", err)
	}
	// go-redis maps "no such key" to -2ns and "no expiry" to -1ns.
	if d == -2*time.Nanosecond {
		return 0, false, nil
	}
	if d < 0 {
		return 0, true, nil
	}
	return d, true, nil
}

// ExtendTTL adds extra time to an entry's remaining TTL. Returns false
// when the key is gone or carries no expiry to extend.
func (s *Store) ExtendTTL(ctx context.Context, key string, extra time.Duration) (bool, error) {
	if extra <= 0 {
		extra = s.defaultTTL
	}
	remaining, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return false, apperrors.StoreUnavailable("cache ttl", err)
	}
	if remaining <= 0 {
		return false, nil
	}
	ok, err := s.client.Expire(ctx, key, remaining+extra).Result()
	if err != nil {
		return false, apperrors.StoreUnavailable("cache expire", err)
	}
	return ok, nil
}

// deleteBatchSize bounds the DEL pipeline during pattern invalidation so
// a large sweep never blocks Redis on one huge command.
const deleteBatchSize = 100

// InvalidateByPattern deletes every key matching a glob pattern using
// incremental SCAN, never KEYS. O(total keys); restricted to admin
// surfaces, maintenance and tests.
func (s *Store) InvalidateByPattern(ctx context.Context, pattern string) (int, error) {
	if pattern == "" {
		return 0, apperrors.Validation("invalidation pattern is required")
	}

	deleted := 0
	batch := make([]string, 0, deleteBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := s.client.Del(ctx, batch...).Result()
		if err != nil {
			return apperrors.StoreUnavailable("cache batch delete", err)
		}
		deleted += int(n)
		batch = batch[:0]
		return nil
	}

	iter := s.client.Scan(ctx, 0, pattern, int64(deleteBatchSize)).Iterator()
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= deleteBatchSize {
			if err := flush(); err != nil {
				return deleted, err
			}
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, apperrors.StoreUnavailable("cache scan", err)
	}
	if err := flush(); err != nil {
		return deleted, err
	}

	s.logger.InfoContext(ctx, "cache pattern invalidated", "pattern", pattern, "deleted", deleted)
	return deleted, nil
}

// InvalidateNamespace deletes every entry in one namespace.
func (s *Store) InvalidateNamespace(ctx context.Context, ns Namespace) (int, error) {
	if !ns.Valid() {
		return 0, apperrors.Validationf("unknown cache namespace %q", ns)
	}
	return s.InvalidateByPattern(ctx, string(ns)+":*")
}

// InvalidateTenant deletes every tenant-scoped entry of one company
// across all namespaces. Entries without a tenant scope are untouched.
func (s *Store) InvalidateTenant(ctx context.Context, companyID int64) (int, error) {
	if companyID <= 0 {
		return 0, apperrors.Validation("company ID is required")
	}
	return s.InvalidateByPattern(ctx, tenantPattern(companyID))
}

// NamespaceCounts counts keys per namespace via SCAN. Admin surface only.
func (s *Store) NamespaceCounts(ctx context.Context) (map[Namespace]int, error) {
	counts := make(map[Namespace]int, len(Namespaces))
	for _, ns := range Namespaces {
		n := 0
		iter := s.client.Scan(ctx, 0, string(ns)+":*", 0).Iterator()
		for iter.Next(ctx) {
			n++
		}
		if err := iter.Err(); err != nil {
			return nil, apperrors.StoreUnavailable("cache scan", err)
		}
		counts[ns] = n
	}
	return counts, nil
}

// Ping verifies connectivity, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return apperrors.StoreUnavailable("cache ping", err)
	}
	return nil
}
