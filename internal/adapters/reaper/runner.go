// Package reaper provides the session maintenance loop.
package reaper

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Egem97/ttl-apg/config"
	domainauth "github.com/Egem97/ttl-apg/internal/domain/auth"
)

// Runner periodically sweeps the session keyspace. Redis TTLs do the
// bulk of expiry; the sweep catches what they cannot: corrupt records,
// records whose embedded expiry predates their TTL (clock-skewed
// writes), and user-index entries pointing at sessions that no longer
// exist. The sweep is O(keys) and runs only in the reaper service mode,
// never on a request path.
type Runner struct {
	client redis.UniversalClient
	cfg    config.ReaperConfig
	logger *slog.Logger
	now    func() time.Time
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Client redis.UniversalClient
	Config config.ReaperConfig
	Logger *slog.Logger

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewRunner creates a session reaper runner.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Client == nil {
		return nil, errors.New("redis client is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{
		client: opts.Client,
		cfg:    opts.Config,
		logger: opts.Logger,
		now:    opts.Now,
	}, nil
}

// Run executes sweeps on the configured interval until ctx is cancelled.
// The first sweep runs immediately.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting session reaper", "interval", r.cfg.Interval)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		if err := r.Sweep(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.ErrorContext(ctx, "session sweep failed", "error", err)
		}
		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "session reaper stopping")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// SweepResult summarizes one pass over the keyspace.
type SweepResult struct {
	Scanned      int
	RemovedStale int
	IndexPruned  int
}

// Sweep performs a single maintenance pass: remove dead session records,
// then prune user-index entries whose session is gone.
func (r *Runner) Sweep(ctx context.Context) error {
	res, err := r.sweepSessions(ctx)
	if err != nil {
		return err
	}
	pruned, err := r.pruneIndexes(ctx)
	if err != nil {
		return err
	}
	res.IndexPruned = pruned

	r.logger.InfoContext(ctx, "session sweep complete",
		"scanned", res.Scanned,
		"removed", res.RemovedStale,
		"index_pruned", res.IndexPruned,
	)
	return nil
}

func (r *Runner) sweepSessions(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := r.now()

	iter := r.client.Scan(ctx, 0, "session:*", int64(r.cfg.ScanBatchSize)).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		res.Scanned++

		data, err := r.client.Get(ctx, key).Result()
		if err != nil {
			if err == redis.Nil {
				continue
			}
			return res, err
		}

		var sess domainauth.Session
		if jsonErr := json.Unmarshal([]byte(data), &sess); jsonErr != nil {
			r.logger.WarnContext(ctx, "removing corrupt session record", "key", key)
			if err := r.client.Del(ctx, key).Err(); err != nil {
				return res, err
			}
			res.RemovedStale++
			continue
		}

		if sess.Expired(now) {
			if err := r.client.Del(ctx, key).Err(); err != nil {
				return res, err
			}
			if sess.UserID != 0 {
				if err := r.client.SRem(ctx, userIndexKey(sess.UserID), sess.ID).Err(); err != nil {
					return res, err
				}
			}
			res.RemovedStale++
		}
	}
	return res, iter.Err()
}

func (r *Runner) pruneIndexes(ctx context.Context) (int, error) {
	pruned := 0

	iter := r.client.Scan(ctx, 0, "user_sessions:*", int64(r.cfg.ScanBatchSize)).Iterator()
	for iter.Next(ctx) {
		indexKey := iter.Val()
		ids, err := r.client.SMembers(ctx, indexKey).Result()
		if err != nil {
			return pruned, err
		}
		for _, id := range ids {
			exists, err := r.client.Exists(ctx, "session:"+id).Result()
			if err != nil {
				return pruned, err
			}
			if exists == 0 {
				if err := r.client.SRem(ctx, indexKey, id).Err(); err != nil {
					return pruned, err
				}
				pruned++
			}
		}
	}
	return pruned, iter.Err()
}

func userIndexKey(userID int64) string {
	return "user_sessions:" + strconv.FormatInt(userID, 10)
}
