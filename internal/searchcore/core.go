// Package searchcore implements the read-through cache, single-flight
// coalescing, stale-on-error fallback, and bounded upstream concurrency
// that together form the only read path language-stats callers traverse.
package searchcore

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/codeGROOVE-dev/langstats/internal/aggregate"
	"github.com/codeGROOVE-dev/langstats/internal/apperr"
	"github.com/codeGROOVE-dev/langstats/internal/leaderboard"
	"github.com/codeGROOVE-dev/langstats/internal/store"
	"github.com/codeGROOVE-dev/langstats/internal/upstream"
)

// SchemaVersion is a build-time constant embedded in every cache key.
// Bumping it silently invalidates every prior cache row without deleting
// anything — a code change to the Result shape must bump this.
const SchemaVersion = "v1"

const defaultConcurrencyLimit = 20

// Upstream is the subset of upstream.Client that Core depends on, so tests
// can substitute a fake.
type Upstream interface {
	Name() string
	ProviderBaseURL() string
	FetchAccount(ctx context.Context, handle string) (*upstream.Account, []upstream.Repository, error)
}

// Core is the central orchestrator: it composes the store, the upstream
// client, and the aggregator behind a single Search entry point.
type Core struct {
	store       *store.Store
	stream      Upstream
	leaderboard *leaderboard.Leaderboard
	logger      *slog.Logger
	group       singleflight.Group
	sem         *semaphore.Weighted
	ttl         time.Duration
}

// New builds a Core. concurrencyLimit <= 0 falls back to the spec's default
// of 20 simultaneous in-flight upstream calls. Writes to the leaderboard
// (C5) flow through lb's Record, the same path leaderboard_test.go exercises
// directly — Core never touches the store's leaderboard table itself.
func New(st *store.Store, up Upstream, lb *leaderboard.Leaderboard, ttl time.Duration, concurrencyLimit int64, logger *slog.Logger) *Core {
	if concurrencyLimit <= 0 {
		concurrencyLimit = defaultConcurrencyLimit
	}
	return &Core{
		store:       st,
		stream:      up,
		leaderboard: lb,
		logger:      logger,
		sem:         semaphore.NewWeighted(concurrencyLimit),
		ttl:         ttl,
	}
}

// fetchOutcome is the single value type carried through the singleflight
// group. The shared function never returns a Go error from its own
// perspective — every failure mode is represented here instead — so
// singleflight's internal transient error-forgetting window never applies.
type fetchOutcome struct {
	entry *store.Entry
	err   *apperr.Error
}

const internalSaturationMessage = "too many concurrent searches in flight; try again shortly"

// Search is the only read-path for account language statistics. See
// spec.md §4.4 for the full decision table this implements.
func (c *Core) Search(ctx context.Context, handle string, opts Options) (*Result, *apperr.Error) {
	handle = strings.ToLower(strings.TrimSpace(handle))

	key := store.Key{
		Provider:        c.stream.Name(),
		ProviderBaseURL: c.stream.ProviderBaseURL(),
		Handle:          handle,
		SchemaVersion:   SchemaVersion,
		OptionsHash:     opts.Hash(),
	}

	row, found := c.store.CacheGet(ctx, key)
	now := time.Now().Unix()
	var fallback *payload
	var fallbackCachedAt, fallbackCachedUntil int64

	if found {
		if now < row.CachedUntil {
			if p, err := decodePayload(row.Payload); err == nil {
				return buildResult(p, row.CachedAt, row.CachedAt, row.CachedUntil), nil
			}
			// Corrupted fresh entry: treat as a miss, fall through to fetch.
		} else if p, err := decodePayload(row.Payload); err == nil {
			fallback = p
			fallbackCachedAt, fallbackCachedUntil = row.CachedAt, row.CachedUntil
		}
		// Corrupted expired entry: no fallback: any upstream error below
		// surfaces unchanged.
	}

	keyString := keyString(key)
	resCh := c.group.DoChan(keyString, func() (any, error) {
		return c.fetchAndStore(ctx, key, handle), nil
	})

	select {
	case res := <-resCh:
		out, _ := res.Val.(*fetchOutcome)
		if out.err != nil {
			if fallback != nil {
				return buildResult(fallback, fallbackCachedAt, fallbackCachedAt, fallbackCachedUntil), nil
			}
			return nil, out.err
		}
		p, err := decodePayload(out.entry.Payload)
		if err != nil {
			return nil, apperr.New(apperr.KindUnknown, "decoding freshly stored payload: "+err.Error())
		}
		return buildResult(p, out.entry.CachedAt, out.entry.CachedAt, out.entry.CachedUntil), nil
	case <-ctx.Done():
		// This caller detaches. A caller that only joined an existing
		// fetch leaves it running for the others, and it still populates
		// the cache. The fetch itself runs on the leader's ctx, so when
		// the leader is the caller canceled here, the upstream call is
		// aborted and the remaining waiters receive its error.
		return nil, apperr.New(apperr.KindNetworkError, "search canceled")
	}
}

// fetchAndStore performs the actual upstream call. It runs at most once per
// distinct cache key at a time: singleflight.Group guarantees only the
// first caller for a key executes this closure.
func (c *Core) fetchAndStore(ctx context.Context, key store.Key, handle string) *fetchOutcome {
	if !c.sem.TryAcquire(1) {
		return &fetchOutcome{err: apperr.New(apperr.KindRateLimited, internalSaturationMessage)}
	}
	defer c.sem.Release(1)

	account, repos, err := c.stream.FetchAccount(ctx, handle)
	if err != nil {
		return &fetchOutcome{err: toAppErr(err)}
	}

	buckets := aggregate.Aggregate(toAggregateRepos(repos))

	blob, err := encodePayload(account, buckets)
	if err != nil {
		return &fetchOutcome{err: apperr.New(apperr.KindUnknown, "encoding payload: "+err.Error())}
	}

	entry, upsertErr := c.store.CacheUpsert(ctx, key, blob, c.ttl)
	if upsertErr != nil {
		c.logger.Warn("cache upsert failed; serving uncached result", "handle", handle, "error", upsertErr)
		now := time.Now().Unix()
		entry = &store.Entry{Payload: blob, CachedAt: now, CachedUntil: now + int64(c.ttl.Seconds()), UpdatedAt: now}
	}

	c.leaderboard.Record(ctx, c.stream.Name(), handle, account.AvatarURL)

	return &fetchOutcome{entry: entry}
}

func toAppErr(err error) *apperr.Error {
	if ae, ok := err.(*apperr.Error); ok {
		return ae
	}
	return apperr.New(apperr.KindUnknown, err.Error())
}

func toAggregateRepos(repos []upstream.Repository) []aggregate.Repository {
	out := make([]aggregate.Repository, len(repos))
	for i, r := range repos {
		out[i] = aggregate.Repository{Language: r.Language, IsFork: r.IsFork}
	}
	return out
}

func keyString(k store.Key) string {
	return k.Provider + "\x00" + k.ProviderBaseURL + "\x00" + k.Handle + "\x00" + k.SchemaVersion + "\x00" + k.OptionsHash
}
