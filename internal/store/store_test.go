package store

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func testKey() Key {
	return Key{
		Provider:        "github",
		ProviderBaseURL: "https://github.com",
		Handle:          "octocat",
		SchemaVersion:   "v1",
		OptionsHash:     "default",
	}
}

func TestCacheGetMiss(t *testing.T) {
	st := newTestStore(t)
	_, found := st.CacheGet(context.Background(), testKey())
	if found {
		t.Fatal("expected a miss on an empty store")
	}
}

func TestCacheUpsertThenGet(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	key := testKey()

	entry, err := st.CacheUpsert(ctx, key, `{"account":{}}`, time.Hour)
	if err != nil {
		t.Fatalf("CacheUpsert: %v", err)
	}
	if entry.CachedUntil <= entry.CachedAt {
		t.Errorf("CachedUntil %d should be after CachedAt %d", entry.CachedUntil, entry.CachedAt)
	}

	got, found := st.CacheGet(ctx, key)
	if !found {
		t.Fatal("expected a hit after upsert")
	}
	if got.Payload != `{"account":{}}` {
		t.Errorf("Payload = %q", got.Payload)
	}
}

func TestCacheUpsertOverwritesOnConflict(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	key := testKey()

	if _, err := st.CacheUpsert(ctx, key, "first", time.Hour); err != nil {
		t.Fatalf("first CacheUpsert: %v", err)
	}
	if _, err := st.CacheUpsert(ctx, key, "second", time.Hour); err != nil {
		t.Fatalf("second CacheUpsert: %v", err)
	}

	got, found := st.CacheGet(ctx, key)
	if !found || got.Payload != "second" {
		t.Fatalf("got %+v, found=%v, want payload 'second'", got, found)
	}
}

func TestCacheKeyIsNormalized(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	key := testKey()
	key.Handle = "OctoCat "
	key.ProviderBaseURL = "https://github.com/"

	if _, err := st.CacheUpsert(ctx, key, "payload", time.Hour); err != nil {
		t.Fatalf("CacheUpsert: %v", err)
	}

	_, found := st.CacheGet(ctx, testKey())
	if !found {
		t.Fatal("expected the normalized key to match the canonical lookup key")
	}
}

func TestLeaderboardUpsertIncrementsHit(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	st.LeaderboardUpsert(ctx, "github", "octocat", "https://avatars.githubusercontent.com/u/1")
	st.LeaderboardUpsert(ctx, "github", "octocat", "")

	rows, total, ok := st.LeaderboardPage(ctx, "github", 10, 0)
	if !ok {
		t.Fatal("LeaderboardPage failed")
	}
	if total != 1 {
		t.Fatalf("total = %d, want 1", total)
	}
	if len(rows) != 1 || rows[0].Hit != 2 {
		t.Fatalf("rows = %+v, want one row with hit=2", rows)
	}
	if rows[0].AvatarURL == nil || *rows[0].AvatarURL != "https://avatars.githubusercontent.com/u/1" {
		t.Errorf("avatar url should survive an empty-string overwrite attempt, got %+v", rows[0].AvatarURL)
	}
}

func TestLeaderboardPageOrdering(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	st.LeaderboardUpsert(ctx, "github", "alice", "")
	st.LeaderboardUpsert(ctx, "github", "bob", "")
	st.LeaderboardUpsert(ctx, "github", "bob", "")

	rows, total, ok := st.LeaderboardPage(ctx, "github", 10, 0)
	if !ok || total != 2 {
		t.Fatalf("ok=%v total=%d, want ok total=2", ok, total)
	}
	if rows[0].Username != "bob" {
		t.Errorf("rows[0] = %+v, want bob first (higher hit count)", rows[0])
	}
}

func TestLeaderboardPagination(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	for _, h := range []string{"a", "b", "c"} {
		st.LeaderboardUpsert(ctx, "github", h, "")
	}

	rows, total, ok := st.LeaderboardPage(ctx, "github", 1, 1)
	if !ok || total != 3 {
		t.Fatalf("ok=%v total=%d, want ok total=3", ok, total)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %+v, want exactly one row for limit=1", rows)
	}
}

func TestLeaderboardScopedByProvider(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	st.LeaderboardUpsert(ctx, "github", "octocat", "")
	st.LeaderboardUpsert(ctx, "gitlab", "octocat", "")

	_, total, ok := st.LeaderboardPage(ctx, "github", 10, 0)
	if !ok || total != 1 {
		t.Fatalf("github total = %d, want 1", total)
	}
}
