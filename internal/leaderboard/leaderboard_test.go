package leaderboard

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/codeGROOVE-dev/langstats/internal/store"
)

func newTestLeaderboard(t *testing.T) *Leaderboard {
	t.Helper()
	st, err := store.Open(":memory:", slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return New(st)
}

func TestRecordAndTop(t *testing.T) {
	lb := newTestLeaderboard(t)
	ctx := context.Background()

	lb.Record(ctx, "github", "Octocat", "https://avatars.githubusercontent.com/u/1")
	lb.Record(ctx, "github", "octocat", "")
	lb.Record(ctx, "github", "other-user", "")

	rows, total := lb.Top(ctx, "github", 10, 0)
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if rows[0].Handle != "octocat" || rows[0].Hit != 2 {
		t.Fatalf("rows[0] = %+v, want octocat/2 (handle normalization must fold case)", rows[0])
	}
	if rows[0].AvatarURL != "https://avatars.githubusercontent.com/u/1" {
		t.Errorf("AvatarURL = %q, should survive subsequent empty-string hits", rows[0].AvatarURL)
	}
}

func TestTopEmptyLeaderboard(t *testing.T) {
	lb := newTestLeaderboard(t)
	rows, total := lb.Top(context.Background(), "github", 10, 0)
	if total != 0 || len(rows) != 0 {
		t.Fatalf("rows=%v total=%d, want empty", rows, total)
	}
}
