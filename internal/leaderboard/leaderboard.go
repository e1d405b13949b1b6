// Package leaderboard exposes the two operations callers need on top of the
// store's search-count table.
package leaderboard

import (
	"context"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/langstats/internal/store"
)

// Leaderboard wraps store.Store's topsearch table.
type Leaderboard struct {
	store *store.Store
}

// New builds a Leaderboard over st.
func New(st *store.Store) *Leaderboard {
	return &Leaderboard{store: st}
}

// Record upserts a hit for handle under provider. It never returns an error
// and never blocks the response on a store failure: failures are logged by
// the store layer and swallowed here too.
func (l *Leaderboard) Record(ctx context.Context, provider, handle, avatarURL string) {
	handle = strings.ToLower(strings.TrimSpace(handle))
	l.store.LeaderboardUpsert(ctx, provider, handle, avatarURL)
}

// Row is one entry of a leaderboard page, with epoch timestamps already
// converted to ISO-8601 UTC at this boundary.
type Row struct {
	Handle    string    `json:"username"`
	Hit       int64     `json:"hit"`
	AvatarURL string    `json:"avatarUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Top returns a page of the leaderboard ordered hit DESC, updatedAt DESC,
// handle ASC, plus the total matching row count. A store read failure
// surfaces as an empty, zero-total page — the leaderboard must never fail
// the request it backs.
func (l *Leaderboard) Top(ctx context.Context, provider string, limit, offset int) ([]Row, int) {
	rows, total, ok := l.store.LeaderboardPage(ctx, provider, limit, offset)
	if !ok {
		return []Row{}, 0
	}

	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		row := Row{
			Handle:    r.Username,
			Hit:       r.Hit,
			CreatedAt: time.Unix(r.CreatedAt, 0).UTC(),
			UpdatedAt: time.Unix(r.UpdatedAt, 0).UTC(),
		}
		if r.AvatarURL != nil {
			row.AvatarURL = *r.AvatarURL
		}
		out = append(out, row)
	}
	return out, total
}
