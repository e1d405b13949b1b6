package searchcore

import (
	"encoding/json"
	"time"

	"github.com/codeGROOVE-dev/langstats/internal/aggregate"
	"github.com/codeGROOVE-dev/langstats/internal/upstream"
)

// Result is what Search returns on success. Every successful Search sets
// CachedAt/CachedUntil, since only successful fetches are cached and every
// response is served either from the cache or from a fetch that was just
// written to it.
type Result struct {
	Account     upstream.Account
	Buckets     []aggregate.Bucket
	GeneratedAt time.Time
	CachedAt    time.Time
	CachedUntil time.Time
}

// payload is the shape actually persisted in the cache table. It excludes
// all cache-timing metadata per §3 invariant 6 — timing is re-attached on
// every read from the store row, never from the blob.
type payload struct {
	Account upstream.Account   `json:"account"`
	Buckets []aggregate.Bucket `json:"buckets"`
}

func encodePayload(account *upstream.Account, buckets []aggregate.Bucket) (string, error) {
	blob, err := json.Marshal(payload{Account: *account, Buckets: buckets})
	if err != nil {
		return "", err
	}
	return string(blob), nil
}

func decodePayload(blob string) (*payload, error) {
	var p payload
	if err := json.Unmarshal([]byte(blob), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func buildResult(p *payload, generatedAt, cachedAt, cachedUntil int64) *Result {
	return &Result{
		Account:     p.Account,
		Buckets:     p.Buckets,
		GeneratedAt: time.Unix(generatedAt, 0).UTC(),
		CachedAt:    time.Unix(cachedAt, 0).UTC(),
		CachedUntil: time.Unix(cachedUntil, 0).UTC(),
	}
}
