// Package config holds the pure validation and derivation logic for the
// service's configuration surface (spec.md §6), kept separate from the
// flag/env-loading side effects in main so it can be unit tested directly —
// the same separation the teacher keeps between its flag-driven main and
// standalone pure helpers like sanitizeUsername.
package config

import (
	"strings"
	"time"
)

const (
	defaultCacheTTLHours    = 12
	maxCacheTTLHours        = 24
	defaultConcurrencyLimit = 20
)

// Config is the validated, in-process view of the configuration surface.
type Config struct {
	Port             string
	UpstreamToken    string
	UpstreamBaseURL  string
	DBPath           string
	AllowedOrigins   []string
	EnableCache      bool
	CacheTTL         time.Duration
	ConcurrencyLimit int64
	LogLevel         string

	// Warnings accumulates human-readable notices produced while
	// normalizing out-of-range input (e.g. an over-max TTL), so main can
	// log them once the logger is constructed.
	Warnings []string
}

// Raw is the unvalidated shape main assembles from flags and environment
// variables before calling Normalize.
type Raw struct {
	Port             string
	UpstreamToken    string
	UpstreamBaseURL  string
	DBPath           string
	AllowedOriginsCSV string
	EnableCache      bool
	CacheTTLHours    int
	ConcurrencyLimit int
	LogLevel         string
}

// Normalize applies the defaulting and capping rules spec.md §6 enumerates
// for the configuration surface.
func Normalize(r Raw) Config {
	c := Config{
		Port:            r.Port,
		UpstreamToken:   r.UpstreamToken,
		UpstreamBaseURL: strings.TrimRight(r.UpstreamBaseURL, "/"),
		DBPath:          r.DBPath,
		AllowedOrigins:  splitCSV(r.AllowedOriginsCSV),
		EnableCache:     r.EnableCache,
		LogLevel:        r.LogLevel,
	}

	ttlHours := r.CacheTTLHours
	if ttlHours <= 0 {
		ttlHours = defaultCacheTTLHours
	} else if ttlHours > maxCacheTTLHours {
		c.Warnings = append(c.Warnings, "cacheTtlHours exceeds the 24h maximum; capping to 24h")
		ttlHours = maxCacheTTLHours
	}
	c.CacheTTL = time.Duration(ttlHours) * time.Hour

	limit := r.ConcurrencyLimit
	if limit <= 0 {
		limit = defaultConcurrencyLimit
	}
	c.ConcurrencyLimit = int64(limit)

	return c
}

func splitCSV(csv string) []string {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
