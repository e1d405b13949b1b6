// Package httpapi is the narrow HTTP façade in front of the search core: it
// parses and validates requests, maps the core's error taxonomy to HTTP
// status codes, and renders the two response envelopes spec.md §6 defines.
// Framing concerns it does not own (security headers, panic recovery,
// per-client rate limiting) still live here as ambient middleware, adapted
// from the teacher's own cmd/gutz-server middleware chain, but are
// explicitly not part of the core under test. CORS is wired in main.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/codeGROOVE-dev/langstats/internal/apperr"
	"github.com/codeGROOVE-dev/langstats/internal/leaderboard"
	"github.com/codeGROOVE-dev/langstats/internal/searchcore"
	"github.com/codeGROOVE-dev/langstats/internal/upstream"
)

// Server wires the search core and leaderboard behind the two endpoints.
type Server struct {
	core        *searchcore.Core
	leaderboard *leaderboard.Leaderboard
	logger      *slog.Logger
	provider    string // the one implemented provider, e.g. "github"
}

// New builds a Server. provider is the name of the single implemented
// upstream provider (spec.md only implements "github"; others 501).
func New(core *searchcore.Core, lb *leaderboard.Leaderboard, provider string, logger *slog.Logger) *Server {
	return &Server{core: core, leaderboard: lb, provider: provider, logger: logger}
}

var handleRegexp = regexp.MustCompile(`^[a-zA-Z0-9-]{1,39}$`)

type searchResponse struct {
	Metadata metadata     `json:"metadata"`
	Error    *wireError   `json:"error,omitempty"`
	Profile  *wireProfile `json:"profile,omitempty"`
	Data     []any        `json:"data,omitempty"`
	Provider string       `json:"provider"`
	OK       bool         `json:"ok"`
}

type metadata struct {
	GeneratedAt string `json:"generatedAt"`
	Unit        string `json:"unit,omitempty"`
	CachedAt    string `json:"cachedAt,omitempty"`
	CachedUntil string `json:"cachedUntil,omitempty"`
}

type wireError struct {
	Details           any    `json:"details,omitempty"`
	RetryAfterSeconds *int   `json:"retryAfterSeconds,omitempty"`
	Code              string `json:"code"`
	Message           string `json:"message"`
}

type wireProfile struct {
	ProviderUserID  string          `json:"providerUserId"`
	Name            string          `json:"name,omitempty"`
	AvatarURL       string          `json:"avatarUrl,omitempty"`
	CreatedAt       string          `json:"createdAt,omitempty"`
	ProviderBaseURL string          `json:"providerBaseUrl"`
	Kind            string          `json:"kind"`
	IsVerified      bool            `json:"isVerified"`
	Statistics      wireStatistics  `json:"statistics"`
}

type wireStatistics struct {
	Followers *int `json:"followers,omitempty"`
	Following *int `json:"following,omitempty"`
	Members   *int `json:"members,omitempty"`
}

// HandleSearch serves GET /api/v1/search?provider=&username=.
func (s *Server) HandleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	provider := q.Get("provider")
	if provider == "" {
		provider = "github"
	}
	handle := q.Get("username")

	if provider != s.provider {
		s.writeError(w, provider, apperr.New(apperr.KindNotImplemented, "provider "+provider+" is not implemented"))
		return
	}
	if !handleRegexp.MatchString(handle) {
		s.writeError(w, provider, apperr.New(apperr.KindValidation, "username must be 1-39 ASCII letters, digits, or hyphens"))
		return
	}

	result, appErr := s.core.Search(r.Context(), handle, nil)
	if appErr != nil {
		s.writeError(w, provider, appErr)
		return
	}

	data := make([]any, 0, len(result.Buckets))
	for _, b := range result.Buckets {
		data = append(data, b)
	}

	resp := searchResponse{
		OK:       true,
		Provider: provider,
		Profile:  toWireProfile(result.Account),
		Data:     data,
		Metadata: metadata{
			GeneratedAt: result.GeneratedAt.Format(time.RFC3339),
			Unit:        "repos",
			CachedAt:    result.CachedAt.Format(time.RFC3339),
			CachedUntil: result.CachedUntil.Format(time.RFC3339),
		},
	}
	writeJSON(w, http.StatusOK, resp)
}

func toWireProfile(a upstream.Account) *wireProfile {
	return &wireProfile{
		ProviderUserID:  a.ProviderUserID,
		Name:            a.Name,
		AvatarURL:       a.AvatarURL,
		CreatedAt:       a.CreatedAt,
		ProviderBaseURL: a.ProviderBaseURL,
		Kind:            string(a.Kind),
		IsVerified:      a.IsVerified,
		Statistics: wireStatistics{
			Followers: a.Statistics.Followers,
			Following: a.Statistics.Following,
			Members:   a.Statistics.Members,
		},
	}
}

type topSearchResponse struct {
	Data       []leaderboard.Row `json:"data"`
	Pagination pagination        `json:"pagination"`
	OK         bool              `json:"ok"`
}

type pagination struct {
	Total  int `json:"total"`
	Count  int `json:"count"`
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// HandleTopSearch serves GET /api/v1/topsearch?provider=&limit=&offset=.
func (s *Server) HandleTopSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	provider := q.Get("provider")
	if provider == "" {
		provider = "github"
	}
	if provider != s.provider {
		s.writeError(w, provider, apperr.New(apperr.KindNotImplemented, "provider "+provider+" is not implemented"))
		return
	}

	limit := 10
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			s.writeError(w, provider, apperr.New(apperr.KindValidation, "limit must be between 1 and 100"))
			return
		}
		limit = n
	}
	offset := 0
	if v := q.Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			s.writeError(w, provider, apperr.New(apperr.KindValidation, "offset must be >= 0"))
			return
		}
		offset = n
	}

	rows, total := s.leaderboard.Top(r.Context(), provider, limit, offset)
	writeJSON(w, http.StatusOK, topSearchResponse{
		OK:   true,
		Data: rows,
		Pagination: pagination{
			Total:  total,
			Count:  len(rows),
			Offset: offset,
			Limit:  limit,
		},
	})
}

// HandleHealthz is plain liveness plumbing, not part of /api/v1 and not
// part of the core — the same shape as the teacher's unauthenticated
// maintenance endpoint.
func (s *Server) HandleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) writeError(w http.ResponseWriter, provider string, appErr *apperr.Error) {
	status := apperr.HTTPStatusFor(appErr.Kind)
	if status >= http.StatusInternalServerError {
		s.logger.Error("search failed", "provider", provider, "kind", appErr.Kind, "message", appErr.Message)
	} else {
		s.logger.Debug("search failed", "provider", provider, "kind", appErr.Kind)
	}

	var retryAfter *int
	if appErr.Kind == apperr.KindRateLimited {
		v := appErr.RetryAfter
		retryAfter = &v
	}

	var details any
	if len(appErr.GraphQLErrors) > 0 {
		details = map[string]any{"upstreamErrors": appErr.GraphQLErrors}
	}

	resp := searchResponse{
		OK:       false,
		Provider: provider,
		Metadata: metadata{GeneratedAt: time.Now().UTC().Format(time.RFC3339)},
		Error: &wireError{
			Code:              string(appErr.Kind),
			Message:           appErr.Message,
			Details:           details,
			RetryAfterSeconds: retryAfter,
		},
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
