// Package upstream talks to one GitHub-compatible GraphQL endpoint and
// normalizes its polymorphic user/organization response, and its failure
// modes, into a provider-agnostic Account + Repository list.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/codeGROOVE-dev/retry"

	"github.com/codeGROOVE-dev/langstats/internal/apperr"
)

// Client is a GitHub-compatible GraphQL client. One instance is built per
// provider configuration (public GitHub, or a GHE base URL) and shared
// across requests.
type Client struct {
	httpClient      *http.Client
	logger          *slog.Logger
	token           string
	graphqlURL      string
	name            string
	providerBaseURL string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default client, primarily for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// NewClient builds a Client for the given provider name ("github") and
// optional GHE base URL. An empty baseURL targets public GitHub.
func NewClient(name, token, baseURL string, logger *slog.Logger, opts ...Option) *Client {
	graphqlURL := "https://api.github.com/graphql"
	providerBaseURL := defaultProviderBaseURL
	if baseURL != "" {
		trimmed := strings.TrimRight(baseURL, "/")
		graphqlURL = trimmed + "/api/graphql"
		providerBaseURL = trimmed
	}
	c := &Client{
		httpClient:      &http.Client{Timeout: 30 * time.Second},
		logger:          logger,
		token:           token,
		graphqlURL:      graphqlURL,
		name:            name,
		providerBaseURL: providerBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name is the provider name this client was configured for, e.g. "github".
// The cache key (§4.4) pulls the provider from here, never from the
// incoming request.
func (c *Client) Name() string { return c.name }

// ProviderBaseURL is this client's configured base URL (public GitHub or a
// GHE instance), trimmed of any trailing slash. The cache key pulls it from
// here for the same reason it pulls Name from here: it must never be
// inferred from the request, only from configuration.
func (c *Client) ProviderBaseURL() string { return c.providerBaseURL }

// FetchAccount resolves handle to an Account and its full repository list,
// paginating the upstream repositories connection to exhaustion.
func (c *Client) FetchAccount(ctx context.Context, handle string) (*Account, []Repository, error) {
	outcome := c.runQuery(ctx, queryResolve, map[string]any{"login": handle})
	now := time.Now()

	resolveErr := classify(outcome, now)
	if resolveErr != nil && resolveErr.Kind == apperr.KindInsufficientScopes {
		return nil, nil, resolveErr
	}
	if resolveErr != nil && !outcome.hasUsableData() {
		return nil, nil, resolveErr
	}
	// Partial-data absorption: an error was reported, but one side of the
	// polymorphic response is populated. Continue with it.

	data := outcome.envelope.Data
	account, repos, kind, err := c.resolveAccount(data)
	if err != nil {
		return nil, nil, err
	}

	cursor := ""
	hasNext := false
	if kind == AccountUser {
		cursor = data.User.Repositories.PageInfo.EndCursor
		hasNext = data.User.Repositories.PageInfo.HasNextPage
	} else {
		cursor = data.Organization.Repositories.PageInfo.EndCursor
		hasNext = data.Organization.Repositories.PageInfo.HasNextPage
	}

	for hasNext {
		query := queryUserRepoPage
		if kind == AccountOrganization {
			query = queryOrgRepoPage
		}
		pageOutcome := c.runQuery(ctx, query, map[string]any{"login": handle, "cursor": cursor})
		if pageErr := classify(pageOutcome, time.Now()); pageErr != nil {
			return nil, nil, pageErr
		}

		var conn repoConnection
		if kind == AccountUser {
			conn = pageOutcome.envelope.Data.User.Repositories
		} else {
			conn = pageOutcome.envelope.Data.Organization.Repositories
		}
		for _, n := range conn.Nodes {
			repos = append(repos, toRepository(n))
		}
		cursor = conn.PageInfo.EndCursor
		hasNext = conn.PageInfo.HasNextPage
	}

	account.ProviderBaseURL = deriveProviderBaseURL(account.AvatarURL)
	return account, repos, nil
}

func (c *Client) resolveAccount(data *queryData) (*Account, []Repository, AccountKind, error) {
	switch {
	case data.User != nil:
		acct := &Account{
			Kind:           AccountUser,
			ProviderUserID: data.User.ID,
			Name:           trimmedOrEmpty(data.User.Name),
			AvatarURL:      data.User.AvatarURL,
			CreatedAt:      data.User.CreatedAt,
			IsVerified:     strings.TrimSpace(data.User.Email) != "",
		}
		if data.User.Followers != nil {
			v := data.User.Followers.TotalCount
			acct.Statistics.Followers = &v
		}
		if data.User.Following != nil {
			v := data.User.Following.TotalCount
			acct.Statistics.Following = &v
		}
		var repos []Repository
		for _, n := range data.User.Repositories.Nodes {
			repos = append(repos, toRepository(n))
		}
		return acct, repos, AccountUser, nil
	case data.Organization != nil:
		acct := &Account{
			Kind:           AccountOrganization,
			ProviderUserID: data.Organization.ID,
			Name:           trimmedOrEmpty(data.Organization.Name),
			AvatarURL:      data.Organization.AvatarURL,
			CreatedAt:      data.Organization.CreatedAt,
			IsVerified:     data.Organization.IsVerified != nil && *data.Organization.IsVerified,
		}
		if data.Organization.MembersWithRole != nil {
			v := data.Organization.MembersWithRole.TotalCount
			acct.Statistics.Members = &v
		}
		var repos []Repository
		for _, n := range data.Organization.Repositories.Nodes {
			repos = append(repos, toRepository(n))
		}
		return acct, repos, AccountOrganization, nil
	default:
		return nil, nil, "", apperr.New(apperr.KindUserNotFound, "account not found")
	}
}

func toRepository(n repoNode) Repository {
	lang := ""
	if n.PrimaryLanguage != nil {
		lang = n.PrimaryLanguage.Name
	}
	return Repository{Name: n.Name, Language: lang, IsFork: n.IsFork}
}

// runQuery executes a query with retry on transient failures, and always
// returns a queryOutcome rather than an error so the caller can apply the
// partial-data absorption rule.
func (c *Client) runQuery(ctx context.Context, query string, variables map[string]any) *queryOutcome {
	var outcome *queryOutcome

	_ = retry.Do(
		func() error {
			outcome = c.runQueryOnce(ctx, query, variables)
			if outcome.transportErr == nil {
				return nil
			}
			msg := outcome.transportErr.Error()
			if strings.Contains(msg, "secondary rate limit") {
				return retry.Unrecoverable(outcome.transportErr)
			}
			if !strings.Contains(msg, "transient") &&
				!strings.Contains(msg, "HTTP 502") && !strings.Contains(msg, "HTTP 503") && !strings.Contains(msg, "HTTP 504") {
				return retry.Unrecoverable(outcome.transportErr)
			}
			return outcome.transportErr
		},
		retry.Context(ctx),
		retry.Attempts(5),
		retry.Delay(100*time.Millisecond),
		retry.MaxDelay(2*time.Second),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.MaxJitter(150*time.Millisecond),
		retry.LastErrorOnly(true),
	)

	return outcome
}

func (c *Client) runQueryOnce(ctx context.Context, query string, variables map[string]any) *queryOutcome {
	payload := map[string]any{"query": query, "variables": variables}
	body, err := json.Marshal(payload)
	if err != nil {
		return &queryOutcome{transportErr: fmt.Errorf("marshaling query: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(body))
	if err != nil {
		return &queryOutcome{transportErr: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &queryOutcome{transportErr: fmt.Errorf("network error: %w", ctx.Err())}
		}
		return &queryOutcome{transportErr: fmt.Errorf("network error: executing request: %w", err)}
	}
	defer resp.Body.Close()

	outcome := &queryOutcome{httpStatus: resp.StatusCode}
	if reset := resp.Header.Get("X-Ratelimit-Reset"); reset != "" {
		if epoch, parseErr := strconv.ParseInt(reset, 10, 64); parseErr == nil {
			outcome.rateReset = time.Unix(epoch, 0)
			outcome.hasReset = true
		}
	}

	switch resp.StatusCode {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		outcome.transportErr = fmt.Errorf("HTTP %d: server error (transient)", resp.StatusCode)
		return outcome
	}

	var envelope graphQLEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		outcome.transportErr = fmt.Errorf("decoding response: %w", err)
		return outcome
	}
	outcome.envelope = &envelope

	for _, e := range envelope.Errors {
		lower := strings.ToLower(e.Message)
		if strings.Contains(lower, "something went wrong") || strings.Contains(lower, "internal server error") {
			outcome.transportErr = fmt.Errorf("GraphQL server error (transient): %s", e.Message)
			return outcome
		}
	}

	return outcome
}
