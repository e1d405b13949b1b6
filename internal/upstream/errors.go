package upstream

import (
	"strings"
	"time"

	"github.com/codeGROOVE-dev/langstats/internal/apperr"
)

// queryOutcome carries everything the error mapper needs: the raw transport
// error (if any), the decoded envelope (if any), the HTTP status, and the
// rate-limit-reset hint. Keeping these as plain fields instead of panicking
// on a partial response is what makes the partial-data absorption rule in
// §4.2.2 possible to apply explicitly.
type queryOutcome struct {
	transportErr error
	envelope     *graphQLEnvelope
	httpStatus   int
	rateReset    time.Time
	hasReset     bool
}

// hasUsableData reports whether either side of the polymorphic response
// resolved, regardless of whether the call also reported an error.
func (o *queryOutcome) hasUsableData() bool {
	return o.envelope != nil && o.envelope.Data != nil &&
		(o.envelope.Data.User != nil || o.envelope.Data.Organization != nil)
}

// classify maps a query outcome to the taxonomy in spec.md §4.2, in the
// order of that table, except that a transport error with network wording
// is classified network_error before any other check. It does not apply the partial-data
// absorption rule — that is the caller's job, since absorption depends on
// which page in the pagination loop produced this outcome.
func classify(o *queryOutcome, now time.Time) *apperr.Error {
	successStatus := o.httpStatus == 0 || (o.httpStatus >= 200 && o.httpStatus < 300)
	if o.transportErr == nil && successStatus && len(o.envelope.errorsOrEmpty()) == 0 {
		return nil
	}

	if o.transportErr != nil && isNetworkMessage(o.transportErr.Error()) {
		return apperr.New(apperr.KindNetworkError, o.transportErr.Error())
	}

	var graphQLErrors []string
	if o.envelope != nil {
		for _, e := range o.envelope.Errors {
			graphQLErrors = append(graphQLErrors, e.Message)
		}
	}

	allNotFound := len(graphQLErrors) > 0
	anyRateLimited := false
	anyInsufficientScopes := false
	for _, e := range o.envelope.errorsOrEmpty() {
		if e.Type != "NOT_FOUND" {
			allNotFound = false
		}
		if e.Type == "RATE_LIMITED" || strings.Contains(strings.ToLower(e.Message), "rate limit") {
			anyRateLimited = true
		}
		if e.Type == "INSUFFICIENT_SCOPES" {
			anyInsufficientScopes = true
		}
	}

	// 1. structured NOT_FOUND-only errors, no usable partial data.
	if allNotFound && !o.hasUsableData() {
		return apperr.New(apperr.KindUserNotFound, "account not found")
	}

	// 2. rate limit, structured or by message.
	if anyRateLimited {
		return apperr.RateLimited("upstream rate limit exceeded", retryAfterSeconds(o, now))
	}

	// 3. insufficient scopes takes precedence over partial-data absorption;
	// the caller must check this before absorbing.
	if anyInsufficientScopes {
		return apperr.New(apperr.KindInsufficientScopes, "token lacks required scopes")
	}

	if o.transportErr != nil {
		msg := strings.ToLower(o.transportErr.Error())
		if strings.Contains(msg, "bad credentials") {
			return apperr.New(apperr.KindInvalidToken, o.transportErr.Error())
		}
	}

	switch o.httpStatus {
	case 401:
		return apperr.New(apperr.KindInvalidToken, "bad credentials")
	case 403:
		return apperr.RateLimited("upstream forbidden (treated as rate limit)", retryAfterSeconds(o, now))
	case 404:
		return apperr.New(apperr.KindUserNotFound, "account not found")
	}

	// A transport error reaches here only when it didn't match
	// isNetworkMessage above; per §4.2's strict ordering that makes it a
	// provider_error, not network_error (e.g. the synthetic "(transient)"
	// messages client.go emits after retries are exhausted).
	if o.transportErr != nil {
		return apperr.New(apperr.KindProviderError, o.transportErr.Error())
	}

	if len(graphQLErrors) > 0 {
		return apperr.Provider(graphQLErrors[0], o.httpStatus, graphQLErrors)
	}

	return apperr.New(apperr.KindProviderError, "unrecognized upstream failure")
}

// isNetworkMessage reports whether msg carries the network/timeout wording
// §4.2 requires for the network_error classification. Messages that don't
// match — JSON marshal/decode failures, exhausted-retry "(transient)"
// messages — fall through to provider_error instead.
func isNetworkMessage(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "network") || strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "econnrefused") || strings.Contains(msg, "context canceled") ||
		strings.Contains(msg, "context deadline exceeded")
}

func (e *graphQLEnvelope) errorsOrEmpty() []graphQLError {
	if e == nil {
		return nil
	}
	return e.Errors
}

// retryAfterSeconds implements "retryAfter = max(0, resetEpoch - now) when a
// rate-limit-reset hint is present, else 60".
func retryAfterSeconds(o *queryOutcome, now time.Time) int {
	if !o.hasReset {
		return 60
	}
	delta := int(o.rateReset.Sub(now).Seconds())
	if delta < 0 {
		return 0
	}
	return delta
}
