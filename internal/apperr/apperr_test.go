package apperr

import "testing"

func TestHTTPStatusFor(t *testing.T) {
	cases := []struct {
		kind Kind
		want int
	}{
		{KindValidation, 400},
		{KindInvalidToken, 401},
		{KindUserNotFound, 404},
		{KindRateLimited, 403},
		{KindInsufficientScopes, 403},
		{KindNotImplemented, 501},
		{KindNetworkError, 503},
		{KindTimeout, 504},
		{KindProviderError, 500},
		{KindUnknown, 500},
		{Kind("something_new"), 500},
	}
	for _, tc := range cases {
		if got := HTTPStatusFor(tc.kind); got != tc.want {
			t.Errorf("HTTPStatusFor(%s) = %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	err := New(KindValidation, "bad input")
	if err.Error() != "bad input" {
		t.Errorf("Error() = %q, want %q", err.Error(), "bad input")
	}
}

func TestRateLimited(t *testing.T) {
	err := RateLimited("slow down", 42)
	if err.Kind != KindRateLimited {
		t.Errorf("Kind = %s, want %s", err.Kind, KindRateLimited)
	}
	if err.RetryAfter != 42 {
		t.Errorf("RetryAfter = %d, want 42", err.RetryAfter)
	}
}

func TestProvider(t *testing.T) {
	err := Provider("upstream exploded", 502, []string{"boom"})
	if err.Kind != KindProviderError {
		t.Errorf("Kind = %s, want %s", err.Kind, KindProviderError)
	}
	if err.HTTPStatus != 502 {
		t.Errorf("HTTPStatus = %d, want 502", err.HTTPStatus)
	}
	if len(err.GraphQLErrors) != 1 || err.GraphQLErrors[0] != "boom" {
		t.Errorf("GraphQLErrors = %v, want [boom]", err.GraphQLErrors)
	}
}
