package upstream

import "testing"

func TestDeriveProviderBaseURL(t *testing.T) {
	cases := []struct {
		name      string
		avatarURL string
		want      string
	}{
		{"empty", "", "https://github.com"},
		{"public github avatar host", "https://avatars.githubusercontent.com/u/1", "https://github.com"},
		{"enterprise avatar host", "https://avatars.ghe.example.com/u/1", "https://ghe.example.com"},
		{"enterprise avatar host with port", "https://avatars.ghe.example.com:8443/u/1", "https://ghe.example.com:8443"},
		{"unrecognized host", "https://cdn.example.com/u/1", "https://github.com"},
		{"malformed url", "://not a url", "https://github.com"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := deriveProviderBaseURL(tc.avatarURL); got != tc.want {
				t.Errorf("deriveProviderBaseURL(%q) = %q, want %q", tc.avatarURL, got, tc.want)
			}
		})
	}
}

func TestTrimmedOrEmpty(t *testing.T) {
	if got := trimmedOrEmpty("  spaced  "); got != "spaced" {
		t.Errorf("trimmedOrEmpty = %q, want %q", got, "spaced")
	}
}
