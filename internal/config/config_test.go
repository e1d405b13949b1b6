package config

import "testing"

func TestNormalizeDefaults(t *testing.T) {
	c := Normalize(Raw{})
	if c.CacheTTL.Hours() != defaultCacheTTLHours {
		t.Errorf("CacheTTL = %v, want %dh", c.CacheTTL, defaultCacheTTLHours)
	}
	if c.ConcurrencyLimit != defaultConcurrencyLimit {
		t.Errorf("ConcurrencyLimit = %d, want %d", c.ConcurrencyLimit, defaultConcurrencyLimit)
	}
	if len(c.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", c.Warnings)
	}
}

func TestNormalizeCapsExcessiveTTL(t *testing.T) {
	c := Normalize(Raw{CacheTTLHours: 72})
	if c.CacheTTL.Hours() != maxCacheTTLHours {
		t.Errorf("CacheTTL = %v, want %dh", c.CacheTTL, maxCacheTTLHours)
	}
	if len(c.Warnings) != 1 {
		t.Fatalf("Warnings = %v, want exactly one", c.Warnings)
	}
}

func TestNormalizeTrimsBaseURLTrailingSlash(t *testing.T) {
	c := Normalize(Raw{UpstreamBaseURL: "https://ghe.example.com/"})
	if c.UpstreamBaseURL != "https://ghe.example.com" {
		t.Errorf("UpstreamBaseURL = %q, want trimmed", c.UpstreamBaseURL)
	}
}

func TestNormalizeSplitsOrigins(t *testing.T) {
	c := Normalize(Raw{AllowedOriginsCSV: " https://a.example.com ,https://b.example.com,"})
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(c.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v, want %v", c.AllowedOrigins, want)
	}
	for i := range want {
		if c.AllowedOrigins[i] != want[i] {
			t.Errorf("AllowedOrigins[%d] = %q, want %q", i, c.AllowedOrigins[i], want[i])
		}
	}
}

func TestNormalizeEmptyOriginsCSV(t *testing.T) {
	c := Normalize(Raw{AllowedOriginsCSV: "  "})
	if c.AllowedOrigins != nil {
		t.Errorf("AllowedOrigins = %v, want nil", c.AllowedOrigins)
	}
}

func TestNormalizeNegativeConcurrencyFallsBackToDefault(t *testing.T) {
	c := Normalize(Raw{ConcurrencyLimit: -5})
	if c.ConcurrencyLimit != defaultConcurrencyLimit {
		t.Errorf("ConcurrencyLimit = %d, want %d", c.ConcurrencyLimit, defaultConcurrencyLimit)
	}
}
