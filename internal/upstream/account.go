package upstream

import (
	"net/url"
	"strings"
)

// AccountKind distinguishes the two shapes an upstream account can take.
// Modeled as a tagged sum rather than two optional fields on one struct,
// per the polymorphic-response design note.
type AccountKind string

const (
	AccountUser         AccountKind = "user"
	AccountOrganization AccountKind = "organization"
)

// Account is the provider-agnostic projection of a user or organization.
type Account struct {
	Kind            AccountKind `json:"kind"`
	ProviderUserID  string      `json:"providerUserId"`
	Name            string      `json:"name,omitempty"` // empty means "absent"
	AvatarURL       string      `json:"avatarUrl,omitempty"`
	CreatedAt       string      `json:"createdAt,omitempty"` // provider ISO-8601, unparsed
	ProviderBaseURL string      `json:"providerBaseUrl"`
	IsVerified      bool        `json:"isVerified"`
	Statistics      Statistics  `json:"statistics"`
}

// Statistics is the account's statistics bag: users carry Followers/Following,
// organizations carry Members. A nil field means the provider didn't report
// that count for this account kind.
type Statistics struct {
	Followers *int `json:"followers,omitempty"`
	Following *int `json:"following,omitempty"`
	Members   *int `json:"members,omitempty"`
}

// Repository is the provider-agnostic projection of a single repository.
type Repository struct {
	Name     string `json:"name"`
	Language string `json:"language,omitempty"` // empty means null primaryLanguage
	IsFork   bool   `json:"isFork"`
}

const defaultProviderBaseURL = "https://github.com"

// deriveProviderBaseURL implements the §4.2.6 rule: an avatar URL hosted on
// a GHE instance looks like https://avatars.ghe.example.com/u/1 and maps
// back to https://ghe.example.com. The public github.com avatar host, and
// anything malformed or unrecognized, default to github.com.
func deriveProviderBaseURL(avatarURL string) string {
	if avatarURL == "" {
		return defaultProviderBaseURL
	}
	u, err := url.Parse(avatarURL)
	if err != nil || u.Hostname() == "" {
		return defaultProviderBaseURL
	}
	host := u.Hostname()
	if host == "avatars.githubusercontent.com" {
		return defaultProviderBaseURL
	}
	if !strings.HasPrefix(host, "avatars.") {
		return defaultProviderBaseURL
	}
	stripped := strings.TrimPrefix(host, "avatars.")
	if stripped == "" {
		return defaultProviderBaseURL
	}
	base := u.Scheme + "://" + stripped
	if port := u.Port(); port != "" {
		base += ":" + port
	}
	return base
}

// trimmedOrEmpty implements the §4.2.5 name rule: include only a non-empty,
// trimmed value.
func trimmedOrEmpty(s string) string {
	return strings.TrimSpace(s)
}
