package searchcore

import (
	"sort"
	"strings"
)

// Options carries future per-search knobs. Today's implementation never
// populates one, but Hash is deterministic so the cache key stays stable
// once options exist.
type Options map[string]string

// Hash joins sorted "k=v" pairs with "&". An empty map yields the literal
// "default" rather than an empty string, so the cache key is always
// non-degenerate.
func (o Options) Hash() string {
	if len(o) == 0 {
		return "default"
	}
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+o[k])
	}
	return strings.Join(parts, "&")
}
