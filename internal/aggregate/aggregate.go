// Package aggregate turns a repository list into an ordered series of
// per-language counts. It is a pure function package: no I/O, no clocks.
package aggregate

import "sort"

// Bucket is one entry in the language series.
type Bucket struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

const (
	forksKey   = "__forks__"
	forksColor = "#ededed"
	unknownKey = "Unknown"
	fallback   = "#cccccc"
)

// Repository is the minimal shape Aggregate needs; callers holding
// internal/upstream.Repository values copy Language and IsFork into it.
type Repository struct {
	Language string
	IsFork   bool
}

// Aggregate builds the language-count series for a repository list: forked
// repositories count toward a single reserved "forks" bucket and are
// excluded from language accounting; everything else is bucketed by
// primaryLanguage, with a null/empty language folded into "Unknown".
// Buckets are sorted by value descending; ties may land in any order.
func Aggregate(repos []Repository) []Bucket {
	counts := make(map[string]int)
	order := make([]string, 0, len(repos))
	forks := 0

	for _, r := range repos {
		if r.IsFork {
			forks++
			continue
		}
		lang := r.Language
		if lang == "" {
			lang = unknownKey
		}
		if _, seen := counts[lang]; !seen {
			order = append(order, lang)
		}
		counts[lang]++
	}

	buckets := make([]Bucket, 0, len(order)+1)
	for _, lang := range order {
		buckets = append(buckets, Bucket{
			Key:   lang,
			Label: lang,
			Value: counts[lang],
			Color: colorFor(lang),
		})
	}

	if forks > 0 {
		buckets = append(buckets, Bucket{
			Key:   forksKey,
			Label: "Forked repos",
			Value: forks,
			Color: forksColor,
		})
	}

	sort.SliceStable(buckets, func(i, j int) bool {
		return buckets[i].Value > buckets[j].Value
	})

	return buckets
}

func colorFor(language string) string {
	if c, ok := languageColors[language]; ok {
		return c
	}
	return fallback
}
