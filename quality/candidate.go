package quality

import (
	"slices"

	"github.com/samber/lo"
)

// Candidate is one mirror scraped from a download page.
type Candidate struct {
	Tier Tier
	// Link is the mirror's href; clicking it is what produces the final media link.
	Link string
}

// Link is a materialized media link together with the page that referred it.
type Link struct {
	URL      string `json:"url"`
	Referrer string `json:"referrer,omitempty"`
}

// Ok reports whether a media URL was obtained.
func (l Link) Ok() bool {
	return l.URL != ""
}

// Sort deduplicates candidates by tier, keeping the first occurrence, and orders them by
// descending rank. The input is not modified.
func Sort(candidates []Candidate) []Candidate {
	sorted := lo.UniqBy(candidates, func(c Candidate) Tier { return c.Tier })
	slices.SortStableFunc(sorted, func(a, b Candidate) int {
		return b.Tier.Rank() - a.Tier.Rank()
	})
	return sorted
}

// Prefer keeps the candidates whose tier appears in preferred, preserving their order.
func Prefer(sorted []Candidate, preferred []Tier) []Candidate {
	return lo.Filter(sorted, func(c Candidate, _ int) bool {
		return lo.Contains(preferred, c.Tier)
	})
}

// Tiers lists the tiers of candidates in order.
func Tiers(candidates []Candidate) []Tier {
	return lo.Map(candidates, func(c Candidate, _ int) Tier { return c.Tier })
}
