// Package harvest maps the episodes of a series onto pool-bounded batches, resolves a link for
// each one under a fixed retry budget and aggregates the outcome into a Report.
package harvest

import (
	"context"
	"slices"

	"github.com/anigrab/anigrab/quality"
	"github.com/anigrab/anigrab/session"
	"github.com/samber/lo"
)

// Episode is the 1-based number of an episode within its series.
type Episode int

// Series is the episode index of one series.
type Series struct {
	Name     string
	URL      string
	Episodes []Episode
}

// Index lists the episodes of a series and locates each episode's download page.
type Index interface {
	ListEpisodes(ctx context.Context, seriesURL string) (*Series, error)
	DownloadPage(ctx context.Context, tab session.Tab, series *Series, ep Episode) (string, error)
}

// Target selects the episodes a harvest works on.
type Target struct {
	all      bool
	episodes []Episode
}

// All targets every episode listed by the series index.
func All() Target {
	return Target{all: true}
}

// Only targets exactly the given episodes, as on the resume path.
func Only(eps ...Episode) Target {
	return Target{episodes: eps}
}

// IsAll reports whether the target is the whole series.
func (t Target) IsAll() bool {
	return t.all
}

// Episodes returns the targeted episodes of series in ascending order without duplicates.
func (t Target) Episodes(series *Series) []Episode {
	eps := t.episodes
	if t.all {
		eps = series.Episodes
	}

	eps = lo.Uniq(lo.Filter(eps, func(ep Episode, _ int) bool { return ep >= 1 }))
	slices.Sort(eps)
	return eps
}

// LinkResult is the outcome for one episode. URL and Quality are empty on failure.
type LinkResult struct {
	Episode   Episode        `json:"ep"`
	URL       string         `json:"url,omitempty"`
	Referrer  string         `json:"referrer,omitempty"`
	Quality   quality.Tier   `json:"quality,omitempty"`
	Qualities []quality.Tier `json:"qualities"`
}

// Ok reports whether a link was harvested.
func (r LinkResult) Ok() bool {
	return r.URL != ""
}

// Report is the result of one harvest run.
type Report struct {
	Series  string
	Results []LinkResult
}

// Failed lists the episodes without link, in result order.
func (r *Report) Failed() []Episode {
	return lo.FilterMap(r.Results, func(res LinkResult, _ int) (Episode, bool) {
		return res.Episode, !res.Ok()
	})
}

// Succeeded counts the results with a link.
func (r *Report) Succeeded() int {
	return lo.CountBy(r.Results, func(res LinkResult) bool { return res.Ok() })
}

// Complete reports whether every targeted episode got a link.
func (r *Report) Complete() bool {
	return len(r.Failed()) == 0
}
