// Package checkpoint persists the last known harvest result of a series so a later run
// resumes only the episodes that failed.
package checkpoint

import (
	"errors"
	"fmt"
	"slices"

	"github.com/anigrab/anigrab/harvest"
	"github.com/anigrab/anigrab/quality"
	"github.com/samber/lo"
	"github.com/samber/mo"
)

var (
	// ErrDuplicateEpisode is returned when a checkpoint holds two links for one episode.
	ErrDuplicateEpisode = errors.New("duplicate episode")
	// ErrCorrupt is returned when a stored checkpoint cannot be decoded.
	ErrCorrupt = errors.New("corrupt checkpoint")
)

// FailedEp marks an episode without link.
type FailedEp struct {
	Ep harvest.Episode `json:"ep"`
}

// Checkpoint is the stored harvest result of one series.
type Checkpoint struct {
	Name      string               `json:"name" jsonschema:"description=Series name as shown on the site"`
	FailedEps []FailedEp           `json:"failedEps" jsonschema:"description=Episodes that have no link yet"`
	Links     []harvest.LinkResult `json:"links" jsonschema:"description=One entry per harvested episode in ascending order"`
}

// FromReport builds the checkpoint of a single harvest run.
func FromReport(r *harvest.Report) *Checkpoint {
	return build(r.Series, r.Results)
}

func build(name string, links []harvest.LinkResult) *Checkpoint {
	links = slices.Clone(links)
	slices.SortStableFunc(links, func(a, b harvest.LinkResult) int {
		return int(a.Episode) - int(b.Episode)
	})

	for i := range links {
		if links[i].Qualities == nil {
			links[i].Qualities = []quality.Tier{}
		}
	}

	failed := lo.FilterMap(links, func(l harvest.LinkResult, _ int) (FailedEp, bool) {
		return FailedEp{Ep: l.Episode}, !l.Ok()
	})

	return &Checkpoint{Name: name, FailedEps: failed, Links: links}
}

// Failed returns the episodes still lacking a link, in ascending order.
// An episode counts as failed when it is listed in FailedEps or its link entry has no URL.
func (c *Checkpoint) Failed() []harvest.Episode {
	eps := lo.Map(c.FailedEps, func(f FailedEp, _ int) harvest.Episode { return f.Ep })
	for _, l := range c.Links {
		if !l.Ok() {
			eps = append(eps, l.Episode)
		}
	}

	eps = lo.Uniq(eps)
	slices.Sort(eps)
	return eps
}

// Complete reports whether every episode of the checkpoint has a link.
func (c *Checkpoint) Complete() bool {
	return len(c.Failed()) == 0
}

// Validate checks that no episode appears twice among the links.
func (c *Checkpoint) Validate() error {
	seen := make(map[harvest.Episode]struct{}, len(c.Links))
	for _, l := range c.Links {
		if _, ok := seen[l.Episode]; ok {
			return fmt.Errorf("%w: episode %d in %q", ErrDuplicateEpisode, l.Episode, c.Name)
		}
		seen[l.Episode] = struct{}{}
	}
	return nil
}

// Plan decides what a run has to harvest given the prior checkpoint.
// Without checkpoint the whole series is harvested; otherwise only its failed episodes.
// ok is false when the prior checkpoint has nothing left to harvest.
func Plan(prior mo.Option[*Checkpoint]) (target harvest.Target, ok bool) {
	cp, exists := prior.Get()
	if !exists || cp == nil {
		return harvest.All(), true
	}

	failed := cp.Failed()
	if len(failed) == 0 {
		return harvest.Only(), false
	}
	return harvest.Only(failed...), true
}

// Merge folds the report of a resume run into the prior checkpoint.
//
// Every episode in the report replaces the prior entry of the same episode as a whole,
// success or repeated failure alike. Prior entries of episodes the report does not cover
// are kept untouched. The result is sorted by episode and validated.
func Merge(prior mo.Option[*Checkpoint], report *harvest.Report) (*Checkpoint, error) {
	cp, exists := prior.Get()
	if !exists || cp == nil {
		merged := FromReport(report)
		if err := merged.Validate(); err != nil {
			return nil, err
		}
		return merged, nil
	}

	fresh := lo.SliceToMap(report.Results, func(l harvest.LinkResult) (harvest.Episode, struct{}) {
		return l.Episode, struct{}{}
	})

	kept := lo.Filter(cp.Links, func(l harvest.LinkResult, _ int) bool {
		_, replaced := fresh[l.Episode]
		return !replaced
	})

	name := lo.Ternary(report.Series != "", report.Series, cp.Name)
	merged := build(name, append(kept, report.Results...))

	// Failed episodes that never got a link entry stay failed until a run covers them.
	for _, f := range cp.FailedEps {
		if _, covered := fresh[f.Ep]; covered {
			continue
		}
		if !lo.ContainsBy(merged.Links, func(l harvest.LinkResult) bool { return l.Episode == f.Ep }) &&
			!lo.Contains(merged.FailedEps, f) {
			merged.FailedEps = append(merged.FailedEps, f)
		}
	}
	slices.SortFunc(merged.FailedEps, func(a, b FailedEp) int { return int(a.Ep) - int(b.Ep) })

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}
