package quality

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anigrab/anigrab/log"
	"github.com/anigrab/anigrab/session"
	"github.com/sirupsen/logrus"
)

// ErrNoCandidates is returned when a download page lists no recognizable quality tiers.
var ErrNoCandidates = errors.New("no quality candidates on download page")

// Extractor holds the page-specific scraping of a download page.
type Extractor interface {
	// ExtractCandidates scrapes every mirror of the currently loaded download page.
	ExtractCandidates(ctx context.Context, tab session.Tab) ([]Candidate, error)

	// MaterializeLink performs the interaction that turns a candidate into a media link.
	// A zero Link means the interaction produced nothing usable.
	MaterializeLink(ctx context.Context, tab session.Tab, c Candidate) (Link, error)
}

// Preparer is implemented by extractors that must configure a tab before the download
// page is first loaded, e.g. to intercept requests.
type Preparer interface {
	Prepare(ctx context.Context, tab session.Tab) error
}

// Resolution is the outcome of resolving one download page.
type Resolution struct {
	Link Link
	// Tier is empty when no link was obtained.
	Tier Tier
	// Available lists every tier the page offered, best first.
	Available []Tier
}

// Ok reports whether a link was obtained.
func (r Resolution) Ok() bool {
	return r.Link.Ok()
}

// Resolver picks the best preferred tier of a download page and materializes its link.
type Resolver struct {
	Extractor Extractor

	// AfterScrape lets the mirror list settle before the first interaction.
	AfterScrape time.Duration
	// AfterReload lets the page settle after reloading it between candidates.
	AfterReload time.Duration
}

// NewResolver returns a resolver with the delays the mirror UI needs.
func NewResolver(x Extractor) *Resolver {
	return &Resolver{
		Extractor:   x,
		AfterScrape: 2 * time.Second,
		AfterReload: time.Second,
	}
}

// Resolve loads pageURL in tab and tries the preferred candidates from best to worst rank.
// After every unsuccessful candidate the page is reloaded before the next one is tried.
// A Resolution without link is returned, with Available filled in, when no candidate
// produced a link. Errors are returned for page failures; the resolution still carries
// whatever tiers were scraped before the failure.
func (r *Resolver) Resolve(ctx context.Context, tab session.Tab, pageURL string, preferred []Tier) (Resolution, error) {
	var res Resolution

	if p, ok := r.Extractor.(Preparer); ok {
		if err := p.Prepare(ctx, tab); err != nil {
			return res, fmt.Errorf("prepare tab: %w", err)
		}
	}

	if err := tab.Navigate(ctx, pageURL); err != nil {
		return res, fmt.Errorf("load download page: %w", err)
	}

	candidates, err := r.Extractor.ExtractCandidates(ctx, tab)
	if err != nil {
		return res, fmt.Errorf("extract candidates: %w", err)
	}

	sorted := Sort(candidates)
	res.Available = Tiers(sorted)
	if len(sorted) == 0 {
		return res, ErrNoCandidates
	}

	if err := sleep(ctx, r.AfterScrape); err != nil {
		return res, err
	}

	logger := log.With(logrus.Fields{"page": pageURL})
	for _, c := range Prefer(sorted, preferred) {
		link, err := r.Extractor.MaterializeLink(ctx, tab, c)
		if err != nil {
			logger.WithError(err).Debugf("tier %s not materialized", c.Tier)
		}
		if err == nil && link.Ok() {
			res.Link = link
			res.Tier = c.Tier
			return res, nil
		}

		if err := tab.Navigate(ctx, pageURL); err != nil {
			return res, fmt.Errorf("reload download page: %w", err)
		}
		if err := sleep(ctx, r.AfterReload); err != nil {
			return res, err
		}
	}

	return res, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
