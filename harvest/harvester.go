package harvest

import (
	"context"
	"errors"
	"fmt"

	"github.com/anigrab/anigrab/log"
	"github.com/anigrab/anigrab/pool"
	"github.com/anigrab/anigrab/quality"
	"github.com/anigrab/anigrab/session"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
)

// ErrNoPage is recorded for an episode whose download page could not be located.
var ErrNoPage = errors.New("download page not found")

// Harvester resolves the links of a series' episodes through a bounded pool of page sessions.
type Harvester struct {
	Pool      *pool.Pool
	Index     Index
	Resolver  *quality.Resolver
	Preferred []quality.Tier
	Reporter  Reporter

	// Attempts is the per-episode retry budget. Zero means MaxAttempts.
	Attempts int
}

// Lookup lists the episodes of the series at url.
func (h *Harvester) Lookup(ctx context.Context, url string) (*Series, error) {
	series, err := h.Index.ListEpisodes(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("list episodes of %s: %w", url, err)
	}
	return series, nil
}

// Harvest resolves a link for every targeted episode of series.
//
// Episodes that exhaust their retry budget are reported as failed, never as an error.
// When ctx ends the run early the error is ctx's and the report still lists every
// targeted episode, the unfinished ones as failed. When the browser backend is lost
// (session.ErrBackend) the run stops and no report is returned.
func (h *Harvester) Harvest(ctx context.Context, series *Series, target Target) (*Report, error) {
	reporter := h.reporter()
	episodes := target.Episodes(series)
	report := &Report{Series: series.Name}

	if len(episodes) == 0 {
		reporter.Finished(report)
		return report, nil
	}

	log.With(logrus.Fields{"series": series.Name, "episodes": len(episodes), "tabs": h.Pool.Size()}).Info("harvest started")

	runCtx, abort := context.WithCancelCause(ctx)
	defer abort(nil)
	lost := func(err error) bool {
		if errors.Is(err, session.ErrBackend) {
			abort(err)
			return true
		}
		return false
	}

	reporter.Stage("Locating download pages", len(episodes))
	pages := h.locate(runCtx, series, episodes, lost, reporter.Progress)
	if err := backendLost(ctx, runCtx); err != nil {
		return nil, err
	}

	reporter.Stage("Resolving links", len(episodes))
	outcomes := pool.Map(runCtx, h.Pool, episodes, func(ctx context.Context, ep Episode) (LinkResult, error) {
		res, err := h.episode(ctx, series, ep, pages[ep])
		lost(err)
		return res, err
	}, reporter.Progress)
	if err := backendLost(ctx, runCtx); err != nil {
		return nil, err
	}

	report.Results = lo.Map(outcomes, func(o mo.Result[LinkResult], i int) LinkResult {
		res, err := o.Get()
		if err != nil {
			reporter.EpisodeFailed(episodes[i], err)
			return LinkResult{Episode: episodes[i], Qualities: []quality.Tier{}}
		}
		if !res.Ok() {
			reporter.EpisodeFailed(res.Episode, nil)
		}
		return res
	})

	reporter.Finished(report)
	return report, ctx.Err()
}

// backendLost returns the cause of run's cancellation when it was a lost backend
// rather than the caller's ctx ending.
func backendLost(ctx, run context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	if cause := context.Cause(run); errors.Is(cause, session.ErrBackend) {
		return cause
	}
	return nil
}

// locate derives the download page of every episode, one session per episode.
// Episodes whose page could not be derived are missing from the result.
func (h *Harvester) locate(ctx context.Context, series *Series, episodes []Episode, lost func(error) bool, progress pool.Progress) map[Episode]string {
	found := pool.Run(ctx, h.Pool, episodes, func(ctx context.Context, s *session.Session, ep Episode) (string, error) {
		return h.Index.DownloadPage(ctx, s.Tab, series, ep)
	}, progress)

	for _, r := range found {
		if lost(r.Error()) {
			break
		}
	}

	pages := make(map[Episode]string, len(episodes))
	for i, r := range found {
		page, err := r.Get()
		if err != nil || page == "" {
			log.With(logrus.Fields{"series": series.Name, "episode": episodes[i]}).
				WithError(err).
				Debug("download page not located")
			continue
		}
		pages[episodes[i]] = page
	}
	return pages
}

// episode drives one episode through its attempts. Each attempt runs in a fresh session.
func (h *Harvester) episode(ctx context.Context, series *Series, ep Episode, page string) (LinkResult, error) {
	logger := log.With(logrus.Fields{"series": series.Name, "episode": ep})
	a := newAttempt(ep, lo.Ternary(h.Attempts > 0, h.Attempts, MaxAttempts))

	for !a.done() && a.next() {
		if err := ctx.Err(); err != nil {
			return a.result, err
		}

		var res LinkResult
		err := h.Pool.WithTab(ctx, func(s *session.Session) error {
			var err error
			res, err = h.try(ctx, s, series, ep, page)
			return err
		})
		if errors.Is(err, session.ErrBackend) {
			return a.result, err
		}
		if err != nil {
			logger.WithError(err).Warnf("attempt %d failed", a.tries)
		} else if !res.Ok() {
			logger.Warnf("attempt %d produced no link, available %v", a.tries, res.Qualities)
		}

		a.record(res, err)
	}

	logger.Debugf("episode %s after %d attempts", a.state, a.tries)
	return a.result, nil
}

func (h *Harvester) try(ctx context.Context, s *session.Session, series *Series, ep Episode, page string) (LinkResult, error) {
	res := LinkResult{Episode: ep}

	if page == "" {
		var err error
		if page, err = h.Index.DownloadPage(ctx, s.Tab, series, ep); err != nil {
			return res, err
		}
		if page == "" {
			return res, ErrNoPage
		}
	}

	resolution, err := h.Resolver.Resolve(ctx, s.Tab, page, h.Preferred)
	res.Qualities = lo.Ternary(resolution.Available != nil, resolution.Available, []quality.Tier{})
	if err != nil {
		return res, err
	}

	if resolution.Ok() {
		res.URL = resolution.Link.URL
		res.Referrer = resolution.Link.Referrer
		res.Quality = resolution.Tier
	}
	return res, nil
}

func (h *Harvester) reporter() Reporter {
	if h.Reporter == nil {
		return Nop{}
	}
	return h.Reporter
}
