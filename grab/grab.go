// Package grab runs one harvest of a series end to end: list, plan against the stored
// checkpoint, harvest, merge, save and hand the series over to the download manager.
package grab

import (
	"context"
	"errors"
	"fmt"

	"github.com/anigrab/anigrab/checkpoint"
	"github.com/anigrab/anigrab/downloader"
	"github.com/anigrab/anigrab/harvest"
	"github.com/anigrab/anigrab/log"
	"github.com/anigrab/anigrab/pool"
	"github.com/anigrab/anigrab/provider"
	"github.com/anigrab/anigrab/quality"
	"github.com/anigrab/anigrab/queue"
	"github.com/anigrab/anigrab/session"
	"github.com/samber/mo"
	"github.com/sirupsen/logrus"
)

// ErrNoURL is returned when no series URL is given.
var ErrNoURL = errors.New("series url is required")

// Options control a single run.
type Options struct {
	URL       string
	Tabs      int
	Qualities []quality.Tier
	// Fresh ignores the stored checkpoint and harvests the whole series.
	Fresh bool
	// Download starts the download manager after a complete harvest.
	Download bool
}

// Queue receives series whose harvest is complete, by checkpoint key.
type Queue interface {
	Enqueue(name string) (queue.Entry, error)
}

// Deps are the collaborators of a run.
type Deps struct {
	Launch func(ctx context.Context) (session.Browser, error)
	Site   provider.Site
	// Index lists series; defaults to Site.
	Index harvest.Index
	// Resolver defaults to quality.NewResolver(Site).
	Resolver *quality.Resolver
	Store    *checkpoint.Store
	Queue    Queue
	Trigger  downloader.Trigger
	Reporter harvest.Reporter
}

// Result describes what a run did.
type Result struct {
	Series *harvest.Series
	// Report is nil when nothing had to be harvested.
	Report     *harvest.Report
	Checkpoint *checkpoint.Checkpoint
	// Path is where the checkpoint is stored.
	Path string
	// Skipped is set when the stored checkpoint had no failed episodes left.
	Skipped bool
	Queued  mo.Option[queue.Entry]
	// Triggered is set when the download manager ran.
	Triggered bool
}

// Run harvests the series at opts.URL.
//
// A partial harvest is saved and returned without error; the series is queued only once
// every episode has a link. Errors abort the run before anything is written, except for
// queue and download manager failures, which happen after the checkpoint was saved.
func Run(ctx context.Context, opts Options, deps Deps) (*Result, error) {
	if opts.URL == "" {
		return nil, ErrNoURL
	}

	index := deps.Index
	if index == nil {
		index = deps.Site
	}

	series, err := index.ListEpisodes(ctx, opts.URL)
	if err != nil {
		return nil, fmt.Errorf("list episodes of %s: %w", opts.URL, err)
	}

	logger := log.With(logrus.Fields{"series": series.Name, "episodes": len(series.Episodes)})
	result := &Result{Series: series, Path: deps.Store.Path(series.Name)}

	prior := mo.None[*checkpoint.Checkpoint]()
	if !opts.Fresh {
		if prior, err = deps.Store.Load(series.Name); err != nil {
			return nil, err
		}
	}

	target, ok := checkpoint.Plan(prior)
	if !ok {
		logger.Info("checkpoint is complete, nothing to harvest")
		result.Checkpoint = prior.MustGet()
		result.Skipped = true
		return result, nil
	}
	if !target.IsAll() {
		logger.Infof("resuming %d failed episodes", len(target.Episodes(series)))
	}

	browser, err := deps.Launch(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := browser.Close(); err != nil {
			logger.WithError(err).Warn("closing browser")
		}
	}()

	resolver := deps.Resolver
	if resolver == nil {
		resolver = quality.NewResolver(deps.Site)
	}

	harvester := &harvest.Harvester{
		Pool:      pool.New(browser, opts.Tabs),
		Index:     index,
		Resolver:  resolver,
		Preferred: opts.Qualities,
		Reporter:  deps.Reporter,
	}

	report, err := harvester.Harvest(ctx, series, target)
	if err != nil {
		return nil, fmt.Errorf("harvest %s: %w", series.Name, err)
	}
	result.Report = report

	merged, err := checkpoint.Merge(prior, report)
	if err != nil {
		return nil, err
	}
	if err := deps.Store.Save(merged); err != nil {
		return nil, fmt.Errorf("save checkpoint: %w", err)
	}
	result.Checkpoint = merged
	logger.Infof("checkpoint saved to %s", result.Path)

	if !merged.Complete() {
		logger.Warnf("episodes without link: %v", merged.Failed())
		return result, nil
	}

	entry, err := deps.Queue.Enqueue(deps.Store.Key(merged.Name))
	if err != nil {
		return result, fmt.Errorf("queue %s: %w", merged.Name, err)
	}
	result.Queued = mo.Some(entry)

	if !opts.Download || deps.Trigger == nil {
		return result, nil
	}
	if err := deps.Trigger.Trigger(ctx); err != nil {
		return result, fmt.Errorf("start downloader: %w", err)
	}
	result.Triggered = true
	return result, nil
}
