package harvest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/anigrab/anigrab/pool"
	"github.com/anigrab/anigrab/quality"
	"github.com/anigrab/anigrab/session"
	"github.com/anigrab/anigrab/session/sessiontest"
	. "github.com/smartystreets/goconvey/convey"
)

func pageOf(ep Episode) string {
	return fmt.Sprintf("https://site.test/download?ep=%d", ep)
}

type fakeIndex struct {
	series *Series

	mu sync.Mutex
	// missing counts how many more DownloadPage calls fail for an episode.
	missing map[Episode]int
	calls   map[Episode]int
}

func newFakeIndex(name string, n int) *fakeIndex {
	series := &Series{Name: name, URL: "https://site.test/" + name}
	for ep := 1; ep <= n; ep++ {
		series.Episodes = append(series.Episodes, Episode(ep))
	}
	return &fakeIndex{series: series, missing: map[Episode]int{}, calls: map[Episode]int{}}
}

func (f *fakeIndex) ListEpisodes(_ context.Context, url string) (*Series, error) {
	if url != f.series.URL {
		return nil, errors.New("unknown series")
	}
	return f.series, nil
}

func (f *fakeIndex) DownloadPage(_ context.Context, _ session.Tab, _ *Series, ep Episode) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[ep]++
	if f.missing[ep] > 0 {
		f.missing[ep]--
		return "", errors.New("player not found")
	}
	return pageOf(ep), nil
}

// fakeExtractor offers 720 and 1080 on every page. Materializing fails for a page
// as many times as listed in failures; -1 fails forever.
type fakeExtractor struct {
	mu       sync.Mutex
	failures map[string]int
}

func (f *fakeExtractor) ExtractCandidates(context.Context, session.Tab) ([]quality.Candidate, error) {
	return []quality.Candidate{{Tier: "720"}, {Tier: "1080"}}, nil
}

func (f *fakeExtractor) MaterializeLink(_ context.Context, tab session.Tab, c quality.Candidate) (quality.Link, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	page := tab.URL()
	switch n := f.failures[page]; {
	case n < 0:
		return quality.Link{}, nil
	case n > 0:
		f.failures[page] = n - 1
		return quality.Link{}, errors.New("click had no effect")
	}
	return quality.Link{URL: page + "&q=" + c.Tier.String(), Referrer: page}, nil
}

type recorder struct {
	mu       sync.Mutex
	stages   []string
	progress [][2]int
	failed   []Episode
	finished *Report
}

func (r *recorder) Stage(name string, _ int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stages = append(r.stages, name)
}

func (r *recorder) Progress(done, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.progress = append(r.progress, [2]int{done, total})
}

func (r *recorder) EpisodeFailed(ep Episode, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failed = append(r.failed, ep)
}

func (r *recorder) Finished(report *Report) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = report
}

// crashingBrowser serves the first healthy tabs, then fails like a dead browser.
type crashingBrowser struct {
	*sessiontest.Browser
	healthy int32
	calls   atomic.Int32
}

func (b *crashingBrowser) NewTab(ctx context.Context) (session.Tab, error) {
	if b.calls.Add(1) > b.healthy {
		return nil, errors.New("target closed: browser crashed")
	}
	return b.Browser.NewTab(ctx)
}

func TestHarvest(t *testing.T) {
	ctx := context.Background()

	Convey("Given a series of 7 episodes and a pool of 5", t, func() {
		browser := &sessiontest.Browser{}
		index := newFakeIndex("Mushishi", 7)
		extractor := &fakeExtractor{failures: map[string]int{}}
		rec := &recorder{}

		h := &Harvester{
			Pool:      pool.New(browser, 5),
			Index:     index,
			Resolver:  &quality.Resolver{Extractor: extractor},
			Preferred: []quality.Tier{"1080"},
			Reporter:  rec,
		}

		series, err := h.Lookup(ctx, "https://site.test/Mushishi")
		So(err, ShouldBeNil)

		Convey("When episode 6 fails both attempts", func() {
			extractor.failures[pageOf(6)] = -1

			report, err := h.Harvest(ctx, series, All())
			So(err, ShouldBeNil)

			Convey("Only episode 6 is reported failed", func() {
				So(report.Series, ShouldEqual, "Mushishi")
				So(report.Failed(), ShouldResemble, []Episode{6})
				So(report.Succeeded(), ShouldEqual, 6)
				So(report.Complete(), ShouldBeFalse)
				So(rec.failed, ShouldResemble, []Episode{6})
				So(rec.finished, ShouldPointTo, report)
			})

			Convey("Results keep episode order and carry the preferred tier", func() {
				So(report.Results, ShouldHaveLength, 7)
				for i, res := range report.Results {
					So(res.Episode, ShouldEqual, Episode(i+1))
					So(res.Qualities, ShouldResemble, []quality.Tier{"1080", "720"})
					if res.Episode != 6 {
						So(res.Quality, ShouldEqual, quality.Tier("1080"))
						So(res.Referrer, ShouldEqual, pageOf(res.Episode))
					}
				}
				So(report.Results[5].URL, ShouldBeEmpty)
			})

			Convey("Both passes run in batches of 5 and 2", func() {
				So(rec.stages, ShouldHaveLength, 2)
				So(rec.progress, ShouldResemble, [][2]int{{5, 7}, {7, 7}, {5, 7}, {7, 7}})
			})

			Convey("Every session is released and at most 5 are open at once", func() {
				// 7 page lookups, one resolve for each of 6 episodes, two for episode 6
				So(browser.Opened(), ShouldEqual, 15)
				So(browser.Closed(), ShouldEqual, browser.Opened())
				So(browser.MaxLive(), ShouldBeLessThanOrEqualTo, 5)
			})
		})

		Convey("When an episode fails its first attempt only", func() {
			extractor.failures[pageOf(2)] = 1

			report, err := h.Harvest(ctx, series, All())
			So(err, ShouldBeNil)
			So(report.Failed(), ShouldBeEmpty)
			So(report.Complete(), ShouldBeTrue)
			So(report.Results[1].Ok(), ShouldBeTrue)
			So(browser.Opened(), ShouldEqual, 7+8)
		})

		Convey("When a download page cannot be located at first", func() {
			index.missing[4] = 1

			report, err := h.Harvest(ctx, series, All())
			So(err, ShouldBeNil)

			Convey("It is derived again inside the resolving attempt", func() {
				So(report.Failed(), ShouldBeEmpty)
				So(index.calls[4], ShouldEqual, 2)
				So(index.calls[3], ShouldEqual, 1)
			})
		})

		Convey("When a download page never appears", func() {
			index.missing[5] = 10

			report, _ := h.Harvest(ctx, series, All())
			So(report.Failed(), ShouldResemble, []Episode{5})
			So(report.Results[4].Qualities, ShouldNotBeNil)
			So(index.calls[5], ShouldEqual, 1+MaxAttempts)
		})

		Convey("When only some episodes are targeted", func() {
			report, err := h.Harvest(ctx, series, Only(3, 1, 3))
			So(err, ShouldBeNil)
			So(len(report.Results), ShouldEqual, 2)
			So(report.Results[0].Episode, ShouldEqual, Episode(1))
			So(report.Results[1].Episode, ShouldEqual, Episode(3))
			So(rec.progress, ShouldResemble, [][2]int{{2, 2}, {2, 2}})
		})

		Convey("When nothing is targeted", func() {
			report, err := h.Harvest(ctx, series, Only())
			So(err, ShouldBeNil)
			So(report.Results, ShouldBeEmpty)
			So(browser.Opened(), ShouldEqual, 0)
			So(rec.finished, ShouldPointTo, report)
		})

		Convey("When the context is already cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()

			report, err := h.Harvest(cctx, series, All())
			So(errors.Is(err, context.Canceled), ShouldBeTrue)
			So(report.Failed(), ShouldHaveLength, 7)
			So(browser.Opened(), ShouldEqual, 0)
		})
	})

	Convey("Given a browser that stops opening tabs", t, func() {
		index := newFakeIndex("Mushishi", 7)
		series, _ := index.ListEpisodes(ctx, "https://site.test/Mushishi")
		rec := &recorder{}

		harvester := func(b session.Browser) *Harvester {
			return &Harvester{
				Pool:     pool.New(b, 5),
				Index:    index,
				Resolver: &quality.Resolver{Extractor: &fakeExtractor{failures: map[string]int{}}},
				Reporter: rec,
			}
		}

		Convey("From the start, the run aborts without a report", func() {
			browser := &sessiontest.Browser{OpenErr: errors.New("target closed: browser crashed")}

			report, err := harvester(browser).Harvest(ctx, series, All())
			So(errors.Is(err, session.ErrBackend), ShouldBeTrue)
			So(report, ShouldBeNil)
			So(rec.finished, ShouldBeNil)
			So(rec.failed, ShouldBeEmpty)
		})

		Convey("After the pages were located, the run aborts in the resolving pass", func() {
			browser := &crashingBrowser{Browser: &sessiontest.Browser{}, healthy: 7}

			report, err := harvester(browser).Harvest(ctx, series, All())
			So(errors.Is(err, session.ErrBackend), ShouldBeTrue)
			So(report, ShouldBeNil)

			Convey("No further batch is started and no episode is retried", func() {
				So(browser.Opened(), ShouldEqual, 7)
				So(browser.Closed(), ShouldEqual, 7)
				So(int(browser.calls.Load()), ShouldBeLessThanOrEqualTo, 7+5)
			})
		})
	})

	Convey("Lookup wraps index failures", t, func() {
		h := &Harvester{Index: newFakeIndex("x", 1)}
		_, err := h.Lookup(ctx, "https://site.test/unknown")
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "https://site.test/unknown")
	})
}

func TestTarget(t *testing.T) {
	Convey("Target", t, func() {
		series := &Series{Episodes: []Episode{1, 2, 3}}

		So(All().IsAll(), ShouldBeTrue)
		So(All().Episodes(series), ShouldResemble, []Episode{1, 2, 3})
		So(Only(2).IsAll(), ShouldBeFalse)
		So(Only(5, 0, 2, 5).Episodes(series), ShouldResemble, []Episode{2, 5})
	})
}
