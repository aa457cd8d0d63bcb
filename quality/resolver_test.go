package quality

import (
	"context"
	"errors"
	"testing"

	"github.com/anigrab/anigrab/session"
	"github.com/anigrab/anigrab/session/sessiontest"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeExtractor serves a fixed candidate set and materializes only the tiers in links.
type fakeExtractor struct {
	candidates []Candidate
	extractErr error
	links      map[Tier]string
	tried      []Tier
	prepared   int
}

func (f *fakeExtractor) Prepare(context.Context, session.Tab) error {
	f.prepared++
	return nil
}

func (f *fakeExtractor) ExtractCandidates(context.Context, session.Tab) ([]Candidate, error) {
	return f.candidates, f.extractErr
}

func (f *fakeExtractor) MaterializeLink(_ context.Context, tab session.Tab, c Candidate) (Link, error) {
	f.tried = append(f.tried, c.Tier)
	if u, ok := f.links[c.Tier]; ok {
		return Link{URL: u, Referrer: tab.URL()}, nil
	}
	return Link{}, nil
}

func newTab(t *testing.T) *sessiontest.Tab {
	browser := &sessiontest.Browser{}
	tab, err := browser.NewTab(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return tab.(*sessiontest.Tab)
}

func TestResolve(t *testing.T) {
	ctx := context.Background()
	const page = "https://example.test/download?id=1"

	Convey("Given candidates 480, 720 and 1080 and a preference of 1080 then 720", t, func() {
		x := &fakeExtractor{
			candidates: []Candidate{{Tier: "480"}, {Tier: "720"}, {Tier: "1080"}},
			links:      map[Tier]string{"720": "https://cdn.test/720.mp4", "480": "https://cdn.test/480.mp4"},
		}
		r := &Resolver{Extractor: x}
		tab := newTab(t)

		res, err := r.Resolve(ctx, tab, page, []Tier{"1080", "720"})

		Convey("1080 is attempted first and 720 is the result", func() {
			So(err, ShouldBeNil)
			So(x.tried, ShouldResemble, []Tier{"1080", "720"})
			So(res.Ok(), ShouldBeTrue)
			So(res.Tier, ShouldEqual, Tier("720"))
			So(res.Link.URL, ShouldEqual, "https://cdn.test/720.mp4")
			So(res.Link.Referrer, ShouldEqual, page)
		})

		Convey("All scraped tiers are reported best first", func() {
			So(res.Available, ShouldResemble, []Tier{"1080", "720", "480"})
		})

		Convey("The page is reloaded after the failed 1080 attempt", func() {
			So(tab.Visited(), ShouldResemble, []string{page, page})
			So(x.prepared, ShouldEqual, 1)
		})
	})

	Convey("Given no preferred tier materializes", t, func() {
		x := &fakeExtractor{
			candidates: []Candidate{{Tier: HD}, {Tier: SD}},
			links:      map[Tier]string{},
		}
		r := &Resolver{Extractor: x}

		res, err := r.Resolve(ctx, newTab(t), page, []Tier{"1080", HD, SD})

		Convey("The resolution has no link but keeps the available tiers", func() {
			So(err, ShouldBeNil)
			So(res.Ok(), ShouldBeFalse)
			So(res.Tier, ShouldBeEmpty)
			So(res.Available, ShouldResemble, []Tier{HD, SD})
			So(x.tried, ShouldResemble, []Tier{HD, SD})
		})
	})

	Convey("Given none of the preferred tiers is offered", t, func() {
		x := &fakeExtractor{candidates: []Candidate{{Tier: "360"}}, links: map[Tier]string{"360": "u"}}
		res, err := (&Resolver{Extractor: x}).Resolve(ctx, newTab(t), page, []Tier{"1080"})

		So(err, ShouldBeNil)
		So(res.Ok(), ShouldBeFalse)
		So(res.Available, ShouldResemble, []Tier{"360"})
		So(x.tried, ShouldBeEmpty)
	})

	Convey("Given an empty mirror list", t, func() {
		x := &fakeExtractor{}
		res, err := (&Resolver{Extractor: x}).Resolve(ctx, newTab(t), page, []Tier{"1080"})

		So(errors.Is(err, ErrNoCandidates), ShouldBeTrue)
		So(res.Available, ShouldBeEmpty)
	})

	Convey("Given the download page fails to load", t, func() {
		tab := newTab(t)
		tab.NavigateErr = func(string) error { return errors.New("timeout") }
		x := &fakeExtractor{}

		_, err := (&Resolver{Extractor: x}).Resolve(ctx, tab, page, []Tier{"1080"})

		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "load download page")
	})

	Convey("Given a cancelled context during the settle delay", t, func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		x := &fakeExtractor{candidates: []Candidate{{Tier: "720"}}}
		r := NewResolver(x)

		_, err := r.Resolve(cctx, newTab(t), page, []Tier{"720"})
		So(err, ShouldNotBeNil)
	})
}
