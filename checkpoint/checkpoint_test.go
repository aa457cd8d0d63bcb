package checkpoint

import (
	"errors"
	"strconv"
	"testing"

	"github.com/anigrab/anigrab/harvest"
	"github.com/anigrab/anigrab/quality"
	"github.com/samber/mo"
	. "github.com/smartystreets/goconvey/convey"
)

func ok(ep harvest.Episode) harvest.LinkResult {
	return harvest.LinkResult{
		Episode:   ep,
		URL:       "https://cdn.test/" + ep2s(ep) + ".mp4",
		Referrer:  "https://site.test/download?ep=" + ep2s(ep),
		Quality:   "720",
		Qualities: []quality.Tier{"720", "480"},
	}
}

func failed(ep harvest.Episode) harvest.LinkResult {
	return harvest.LinkResult{Episode: ep, Qualities: []quality.Tier{"480"}}
}

func ep2s(ep harvest.Episode) string {
	return strconv.Itoa(int(ep))
}

func TestFromReport(t *testing.T) {
	Convey("Given an unordered report with one failure", t, func() {
		report := &harvest.Report{Series: "Mushishi", Results: []harvest.LinkResult{ok(3), failed(2), ok(1)}}
		cp := FromReport(report)

		Convey("Links are sorted and the failure is listed", func() {
			So(cp.Name, ShouldEqual, "Mushishi")
			So(cp.Links[0].Episode, ShouldEqual, harvest.Episode(1))
			So(cp.Links[2].Episode, ShouldEqual, harvest.Episode(3))
			So(cp.FailedEps, ShouldResemble, []FailedEp{{Ep: 2}})
			So(cp.Failed(), ShouldResemble, []harvest.Episode{2})
			So(cp.Complete(), ShouldBeFalse)
		})

		Convey("The report is left untouched", func() {
			So(report.Results[0].Episode, ShouldEqual, harvest.Episode(3))
		})
	})

	Convey("Missing quality lists become empty lists", t, func() {
		cp := FromReport(&harvest.Report{Results: []harvest.LinkResult{{Episode: 1}}})
		So(cp.Links[0].Qualities, ShouldNotBeNil)
		So(cp.Links[0].Qualities, ShouldBeEmpty)
	})
}

func TestValidate(t *testing.T) {
	Convey("Duplicate episodes are rejected", t, func() {
		cp := &Checkpoint{Name: "x", Links: []harvest.LinkResult{ok(1), failed(1)}}
		So(errors.Is(cp.Validate(), ErrDuplicateEpisode), ShouldBeTrue)
	})
}

func TestPlan(t *testing.T) {
	Convey("Plan", t, func() {
		Convey("Without checkpoint the whole series is harvested", func() {
			target, run := Plan(mo.None[*Checkpoint]())
			So(run, ShouldBeTrue)
			So(target.IsAll(), ShouldBeTrue)
		})

		Convey("With failures only those are harvested", func() {
			cp := FromReport(&harvest.Report{Series: "x", Results: []harvest.LinkResult{ok(1), failed(2), failed(4)}})
			target, run := Plan(mo.Some(cp))
			So(run, ShouldBeTrue)
			So(target.IsAll(), ShouldBeFalse)
			So(target.Episodes(&harvest.Series{}), ShouldResemble, []harvest.Episode{2, 4})
		})

		Convey("A complete checkpoint needs no run", func() {
			cp := FromReport(&harvest.Report{Series: "x", Results: []harvest.LinkResult{ok(1)}})
			_, run := Plan(mo.Some(cp))
			So(run, ShouldBeFalse)
		})
	})
}

func TestMerge(t *testing.T) {
	Convey("Given a prior checkpoint with episode 2 failed", t, func() {
		prior := FromReport(&harvest.Report{
			Series:  "Mushishi",
			Results: []harvest.LinkResult{ok(1), failed(2), ok(3)},
		})

		Convey("A resume that succeeds on episode 2 completes the series", func() {
			merged, err := Merge(mo.Some(prior), &harvest.Report{
				Series:  "Mushishi",
				Results: []harvest.LinkResult{ok(2)},
			})
			So(err, ShouldBeNil)
			So(merged.Links, ShouldHaveLength, 3)
			for i, l := range merged.Links {
				So(l.Episode, ShouldEqual, harvest.Episode(i+1))
				So(l.Ok(), ShouldBeTrue)
			}
			So(merged.FailedEps, ShouldBeEmpty)
			So(merged.Complete(), ShouldBeTrue)
			So(merged.Links[0], ShouldResemble, prior.Links[0])
		})

		Convey("A repeated failure replaces the prior entry as a whole", func() {
			again := harvest.LinkResult{Episode: 2, Qualities: []quality.Tier{"360"}}
			merged, err := Merge(mo.Some(prior), &harvest.Report{Results: []harvest.LinkResult{again}})
			So(err, ShouldBeNil)
			So(merged.Name, ShouldEqual, "Mushishi")
			So(merged.Links[1], ShouldResemble, again)
			So(merged.FailedEps, ShouldResemble, []FailedEp{{Ep: 2}})
		})

		Convey("An empty resume leaves the checkpoint unchanged", func() {
			merged, err := Merge(mo.Some(prior), &harvest.Report{Series: "Mushishi"})
			So(err, ShouldBeNil)
			So(merged, ShouldResemble, prior)

			twice, err := Merge(mo.Some(merged), &harvest.Report{Series: "Mushishi"})
			So(err, ShouldBeNil)
			So(twice, ShouldResemble, prior)
		})

		Convey("A corrupt prior is refused", func() {
			prior.Links = append(prior.Links, ok(1))
			_, err := Merge(mo.Some(prior), &harvest.Report{Results: []harvest.LinkResult{ok(2)}})
			So(errors.Is(err, ErrDuplicateEpisode), ShouldBeTrue)
		})
	})

	Convey("Failed episodes without link entry survive a merge that does not cover them", t, func() {
		prior := &Checkpoint{Name: "x", FailedEps: []FailedEp{{Ep: 5}}, Links: []harvest.LinkResult{ok(1)}}
		merged, err := Merge(mo.Some(prior), &harvest.Report{Results: []harvest.LinkResult{ok(2)}})
		So(err, ShouldBeNil)
		So(merged.Failed(), ShouldResemble, []harvest.Episode{5})
	})

	Convey("Without prior the report is the checkpoint", t, func() {
		merged, err := Merge(mo.None[*Checkpoint](), &harvest.Report{Series: "x", Results: []harvest.LinkResult{failed(1)}})
		So(err, ShouldBeNil)
		So(merged.Failed(), ShouldResemble, []harvest.Episode{1})
	})
}
