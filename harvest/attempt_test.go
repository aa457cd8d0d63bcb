package harvest

import (
	"errors"
	"testing"

	"github.com/anigrab/anigrab/quality"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAttempt(t *testing.T) {
	ok := LinkResult{URL: "https://cdn.test/1.mp4", Quality: "720"}

	Convey("Given a fresh attempt", t, func() {
		a := newAttempt(3, MaxAttempts)
		So(a.state, ShouldEqual, Pending)
		So(a.result.Qualities, ShouldNotBeNil)

		Convey("A first success is terminal", func() {
			So(a.next(), ShouldBeTrue)
			a.record(ok, nil)
			So(a.state, ShouldEqual, Succeeded)
			So(a.done(), ShouldBeTrue)
			So(a.next(), ShouldBeFalse)
			So(a.result.Episode, ShouldEqual, Episode(3))
			So(a.result.Ok(), ShouldBeTrue)
		})

		Convey("A failure followed by a success ends Succeeded", func() {
			So(a.next(), ShouldBeTrue)
			a.record(LinkResult{}, errors.New("timeout"))
			So(a.state, ShouldEqual, Attempting)
			So(a.done(), ShouldBeFalse)

			So(a.next(), ShouldBeTrue)
			a.record(ok, nil)
			So(a.state, ShouldEqual, Succeeded)
			So(a.tries, ShouldEqual, 2)
		})

		Convey("Two failures end Failed without link", func() {
			So(a.next(), ShouldBeTrue)
			a.record(LinkResult{}, nil)
			So(a.next(), ShouldBeTrue)
			a.record(LinkResult{Qualities: []quality.Tier{"480"}}, nil)

			So(a.state, ShouldEqual, Failed)
			So(a.next(), ShouldBeFalse)
			So(a.result.Ok(), ShouldBeFalse)
			So(a.result.Qualities, ShouldResemble, []quality.Tier{"480"})
		})

		Convey("An error result never counts as a success", func() {
			So(a.next(), ShouldBeTrue)
			a.record(ok, errors.New("late failure"))
			So(a.state, ShouldEqual, Attempting)
			So(a.result.Ok(), ShouldBeFalse)
		})

		Convey("Outcomes are ignored before the first try", func() {
			a.record(ok, nil)
			So(a.state, ShouldEqual, Pending)
		})
	})

	Convey("A budget below one still allows a single try", t, func() {
		a := newAttempt(1, 0)
		So(a.next(), ShouldBeTrue)
		a.record(LinkResult{}, nil)
		So(a.state, ShouldEqual, Failed)
	})

	Convey("States have readable names", t, func() {
		So(Pending.String(), ShouldEqual, "pending")
		So(Failed.String(), ShouldEqual, "failed")
		So(State(42).String(), ShouldEqual, "unknown")
	})
}
