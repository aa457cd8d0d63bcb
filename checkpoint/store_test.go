package checkpoint

import (
	"errors"
	"testing"

	"github.com/anigrab/anigrab/filesystem"
	"github.com/anigrab/anigrab/harvest"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestStore(t *testing.T) {
	Convey("Given a store", t, func() {
		store := NewStore("/data/anime")

		Convey("Series names map to safe file names", func() {
			So(store.Path("Mushishi - Zoku Shou"), ShouldEqual, "/data/anime/Mushishi - Zoku Shou.json")
			So(store.Path("Fate/Zero"), ShouldEqual, "/data/anime/Fate_Zero.json")
			So(store.Key("Is the Order a Rabbit?"), ShouldEqual, "Is the Order a Rabbit_")
			So(store.Path("Is the Order a Rabbit?"), ShouldEqual, "/data/anime/"+store.Key("Is the Order a Rabbit?")+".json")
		})

		Convey("Loading an unknown series yields nothing", func() {
			loaded, err := store.Load("unknown")
			So(err, ShouldBeNil)
			So(loaded.IsAbsent(), ShouldBeTrue)
		})

		Convey("A saved checkpoint loads back equal", func() {
			cp := FromReport(&harvest.Report{Series: "Mushishi", Results: []harvest.LinkResult{ok(1), failed(2)}})
			So(store.Save(cp), ShouldBeNil)

			loaded, err := store.Load("Mushishi")
			So(err, ShouldBeNil)
			So(loaded.MustGet(), ShouldResemble, cp)

			Convey("And the document keeps the established shape", func() {
				data, err := filesystem.API().ReadFile(store.Path("Mushishi"))
				So(err, ShouldBeNil)
				So(string(data), ShouldContainSubstring, `"failedEps":[{"ep":2}]`)
				So(string(data), ShouldContainSubstring, `{"ep":2,"qualities":["480"]}`)
			})

			Convey("And it can be removed", func() {
				So(store.Remove("Mushishi"), ShouldBeNil)
				loaded, err := store.Load("Mushishi")
				So(err, ShouldBeNil)
				So(loaded.IsPresent(), ShouldBeFalse)
				So(store.Remove("Mushishi"), ShouldBeNil)
			})
		})

		Convey("An invalid checkpoint is never written", func() {
			cp := &Checkpoint{Name: "Dup", Links: []harvest.LinkResult{ok(1), ok(1)}}
			So(errors.Is(store.Save(cp), ErrDuplicateEpisode), ShouldBeTrue)

			exists, _ := filesystem.API().Exists(store.Path("Dup"))
			So(exists, ShouldBeFalse)
		})

		Convey("A damaged file is reported as corrupt", func() {
			So(filesystem.API().MkdirAll(store.Dir(), 0o755), ShouldBeNil)
			So(filesystem.API().WriteFile(store.Path("Broken"), []byte("{not json"), 0o644), ShouldBeNil)
			_, err := store.Load("Broken")
			So(errors.Is(err, ErrCorrupt), ShouldBeTrue)
		})
	})
}
