package provider

import (
	"context"
	"testing"
	"time"

	"github.com/anigrab/anigrab/filesystem"
	"github.com/anigrab/anigrab/harvest"
	"github.com/anigrab/anigrab/session"
	. "github.com/smartystreets/goconvey/convey"
)

type countingIndex struct {
	lists, pages int
}

func (c *countingIndex) ListEpisodes(_ context.Context, url string) (*harvest.Series, error) {
	c.lists++
	return &harvest.Series{Name: "Mushishi", URL: url, Episodes: []harvest.Episode{1, 2}}, nil
}

func (c *countingIndex) DownloadPage(context.Context, session.Tab, *harvest.Series, harvest.Episode) (string, error) {
	c.pages++
	return "https://vidstream.test/download", nil
}

func TestCachedIndex(t *testing.T) {
	filesystem.SetMemMapFs()
	defer filesystem.SetOsFs()

	ctx := context.Background()

	Convey("Given a cached index", t, func() {
		inner := &countingIndex{}
		cached := Cached(inner, "/cache/index-"+t.Name()+".json", time.Hour)
		So(cached.Forget("https://animekisa.tv/mushishi"), ShouldBeNil)

		Convey("A listed series is served from the cache", func() {
			first, err := cached.ListEpisodes(ctx, "https://animekisa.tv/mushishi")
			So(err, ShouldBeNil)

			second, err := cached.ListEpisodes(ctx, "https://animekisa.tv/Mushishi/")
			So(err, ShouldBeNil)
			So(second.Name, ShouldEqual, first.Name)
			So(second.Episodes, ShouldResemble, first.Episodes)
			So(inner.lists, ShouldEqual, 1)

			Convey("Until it is forgotten", func() {
				So(cached.Forget("https://animekisa.tv/mushishi"), ShouldBeNil)
				_, err := cached.ListEpisodes(ctx, "https://animekisa.tv/mushishi")
				So(err, ShouldBeNil)
				So(inner.lists, ShouldEqual, 2)
			})
		})

		Convey("Download pages are never cached", func() {
			series := &harvest.Series{Name: "Mushishi"}
			_, _ = cached.DownloadPage(ctx, nil, series, 1)
			_, _ = cached.DownloadPage(ctx, nil, series, 1)
			So(inner.pages, ShouldEqual, 2)
		})
	})
}
