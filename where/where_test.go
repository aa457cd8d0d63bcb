package where

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/anigrab/anigrab/filesystem"
	"github.com/samber/lo"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	filesystem.SetMemMapFs()
}

func TestPaths(t *testing.T) {
	Convey("Path functions", t, func() {
		Convey("Config()", func() {
			path := Config()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Logs()", func() {
			path := Logs()
			So(path, ShouldNotBeEmpty)
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
		})

		Convey("Checkpoints()", func() {
			path := Checkpoints()
			So(lo.Must(filesystem.API().IsDir(path)), ShouldBeTrue)
			So(filepath.Base(path), ShouldEqual, "anime")
		})

		Convey("Queue()", func() {
			path := Queue()
			So(filepath.Base(path), ShouldEqual, "cache.json")
			So(lo.Must(filesystem.API().IsDir(filepath.Dir(path))), ShouldBeTrue)
		})
	})

	Convey("Given a data path override", t, func() {
		lo.Must0(os.Setenv(EnvDataPath, "/override"))
		defer os.Unsetenv(EnvDataPath)

		So(Data(), ShouldEqual, "/override")
		So(Checkpoints(), ShouldEqual, filepath.Join("/override", "anime"))
	})
}
