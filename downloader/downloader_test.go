package downloader

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestCommand(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty command", t, func() {
		c := &Command{}
		So(errors.Is(c.Trigger(ctx), ErrNotConfigured), ShouldBeTrue)
		So(errors.Is(c.Available(), ErrNotConfigured), ShouldBeTrue)
	})

	Convey("Given a shell command", t, func() {
		if _, err := exec.LookPath("sh"); err != nil {
			SkipSo("sh is not available")
			return
		}

		var out bytes.Buffer
		dir := t.TempDir()

		Convey("It runs in the configured directory", func() {
			c := &Command{Argv: []string{"sh", "-c", "pwd"}, Dir: dir, Stdout: &out}
			So(c.Available(), ShouldBeNil)
			So(c.Trigger(ctx), ShouldBeNil)
			So(out.String(), ShouldContainSubstring, dir)
		})

		Convey("A failing program is an error", func() {
			c := &Command{Argv: []string{"sh", "-c", "exit 3"}}
			err := c.Trigger(ctx)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "run sh")
		})

		Convey("A cancelled context stops the program", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			c := &Command{Argv: []string{"sh", "-c", "sleep 5"}}
			So(c.Trigger(cctx), ShouldNotBeNil)
		})
	})

	Convey("Unknown programs are not available", t, func() {
		c := &Command{Argv: []string{"anigrab-no-such-downloader"}}
		So(c.Available(), ShouldNotBeNil)
	})

	Convey("Nop never fails", t, func() {
		So(Nop{}.Trigger(ctx), ShouldBeNil)
	})
}
