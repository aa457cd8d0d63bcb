// Package downloader starts the external download manager once a series is queued.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"

	"github.com/anigrab/anigrab/log"
	"github.com/sirupsen/logrus"
)

// ErrNotConfigured is returned when no download manager command is set.
var ErrNotConfigured = errors.New("no downloader command configured")

// Trigger hands the pending-downloads queue over to a download manager.
type Trigger interface {
	Trigger(ctx context.Context) error
}

// Command runs an external program that consumes the queue.
type Command struct {
	// Argv is the program followed by its arguments.
	Argv []string
	// Dir is the working directory; empty means the current one.
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
}

// Available reports whether the program can be found.
func (c *Command) Available() error {
	if len(c.Argv) == 0 {
		return ErrNotConfigured
	}
	_, err := exec.LookPath(c.Argv[0])
	return err
}

// Trigger runs the command to completion.
func (c *Command) Trigger(ctx context.Context) error {
	if len(c.Argv) == 0 {
		return ErrNotConfigured
	}

	cmd := exec.CommandContext(ctx, c.Argv[0], c.Argv[1:]...)
	cmd.Dir = c.Dir
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr

	log.With(logrus.Fields{"argv": c.Argv, "dir": c.Dir}).Info("starting downloader")
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("run %s: %w", c.Argv[0], err)
	}
	return nil
}

// Nop is a trigger that does nothing, used when the hand-off is disabled.
type Nop struct{}

func (Nop) Trigger(context.Context) error { return nil }
