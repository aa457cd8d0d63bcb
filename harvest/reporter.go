package harvest

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/anigrab/anigrab/icon"
	"github.com/anigrab/anigrab/style"
	"github.com/anigrab/anigrab/util"
	"github.com/samber/lo"
)

// Reporter receives the progress of a harvest. Implementations must be safe for concurrent use.
type Reporter interface {
	// Stage announces a pass over total episodes.
	Stage(name string, total int)
	// Progress is called after every batch with the settled and total episode counts.
	Progress(done, total int)
	// EpisodeFailed is called once per episode that ends without link. err may be nil.
	EpisodeFailed(ep Episode, err error)
	// Finished is called with the final report.
	Finished(r *Report)
}

// Nop discards every event.
type Nop struct{}

func (Nop) Stage(string, int)            {}
func (Nop) Progress(int, int)            {}
func (Nop) EpisodeFailed(Episode, error) {}
func (Nop) Finished(*Report)             {}

// Terminal prints harvest progress as styled lines.
type Terminal struct {
	mu sync.Mutex
	w  io.Writer
}

// NewTerminal returns a reporter writing to w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{w: w}
}

func (t *Terminal) println(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, _ = fmt.Fprintln(t.w, s)
}

func (t *Terminal) Stage(name string, total int) {
	t.println(fmt.Sprintf(
		"%s %s %s",
		icon.Get(icon.Progress),
		style.Fg(style.Stage)(name),
		style.Faint(util.Quantify(total, "episode", "episodes")),
	))
}

func (t *Terminal) Progress(done, total int) {
	t.println(style.Fg(style.Progress)(fmt.Sprintf("  %d/%d", done, total)))
}

func (t *Terminal) EpisodeFailed(ep Episode, err error) {
	msg := fmt.Sprintf("%s Episode %d has no link", icon.Get(icon.Fail), ep)
	if err != nil {
		msg += style.Faint(": " + err.Error())
	}
	t.println(style.Fg(style.Bad)(msg))
}

func (t *Terminal) Finished(r *Report) {
	failed := r.Failed()
	if len(failed) == 0 {
		t.println(fmt.Sprintf(
			"%s %s %s",
			icon.Get(icon.Success),
			style.Fg(style.Done)(r.Series),
			style.Fg(style.Good)(util.Quantify(len(r.Results), "link", "links")+" harvested"),
		))
		return
	}

	t.println(fmt.Sprintf(
		"%s %s %s, failed: %s",
		icon.Get(icon.Warn),
		style.Fg(style.Done)(r.Series),
		style.Fg(style.Good)(fmt.Sprintf("%d/%d harvested", r.Succeeded(), len(r.Results))),
		style.Fg(style.Bad)(strings.Join(lo.Map(failed, func(ep Episode, _ int) string {
			return fmt.Sprint(int(ep))
		}), ", ")),
	))
}
