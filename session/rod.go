package session

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/anigrab/anigrab/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Options configures the shared browser.
type Options struct {
	Headless  bool
	Bin       string
	Timeout   time.Duration
	UserAgent string
}

// Rod is a Browser backed by a Chromium instance driven over the DevTools protocol.
type Rod struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	opts     Options
}

// Launch starts a browser process and connects to it.
func Launch(ctx context.Context, opts Options) (*Rod, error) {
	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		NoSandbox(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage")

	if opts.Bin != "" {
		l = l.Bin(opts.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: %v", ErrLaunch, err)
	}

	log.Infof("browser connected at %s", controlURL)
	return &Rod{browser: browser, launcher: l, opts: opts}, nil
}

// NewTab opens a blank tab.
func (r *Rod) NewTab(ctx context.Context) (Tab, error) {
	page, err := r.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}

	if r.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.opts.UserAgent}); err != nil {
			_ = page.Close()
			return nil, err
		}
	}

	return &rodTab{page: page, timeout: r.opts.Timeout}, nil
}

// Close closes every open tab, then the browser itself.
func (r *Rod) Close() error {
	if pages, err := r.browser.Pages(); err == nil {
		for _, p := range pages {
			_ = p.Close()
		}
	}

	err := r.browser.Close()
	r.launcher.Cleanup()
	return err
}

type rodTab struct {
	page    *rod.Page
	timeout time.Duration
	url     string

	router *rod.HijackRouter

	mu       sync.Mutex
	captured string
}

// bounded scopes the page to ctx and the navigation timeout. Every page call goes
// through it so a hung page releases its worker.
func (t *rodTab) bounded(ctx context.Context) (*rod.Page, context.CancelFunc) {
	ctx, cancel := withTimeout(ctx, t.timeout)
	return t.page.Context(ctx), cancel
}

// withTimeout derives a context ending after d. A non-positive d only adds cancellation.
func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, d)
}

func (t *rodTab) Navigate(ctx context.Context, url string) error {
	p, cancel := t.bounded(ctx)
	defer cancel()

	t.url = url
	idle := p.WaitRequestIdle(500*time.Millisecond, nil, nil, nil)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	idle()

	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("load %s: %w", url, err)
	}
	return nil
}

func (t *rodTab) URL() string {
	return t.url
}

func (t *rodTab) HTML(ctx context.Context) (string, error) {
	p, cancel := t.bounded(ctx)
	defer cancel()

	return p.HTML()
}

func (t *rodTab) Eval(ctx context.Context, js string, args ...any) (string, error) {
	p, cancel := t.bounded(ctx)
	defer cancel()

	res, err := p.Eval(js, args...)
	if err != nil {
		return "", err
	}
	if res.Value.Nil() {
		return "", nil
	}
	return res.Value.Str(), nil
}

func (t *rodTab) ClickText(ctx context.Context, selector, text string) error {
	p, cancel := t.bounded(ctx)
	defer cancel()

	el, err := p.ElementR(selector, regexp.QuoteMeta(text))
	if err != nil {
		return fmt.Errorf("find %s %q: %w", selector, text, err)
	}
	return el.Click(proto.InputMouseButtonLeft, 1)
}

func (t *rodTab) Capture(markers ...string) error {
	if t.router != nil {
		return nil
	}

	router := t.page.HijackRequests()
	err := router.Add("*", "", func(h *rod.Hijack) {
		u := h.Request.URL().String()
		for _, m := range markers {
			if strings.Contains(u, m) {
				t.record(u)
				h.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
				return
			}
		}
		h.ContinueRequest(&proto.FetchContinueRequest{})
	})
	if err != nil {
		return err
	}

	go router.Run()
	t.router = router
	return nil
}

func (t *rodTab) record(u string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.captured == "" {
		t.captured = u
	}
}

func (t *rodTab) Captured() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.captured, t.captured != ""
}

func (t *rodTab) ResetCapture() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.captured = ""
}

func (t *rodTab) Close() error {
	if t.router != nil {
		_ = t.router.Stop()
	}
	return t.page.Close()
}
