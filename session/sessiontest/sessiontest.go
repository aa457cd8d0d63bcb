// Package sessiontest provides in-memory page sessions for tests.
package sessiontest

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/anigrab/anigrab/session"
)

// Browser hands out Tabs and counts how many are open.
type Browser struct {
	// OpenErr, when set, is returned by NewTab.
	OpenErr error
	// Setup is applied to every tab before it is handed out.
	Setup func(*Tab)

	opened  atomic.Int32
	closed  atomic.Int32
	live    atomic.Int32
	maxLive atomic.Int32

	mu   sync.Mutex
	tabs []*Tab
}

func (b *Browser) NewTab(ctx context.Context) (session.Tab, error) {
	if b.OpenErr != nil {
		return nil, b.OpenErr
	}

	t := &Tab{browser: b, Pages: map[string]string{}}
	if b.Setup != nil {
		b.Setup(t)
	}

	b.opened.Add(1)
	live := b.live.Add(1)
	for {
		max := b.maxLive.Load()
		if live <= max || b.maxLive.CompareAndSwap(max, live) {
			break
		}
	}

	b.mu.Lock()
	b.tabs = append(b.tabs, t)
	b.mu.Unlock()
	return t, nil
}

func (b *Browser) Close() error { return nil }

// Opened is the number of tabs handed out so far.
func (b *Browser) Opened() int { return int(b.opened.Load()) }

// Closed is the number of tabs closed so far.
func (b *Browser) Closed() int { return int(b.closed.Load()) }

// MaxLive is the highest number of tabs that were open at the same time.
func (b *Browser) MaxLive() int { return int(b.maxLive.Load()) }

// Tabs returns every tab opened so far.
func (b *Browser) Tabs() []*Tab {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]*Tab(nil), b.tabs...)
}

// Tab records navigations and serves canned HTML per URL.
type Tab struct {
	// Pages maps a URL to the HTML served after navigating there.
	Pages map[string]string
	// NavigateErr, when set, decides whether a navigation fails.
	NavigateErr func(url string) error
	// EvalResult answers Eval calls for the current URL.
	EvalResult func(url, js string) (string, error)
	// OnClick is invoked by ClickText; it may call Intercepted to simulate a captured request.
	OnClick func(t *Tab, selector, text string) error

	browser *Browser

	mu       sync.Mutex
	url      string
	visited  []string
	clicks   []string
	markers  []string
	captured string
	closed   bool
}

func (t *Tab) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.mu.Lock()
	t.visited = append(t.visited, url)
	t.url = url
	t.mu.Unlock()

	if t.NavigateErr != nil {
		return t.NavigateErr(url)
	}
	return nil
}

func (t *Tab) URL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.url
}

func (t *Tab) HTML(ctx context.Context) (string, error) {
	html, ok := t.Pages[t.URL()]
	if !ok {
		return "", errors.New("no page served for " + t.URL())
	}
	return html, nil
}

func (t *Tab) Eval(ctx context.Context, js string, args ...any) (string, error) {
	if t.EvalResult == nil {
		return "", nil
	}
	return t.EvalResult(t.URL(), js)
}

func (t *Tab) ClickText(ctx context.Context, selector, text string) error {
	t.mu.Lock()
	t.clicks = append(t.clicks, text)
	t.mu.Unlock()

	if t.OnClick != nil {
		return t.OnClick(t, selector, text)
	}
	return nil
}

func (t *Tab) Capture(markers ...string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.markers = append(t.markers, markers...)
	return nil
}

// Intercepted simulates an outgoing request; it is recorded when it matches a Capture marker.
func (t *Tab) Intercepted(url string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, m := range t.markers {
		if strings.Contains(url, m) && t.captured == "" {
			t.captured = url
			return
		}
	}
}

func (t *Tab) Captured() (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.captured, t.captured != ""
}

func (t *Tab) ResetCapture() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.captured = ""
}

func (t *Tab) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.closed = true
		if t.browser != nil {
			t.browser.closed.Add(1)
			t.browser.live.Add(-1)
		}
	}
	return nil
}

// Visited lists every URL navigated to, reloads included.
func (t *Tab) Visited() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.visited...)
}

// Clicks lists the text of every ClickText call.
func (t *Tab) Clicks() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.clicks...)
}

// IsClosed reports whether Close was called.
func (t *Tab) IsClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}
