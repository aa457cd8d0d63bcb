// Package session provides page sessions: one browser tab owned by one worker at a time.
//
// A Session holds two separate capabilities. Tab drives the single tab the worker owns,
// Browser is the shared instance that tabs are opened on. Workers never reach the
// browser through the tab or the other way around.
package session

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrLaunch reports that the browser backend could not be started or reached.
	ErrLaunch = errors.New("browser backend unavailable")
	// ErrBackend reports that a running backend stopped handing out tabs.
	// No page work can continue, so a run hitting it must abort.
	ErrBackend = errors.New("browser backend lost")
)

// Tab is a single browser tab.
type Tab interface {
	// Navigate loads url and waits until the network settles.
	Navigate(ctx context.Context, url string) error

	// URL returns the last address passed to Navigate.
	URL() string

	// HTML returns the serialized DOM of the current document.
	HTML(ctx context.Context) (string, error)

	// Eval runs a page-side function such as `() => document.title` and returns its result as a string.
	Eval(ctx context.Context, js string, args ...any) (string, error)

	// ClickText clicks the first element matching selector whose text contains text.
	ClickText(ctx context.Context, selector, text string) error

	// Capture aborts every outgoing request whose URL contains one of markers and remembers the first one.
	Capture(markers ...string) error

	// Captured returns the first URL recorded by Capture since the last ResetCapture.
	Captured() (string, bool)

	// ResetCapture forgets the recorded URL so the next matching request is kept.
	ResetCapture()

	// Close releases the tab.
	Close() error
}

// Browser opens tabs on a shared browser instance.
type Browser interface {
	NewTab(ctx context.Context) (Tab, error)
	Close() error
}

// Session is the pair of capabilities handed to a worker.
type Session struct {
	Tab     Tab
	Browser Browser
}

// Use opens a tab on browser, runs fn with it and closes the tab on every exit path,
// including a panic inside fn, which is returned as an error.
func Use(ctx context.Context, browser Browser, fn func(*Session) error) (err error) {
	tab, err := browser.NewTab(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("open tab: %w", ctxErr)
		}
		return fmt.Errorf("%w: open tab: %w", ErrBackend, err)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page session panicked: %v", r)
		}

		if closeErr := tab.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("close tab: %w", closeErr)
		}
	}()

	return fn(&Session{Tab: tab, Browser: browser})
}
