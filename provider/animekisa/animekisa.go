// Package animekisa scrapes series, episode and download pages of animekisa.
package animekisa

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/anigrab/anigrab/harvest"
	"github.com/anigrab/anigrab/network"
	"github.com/anigrab/anigrab/quality"
	"github.com/anigrab/anigrab/session"
)

const (
	ID   = "animekisa"
	Host = "animekisa.tv"
)

var (
	// ErrNotSeries is returned for pages without a series title.
	ErrNotSeries = errors.New("not a series page")
	// ErrNoPlayer is returned when an episode page exposes no player to derive the download page from.
	ErrNoPlayer = errors.New("episode page has no player")
)

// Requests to these hosts carry the final media link. They are aborted so the browser
// never starts the download itself.
var mediaMarkers = []string{"storage.googleapis.com/", ".anicdn.stream/"}

const (
	titleSelector   = "h1.infodes"
	episodeSelector = ".infoepboxmain a"
	mirrorSelector  = ".mirror_link"
)

// The episode page stores its player address in a global; the download page lives next to it.
const downloadPageScript = `() => typeof VidStreaming === "string" ? VidStreaming.replace("load.php", "download") : ""`

// Site implements harvest.Index and quality.Extractor for animekisa.
type Site struct {
	// Fetch reads the series landing page.
	Fetch func(ctx context.Context, url string) ([]byte, error)
	// Settle is how long a click may take to produce a media request.
	Settle time.Duration
	// Poll is the interval at which captured requests are checked while settling.
	Poll time.Duration
}

// New returns the site reading landing pages over the shared network client.
func New() *Site {
	return &Site{
		Fetch:  network.Fetch,
		Settle: time.Second,
		Poll:   100 * time.Millisecond,
	}
}

// SeriesName normalizes a title for use as series name. Colons become " - ".
func SeriesName(title string) string {
	return strings.TrimSpace(strings.ReplaceAll(strings.TrimSpace(title), ":", " - "))
}

// ListEpisodes reads the landing page of a series. Episodes are numbered 1 to the
// number of episode links on the page.
func (s *Site) ListEpisodes(ctx context.Context, seriesURL string) (*harvest.Series, error) {
	body, err := s.Fetch(ctx, seriesURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", seriesURL, err)
	}

	name := SeriesName(doc.Find(titleSelector).First().Text())
	if name == "" {
		return nil, fmt.Errorf("%w: %s", ErrNotSeries, seriesURL)
	}

	count := doc.Find(episodeSelector).Length()
	series := &harvest.Series{
		Name:     name,
		URL:      strings.TrimSuffix(seriesURL, "/"),
		Episodes: make([]harvest.Episode, 0, count),
	}
	for ep := 1; ep <= count; ep++ {
		series.Episodes = append(series.Episodes, harvest.Episode(ep))
	}

	return series, nil
}

// EpisodeURL is the address of an episode page.
func EpisodeURL(series *harvest.Series, ep harvest.Episode) string {
	return fmt.Sprintf("%s-episode-%d", strings.TrimSuffix(series.URL, "/"), ep)
}

// DownloadPage opens the episode page and derives the download page from its player.
func (s *Site) DownloadPage(ctx context.Context, tab session.Tab, series *harvest.Series, ep harvest.Episode) (string, error) {
	page := EpisodeURL(series, ep)
	if err := tab.Navigate(ctx, page); err != nil {
		return "", fmt.Errorf("open episode %d: %w", ep, err)
	}

	ref, err := tab.Eval(ctx, downloadPageScript)
	if err != nil {
		return "", fmt.Errorf("read player of episode %d: %w", ep, err)
	}
	if ref = strings.TrimSpace(ref); ref == "" {
		return "", fmt.Errorf("%w: episode %d", ErrNoPlayer, ep)
	}

	return resolve(page, ref)
}

// Prepare starts capturing media requests before the download page loads.
func (s *Site) Prepare(_ context.Context, tab session.Tab) error {
	return tab.Capture(mediaMarkers...)
}

// ExtractCandidates lists the mirrors of the loaded download page.
func (s *Site) ExtractCandidates(ctx context.Context, tab session.Tab) ([]quality.Candidate, error) {
	html, err := tab.HTML(ctx)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, err
	}

	var candidates []quality.Candidate
	doc.Find(mirrorSelector).First().Find("a").Each(func(_ int, a *goquery.Selection) {
		tier, ok := quality.ParseTier(a.Text())
		if !ok {
			return
		}

		href, _ := a.Attr("href")
		if abs, err := resolve(tab.URL(), href); err == nil {
			href = abs
		}
		candidates = append(candidates, quality.Candidate{Tier: tier, Link: href})
	})

	return candidates, nil
}

// MaterializeLink clicks the mirror of c and waits for the media request it triggers.
// The download page is the referrer of the link.
func (s *Site) MaterializeLink(ctx context.Context, tab session.Tab, c quality.Candidate) (quality.Link, error) {
	// a late request from an earlier mirror must not be credited to this one
	tab.ResetCapture()
	if err := tab.ClickText(ctx, mirrorSelector+" a", c.Tier.String()); err != nil {
		return quality.Link{}, fmt.Errorf("click %s mirror: %w", c.Tier, err)
	}

	media, err := s.await(ctx, tab)
	if err != nil || media == "" {
		return quality.Link{}, err
	}
	return quality.Link{URL: media, Referrer: tab.URL()}, nil
}

func (s *Site) await(ctx context.Context, tab session.Tab) (string, error) {
	deadline := time.NewTimer(s.Settle)
	defer deadline.Stop()

	tick := time.NewTicker(max(s.Poll, 10*time.Millisecond))
	defer tick.Stop()

	for {
		if media, ok := tab.Captured(); ok {
			return media, nil
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline.C:
			media, _ := tab.Captured()
			return media, nil
		case <-tick.C:
		}
	}
}

func resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", err
	}
	return b.ResolveReference(r).String(), nil
}
