package provider

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/anigrab/anigrab/filesystem"
	"github.com/anigrab/anigrab/harvest"
	"github.com/anigrab/anigrab/log"
	"github.com/anigrab/anigrab/session"
	"github.com/anigrab/anigrab/where"
	"github.com/metafates/gache"
	"github.com/samber/mo"
)

// IndexLifetime is how long a listed series is reused before its landing page is read again.
const IndexLifetime = 24 * time.Hour

type indexData struct {
	Series map[string]*harvest.Series `json:"series"`
}

// CachedIndex remembers listed series on disk. Download pages are never cached since
// they are derived inside a browser session.
type CachedIndex struct {
	harvest.Index

	internal *gache.Cache[*indexData]
	mu       sync.RWMutex
}

// Cached wraps index with a cache at path.
func Cached(index harvest.Index, path string, lifetime time.Duration) *CachedIndex {
	return &CachedIndex{
		Index: index,
		internal: gache.New[*indexData](&gache.Options{
			Path:       path,
			Lifetime:   lifetime,
			FileSystem: filesystem.Gache{},
		}),
	}
}

// DefaultCached wraps index with the cache in the user's cache directory.
func DefaultCached(index harvest.Index) *CachedIndex {
	return Cached(index, where.Index(), IndexLifetime)
}

func cacheKey(url string) string {
	return strings.ToLower(strings.TrimSuffix(strings.TrimSpace(url), "/"))
}

// ListEpisodes serves the series from the cache or lists it and stores the result.
func (c *CachedIndex) ListEpisodes(ctx context.Context, seriesURL string) (*harvest.Series, error) {
	if series, ok := c.get(seriesURL).Get(); ok {
		return series, nil
	}

	series, err := c.Index.ListEpisodes(ctx, seriesURL)
	if err != nil {
		return nil, err
	}

	if err := c.set(seriesURL, series); err != nil {
		log.Warnf("caching series %s: %v", series.Name, err)
	}
	return series, nil
}

// DownloadPage is always answered by the wrapped index.
func (c *CachedIndex) DownloadPage(ctx context.Context, tab session.Tab, series *harvest.Series, ep harvest.Episode) (string, error) {
	return c.Index.DownloadPage(ctx, tab, series, ep)
}

// Forget drops a series from the cache.
func (c *CachedIndex) Forget(seriesURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, expired, err := c.internal.Get()
	if err != nil || expired || data == nil {
		return err
	}

	delete(data.Series, cacheKey(seriesURL))
	return c.internal.Set(data)
}

func (c *CachedIndex) get(seriesURL string) mo.Option[*harvest.Series] {
	c.mu.RLock()
	defer c.mu.RUnlock()

	data, expired, err := c.internal.Get()
	if err != nil || expired || data == nil {
		return mo.None[*harvest.Series]()
	}

	series, ok := data.Series[cacheKey(seriesURL)]
	if !ok || series == nil {
		return mo.None[*harvest.Series]()
	}
	return mo.Some(series)
}

func (c *CachedIndex) set(seriesURL string, series *harvest.Series) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	data, expired, err := c.internal.Get()
	if err != nil {
		return err
	}

	if expired || data == nil || data.Series == nil {
		data = &indexData{Series: make(map[string]*harvest.Series)}
	}
	data.Series[cacheKey(seriesURL)] = series
	return c.internal.Set(data)
}
