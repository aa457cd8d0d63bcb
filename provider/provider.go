// Package provider registers the sites anigrab can harvest.
package provider

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/anigrab/anigrab/harvest"
	"github.com/anigrab/anigrab/provider/animekisa"
	"github.com/anigrab/anigrab/quality"
	"github.com/samber/lo"
)

// ErrUnknownSite is returned for site names that are not registered.
var ErrUnknownSite = errors.New("unknown site")

// Site is everything the harvest needs from a streaming site.
type Site interface {
	harvest.Index
	quality.Extractor
}

// Provider describes a built-in site.
type Provider struct {
	ID   string
	Name string
	// Host is the domain series URLs of the site live on.
	Host string
	New  func() Site
}

func (p *Provider) String() string {
	return p.Name
}

// Builtins returns the built-in providers.
func Builtins() []*Provider {
	return []*Provider{
		{
			ID:   animekisa.ID,
			Name: "AnimeKisa",
			Host: animekisa.Host,
			New:  func() Site { return animekisa.New() },
		},
	}
}

// Get finds a provider by ID or name, ignoring case.
func Get(name string) (*Provider, error) {
	p, ok := lo.Find(Builtins(), func(p *Provider) bool {
		return strings.EqualFold(p.ID, name) || strings.EqualFold(p.Name, name)
	})
	if !ok {
		return nil, fmt.Errorf("%w %q, available: %s", ErrUnknownSite, name, strings.Join(IDs(), ", "))
	}
	return p, nil
}

// ForURL finds the provider serving rawURL by its host.
func ForURL(rawURL string) (*Provider, bool) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, false
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	return lo.Find(Builtins(), func(p *Provider) bool {
		return host == p.Host || strings.HasSuffix(host, "."+p.Host)
	})
}

// IDs lists the IDs of all built-in providers.
func IDs() []string {
	return lo.Map(Builtins(), func(p *Provider, _ int) string { return p.ID })
}
