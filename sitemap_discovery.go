package main

import (
	"context"
	"net/url"
	"time"

	"github.com/temoto/robotstxt"
)

// SitemapDiscoverer resolves a source's sitemap URL from the "Sitemap:"
// directives in its robots.txt. Sources configured by site root rather than
// by an explicit sitemap URL go through discovery; everything about it is
// best-effort with a /sitemap.xml fallback.
type SitemapDiscoverer struct {
	Fetch        func(ctx context.Context, docURL *url.URL) (string, error)
	Logger       Logger
	FetchTimeout time.Duration
}

// DiscoverSitemapURL returns the first sitemap advertised by siteRoot's
// robots.txt, or siteRoot/sitemap.xml when robots.txt is missing, unparseable,
// or silent about sitemaps.
func (d *SitemapDiscoverer) DiscoverSitemapURL(ctx context.Context, siteRoot *url.URL) *url.URL {
	fallback, _ := siteRoot.Parse("/sitemap.xml")

	robotsURL, err := siteRoot.Parse("/robots.txt")
	if err != nil {
		return fallback
	}

	fetchCtx, cancel := context.WithTimeout(ctx, d.FetchTimeout)
	defer cancel()
	content, err := d.Fetch(fetchCtx, robotsURL)
	if err != nil {
		d.Logger.Warn("robots.txt unavailable for %s, assuming /sitemap.xml: %v", siteRoot.Host, err)
		return fallback
	}

	robots, err := robotstxt.FromString(content)
	if err != nil {
		d.Logger.Warn("robots.txt for %s unparseable, assuming /sitemap.xml: %v", siteRoot.Host, err)
		return fallback
	}

	for _, advertised := range robots.Sitemaps {
		sitemapURL, err := resolveSitemapRef(siteRoot, advertised)
		if err != nil {
			d.Logger.Warn("ignoring unparseable sitemap directive %q in robots.txt for %s", advertised, siteRoot.Host)
			continue
		}
		d.Logger.Debug("robots.txt for %s advertises sitemap %s", siteRoot.Host, sitemapURL.String())
		return sitemapURL
	}

	return fallback
}
