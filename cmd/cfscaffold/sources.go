package main

import (
	"context"
	"net/http"

	"cfscaffold/internal/browser"
	"cfscaffold/internal/cache"
	"cfscaffold/internal/codeforces"
	"cfscaffold/internal/config"
	"cfscaffold/internal/scraper"

	"go.uber.org/zap"
)

func newClient(c *config.Config) *codeforces.Client {
	return codeforces.NewClient(
		codeforces.WithBaseURLs(c.Codeforces.APIBase, c.Codeforces.SiteBase),
		codeforces.WithHTTPClient(&http.Client{Timeout: c.GetHTTPTimeout()}),
		codeforces.WithUserAgent(c.HTTP.UserAgent),
		codeforces.WithPollPolicy(c.GetPollInterval(), c.Poll.MaxAttempts),
		codeforces.WithRateLimit(c.HTTP.RequestsPerSecond),
	)
}

// newPageSource picks the page loader and puts the cache in front of it.
// The returned func releases whatever was opened.
func newPageSource(ctx context.Context, c *config.Config, client *codeforces.Client) (scraper.PageSource, func()) {
	var (
		src     scraper.PageSource = client
		closers []func() error
	)

	if c.Browser.Enabled {
		bf := browser.New(browser.Config{
			DebuggerURL:  c.Browser.DebuggerURL,
			Bin:          c.Browser.Bin,
			Headless:     c.Browser.Headless,
			Timeout:      c.GetBrowserTimeout(),
			WaitSelector: browser.DefaultConfig().WaitSelector,
		})
		src = bf
		closers = append(closers, bf.Close)
	}

	if c.Cache.Enabled {
		pc, err := cache.Open(c.Cache.Path, c.GetCacheTTL())
		if err != nil {
			logger.Warn("page cache disabled", zap.Error(err))
		} else {
			if n, err := pc.Purge(ctx); err == nil && n > 0 {
				logger.Debug("purged expired pages", zap.Int64("pages", n))
			}
			src = pc.Wrap(src)
			closers = append(closers, pc.Close)
		}
	}

	return src, func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i]()
		}
	}
}
