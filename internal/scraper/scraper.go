// Package scraper extracts sample tests from problem statement pages.
package scraper

import (
	"context"
	"fmt"
	"strings"

	"cfscaffold/internal/logging"
	"cfscaffold/internal/types"
)

// PageSource downloads a page body.
type PageSource interface {
	FetchPage(ctx context.Context, url string) (string, error)
}

// URLFunc maps a problem to its statement URL.
type URLFunc func(contestID int, index string) string

// Scraper fetches problem pages and extracts their samples.
type Scraper struct {
	source     PageSource
	urlFor     URLFunc
	keepMarkup bool
}

// Option configures a Scraper.
type Option func(*Scraper)

// WithKeepMarkup embeds raw sample markup instead of decoded text.
func WithKeepMarkup(keep bool) Option {
	return func(s *Scraper) { s.keepMarkup = keep }
}

// New creates a scraper reading pages from source.
func New(source PageSource, urlFor URLFunc, opts ...Option) *Scraper {
	s := &Scraper{source: source, urlFor: urlFor}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scrape returns the ordered samples of one problem.
func (s *Scraper) Scrape(ctx context.Context, contestID int, index string) ([]types.SampleTest, error) {
	url := s.urlFor(contestID, index)
	logging.ScrapeDebug("fetching %s", url)

	page, err := s.source.FetchPage(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch problem %d%s: %w", contestID, index, err)
	}

	samples, err := Extract(strings.NewReader(page), s.keepMarkup)
	if err != nil {
		return nil, fmt.Errorf("problem %d%s: %w", contestID, index, err)
	}

	if len(samples) == 0 {
		logging.ScrapeWarn("problem %d%s: no samples found", contestID, index)
	} else {
		logging.Scrape("problem %d%s: %d sample(s)", contestID, index, len(samples))
	}
	return samples, nil
}
