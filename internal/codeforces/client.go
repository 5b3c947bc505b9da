// Package codeforces talks to the contest service: the JSON standings API
// used to discover a contest's problems, and the HTML problem pages the
// scraper reads samples from.
package codeforces

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"cfscaffold/internal/logging"
	"cfscaffold/internal/types"

	"github.com/go-playground/validator/v10"
	"golang.org/x/time/rate"
)

const (
	defaultAPIBase     = "https://codeforces.com/api"
	defaultSiteBase    = "https://codeforces.com"
	defaultInterval    = 500 * time.Millisecond
	defaultMaxAttempts = 20
	maxBodyBytes       = 8 << 20
)

// Sleeper blocks for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Client fetches contest metadata and problem pages.
type Client struct {
	apiBase     string
	siteBase    string
	userAgent   string
	httpClient  *http.Client
	limiter     *rate.Limiter
	validate    *validator.Validate
	interval    time.Duration
	maxAttempts int
	sleep       Sleeper
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURLs overrides the API and site roots.
func WithBaseURLs(apiBase, siteBase string) Option {
	return func(c *Client) {
		if apiBase != "" {
			c.apiBase = strings.TrimRight(apiBase, "/")
		}
		if siteBase != "" {
			c.siteBase = strings.TrimRight(siteBase, "/")
		}
	}
}

// WithHTTPClient sets the transport.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithUserAgent sets the User-Agent header sent on every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithPollPolicy bounds the not-ready retry loop.
func WithPollPolicy(interval time.Duration, maxAttempts int) Option {
	return func(c *Client) {
		if interval > 0 {
			c.interval = interval
		}
		if maxAttempts > 0 {
			c.maxAttempts = maxAttempts
		}
	}
}

// WithRateLimit caps outgoing requests per second. Zero disables the limit.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithSleeper replaces the wait between poll attempts.
func WithSleeper(s Sleeper) Option {
	return func(c *Client) { c.sleep = s }
}

// NewClient creates a client with production defaults.
func NewClient(opts ...Option) *Client {
	c := &Client{
		apiBase:     defaultAPIBase,
		siteBase:    defaultSiteBase,
		userAgent:   "cfscaffold/1.0",
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		limiter:     rate.NewLimiter(rate.Inf, 1),
		validate:    validator.New(),
		interval:    defaultInterval,
		maxAttempts: defaultMaxAttempts,
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// FetchContest resolves a contest id to its metadata and ordered problem
// list. A FAILED answer, an unknown status or a malformed payload ends the
// call immediately; an OK answer without a result is retried after the poll
// interval until the attempt budget runs out.
func (c *Client) FetchContest(ctx context.Context, contestID int) (types.Contest, []types.Problem, error) {
	if contestID <= 0 {
		return types.Contest{}, nil, fmt.Errorf("invalid contest id %d", contestID)
	}

	for attempt := 1; ; attempt++ {
		resp, err := c.standings(ctx, contestID)
		if err != nil {
			return types.Contest{}, nil, err
		}

		switch resp.Status {
		case StatusFailed:
			return types.Contest{}, nil, &APIError{Comment: resp.Comment}
		case StatusOK:
			if resp.Result != nil {
				if err := c.check(contestID, resp.Result); err != nil {
					return types.Contest{}, nil, err
				}
				logging.Fetch("contest %d %q: %d problems after %d attempt(s)",
					contestID, resp.Result.Contest.Name, len(resp.Result.Problems), attempt)
				return resp.Result.Contest, resp.Result.Problems, nil
			}
		}

		if attempt >= c.maxAttempts {
			return types.Contest{}, nil, fmt.Errorf("%w: contest %d after %d attempts", ErrNotReady, contestID, attempt)
		}

		logging.FetchDebug("contest %d not ready (attempt %d/%d), waiting %v", contestID, attempt, c.maxAttempts, c.interval)
		if err := c.sleep(ctx, c.interval); err != nil {
			return types.Contest{}, nil, err
		}
	}
}

func (c *Client) check(contestID int, res *StandingsResult) error {
	if err := c.validate.Struct(res); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if res.Contest.ID != contestID {
		return fmt.Errorf("%w: asked for contest %d, got %d", ErrMalformedPayload, contestID, res.Contest.ID)
	}
	for _, p := range res.Problems {
		if p.ContestID != contestID {
			return fmt.Errorf("%w: problem %s belongs to contest %d", ErrMalformedPayload, p.Index, p.ContestID)
		}
	}
	return nil
}

// StandingsURL builds the minimal standings query for a contest.
func (c *Client) StandingsURL(contestID int) string {
	q := url.Values{}
	q.Set("contestId", strconv.Itoa(contestID))
	q.Set("from", "1")
	q.Set("count", "1")
	return c.apiBase + "/contest.standings?" + q.Encode()
}

// ProblemURL builds the public statement URL of a problem.
func (c *Client) ProblemURL(contestID int, index string) string {
	return fmt.Sprintf("%s/contest/%d/problem/%s", c.siteBase, contestID, url.PathEscape(index))
}

func (c *Client) standings(ctx context.Context, contestID int) (*Response, error) {
	status, body, err := c.get(ctx, c.StandingsURL(contestID), "application/json")
	if err != nil {
		return nil, err
	}

	resp, err := decodeResponse(body)
	if err != nil {
		// The API answers unknown contests with 400 and a FAILED body, so the
		// body is decoded first and the HTTP status only explains failures.
		if status < 200 || status > 299 {
			return nil, fmt.Errorf("standings: HTTP %d", status)
		}
		return nil, err
	}
	return resp, nil
}

// FetchPage downloads a page and returns its body. Non-2xx answers are
// errors.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	status, body, err := c.get(ctx, pageURL, "text/html,application/xhtml+xml")
	if err != nil {
		return "", err
	}
	if status < 200 || status > 299 {
		return "", fmt.Errorf("HTTP %d: %s", status, pageURL)
	}
	return string(body), nil
}

func (c *Client) get(ctx context.Context, target, accept string) (int, []byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", accept)

	timer := logging.StartTimer(logging.CategoryFetch, "GET "+target)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to fetch %s: %w", target, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	timer.StopWithThreshold(5 * time.Second)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}
