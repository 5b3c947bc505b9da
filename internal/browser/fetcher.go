// Package browser loads problem pages through a headless Chrome driven by
// go-rod, for when the plain HTTP fetch is served an interstitial instead of
// the statement.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"cfscaffold/internal/logging"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// ErrChallenge is returned when the loaded page is still an anti-bot
// interstitial after the wait selector timed out.
var ErrChallenge = errors.New("page is a browser challenge, not the problem statement")

// Config controls how Chrome is reached.
type Config struct {
	// DebuggerURL attaches to a running Chrome instead of launching one.
	DebuggerURL string
	// Bin overrides the Chrome binary used by the launcher.
	Bin      string
	Headless bool
	// Timeout bounds each page load.
	Timeout time.Duration
	// WaitSelector must appear before the HTML is read. Empty waits for the
	// load event only.
	WaitSelector string
}

// DefaultConfig returns a headless config waiting for the statement block.
func DefaultConfig() Config {
	return Config{
		Headless:     true,
		Timeout:      45 * time.Second,
		WaitSelector: ".problem-statement",
	}
}

// Fetcher owns one Chrome connection and opens a page per fetch.
type Fetcher struct {
	cfg        Config
	mu         sync.Mutex
	browser    *rod.Browser
	launched   *launcher.Launcher
	controlURL string
}

// New creates a fetcher. Chrome is started lazily on the first fetch.
func New(cfg Config) *Fetcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	return &Fetcher{cfg: cfg}
}

// Start connects to the configured debugger URL or launches Chrome.
func (f *Fetcher) Start(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		if _, err := f.browser.Version(); err == nil {
			return nil
		}
		logging.Browser("stale browser connection, reconnecting")
		_ = f.browser.Close()
		f.browser = nil
		f.controlURL = ""
	}

	controlURL := f.cfg.DebuggerURL
	if controlURL == "" {
		l := launcher.New().Headless(f.cfg.Headless)
		if f.cfg.Bin != "" {
			l = l.Bin(f.cfg.Bin)
		}
		url, err := l.Launch()
		if err != nil {
			return fmt.Errorf("launch chrome: %w", err)
		}
		f.launched = l
		controlURL = url
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("connect to chrome: %w", err)
	}
	f.browser = b
	f.controlURL = controlURL
	logging.BrowserDebug("connected to %s", controlURL)
	return nil
}

// ControlURL returns the DevTools WebSocket URL in use.
func (f *Fetcher) ControlURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.controlURL
}

// FetchPage navigates a fresh tab to pageURL and returns the rendered HTML.
func (f *Fetcher) FetchPage(ctx context.Context, pageURL string) (string, error) {
	if err := f.Start(ctx); err != nil {
		return "", err
	}

	f.mu.Lock()
	b := f.browser
	f.mu.Unlock()

	page, err := b.Page(proto.TargetCreateTarget{})
	if err != nil {
		return "", fmt.Errorf("open tab: %w", err)
	}
	defer page.Close()

	timer := logging.StartTimer(logging.CategoryBrowser, "load "+pageURL)
	defer timer.StopWithThreshold(10 * time.Second)

	p := page.Context(ctx).Timeout(f.cfg.Timeout)
	if err := p.Navigate(pageURL); err != nil {
		return "", fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	if err := p.WaitLoad(); err != nil {
		return "", fmt.Errorf("wait for load of %s: %w", pageURL, err)
	}

	var waitErr error
	if f.cfg.WaitSelector != "" {
		_, waitErr = p.Element(f.cfg.WaitSelector)
	}

	html, err := page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("read html of %s: %w", pageURL, err)
	}
	if waitErr != nil {
		if IsChallenge(html) {
			return "", fmt.Errorf("%w: %s", ErrChallenge, pageURL)
		}
		logging.Browser("%s never showed %s: %v", pageURL, f.cfg.WaitSelector, waitErr)
	}
	return html, nil
}

// Close shuts the browser down and kills a launched Chrome.
func (f *Fetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	var err error
	if f.browser != nil {
		err = f.browser.Close()
		f.browser = nil
	}
	if f.launched != nil {
		f.launched.Kill()
		f.launched.Cleanup()
		f.launched = nil
	}
	f.controlURL = ""
	return err
}

// Only markers that appear on the interstitial itself. The challenge-platform
// script is also injected into normal pages and must not count.
var challengeMarkers = []string{
	"<title>Just a moment...</title>",
	"cf-browser-verification",
}

// IsChallenge reports whether html looks like an anti-bot interstitial.
func IsChallenge(html string) bool {
	for _, m := range challengeMarkers {
		if strings.Contains(html, m) {
			return true
		}
	}
	return false
}
