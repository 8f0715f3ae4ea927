// SPDX-License-Identifier: MIT

package resolver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/ev2m3u/ev2m3u/internal/log"
)

// ChromeConfig tunes the headless-browser resolver.
type ChromeConfig struct {
	Matcher    *Matcher
	Timeout    time.Duration // resolve race timeout
	NavTimeout time.Duration // navigation deadline, independent of the race
	Settle     time.Duration // grace for late candidates after navigation
	ExecPath   string        // optional browser binary override
}

func (c *ChromeConfig) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 6 * time.Second
	}
	if c.NavTimeout <= 0 {
		c.NavTimeout = 15 * time.Second
	}
	if c.Settle <= 0 {
		c.Settle = 1500 * time.Millisecond
	}
}

// Chrome resolves embed references by opening them in a shared headless
// browser and capturing the first matching outgoing request. One Chrome
// instance owns one browser process; each Resolve call runs in its own tab.
type Chrome struct {
	cfg      ChromeConfig
	allocCtx context.Context
	cancel   context.CancelFunc
}

// NewChrome starts a browser allocator bound to parent. Callers must Close it.
func NewChrome(parent context.Context, cfg ChromeConfig) (*Chrome, error) {
	cfg.defaults()
	if cfg.Matcher == nil {
		m, err := NewMatcher("")
		if err != nil {
			return nil, err
		}
		cfg.Matcher = m
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts,
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("autoplay-policy", "no-user-gesture-required"),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(parent, opts...)
	return &Chrome{cfg: cfg, allocCtx: allocCtx, cancel: cancel}, nil
}

// Close releases the browser process.
func (c *Chrome) Close() {
	c.cancel()
}

// Resolve opens embedRef in a fresh tab and returns the first direct stream
// URL observed on the wire, falling back to one scan of the rendered page.
// The request listener is installed before navigation starts so no request
// can slip past, and the tab is torn down on every exit path.
func (c *Chrome) Resolve(ctx context.Context, embedRef string) (string, error) {
	logger := log.WithComponentFromContext(ctx, "resolver")

	tabCtx, cancelTab := chromedp.NewContext(c.allocCtx)

	// First observed candidate wins on the live-capture path.
	found := make(chan string, 1)
	var once sync.Once
	chromedp.ListenTarget(tabCtx, func(ev interface{}) {
		req, ok := ev.(*network.EventRequestWillBeSent)
		if !ok {
			return
		}
		if u := req.Request.URL; c.cfg.Matcher.MatchURL(u) {
			once.Do(func() { found <- u })
		}
	})

	navCtx, cancelNav := context.WithTimeout(tabCtx, c.cfg.NavTimeout)
	navDone := make(chan error, 1)
	go func() {
		navDone <- chromedp.Run(navCtx,
			network.Enable(),
			chromedp.Navigate(embedRef),
		)
	}()

	defer func() {
		cancelNav()
		cancelTab()
		<-navDone // never leave the navigation goroutine dangling
	}()

	u, waitErr := awaitCandidate(ctx, found, c.cfg.Timeout)
	if waitErr == nil {
		logger.Info().
			Str("event", "resolve.captured").
			Str("embed", embedRef).
			Msg("stream URL captured from request traffic")
		return u, nil
	}
	if !errors.Is(waitErr, ErrTimeout) && !errors.Is(waitErr, ErrNotFound) {
		return "", waitErr // caller context cancelled
	}

	// Navigation failure alone is not fatal; scan whatever page state exists.
	if err := <-navDone; err != nil {
		logger.Debug().
			Err(err).
			Str("event", "resolve.nav_failed").
			Str("embed", embedRef).
			Msg("navigation did not complete")
	}
	navDone <- nil // keep the deferred drain non-blocking

	// Grace period for a candidate that raced navigation completion.
	select {
	case u := <-found:
		if u != "" {
			logger.Info().
				Str("event", "resolve.captured_late").
				Str("embed", embedRef).
				Msg("stream URL captured during settle")
			return u, nil
		}
	case <-time.After(c.cfg.Settle):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	// Fallback: first match in document order, deliberately different from
	// the first-observed tie-break of live capture.
	var html string
	scanCtx, cancelScan := context.WithTimeout(tabCtx, 3*time.Second)
	scanErr := chromedp.Run(scanCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	cancelScan()
	if scanErr == nil {
		if u := c.cfg.Matcher.ScanContent(html); u != "" {
			logger.Info().
				Str("event", "resolve.scanned").
				Str("embed", embedRef).
				Msg("stream URL found in page content")
			return u, nil
		}
		return "", ErrNotFound
	}
	logger.Debug().
		Err(scanErr).
		Str("event", "resolve.scan_failed").
		Str("embed", embedRef).
		Msg("content scan failed")
	return "", waitErr
}
