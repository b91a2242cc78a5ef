// File: internal/browser/session.go
package browser

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sourcing-cli/internal/config"
	"github.com/xkilldash9x/sourcing-cli/internal/linkedin"
)

// Session owns one headless Chrome instance with a single tab. Lifecycle is
// strictly start once, use, close once; Close is idempotent and never fails.
type Session struct {
	id     string
	cfg    config.BrowserConfig
	logger *zap.Logger

	mu          sync.Mutex
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc
	started     bool
	closed      bool
	closeOnce   sync.Once
}

// NewSession prepares a session without launching the browser.
func NewSession(cfg config.BrowserConfig, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.New().String()
	return &Session{
		id:     id,
		cfg:    cfg,
		logger: logger.Named("browser").With(zap.String("session_id", id)),
	}
}

// execAllocatorOptions translates browser configuration into chromedp
// allocator options.
func execAllocatorOptions(cfg config.BrowserConfig) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		// Required on hardened and containerized hosts.
		chromedp.NoSandbox,
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.DisableGPU,
		chromedp.WindowSize(cfg.ViewportWidth, cfg.ViewportHeight),
	)
	if !cfg.Headless {
		opts = append(opts, chromedp.Flag("headless", false))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	for _, arg := range cfg.Args {
		if !strings.Contains(arg, "=") {
			opts = append(opts, chromedp.Flag(strings.TrimPrefix(arg, "--"), true))
			continue
		}
		parts := strings.SplitN(arg, "=", 2)
		opts = append(opts, chromedp.Flag(strings.TrimPrefix(parts[0], "--"), parts[1]))
	}
	return opts
}

// Start launches the browser. The given context bounds the whole browser
// lifetime, not just the launch.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return linkedin.NewError(linkedin.KindNetwork, "session already closed")
	}
	if s.started {
		return linkedin.NewError(linkedin.KindNetwork, "session already started")
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, execAllocatorOptions(s.cfg)...)
	tabCtx, tabCancel := chromedp.NewContext(allocCtx)

	// Run with no actions forces the browser process to launch now, so
	// startup failures surface here instead of on the first navigation.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		allocCancel()
		return linkedin.WrapError(linkedin.KindNetwork, "starting browser", err)
	}

	s.allocCancel = allocCancel
	s.tabCtx = tabCtx
	s.tabCancel = tabCancel
	s.started = true
	s.logger.Info("Browser launched.", zap.Bool("headless", s.cfg.Headless))
	return nil
}

// Close tears the tab and browser down. Each step is individually guarded;
// failures are logged, never returned.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.closed = true
		if !s.started {
			return
		}
		if s.tabCancel != nil {
			s.tabCancel()
		}
		if s.allocCancel != nil {
			s.allocCancel()
		}
		s.started = false
		s.logger.Info("Browser closed.")
	})
}

// Run executes chromedp actions on the session tab, bounded by the
// navigation timeout and the caller's context.
func (s *Session) Run(ctx context.Context, actions ...chromedp.Action) error {
	return s.runWithTimeout(ctx, s.cfg.NavigationTimeout, actions...)
}

func (s *Session) runWithTimeout(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	s.mu.Lock()
	tabCtx := s.tabCtx
	ok := s.started && !s.closed
	s.mu.Unlock()
	if !ok {
		return linkedin.NewError(linkedin.KindNetwork, "browser session not running")
	}

	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(tabCtx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(tabCtx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

// Navigate loads a URL and waits for the document body.
func (s *Session) Navigate(ctx context.Context, url string) error {
	err := s.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
	)
	if err != nil {
		return linkedin.WrapError(linkedin.KindNetwork, "navigating to "+url, err)
	}
	return nil
}

// Location returns the tab's current URL.
func (s *Session) Location(ctx context.Context) (string, error) {
	var url string
	if err := s.Run(ctx, chromedp.Location(&url)); err != nil {
		return "", err
	}
	return url, nil
}

// Evaluate runs a JavaScript expression in the page and decodes the result
// into out. Pass nil to discard the result.
func (s *Session) Evaluate(ctx context.Context, expr string, out any) error {
	if out == nil {
		var discard any
		out = &discard
	}
	return s.Run(ctx, chromedp.Evaluate(expr, out))
}

// StorageState captures the browser's cookies in the durable session format.
func (s *Session) StorageState(ctx context.Context) (*linkedin.StorageState, error) {
	var cookies []*network.Cookie
	err := s.Run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(c)
		return err
	}))
	if err != nil {
		return nil, linkedin.WrapError(linkedin.KindNetwork, "capturing storage state", err)
	}

	state := &linkedin.StorageState{Cookies: make([]linkedin.Cookie, 0, len(cookies))}
	for _, ck := range cookies {
		state.Cookies = append(state.Cookies, linkedin.Cookie{
			Name:     ck.Name,
			Value:    ck.Value,
			Domain:   ck.Domain,
			Path:     ck.Path,
			Expires:  ck.Expires,
			HTTPOnly: ck.HTTPOnly,
			Secure:   ck.Secure,
			SameSite: string(ck.SameSite),
		})
	}
	return state, nil
}

// RestoreStorageState replaces the browser's cookies with a saved set.
func (s *Session) RestoreStorageState(ctx context.Context, state *linkedin.StorageState) error {
	if state == nil {
		return nil
	}
	err := s.Run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		if err := network.ClearBrowserCookies().Do(c); err != nil {
			return err
		}
		for _, ck := range state.Cookies {
			if err := setCookie(c, ck); err != nil {
				return err
			}
		}
		return nil
	}))
	if err != nil {
		return linkedin.WrapError(linkedin.KindNetwork, "restoring storage state", err)
	}
	s.logger.Debug("Storage state restored.", zap.Int("cookies", len(state.Cookies)))
	return nil
}

// SetCookie installs a single cookie into the browser.
func (s *Session) SetCookie(ctx context.Context, ck linkedin.Cookie) error {
	err := s.Run(ctx, chromedp.ActionFunc(func(c context.Context) error {
		return setCookie(c, ck)
	}))
	if err != nil {
		return linkedin.WrapError(linkedin.KindNetwork, "setting cookie "+ck.Name, err)
	}
	return nil
}

func setCookie(ctx context.Context, ck linkedin.Cookie) error {
	p := network.SetCookie(ck.Name, ck.Value).
		WithDomain(ck.Domain).
		WithPath(ck.Path).
		WithHTTPOnly(ck.HTTPOnly).
		WithSecure(ck.Secure)
	if ck.Expires > 0 {
		expires := cdp.TimeSinceEpoch(time.Unix(int64(ck.Expires), 0))
		p = p.WithExpires(&expires)
	}
	return p.Do(ctx)
}

// ScrollToBottom scrolls in steps until the page height stops growing, to
// trigger lazy-loaded content.
func (s *Session) ScrollToBottom(ctx context.Context, pause time.Duration, maxScrolls int) {
	for i := 0; i < maxScrolls; i++ {
		var prev, next int
		if err := s.Evaluate(ctx, "document.body.scrollHeight", &prev); err != nil {
			return
		}
		if err := s.Evaluate(ctx, "window.scrollTo(0, document.body.scrollHeight)", nil); err != nil {
			return
		}
		select {
		case <-time.After(pause):
		case <-ctx.Done():
			return
		}
		if err := s.Evaluate(ctx, "document.body.scrollHeight", &next); err != nil {
			return
		}
		if next == prev {
			return
		}
	}
}

// ScrollToHalf jumps to the middle of the page.
func (s *Session) ScrollToHalf(ctx context.Context) {
	_ = s.Evaluate(ctx, "window.scrollTo(0, document.body.scrollHeight / 2)", nil)
}

// expandButtonsJS clicks one visible expansion control and reports whether
// it found any.
const expandButtonsJS = `(() => {
	const labels = ["see more", "show more", "show all"];
	const buttons = Array.from(document.querySelectorAll("button"));
	for (const b of buttons) {
		const text = (b.innerText || "").trim().toLowerCase();
		if (labels.some(l => text.includes(l)) && b.offsetParent !== null) {
			b.click();
			return true;
		}
	}
	return false;
})()`

// ExpandSections clicks "see more" style controls until none are left,
// returning how many were clicked.
func (s *Session) ExpandSections(ctx context.Context, maxAttempts int) int {
	clicked := 0
	for i := 0; i < maxAttempts; i++ {
		var found bool
		if err := s.Evaluate(ctx, expandButtonsJS, &found); err != nil || !found {
			break
		}
		clicked++
		select {
		case <-time.After(500 * time.Millisecond):
		case <-ctx.Done():
			return clicked
		}
	}
	return clicked
}

const dismissModalJS = `(() => {
	const btn = document.querySelector(
		'button[aria-label="Dismiss"], button[aria-label="Close"], button.artdeco-modal__dismiss');
	if (btn && btn.offsetParent !== null) {
		btn.click();
		return true;
	}
	return false;
})()`

// DismissModal closes an obscuring dialog if one is present.
func (s *Session) DismissModal(ctx context.Context) bool {
	var dismissed bool
	if err := s.Evaluate(ctx, dismissModalJS, &dismissed); err != nil {
		return false
	}
	if dismissed {
		time.Sleep(500 * time.Millisecond)
	}
	return dismissed
}

// ID returns the session identifier used in logs.
func (s *Session) ID() string { return s.id }
