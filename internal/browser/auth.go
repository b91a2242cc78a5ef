// File: internal/browser/auth.go
package browser

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sourcing-cli/internal/config"
	"github.com/xkilldash9x/sourcing-cli/internal/linkedin"
)

const (
	loginURL = "https://www.linkedin.com/login"
	feedURL  = "https://www.linkedin.com/feed/"

	loginConfirmWindow  = 10 * time.Second
	cookieConfirmWindow = 5 * time.Second
	urlPollInterval     = 500 * time.Millisecond
	checkpointInterval  = time.Second
)

// warmUpURLs are visited before the login page so the session does not open
// cold on LinkedIn. Failures are ignored.
var warmUpURLs = []string{
	"https://www.google.com",
	"https://www.wikipedia.org",
}

// blockerPaths mark URLs that can never belong to a logged-in session.
var blockerPaths = []string{"/login", "/authwall", "/checkpoint", "/challenge", "/uas/login"}

// authedPaths are pages only reachable with a valid session.
var authedPaths = []string{"/feed", "/mynetwork", "/messaging", "/notifications", "/in/"}

// loggedInProbeJS counts navigation chrome that only renders for
// authenticated members, across the old and new shells.
const loggedInProbeJS = `(
	document.querySelectorAll('[data-testid="primary-nav"]').length +
	document.querySelectorAll('.global-nav__primary-link, [data-control-name="nav.settings"]').length +
	document.querySelectorAll('nav a[href*="/feed"], nav a[href*="/mynetwork"]').length
)`

// Authenticator drives interactive LinkedIn logins over a browser session.
type Authenticator struct {
	session *Session
	cfg     config.BrowserConfig
	logger  *zap.Logger
}

func NewAuthenticator(session *Session, cfg config.BrowserConfig, logger *zap.Logger) *Authenticator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Authenticator{
		session: session,
		cfg:     cfg,
		logger:  logger.Named("auth"),
	}
}

// Login signs in with email and password. Security checkpoints are waited
// out so a human can complete verification in a non-headless window; an auth
// wall fails immediately.
func (a *Authenticator) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return linkedin.NewError(linkedin.KindAuthentication, "email and password are required")
	}

	if a.cfg.WarmUp {
		a.warmUp(ctx)
	}
	a.logger.Info("Logging in to LinkedIn.")

	if err := a.session.Navigate(ctx, loginURL); err != nil {
		return err
	}
	if err := a.CheckRateLimit(ctx); err != nil {
		return err
	}

	err := a.session.runWithTimeout(ctx, a.cfg.LoginTimeout,
		chromedp.WaitVisible("#username", chromedp.ByID),
		chromedp.SendKeys("#username", email, chromedp.ByID),
		chromedp.SendKeys("#password", password, chromedp.ByID),
		chromedp.Click(`button[type="submit"]`, chromedp.ByQuery),
	)
	if err != nil {
		return linkedin.WrapError(linkedin.KindAuthentication, "submitting login form", err)
	}

	url, reached := a.pollURL(ctx, a.cfg.LoginTimeout, urlPollInterval, func(u string) bool {
		return strings.Contains(u, "feed") || strings.Contains(u, "checkpoint") || strings.Contains(u, "authwall")
	})
	if !reached && strings.Contains(url, "login") {
		return linkedin.NewError(linkedin.KindAuthentication, "login failed, page did not navigate")
	}

	switch {
	case strings.Contains(url, "authwall"):
		return linkedin.NewError(linkedin.KindAuthentication, "auth wall encountered: "+url)
	case strings.Contains(url, "checkpoint") || strings.Contains(url, "challenge"):
		if err := a.waitOutCheckpoint(ctx); err != nil {
			return err
		}
	}

	// Confirm via the navigation chrome. An inconclusive probe is only a
	// warning; the session may still be perfectly valid.
	if a.confirmLoggedIn(ctx, loginConfirmWindow) {
		a.logger.Info("Login succeeded.")
		return nil
	}
	a.logger.Warn("Could not verify login via navigation elements, proceeding anyway.")
	return nil
}

// LoginWithCookie authenticates by injecting a raw li_at session cookie.
func (a *Authenticator) LoginWithCookie(ctx context.Context, liAt string) error {
	if liAt == "" {
		return linkedin.NewError(linkedin.KindAuthentication, "li_at cookie value is required")
	}
	a.logger.Info("Logging in with li_at cookie.")

	err := a.session.SetCookie(ctx, linkedin.Cookie{
		Name:   "li_at",
		Value:  liAt,
		Domain: ".linkedin.com",
		Path:   "/",
	})
	if err != nil {
		return err
	}
	if err := a.session.Navigate(ctx, feedURL); err != nil {
		return err
	}

	url, _ := a.session.Location(ctx)
	if strings.Contains(url, "login") || strings.Contains(url, "authwall") {
		return linkedin.NewError(linkedin.KindAuthentication, "cookie login failed, cookie may be expired")
	}
	if a.confirmLoggedIn(ctx, cookieConfirmWindow) {
		a.logger.Info("Cookie login succeeded.")
		return nil
	}
	a.logger.Warn("Could not verify cookie login, proceeding anyway.")
	return nil
}

// IsLoggedIn reports whether the current page belongs to an authenticated
// session. Probe failures read as not logged in.
func (a *Authenticator) IsLoggedIn(ctx context.Context) bool {
	url, err := a.session.Location(ctx)
	if err != nil {
		return false
	}
	for _, b := range blockerPaths {
		if strings.Contains(url, b) {
			return false
		}
	}

	var navCount int
	if err := a.session.Evaluate(ctx, loggedInProbeJS, &navCount); err == nil && navCount > 0 {
		return true
	}
	for _, p := range authedPaths {
		if strings.Contains(url, p) {
			return true
		}
	}
	return false
}

// CheckRateLimit inspects the current page for throttling signals and
// returns a rate limit error with a backoff hint when one is found.
func (a *Authenticator) CheckRateLimit(ctx context.Context) error {
	url, err := a.session.Location(ctx)
	if err != nil {
		return nil
	}
	if strings.Contains(url, "checkpoint") || strings.Contains(url, "authwall") {
		return linkedin.NewRateLimitError("security checkpoint detected", time.Hour)
	}

	var captchas int
	if err := a.session.Evaluate(ctx, `document.querySelectorAll('iframe[title*="captcha" i]').length`, &captchas); err == nil && captchas > 0 {
		return linkedin.NewRateLimitError("captcha detected", time.Hour)
	}

	var body string
	if err := a.session.Evaluate(ctx, `(document.body && document.body.innerText) || ""`, &body); err == nil {
		lower := strings.ToLower(body)
		for _, phrase := range []string{"too many requests", "rate limit", "try again later"} {
			if strings.Contains(lower, phrase) {
				return linkedin.NewRateLimitError("rate limit message detected", 30*time.Minute)
			}
		}
	}
	return nil
}

// warmUp visits neutral sites first. Strictly best effort.
func (a *Authenticator) warmUp(ctx context.Context) {
	for _, url := range warmUpURLs {
		if err := a.session.runWithTimeout(ctx, 10*time.Second,
			chromedp.Navigate(url),
			chromedp.WaitReady("body", chromedp.ByQuery),
		); err != nil {
			continue
		}
		select {
		case <-time.After(time.Second):
		case <-ctx.Done():
			return
		}
	}
	a.logger.Debug("Browser warm-up complete.")
}

// waitOutCheckpoint polls until the verification pages clear or the
// checkpoint timeout expires.
func (a *Authenticator) waitOutCheckpoint(ctx context.Context) error {
	a.logger.Warn("Security checkpoint detected, waiting for manual completion.",
		zap.Duration("timeout", a.cfg.CheckpointTimeout))

	_, cleared := a.pollURL(ctx, a.cfg.CheckpointTimeout, checkpointInterval, func(u string) bool {
		for _, p := range []string{"checkpoint", "challenge", "login", "authwall"} {
			if strings.Contains(u, p) {
				return false
			}
		}
		return true
	})
	if !cleared {
		return linkedin.NewError(linkedin.KindAuthentication, "timed out waiting for checkpoint verification")
	}
	return nil
}

func (a *Authenticator) confirmLoggedIn(ctx context.Context, window time.Duration) bool {
	deadline := time.Now().Add(window)
	for time.Now().Before(deadline) {
		if a.IsLoggedIn(ctx) {
			return true
		}
		select {
		case <-time.After(urlPollInterval):
		case <-ctx.Done():
			return false
		}
	}
	return false
}

// pollURL samples the tab URL until pred holds or the timeout expires. It
// returns the last observed URL and whether pred was satisfied.
func (a *Authenticator) pollURL(ctx context.Context, timeout, interval time.Duration, pred func(string) bool) (string, bool) {
	deadline := time.Now().Add(timeout)
	var last string
	for {
		if url, err := a.session.Location(ctx); err == nil {
			last = url
			if pred(url) {
				return last, true
			}
		}
		if time.Now().After(deadline) || ctx.Err() != nil {
			return last, false
		}
		select {
		case <-time.After(interval):
		case <-ctx.Done():
			return last, false
		}
	}
}
