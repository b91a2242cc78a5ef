// File: internal/linkedin/client.go
package linkedin

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sourcing-cli/internal/config"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const (
	// BaseURL is the web origin; APIBaseURL is the Voyager REST root.
	BaseURL    = "https://www.linkedin.com"
	APIBaseURL = BaseURL + "/voyager/api"

	defaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

	csrfCookieName = "JSESSIONID"
)

// apiHeaders are attached to every Voyager API request. The accept value
// selects the normalized+included response envelope the graph resolver
// expects.
var apiHeaders = map[string]string{
	"user-agent":                defaultUserAgent,
	"accept-language":           "en-AU,en;q=0.9",
	"x-li-lang":                 "en_US",
	"x-restli-protocol-version": "2.0.0",
	"accept":                    "application/vnd.linkedin.normalized+json+2.1",
}

// authHeaders mimic the native-app auth library during the legacy
// cookie-based login exchange.
var authHeaders = map[string]string{
	"X-Li-User-Agent": "LIAuthLibrary:3.2.4 com.linkedin.LinkedIn:8.8.1 Chrome:131.0",
	"User-Agent":      defaultUserAgent,
	"X-User-Language": "en",
	"X-User-Locale":   "en_US",
	"Accept-Language": "en-us",
}

// Metadata is page-level application state captured after a successful
// authentication. Purely informational.
type Metadata struct {
	ClientApplicationInstance map[string]any
	ClientPageInstanceID      string
}

// Waiter is the pacing dependency; satisfied by ratelimit.Limiter.
type Waiter interface {
	Wait(ctx context.Context) (time.Duration, error)
}

// Option customizes a Client at construction time.
type Option func(*Client)

// WithTransport replaces the underlying HTTP transport, keeping the
// cookie jar and redirect policy intact. Used to script responses in
// tests.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.http.Transport = rt }
}

// Client is an authenticated Voyager API client. All requests flow through
// the shared rate limiter; the client itself performs no pacing.
//
// The zero value is unusable; construct with NewClient.
type Client struct {
	http      *http.Client
	jar       http.CookieJar
	limiter   Waiter
	logger    *zap.Logger
	csrfToken string
	metadata  Metadata

	// Active GraphQL query id for people search. Rotated on schema drift.
	searchMu      sync.Mutex
	searchQueryID string
}

// NewClient builds an unauthenticated client. Callers must either inject
// cookies via SetCookies or call Authenticate before issuing API requests.
func NewClient(cfg config.VoyagerConfig, limiter Waiter, logger *zap.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("voyager")

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("creating cookie jar: %w", err)
	}
	httpClient, err := newHTTPClient(cfg, jar, logger)
	if err != nil {
		return nil, fmt.Errorf("building http client: %w", err)
	}

	c := &Client{
		http:          httpClient,
		jar:           jar,
		limiter:       limiter,
		logger:        logger,
		searchQueryID: searchQueryIDs[0],
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// SetCookies installs a previously captured cookie set and derives the CSRF
// token from it. It fails when the set lacks a JSESSIONID cookie, since no
// API call can succeed without the token.
func (c *Client) SetCookies(cookies []Cookie) error {
	base, _ := url.Parse(BaseURL)
	hc := make([]*http.Cookie, 0, len(cookies))
	for _, ck := range cookies {
		hc = append(hc, &http.Cookie{
			Name:     ck.Name,
			Value:    ck.Value,
			Domain:   strings.TrimPrefix(ck.Domain, "."),
			Path:     ck.Path,
			Secure:   ck.Secure,
			HttpOnly: ck.HTTPOnly,
		})
	}
	c.jar.SetCookies(base, hc)
	return c.deriveCSRFToken()
}

// CSRFToken returns the current csrf-token header value.
func (c *Client) CSRFToken() string { return c.csrfToken }

// Metadata returns application metadata captured during Authenticate.
func (c *Client) Metadata() Metadata { return c.metadata }

// deriveCSRFToken copies the JSESSIONID cookie value, minus its surrounding
// quotes, into the csrf token. The two must match on every mutating request
// or the API rejects it.
func (c *Client) deriveCSRFToken() error {
	base, _ := url.Parse(BaseURL)
	for _, ck := range c.jar.Cookies(base) {
		if ck.Name == csrfCookieName {
			c.csrfToken = strings.Trim(ck.Value, `"`)
			return nil
		}
	}
	return NewError(KindAuthentication, "session cookies lack "+csrfCookieName+", cannot derive csrf token")
}

// Authenticate performs the legacy cookie-based login: fetch anonymous
// session cookies, post the credentials with the anonymous CSRF token, then
// adopt the authenticated cookie set. A non-PASS login result surfaces as a
// challenge error so callers can fall back to the browser flow.
func (c *Client) Authenticate(ctx context.Context, username, password string) error {
	c.logger.Info("Authenticating via legacy login flow.", zap.String("username", username))

	// Step 1: anonymous session cookies. The jar captures them from the
	// Set-Cookie headers.
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, BaseURL+"/uas/authenticate", nil)
	if err != nil {
		return err
	}
	applyHeaders(req, authHeaders)
	resp, err := c.http.Do(req)
	if err != nil {
		return WrapError(KindNetwork, "requesting anonymous session cookies", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	if err := c.deriveCSRFToken(); err != nil {
		return err
	}

	// Step 2: post credentials along with the anonymous token.
	form := url.Values{}
	form.Set("session_key", username)
	form.Set("session_password", password)
	form.Set(csrfCookieName, c.csrfToken)

	req, err = http.NewRequestWithContext(ctx, http.MethodPost, BaseURL+"/uas/authenticate", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	applyHeaders(req, authHeaders)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err = c.http.Do(req)
	if err != nil {
		return WrapError(KindNetwork, "posting credentials", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	var result struct {
		LoginResult string `json:"login_result"`
	}
	if err := json.Unmarshal(body, &result); err == nil && result.LoginResult != "" && result.LoginResult != "PASS" {
		return NewError(KindChallenge, "login challenge: "+result.LoginResult)
	}
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return NewError(KindUnauthorized, "invalid credentials")
	case resp.StatusCode != http.StatusOK:
		return NewRequestError(resp.StatusCode, string(body))
	}

	// Step 3: the jar now holds the authenticated set; refresh the token.
	if err := c.deriveCSRFToken(); err != nil {
		return err
	}

	if err := c.fetchMetadata(ctx); err != nil {
		c.logger.Debug("Metadata fetch failed, continuing without it.", zap.Error(err))
	}

	c.logger.Info("Authentication succeeded.")
	return nil
}

// fetchMetadata scrapes application instance metadata from the homepage meta
// tags. Best effort; failures never block the session.
func (c *Client) fetchMetadata(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, BaseURL, nil)
	if err != nil {
		return err
	}
	applyHeaders(req, authHeaders)
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return err
	}
	if content, ok := doc.Find(`meta[name="applicationInstance"]`).Attr("content"); ok {
		var instance map[string]any
		if err := json.Unmarshal([]byte(content), &instance); err == nil {
			c.metadata.ClientApplicationInstance = instance
		}
	}
	if content, ok := doc.Find(`meta[name="clientPageInstanceId"]`).Attr("content"); ok {
		c.metadata.ClientPageInstanceID = content
	}
	return nil
}

// Get issues a rate-limited GET against the Voyager API. The uri is relative
// to the API root and must already be escaped.
func (c *Client) Get(ctx context.Context, uri string) ([]byte, error) {
	return c.doAPI(ctx, http.MethodGet, uri, nil)
}

// Post issues a rate-limited POST with a JSON payload against the Voyager API.
func (c *Client) Post(ctx context.Context, uri string, payload []byte) ([]byte, error) {
	return c.doAPI(ctx, http.MethodPost, uri, payload)
}

func (c *Client) doAPI(ctx context.Context, method, uri string, payload []byte) ([]byte, error) {
	if _, err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, APIBaseURL+uri, body)
	if err != nil {
		return nil, err
	}
	applyHeaders(req, apiHeaders)
	req.Header.Set("csrf-token", c.csrfToken)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, WrapError(KindNetwork, method+" "+uri, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(KindNetwork, "reading response body", err)
	}
	if err := classifyStatus(resp.StatusCode, data); err != nil {
		c.logger.Debug("API request failed.",
			zap.String("method", method),
			zap.String("uri", uri),
			zap.Int("status", resp.StatusCode))
		return nil, err
	}
	return data, nil
}

// GetHTML fetches an authenticated page from the web origin and returns the
// raw HTML. Used by the profile URN fallback path.
func (c *Client) GetHTML(ctx context.Context, path string) ([]byte, error) {
	if _, err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", defaultUserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "en-AU,en;q=0.9")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, WrapError(KindNetwork, "GET "+path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(KindNetwork, "reading page body", err)
	}
	if err := classifyStatus(resp.StatusCode, data); err != nil {
		return nil, err
	}
	return data, nil
}

// Cookies returns the current cookie set for the web origin, suitable for
// handing back to the caller's credential store.
func (c *Client) Cookies() []Cookie {
	base, _ := url.Parse(BaseURL)
	jarCookies := c.jar.Cookies(base)
	out := make([]Cookie, 0, len(jarCookies))
	for _, ck := range jarCookies {
		out = append(out, Cookie{
			Name:   ck.Name,
			Value:  ck.Value,
			Domain: ".linkedin.com",
			Path:   "/",
			Secure: true,
		})
	}
	return out
}

func classifyStatus(status int, body []byte) error {
	switch {
	case status == http.StatusUnauthorized:
		return NewError(KindUnauthorized, "session rejected (401)")
	case status < 200 || status >= 300:
		return NewRequestError(status, string(body))
	}
	return nil
}

func applyHeaders(req *http.Request, headers map[string]string) {
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}
