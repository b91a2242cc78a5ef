// File: internal/sourcing/orchestrator.go
package sourcing

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/sourcing-cli/internal/config"
	"github.com/xkilldash9x/sourcing-cli/internal/linkedin"
	"github.com/xkilldash9x/sourcing-cli/internal/scraper"
)

const (
	candidateSource = "linkedin"
	fetchedAtLayout = "02.01.2006 15:04"
	// The API caps usable result depth well below its pagination ceiling.
	maxAPILimit = 100
	// The rendered search UI shows roughly ten results per page.
	resultsPerScrapedPage = 10
)

// APIClient is the structured API surface the orchestrator drives.
// Implemented by linkedin.Client.
type APIClient interface {
	SetCookies(cookies []linkedin.Cookie) error
	SearchPeople(ctx context.Context, params linkedin.PeopleSearchParams) ([]linkedin.SearchResult, error)
	GetProfile(ctx context.Context, publicID, urnID string) (*linkedin.Profile, error)
}

// LoginFunc performs a fresh headless browser login and returns the
// captured storage state.
type LoginFunc func(ctx context.Context, username, password string) (*linkedin.StorageState, error)

// BrowserSearchFunc runs the rendered-page search fallback with the given
// storage state.
type BrowserSearchFunc func(ctx context.Context, state *linkedin.StorageState, keywords, location string, maxPages int) (*scraper.SearchResponse, error)

// BrowserScrapeFunc scrapes one rendered profile page with the given
// storage state.
type BrowserScrapeFunc func(ctx context.Context, state *linkedin.StorageState, profileURL string) (*scraper.Person, error)

// Candidate is one sourced person in the caller-facing shape.
type Candidate struct {
	Source    string `json:"source"`
	FullName  string `json:"full_name"`
	Title     string `json:"title,omitempty"`
	Area      string `json:"area,omitempty"`
	URL       string `json:"url,omitempty"`
	URNID     string `json:"urn_id,omitempty"`
	FetchedAt string `json:"fetched_at"`
}

// Request describes one sourcing search.
type Request struct {
	// SearchText is the role or title query.
	SearchText string
	// Skills is a comma-separated skill list folded into the keywords.
	Skills string
	// Location is a human-readable area name; the configured default
	// applies when empty.
	Location string
	Limit    int
}

// Result is a completed search. CookiesToPersist is non-nil only when a
// fresh login produced new cookies the caller should save.
type Result struct {
	Candidates       []Candidate
	CookiesToPersist *linkedin.StorageState
}

// ProfileResult is a completed profile fetch. Exactly one of Profile and
// Scraped is set, depending on which tier produced the data.
type ProfileResult struct {
	Profile          *linkedin.Profile
	Scraped          *scraper.Person
	CookiesToPersist *linkedin.StorageState
}

// Orchestrator runs sourcing searches through a tiered strategy: the
// structured API first, then one cookie refresh and retry, then the
// rendered-page scraper. It performs no persistence of its own.
type Orchestrator struct {
	client        APIClient
	login         LoginFunc
	browserSearch BrowserSearchFunc
	browserScrape BrowserScrapeFunc
	cfg           config.SourcingConfig
	logger        *zap.Logger
	now           func() time.Time
}

func NewOrchestrator(
	client APIClient,
	login LoginFunc,
	browserSearch BrowserSearchFunc,
	browserScrape BrowserScrapeFunc,
	cfg config.SourcingConfig,
	logger *zap.Logger,
) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		client:        client,
		login:         login,
		browserSearch: browserSearch,
		browserScrape: browserScrape,
		cfg:           cfg,
		logger:        logger.Named("sourcing"),
		now:           time.Now,
	}
}

// Search resolves a usable session from the credential and runs the search
// tiers in order. Without cookies or a password it fails fast before any
// network traffic.
func (o *Orchestrator) Search(ctx context.Context, cred *Credential, req Request) (*Result, error) {
	if req.Limit <= 0 {
		req.Limit = o.cfg.DefaultLimit
	}

	state, cookiesToPersist, err := o.resolveSession(ctx, cred)
	if err != nil {
		return nil, err
	}

	keywordTitle := strings.TrimSpace(req.SearchText)
	location := strings.TrimSpace(req.Location)
	if location == "" {
		location = o.cfg.DefaultLocation
	}
	keywords := buildKeywords(location, req.Skills)

	// Tier 1: structured API.
	candidates, apiErr := o.apiSearch(ctx, state, keywordTitle, keywords, req.Limit)
	if apiErr == nil {
		return &Result{Candidates: candidates, CookiesToPersist: cookiesToPersist}, nil
	}
	o.logger.Warn("API search failed, attempting cookie refresh.", zap.Error(apiErr))

	// Tier 2: one refresh and retry. Expired cookies are the usual cause.
	var refreshed *linkedin.StorageState
	if cred.HasPassword() {
		fresh, err := o.login(ctx, cred.Username, cred.Password)
		if err != nil {
			o.logger.Warn("Cookie refresh failed, trying scraper fallback.", zap.Error(err))
		} else {
			refreshed = fresh
			candidates, err = o.apiSearch(ctx, fresh, keywordTitle, keywords, req.Limit)
			if err == nil {
				return &Result{Candidates: candidates, CookiesToPersist: refreshed}, nil
			}
			o.logger.Warn("Retry after refresh failed, trying scraper fallback.", zap.Error(err))
		}
	}

	// Tier 3: rendered-page scraper with the freshest state available.
	scraperState := state
	if refreshed != nil {
		scraperState, cookiesToPersist = refreshed, refreshed
	}
	candidates, err = o.scraperSearch(ctx, scraperState, keywordTitle, keywords, location, req.Limit)
	if err != nil {
		o.logger.Warn("Scraper fallback failed.", zap.Error(err))
		return nil, linkedin.WrapError(linkedin.KindScraping, "all search strategies failed", errors.Join(apiErr, err))
	}
	return &Result{Candidates: candidates, CookiesToPersist: cookiesToPersist}, nil
}

// FetchProfile retrieves one full profile under the same tier policy as
// Search: structured API first, one cookie refresh and retry, then the
// rendered-page scraper.
func (o *Orchestrator) FetchProfile(ctx context.Context, cred *Credential, publicID string) (*ProfileResult, error) {
	publicID = strings.Trim(strings.TrimSpace(publicID), "/")
	if publicID == "" {
		return nil, linkedin.NewError(linkedin.KindConfiguration, "public id is required")
	}

	state, cookiesToPersist, err := o.resolveSession(ctx, cred)
	if err != nil {
		return nil, err
	}

	profile, apiErr := o.apiProfile(ctx, state, publicID)
	if apiErr == nil {
		return &ProfileResult{Profile: profile, CookiesToPersist: cookiesToPersist}, nil
	}
	o.logger.Warn("API profile fetch failed, attempting cookie refresh.", zap.Error(apiErr))

	var refreshed *linkedin.StorageState
	if cred.HasPassword() {
		fresh, err := o.login(ctx, cred.Username, cred.Password)
		if err != nil {
			o.logger.Warn("Cookie refresh failed, trying scraper fallback.", zap.Error(err))
		} else {
			refreshed = fresh
			profile, err = o.apiProfile(ctx, fresh, publicID)
			if err == nil {
				return &ProfileResult{Profile: profile, CookiesToPersist: refreshed}, nil
			}
			o.logger.Warn("Retry after refresh failed, trying scraper fallback.", zap.Error(err))
		}
	}

	scraperState := state
	if refreshed != nil {
		scraperState, cookiesToPersist = refreshed, refreshed
	}
	person, err := o.browserScrape(ctx, scraperState, "https://www.linkedin.com/in/"+publicID+"/")
	if err != nil {
		o.logger.Warn("Scraper fallback failed.", zap.Error(err))
		return nil, linkedin.WrapError(linkedin.KindScraping, "all profile strategies failed", errors.Join(apiErr, err))
	}
	return &ProfileResult{Scraped: person, CookiesToPersist: cookiesToPersist}, nil
}

// resolveSession turns the credential into usable cookies, logging in when
// only a username/password pair is available. The second return value is
// non-nil when a fresh login produced cookies worth persisting.
func (o *Orchestrator) resolveSession(ctx context.Context, cred *Credential) (*linkedin.StorageState, *linkedin.StorageState, error) {
	if state := cred.StorageState(); state != nil {
		return state, nil, nil
	}
	if !cred.HasPassword() {
		return nil, nil, linkedin.NewError(linkedin.KindConfiguration,
			"credential has neither cookies nor a username/password pair")
	}
	o.logger.Info("No saved cookies, performing fresh login.")
	fresh, err := o.login(ctx, cred.Username, cred.Password)
	if err != nil {
		return nil, nil, err
	}
	return fresh, fresh, nil
}

// apiProfile installs the cookies and fetches one structured profile.
func (o *Orchestrator) apiProfile(ctx context.Context, state *linkedin.StorageState, publicID string) (*linkedin.Profile, error) {
	if err := o.client.SetCookies(state.Cookies); err != nil {
		return nil, err
	}
	return o.client.GetProfile(ctx, publicID, "")
}

// apiSearch installs the cookies and runs one structured search.
func (o *Orchestrator) apiSearch(ctx context.Context, state *linkedin.StorageState, keywordTitle, keywords string, limit int) ([]Candidate, error) {
	if keywordTitle == "" && keywords == "" {
		return nil, nil
	}
	if err := o.client.SetCookies(state.Cookies); err != nil {
		return nil, err
	}
	results, err := o.client.SearchPeople(ctx, linkedin.PeopleSearchParams{
		Title:                  keywordTitle,
		Keywords:               keywords,
		IncludePrivateProfiles: true,
		Limit:                  minInt(limit, maxAPILimit),
	})
	if err != nil {
		return nil, err
	}

	fetchedAt := o.now().Format(fetchedAtLayout)
	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, Candidate{
			Source:    candidateSource,
			FullName:  r.Name,
			Title:     r.JobTitle,
			Area:      r.Location,
			URL:       absoluteNavigationURL(r.NavigationURL),
			URNID:     r.URNID,
			FetchedAt: fetchedAt,
		})
	}
	return candidates, nil
}

// scraperSearch runs the browser fallback and maps its shallower results.
func (o *Orchestrator) scraperSearch(ctx context.Context, state *linkedin.StorageState, keywordTitle, keywords, location string, limit int) ([]Candidate, error) {
	searchKeywords := keywordTitle
	switch {
	case keywords != "" && keywordTitle != "":
		searchKeywords = keywordTitle + " " + keywords
	case searchKeywords == "":
		searchKeywords = keywords
	}
	maxPages := (limit + resultsPerScrapedPage - 1) / resultsPerScrapedPage
	if maxPages < 1 {
		maxPages = 1
	}

	resp, err := o.browserSearch(ctx, state, searchKeywords, location, maxPages)
	if err != nil {
		return nil, err
	}

	fetchedAt := o.now().Format(fetchedAtLayout)
	results := resp.Results
	if len(results) > limit {
		results = results[:limit]
	}
	candidates := make([]Candidate, 0, len(results))
	for _, r := range results {
		candidates = append(candidates, Candidate{
			Source:    candidateSource,
			FullName:  r.Name,
			Title:     r.Headline,
			Area:      r.Location,
			URL:       r.LinkedInURL,
			FetchedAt: fetchedAt,
		})
	}
	return candidates, nil
}

// buildKeywords folds the location and a cleaned skill list into one
// keyword string.
func buildKeywords(location, skills string) string {
	parts := []string{location}
	if cleaned := cleanSkills(skills); cleaned != "" {
		parts = append(parts, cleaned)
	}
	return strings.Join(parts, " ")
}

// cleanSkills normalizes a comma-separated skill list into space-separated
// keywords.
func cleanSkills(skills string) string {
	var out []string
	for _, s := range strings.Split(skills, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return strings.Join(out, " ")
}

// absoluteNavigationURL resolves the relative navigation URLs the search
// API sometimes returns.
func absoluteNavigationURL(nav string) string {
	switch {
	case nav == "" || strings.HasPrefix(nav, "http"):
		return nav
	case strings.HasPrefix(nav, "/"):
		return "https://www.linkedin.com" + nav
	default:
		return "https://www.linkedin.com/in/" + nav
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
