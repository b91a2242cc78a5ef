// File: internal/scraper/search.go
package scraper

import (
	"context"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/sourcing-cli/internal/browser"
	"github.com/xkilldash9x/sourcing-cli/internal/config"
	"github.com/xkilldash9x/sourcing-cli/internal/linkedin"
)

const searchBaseURL = "https://www.linkedin.com/search/results/people/"

// SearchScraper pulls people search results from rendered pages. It is the
// fallback path when the structured search API is unavailable.
type SearchScraper struct {
	session *browser.Session
	auth    *browser.Authenticator
	pacer   *rate.Limiter
	logger  *zap.Logger
}

func NewSearchScraper(session *browser.Session, auth *browser.Authenticator, cfg config.BrowserConfig, logger *zap.Logger) *SearchScraper {
	if logger == nil {
		logger = zap.NewNop()
	}
	pps := cfg.PagesPerSecond
	if pps <= 0 {
		pps = 0.2
	}
	return &SearchScraper{
		session: session,
		auth:    auth,
		pacer:   rate.NewLimiter(rate.Limit(pps), 1),
		logger:  logger.Named("scraper.search"),
	}
}

// Search walks up to maxPages of people results for the keywords, appending
// the location to the query when given. Results are de-duplicated by URL.
func (s *SearchScraper) Search(ctx context.Context, keywords, location string, maxPages int) (*SearchResponse, error) {
	if maxPages < 1 {
		maxPages = 1
	}
	combined := keywords
	if location != "" {
		combined = keywords + " " + location
	}
	s.logger.Info("Browser people search starting.",
		zap.String("keywords", keywords),
		zap.String("location", location),
		zap.Int("max_pages", maxPages))

	var all []SearchResult
	pagesScraped := 0
	for page := 1; page <= maxPages; page++ {
		if err := s.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		if err := s.session.Navigate(ctx, buildSearchURL(combined, page)); err != nil {
			return nil, err
		}
		if err := s.auth.CheckRateLimit(ctx); err != nil {
			return nil, err
		}
		if err := s.waitForLogin(ctx); err != nil {
			return nil, err
		}
		s.settle(ctx, 2*time.Second)

		pageResults, err := s.extractResults(ctx)
		if err != nil {
			return nil, linkedin.WrapError(linkedin.KindScraping, "extracting search results", err)
		}
		pagesScraped++
		if len(pageResults) == 0 {
			s.logger.Info("Empty results page, stopping.", zap.Int("page", page))
			break
		}
		all = append(all, pageResults...)

		if page < maxPages && !s.hasNextPage(ctx) {
			s.logger.Info("No further pages.", zap.Int("page", page))
			break
		}
	}

	seen := make(map[string]bool, len(all))
	unique := make([]SearchResult, 0, len(all))
	for _, r := range all {
		if !seen[r.LinkedInURL] {
			seen[r.LinkedInURL] = true
			unique = append(unique, r)
		}
	}

	s.logger.Info("Browser people search complete.",
		zap.Int("results", len(unique)),
		zap.Int("pages_scraped", pagesScraped))
	return &SearchResponse{
		QueryKeywords: keywords,
		QueryLocation: location,
		Results:       unique,
		PagesScraped:  pagesScraped,
	}, nil
}

// buildSearchURL renders a people search URL for the given page number.
func buildSearchURL(keywords string, page int) string {
	params := url.Values{
		"keywords": {keywords},
		"origin":   {"GLOBAL_SEARCH_HEADER"},
	}
	if page > 1 {
		params.Set("page", strconv.Itoa(page))
	}
	return searchBaseURL + "?" + params.Encode()
}

// searchCardsJS extracts people cards from the rendered results page. A card
// is an /in/ anchor with at least two paragraph children (name, headline,
// optional location); the display name lives in a separate anchor whose
// parent is a paragraph.
const searchCardsJS = `(() => {
	const out = [];
	const seen = new Set();

	const nameMap = new Map();
	document.querySelectorAll('main a[href*="/in/"]').forEach(a => {
		if (a.parentElement && a.parentElement.tagName === "P") {
			const href = a.getAttribute("href");
			if (href) nameMap.set(href, (a.textContent || "").trim());
		}
	});

	document.querySelectorAll('main a[href*="/in/"]').forEach(a => {
		const href = a.getAttribute("href");
		if (!href || seen.has(href)) return;
		const ps = a.querySelectorAll("p");
		if (ps.length < 2) return;
		seen.add(href);

		out.push({
			name: nameMap.get(href) || (ps[0] ? (ps[0].textContent || "").trim() : ""),
			headline: ps[1] ? (ps[1].textContent || "").trim() : "",
			location: ps[2] ? (ps[2].textContent || "").trim() : "",
			url: href
		});
	});
	return out;
})()`

func (s *SearchScraper) extractResults(ctx context.Context) ([]SearchResult, error) {
	var raw []struct {
		Name     string `json:"name"`
		Headline string `json:"headline"`
		Location string `json:"location"`
		URL      string `json:"url"`
	}
	if err := s.session.Evaluate(ctx, searchCardsJS, &raw); err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, len(raw))
	for _, item := range raw {
		if item.Name == "" || item.URL == "" {
			continue
		}
		results = append(results, SearchResult{
			Name:        item.Name,
			Headline:    item.Headline,
			Location:    item.Location,
			LinkedInURL: normalizeResultURL(item.URL),
		})
	}
	return results, nil
}

func (s *SearchScraper) hasNextPage(ctx context.Context) bool {
	var count int
	expr := `document.querySelectorAll('[data-testid="pagination-controls-next-button-visible"]').length`
	if err := s.session.Evaluate(ctx, expr, &count); err != nil {
		return false
	}
	return count > 0
}

func (s *SearchScraper) waitForLogin(ctx context.Context) error {
	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		if s.auth.IsLoggedIn(ctx) {
			return nil
		}
		select {
		case <-time.After(500 * time.Millisecond):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	// The probe can be inconclusive on search pages; extraction decides.
	return nil
}

func (s *SearchScraper) settle(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
