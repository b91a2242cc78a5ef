// File: internal/sourcing/browser.go
package sourcing

import (
	"context"

	"go.uber.org/zap"

	"github.com/xkilldash9x/sourcing-cli/internal/browser"
	"github.com/xkilldash9x/sourcing-cli/internal/config"
	"github.com/xkilldash9x/sourcing-cli/internal/linkedin"
	"github.com/xkilldash9x/sourcing-cli/internal/scraper"
)

// BrowserLogin returns a LoginFunc that runs an interactive login in a
// fresh headless browser and captures the resulting storage state. Each
// call launches and tears down its own browser.
func BrowserLogin(cfg config.BrowserConfig, logger *zap.Logger) LoginFunc {
	return func(ctx context.Context, username, password string) (*linkedin.StorageState, error) {
		session := browser.NewSession(cfg, logger)
		if err := session.Start(ctx); err != nil {
			return nil, err
		}
		defer session.Close()

		auth := browser.NewAuthenticator(session, cfg, logger)
		if err := auth.Login(ctx, username, password); err != nil {
			return nil, err
		}
		return session.StorageState(ctx)
	}
}

// BrowserPeopleSearch returns a BrowserSearchFunc that restores the given
// storage state into a fresh browser and scrapes rendered search pages.
func BrowserPeopleSearch(cfg config.BrowserConfig, logger *zap.Logger) BrowserSearchFunc {
	return func(ctx context.Context, state *linkedin.StorageState, keywords, location string, maxPages int) (*scraper.SearchResponse, error) {
		session := browser.NewSession(cfg, logger)
		if err := session.Start(ctx); err != nil {
			return nil, err
		}
		defer session.Close()

		if err := session.RestoreStorageState(ctx, state); err != nil {
			return nil, err
		}
		auth := browser.NewAuthenticator(session, cfg, logger)
		search := scraper.NewSearchScraper(session, auth, cfg, logger)
		return search.Search(ctx, keywords, location, maxPages)
	}
}

// BrowserProfileScrape returns a BrowserScrapeFunc that restores the given
// storage state into a fresh browser and scrapes one rendered profile.
func BrowserProfileScrape(cfg config.BrowserConfig, logger *zap.Logger) BrowserScrapeFunc {
	return func(ctx context.Context, state *linkedin.StorageState, profileURL string) (*scraper.Person, error) {
		session := browser.NewSession(cfg, logger)
		if err := session.Start(ctx); err != nil {
			return nil, err
		}
		defer session.Close()

		if err := session.RestoreStorageState(ctx, state); err != nil {
			return nil, err
		}
		auth := browser.NewAuthenticator(session, cfg, logger)
		return scraper.NewPersonScraper(session, auth, logger).Scrape(ctx, profileURL)
	}
}
