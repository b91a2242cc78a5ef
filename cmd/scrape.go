// File: cmd/scrape.go
package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/xkilldash9x/sourcing-cli/internal/browser"
	"github.com/xkilldash9x/sourcing-cli/internal/observability"
	"github.com/xkilldash9x/sourcing-cli/internal/scraper"
)

// newScrapeCmd creates and configures the `scrape` command, which pulls a
// profile from the rendered page instead of the structured API. Slower, but
// it works when the API path is blocked.
func newScrapeCmd() *cobra.Command {
	scrapeCmd := &cobra.Command{
		Use:   "scrape [profile url or public id]",
		Short: "Scrapes a candidate profile from the rendered page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			credPath, _ := cmd.Flags().GetString("credentials")
			output, _ := cmd.Flags().GetString("output")

			cred, err := loadCredential(credPath)
			if err != nil {
				return err
			}
			state := cred.StorageState()
			if state == nil {
				return fmt.Errorf("scraping needs saved cookies; run `sourcing-cli login` first")
			}

			profileURL := args[0]
			if !strings.HasPrefix(profileURL, "http") {
				profileURL = "https://www.linkedin.com/in/" + strings.Trim(profileURL, "/") + "/"
			}

			session := browser.NewSession(cfg.Browser, logger)
			if err := session.Start(ctx); err != nil {
				return err
			}
			defer session.Close()

			if err := session.RestoreStorageState(ctx, state); err != nil {
				return err
			}
			auth := browser.NewAuthenticator(session, cfg.Browser, logger)
			person, err := scraper.NewPersonScraper(session, auth, logger).Scrape(ctx, profileURL)
			if err != nil {
				return err
			}
			return writeOutput(output, person)
		},
	}

	scrapeCmd.Flags().StringP("credentials", "C", "", "Path to the JSON credentials file.")
	scrapeCmd.Flags().StringP("output", "o", "", "Output file path. If unset, the profile goes to stdout.")

	return scrapeCmd
}
