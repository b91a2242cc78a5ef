// File: cmd/profile.go
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/xkilldash9x/sourcing-cli/internal/linkedin"
	"github.com/xkilldash9x/sourcing-cli/internal/observability"
	"github.com/xkilldash9x/sourcing-cli/internal/ratelimit"
	"github.com/xkilldash9x/sourcing-cli/internal/sourcing"
)

// newProfileCmd creates and configures the `profile` command, which fetches
// a full candidate profile through the API with a browser fallback.
func newProfileCmd() *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile [public id]",
		Short: "Fetches a full candidate profile by public id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			credPath, _ := cmd.Flags().GetString("credentials")
			output, _ := cmd.Flags().GetString("output")
			saveCookies, _ := cmd.Flags().GetBool("save-cookies")

			cred, err := loadCredential(credPath)
			if err != nil {
				return err
			}

			limiter := ratelimit.New(cfg.RateLimit, logger)
			client, err := linkedin.NewClient(cfg.Voyager, limiter, logger)
			if err != nil {
				return err
			}

			orch := sourcing.NewOrchestrator(
				client,
				sourcing.BrowserLogin(cfg.Browser, logger),
				sourcing.BrowserPeopleSearch(cfg.Browser, logger),
				sourcing.BrowserProfileScrape(cfg.Browser, logger),
				cfg.Sourcing,
				logger,
			)

			res, err := orch.FetchProfile(ctx, cred, args[0])
			if err != nil {
				return err
			}
			if saveCookies {
				persistCookies(credPath, cred, res.CookiesToPersist, logger)
			}

			if res.Profile != nil {
				return writeOutput(output, res.Profile)
			}
			return writeOutput(output, res.Scraped)
		},
	}

	profileCmd.Flags().StringP("credentials", "C", "", "Path to the JSON credentials file.")
	profileCmd.Flags().StringP("output", "o", "", "Output file path. If unset, the profile goes to stdout.")
	profileCmd.Flags().Bool("save-cookies", true, "Write fresh cookies back to the credentials file after a login.")

	return profileCmd
}
