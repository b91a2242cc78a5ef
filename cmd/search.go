// File: cmd/search.go
package cmd

import (
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sourcing-cli/internal/linkedin"
	"github.com/xkilldash9x/sourcing-cli/internal/observability"
	"github.com/xkilldash9x/sourcing-cli/internal/ratelimit"
	"github.com/xkilldash9x/sourcing-cli/internal/sourcing"
)

// newSearchCmd creates and configures the `search` command.
func newSearchCmd() *cobra.Command {
	searchCmd := &cobra.Command{
		Use:   "search [search text...]",
		Short: "Searches LinkedIn for candidates matching a role",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			credPath, _ := cmd.Flags().GetString("credentials")
			skills, _ := cmd.Flags().GetString("skills")
			location, _ := cmd.Flags().GetString("location")
			limit, _ := cmd.Flags().GetInt("limit")
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

			searchID := uuid.New().String()
			searchText := strings.Join(args, " ")
			logger.Info("Starting candidate search",
				zap.String("searchID", searchID),
				zap.String("search_text", searchText),
				zap.String("location", location),
				zap.Int("limit", limit))

			res, err := orch.Search(ctx, cred, sourcing.Request{
				SearchText: searchText,
				Skills:     skills,
				Location:   location,
				Limit:      limit,
			})
			if err != nil {
				return err
			}

			if saveCookies {
				persistCookies(credPath, cred, res.CookiesToPersist, logger)
			}

			logger.Info("Search complete",
				zap.String("searchID", searchID),
				zap.Int("candidates", len(res.Candidates)))
			return writeOutput(output, res.Candidates)
		},
	}

	searchCmd.Flags().StringP("credentials", "C", "", "Path to the JSON credentials file.")
	searchCmd.Flags().String("skills", "", "Comma-separated skills to fold into the query.")
	searchCmd.Flags().String("location", "", "Candidate location (defaults to sourcing.default_location).")
	searchCmd.Flags().IntP("limit", "l", 0, "Maximum number of candidates (defaults to sourcing.default_limit).")
	searchCmd.Flags().StringP("output", "o", "", "Output file path. If unset, results go to stdout.")
	searchCmd.Flags().Bool("save-cookies", true, "Write fresh cookies back to the credentials file after a login.")

	return searchCmd
}
