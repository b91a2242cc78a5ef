// File: cmd/login.go
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sourcing-cli/internal/observability"
	"github.com/xkilldash9x/sourcing-cli/internal/sourcing"
)

// newLoginCmd creates and configures the `login` command, which performs a
// browser login and saves the captured cookies for later runs.
func newLoginCmd() *cobra.Command {
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Logs in through a browser and saves session cookies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := observability.GetLogger()

			credPath, _ := cmd.Flags().GetString("credentials")
			cred, err := loadCredential(credPath)
			if err != nil {
				return err
			}
			if !cred.HasPassword() {
				return fmt.Errorf("credentials file must contain username and password")
			}

			login := sourcing.BrowserLogin(cfg.Browser, logger)
			state, err := login(ctx, cred.Username, cred.Password)
			if err != nil {
				return err
			}
			logger.Info("Login succeeded", zap.Int("cookies", len(state.Cookies)))

			persistCookies(credPath, cred, state, logger)
			return nil
		},
	}

	loginCmd.Flags().StringP("credentials", "C", "", "Path to the JSON credentials file.")

	return loginCmd
}
