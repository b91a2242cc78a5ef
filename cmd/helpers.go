// File: cmd/helpers.go
package cmd

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/sourcing-cli/internal/linkedin"
	"github.com/xkilldash9x/sourcing-cli/internal/sourcing"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

const credentialsEnvVar = "SOURCING_CREDENTIALS"

// loadCredential reads the credential blob from the given file, or from the
// SOURCING_CREDENTIALS environment variable when no file is given.
func loadCredential(path string) (*sourcing.Credential, error) {
	var data []byte
	switch {
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading credentials file: %w", err)
		}
		data = b
	case os.Getenv(credentialsEnvVar) != "":
		data = []byte(os.Getenv(credentialsEnvVar))
	default:
		return nil, fmt.Errorf("no credentials given (use --credentials or %s)", credentialsEnvVar)
	}
	return sourcing.ParseCredential(data)
}

// persistCookies writes fresh cookies back into the credentials file so the
// next run can skip the browser login.
func persistCookies(path string, cred *sourcing.Credential, state *linkedin.StorageState, logger *zap.Logger) {
	if path == "" || state == nil {
		return
	}
	raw, err := json.Marshal(state)
	if err != nil {
		logger.Warn("Failed to encode fresh cookies", zap.Error(err))
		return
	}
	cred.Cookies = raw
	blob, err := json.MarshalIndent(cred, "", "  ")
	if err != nil {
		logger.Warn("Failed to encode credentials", zap.Error(err))
		return
	}
	if err := os.WriteFile(path, blob, 0o600); err != nil {
		logger.Warn("Failed to write credentials file", zap.Error(err))
		return
	}
	logger.Info("Saved fresh cookies to credentials file", zap.String("path", path))
}

// writeOutput renders v as indented JSON to the given file, or stdout when
// the path is empty.
func writeOutput(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	data = append(data, '\n')
	if path == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}
