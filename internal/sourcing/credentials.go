// File: internal/sourcing/credentials.go
package sourcing

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/sourcing-cli/internal/linkedin"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Credential is the caller-supplied LinkedIn credential blob. Either saved
// cookies or a username/password pair must be present; cookies win when
// both are.
type Credential struct {
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	// Cookies holds either a browser storage-state object or a bare
	// cookie list; both shapes occur in stored credentials.
	Cookies jsoniter.RawMessage `json:"cookies,omitempty"`
}

// ParseCredential decodes a credential blob.
func ParseCredential(data []byte) (*Credential, error) {
	var cred Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return nil, linkedin.WrapError(linkedin.KindConfiguration, "invalid credential blob", err)
	}
	return &cred, nil
}

// StorageState extracts the saved browser state from the credential. It
// returns nil when no cookies are stored, which is not an error; callers
// decide whether a fresh login is possible.
func (c *Credential) StorageState() *linkedin.StorageState {
	if len(c.Cookies) == 0 {
		return nil
	}

	var state linkedin.StorageState
	if err := json.Unmarshal(c.Cookies, &state); err == nil && len(state.Cookies) > 0 {
		return &state
	}

	var list []linkedin.Cookie
	if err := json.Unmarshal(c.Cookies, &list); err == nil && len(list) > 0 {
		return &linkedin.StorageState{Cookies: list}
	}
	return nil
}

// HasPassword reports whether the credential can drive a fresh login.
func (c *Credential) HasPassword() bool {
	return c.Username != "" && c.Password != ""
}
