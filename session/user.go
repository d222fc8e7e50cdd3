// session/user.go
package session

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/deploymenttheory/go-api-http-session/status"
)

// ID accepts either a JSON number or a JSON string.
type ID string

// UnmarshalJSON implements json.Unmarshaler.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}

// Account is the identity-management account behind the session.
type Account struct {
	ID        ID     `json:"id,omitempty"`
	LoginName string `json:"loginName,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Enabled   bool   `json:"enabled,omitempty"`
}

// User is the profile returned by the user info endpoint.
type User struct {
	ID      ID       `json:"id,omitempty"`
	Name    string   `json:"name,omitempty"`
	Account *Account `json:"account,omitempty"`
	Admin   bool     `json:"admin,omitempty"`

	// Raw is the response body exactly as received.
	Raw json.RawMessage `json:"-"`
}

// DisplayName picks the most readable name available.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	if u.Account == nil {
		return string(u.ID)
	}
	if full := strings.TrimSpace(u.Account.FirstName + " " + u.Account.LastName); full != "" {
		return full
	}
	return u.Account.LoginName
}

// LoadState tracks the profile fetch.
type LoadState int

const (
	LoadIdle LoadState = iota
	LoadPending
	LoadLoaded
	LoadFailed
)

func (s LoadState) String() string {
	switch s {
	case LoadIdle:
		return "idle"
	case LoadPending:
		return "pending"
	case LoadLoaded:
		return "loaded"
	case LoadFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Failure records why the last profile fetch failed.
type Failure struct {
	Kind       status.Kind
	StatusCode int    // 0 when no response was received.
	StatusText string // Response status line, or "error"/"parsererror" when there was none.
	Err        error
	RawBody    string
	At         time.Time
}
