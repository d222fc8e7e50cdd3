// session/errors.go
package session

import "errors"

var (
	// ErrRefreshFailed wraps any failure to obtain a new credential from the identity provider.
	ErrRefreshFailed = errors.New("session: credential refresh failed")
	// ErrLogoutFailed wraps a failed logout call. Local state is left untouched.
	ErrLogoutFailed = errors.New("session: logout failed")
	// ErrNoIdentityClient is returned by Bootstrap and Refresh when the Guard has no identity client.
	ErrNoIdentityClient = errors.New("session: no identity client configured")
)
