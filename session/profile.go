// session/profile.go
package session

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/deploymenttheory/go-api-http-session/headers"
	"github.com/deploymenttheory/go-api-http-session/response"
	"github.com/deploymenttheory/go-api-http-session/status"
	"github.com/deploymenttheory/go-api-http-session/version"
	"go.uber.org/zap"
)

const (
	userInfoPath = "user/info"
	logoutPath   = "logout"
)

// LoadCurrentUser fetches the authenticated user's profile. On success the profile is cached and
// returned. On any failure the cached profile is cleared, the failure is recorded and the error
// returned. The request goes through the Guard's transport, so an expired credential is refreshed
// and the fetch retried once like any other call.
func (g *Guard) LoadCurrentUser(ctx context.Context) (*User, error) {
	g.mu.Lock()
	g.loadState = LoadPending
	g.mu.Unlock()

	url := g.endpoint(userInfoPath)
	g.log.Debug("Loading current user", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, g.failLoad(&Failure{Kind: status.NetworkFailure, StatusText: "error", Err: err})
	}
	headers.SetAccept(req, "application/json")
	headers.SetContentType(req, "application/json")
	headers.SetUserAgent(req, version.UserAgent())

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, g.failLoad(&Failure{Kind: status.NetworkFailure, StatusText: "error", Err: err})
	}
	defer resp.Body.Close()

	if !status.IsSuccess(resp.StatusCode) {
		apiErr := response.HandleAPIErrorResponse(resp, g.log)
		return nil, g.failLoad(&Failure{
			Kind:       status.Classify(resp, nil),
			StatusCode: resp.StatusCode,
			StatusText: resp.Status,
			Err:        apiErr,
			RawBody:    apiErr.RawResponse,
		})
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, g.failLoad(&Failure{Kind: status.NetworkFailure, StatusCode: resp.StatusCode, StatusText: "error", Err: err})
	}

	user := &User{}
	if err := json.Unmarshal(body, user); err != nil {
		return nil, g.failLoad(&Failure{
			Kind:       status.Other,
			StatusCode: resp.StatusCode,
			StatusText: "parsererror",
			Err:        fmt.Errorf("decoding user info: %w", err),
			RawBody:    string(body),
		})
	}
	user.Raw = json.RawMessage(body)

	g.mu.Lock()
	g.currentUser = user
	g.loadState = LoadLoaded
	g.lastFailure = nil
	g.mu.Unlock()

	g.log.Info("Current user loaded", zap.String("user", user.DisplayName()), zap.Bool("admin", user.Admin))
	return user, nil
}

// failLoad clears the cached profile and records f. It returns f.Err.
func (g *Guard) failLoad(f *Failure) error {
	f.At = time.Now()

	g.mu.Lock()
	g.currentUser = nil
	g.loadState = LoadFailed
	g.lastFailure = f
	g.mu.Unlock()

	g.log.Warn("Failed to load current user",
		zap.String("kind", f.Kind.String()),
		zap.Int("status", f.StatusCode),
		zap.String("text_status", f.StatusText),
		zap.Error(f.Err),
		zap.String("response_text", f.RawBody),
	)
	return f.Err
}

// CurrentUser returns the cached profile, or nil when none is loaded.
func (g *Guard) CurrentUser() *User {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.currentUser
}

// LoadState reports the state of the profile fetch.
func (g *Guard) LoadState() LoadState {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.loadState
}

// LastFailure returns the most recent profile fetch failure, or nil after a success.
func (g *Guard) LastFailure() *Failure {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.lastFailure
}

// Logout terminates the server-side session. On success the local credential and cached profile
// are cleared as well; on failure local state is kept and an error wrapping ErrLogoutFailed is
// returned.
func (g *Guard) Logout(ctx context.Context) error {
	url := g.endpoint(logoutPath)
	g.log.Debug("Logging out", zap.String("url", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLogoutFailed, err)
	}
	headers.SetUserAgent(req, version.UserAgent())

	resp, err := g.client.Do(req)
	if err != nil {
		g.log.Warn("Logout request failed", zap.Error(err))
		return fmt.Errorf("%w: %w", ErrLogoutFailed, err)
	}
	defer resp.Body.Close()

	if !status.IsSuccess(resp.StatusCode) {
		return fmt.Errorf("%w: %w", ErrLogoutFailed, response.HandleAPIErrorResponse(resp, g.log))
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	g.log.Info("Successfully logged out")

	if err := g.EndSession(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrLogoutFailed, err)
	}

	g.mu.Lock()
	g.currentUser = nil
	g.loadState = LoadIdle
	g.lastFailure = nil
	g.mu.Unlock()

	return nil
}
