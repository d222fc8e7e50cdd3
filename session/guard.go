// session/guard.go
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/deploymenttheory/go-api-http-session/headers"
	"github.com/deploymenttheory/go-api-http-session/headers/redact"
	"github.com/deploymenttheory/go-api-http-session/identity"
	"github.com/deploymenttheory/go-api-http-session/logger"
	"github.com/deploymenttheory/go-api-http-session/sessionstore"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultSecurityPath is where the user info and logout endpoints live, relative to BaseURL.
	DefaultSecurityPath = "rest/private/security/"
	// DefaultMinTokenValidity is how long a credential must stay valid for a refresh to be skipped.
	DefaultMinTokenValidity = 10 * time.Second

	// undefinedToken is what a script-side store hands back for a value that was never set.
	undefinedToken = "undefined"
	refreshKey     = "refresh"
)

// Config configures a Guard.
type Config struct {
	// BaseURL of the application, e.g. https://contacts.example.com/. Required.
	BaseURL string
	// SecurityPath is joined to BaseURL for the user info and logout endpoints.
	SecurityPath string
	// Store holds the credential. Defaults to a new in-memory store.
	Store sessionstore.Store
	// IdentityClient issues and refreshes credentials. Required for Bootstrap and 401 recovery.
	IdentityClient identity.Client
	// HTTPClient supplies timeout, cookie jar, redirect policy and base transport.
	// Its Transport is wrapped, never modified.
	HTTPClient *http.Client
	// Logger defaults to a no-op logger.
	Logger logger.Logger
	// HideSensitiveData redacts credentials in logs.
	HideSensitiveData bool
	// MinTokenValidity is passed to the identity client on refresh. Zero means the default;
	// a negative value forces a refresh on every 401.
	MinTokenValidity time.Duration
	// AllowedHosts limits which hosts receive the credential. Empty means every host.
	AllowedHosts []string
}

// Guard is the Session Guard. It is safe for concurrent use.
type Guard struct {
	baseURL           *url.URL
	securityURL       *url.URL
	store             sessionstore.Store
	idp               identity.Client
	client            *http.Client
	log               logger.Logger
	hideSensitiveData bool
	minValidity       time.Duration
	allowedHosts      map[string]struct{}

	// credMu makes the end-then-init replacement atomic for readers.
	credMu sync.RWMutex

	mu          sync.RWMutex
	currentUser *User
	loadState   LoadState
	lastFailure *Failure

	refreshGroup singleflight.Group
}

// NewGuard validates cfg and builds a Guard along with its intercepting HTTP client.
func NewGuard(cfg Config) (*Guard, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("session: BaseURL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("session: parsing BaseURL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("session: BaseURL must be absolute, got %q", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	securityPath := cfg.SecurityPath
	if securityPath == "" {
		securityPath = DefaultSecurityPath
	}
	if !strings.HasSuffix(securityPath, "/") {
		securityPath += "/"
	}
	securityURL, err := base.Parse(strings.TrimPrefix(securityPath, "/"))
	if err != nil {
		return nil, fmt.Errorf("session: parsing SecurityPath: %w", err)
	}

	g := &Guard{
		baseURL:           base,
		securityURL:       securityURL,
		store:             cfg.Store,
		idp:               cfg.IdentityClient,
		log:               cfg.Logger,
		hideSensitiveData: cfg.HideSensitiveData,
		minValidity:       cfg.MinTokenValidity,
	}
	if g.store == nil {
		g.store = sessionstore.NewMemoryStore()
	}
	if g.log == nil {
		g.log = logger.NewNopLogger()
	}
	if g.minValidity == 0 {
		g.minValidity = DefaultMinTokenValidity
	}
	if len(cfg.AllowedHosts) > 0 {
		g.allowedHosts = make(map[string]struct{}, len(cfg.AllowedHosts))
		for _, h := range cfg.AllowedHosts {
			g.allowedHosts[strings.ToLower(h)] = struct{}{}
		}
	}

	var client http.Client
	if cfg.HTTPClient != nil {
		client = *cfg.HTTPClient
	}
	client.Transport = &Transport{Guard: g, Base: client.Transport}
	g.client = &client

	return g, nil
}

// HTTPClient returns a client whose transport secures requests and recovers from 401.
func (g *Guard) HTTPClient() *http.Client {
	return g.client
}

// Logger returns the Guard's logger.
func (g *Guard) Logger() logger.Logger {
	return g.log
}

// BaseURL returns a copy of the application base URL.
func (g *Guard) BaseURL() *url.URL {
	u := *g.baseURL
	return &u
}

// endpoint resolves a path below the security path.
func (g *Guard) endpoint(path string) string {
	u, _ := g.securityURL.Parse(path)
	return u.String()
}

// InitSession stores token as the active credential, replacing any prior value.
func (g *Guard) InitSession(ctx context.Context, token string) error {
	g.credMu.Lock()
	defer g.credMu.Unlock()

	return g.initSessionLocked(ctx, token)
}

func (g *Guard) initSessionLocked(ctx context.Context, token string) error {
	g.log.Info("Initializing user session.", zap.String("token", redact.RedactToken(g.hideSensitiveData, token)))
	if err := g.store.Set(ctx, sessionstore.TokenKey, token); err != nil {
		return g.log.Error("Failed to store session credential", zap.Error(err))
	}
	g.log.Debug("Token stored in session storage.")
	return nil
}

// EndSession deletes the active credential.
func (g *Guard) EndSession(ctx context.Context) error {
	g.credMu.Lock()
	defer g.credMu.Unlock()

	return g.endSessionLocked(ctx)
}

func (g *Guard) endSessionLocked(ctx context.Context) error {
	g.log.Info("Ending user session.")
	if err := g.store.Delete(ctx, sessionstore.TokenKey); err != nil {
		return g.log.Error("Failed to remove session credential", zap.Error(err))
	}
	g.log.Debug("Token removed from session storage.")
	return nil
}

// GetToken returns the active credential, or "" when there is none or the store fails.
func (g *Guard) GetToken(ctx context.Context) string {
	g.credMu.RLock()
	defer g.credMu.RUnlock()

	token, err := g.store.Get(ctx, sessionstore.TokenKey)
	if err != nil {
		if !errors.Is(err, sessionstore.ErrNotFound) {
			g.log.Warn("Failed to read session credential", zap.Error(err))
		}
		return ""
	}
	return token
}

// SecureRequest sets "Authorization: Token <credential>" on req when a credential is present and
// leaves req untouched otherwise. It never fails.
func (g *Guard) SecureRequest(req *http.Request) {
	g.secure(req)
}

// secure is SecureRequest returning the credential it attached, "" when none.
func (g *Guard) secure(req *http.Request) string {
	token := g.GetToken(req.Context())
	if token == "" || token == undefinedToken {
		return ""
	}

	headers.SetAuthorization(req, token)
	g.log.Debug("Securing request.",
		zap.String("url", req.URL.String()),
		zap.String("Authorization", redact.RedactSensitiveHeaderData(g.hideSensitiveData, "Authorization", req.Header.Get("Authorization"))),
	)
	return token
}

// securesHost reports whether requests to u should carry the credential.
func (g *Guard) securesHost(u *url.URL) bool {
	if g.allowedHosts == nil {
		return true
	}
	_, ok := g.allowedHosts[strings.ToLower(u.Host)]
	return ok
}

// Bootstrap logs in through the identity client and starts a session with the issued credential.
func (g *Guard) Bootstrap(ctx context.Context) error {
	if g.idp == nil {
		return ErrNoIdentityClient
	}

	token, err := g.idp.Login(ctx)
	if err != nil {
		g.log.Error("Identity provider login failed", zap.Error(err))
		return fmt.Errorf("session: bootstrap: %w", err)
	}
	return g.InitSession(ctx, token)
}

// Refresh asks the identity client for a credential valid for at least the configured minimum and
// makes it the active one. Concurrent callers share a single call to the identity client; each
// caller's ctx only bounds its own wait.
func (g *Guard) Refresh(ctx context.Context) (string, error) {
	if g.idp == nil {
		return "", ErrNoIdentityClient
	}

	ch := g.refreshGroup.DoChan(refreshKey, func() (any, error) {
		return g.refresh(context.WithoutCancel(ctx))
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		if res.Shared {
			g.log.Debug("Joined in-flight credential refresh")
		}
		return res.Val.(string), nil
	}
}

func (g *Guard) refresh(ctx context.Context) (string, error) {
	g.log.Info("Updating token.")

	token, err := g.idp.RefreshToken(ctx, g.minValidity)
	if err != nil {
		g.log.Warn("Error from identity provider.", zap.Error(err))
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if token == "" {
		g.log.Warn("Identity provider returned an empty credential.")
		return "", fmt.Errorf("%w: empty credential", ErrRefreshFailed)
	}

	g.credMu.Lock()
	defer g.credMu.Unlock()

	// Set replaces the old credential, so a failed write leaves it in place.
	if err := g.initSessionLocked(ctx, token); err != nil {
		return "", fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	g.log.Info("Token updated.")
	return token, nil
}
