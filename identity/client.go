// identity/client.go
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/deploymenttheory/go-api-http-session/headers/redact"
	"github.com/deploymenttheory/go-api-http-session/logger"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

var (
	// ErrLoginFailed wraps any failure to obtain the initial token.
	ErrLoginFailed = errors.New("identity: login failed")
	// ErrNoRefreshToken means there is nothing to refresh with; log in again.
	ErrNoRefreshToken = errors.New("identity: no refresh token")
)

// Client is the identity provider as seen by the session guard.
type Client interface {
	// Login obtains a fresh access token.
	Login(ctx context.Context) (string, error)
	// RefreshToken returns an access token valid for at least minValidity, refreshing it when it
	// is not. A negative minValidity always refreshes.
	RefreshToken(ctx context.Context, minValidity time.Duration) (string, error)
}

// Default refresh throttle: one refresh per second with a burst of three.
const (
	DefaultRefreshRate  = rate.Limit(1)
	DefaultRefreshBurst = 3
)

// Credentials are resource-owner credentials for the password grant.
type Credentials struct {
	Username string
	Password string
}

var _ Client = (*OAuth2Client)(nil)

// OAuth2Client implements Client with golang.org/x/oauth2.
type OAuth2Client struct {
	config            *oauth2.Config
	credentials       Credentials
	httpClient        *http.Client
	limiter           *rate.Limiter
	log               logger.Logger
	hideSensitiveData bool
	now               func() time.Time

	mu    sync.Mutex
	token *oauth2.Token
}

// Option configures an OAuth2Client.
type Option func(*OAuth2Client)

// WithHTTPClient sets the client used to reach the token endpoint.
func WithHTTPClient(c *http.Client) Option {
	return func(o *OAuth2Client) { o.httpClient = c }
}

// WithLogger sets the logger. hideSensitiveData redacts tokens in log fields.
func WithLogger(log logger.Logger, hideSensitiveData bool) Option {
	return func(o *OAuth2Client) {
		o.log = log
		o.hideSensitiveData = hideSensitiveData
	}
}

// WithRefreshLimit throttles calls to the token endpoint for refreshes.
func WithRefreshLimit(limit rate.Limit, burst int) Option {
	return func(o *OAuth2Client) { o.limiter = rate.NewLimiter(limit, burst) }
}

// WithToken seeds the client with a token obtained elsewhere, e.g. a browser login.
func WithToken(t *oauth2.Token) Option {
	return func(o *OAuth2Client) { o.token = t }
}

// withClock is for tests.
func withClock(now func() time.Time) Option {
	return func(o *OAuth2Client) { o.now = now }
}

// NewOAuth2Client creates an OAuth2Client. Credentials may be empty when the token is seeded
// with WithToken and Login is never called.
func NewOAuth2Client(config *oauth2.Config, credentials Credentials, opts ...Option) *OAuth2Client {
	c := &OAuth2Client{
		config:      config,
		credentials: credentials,
		limiter:     rate.NewLimiter(DefaultRefreshRate, DefaultRefreshBurst),
		log:         logger.NewNopLogger(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *OAuth2Client) context(ctx context.Context) context.Context {
	if c.httpClient == nil {
		return ctx
	}
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// Login exchanges the resource-owner credentials for a token.
func (c *OAuth2Client) Login(ctx context.Context) (string, error) {
	if c.credentials.Username == "" {
		return "", fmt.Errorf("%w: no username configured", ErrLoginFailed)
	}

	tok, err := c.config.PasswordCredentialsToken(c.context(ctx), c.credentials.Username, c.credentials.Password)
	if err != nil {
		c.log.LogAuthTokenError("login", http.MethodPost, c.config.Endpoint.TokenURL, 0, err)
		return "", fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	c.mu.Lock()
	c.token = c.withExpiry(tok)
	c.mu.Unlock()

	c.logToken("Identity provider login succeeded", tok)
	return tok.AccessToken, nil
}

// RefreshToken follows the identity provider's update semantics: the current token is kept while
// it stays valid for at least minValidity, otherwise the refresh token is exchanged.
func (c *OAuth2Client) RefreshToken(ctx context.Context, minValidity time.Duration) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		return "", ErrNoRefreshToken
	}

	if minValidity >= 0 && c.token.AccessToken != "" && !c.token.Expiry.IsZero() &&
		c.token.Expiry.Sub(c.now()) >= minValidity {
		c.log.Debug("Token still valid, refresh skipped", zap.Time("expiry", c.token.Expiry))
		return c.token.AccessToken, nil
	}

	if c.token.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("waiting for refresh slot: %w", err)
	}

	// An expired copy makes the token source go to the endpoint.
	src := c.config.TokenSource(c.context(ctx), &oauth2.Token{RefreshToken: c.token.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		c.log.LogAuthTokenError("refresh", http.MethodPost, c.config.Endpoint.TokenURL, 0, err)
		return "", fmt.Errorf("refreshing token: %w", err)
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = c.token.RefreshToken
	}

	c.token = c.withExpiry(tok)
	c.logToken("Token refreshed", tok)
	return tok.AccessToken, nil
}

// Token returns a copy of the current token, or nil before Login.
func (c *OAuth2Client) Token() *oauth2.Token {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token == nil {
		return nil
	}
	t := *c.token
	return &t
}

// withExpiry fills a missing expires_in from the access token's exp claim.
func (c *OAuth2Client) withExpiry(tok *oauth2.Token) *oauth2.Token {
	if !tok.Expiry.IsZero() {
		return tok
	}
	if claims, err := ParseClaims(tok.AccessToken); err == nil {
		tok.Expiry = claims.Expiry()
	}
	return tok
}

func (c *OAuth2Client) logToken(msg string, tok *oauth2.Token) {
	fields := []zap.Field{
		zap.Time("expiry", tok.Expiry),
		zap.String("access_token", redact.RedactToken(c.hideSensitiveData, tok.AccessToken)),
	}
	if claims, err := ParseClaims(tok.AccessToken); err == nil {
		fields = append(fields, zap.String("username", claims.PreferredUsername), zap.Strings("roles", claims.Roles()))
	}
	c.log.Info(msg, fields...)
}
