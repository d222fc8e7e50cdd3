// httpclient/client.go
/* The `httpclient` package wires a session-aware HTTP client for the contacts REST API. It builds the
structured logger, the base http.Client (timeout, cookie jar, redirect policy, proxy), the session
credential store and the session Guard, and exposes DoRequest for JSON calls that carry the session
credential and recover once from an expired one. */
package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/deploymenttheory/go-api-http-session/cookiejar"
	"github.com/deploymenttheory/go-api-http-session/identity"
	"github.com/deploymenttheory/go-api-http-session/logger"
	"github.com/deploymenttheory/go-api-http-session/proxy"
	"github.com/deploymenttheory/go-api-http-session/redirecthandler"
	"github.com/deploymenttheory/go-api-http-session/session"
	"github.com/deploymenttheory/go-api-http-session/sessionstore"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// Client is the session-aware API client.
type Client struct {
	// Private
	config  ClientConfig
	http    *http.Client
	lock    sync.Mutex
	baseURL *url.URL
	redis   redis.UniversalClient

	// Exported
	Logger   logger.Logger
	Session  *session.Guard
	Store    sessionstore.Store
	Identity identity.Client
}

// ClientConfig holds everything BuildClient needs.
type ClientConfig struct {
	Environment   EnvironmentConfig
	Auth          AuthConfig
	ClientOptions ClientOptions
}

// EnvironmentConfig locates the contacts application.
type EnvironmentConfig struct {
	BaseURL      string // e.g. https://contacts.example.com/
	SecurityPath string // Relative to BaseURL. Defaults to session.DefaultSecurityPath.
}

// AuthConfig configures the identity provider client.
type AuthConfig struct {
	KeycloakConfigPath string // Path to the keycloak.json adapter file.
	Username           string
	Password           string
	Scopes             []string
	MinTokenValidity   time.Duration // Negative forces a refresh on every 401.
	RefreshRate        float64       // Token endpoint refreshes per second.
	RefreshBurst       int
}

// ClientOptions holds the optional client behaviours.
type ClientOptions struct {
	Logging  LoggingConfig
	Session  SessionConfig
	Redirect RedirectConfig
	Proxy    ProxyConfig

	EnableCookieJar bool
	CustomCookies   []*http.Cookie
	CustomTimeout   time.Duration
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	LogLevel            string // LogLevelDebug .. LogLevelFatal
	LogOutputFormat     string // "json" or "console"
	LogConsoleSeparator string
	HideSensitiveData   bool
}

// SessionConfig selects where the session credential lives.
type SessionConfig struct {
	Store          string // "memory" or "redis"
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
	SessionID      string        // Defaults to a random UUID.
	SessionTTL     time.Duration // Redis only. Zero means no expiry.
}

// RedirectConfig configures redirect following.
type RedirectConfig struct {
	FollowRedirects bool
	MaxRedirects    int
}

// ProxyConfig configures an outbound proxy.
type ProxyConfig struct {
	ProxyURL      string
	ProxyUsername string
	ProxyPassword string
}

// BuildClient creates a new session-aware client with the provided configuration. When idp is nil
// and Auth.KeycloakConfigPath is set, an OAuth2 identity client is built from the adapter file.
// Without either, the client attaches stored credentials but cannot bootstrap or refresh them.
func BuildClient(config ClientConfig, idp identity.Client) (*Client, error) {
	SetDefaultValuesClientConfig(&config)

	if err := validateClientConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	//region Logging
	logging := config.ClientOptions.Logging
	log := logger.BuildLogger(logger.ParseLogLevelFromString(logging.LogLevel), logging.LogOutputFormat, logging.LogConsoleSeparator)
	//endregion

	log.Info("initializing new http client", zap.String("base_url", config.Environment.BaseURL))

	baseURL, err := url.Parse(config.Environment.BaseURL)
	if err != nil {
		return nil, log.Error("Failed to parse base URL", zap.Error(err))
	}

	//region HTTP
	transport := http.DefaultTransport.(*http.Transport).Clone()
	px := config.ClientOptions.Proxy
	if err := proxy.InitializeProxy(transport, px.ProxyURL, px.ProxyUsername, px.ProxyPassword, log); err != nil {
		return nil, err
	}

	httpClient := &http.Client{
		Timeout:   config.ClientOptions.CustomTimeout,
		Transport: transport,
	}

	if err := cookiejar.SetupCookieJar(httpClient, config.ClientOptions.EnableCookieJar, log); err != nil {
		return nil, err
	}

	redirect := config.ClientOptions.Redirect
	if err := redirecthandler.SetupRedirectHandler(httpClient, redirect.FollowRedirects, redirect.MaxRedirects, log); err != nil {
		log.Error("Failed to set up redirect handler", zap.Error(err))
		return nil, err
	}
	//endregion

	//region Identity
	if idp == nil && config.Auth.KeycloakConfigPath != "" {
		idp, err = newIdentityClient(config, &http.Client{Timeout: config.ClientOptions.CustomTimeout, Transport: transport}, log)
		if err != nil {
			return nil, err
		}
	}
	//endregion

	//region Session
	store, rc, err := buildStore(config.ClientOptions.Session, log)
	if err != nil {
		return nil, err
	}

	guardConfig := session.Config{
		BaseURL:           config.Environment.BaseURL,
		SecurityPath:      config.Environment.SecurityPath,
		Store:             store,
		HTTPClient:        httpClient,
		Logger:            log,
		HideSensitiveData: logging.HideSensitiveData,
		MinTokenValidity:  config.Auth.MinTokenValidity,
		AllowedHosts:      []string{baseURL.Host},
	}
	if idp != nil {
		guardConfig.IdentityClient = idp
	}
	guard, err := session.NewGuard(guardConfig)
	if err != nil {
		return nil, log.Error("Failed to create session guard", zap.Error(err))
	}
	//endregion

	client := &Client{
		config:   config,
		http:     guard.HTTPClient(),
		baseURL:  guard.BaseURL(),
		redis:    rc,
		Logger:   log,
		Session:  guard,
		Store:    store,
		Identity: idp,
	}

	if err := client.loadCustomCookies(); err != nil {
		return nil, err
	}

	log.Debug("New API client initialized",
		zap.String("Base URL", config.Environment.BaseURL),
		zap.String("Security Path", config.Environment.SecurityPath),
		zap.Bool("Identity Client", idp != nil),
		zap.String("Logging Level", logging.LogLevel),
		zap.String("Log Encoding Format", logging.LogOutputFormat),
		zap.Bool("Hide Sensitive Data In Logs", logging.HideSensitiveData),
		zap.String("Session Store", config.ClientOptions.Session.Store),
		zap.Bool("Cookie Jar Enabled", config.ClientOptions.EnableCookieJar),
		zap.Bool("Follow Redirects", redirect.FollowRedirects),
		zap.Int("Max Redirects", redirect.MaxRedirects),
		zap.Duration("Min Token Validity", config.Auth.MinTokenValidity),
		zap.Duration("Custom Timeout", config.ClientOptions.CustomTimeout),
	)

	return client, nil
}

// buildStore creates the configured credential store. The returned redis client is nil for the
// memory store.
func buildStore(cfg SessionConfig, log logger.Logger) (sessionstore.Store, redis.UniversalClient, error) {
	switch cfg.Store {
	case SessionStoreRedis:
		rc := redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{cfg.RedisAddr},
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store := sessionstore.NewRedisStore(rc, sessionstore.RedisStoreOptions{
			Prefix:    cfg.RedisKeyPrefix,
			SessionID: cfg.SessionID,
			TTL:       cfg.SessionTTL,
		})
		log.Info("Using redis session store", zap.String("addr", cfg.RedisAddr), zap.String("session_id", store.SessionID()))
		return store, rc, nil
	case SessionStoreMemory:
		return sessionstore.NewMemoryStore(), nil, nil
	default:
		return nil, nil, log.Error("Unsupported session store", zap.String("store", cfg.Store))
	}
}

// Ping checks that the session store is reachable. The memory store always is.
func (c *Client) Ping(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	if err := c.redis.Ping(ctx).Err(); err != nil {
		return c.Logger.Error("Session store unreachable", zap.Error(err))
	}
	return nil
}

// Close releases the resources the client owns.
func (c *Client) Close() error {
	c.http.CloseIdleConnections()
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}
