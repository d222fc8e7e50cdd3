// httpclient/config_validation.go
package httpclient

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"slices"
	"strings"

	"github.com/deploymenttheory/go-api-http-session/logger"
)

const ConfigFileExtension = ".json"

// validateClientConfig checks a configuration that already has its defaults applied.
func validateClientConfig(config ClientConfig) error {
	if config.Environment.BaseURL == "" {
		return errors.New("no base URL supplied, set Environment.BaseURL or CONTACTS_BASE_URL")
	}
	u, err := url.Parse(config.Environment.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("base URL scheme must be http or https, got: %q", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("base URL must include a host")
	}

	// Level
	validLogLevels := []string{
		"LogLevelDebug",
		"LogLevelInfo",
		"LogLevelWarn",
		"LogLevelError",
		"LogLevelDPanic",
		"LogLevelPanic",
		"LogLevelFatal",
	}
	if !slices.Contains(validLogLevels, config.ClientOptions.Logging.LogLevel) {
		return fmt.Errorf("invalid log level: %s", config.ClientOptions.Logging.LogLevel)
	}

	validLogFormats := []string{
		logger.LogOutputJSON,
		logger.LogOutputConsole,
	}
	if !slices.Contains(validLogFormats, config.ClientOptions.Logging.LogOutputFormat) {
		return fmt.Errorf("invalid log output format: %s", config.ClientOptions.Logging.LogOutputFormat)
	}

	if config.ClientOptions.CustomTimeout < 0 {
		return errors.New("timeout cannot be less than 0 seconds")
	}

	if config.ClientOptions.Redirect.FollowRedirects && config.ClientOptions.Redirect.MaxRedirects < 1 {
		return errors.New("max redirects cannot be less than 1")
	}

	if config.ClientOptions.Proxy.ProxyURL != "" {
		p, err := url.Parse(config.ClientOptions.Proxy.ProxyURL)
		if err != nil || p.Host == "" {
			return fmt.Errorf("invalid proxy URL: %s", config.ClientOptions.Proxy.ProxyURL)
		}
	}

	sess := config.ClientOptions.Session
	switch sess.Store {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if sess.RedisAddr == "" {
			return errors.New("redis session store requires a redis address")
		}
		if sess.RedisDB < 0 {
			return errors.New("redis db cannot be negative")
		}
	default:
		return fmt.Errorf("invalid session store: %s", sess.Store)
	}
	if sess.SessionTTL < 0 {
		return errors.New("session ttl cannot be less than 0 seconds")
	}

	if config.Auth.KeycloakConfigPath != "" {
		if _, err := validateFilePath(config.Auth.KeycloakConfigPath); err != nil {
			return err
		}
		if config.Auth.Username == "" {
			return errors.New("a username is required to log in to the identity provider")
		}
	}
	if config.Auth.RefreshRate <= 0 {
		return errors.New("token refresh rate must be greater than 0")
	}
	if config.Auth.RefreshBurst < 1 {
		return errors.New("token refresh burst cannot be less than 1")
	}

	return nil
}

// validateFilePath resolves path and checks it names a .json file outside any traversal pattern.
func validateFilePath(path string) (string, error) {
	cleanPath := filepath.Clean(path)

	absPath, err := filepath.EvalSymlinks(cleanPath)
	if err != nil {
		return "", fmt.Errorf("unable to resolve the absolute path of the configuration file: %s, error: %w", path, err)
	}

	if strings.Contains(absPath, "..") {
		return "", fmt.Errorf("invalid path, path traversal patterns detected: %s", path)
	}

	if filepath.Ext(absPath) != ConfigFileExtension {
		return "", fmt.Errorf("invalid file extension for configuration file: %s, expected .json", path)
	}

	return absPath, nil
}
