// httpclient/config.go
// Description: This file contains functions to load configuration values from a JSON file or environment variables.
package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/deploymenttheory/go-api-http-session/identity"
	"github.com/deploymenttheory/go-api-http-session/logger"
	"github.com/deploymenttheory/go-api-http-session/session"
	"github.com/joho/godotenv"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

const (
	DefaultLogLevelString        = "LogLevelInfo"
	DefaultLogOutputFormatString = logger.LogOutputJSON
	DefaultLogConsoleSeparator   = "	"
	DefaultHideSensitiveData     = true
	DefaultSessionStore          = SessionStoreMemory
	DefaultRedisKeyPrefix        = "contacts-session"
	DefaultSessionTTL            = 30 * time.Minute
	DefaultCustomTimeout         = 10 * time.Second
	DefaultFollowRedirects       = false
	DefaultMaxRedirects          = 5
	DefaultMinTokenValidity      = session.DefaultMinTokenValidity
	DefaultRefreshRate           = float64(identity.DefaultRefreshRate)
	DefaultRefreshBurst          = identity.DefaultRefreshBurst
)

// LoadConfigFromFile loads http client configuration settings from a JSON file.
func LoadConfigFromFile(filepath string) (*ClientConfig, error) {
	absPath, err := validateFilePath(filepath)
	if err != nil {
		return nil, fmt.Errorf("invalid file path: %v", err)
	}

	file, err := os.Open(absPath)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %v", err)
	}
	defer file.Close()

	byteValue, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("could not read file: %v", err)
	}

	config := ClientConfig{
		ClientOptions: ClientOptions{
			Logging: LoggingConfig{HideSensitiveData: DefaultHideSensitiveData},
		},
	}
	if err := json.Unmarshal(byteValue, &config); err != nil {
		return nil, fmt.Errorf("could not unmarshal JSON: %v", err)
	}

	SetDefaultValuesClientConfig(&config)

	return &config, nil
}

// LoadConfigFromEnv loads HTTP client configuration settings from environment variables, after
// loading envFiles (dotenv format) into the environment. Variables already set are not overridden
// by the files. Unset variables fall back to the defaults defined in the constants.
func LoadConfigFromEnv(envFiles ...string) (*ClientConfig, error) {
	if len(envFiles) > 0 {
		if err := godotenv.Load(envFiles...); err != nil {
			return nil, fmt.Errorf("could not load env file: %w", err)
		}
	}

	config := &ClientConfig{
		ClientOptions: ClientOptions{
			Logging: LoggingConfig{HideSensitiveData: DefaultHideSensitiveData},
		},
	}
	ApplyEnvOverrides(config)
	SetDefaultValuesClientConfig(config)

	return config, nil
}

// ApplyEnvOverrides overwrites config values with the environment variables that are set. Values
// whose variable is unset are kept.
func ApplyEnvOverrides(config *ClientConfig) {
	// EnvironmentConfig
	config.Environment.BaseURL = getEnvOrDefault("CONTACTS_BASE_URL", config.Environment.BaseURL)
	config.Environment.SecurityPath = getEnvOrDefault("CONTACTS_SECURITY_PATH", config.Environment.SecurityPath)

	// AuthConfig
	config.Auth.KeycloakConfigPath = getEnvOrDefault("KEYCLOAK_CONFIG", config.Auth.KeycloakConfigPath)
	config.Auth.Username = getEnvOrDefault("KEYCLOAK_USERNAME", config.Auth.Username)
	config.Auth.Password = getEnvOrDefault("KEYCLOAK_PASSWORD", config.Auth.Password)
	if scopes := getEnvOrDefault("KEYCLOAK_SCOPES", ""); scopes != "" {
		config.Auth.Scopes = strings.Fields(strings.ReplaceAll(scopes, ",", " "))
	}
	config.Auth.MinTokenValidity = parseDuration(getEnvOrDefault("MIN_TOKEN_VALIDITY", config.Auth.MinTokenValidity.String()), config.Auth.MinTokenValidity)
	config.Auth.RefreshRate = parseFloat(getEnvOrDefault("TOKEN_REFRESH_RATE", ""), config.Auth.RefreshRate)
	config.Auth.RefreshBurst = parseInt(getEnvOrDefault("TOKEN_REFRESH_BURST", ""), config.Auth.RefreshBurst)

	// Logging
	logging := &config.ClientOptions.Logging
	logging.LogLevel = getEnvOrDefault("LOG_LEVEL", logging.LogLevel)
	logging.LogOutputFormat = getEnvOrDefault("LOG_OUTPUT_FORMAT", logging.LogOutputFormat)
	logging.LogConsoleSeparator = getEnvOrDefault("LOG_CONSOLE_SEPARATOR", logging.LogConsoleSeparator)
	logging.HideSensitiveData = parseBool(getEnvOrDefault("HIDE_SENSITIVE_DATA", strconv.FormatBool(logging.HideSensitiveData)))

	// Session
	sess := &config.ClientOptions.Session
	sess.Store = getEnvOrDefault("SESSION_STORE", sess.Store)
	sess.RedisAddr = getEnvOrDefault("REDIS_ADDR", sess.RedisAddr)
	sess.RedisPassword = getEnvOrDefault("REDIS_PASSWORD", sess.RedisPassword)
	sess.RedisDB = parseInt(getEnvOrDefault("REDIS_DB", strconv.Itoa(sess.RedisDB)), sess.RedisDB)
	sess.RedisKeyPrefix = getEnvOrDefault("REDIS_KEY_PREFIX", sess.RedisKeyPrefix)
	sess.SessionID = getEnvOrDefault("SESSION_ID", sess.SessionID)
	sess.SessionTTL = parseDuration(getEnvOrDefault("SESSION_TTL", sess.SessionTTL.String()), sess.SessionTTL)

	// Redirects
	config.ClientOptions.Redirect.FollowRedirects = parseBool(getEnvOrDefault("FOLLOW_REDIRECTS", strconv.FormatBool(config.ClientOptions.Redirect.FollowRedirects)))
	config.ClientOptions.Redirect.MaxRedirects = parseInt(getEnvOrDefault("MAX_REDIRECTS", strconv.Itoa(config.ClientOptions.Redirect.MaxRedirects)), config.ClientOptions.Redirect.MaxRedirects)

	// Proxy
	config.ClientOptions.Proxy.ProxyURL = getEnvOrDefault("PROXY_URL", config.ClientOptions.Proxy.ProxyURL)
	config.ClientOptions.Proxy.ProxyUsername = getEnvOrDefault("PROXY_USERNAME", config.ClientOptions.Proxy.ProxyUsername)
	config.ClientOptions.Proxy.ProxyPassword = getEnvOrDefault("PROXY_PASSWORD", config.ClientOptions.Proxy.ProxyPassword)

	// Misc
	config.ClientOptions.EnableCookieJar = parseBool(getEnvOrDefault("ENABLE_COOKIE_JAR", strconv.FormatBool(config.ClientOptions.EnableCookieJar)))
	config.ClientOptions.CustomTimeout = parseDuration(getEnvOrDefault("CUSTOM_TIMEOUT", config.ClientOptions.CustomTimeout.String()), config.ClientOptions.CustomTimeout)

	if cookies := parseCookies(getEnvOrDefault("CUSTOM_COOKIES", "")); len(cookies) > 0 {
		config.ClientOptions.CustomCookies = cookies
	}
}

// SetDefaultValuesClientConfig sets default values for the client configuration, ensuring that all
// fields have a valid or minimum value. Booleans are left as they are.
func SetDefaultValuesClientConfig(config *ClientConfig) {
	setDefaultString(&config.Environment.SecurityPath, session.DefaultSecurityPath)

	setDefaultDuration(&config.Auth.MinTokenValidity, DefaultMinTokenValidity)
	setDefaultFloat(&config.Auth.RefreshRate, DefaultRefreshRate)
	setDefaultInt(&config.Auth.RefreshBurst, DefaultRefreshBurst, 1)

	logging := &config.ClientOptions.Logging
	setDefaultString(&logging.LogLevel, DefaultLogLevelString)
	setDefaultString(&logging.LogOutputFormat, DefaultLogOutputFormatString)
	setDefaultString(&logging.LogConsoleSeparator, DefaultLogConsoleSeparator)

	sess := &config.ClientOptions.Session
	setDefaultString(&sess.Store, DefaultSessionStore)
	setDefaultString(&sess.RedisKeyPrefix, DefaultRedisKeyPrefix)
	setDefaultDuration(&sess.SessionTTL, DefaultSessionTTL)

	setDefaultInt(&config.ClientOptions.Redirect.MaxRedirects, DefaultMaxRedirects, 1)
	setDefaultDuration(&config.ClientOptions.CustomTimeout, DefaultCustomTimeout)
}

func setDefaultString(field *string, defaultValue string) {
	if *field == "" {
		*field = defaultValue
	}
}

// setDefaultInt replaces zero, and anything below minValue, with defaultValue.
func setDefaultInt(field *int, defaultValue, minValue int) {
	if *field == 0 || *field < minValue {
		*field = defaultValue
	}
}

func setDefaultFloat(field *float64, defaultValue float64) {
	if *field <= 0 {
		*field = defaultValue
	}
}

// setDefaultDuration only replaces zero. Negative durations are meaningful (MinTokenValidity) or
// rejected by validation.
func setDefaultDuration(field *time.Duration, defaultValue time.Duration) {
	if *field == 0 {
		*field = defaultValue
	}
}

// Helper function to get environment variable or default value
func getEnvOrDefault(envKey string, defaultValue string) string {
	if value, exists := os.LookupEnv(envKey); exists {
		return value
	}
	return defaultValue
}

// Helper function to parse boolean from environment variable
func parseBool(value string) bool {
	result, err := strconv.ParseBool(value)
	if err != nil {
		return false
	}
	return result
}

// Helper function to parse int from environment variable
func parseInt(value string, defaultVal int) int {
	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultVal
	}
	return result
}

// Helper function to parse float from environment variable
func parseFloat(value string, defaultVal float64) float64 {
	result, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultVal
	}
	return result
}

// Helper function to parse duration from environment variable
func parseDuration(value string, defaultVal time.Duration) time.Duration {
	result, err := time.ParseDuration(value)
	if err != nil {
		return defaultVal
	}
	return result
}

// parseCookies reads "name=value;name=value" pairs.
func parseCookies(value string) []*http.Cookie {
	var cookies []*http.Cookie
	for _, cookie := range strings.Split(value, ";") {
		parts := strings.SplitN(strings.TrimSpace(cookie), "=", 2)
		if len(parts) == 2 && parts[0] != "" {
			cookies = append(cookies, &http.Cookie{
				Name:  parts[0],
				Value: parts[1],
			})
		}
	}
	return cookies
}
