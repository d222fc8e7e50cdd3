// cookiejar/cookiejar.go

/* The cookiejar package sets up a cookie jar on the HTTP client so the server-side session cookie
issued alongside the bearer credential survives between requests, and redacts that cookie before
it is logged. */

package cookiejar

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"

	"github.com/deploymenttheory/go-api-http-session/logger"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// sensitiveCookieNames are session identifiers issued by the application server or identity provider.
var sensitiveCookieNames = map[string]bool{
	"JSESSIONID":               true,
	"SessionID":                true,
	"KEYCLOAK_IDENTITY":        true,
	"KEYCLOAK_IDENTITY_LEGACY": true,
	"KEYCLOAK_SESSION":         true,
	"AUTH_SESSION_ID":          true,
}

// SetupCookieJar initializes the HTTP client with a cookie jar if enabled in the configuration.
func SetupCookieJar(client *http.Client, enableCookieJar bool, log logger.Logger) error {
	if !enableCookieJar {
		return nil
	}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		log.Error("Failed to create cookie jar", zap.Error(err))
		return fmt.Errorf("setupCookieJar failed: %w", err)
	}
	client.Jar = jar
	log.Debug("Cookie jar enabled")
	return nil
}

// RedactSensitiveCookies returns copies of cookies with session identifiers replaced.
// The input slice is not modified.
func RedactSensitiveCookies(cookies []*http.Cookie) []*http.Cookie {
	redacted := make([]*http.Cookie, 0, len(cookies))
	for _, cookie := range cookies {
		c := *cookie
		if sensitiveCookieNames[c.Name] {
			c.Value = "REDACTED"
		}
		redacted = append(redacted, &c)
	}
	return redacted
}

// LogCookies writes the names and (redacted) values of cookies at debug level.
func LogCookies(direction string, cookies []*http.Cookie, url string, hideSensitiveData bool, log logger.Logger) {
	if log.GetLogLevel() > logger.LogLevelDebug || len(cookies) == 0 {
		return
	}
	if hideSensitiveData {
		cookies = RedactSensitiveCookies(cookies)
	}
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	log.Debug("Cookies", zap.String("direction", direction), zap.String("url", url), zap.Strings("cookies", pairs))
}
