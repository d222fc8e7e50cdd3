// headers/headers.go
package headers

import (
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/deploymenttheory/go-api-http-session/headers/redact"
	"github.com/deploymenttheory/go-api-http-session/logger"
	"go.uber.org/zap"
)

// AuthorizationScheme is the scheme the contacts API expects in front of the credential.
const AuthorizationScheme = "Token"

// SetAuthorization sets the Authorization header for the request.
// The scheme is added only once so a pre-formatted value is left alone.
func SetAuthorization(req *http.Request, token string) {
	if !strings.HasPrefix(token, AuthorizationScheme+" ") {
		token = AuthorizationScheme + " " + token
	}
	req.Header.Set("Authorization", token)
}

// SetContentType sets the Content-Type header for the request.
func SetContentType(req *http.Request, contentType string) {
	req.Header.Set("Content-Type", contentType)
}

// SetAccept sets the Accept header for the request.
func SetAccept(req *http.Request, acceptHeader string) {
	req.Header.Set("Accept", acceptHeader)
}

// SetUserAgent sets the User-Agent header for the request.
func SetUserAgent(req *http.Request, userAgent string) {
	req.Header.Set("User-Agent", userAgent)
}

// SetCacheControlHeader sets the Cache-Control header for an HTTP request.
func SetCacheControlHeader(req *http.Request, cacheControlValue string) {
	req.Header.Set("Cache-Control", cacheControlValue)
}

// RedactedHeaders returns a copy of h with sensitive values replaced, ready for logging.
func RedactedHeaders(h http.Header, hideSensitiveData bool) map[string][]string {
	out := make(map[string][]string, len(h))
	for name, values := range h {
		redacted := make([]string, len(values))
		for i, v := range values {
			redacted[i] = redact.RedactSensitiveHeaderData(hideSensitiveData, name, v)
		}
		out[name] = redacted
	}
	return out
}

// LogHeaders prints all the current headers in the http.Request using the zap logger.
// Sensitive values are redacted when hideSensitiveData is set.
func LogHeaders(req *http.Request, log logger.Logger, hideSensitiveData bool) {
	if log.GetLogLevel() <= logger.LogLevelDebug {
		headersStr := HeadersToString(RedactedHeaders(req.Header, hideSensitiveData))
		log.Debug("HTTP Request Headers", zap.String("Headers", headersStr))
	}
}

// HeadersToString converts headers to a string for logging,
// with each header on a new line for readability. Names are sorted.
func HeadersToString(headers map[string][]string) string {
	names := make([]string, 0, len(headers))
	for name := range headers {
		names = append(names, name)
	}
	sort.Strings(names)

	headerStrings := make([]string, 0, len(names))
	for _, name := range names {
		// Join all values for the header with a comma, as per HTTP standard
		headerStrings = append(headerStrings, fmt.Sprintf("%s: %s", name, strings.Join(headers[name], ", ")))
	}
	return strings.Join(headerStrings, "\n")
}

// CheckDeprecationHeader checks the response headers for the Deprecation header and logs a warning if present.
func CheckDeprecationHeader(resp *http.Response, log logger.Logger) {
	deprecationHeader := resp.Header.Get("Deprecation")
	if deprecationHeader != "" && resp.Request != nil {
		log.Warn("API endpoint is deprecated",
			zap.String("Date", deprecationHeader),
			zap.String("Endpoint", resp.Request.URL.String()),
		)
	}
}
