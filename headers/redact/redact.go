// headers/redact/redact.go
package redact

import "net/http"

// sensitiveKeys are compared in canonical header form.
var sensitiveKeys = map[string]bool{
	"Accesstoken":   true,
	"Authorization": true,
	"Token":         true,
	"Cookie":        true,
	"Set-Cookie":    true,
}

// RedactSensitiveHeaderData redacts sensitive data based on the hideSensitiveData flag.
func RedactSensitiveHeaderData(hideSensitiveData bool, key, value string) string {
	if hideSensitiveData && sensitiveKeys[http.CanonicalHeaderKey(key)] {
		return "REDACTED"
	}
	return value
}

// RedactToken masks a bare credential for log fields that are not headers.
func RedactToken(hideSensitiveData bool, token string) string {
	if hideSensitiveData && token != "" {
		return "REDACTED"
	}
	return token
}
