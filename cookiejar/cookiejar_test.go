// cookiejar/cookiejar_test.go
package cookiejar

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/deploymenttheory/go-api-http-session/logger"
	"github.com/deploymenttheory/go-api-http-session/mocklogger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestRedactSensitiveCookies tests the RedactSensitiveCookies function to ensure it correctly redacts sensitive cookies.
func TestRedactSensitiveCookies(t *testing.T) {
	cookies := []*http.Cookie{
		{Name: "JSESSIONID", Value: "sensitive-value-1"},
		{Name: "NonSensitiveCookie", Value: "non-sensitive-value"},
		{Name: "KEYCLOAK_SESSION", Value: "sensitive-value-2"},
	}

	redactedCookies := RedactSensitiveCookies(cookies)

	expectedValues := map[string]string{
		"JSESSIONID":         "REDACTED",
		"NonSensitiveCookie": "non-sensitive-value",
		"KEYCLOAK_SESSION":   "REDACTED",
	}

	for _, cookie := range redactedCookies {
		assert.Equal(t, expectedValues[cookie.Name], cookie.Value, "Cookie value should match expected redaction outcome")
	}
	assert.Equal(t, "sensitive-value-1", cookies[0].Value, "input must not be modified")
}

func TestSetupCookieJar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := r.Cookie("JSESSIONID"); err != nil {
			http.SetCookie(w, &http.Cookie{Name: "JSESSIONID", Value: "abc", Path: "/"})
			w.WriteHeader(http.StatusCreated)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := &http.Client{}
	require.NoError(t, SetupCookieJar(client, true, mocklogger.NewPermissiveMockLogger()))
	require.NotNil(t, client.Jar)

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	resp, err = client.Get(server.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode, "cookie should be replayed from the jar")
}

func TestSetupCookieJar_Disabled(t *testing.T) {
	client := &http.Client{}
	require.NoError(t, SetupCookieJar(client, false, mocklogger.NewMockLogger()))
	assert.Nil(t, client.Jar)
}

func TestLogCookies(t *testing.T) {
	mockLog := mocklogger.NewMockLogger()
	mockLog.SetLevel(logger.LogLevelDebug)
	mockLog.On("Debug", "Cookies", mock.MatchedBy(func(fields []zap.Field) bool {
		for _, f := range fields {
			if f.Key == "cookies" {
				return true
			}
		}
		return false
	})).Once()

	LogCookies("response", []*http.Cookie{{Name: "JSESSIONID", Value: "abc"}}, "http://example.com", true, mockLog)
	mockLog.AssertExpectations(t)

	quiet := mocklogger.NewMockLogger()
	quiet.SetLevel(logger.LogLevelInfo)
	LogCookies("response", []*http.Cookie{{Name: "a", Value: "b"}}, "http://example.com", true, quiet)
	quiet.AssertNotCalled(t, "Debug", mock.Anything, mock.Anything)
}
