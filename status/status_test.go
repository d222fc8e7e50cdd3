// status_test.go
package status

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		resp     *http.Response
		err      error
		expected Kind
	}{
		{"transport error", nil, errors.New("dial tcp: refused"), NetworkFailure},
		{"nil response", nil, nil, NetworkFailure},
		{"ok", &http.Response{StatusCode: http.StatusOK}, nil, OK},
		{"no content", &http.Response{StatusCode: http.StatusNoContent}, nil, OK},
		{"bad request", &http.Response{StatusCode: http.StatusBadRequest}, nil, BadRequest},
		{"unauthorized", &http.Response{StatusCode: http.StatusUnauthorized}, nil, Unauthorized},
		{"forbidden", &http.Response{StatusCode: http.StatusForbidden}, nil, Forbidden},
		{"server error", &http.Response{StatusCode: http.StatusInternalServerError}, nil, ServerError},
		{"not found", &http.Response{StatusCode: http.StatusNotFound}, nil, Other},
		{"bad gateway", &http.Response{StatusCode: http.StatusBadGateway}, nil, Other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.resp, tt.err))
		})
	}
}

func TestKindLogMessage(t *testing.T) {
	assert.Equal(t, "Bad request response from the server.", BadRequest.LogMessage())
	assert.Equal(t, "Internal server error.", ServerError.LogMessage())
	assert.Equal(t, "Unexpected error from server.", Other.LogMessage())
	assert.Empty(t, OK.LogMessage())
	assert.Equal(t, "Forbidden", Forbidden.String())
}

func TestTranslateStatusCode(t *testing.T) {
	assert.Equal(t, "No status code received, possible network or connection error.", TranslateStatusCode(nil))
	assert.Equal(t, "Request successful.", TranslateStatusCode(&http.Response{StatusCode: http.StatusOK}))
	assert.Equal(t, "Unknown status code: 599", TranslateStatusCode(&http.Response{StatusCode: 599}))
}

func TestIsRedirectStatusCode(t *testing.T) {
	for _, code := range []int{301, 302, 303, 307, 308} {
		assert.True(t, IsRedirectStatusCode(code), code)
	}
	assert.False(t, IsRedirectStatusCode(200))
	assert.False(t, IsRedirectStatusCode(304))
}

func TestIsSuccess(t *testing.T) {
	assert.True(t, IsSuccess(200))
	assert.True(t, IsSuccess(204))
	assert.False(t, IsSuccess(301))
	assert.False(t, IsSuccess(401))
}
