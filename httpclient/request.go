// httpclient/request.go
package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/deploymenttheory/go-api-http-session/cookiejar"
	"github.com/deploymenttheory/go-api-http-session/headers"
	"github.com/deploymenttheory/go-api-http-session/response"
	"github.com/deploymenttheory/go-api-http-session/status"
	"github.com/deploymenttheory/go-api-http-session/version"
	"go.uber.org/zap"
)

var errEndpointHost = errors.New("endpoint must stay on the base URL host")

// DoRequest constructs and executes an HTTP request against the contacts API.
//
// Parameters:
//   - method: the HTTP method.
//   - endpoint: a path relative to the configured base URL, e.g. "rest/private/contacts".
//   - body: the payload. nil sends no body, []byte is sent as is, anything else is marshalled to JSON.
//   - out: where a 2xx body is decoded (JSON or XML by Content-Type). *[]byte receives the raw body.
//     An unfollowed redirect is returned without decoding.
//
// The request carries the session credential. A 401 triggers one credential refresh and one replay
// inside the transport, so the response seen here is already the final outcome. For a non-2xx
// outcome the response is returned together with a *response.APIError describing the body. The
// response body is always consumed and closed.
//
// Example:
//
//	var contacts []Contact
//	resp, err := client.DoRequest(ctx, http.MethodGet, "rest/private/contacts", nil, &contacts)
func (c *Client) DoRequest(ctx context.Context, method, endpoint string, body, out any) (*http.Response, error) {
	log := c.Logger

	if !isSupportedHTTPMethod(method) {
		return nil, log.Error("HTTP method not supported", zap.String("method", method))
	}

	url, err := c.resolve(endpoint)
	if err != nil {
		return nil, log.Error("Invalid endpoint", zap.String("endpoint", endpoint), zap.Error(err))
	}

	requestData, err := marshalRequest(body)
	if err != nil {
		return nil, log.Error("Failed to marshal request body", zap.String("method", method), zap.String("endpoint", endpoint), zap.Error(err))
	}

	var reader io.Reader
	if requestData != nil {
		reader = bytes.NewReader(requestData)
	}
	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, log.Error("Failed to create request", zap.String("method", method), zap.String("url", url), zap.Error(err))
	}

	headers.SetAccept(req, "application/json")
	headers.SetUserAgent(req, version.UserAgent())
	if requestData != nil {
		headers.SetContentType(req, "application/json")
	}
	headers.LogHeaders(req, log, c.config.ClientOptions.Logging.HideSensitiveData)

	log.Debug("Executing request", zap.String("method", method), zap.String("endpoint", endpoint), zap.Bool("idempotent", IsIdempotentHTTPMethod(method)))

	resp, err := c.http.Do(req)
	if err != nil {
		log.Error("Failed to send request", zap.String("method", method), zap.String("endpoint", endpoint), zap.Error(err))
		return nil, err
	}
	defer resp.Body.Close()

	if c.http.Jar != nil {
		cookiejar.LogCookies("incoming", c.http.Jar.Cookies(req.URL), url, c.config.ClientOptions.Logging.HideSensitiveData, log)
	}

	if status.IsSuccess(resp.StatusCode) {
		log.Debug("Request sent successfully", zap.String("method", method), zap.String("endpoint", endpoint), zap.Int("status_code", resp.StatusCode))
		return resp, response.HandleAPISuccessResponse(resp, out, log)
	}

	// Only reached when redirects are not followed.
	if status.IsRedirectStatusCode(resp.StatusCode) {
		log.Warn("Redirect response received", zap.Int("status_code", resp.StatusCode), zap.String("location", resp.Header.Get("Location")))
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp, nil
	}

	return resp, response.HandleAPIErrorResponse(resp, log)
}

// resolve joins endpoint onto the base URL. Absolute URLs are rejected so the credential never
// leaves the configured host through this path.
func (c *Client) resolve(endpoint string) (string, error) {
	u, err := c.baseURL.Parse(strings.TrimPrefix(endpoint, "/"))
	if err != nil {
		return "", err
	}
	if u.Host != c.baseURL.Host {
		return "", errEndpointHost
	}
	return u.String(), nil
}

func marshalRequest(body any) ([]byte, error) {
	switch b := body.(type) {
	case nil:
		return nil, nil
	case []byte:
		return b, nil
	case json.RawMessage:
		return b, nil
	default:
		return json.Marshal(body)
	}
}
