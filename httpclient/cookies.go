// httpclient/cookies.go
package httpclient

import (
	"github.com/deploymenttheory/go-api-http-session/cookiejar"
	"go.uber.org/zap"
)

// loadCustomCookies applies the custom cookies supplied in the config to the base URL.
func (c *Client) loadCustomCookies() error {
	cookies := c.config.ClientOptions.CustomCookies
	if len(cookies) == 0 {
		return nil
	}
	if c.http.Jar == nil {
		return c.Logger.Error("Custom cookies require the cookie jar to be enabled", zap.Int("cookies", len(cookies)))
	}

	c.http.Jar.SetCookies(c.baseURL, cookies)
	c.Logger.Debug("cookie URL set globally", zap.String("url", c.baseURL.String()))
	cookiejar.LogCookies("custom", c.http.Jar.Cookies(c.baseURL), c.baseURL.String(), c.config.ClientOptions.Logging.HideSensitiveData, c.Logger)

	return nil
}
