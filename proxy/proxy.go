// proxy.go

package proxy

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/deploymenttheory/go-api-http-session/logger"
	"go.uber.org/zap"
)

// InitializeProxy points the base transport at an outbound proxy. Credentials may be given either
// embedded in proxyURL or via proxyUsername/proxyPassword. An empty proxyURL leaves the transport alone.
func InitializeProxy(transport *http.Transport, proxyURL, proxyUsername, proxyPassword string, log logger.Logger) error {
	if proxyURL == "" {
		return nil
	}

	parsedProxyURL, err := url.Parse(proxyURL)
	if err != nil {
		log.Error("Failed to parse proxy URL", zap.Error(err))
		return fmt.Errorf("parsing proxy URL: %w", err)
	}
	if parsedProxyURL.Scheme == "" || parsedProxyURL.Host == "" {
		return log.Error("Proxy URL must be absolute", zap.String("ProxyURL", proxyURL))
	}

	if proxyUsername != "" && proxyPassword != "" {
		parsedProxyURL.User = url.UserPassword(proxyUsername, proxyPassword)
	}

	transport.Proxy = http.ProxyURL(parsedProxyURL)

	log.Info("Proxy configured", zap.String("ProxyURL", parsedProxyURL.Redacted()))
	return nil
}
