// httpclient/identity.go
package httpclient

import (
	"net/http"

	"github.com/deploymenttheory/go-api-http-session/identity"
	"github.com/deploymenttheory/go-api-http-session/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// newIdentityClient builds the Keycloak OAuth2 client described by config.Auth.
func newIdentityClient(config ClientConfig, httpClient *http.Client, log logger.Logger) (*identity.OAuth2Client, error) {
	auth := config.Auth

	kc, err := identity.LoadKeycloakConfig(auth.KeycloakConfigPath)
	if err != nil {
		return nil, log.Error("Failed to load keycloak configuration", zap.String("path", auth.KeycloakConfigPath), zap.Error(err))
	}

	log.Info("Using keycloak identity provider",
		zap.String("realm", kc.Realm),
		zap.String("client", kc.Resource),
		zap.String("token_url", kc.Endpoint().TokenURL),
	)

	return identity.NewOAuth2Client(
		kc.OAuth2Config(auth.Scopes...),
		identity.Credentials{Username: auth.Username, Password: auth.Password},
		identity.WithHTTPClient(httpClient),
		identity.WithLogger(log, config.ClientOptions.Logging.HideSensitiveData),
		identity.WithRefreshLimit(rate.Limit(auth.RefreshRate), auth.RefreshBurst),
	), nil
}
