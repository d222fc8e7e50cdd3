// identity/keycloak.go
package identity

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"golang.org/x/oauth2"
)

// KeycloakConfig mirrors the adapter configuration file Keycloak exports for a client.
type KeycloakConfig struct {
	Realm         string `json:"realm"`
	AuthServerURL string `json:"auth-server-url"`
	Resource      string `json:"resource"`
	PublicClient  bool   `json:"public-client"`
	Credentials   struct {
		Secret string `json:"secret"`
	} `json:"credentials"`
}

// LoadKeycloakConfig reads and validates a keycloak.json file.
func LoadKeycloakConfig(path string) (*KeycloakConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading keycloak config: %w", err)
	}

	var cfg KeycloakConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing keycloak config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the fields needed to build token endpoints.
func (k *KeycloakConfig) Validate() error {
	var errs []error
	if k.Realm == "" {
		errs = append(errs, errors.New("realm is required"))
	}
	if k.Resource == "" {
		errs = append(errs, errors.New("resource is required"))
	}
	if u, err := url.Parse(k.AuthServerURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("auth-server-url must be an absolute URL, got %q", k.AuthServerURL))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid keycloak config: %w", errors.Join(errs...))
	}
	return nil
}

// Endpoint returns the realm's OpenID Connect endpoints.
func (k *KeycloakConfig) Endpoint() oauth2.Endpoint {
	base := strings.TrimRight(k.AuthServerURL, "/") + "/realms/" + url.PathEscape(k.Realm) + "/protocol/openid-connect/"
	return oauth2.Endpoint{
		AuthURL:  base + "auth",
		TokenURL: base + "token",
	}
}

// OAuth2Config builds an oauth2.Config for this client. The openid scope is always requested.
func (k *KeycloakConfig) OAuth2Config(scopes ...string) *oauth2.Config {
	cfg := &oauth2.Config{
		ClientID: k.Resource,
		Endpoint: k.Endpoint(),
		Scopes:   append([]string{"openid"}, scopes...),
	}
	if !k.PublicClient {
		cfg.ClientSecret = k.Credentials.Secret
	}
	return cfg
}
