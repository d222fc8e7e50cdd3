// Package identity talks to the identity provider that issues session credentials.
//
// Client is what the session guard depends on: log in once, then refresh on demand. OAuth2Client
// implements it against any OAuth2 token endpoint, configured either directly or from a Keycloak
// adapter file (keycloak.json). Token signatures are never verified here; the resource server does
// that. ParseClaims only reads claims for expiry and diagnostics.
package identity
