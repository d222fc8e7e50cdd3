// identity/claims.go
package identity

import (
	"fmt"
	"sort"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Access is a Keycloak role container.
type Access struct {
	Roles []string `json:"roles,omitempty"`
}

// Claims are the access-token claims the session cares about.
type Claims struct {
	jwt.RegisteredClaims

	PreferredUsername string            `json:"preferred_username,omitempty"`
	Name              string            `json:"name,omitempty"`
	Email             string            `json:"email,omitempty"`
	RealmAccess       Access            `json:"realm_access,omitempty"`
	ResourceAccess    map[string]Access `json:"resource_access,omitempty"`
}

// ParseClaims decodes token claims without verifying the signature.
func ParseClaims(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("parsing token claims: %w", err)
	}
	return claims, nil
}

// Roles returns realm and client roles, sorted and without duplicates.
func (c *Claims) Roles() []string {
	seen := make(map[string]struct{})
	add := func(roles []string) {
		for _, r := range roles {
			seen[r] = struct{}{}
		}
	}
	add(c.RealmAccess.Roles)
	for _, access := range c.ResourceAccess {
		add(access.Roles)
	}

	roles := make([]string, 0, len(seen))
	for r := range seen {
		roles = append(roles, r)
	}
	sort.Strings(roles)
	return roles
}

// HasRole reports whether role appears in the realm or any client's roles.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles() {
		if r == role {
			return true
		}
	}
	return false
}

// Expiry returns the exp claim, or the zero time when absent.
func (c *Claims) Expiry() time.Time {
	if c.ExpiresAt == nil {
		return time.Time{}
	}
	return c.ExpiresAt.Time
}
