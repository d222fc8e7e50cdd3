// Package session implements the Session Guard: it keeps the session credential in
// session-scoped storage, attaches it to every outgoing request, recovers once from a 401 by
// refreshing the credential through the identity provider, and loads the authenticated user's
// profile on demand.
//
// A Guard is an explicit object. Wire its HTTPClient (or a Transport built around it) into
// whatever issues API calls:
//
//	guard, err := session.NewGuard(session.Config{
//		BaseURL:        "https://contacts.example.com/",
//		IdentityClient: idp,
//	})
//	if err := guard.Bootstrap(ctx); err != nil { ... }
//	user, err := guard.LoadCurrentUser(ctx)
//	resp, err := guard.HTTPClient().Get("https://contacts.example.com/rest/contacts")
package session
