// Package session defines the authenticated-session contract the core
// consumes, plus a JWT-backed provider for deployments where the identity
// provider asserts attributes in a signed session token.
package session

import "net/http"

// AuthDataRemoteIdP is the auth-data key carrying the remote identity
// provider's entity ID when the user was authenticated through a bridge.
const AuthDataRemoteIdP = "saml:sp:IdP"

// Session is an established authenticated session. Implementations must be
// safe to read for the duration of one request.
type Session interface {
	// IsAuthenticated reports whether the session holds a valid
	// authentication.
	IsAuthenticated() bool

	// Attributes returns the attribute set asserted at authentication time.
	Attributes() map[string][]string

	// AuthData returns an authentication-context value, such as the bridged
	// identity provider under AuthDataRemoteIdP.
	AuthData(key string) (string, bool)

	// Logout terminates the session. The caller handles the redirect to
	// returnURL afterwards.
	Logout(returnURL string) error
}

// Provider resolves a Session from an incoming request.
type Provider interface {
	FromRequest(r *http.Request) (Session, error)
}
