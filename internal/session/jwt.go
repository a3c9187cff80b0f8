package session

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "consentadmin/pkg/domain-errors"
)

// SessionCookie is the cookie carrying the session token when no
// Authorization header is present.
const SessionCookie = "consentadmin_session"

// Claims are the JWT claims of a session token issued by the authentication
// frontend. The attribute map is carried verbatim so the consent service
// never re-contacts the identity provider.
type Claims struct {
	Authority  string              `json:"authority"`
	Attributes map[string][]string `json:"attributes"`
	RemoteIdP  string              `json:"remote_idp,omitempty"`
	jwt.RegisteredClaims
}

// JWTProvider validates session tokens and exposes them as Sessions.
type JWTProvider struct {
	signingKey []byte
	authority  string
}

// NewJWTProvider creates a provider bound to one authority. Tokens minted
// for a different authority are rejected.
func NewJWTProvider(signingKey, authority string) *JWTProvider {
	return &JWTProvider{signingKey: []byte(signingKey), authority: authority}
}

// FromRequest resolves the session from the bearer token or session cookie.
// A request without a token yields an unauthenticated session, not an error.
func (p *JWTProvider) FromRequest(r *http.Request) (Session, error) {
	token := bearerToken(r)
	if token == "" {
		if c, err := r.Cookie(SessionCookie); err == nil {
			token = c.Value
		}
	}
	if token == "" {
		return &jwtSession{}, nil
	}

	claims, err := p.validate(token)
	if err != nil {
		return nil, err
	}
	return &jwtSession{claims: claims}, nil
}

// IssueToken mints a session token. Used by the authentication frontend and
// by tests.
func (p *JWTProvider) IssueToken(attributes map[string][]string, remoteIdP string, expiresIn time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Authority:  p.authority,
		Attributes: attributes,
		RemoteIdP:  remoteIdP,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(p.signingKey)
}

func (p *JWTProvider) validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return p.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "session token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid session token claims")
	}
	if claims.Authority != p.authority {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "session token issued for another authority")
	}
	return claims, nil
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

type jwtSession struct {
	claims *Claims
}

func (s *jwtSession) IsAuthenticated() bool {
	return s.claims != nil
}

func (s *jwtSession) Attributes() map[string][]string {
	if s.claims == nil {
		return nil
	}
	return s.claims.Attributes
}

func (s *jwtSession) AuthData(key string) (string, bool) {
	if s.claims == nil {
		return "", false
	}
	if key == AuthDataRemoteIdP && s.claims.RemoteIdP != "" {
		return s.claims.RemoteIdP, true
	}
	return "", false
}

// Logout is a no-op for stateless tokens; invalidation is the issuer's
// concern. The HTTP layer clears the cookie and redirects.
func (s *jwtSession) Logout(string) error {
	s.claims = nil
	return nil
}
