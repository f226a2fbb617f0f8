// Package auth provides the authentication primitives for the API:
// signed session tokens, bcrypt password hashing, single-use password
// reset tokens, and the request middleware that turns a bearer token into
// a resolved identity.
//
// SESSION TOKEN DESIGN:
// Sessions are stateless JWTs. The token binds {userID, role, issuedAt,
// expiresAt} under an HMAC-SHA256 signature, so validity is re-derivable
// on every request with no server-side session store. The flip side:
// there is no revocation list — logout only tells the client to drop the
// cookie, and an issued token stays valid until it expires.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "fittrack"

// Verification failures come in exactly two observable kinds. Expiry is
// reported separately from every other defect (bad signature, malformed
// token, wrong issuer, missing subject), which all collapse into
// ErrTokenInvalid — callers get no more detail than that.
var (
	ErrTokenExpired = errors.New("auth: token expired")
	ErrTokenInvalid = errors.New("auth: invalid token")
)

// Identity is the resolved subject of a verified session token.
type Identity struct {
	UserID string
	Role   string
}

// TokenService issues and verifies session tokens.
//
// It holds the HMAC secret used to sign and verify. The secret is
// injected at construction from configuration and never leaves the
// process; it is not derivable from any issued token.
type TokenService struct {
	secret   []byte
	lifetime time.Duration
}

// NewTokenService creates a TokenService with the given secret and token
// lifetime. The secret should be at least 32 bytes of random data in
// production, e.g. JWT_SECRET=$(openssl rand -hex 32).
func NewTokenService(secret string, lifetime time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if lifetime <= 0 {
		return nil, errors.New("auth: token lifetime must be positive")
	}
	return &TokenService{secret: []byte(secret), lifetime: lifetime}, nil
}

// claims is the JWT payload. The standard "sub" claim carries the user
// ID; the role rides along so the middleware can authorize without a
// database lookup.
type claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Issue creates and signs a session token for the given user.
// Expiry is issuedAt + the configured lifetime.
func (s *TokenService) Issue(userID, role string) (string, error) {
	now := time.Now()

	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.lifetime)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// IssueWithDuration creates a token with a custom expiry duration.
// Used by tests to mint already-short-lived tokens.
func (s *TokenService) IssueWithDuration(userID, role string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and verifies a session token string.
//
// Checks performed: HS256 signature (jwt.WithValidMethods pins the
// algorithm, closing the algorithm-confusion hole), expiry, issuer, and a
// non-empty subject. Returns ErrTokenExpired for a token past its
// expiresAt and ErrTokenInvalid for everything else.
func (s *TokenService) Verify(tokenStr string) (Identity, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid || c.Subject == "" {
		return Identity{}, ErrTokenInvalid
	}

	return Identity{UserID: c.Subject, Role: c.Role}, nil
}
