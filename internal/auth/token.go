package auth

import (
	"errors"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "budgetwise"

// Claims is the payload embedded in every bearer token: the session the token
// is bound to and the acting username. There is deliberately no expiry claim;
// revocation happens entirely through session-registry deletion.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies HS256-signed bearer tokens. The signing secret is
// injected explicitly; there are no package-level singletons.
type Tokens struct {
	secret []byte
}

// NewTokens constructs a token issuer/verifier over the given secret.
func NewTokens(secret string) (*Tokens, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, errors.New("auth: signing secret is required")
	}
	return &Tokens{secret: []byte(secret)}, nil
}

// Issue signs a token embedding the session ID and username.
func (t *Tokens) Issue(sessionID, username string) (string, error) {
	sessionID = strings.TrimSpace(sessionID)
	username = strings.TrimSpace(username)
	if sessionID == "" {
		return "", errors.New("auth: session ID is required")
	}
	if username == "" {
		return "", errors.New("auth: username is required")
	}
	claims := Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:  issuer,
			Subject: username,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(t.secret)
}

// Verify checks the signature and required claims. It performs no I/O; the
// session-liveness check is the caller's responsibility.
func (t *Tokens) Verify(token string) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInvalidToken
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(tok *jwt.Token) (any, error) {
		if tok.Method != jwt.SigningMethodHS256 {
			return nil, ErrInvalidToken
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Issuer != issuer {
		return nil, ErrInvalidToken
	}
	if strings.TrimSpace(claims.SessionID) == "" || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
