package auth

import "errors"

var (
	// ErrInvalidToken indicates a malformed, tampered or otherwise
	// unverifiable bearer token.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrSessionExpired indicates the token verified but its session is no
	// longer present in the registry.
	ErrSessionExpired = errors.New("auth: session expired")
	// ErrUnauthorized indicates a valid credential with insufficient rights.
	ErrUnauthorized = errors.New("auth: unauthorized")
)
