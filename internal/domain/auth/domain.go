package auth

import (
	"errors"
	"time"
)

// Identity is the verified payload carried by an access token.
type Identity struct {
	UserID   string `json:"id"`
	Username string `json:"username"`
}

type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

var (
	ErrTokenMissing     = errors.New("missing bearer token")
	ErrTokenInvalid     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenRevoked     = errors.New("token revoked")
	ErrStoreUnavailable = errors.New("revocation store unavailable")
)

// ErrInvalidCredentials never says which of username or password was wrong.
var ErrInvalidCredentials = errors.New("invalid username or password")
