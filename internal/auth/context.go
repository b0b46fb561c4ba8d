package auth

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"time"

	domainauth "github.com/NordCoder/Vidrate/internal/domain/auth"
)

type ctxKey int

const (
	identityKey ctxKey = iota + 1
	tokenKey
)

func WithIdentity(ctx context.Context, id domainauth.Identity, token string) context.Context {
	ctx = context.WithValue(ctx, identityKey, id)
	return context.WithValue(ctx, tokenKey, token)
}

func IdentityFromContext(ctx context.Context) (domainauth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(domainauth.Identity)
	return id, ok
}

func TokenFromContext(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey).(string)
	return t, ok && t != ""
}

// BearerToken extracts the credentials of an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, bool) {
	const prefix = "bearer "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

// Fingerprint is the storage key form of a token; raw tokens are never persisted.
func Fingerprint(token string) string {
	h := sha256.Sum256([]byte(token))
	return base64.RawURLEncoding.EncodeToString(h[:])
}

type ExpiryReader interface {
	ExpiresAt(token string) (time.Time, error)
}

// RemainingLifetime is how long a revocation entry for token must live. Tokens
// whose exp cannot be read fall back to the full configured TTL.
func RemainingLifetime(r ExpiryReader, token string, now time.Time, fallback time.Duration) time.Duration {
	exp, err := r.ExpiresAt(token)
	if err != nil {
		return fallback
	}
	return exp.Sub(now)
}
