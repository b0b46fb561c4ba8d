package auth

import "context"

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type TokenCodec interface {
	Issue(id Identity) (IssuedToken, error)
	Verify(token string) (Identity, error)
}

// RevocationStore keeps logged-out tokens until they would have expired anyway.
// Implementations wrap backend failures with ErrStoreUnavailable.
type RevocationStore interface {
	Revoke(ctx context.Context, token string) error
	IsRevoked(ctx context.Context, token string) (bool, error)
	Ping(ctx context.Context) error
}
