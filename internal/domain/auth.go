package domain

import (
	"context"
	"time"
)

// TokenIssuer issues signed access tokens.
type TokenIssuer interface {
	Issue(subject string, expiry time.Duration) (string, error)
}

// TokenVerifier validates an access token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// PasswordHasher hashes and checks operator passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// AuthService exchanges the operator password for an access token.
type AuthService interface {
	IssueToken(ctx context.Context, password string) (string, error)
}
