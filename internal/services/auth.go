package services

import (
	"context"
	"fmt"
	"time"

	"mobilizewarehouse/internal/domain"
)

// OperatorSubject is the token subject of the single admin operator.
const OperatorSubject = "operator"

type authService struct {
	hasher       domain.PasswordHasher
	issuer       domain.TokenIssuer
	passwordHash string
	expiry       time.Duration
}

// NewAuthService creates an AuthService that checks the operator password
// against passwordHash and issues tokens valid for expiry.
func NewAuthService(hasher domain.PasswordHasher, issuer domain.TokenIssuer, passwordHash string, expiry time.Duration) domain.AuthService {
	return &authService{
		hasher:       hasher,
		issuer:       issuer,
		passwordHash: passwordHash,
		expiry:       expiry,
	}
}

func (s *authService) IssueToken(ctx context.Context, password string) (string, error) {
	if s.passwordHash == "" || password == "" {
		return "", domain.ErrUnauthorized
	}
	if err := s.hasher.Compare(s.passwordHash, password); err != nil {
		return "", domain.ErrUnauthorized
	}
	token, err := s.issuer.Issue(OperatorSubject, s.expiry)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
