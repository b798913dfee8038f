package staff

import (
	"context"
	"errors"
	"time"

	dErrors "pintcert/pkg/domain-errors"
	"pintcert/pkg/platform/sentinel"
)

const tokenLifetime = 12 * time.Hour

// Service authenticates staff and issues bearer tokens.
type Service struct {
	store  Store
	tokens *TokenService
}

func NewService(store Store, tokens *TokenService) *Service {
	return &Service{store: store, tokens: tokens}
}

// Login verifies credentials and returns a signed bearer token. Unknown
// email and wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	account, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return "", dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load staff account")
	}
	if err := VerifyPassword(password, account.PasswordHash); err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return "", err
		}
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to verify credentials")
	}

	token, err := s.tokens.Generate(account, tokenLifetime)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to issue token")
	}
	return token, nil
}

// Authenticate validates a bearer token and returns the capability view.
func (s *Service) Authenticate(_ context.Context, tokenString string) (*Staff, error) {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return claims.Identity()
}
