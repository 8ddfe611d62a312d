package auth

import (
	"context"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/zippy-delivery/zippy-console/internal/identity"
	"github.com/zippy-delivery/zippy-console/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Authenticate validates credentials for the requested login surface. Every
// failure, including a role that belongs to another surface, is reported as
// shared.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, creds identity.Credentials) (*Account, error) {
	account, err := s.repo.FindByIdentifier(ctx, creds.Identifier)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !account.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if !kindMatches(creds.Kind, account.Role.Kind()) {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return account, nil
}

// Lookup returns the account behind an email or display name without
// checking credentials.
func (s *Service) Lookup(ctx context.Context, identifier string) (*Account, error) {
	return s.repo.FindByIdentifier(ctx, identifier)
}

// RegisterSession persists the session metadata in postgres.
func (s *Service) RegisterSession(ctx context.Context, id string, accountID string, expiresAt time.Time, ip, ua string) error {
	return s.repo.CreateSession(ctx, id, accountID, expiresAt, ip, ua)
}

// RemoveSession deletes a session record from postgres.
func (s *Service) RemoveSession(ctx context.Context, id string) error {
	return s.repo.DeleteSession(ctx, id)
}

// kindMatches lets the customer surface serve customers and delivery
// partners while the staff surface serves staff only.
func kindMatches(requested, actual identity.Kind) bool {
	switch requested {
	case "", identity.KindStaff:
		return actual == identity.KindStaff
	default:
		return actual != identity.KindStaff
	}
}
