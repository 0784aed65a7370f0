package profile

import (
	"context"
	"errors"
	"fmt"

	"github.com/sabflip/account-link/internal/domain"
)

// ErrVerificationRequired means the user has no linked Roblox account yet.
var ErrVerificationRequired = errors.New("roblox verification required")

// Summary is what the client shows once the account is linked.
type Summary struct {
	UserID      string
	Username    string
	DisplayName string
	AvatarURL   string
	Balance     int64
}

type Service interface {
	Get(ctx context.Context, userID string) (*Summary, error)
}

type accountStore interface {
	GetLinkedAccount(ctx context.Context, userID string) (*domain.LinkedAccount, error)
}

type service struct {
	accounts accountStore
}

func NewService(accounts accountStore) Service {
	return &service{accounts: accounts}
}

// Get is a read-only projection of the linked account. The balance belongs
// to a separate economy backend and is always reported as zero here.
func (s *service) Get(ctx context.Context, userID string) (*Summary, error) {
	acct, err := s.accounts.GetLinkedAccount(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrVerificationRequired
	}
	if err != nil {
		return nil, fmt.Errorf("load linked account: %w", err)
	}
	return &Summary{
		UserID:      userID,
		Username:    acct.ExternalUsername,
		DisplayName: acct.DisplayName,
		AvatarURL:   acct.AvatarURL,
	}, nil
}
