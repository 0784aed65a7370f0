package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sabflip/account-link/internal/domain"
	"github.com/sabflip/account-link/internal/pkg/code"
	"github.com/sabflip/account-link/internal/pkg/id"
	"github.com/sabflip/account-link/internal/pkg/validate"
)

// DefaultTTL is how long a generated code stays usable.
const DefaultTTL = 15 * time.Minute

const restartHint = "Verification process requires restarting. Please generate a new code."

type Service interface {
	// Generate mints a code for robloxUsername and replaces any pending request of userID.
	Generate(ctx context.Context, userID, robloxUsername string) (string, error)
	// Verify checks that the pending code is in the Roblox profile and links the account.
	Verify(ctx context.Context, userID, robloxUsername, submittedCode string) (*domain.LinkedAccount, error)
}

type linkStore interface {
	PutVerification(ctx context.Context, v *domain.VerificationRequest) error
	GetVerification(ctx context.Context, userID string) (*domain.VerificationRequest, error)
	CompleteVerification(ctx context.Context, v *domain.VerificationRequest, acct *domain.LinkedAccount) error
	GetLinkedAccount(ctx context.Context, userID string) (*domain.LinkedAccount, error)
}

type profileSource interface {
	LookupUserID(ctx context.Context, username string) (int64, error)
	GetProfile(ctx context.Context, userID int64) (*domain.ExternalProfile, error)
	AvatarHeadshotURL(ctx context.Context, userID int64) (string, error)
}

type linkNotifier interface {
	AccountLinked(ctx context.Context, acct *domain.LinkedAccount) error
}

type service struct {
	store    linkStore
	profiles profileSource
	notifier linkNotifier
	ttl      time.Duration
	now      func() time.Time
}

// ServiceDeps wires the service. Notifier is optional; TTL and Now default
// to DefaultTTL and time.Now.
type ServiceDeps struct {
	Store    linkStore
	Profiles profileSource
	Notifier linkNotifier
	TTL      time.Duration
	Now      func() time.Time
}

func NewService(deps ServiceDeps) Service {
	s := &service{
		store:    deps.Store,
		profiles: deps.Profiles,
		notifier: deps.Notifier,
		ttl:      deps.TTL,
		now:      deps.Now,
	}
	if s.ttl <= 0 {
		s.ttl = DefaultTTL
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *service) Generate(ctx context.Context, userID, robloxUsername string) (string, error) {
	robloxUsername = strings.TrimSpace(robloxUsername)
	if robloxUsername == "" {
		return "", domain.Public(domain.ErrBadRequest, "Roblox username is required.")
	}
	if err := validate.Struct(domain.GenerateCodeRequest{RobloxUsername: robloxUsername}); err != nil {
		return "", domain.Public(domain.ErrBadRequest, "Roblox username is invalid.")
	}

	if _, err := s.store.GetLinkedAccount(ctx, userID); err == nil {
		return "", domain.Public(domain.ErrBadRequest, "A Roblox account is already linked.")
	} else if !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("check linked account: %w", err)
	}

	c, err := code.New()
	if err != nil {
		return "", err
	}
	hash, err := code.Hash(c)
	if err != nil {
		return "", err
	}
	now := s.now().UTC()
	v := &domain.VerificationRequest{
		UserID:           userID,
		RequestID:        id.New(),
		ExternalUsername: robloxUsername,
		CodeHash:         hash,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.ttl).Unix(),
	}
	if err := s.store.PutVerification(ctx, v); err != nil {
		return "", fmt.Errorf("store verification: %w", err)
	}
	slog.Info("verification code generated", "user_id", userID, "request_id", v.RequestID, "roblox_username", robloxUsername)
	return c, nil
}

func (s *service) Verify(ctx context.Context, userID, robloxUsername, submittedCode string) (*domain.LinkedAccount, error) {
	robloxUsername = strings.TrimSpace(robloxUsername)
	submittedCode = strings.TrimSpace(submittedCode)
	if robloxUsername == "" || submittedCode == "" {
		return nil, domain.Public(domain.ErrBadRequest, "Missing username or verification code.")
	}

	v, err := s.store.GetVerification(ctx, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Public(domain.ErrNotFound, restartHint)
	}
	if err != nil {
		return nil, fmt.Errorf("load verification: %w", err)
	}
	if !v.Pending(s.now()) {
		return nil, domain.Public(domain.ErrNotFound, restartHint)
	}
	// Roblox usernames are case-insensitive.
	if !strings.EqualFold(v.ExternalUsername, robloxUsername) {
		return nil, domain.Public(domain.ErrBadRequest, "Username does not match the pending verification. "+restartHint)
	}
	if !code.Matches(v.CodeHash, submittedCode) {
		return nil, domain.Public(domain.ErrVerificationFailed, "Verification code does not match the latest generated code.")
	}

	robloxID, err := s.profiles.LookupUserID(ctx, robloxUsername)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.Public(domain.ErrNotFound, "Roblox user not found.")
	}
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetProfile(ctx, robloxID)
	if err != nil {
		return nil, err
	}
	if !code.FoundIn(profile.Description, submittedCode) {
		return nil, domain.Public(domain.ErrVerificationFailed, "Code not found in Roblox profile description.")
	}

	avatarURL, err := s.profiles.AvatarHeadshotURL(ctx, robloxID)
	if err != nil {
		slog.Warn("avatar lookup failed", "user_id", userID, "roblox_id", robloxID, "err", err)
	}
	name := profile.Name
	if name == "" {
		name = robloxUsername
	}
	acct := &domain.LinkedAccount{
		UserID:           userID,
		ExternalUserID:   robloxID,
		ExternalUsername: name,
		DisplayName:      profile.DisplayName,
		AvatarURL:        avatarURL,
		LinkedAt:         s.now().UTC(),
	}
	if err := s.store.CompleteVerification(ctx, v, acct); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.Public(domain.ErrNotFound, restartHint)
		}
		return nil, fmt.Errorf("complete verification: %w", err)
	}
	slog.Info("roblox account linked", "user_id", userID, "roblox_id", robloxID, "request_id", v.RequestID)

	if s.notifier != nil {
		if err := s.notifier.AccountLinked(ctx, acct); err != nil {
			slog.Warn("failed to publish link event", "user_id", userID, "err", err)
		}
	}
	return acct, nil
}
