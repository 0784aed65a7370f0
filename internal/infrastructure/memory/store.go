// Package memory is a process-local link store for tests and single-instance
// development runs. Nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/sabflip/account-link/internal/domain"
)

// Store keeps one pending verification per user and the linked accounts.
// Records are copied on the way in and out so callers never share state.
type Store struct {
	mu            sync.RWMutex
	verifications map[string]domain.VerificationRequest
	accounts      map[string]domain.LinkedAccount
}

func NewStore() *Store {
	return &Store{
		verifications: make(map[string]domain.VerificationRequest),
		accounts:      make(map[string]domain.LinkedAccount),
	}
}

func (s *Store) PutVerification(_ context.Context, v *domain.VerificationRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verifications[v.UserID] = *v
	return nil
}

func (s *Store) GetVerification(_ context.Context, userID string) (*domain.VerificationRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.verifications[userID]
	if !ok {
		return nil, fmt.Errorf("verification not found: %w", domain.ErrNotFound)
	}
	return &v, nil
}

func (s *Store) CompleteVerification(_ context.Context, v *domain.VerificationRequest, acct *domain.LinkedAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.verifications[v.UserID]
	if !ok || cur.RequestID != v.RequestID || cur.Consumed {
		return fmt.Errorf("verification superseded: %w", domain.ErrConflict)
	}
	if _, linked := s.accounts[acct.UserID]; linked {
		return fmt.Errorf("account already linked: %w", domain.ErrConflict)
	}
	cur.Consumed = true
	s.verifications[v.UserID] = cur
	s.accounts[acct.UserID] = *acct
	return nil
}

func (s *Store) GetLinkedAccount(_ context.Context, userID string) (*domain.LinkedAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[userID]
	if !ok {
		return nil, fmt.Errorf("linked account not found: %w", domain.ErrNotFound)
	}
	return &a, nil
}
