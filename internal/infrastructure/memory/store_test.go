package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/sabflip/account-link/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pending(userID, requestID string) *domain.VerificationRequest {
	now := time.Now().UTC()
	return &domain.VerificationRequest{
		UserID:           userID,
		RequestID:        requestID,
		ExternalUsername: "Builderman",
		CodeHash:         "hash",
		CreatedAt:        now,
		ExpiresAt:        now.Add(15 * time.Minute).Unix(),
	}
}

func TestGetVerification_NotFound(t *testing.T) {
	s := NewStore()
	_, err := s.GetVerification(context.Background(), "u1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestPutVerification_Overwrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.PutVerification(ctx, pending("u1", "r1")))
	require.NoError(t, s.PutVerification(ctx, pending("u1", "r2")))

	got, err := s.GetVerification(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "r2", got.RequestID)
}

func TestGetVerification_ReturnsCopy(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	require.NoError(t, s.PutVerification(ctx, pending("u1", "r1")))

	got, _ := s.GetVerification(ctx, "u1")
	got.Consumed = true

	again, _ := s.GetVerification(ctx, "u1")
	assert.False(t, again.Consumed)
}

func TestCompleteVerification_HappyPath(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	v := pending("u1", "r1")
	require.NoError(t, s.PutVerification(ctx, v))

	require.NoError(t, s.CompleteVerification(ctx, v, &domain.LinkedAccount{UserID: "u1", ExternalUserID: 156}))

	got, _ := s.GetVerification(ctx, "u1")
	assert.True(t, got.Consumed)
	acct, err := s.GetLinkedAccount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(156), acct.ExternalUserID)
}

func TestCompleteVerification_SupersededRequest(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	old := pending("u1", "r1")
	require.NoError(t, s.PutVerification(ctx, old))
	require.NoError(t, s.PutVerification(ctx, pending("u1", "r2")))

	err := s.CompleteVerification(ctx, old, &domain.LinkedAccount{UserID: "u1"})
	assert.True(t, errors.Is(err, domain.ErrConflict))
	_, err = s.GetLinkedAccount(ctx, "u1")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCompleteVerification_OnlyOnce(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	v := pending("u1", "r1")
	require.NoError(t, s.PutVerification(ctx, v))
	require.NoError(t, s.CompleteVerification(ctx, v, &domain.LinkedAccount{UserID: "u1"}))

	err := s.CompleteVerification(ctx, v, &domain.LinkedAccount{UserID: "u1"})
	assert.True(t, errors.Is(err, domain.ErrConflict))
}

func TestPutVerification_ConcurrentWritersLeaveOneRecord(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.PutVerification(ctx, pending("u1", fmt.Sprintf("r%02d", i)))
		}(i)
	}
	wg.Wait()

	assert.Len(t, s.verifications, 1)
	got, err := s.GetVerification(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Builderman", got.ExternalUsername)
}
