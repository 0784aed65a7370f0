package google

import (
	"context"
	"fmt"

	"github.com/sabflip/account-link/internal/domain"
	"google.golang.org/api/idtoken"
)

// Verifier verifies Google ID tokens against a specific client ID.
type Verifier struct {
	clientID string
}

func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientID: clientID}
}

// Verify validates the Google ID token and returns the caller. The token
// subject becomes the internal user id.
// Returns a domain.ErrUnauthorized-wrapped error if the token is invalid.
func (v *Verifier) Verify(ctx context.Context, token string) (*domain.Identity, error) {
	p, err := idtoken.Validate(ctx, token, v.clientID)
	if err != nil {
		return nil, fmt.Errorf("invalid google token: %w", domain.ErrUnauthorized)
	}
	email, _ := p.Claims["email"].(string)
	return &domain.Identity{UserID: p.Subject, Email: email}, nil
}
