package http

import (
	"github.com/sabflip/account-link/internal/application/profile"
	"github.com/sabflip/account-link/internal/application/verification"
	"github.com/sabflip/account-link/internal/transport/http/middleware"
)

// Deps holds the application services and identity gate the router needs.
type Deps struct {
	Identity     middleware.IdentityVerifier
	Verification verification.Service
	Profile      profile.Service
}
