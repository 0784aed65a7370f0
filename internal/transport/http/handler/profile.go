package handler

import (
	"errors"
	"net/http"

	"github.com/sabflip/account-link/internal/application/profile"
	"github.com/sabflip/account-link/internal/transport/http/middleware"
)

// ProfileHandler serves the signed-in user's linked profile.
type ProfileHandler struct {
	svc profile.Service
}

func NewProfileHandler(svc profile.Service) *ProfileHandler { return &ProfileHandler{svc: svc} }

func (h *ProfileHandler) UserData(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	sum, err := h.svc.Get(r.Context(), ident.UserID)
	if errors.Is(err, profile.ErrVerificationRequired) {
		writeJSON(w, http.StatusForbidden, RequiresVerificationEnvelope{RequiresVerification: true})
		return
	}
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, UserDataEnvelope{
		UserID:   sum.UserID,
		Username: sum.Username,
		Balance:  sum.Balance,
		PfpURL:   sum.AvatarURL,
	})
}
