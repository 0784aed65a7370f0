package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/sabflip/account-link/internal/application/verification"
	"github.com/sabflip/account-link/internal/domain"
	"github.com/sabflip/account-link/internal/transport/http/middleware"
)

// VerificationHandler handles the Roblox code generation and verification endpoints.
type VerificationHandler struct {
	svc verification.Service
}

func NewVerificationHandler(svc verification.Service) *VerificationHandler {
	return &VerificationHandler{svc: svc}
}

func (h *VerificationHandler) GenerateCode(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.GenerateCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	// A dropped client connection must not abandon a half-written request.
	c, err := h.svc.Generate(context.WithoutCancel(r.Context()), ident.UserID, req.RobloxUsername)
	if err != nil {
		status, msg := statusFor(err)
		writeError(w, status, msg)
		return
	}
	writeJSON(w, http.StatusOK, GenerateEnvelope{
		Success: true,
		Code:    c,
		Message: "Verification code generated. Paste it into your Roblox profile description, then confirm.",
	})
}

func (h *VerificationHandler) VerifyUser(w http.ResponseWriter, r *http.Request) {
	ident, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req domain.VerifyUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, VerifyEnvelope{Error: "invalid request body"})
		return
	}
	if _, err := h.svc.Verify(context.WithoutCancel(r.Context()), ident.UserID, req.RobloxUsername, req.Code); err != nil {
		status, msg := statusFor(err)
		writeJSON(w, status, VerifyEnvelope{Error: msg})
		return
	}
	writeJSON(w, http.StatusOK, VerifyEnvelope{
		Success: true,
		Message: "Roblox account verified and linked.",
	})
}
