package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sabflip/account-link/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// GenerateEnvelope wraps generate-code responses.
type GenerateEnvelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// VerifyEnvelope wraps verify-user responses. Failures keep success=false in the body.
type VerifyEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// UserDataEnvelope is the profile of a linked user.
type UserDataEnvelope struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Balance  int64  `json:"balance"`
	PfpURL   string `json:"pfpUrl"`
}

// RequiresVerificationEnvelope is returned with 403 while no account is linked.
type RequiresVerificationEnvelope struct {
	RequiresVerification bool `json:"requiresVerification"`
}

const internalErrorMessage = "Internal server error."

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// statusFor maps a service error to an HTTP status and a caller-safe message.
// Only PublicError messages are echoed; everything else is logged and hidden.
func statusFor(err error) (int, string) {
	var pub *domain.PublicError
	if !errors.As(err, &pub) {
		slog.Error("request failed", "err", err)
		return http.StatusInternalServerError, internalErrorMessage
	}
	switch {
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrVerificationFailed):
		return http.StatusBadRequest, pub.Message
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, pub.Message
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, pub.Message
	default:
		slog.Error("unmapped public error", "err", err)
		return http.StatusInternalServerError, internalErrorMessage
	}
}
