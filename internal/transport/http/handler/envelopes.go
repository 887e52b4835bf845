package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chat-push/internal/domain"
)

// Error codes mirror the callable-function status names clients already handle.
const (
	codeUnauthenticated = "unauthenticated"
	codeInvalidArgument = "invalid-argument"
	codeInternal        = "internal"
	codeNotFound        = "not-found"
	codeForbidden       = "permission-denied"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
}

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorEnvelope struct {
	Error ErrorBody `json:"error"`
}

// BroadcastEnvelope wraps a successful broadcast.
type BroadcastEnvelope struct {
	Success  bool                    `json:"success"`
	Response *domain.BroadcastResult `json:"response"`
}

// UserUpdateEnvelope reports what the user-updated trigger observed.
type UserUpdateEnvelope struct {
	UserID       string `json:"user_id"`
	TokenRemoved bool   `json:"token_removed"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorEnvelope{Error: ErrorBody{Code: code, Message: msg}})
}

// writeDomainError maps a sentinel-wrapped error onto status and code.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, codeUnauthenticated, err.Error())
	case errors.Is(err, domain.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
	case errors.Is(err, domain.ErrForbidden):
		writeError(w, http.StatusForbidden, codeForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, codeNotFound, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternal, err.Error())
	}
}
