package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chat-push/internal/application/dispatch"
	"github.com/go-chat-push/internal/domain"
	"github.com/go-chat-push/internal/transport/http/middleware"
)

// BroadcastHandler serves the broadcast callable. Authentication is decided
// by the engine from whether the request carried verified claims.
type BroadcastHandler struct {
	svc dispatch.Service
}

func NewBroadcastHandler(svc dispatch.Service) *BroadcastHandler { return &BroadcastHandler{svc: svc} }

func (h *BroadcastHandler) Send(w http.ResponseWriter, r *http.Request) {
	_, authenticated := middleware.ClaimsFromContext(r.Context())

	var req domain.BroadcastRequest
	// anonymous callers get unauthenticated even when the body is bad
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && authenticated {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "invalid request body")
		return
	}

	res, err := h.svc.DispatchBroadcast(r.Context(), req, authenticated)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, BroadcastEnvelope{Success: true, Response: res})
}
