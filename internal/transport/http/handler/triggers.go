package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chat-push/internal/application/dispatch"
	"github.com/go-chat-push/internal/domain"
	"github.com/go-chat-push/internal/pkg/validate"
	"github.com/go-chi/chi/v5"
)

// TriggerHandler receives change-feed events. Once an event decodes it is
// always answered with 200 and the dispatch result, so the feed never
// redelivers because a notification failed.
type TriggerHandler struct {
	svc dispatch.Service
}

func NewTriggerHandler(svc dispatch.Service) *TriggerHandler { return &TriggerHandler{svc: svc} }

func (h *TriggerHandler) MessageCreated(w http.ResponseWriter, r *http.Request) {
	var ev domain.MessageEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "invalid request body")
		return
	}
	if err := validate.Struct(ev); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.svc.DispatchForMessage(r.Context(), ev))
}

func (h *TriggerHandler) UserCreated(w http.ResponseWriter, r *http.Request) {
	var ev domain.UserCreatedEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "invalid request body")
		return
	}
	if err := validate.Struct(ev); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, err.Error())
		return
	}
	rcpt := ev.User
	rcpt.UserID = ev.UserID
	writeJSON(w, http.StatusOK, h.svc.DispatchWelcome(r.Context(), ev.UserID, &rcpt))
}

func (h *TriggerHandler) UserUpdated(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	var ev domain.UserUpdatedEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeError(w, http.StatusBadRequest, codeInvalidArgument, "invalid request body")
		return
	}
	writeJSON(w, http.StatusOK, UserUpdateEnvelope{
		UserID:       userID,
		TokenRemoved: h.svc.ObserveUserUpdate(r.Context(), userID, ev),
	})
}
