package chat

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/meeting-agent/chatwidget/internal/handler/view"
	"github.com/meeting-agent/chatwidget/internal/model/chat"
	chatService "github.com/meeting-agent/chatwidget/internal/service/chat"
	"github.com/meeting-agent/chatwidget/pkg/utils"
)

// Handler exposes page sessions and their chat clients over REST.
type Handler struct {
	chatSvc *chatService.Service
	logger  *zap.Logger
}

// New creates the chat handler.
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger,
	}
}

// RegisterRoutes mounts the session routes on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/session", h.handleCreateSession)
	r.Route("/session/{sessionID}", func(r chi.Router) {
		r.Get("/", h.handleGetSession)
		r.Delete("/", h.handleCloseSession)
		r.Get("/transcript", h.handleTranscript)
		r.Put("/draft", h.handleUpdateDraft)
		r.Post("/submit", h.handleSubmit)
	})
}

type sessionResponse struct {
	chat.Session
	Draft chat.Draft `json:"draft"`
}

// sessionSnapshot is the attach payload plus the session's creation time.
type sessionSnapshot struct {
	view.Snapshot
	CreatedAt time.Time `json:"createdAt"`
}

type draftPayload struct {
	Text         *string `json:"text"`
	UseRetrieval *bool   `json:"useRetrieval"`
}

func (h *Handler) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	session, client, err := h.chatSvc.CreateSession(r.Context())
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.logger.Info("session created", zap.String("session_id", session.ID))
	h.respondJSON(w, http.StatusCreated, sessionResponse{Session: session, Draft: client.Draft()})
}

func (h *Handler) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	session, err := h.chatSvc.GetSession(r.Context(), sessionID)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}
	client, err := h.chatSvc.Client(r.Context(), sessionID)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, sessionSnapshot{
		Snapshot: view.Snapshot{
			SessionID: session.ID,
			Messages:  view.FromMessages(client.Transcript()),
			Draft:     client.Draft(),
		},
		CreatedAt: session.CreatedAt,
	})
}

func (h *Handler) handleCloseSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	if err := h.chatSvc.CloseSession(r.Context(), sessionID); err != nil {
		h.respondLookupError(w, err)
		return
	}

	h.logger.Info("session closed", zap.String("session_id", sessionID))
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatSvc.LoadTranscript(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondLookupError(w, err)
		return
	}

	h.respondJSON(w, http.StatusOK, view.FromMessages(messages))
}

func (h *Handler) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	client, err := h.chatSvc.Client(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		h.respondLookupError(w, err)
		return
	}

	var payload draftPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if payload.Text != nil {
		client.SetText(*payload.Text)
	}
	if payload.UseRetrieval != nil {
		client.SetRetrieval(*payload.UseRetrieval)
	}

	h.respondJSON(w, http.StatusOK, client.Draft())
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	client, err := h.chatSvc.Client(r.Context(), sessionID)
	if err != nil {
		h.respondLookupError(w, err)
		return
	}

	sub, ok := client.Submit(r.Context())
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.logger.Debug("submission accepted",
		zap.String("session_id", sessionID),
		zap.String("request_id", sub.ID),
	)
	h.respondJSON(w, http.StatusAccepted, map[string]string{"requestId": sub.ID})
}

func (h *Handler) respondLookupError(w http.ResponseWriter, err error) {
	if errors.Is(err, chatService.ErrSessionNotFound) {
		h.respondError(w, http.StatusNotFound, err.Error())
		return
	}
	h.respondError(w, http.StatusInternalServerError, err.Error())
}

func (h *Handler) respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	if err := utils.RespondJSON(w, status, payload); err != nil {
		h.logger.Warn("failed to encode response", zap.Error(err))
	}
}

func (h *Handler) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
