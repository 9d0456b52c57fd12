package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/meeting-agent/chatwidget/internal/handler/view"
	chatService "github.com/meeting-agent/chatwidget/internal/service/chat"
	"github.com/meeting-agent/chatwidget/pkg/utils"
)

const keepAliveInterval = 15 * time.Second

// Handler streams a session's transcript as Server-Sent Events.
type Handler struct {
	chatSvc   *chatService.Service
	logger    *zap.Logger
	keepAlive time.Duration
}

// New creates a stream handler.
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc:   chatSvc,
		logger:    logger,
		keepAlive: keepAliveInterval,
	}
}

// RegisterRoutes mounts the SSE feed on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/stream/{sessionID}", h.handleStream)
}

func (h *Handler) handleStream(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	client, err := h.chatSvc.Client(r.Context(), sessionID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, chatService.ErrSessionNotFound) {
			status = http.StatusNotFound
		}
		_ = utils.RespondError(w, status, err.Error())
		return
	}

	if err := h.Stream(r.Context(), w, sessionID, client); err != nil {
		h.logger.Debug("transcript stream ended", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// Stream writes a snapshot of the client followed by every later event until
// ctx ends or the subscription is dropped.
func (h *Handler) Stream(ctx context.Context, w http.ResponseWriter, sessionID string, client *chatService.Client) error {
	flusher, ok := w.(http.Flusher)
	if !ok {
		_ = utils.RespondError(w, http.StatusInternalServerError, "streaming unsupported")
		return fmt.Errorf("streaming unsupported")
	}

	utils.SetupSSEHeaders(w)

	sub := client.Subscribe(0)
	defer sub.Close()

	if err := utils.SendSSEEvent(w, flusher, "snapshot", view.NewSnapshot(sessionID, sub)); err != nil {
		return err
	}

	ticker := time.NewTicker(h.keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := utils.SendSSEComment(w, flusher, "keep-alive"); err != nil {
				return err
			}
		case ev, ok := <-sub.Events:
			if !ok {
				return fmt.Errorf("subscription dropped")
			}
			name, payload := view.EventPayload(ev)
			if err := utils.SendSSEEvent(w, flusher, name, payload); err != nil {
				return err
			}
		}
	}
}
