package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/meeting-agent/chatwidget/internal/handler/view"
	chatService "github.com/meeting-agent/chatwidget/internal/service/chat"
)

const (
	readTimeout  = 60 * time.Second
	pingInterval = 30 * time.Second
	writeTimeout = 10 * time.Second
)

// Handler drives a chat client from the widget page over a websocket.
type Handler struct {
	chatSvc  *chatService.Service
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// New creates the websocket handler.
func New(chatSvc *chatService.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		chatSvc: chatSvc,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// RegisterRoutes mounts the websocket endpoint on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/ws/{sessionID}", h.handleWebSocket)
}

type inboundMessage struct {
	Type      string          `json:"type"`
	Data      json.RawMessage `json:"data"`
	Timestamp int64           `json:"timestamp"`
}

// DraftMessage replaces the draft text.
type DraftMessage struct {
	Text string `json:"text"`
}

// RetrievalMessage sets the retrieval flag.
type RetrievalMessage struct {
	Enabled bool `json:"enabled"`
}

// SubmitMessage submits the draft. When Text is set it replaces the draft
// first, so a page can send its input value and submit in one frame.
type SubmitMessage struct {
	Text *string `json:"text,omitempty"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// connection serialises writes; gorilla connections allow one writer at a time.
type connection struct {
	sessionID string
	conn      *websocket.Conn
	mu        sync.Mutex
}

func (c *connection) send(msgType string, data interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(outgoingMessage{
		Type:      msgType,
		SessionID: c.sessionID,
		Data:      data,
		Timestamp: time.Now().Unix(),
	})
}

func (c *connection) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout))
}

func (h *Handler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	client, err := h.chatSvc.Client(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, chatService.ErrSessionNotFound) {
			http.Error(w, "session not found", http.StatusNotFound)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	log := h.logger.With(zap.String("session_id", sessionID))
	log.Debug("websocket connected")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	c := &connection{sessionID: sessionID, conn: conn}

	sub := client.Subscribe(0)
	defer sub.Close()

	_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})

	if err := c.send("connected", view.NewSnapshot(sessionID, sub)); err != nil {
		log.Debug("websocket write failed", zap.Error(err))
		return
	}

	go h.pingLoop(ctx, c)
	go h.forwardEvents(ctx, cancel, c, sub)

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		h.handleMessage(ctx, c, client, &msg)

		if ctx.Err() != nil {
			return
		}
	}
}

func (h *Handler) handleMessage(ctx context.Context, c *connection, client *chatService.Client, msg *inboundMessage) {
	switch msg.Type {
	case "draft":
		var payload DraftMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			h.sendError(c, "invalid draft payload")
			return
		}
		client.SetText(payload.Text)
	case "retrieval":
		var payload RetrievalMessage
		if err := json.Unmarshal(msg.Data, &payload); err != nil {
			h.sendError(c, "invalid retrieval payload")
			return
		}
		client.SetRetrieval(payload.Enabled)
	case "submit":
		var payload SubmitMessage
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &payload); err != nil {
				h.sendError(c, "invalid submit payload")
				return
			}
		}
		if payload.Text != nil {
			client.SetText(*payload.Text)
		}
		if sub, ok := client.Submit(ctx); ok {
			_ = c.send("submitted", map[string]string{"requestId": sub.ID})
		}
	default:
		h.sendError(c, "unsupported message type: "+msg.Type)
	}
}

// forwardEvents pushes client events to the page until ctx ends. A dropped
// subscription ends the connection so the page reconnects and resyncs.
func (h *Handler) forwardEvents(ctx context.Context, cancel context.CancelFunc, c *connection, sub *chatService.Subscription) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-sub.Events:
			if !ok {
				h.sendError(c, "transcript subscription dropped")
				_ = c.conn.Close()
				return
			}
			name, payload := view.EventPayload(ev)
			if err := c.send(name, payload); err != nil {
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (h *Handler) sendError(c *connection, message string) {
	if err := c.send("error", map[string]string{"message": message}); err != nil {
		h.logger.Debug("websocket write error failed", zap.Error(err))
	}
}

func (h *Handler) pingLoop(ctx context.Context, c *connection) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.ping(); err != nil {
				return
			}
		}
	}
}
