package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/meeting-agent/chatwidget/internal/handler/chat"
	"github.com/meeting-agent/chatwidget/internal/handler/stream"
	"github.com/meeting-agent/chatwidget/internal/handler/ws"
	middlewarePkg "github.com/meeting-agent/chatwidget/internal/middleware"
	chatService "github.com/meeting-agent/chatwidget/internal/service/chat"
	"github.com/meeting-agent/chatwidget/pkg/utils"
)

// NewRouter wires HTTP routes to the chat service and serves the widget page
// from static.
func NewRouter(chatSvc *chatService.Service, static http.Handler, logger *zap.Logger) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	chatHandler := chat.New(chatSvc, logger)
	streamHandler := stream.New(chatSvc, logger)
	wsHandler := ws.New(chatSvc, logger)

	r.Route("/api", func(api chi.Router) {
		chatHandler.RegisterRoutes(api)
		streamHandler.RegisterRoutes(api)
		wsHandler.RegisterRoutes(api)

		api.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
			_ = utils.RespondJSON(w, http.StatusOK, map[string]any{
				"status":   "ok",
				"sessions": chatSvc.Len(),
			})
		})
	})

	if static != nil {
		r.Handle("/*", static)
	}

	return r
}
