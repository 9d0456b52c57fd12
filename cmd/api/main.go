package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meeting-agent/chatwidget/internal/backend"
	"github.com/meeting-agent/chatwidget/internal/config"
	"github.com/meeting-agent/chatwidget/internal/handler"
	"github.com/meeting-agent/chatwidget/internal/logging"
	"github.com/meeting-agent/chatwidget/internal/service/chat"
	"github.com/meeting-agent/chatwidget/internal/web"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// a missing .env is fine, the environment may already be set
	envErr := godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if envErr != nil {
		logger.Debug("no .env file loaded, using process environment", zap.Error(envErr))
	}

	backendClient := backend.NewFromConfig(cfg.Backend, logger.Named("backend"))
	chatService := chat.NewService(func() *chat.Client {
		return chat.NewClient(backendClient, chat.Options{
			DefaultRetrieval: cfg.Chat.DefaultRetrieval,
			OrderedReplies:   cfg.Chat.OrderedReplies,
			MaxContextItems:  cfg.Backend.MaxContextItems,
			Logger:           logger.Named("chat"),
		})
	})

	static, err := web.Handler()
	if err != nil {
		logger.Fatal("failed to load widget assets", zap.Error(err))
	}

	router := handler.NewRouter(chatService, static, logger.Named("http"))

	logger.Info("chat widget configured",
		zap.String("backend", backendClient.BaseURL()),
		zap.Bool("default_retrieval", cfg.Chat.DefaultRetrieval),
		zap.Bool("ordered_replies", cfg.Chat.OrderedReplies),
	)

	if err := startServer(ctx, cfg.Server, router, logger); err != nil {
		logger.Fatal("server error", zap.Error(err))
	}
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	logger.Info("chat widget listening", zap.String("addr", srv.Addr))
	return runServer(ctx, srv)
}

func runServer(ctx context.Context, srv *http.Server) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
