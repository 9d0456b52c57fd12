package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meeting-agent/chatwidget/internal/backend"
	"github.com/meeting-agent/chatwidget/internal/config"
	"github.com/meeting-agent/chatwidget/internal/logging"
	"github.com/meeting-agent/chatwidget/internal/service/chat"
	"github.com/meeting-agent/chatwidget/internal/tui"
)

type options struct {
	backendURL string
	retrieval  bool
	ordered    bool
	verbose    bool
	logFile    string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Meeting Agent chat in the terminal",
		Long: `Ask questions about your meetings from the terminal.

Each question is sent to the chat backend and the answer is appended to the
transcript once it arrives. Enter sends, ctrl+r toggles retrieval, esc quits.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, opts)
			if err != nil {
				return err
			}
			return run(cfg, opts)
		},
	}

	cmd.Flags().StringVar(&opts.backendURL, "backend", "", "chat backend base URL (overrides BACKEND_URL)")
	cmd.Flags().BoolVar(&opts.retrieval, "retrieval", true, "start with retrieval enabled")
	cmd.Flags().BoolVar(&opts.ordered, "ordered", false, "show replies in the order questions were asked")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	cmd.Flags().StringVar(&opts.logFile, "log-file", filepath.Join(os.TempDir(), "chatwidget.log"), "where to write logs")

	return cmd
}

// resolveConfig loads .env and the environment, then lets explicit flags win.
func resolveConfig(cmd *cobra.Command, opts *options) (*config.Config, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Backend.BaseURL = strings.TrimRight(opts.backendURL, "/")
	}
	if flags.Changed("retrieval") {
		cfg.Chat.DefaultRetrieval = opts.retrieval
	}
	if flags.Changed("ordered") {
		cfg.Chat.OrderedReplies = opts.ordered
	}
	if opts.verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cfg *config.Config, opts *options) error {
	logger, err := logging.ToFile(cfg.Log, opts.logFile)
	if err != nil {
		logger = zap.NewNop()
	}
	defer func() { _ = logger.Sync() }()

	backendClient := backend.NewFromConfig(cfg.Backend, logger.Named("backend"))
	client := chat.NewClient(backendClient, chat.Options{
		DefaultRetrieval: cfg.Chat.DefaultRetrieval,
		OrderedReplies:   cfg.Chat.OrderedReplies,
		MaxContextItems:  cfg.Backend.MaxContextItems,
		Logger:           logger.Named("chat"),
	})

	model := tui.New(client, backendClient.BaseURL())
	defer model.Close()

	logger.Info("terminal chat started", zap.String("backend", backendClient.BaseURL()))

	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("terminal ui: %w", err)
	}
	return nil
}
