package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultBackendURL = "http://localhost:8000"

// Config aggregates every setting of the widget processes.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Backend BackendConfig `yaml:"backend"`
	Chat    ChatConfig    `yaml:"chat"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig describes the HTTP listener of the web widget host.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// BackendConfig describes the remote chat backend. The base URL is fixed for
// the lifetime of the process.
type BackendConfig struct {
	BaseURL string `yaml:"base_url"`
	// Timeout of zero means requests never time out.
	Timeout time.Duration `yaml:"timeout"`
	// StrictStatus treats non-2xx replies as failures even when their body
	// decodes as JSON.
	StrictStatus    bool `yaml:"strict_status"`
	MaxContextItems *int `yaml:"max_context_items"`
}

// ChatConfig holds client-side behaviour of the widget.
type ChatConfig struct {
	DefaultRetrieval bool `yaml:"default_retrieval"`
	OrderedReplies   bool `yaml:"ordered_replies"`
}

// LogConfig selects the zap logger flavour.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Server:  ServerConfig{Addr: ":8080"},
		Backend: BackendConfig{BaseURL: defaultBackendURL},
		Chat:    ChatConfig{DefaultRetrieval: true},
		Log:     LogConfig{Level: "info"},
	}
}

// Load builds the configuration from an optional YAML file named by
// CHAT_CONFIG, then applies environment overrides.
func Load() (*Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("CHAT_CONFIG")); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if err := applyServerEnv(&cfg.Server); err != nil {
		return nil, err
	}
	if err := applyBackendEnv(&cfg.Backend); err != nil {
		return nil, err
	}
	if err := applyChatEnv(&cfg.Chat); err != nil {
		return nil, err
	}
	if err := applyLogEnv(&cfg.Log); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid backend url %q: %w", c.Backend.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid backend url %q: scheme must be http or https", c.Backend.BaseURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid backend url %q: missing host", c.Backend.BaseURL)
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("invalid backend timeout %s", c.Backend.Timeout)
	}
	if c.Backend.MaxContextItems != nil && *c.Backend.MaxContextItems < 1 {
		return fmt.Errorf("invalid max context items %d", *c.Backend.MaxContextItems)
	}
	return nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func applyServerEnv(server *ServerConfig) error {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		return nil
	}

	if strings.Contains(port, ":") {
		// accepts ":8080" or "127.0.0.1:8080"
		server.Addr = port
		return nil
	}

	if strings.Contains(port, " ") {
		return fmt.Errorf("invalid PORT value: %q", port)
	}

	server.Addr = ":" + port
	return nil
}

func applyBackendEnv(backend *BackendConfig) error {
	backend.BaseURL = strings.TrimRight(getEnvOrDefault("BACKEND_URL", backend.BaseURL), "/")

	timeout, err := parseOptionalDurationEnv("BACKEND_TIMEOUT")
	if err != nil {
		return err
	}
	if timeout != nil {
		backend.Timeout = *timeout
	}

	strict, err := parseBoolEnv("BACKEND_STRICT_STATUS", backend.StrictStatus)
	if err != nil {
		return err
	}
	backend.StrictStatus = strict

	maxItems, err := parseOptionalIntEnv("BACKEND_MAX_CONTEXT_ITEMS")
	if err != nil {
		return err
	}
	if maxItems != nil {
		backend.MaxContextItems = maxItems
	}
	return nil
}

func applyChatEnv(chat *ChatConfig) error {
	retrieval, err := parseBoolEnv("CHAT_DEFAULT_RETRIEVAL", chat.DefaultRetrieval)
	if err != nil {
		return err
	}
	ordered, err := parseBoolEnv("CHAT_ORDERED_REPLIES", chat.OrderedReplies)
	if err != nil {
		return err
	}
	chat.DefaultRetrieval = retrieval
	chat.OrderedReplies = ordered
	return nil
}

func applyLogEnv(log *LogConfig) error {
	log.Level = strings.ToLower(getEnvOrDefault("LOG_LEVEL", log.Level))
	dev, err := parseBoolEnv("LOG_DEVELOPMENT", log.Development)
	if err != nil {
		return err
	}
	log.Development = dev
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseBoolEnv(key string, defaultValue bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return defaultValue, nil
	}

	val, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("invalid %s value %q: %w", key, raw, err)
	}
	return val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalDurationEnv(key string) (*time.Duration, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	// bare integers are seconds
	if secs, err := strconv.Atoi(value); err == nil {
		d := time.Duration(secs) * time.Second
		return &d, nil
	}

	val, err := time.ParseDuration(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
