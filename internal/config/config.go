package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is prepended to every environment variable the app reads.
const EnvPrefix = "LUNCHMENU_"

const defaultPort = 8080

// DefaultDatabasePath is used when no database_path is configured.
const DefaultDatabasePath = "data/lunch-menu.db"

// Config holds the configuration for the application.
type Config struct {
	// BackendURL is the base URL of the menu backend; requests go to
	// {BackendURL}/api/{endpoint}.
	BackendURL   string
	Port         int
	DatabasePath string

	// SessionSecret signs the web UI session cookie. When empty, the web
	// server generates a random secret at startup.
	SessionSecret string
	// AllowedOrigins lists the CORS origins of the web UI. Local origins
	// are always allowed.
	AllowedOrigins []string

	// Telegram Config (optional for the CLI and web UI, required for the bot)
	TelegramBotToken       string
	TelegramWebhookURL     string
	TelegramAllowedUserIDs []int64
	AdminTelegramID        int64
}

// NewFromEnv creates a new Config object from environment variables.
// If LUNCHMENU_CONFIG names a YAML file, it is loaded first and the
// environment overrides it.
func NewFromEnv() (*Config, error) {
	return Load(os.Getenv(EnvPrefix + "CONFIG"))
}

// Load reads the optional YAML file at path, overlays LUNCHMENU_* environment
// variables and validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	}

	// LUNCHMENU_BACKEND_URL -> backend_url
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	backendURL := strings.TrimRight(k.String("backend_url"), "/")
	if backendURL == "" {
		return nil, fmt.Errorf("%sBACKEND_URL environment variable not set", EnvPrefix)
	}

	port := defaultPort
	if k.Exists("port") {
		p, err := strconv.Atoi(k.String("port"))
		if err != nil || p <= 0 {
			return nil, fmt.Errorf("invalid %sPORT %q", EnvPrefix, k.String("port"))
		}
		port = p
	}

	dbPath := k.String("database_path")
	if dbPath == "" {
		dbPath = DefaultDatabasePath
	}

	allowed, err := parseIDList(k.String("telegram_allowed_user_ids"))
	if err != nil {
		return nil, fmt.Errorf("invalid %sTELEGRAM_ALLOWED_USER_IDS: %w", EnvPrefix, err)
	}

	var adminID int64
	if raw := k.String("admin_telegram_id"); raw != "" {
		adminID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %sADMIN_TELEGRAM_ID: %w", EnvPrefix, err)
		}
	}

	return &Config{
		BackendURL:             backendURL,
		Port:                   port,
		DatabasePath:           dbPath,
		SessionSecret:          k.String("session_secret"),
		AllowedOrigins:         parseList(k.String("allowed_origins")),
		TelegramBotToken:       k.String("telegram_bot_token"),
		TelegramWebhookURL:     k.String("telegram_webhook_url"),
		TelegramAllowedUserIDs: allowed,
		AdminTelegramID:        adminID,
	}, nil
}

// ValidateTelegram checks the settings the Telegram bot cannot run without.
func (c *Config) ValidateTelegram() error {
	if c.TelegramBotToken == "" {
		return fmt.Errorf("%sTELEGRAM_BOT_TOKEN environment variable not set", EnvPrefix)
	}
	if c.TelegramWebhookURL == "" {
		return fmt.Errorf("%sTELEGRAM_WEBHOOK_URL environment variable not set", EnvPrefix)
	}
	return nil
}

// parseList splits a comma separated list, dropping empty entries.
func parseList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parseIDList parses a comma separated list such as "123, 456".
func parseIDList(raw string) ([]int64, error) {
	var ids []int64
	for _, part := range parseList(raw) {
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
