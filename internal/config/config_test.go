package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewFromEnv(t *testing.T) {
	// Helper function to set environment variables for a test
	setEnv := func(key, value string) {
		t.Helper()
		t.Setenv(key, value)
	}

	t.Run("Success", func(t *testing.T) {
		setEnv("LUNCHMENU_BACKEND_URL", "http://backend.test/")
		setEnv("LUNCHMENU_PORT", "9090")
		setEnv("LUNCHMENU_TELEGRAM_ALLOWED_USER_IDS", "11, 22")
		setEnv("LUNCHMENU_ADMIN_TELEGRAM_ID", "11")
		setEnv("LUNCHMENU_ALLOWED_ORIGINS", "https://menu.example.com, ,https://school.example.com")

		cfg, err := NewFromEnv()
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.BackendURL != "http://backend.test" {
			t.Errorf("Expected BackendURL to be 'http://backend.test', got '%s'", cfg.BackendURL)
		}
		if cfg.Port != 9090 {
			t.Errorf("Expected Port to be 9090, got %d", cfg.Port)
		}
		if cfg.DatabasePath != DefaultDatabasePath {
			t.Errorf("Expected default DatabasePath, got '%s'", cfg.DatabasePath)
		}
		if len(cfg.TelegramAllowedUserIDs) != 2 || cfg.TelegramAllowedUserIDs[1] != 22 {
			t.Errorf("Expected allowed IDs [11 22], got %v", cfg.TelegramAllowedUserIDs)
		}
		if cfg.AdminTelegramID != 11 {
			t.Errorf("Expected AdminTelegramID 11, got %d", cfg.AdminTelegramID)
		}
		if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://school.example.com" {
			t.Errorf("Expected two allowed origins, got %v", cfg.AllowedOrigins)
		}
	})

	t.Run("MissingBackendURL", func(t *testing.T) {
		os.Unsetenv("LUNCHMENU_BACKEND_URL")

		_, err := NewFromEnv()
		if err == nil {
			t.Fatal("Expected an error for missing LUNCHMENU_BACKEND_URL, got nil")
		}
		expectedError := "LUNCHMENU_BACKEND_URL environment variable not set"
		if err.Error() != expectedError {
			t.Errorf("Expected error '%s', got '%s'", expectedError, err.Error())
		}
	})

	t.Run("InvalidPort", func(t *testing.T) {
		setEnv("LUNCHMENU_BACKEND_URL", "http://backend.test")
		setEnv("LUNCHMENU_PORT", "eighty")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for a non-numeric port, got nil")
		}
	})

	t.Run("InvalidAllowedIDs", func(t *testing.T) {
		setEnv("LUNCHMENU_BACKEND_URL", "http://backend.test")
		setEnv("LUNCHMENU_PORT", "8080")
		setEnv("LUNCHMENU_TELEGRAM_ALLOWED_USER_IDS", "11,abc")

		if _, err := NewFromEnv(); err == nil {
			t.Fatal("Expected an error for a malformed ID list, got nil")
		}
	})
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lunch-menu.yml")
	content := "backend_url: http://from-file.test\nport: 7070\ndatabase_path: /tmp/menu.db\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	t.Run("FileOnly", func(t *testing.T) {
		os.Unsetenv("LUNCHMENU_BACKEND_URL")
		os.Unsetenv("LUNCHMENU_PORT")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.BackendURL != "http://from-file.test" {
			t.Errorf("Expected BackendURL from file, got '%s'", cfg.BackendURL)
		}
		if cfg.Port != 7070 {
			t.Errorf("Expected Port 7070, got %d", cfg.Port)
		}
		if cfg.DatabasePath != "/tmp/menu.db" {
			t.Errorf("Expected DatabasePath from file, got '%s'", cfg.DatabasePath)
		}
	})

	t.Run("EnvOverridesFile", func(t *testing.T) {
		t.Setenv("LUNCHMENU_BACKEND_URL", "http://from-env.test")

		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Expected no error, got %v", err)
		}
		if cfg.BackendURL != "http://from-env.test" {
			t.Errorf("Expected env to override file, got '%s'", cfg.BackendURL)
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "absent.yml")); err == nil {
			t.Fatal("Expected an error for a missing config file, got nil")
		}
	})
}

func TestValidateTelegram(t *testing.T) {
	cfg := &Config{BackendURL: "http://backend.test"}
	if err := cfg.ValidateTelegram(); err == nil {
		t.Fatal("Expected an error without a bot token")
	}

	cfg.TelegramBotToken = "token"
	cfg.TelegramWebhookURL = "https://bot.test/webhook"
	if err := cfg.ValidateTelegram(); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}
