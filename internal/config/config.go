package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppName string
	Env     string
	Host    string
	Port    int

	// DataPath is the SQLite database location. ":memory:" is accepted for
	// throwaway runs.
	DataPath string

	// APISecret signs local API tokens and derives the identity-at-rest key.
	APISecret string

	CORSOrigins   []string
	TokenTTL      time.Duration
	MockTransport bool

	// Relay endpoint applied when a fresh identity is created.
	RelayURL       string
	RelayPublicKey string

	// Read-receipt tuning.
	VisibilityDwell time.Duration
	AckRetryDelay   time.Duration

	MaxMessagesPerConversation int
}

func Load() (*Config, error) {
	cfg := &Config{
		AppName: getEnv("APP_NAME", "smashchatd"),
		Env:     getEnv("APP_ENV", "development"),
		Host:    getEnv("HTTP_HOST", "127.0.0.1"),
		Port:    getEnvAsInt("HTTP_PORT", 7680),

		DataPath: getEnv("DATA_PATH", defaultDataPath()),

		APISecret: os.Getenv("API_SECRET"),

		TokenTTL:      time.Duration(getEnvAsInt("TOKEN_TTL_MINUTES", 60*24)) * time.Minute,
		MockTransport: getEnvAsBool("MOCK_TRANSPORT", false),

		RelayURL:       getEnv("RELAY_URL", ""),
		RelayPublicKey: getEnv("RELAY_PUBLIC_KEY", ""),

		VisibilityDwell: time.Duration(getEnvAsInt("VISIBILITY_DWELL_MS", 400)) * time.Millisecond,
		AckRetryDelay:   time.Duration(getEnvAsInt("ACK_RETRY_DELAY_MS", 1000)) * time.Millisecond,

		MaxMessagesPerConversation: getEnvAsInt("MAX_MESSAGES_PER_CONVERSATION", 1000),
	}

	cors := getEnv("CORS_ORIGINS", "")
	if cors != "" {
		parts := strings.Split(cors, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		cfg.CORSOrigins = parts
	} else {
		cfg.CORSOrigins = []string{"http://localhost:3000", "http://localhost:5173"}
	}

	if cfg.APISecret == "" {
		return nil, fmt.Errorf("API_SECRET is required")
	}

	if cfg.DataPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DataPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
	}

	return cfg, nil
}

func (c *Config) HTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func defaultDataPath() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "smashchats", "client.db")
	}
	return "smashchats.db"
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvAsInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getEnvAsBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}
