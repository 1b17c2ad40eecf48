// Package config loads runtime configuration for the web server and the CLI
// from the environment, optionally seeded from a .env file.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Web holds configuration for cmd/web.
type Web struct {
	Addr           string
	StaticDir      string
	APIBaseURL     string
	URLExpiry      time.Duration
	KeyPrefix      string
	MaxUploadBytes int64
	LogLevel       string
	SessionCookie  string
}

// Client holds configuration for cmd/receipts.
type Client struct {
	APIBaseURL      string
	BrokerURL       string
	LegacyUploadURL string
	SessionFile     string
	ExportDir       string
	HTTPTimeout     time.Duration
	LogLevel        string
	SessionCookie   string
}

// DefaultSessionCookie is the cookie that carries the bearer token.
const DefaultSessionCookie = "token"

// LoadDotEnv loads the first .env file found in the current or parent directory.
// A missing file is not an error; values already in the environment win.
func LoadDotEnv() {
	for _, f := range []string{".env", "../.env"} {
		if err := godotenv.Load(f); err == nil {
			return
		}
	}
}

// LoadWeb reads the web server configuration.
func LoadWeb() Web {
	return Web{
		Addr:           getEnv("WEB_ADDR", ":8080"),
		StaticDir:      getEnv("STATIC_DIR", ""),
		APIBaseURL:     getEnv("API_BASE_URL", "http://localhost:8000/api"),
		URLExpiry:      getEnvAsDuration("UPLOAD_URL_EXPIRY", time.Hour),
		KeyPrefix:      getEnv("UPLOAD_KEY_PREFIX", "receipts"),
		MaxUploadBytes: getEnvAsInt64("MAX_UPLOAD_BYTES", 20<<20),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		SessionCookie:  getEnv("SESSION_COOKIE", DefaultSessionCookie),
	}
}

// LoadClient reads the CLI configuration.
func LoadClient() Client {
	return Client{
		APIBaseURL:      getEnv("API_BASE_URL", "http://localhost:8000/api"),
		BrokerURL:       getEnv("BROKER_URL", "http://localhost:8080/api/upload-url"),
		LegacyUploadURL: getEnv("LEGACY_UPLOAD_URL", ""),
		SessionFile:     ExpandPath(getEnv("SESSION_FILE", "~/.config/receipts/session.json")),
		ExportDir:       ExpandPath(getEnv("EXPORT_DIR", ".")),
		HTTPTimeout:     getEnvAsDuration("HTTP_TIMEOUT", 0),
		LogLevel:        getEnv("LOG_LEVEL", "warn"),
		SessionCookie:   getEnv("SESSION_COOKIE", DefaultSessionCookie),
	}
}

// ExpandPath expands a leading ~ and $VAR references.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
		}
	}
	return os.ExpandEnv(path)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if v, err := strconv.ParseInt(value, 10, 64); err == nil {
			return v
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
