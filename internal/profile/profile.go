package profile

import (
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is the configuration to start main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo"
	Mode string
	// Addr is the binding address for server
	Addr string
	// Port is the binding port for server
	Port int
	// Data is the data directory holding the chat records
	Data string
	// Version is the current version of server
	Version string

	// AI Configuration
	OpenAIAPIKey  string  // EVELYN_OPENAI_API_KEY
	OpenAIBaseURL string  // EVELYN_OPENAI_BASE_URL (default: https://api.openai.com/v1)
	ChatModel     string  // EVELYN_CHAT_MODEL (default: gpt-4o-mini)
	Temperature   float32 // EVELYN_TEMPERATURE (default: 0.8)

	// RateLimitEnabled turns on per-chat request throttling
	RateLimitEnabled bool // EVELYN_RATE_LIMIT_ENABLED (default: false)
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if an API key or a custom base URL is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.OpenAIAPIKey != "" || p.OpenAIBaseURL != "https://api.openai.com/v1"
}

// ChatsDir returns the directory holding one record file per chat.
func (p *Profile) ChatsDir() string {
	return filepath.Join(p.Data, "chats")
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// FromEnv loads configuration from EVELYN_* environment variables.
func (p *Profile) FromEnv() {
	p.OpenAIAPIKey = os.Getenv("EVELYN_OPENAI_API_KEY")
	p.OpenAIBaseURL = getEnvOrDefault("EVELYN_OPENAI_BASE_URL", "https://api.openai.com/v1")
	p.ChatModel = getEnvOrDefault("EVELYN_CHAT_MODEL", "gpt-4o-mini")
	p.RateLimitEnabled = os.Getenv("EVELYN_RATE_LIMIT_ENABLED") == "true"

	p.Temperature = 0.8
	if raw := os.Getenv("EVELYN_TEMPERATURE"); raw != "" {
		if v, err := strconv.ParseFloat(raw, 32); err == nil && v >= 0 && v <= 2 {
			p.Temperature = float32(v)
		}
	}
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "evelyn")
		} else {
			p.Data = "/var/opt/evelyn"
		}
		if _, err := os.Stat(p.Data); os.IsNotExist(err) {
			if err := os.MkdirAll(p.Data, 0o770); err != nil {
				slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
				return err
			}
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data directory", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}
	p.Data = dataDir

	if err := os.MkdirAll(p.ChatsDir(), 0o755); err != nil {
		return errors.Wrapf(err, "unable to create chats directory %s", p.ChatsDir())
	}

	return nil
}
