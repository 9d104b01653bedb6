package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Storage      StorageConfig
	Guild        GuildConfig
	Lifecycle    LifecycleConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// StorageConfig locates the durable record collections and transcript archive.
type StorageConfig struct {
	DataDir        string
	TranscriptsDir string
}

// GuildConfig identifies the guild-side collaborators the controller talks to.
type GuildConfig struct {
	CategoryID         string
	StaffRoleID        string
	TranscriptsChannel string
}

// LifecycleConfig tunes ticket lifecycle behavior.
type LifecycleConfig struct {
	OpenTicketLimit       int
	CloseConfirmTTLSec    int
	RatingPromptTTLSec    int
	ChannelDeleteDelaySec int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines ops-API authentication parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	AdminUser             string
	AdminPasswordHash     string
	BcryptCost            int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticketd"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Storage: StorageConfig{
			DataDir:        getEnv("DATA_DIR", "data"),
			TranscriptsDir: getEnv("TRANSCRIPTS_DIR", "transcripts"),
		},
		Guild: GuildConfig{
			CategoryID:         os.Getenv("GUILD_TICKET_CATEGORY_ID"),
			StaffRoleID:        os.Getenv("GUILD_STAFF_ROLE_ID"),
			TranscriptsChannel: os.Getenv("GUILD_TRANSCRIPTS_CHANNEL_ID"),
		},
		Lifecycle: LifecycleConfig{
			OpenTicketLimit:       getEnvAsInt("TICKET_OPEN_LIMIT", 1),
			CloseConfirmTTLSec:    getEnvAsInt("TICKET_CLOSE_CONFIRM_TTL_SECONDS", 60),
			RatingPromptTTLSec:    getEnvAsInt("TICKET_RATING_PROMPT_TTL_SECONDS", 300),
			ChannelDeleteDelaySec: getEnvAsInt("TICKET_CHANNEL_DELETE_DELAY_SECONDS", 5),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			AdminUser:             getEnv("AUTH_ADMIN_USER", "admin"),
			AdminPasswordHash:     os.Getenv("AUTH_ADMIN_PASSWORD_HASH"),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if cfg.Lifecycle.OpenTicketLimit < 1 {
		return nil, fmt.Errorf("TICKET_OPEN_LIMIT must be at least 1")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// CloseConfirmTTL bounds how long a close-confirmation prompt stays live.
func (l LifecycleConfig) CloseConfirmTTL() time.Duration {
	return time.Duration(l.CloseConfirmTTLSec) * time.Second
}

// RatingPromptTTL bounds how long a rating prompt stays live.
func (l LifecycleConfig) RatingPromptTTL() time.Duration {
	return time.Duration(l.RatingPromptTTLSec) * time.Second
}

// ChannelDeleteDelay is the grace period before a closed ticket's channel is removed.
func (l LifecycleConfig) ChannelDeleteDelay() time.Duration {
	return time.Duration(l.ChannelDeleteDelaySec) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
