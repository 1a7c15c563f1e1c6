package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the top-level service configuration. Values come from an optional
// JSON config file and are overridden by environment variables.
type Config struct {
	ServerConfig   ServerConfig   `json:"server"`
	DatabaseConfig DatabaseConfig `json:"database"`
	RedisConfig    RedisConfig    `json:"redis"`
	AuthConfig     AuthConfig     `json:"auth"`
	VaultConfig    VaultConfig    `json:"vault"`
	LLMConfig      LLMConfig      `json:"llm"`
	WebhookConfig  WebhookConfig  `json:"webhook"`
	EmailConfig    EmailConfig    `json:"email"`
	PipelineConfig PipelineConfig `json:"pipeline"`
	LoggingConfig  LoggingConfig  `json:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	ProductionMode bool   `json:"production_mode"`
	AllowedOrigins string `json:"allowed_origins"` // comma-separated, "*" for any
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"ssl_mode"`
}

// RedisConfig holds the settings-cache Redis configuration
type RedisConfig struct {
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address"`
	Password string `json:"password"`
	DB       int    `json:"db"`
	PoolSize int    `json:"pool_size"`
}

// AuthConfig holds JWT and password settings
type AuthConfig struct {
	JWTSecret             string        `json:"jwt_secret"`
	AccessTokenDuration   time.Duration `json:"access_token_duration"`
	RefreshTokenDuration  time.Duration `json:"refresh_token_duration"`
	MinPasswordLength     int           `json:"min_password_length"`
	PasswordResetDuration time.Duration `json:"password_reset_duration"`
}

// VaultConfig holds optional HashiCorp Vault settings. When disabled, the LLM
// API key and JWT secret are taken from the environment instead.
type VaultConfig struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`
	SecretPath string `json:"secret_path"`
}

// LLMConfig holds the hosted LLM client configuration
type LLMConfig struct {
	Provider    string        `json:"provider"` // "gemini", "claude", or "openai"
	APIKey      string        `json:"api_key"`
	Model       string        `json:"model"`
	BaseURL     string        `json:"base_url"` // override for tests/proxies; empty = provider default
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Timeout     time.Duration `json:"timeout"`
}

// WebhookConfig holds the best-effort trade-log webhook settings
type WebhookConfig struct {
	Enabled bool   `json:"enabled"`
	URL     string `json:"url"`
}

// EmailConfig holds SMTP settings for trade notification emails
type EmailConfig struct {
	Enabled  bool   `json:"enabled"`
	Host     string `json:"host"`
	Port     string `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	From     string `json:"from"`
	FromName string `json:"from_name"`
	To       string `json:"to"`
}

// PipelineConfig holds signal pipeline tuning
type PipelineConfig struct {
	CooldownSeconds int           `json:"cooldown_seconds"`
	SyncMinSeconds  int           `json:"sync_min_seconds"`
	SyncMaxSeconds  int           `json:"sync_max_seconds"`
	StageTimeout    time.Duration `json:"stage_timeout"`
}

// LoggingConfig holds structured logger configuration
type LoggingConfig struct {
	Level      string `json:"level"`  // DEBUG, INFO, WARN, ERROR
	Output     string `json:"output"` // stdout, stderr, or file path
	JSONFormat bool   `json:"json_format"`
}

// Load reads configuration from the file named by CONFIG_FILE (default
// config.json, optional) and applies environment overrides on top.
func Load() (*Config, error) {
	cfg := defaultConfig()

	filename := getEnvOrDefault("CONFIG_FILE", "config.json")
	if _, err := os.Stat(filename); err == nil {
		fileCfg, err := loadFromFile(filename)
		if err != nil {
			return nil, err
		}
		cfg = fileCfg
	}

	applyEnvOverrides(cfg)

	if cfg.PipelineConfig.SyncMaxSeconds < cfg.PipelineConfig.SyncMinSeconds {
		return nil, fmt.Errorf("pipeline sync window is inverted: min=%d max=%d",
			cfg.PipelineConfig.SyncMinSeconds, cfg.PipelineConfig.SyncMaxSeconds)
	}

	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		ServerConfig: ServerConfig{
			Host:           "0.0.0.0",
			Port:           8080,
			AllowedOrigins: "*",
		},
		DatabaseConfig: DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "postgres",
			Database: "omnicore",
			SSLMode:  "disable",
		},
		RedisConfig: RedisConfig{
			Address:  "localhost:6379",
			PoolSize: 10,
		},
		AuthConfig: AuthConfig{
			AccessTokenDuration:   15 * time.Minute,
			RefreshTokenDuration:  7 * 24 * time.Hour,
			MinPasswordLength:     8,
			PasswordResetDuration: time.Hour,
		},
		VaultConfig: VaultConfig{
			Address:    "http://localhost:8200",
			MountPath:  "secret",
			SecretPath: "omnicore/credentials",
		},
		LLMConfig: LLMConfig{
			Provider:    "gemini",
			Model:       "gemini-2.5-flash",
			MaxTokens:   2048,
			Temperature: 0.3,
			Timeout:     45 * time.Second,
		},
		PipelineConfig: PipelineConfig{
			CooldownSeconds: 60,
			SyncMinSeconds:  2,
			SyncMaxSeconds:  5,
			StageTimeout:    60 * time.Second,
		},
		LoggingConfig: LoggingConfig{
			Level:      "INFO",
			Output:     "stdout",
			JSONFormat: true,
		},
	}
}

func applyEnvOverrides(cfg *Config) {
	// Server
	cfg.ServerConfig.Host = getEnvOrDefault("SERVER_HOST", cfg.ServerConfig.Host)
	cfg.ServerConfig.Port = getEnvIntOrDefault("SERVER_PORT", cfg.ServerConfig.Port)
	cfg.ServerConfig.ProductionMode = getEnvOrDefault("SERVER_PRODUCTION_MODE", boolString(cfg.ServerConfig.ProductionMode)) == "true"
	cfg.ServerConfig.AllowedOrigins = getEnvOrDefault("SERVER_ALLOWED_ORIGINS", cfg.ServerConfig.AllowedOrigins)

	// Database
	cfg.DatabaseConfig.Host = getEnvOrDefault("DB_HOST", cfg.DatabaseConfig.Host)
	cfg.DatabaseConfig.Port = getEnvIntOrDefault("DB_PORT", cfg.DatabaseConfig.Port)
	cfg.DatabaseConfig.User = getEnvOrDefault("DB_USER", cfg.DatabaseConfig.User)
	cfg.DatabaseConfig.Password = getEnvOrDefault("DB_PASSWORD", cfg.DatabaseConfig.Password)
	cfg.DatabaseConfig.Database = getEnvOrDefault("DB_NAME", cfg.DatabaseConfig.Database)
	cfg.DatabaseConfig.SSLMode = getEnvOrDefault("DB_SSL_MODE", cfg.DatabaseConfig.SSLMode)

	// Redis
	cfg.RedisConfig.Enabled = getEnvOrDefault("REDIS_ENABLED", boolString(cfg.RedisConfig.Enabled)) == "true"
	cfg.RedisConfig.Address = getEnvOrDefault("REDIS_ADDRESS", cfg.RedisConfig.Address)
	cfg.RedisConfig.Password = getEnvOrDefault("REDIS_PASSWORD", cfg.RedisConfig.Password)
	cfg.RedisConfig.DB = getEnvIntOrDefault("REDIS_DB", cfg.RedisConfig.DB)
	cfg.RedisConfig.PoolSize = getEnvIntOrDefault("REDIS_POOL_SIZE", cfg.RedisConfig.PoolSize)

	// Auth
	cfg.AuthConfig.JWTSecret = getEnvOrDefault("AUTH_JWT_SECRET", cfg.AuthConfig.JWTSecret)
	cfg.AuthConfig.AccessTokenDuration = getEnvDurationOrDefault("AUTH_ACCESS_TOKEN_DURATION", cfg.AuthConfig.AccessTokenDuration)
	cfg.AuthConfig.RefreshTokenDuration = getEnvDurationOrDefault("AUTH_REFRESH_TOKEN_DURATION", cfg.AuthConfig.RefreshTokenDuration)
	cfg.AuthConfig.MinPasswordLength = getEnvIntOrDefault("AUTH_MIN_PASSWORD_LENGTH", cfg.AuthConfig.MinPasswordLength)
	cfg.AuthConfig.PasswordResetDuration = getEnvDurationOrDefault("AUTH_PASSWORD_RESET_DURATION", cfg.AuthConfig.PasswordResetDuration)

	// Vault
	cfg.VaultConfig.Enabled = getEnvOrDefault("VAULT_ENABLED", boolString(cfg.VaultConfig.Enabled)) == "true"
	cfg.VaultConfig.Address = getEnvOrDefault("VAULT_ADDR", cfg.VaultConfig.Address)
	cfg.VaultConfig.Token = getEnvOrDefault("VAULT_TOKEN", cfg.VaultConfig.Token)
	cfg.VaultConfig.MountPath = getEnvOrDefault("VAULT_MOUNT_PATH", cfg.VaultConfig.MountPath)
	cfg.VaultConfig.SecretPath = getEnvOrDefault("VAULT_SECRET_PATH", cfg.VaultConfig.SecretPath)

	// LLM
	cfg.LLMConfig.Provider = getEnvOrDefault("LLM_PROVIDER", cfg.LLMConfig.Provider)
	cfg.LLMConfig.APIKey = getEnvOrDefault("LLM_API_KEY", cfg.LLMConfig.APIKey)
	cfg.LLMConfig.Model = getEnvOrDefault("LLM_MODEL", cfg.LLMConfig.Model)
	cfg.LLMConfig.BaseURL = getEnvOrDefault("LLM_BASE_URL", cfg.LLMConfig.BaseURL)
	cfg.LLMConfig.MaxTokens = getEnvIntOrDefault("LLM_MAX_TOKENS", cfg.LLMConfig.MaxTokens)
	cfg.LLMConfig.Temperature = getEnvFloatOrDefault("LLM_TEMPERATURE", cfg.LLMConfig.Temperature)
	cfg.LLMConfig.Timeout = getEnvDurationOrDefault("LLM_TIMEOUT", cfg.LLMConfig.Timeout)

	// Webhook
	cfg.WebhookConfig.Enabled = getEnvOrDefault("WEBHOOK_ENABLED", boolString(cfg.WebhookConfig.Enabled)) == "true"
	cfg.WebhookConfig.URL = getEnvOrDefault("WEBHOOK_URL", cfg.WebhookConfig.URL)

	// Email
	cfg.EmailConfig.Enabled = getEnvOrDefault("SMTP_ENABLED", boolString(cfg.EmailConfig.Enabled)) == "true"
	cfg.EmailConfig.Host = getEnvOrDefault("SMTP_HOST", cfg.EmailConfig.Host)
	cfg.EmailConfig.Port = getEnvOrDefault("SMTP_PORT", cfg.EmailConfig.Port)
	cfg.EmailConfig.Username = getEnvOrDefault("SMTP_USERNAME", cfg.EmailConfig.Username)
	cfg.EmailConfig.Password = getEnvOrDefault("SMTP_PASSWORD", cfg.EmailConfig.Password)
	cfg.EmailConfig.From = getEnvOrDefault("SMTP_FROM", cfg.EmailConfig.From)
	cfg.EmailConfig.FromName = getEnvOrDefault("SMTP_FROM_NAME", cfg.EmailConfig.FromName)
	cfg.EmailConfig.To = getEnvOrDefault("SMTP_TO", cfg.EmailConfig.To)

	// Pipeline
	cfg.PipelineConfig.CooldownSeconds = getEnvIntOrDefault("PIPELINE_COOLDOWN_SECONDS", cfg.PipelineConfig.CooldownSeconds)
	cfg.PipelineConfig.SyncMinSeconds = getEnvIntOrDefault("PIPELINE_SYNC_MIN_SECONDS", cfg.PipelineConfig.SyncMinSeconds)
	cfg.PipelineConfig.SyncMaxSeconds = getEnvIntOrDefault("PIPELINE_SYNC_MAX_SECONDS", cfg.PipelineConfig.SyncMaxSeconds)
	cfg.PipelineConfig.StageTimeout = getEnvDurationOrDefault("PIPELINE_STAGE_TIMEOUT", cfg.PipelineConfig.StageTimeout)

	// Logging
	cfg.LoggingConfig.Level = getEnvOrDefault("LOG_LEVEL", cfg.LoggingConfig.Level)
	cfg.LoggingConfig.Output = getEnvOrDefault("LOG_OUTPUT", cfg.LoggingConfig.Output)
	cfg.LoggingConfig.JSONFormat = getEnvOrDefault("LOG_JSON_FORMAT", boolString(cfg.LoggingConfig.JSONFormat)) == "true"
}

func loadFromFile(filename string) (*Config, error) {
	file, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := defaultConfig()
	if err := json.Unmarshal(file, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	return cfg, nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
