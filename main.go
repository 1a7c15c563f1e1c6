package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"omnicore-dashboard/config"
	"omnicore-dashboard/internal/ai/llm"
	"omnicore-dashboard/internal/api"
	"omnicore-dashboard/internal/auth"
	"omnicore-dashboard/internal/cache"
	"omnicore-dashboard/internal/chat"
	"omnicore-dashboard/internal/database"
	"omnicore-dashboard/internal/events"
	"omnicore-dashboard/internal/logging"
	"omnicore-dashboard/internal/notification"
	sigpipe "omnicore-dashboard/internal/signal"
	"omnicore-dashboard/internal/vault"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Default().WithError(err).Fatal("Failed to load configuration")
	}

	logging.SetDefault(logging.New(&logging.Config{
		Level:      cfg.LoggingConfig.Level,
		Output:     cfg.LoggingConfig.Output,
		JSONFormat: cfg.LoggingConfig.JSONFormat,
	}))
	log := logging.Default().WithComponent("main")
	zlog := zerolog.New(os.Stdout).With().Timestamp().Logger()

	// Database
	db, err := database.NewDB(database.Config{
		Host:     cfg.DatabaseConfig.Host,
		Port:     cfg.DatabaseConfig.Port,
		User:     cfg.DatabaseConfig.User,
		Password: cfg.DatabaseConfig.Password,
		Database: cfg.DatabaseConfig.Database,
		SSLMode:  cfg.DatabaseConfig.SSLMode,
	})
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), 30*time.Second)
	if err := db.RunMigrations(migrateCtx); err != nil {
		cancelMigrate()
		log.WithError(err).Fatal("Failed to run migrations")
	}
	cancelMigrate()

	repo := database.NewRepository(db)

	// Redis cache (optional)
	var cacheService *cache.CacheService
	if cfg.RedisConfig.Enabled {
		cacheService, err = cache.NewCacheService(cfg.RedisConfig)
		if err != nil {
			log.WithError(err).Warn("Redis unavailable, continuing without cache")
			cacheService = nil
		} else {
			defer cacheService.Close()
		}
	}
	store := cache.NewCachedStore(repo, cacheService)

	// Secrets: Vault when enabled, config/env fallback otherwise
	secrets := vault.Secrets{
		LLMAPIKey:  cfg.LLMConfig.APIKey,
		JWTSecret:  cfg.AuthConfig.JWTSecret,
		WebhookURL: cfg.WebhookConfig.URL,
	}
	vaultClient, err := vault.NewClient(cfg.VaultConfig)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize Vault client")
	}
	loadCtx, cancelLoad := context.WithTimeout(context.Background(), 10*time.Second)
	loaded, err := vaultClient.Load(loadCtx, secrets)
	cancelLoad()
	if err != nil {
		log.WithError(err).Fatal("Failed to load secrets")
	}
	secrets = *loaded

	if secrets.JWTSecret == "" {
		log.Fatal("JWT secret is not configured")
	}
	if secrets.LLMAPIKey == "" {
		log.Warn("LLM API key is not configured, generation calls will fail")
	}

	// LLM client shared by research, synthesis, analysis, and chat
	llmClient := llm.NewClient(&llm.ClientConfig{
		Provider:    llm.Provider(cfg.LLMConfig.Provider),
		APIKey:      secrets.LLMAPIKey,
		Model:       cfg.LLMConfig.Model,
		BaseURL:     cfg.LLMConfig.BaseURL,
		MaxTokens:   cfg.LLMConfig.MaxTokens,
		Temperature: cfg.LLMConfig.Temperature,
		Timeout:     cfg.LLMConfig.Timeout,
	})

	// Event bus feeds the WebSocket stream
	eventBus := events.NewEventBus()

	// Outbound notifications
	notifier := notification.NewManager(zlog)
	if cfg.WebhookConfig.Enabled && secrets.WebhookURL != "" {
		notifier.AddNotifier(notification.NewWebhookNotifier(notification.WebhookConfig{
			URL:     secrets.WebhookURL,
			Enabled: true,
		}))
	}
	if cfg.EmailConfig.Enabled {
		notifier.AddNotifier(notification.NewEmailNotifier(notification.EmailConfig{
			Enabled:  true,
			Host:     cfg.EmailConfig.Host,
			Port:     cfg.EmailConfig.Port,
			Username: cfg.EmailConfig.Username,
			Password: cfg.EmailConfig.Password,
			From:     cfg.EmailConfig.From,
			FromName: cfg.EmailConfig.FromName,
			To:       cfg.EmailConfig.To,
		}))
	}

	// Signal pipeline
	stageTimeout := cfg.PipelineConfig.StageTimeout
	orchestrator := sigpipe.NewOrchestrator(
		store,
		sigpipe.NewRunner(llmClient, stageTimeout),
		sigpipe.NewSynthesizer(llmClient, stageTimeout),
		sigpipe.NewAnalyst(llmClient, stageTimeout),
		notifier,
		eventBus,
		sigpipe.Options{
			Cooldown: time.Duration(cfg.PipelineConfig.CooldownSeconds) * time.Second,
			SyncMin:  time.Duration(cfg.PipelineConfig.SyncMinSeconds) * time.Second,
			SyncMax:  time.Duration(cfg.PipelineConfig.SyncMaxSeconds) * time.Second,
		},
	)

	// Assistant chat
	chatManager := chat.NewManager(llmClient, 30*time.Minute, zlog)

	// Authentication
	authConfig := auth.DefaultConfig()
	authConfig.JWTSecret = secrets.JWTSecret
	if cfg.AuthConfig.AccessTokenDuration > 0 {
		authConfig.AccessTokenDuration = cfg.AuthConfig.AccessTokenDuration
	}
	if cfg.AuthConfig.RefreshTokenDuration > 0 {
		authConfig.RefreshTokenDuration = cfg.AuthConfig.RefreshTokenDuration
	}
	if cfg.AuthConfig.MinPasswordLength > 0 {
		authConfig.MinPasswordLength = cfg.AuthConfig.MinPasswordLength
	}
	if cfg.AuthConfig.PasswordResetDuration > 0 {
		authConfig.PasswordResetDuration = cfg.AuthConfig.PasswordResetDuration
	}
	authService := auth.NewService(repo, authConfig)

	// Expired session cleanup
	cleanupCtx, cancelCleanup := context.WithCancel(context.Background())
	defer cancelCleanup()
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := authService.CleanupExpiredSessions(cleanupCtx); err != nil {
					log.WithError(err).Warn("Session cleanup failed")
				}
			case <-cleanupCtx.Done():
				return
			}
		}
	}()

	server := api.NewServer(
		api.ServerConfig{
			Host:           cfg.ServerConfig.Host,
			Port:           cfg.ServerConfig.Port,
			ProductionMode: cfg.ServerConfig.ProductionMode,
			AllowedOrigins: cfg.ServerConfig.AllowedOrigins,
		},
		store,
		eventBus,
		orchestrator,
		chatManager,
		notifier,
		authService,
	)

	go func() {
		if err := server.Start(); err != nil {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}

	log.Info("Shutdown complete")
}
