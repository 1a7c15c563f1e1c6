// Package vault resolves runtime secrets (LLM API key, JWT signing secret,
// webhook endpoint) from HashiCorp Vault, with config-file fallbacks when
// Vault is disabled.
package vault

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/vault/api"

	"omnicore-dashboard/config"
)

// Secrets is the bundle of runtime secrets the dashboard needs.
type Secrets struct {
	LLMAPIKey  string `json:"llm_api_key"`
	JWTSecret  string `json:"jwt_secret"`
	WebhookURL string `json:"webhook_url"`
}

// Client wraps the HashiCorp Vault client
type Client struct {
	client *api.Client
	config config.VaultConfig

	mu     sync.RWMutex
	cached *Secrets
}

// NewClient creates a new Vault client. When Vault is disabled the client
// serves fallback values and never touches the network.
func NewClient(cfg config.VaultConfig) (*Client, error) {
	if !cfg.Enabled {
		return &Client{config: cfg}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &Client{client: client, config: cfg}, nil
}

// IsEnabled reports whether Vault lookups are active.
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// Load reads the secrets bundle from the KV v2 mount. Results are cached for
// the process lifetime; secrets do not rotate mid-run.
func (c *Client) Load(ctx context.Context, fallback Secrets) (*Secrets, error) {
	if !c.config.Enabled {
		return &fallback, nil
	}

	c.mu.RLock()
	if c.cached != nil {
		cached := *c.cached
		c.mu.RUnlock()
		return &cached, nil
	}
	c.mu.RUnlock()

	path := fmt.Sprintf("%s/data/%s", c.config.MountPath, c.config.SecretPath)
	secret, err := c.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secrets from vault: %w", err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secrets not found at %s", path)
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret format")
	}

	loaded := &Secrets{
		LLMAPIKey:  getString(data, "llm_api_key"),
		JWTSecret:  getString(data, "jwt_secret"),
		WebhookURL: getString(data, "webhook_url"),
	}

	// missing fields keep their config fallback
	if loaded.LLMAPIKey == "" {
		loaded.LLMAPIKey = fallback.LLMAPIKey
	}
	if loaded.JWTSecret == "" {
		loaded.JWTSecret = fallback.JWTSecret
	}
	if loaded.WebhookURL == "" {
		loaded.WebhookURL = fallback.WebhookURL
	}

	c.mu.Lock()
	c.cached = loaded
	c.mu.Unlock()

	out := *loaded
	return &out, nil
}

// Health checks Vault availability.
func (c *Client) Health(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}
	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}
	if !health.Initialized || health.Sealed {
		return fmt.Errorf("vault not ready: initialized=%v sealed=%v", health.Initialized, health.Sealed)
	}
	return nil
}

func getString(data map[string]interface{}, key string) string {
	if v, ok := data[key].(string); ok {
		return v
	}
	return ""
}
