package notification

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"omnicore-dashboard/internal/database"
)

// NotificationType represents the type of notification
type NotificationType string

const (
	NotifySignal  NotificationType = "signal"
	NotifyOutcome NotificationType = "outcome"
	NotifyError   NotificationType = "error"
)

// Notification represents a notification message
type Notification struct {
	Type      NotificationType       `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Trade     *database.TradeLog     `json:"trade,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Extra     map[string]interface{} `json:"extra,omitempty"`
}

// Notifier interface for different notification providers
type Notifier interface {
	Send(notification *Notification) error
	Name() string
	IsEnabled() bool
}

// Manager fans a notification out to every enabled provider. Delivery is
// best-effort: provider failures are logged, never returned to the pipeline.
type Manager struct {
	notifiers []Notifier
	enabled   bool
	logger    zerolog.Logger
}

// NewManager creates a new notification manager
func NewManager(logger zerolog.Logger) *Manager {
	return &Manager{
		notifiers: make([]Notifier, 0),
		enabled:   true,
		logger:    logger.With().Str("component", "notification").Logger(),
	}
}

// AddNotifier adds a notification provider
func (m *Manager) AddNotifier(n Notifier) {
	m.notifiers = append(m.notifiers, n)
}

// dispatch sends to all providers in the background and swallows failures.
func (m *Manager) dispatch(notification *Notification) {
	if !m.enabled {
		return
	}
	if notification.Timestamp.IsZero() {
		notification.Timestamp = time.Now()
	}
	for _, n := range m.notifiers {
		if !n.IsEnabled() {
			continue
		}
		go func(n Notifier) {
			if err := n.Send(notification); err != nil {
				m.logger.Warn().
					Str("provider", n.Name()).
					Str("type", string(notification.Type)).
					Err(err).
					Msg("notification delivery failed")
			}
		}(n)
	}
}

// TradeLogged forwards a freshly logged signal with its full payload.
func (m *Manager) TradeLogged(trade *database.TradeLog) {
	m.dispatch(&Notification{
		Type:    NotifySignal,
		Title:   fmt.Sprintf("Signal: %s %s", trade.Direction, trade.Asset),
		Message: fmt.Sprintf("%s %s @ %s\nDuration: %s | Risk: %s", trade.Direction, trade.Asset, trade.EntryTime, trade.Duration, trade.RiskLevel),
		Trade:   trade,
	})
}

// OutcomeRecorded forwards a realized trade outcome.
func (m *Manager) OutcomeRecorded(trade *database.TradeLog) {
	m.dispatch(&Notification{
		Type:    NotifyOutcome,
		Title:   fmt.Sprintf("Outcome: %s %s", trade.Outcome, trade.Asset),
		Message: fmt.Sprintf("%s %s closed as %s", trade.Direction, trade.Asset, trade.Outcome),
		Trade:   trade,
	})
}

// WebhookNotifier POSTs the full notification payload to a fixed endpoint.
type WebhookNotifier struct {
	url     string
	enabled bool
	client  *http.Client
}

// WebhookConfig holds webhook notifier configuration
type WebhookConfig struct {
	URL     string
	Enabled bool
}

// NewWebhookNotifier creates a new webhook notifier
func NewWebhookNotifier(config WebhookConfig) *WebhookNotifier {
	return &WebhookNotifier{
		url:     config.URL,
		enabled: config.Enabled && config.URL != "",
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *WebhookNotifier) Name() string {
	return "webhook"
}

func (w *WebhookNotifier) IsEnabled() bool {
	return w.enabled
}

func (w *WebhookNotifier) Send(notification *Notification) error {
	if !w.enabled {
		return nil
	}

	body, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	resp, err := w.client.Post(w.url, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to send webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
