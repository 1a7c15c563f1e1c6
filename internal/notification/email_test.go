package notification

import (
	"strings"
	"testing"

	"omnicore-dashboard/internal/database"
)

func TestEmailNotifierDisabledWithoutConfig(t *testing.T) {
	cases := []struct {
		name   string
		config EmailConfig
	}{
		{"zero value", EmailConfig{}},
		{"enabled but no host", EmailConfig{Enabled: true, Port: "587", From: "a@b.c", To: "d@e.f"}},
		{"enabled but no recipient", EmailConfig{Enabled: true, Host: "smtp.example.com", Port: "587", From: "a@b.c"}},
		{"configured but disabled", EmailConfig{Host: "smtp.example.com", Port: "587", From: "a@b.c", To: "d@e.f"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			n := NewEmailNotifier(tc.config)
			if n.IsEnabled() {
				t.Error("notifier should be disabled")
			}
		})
	}

	n := NewEmailNotifier(EmailConfig{
		Enabled: true,
		Host:    "smtp.example.com",
		Port:    "587",
		From:    "a@b.c",
		To:      "d@e.f",
	})
	if !n.IsEnabled() {
		t.Error("fully configured notifier should be enabled")
	}
}

func TestEmailNotifierRendersTradeDetails(t *testing.T) {
	n := NewEmailNotifier(EmailConfig{})

	body := n.renderBody(&Notification{
		Type:    NotifySignal,
		Title:   "Signal: CALL EUR/USD (Live Feed)",
		Message: "CALL EUR/USD (Live Feed) @ 14:30 (UTC+6)",
		Trade: &database.TradeLog{
			Asset:     "EUR/USD (Live Feed)",
			Direction: database.DirectionCall,
			EntryTime: "14:30 (UTC+6)",
			Duration:  "30 Second",
			RiskLevel: database.RiskLow,
			Outcome:   database.OutcomePending,
		},
	})

	for _, want := range []string{"EUR/USD (Live Feed)", "CALL", "14:30 (UTC+6)", "30 Second", "LOW", "PENDING"} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestEmailNotifierDefaultFromName(t *testing.T) {
	n := NewEmailNotifier(EmailConfig{From: "a@b.c"})
	if n.config.FromName != "OMNI-CORE Dashboard" {
		t.Errorf("from name = %q", n.config.FromName)
	}
}
