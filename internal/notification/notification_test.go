package notification

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"omnicore-dashboard/internal/database"
)

func TestWebhookNotifierSendsFullPayload(t *testing.T) {
	var mu sync.Mutex
	var received Notification
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		json.Unmarshal(body, &received)
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(WebhookConfig{URL: server.URL, Enabled: true})
	trade := &database.TradeLog{
		ID:        "trade-1",
		UserID:    "user-1",
		Asset:     "EUR/USD (Live Feed)",
		Direction: database.DirectionCall,
		RiskLevel: database.RiskLow,
		Outcome:   database.OutcomePending,
	}
	err := notifier.Send(&Notification{
		Type:      NotifySignal,
		Title:     "Signal: CALL EUR/USD (Live Feed)",
		Trade:     trade,
		Timestamp: time.Now(),
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if received.Trade == nil || received.Trade.ID != "trade-1" {
		t.Errorf("webhook payload should carry the full trade, got %+v", received.Trade)
	}
	if received.Type != NotifySignal {
		t.Errorf("unexpected type: %s", received.Type)
	}
}

func TestWebhookNotifierDisabledWithoutURL(t *testing.T) {
	notifier := NewWebhookNotifier(WebhookConfig{URL: "", Enabled: true})
	if notifier.IsEnabled() {
		t.Error("notifier without a URL must be disabled")
	}
	if err := notifier.Send(&Notification{Type: NotifySignal}); err != nil {
		t.Errorf("disabled notifier should no-op, got %v", err)
	}
}

func TestWebhookNotifierErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	notifier := NewWebhookNotifier(WebhookConfig{URL: server.URL, Enabled: true})
	if err := notifier.Send(&Notification{Type: NotifySignal}); err == nil {
		t.Error("expected error for 5xx response")
	}
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []*Notification
	fail  bool
}

func (r *recordingNotifier) Send(n *Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, n)
	if r.fail {
		return http.ErrHandlerTimeout
	}
	return nil
}

func (r *recordingNotifier) Name() string    { return "recording" }
func (r *recordingNotifier) IsEnabled() bool { return true }

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestManagerTradeLoggedFiresAndForgets(t *testing.T) {
	manager := NewManager(zerolog.Nop())
	rec := &recordingNotifier{fail: true} // failure must be swallowed
	manager.AddNotifier(rec)

	manager.TradeLogged(&database.TradeLog{ID: "t1", Asset: "Gold (Live Feed)", Direction: database.DirectionPut})

	waitFor(t, func() bool { return rec.count() == 1 })
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.calls[0].Trade.ID != "t1" {
		t.Errorf("trade not forwarded: %+v", rec.calls[0].Trade)
	}
	if rec.calls[0].Timestamp.IsZero() {
		t.Error("timestamp should be stamped on dispatch")
	}
}
