package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"omnicore-dashboard/internal/ai/llm"
	"omnicore-dashboard/internal/auth"
	"omnicore-dashboard/internal/database"
	"omnicore-dashboard/internal/events"
	"omnicore-dashboard/internal/logging"
	"omnicore-dashboard/internal/notification"
	"omnicore-dashboard/internal/signal"
)

const testUserID = "user-1"

// fakeStore backs both the HTTP handlers and the orchestrator in tests.
// Background pipeline runs touch it concurrently with test assertions, so
// every method holds the mutex.
type fakeStore struct {
	mu          sync.Mutex
	settings    map[string]*database.UserSettings
	trades      []*database.TradeLog
	settingsErr error
	tradesErr   error
	nextID      int
}

func newFakeStore() *fakeStore {
	return &fakeStore{settings: make(map[string]*database.UserSettings)}
}

func (f *fakeStore) GetSettings(_ context.Context, userID string) (*database.UserSettings, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settingsErr != nil {
		return nil, f.settingsErr
	}
	return f.settings[userID], nil
}

func (f *fakeStore) SaveSettings(_ context.Context, userID string, patch *database.SettingsPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.settingsErr != nil {
		return f.settingsErr
	}
	current := f.settings[userID]
	if current == nil {
		current = &database.UserSettings{UserID: userID}
	}
	if patch.Broker != nil {
		current.Broker = *patch.Broker
	}
	if patch.Asset != nil {
		current.Asset = *patch.Asset
	}
	if patch.Duration != nil {
		current.Duration = *patch.Duration
	}
	if patch.LastTen != nil {
		current.LastTen = patch.LastTen
	}
	if patch.ModelCount != nil {
		current.ModelCount = *patch.ModelCount
	}
	if patch.ConfidenceThreshold != nil {
		current.ConfidenceThreshold = *patch.ConfidenceThreshold
	}
	if patch.Techniques != nil {
		current.Techniques = patch.Techniques
	}
	if patch.Persona != nil {
		current.Persona = *patch.Persona
	}
	f.settings[userID] = current
	return nil
}

func (f *fakeStore) AppendTrade(_ context.Context, userID string, trade *database.TradeLog) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tradesErr != nil {
		return "", f.tradesErr
	}
	f.nextID++
	trade.ID = fmt.Sprintf("trade-%d", f.nextID)
	trade.UserID = userID
	trade.CreatedAt = time.Now()
	f.trades = append(f.trades, trade)
	return trade.ID, nil
}

func (f *fakeStore) ListTrades(_ context.Context, userID string, filter database.TradeFilter) ([]*database.TradeLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.tradesErr != nil {
		return nil, f.tradesErr
	}
	var out []*database.TradeLog
	for i := len(f.trades) - 1; i >= 0; i-- {
		t := f.trades[i]
		if t.UserID != userID {
			continue
		}
		if filter.Asset != "" && filter.Asset != "ALL" && t.Asset != filter.Asset {
			continue
		}
		out = append(out, t)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeStore) GetTrade(_ context.Context, userID, tradeID string) (*database.TradeLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getTradeLocked(userID, tradeID)
}

func (f *fakeStore) getTradeLocked(userID, tradeID string) (*database.TradeLog, error) {
	if f.tradesErr != nil {
		return nil, f.tradesErr
	}
	for _, t := range f.trades {
		if t.UserID == userID && t.ID == tradeID {
			return t, nil
		}
	}
	return nil, database.ErrTradeNotFound
}

func (f *fakeStore) PatchOutcome(_ context.Context, userID, tradeID, outcome, analysis string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	trade, err := f.getTradeLocked(userID, tradeID)
	if err != nil {
		return err
	}
	trade.Outcome = outcome
	trade.Analysis = analysis
	return nil
}

func (f *fakeStore) tradeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.trades)
}

func (f *fakeStore) tradeAt(i int) *database.TradeLog {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.trades[i]
}

func (f *fakeStore) RecentTradeSummaries(_ context.Context, _ string, _ int) string {
	return "No previous trades found for this user."
}

// fakeGen scripts LLM responses by call order. An optional delay per call
// simulates a slow model.
type fakeGen struct {
	mu        sync.Mutex
	responses []string
	err       error
	delay     time.Duration
	calls     int
}

func (f *fakeGen) Generate(_ context.Context, _ llm.Request) (string, error) {
	f.mu.Lock()
	f.calls++
	call := f.calls
	delay := f.delay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if f.err != nil {
		return "", f.err
	}
	if call <= len(f.responses) {
		return f.responses[call-1], nil
	}
	return "- no further findings", nil
}

func (f *fakeGen) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// waitFor polls a condition until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// newTestServer wires a Server around fakes, with a stub auth middleware
// injecting the test user.
func newTestServer(store *fakeStore, gen signal.Generator) *Server {
	gin.SetMode(gin.TestMode)

	bus := events.NewEventBus()
	notifier := notification.NewManager(zerolog.Nop())
	orchestrator := signal.NewOrchestrator(
		store,
		signal.NewRunner(gen, 0),
		signal.NewSynthesizer(gen, 0),
		signal.NewAnalyst(gen, 0),
		notifier,
		bus,
		signal.Options{},
	)

	s := &Server{
		router:       gin.New(),
		store:        store,
		eventBus:     bus,
		orchestrator: orchestrator,
		notifier:     notifier,
		rateLimiter:  NewRateLimiter(1000, time.Minute),
		hub:          NewWSHub(),
	}
	s.logger = logging.Default().WithComponent("api")

	api := s.router.Group("/api")
	api.Use(func(c *gin.Context) {
		c.Set(auth.ContextKeyUserID, testUserID)
		c.Next()
	})
	api.POST("/signals/generate", s.handleGenerateSignal)
	api.POST("/signals/clear", s.handleClearPipeline)
	api.GET("/signals/state", s.handlePipelineState)
	api.GET("/trades", s.handleListTrades)
	api.GET("/trades/:id", s.handleGetTrade)
	api.POST("/trades/:id/outcome", s.handleMarkOutcome)
	api.GET("/settings", s.handleGetSettings)
	api.PUT("/settings", s.handleSaveSettings)
	api.GET("/catalog/brokers", s.handleGetBrokers)
	api.GET("/catalog/durations", s.handleGetDurations)
	api.GET("/catalog/personas", s.handleGetPersonas)

	return s
}

func doJSON(s *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestGenerateSignalEndpoint(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{responses: []string{
		"- RSI oversold on the 1m chart",
		`{"signal":"CALL","reason":"Momentum reversal confirmed.","riskLevel":"LOW"}`,
	}}
	s := newTestServer(store, gen)

	w := doJSON(s, http.MethodPost, "/api/signals/generate", gin.H{
		"asset":      "EUR/USD (Live Feed)",
		"techniques": []string{"technical"},
	})

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp struct {
		Accepted bool   `json:"accepted"`
		State    string `json:"state"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !resp.Accepted {
		t.Errorf("accepted = false, want true")
	}

	waitFor(t, "trade to be persisted", func() bool { return store.tradeCount() == 1 })
	trade := store.tradeAt(0)
	if trade.Direction != database.DirectionCall {
		t.Errorf("direction = %q, want CALL", trade.Direction)
	}
	if trade.Outcome != database.OutcomePending {
		t.Errorf("outcome = %q, want PENDING", trade.Outcome)
	}
}

func TestGenerateSignalNoTechniques(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{}
	s := newTestServer(store, gen)

	w := doJSON(s, http.MethodPost, "/api/signals/generate", gin.H{
		"asset": "EUR/USD (Live Feed)",
	})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	if !strings.Contains(w.Body.String(), "NO_TECHNIQUE_SELECTED") {
		t.Errorf("body = %s", w.Body.String())
	}
	if gen.calls != 0 {
		t.Errorf("LLM calls = %d, want 0", gen.calls)
	}
}

func TestGenerateSignalUsesStoredTechniques(t *testing.T) {
	store := newFakeStore()
	store.settings[testUserID] = &database.UserSettings{
		UserID:     testUserID,
		Techniques: []string{"fundamental"},
	}
	gen := &fakeGen{responses: []string{
		"- Central bank guidance turned dovish",
		`{"signal":"PUT","reason":"Dovish surprise.","riskLevel":"MEDIUM"}`,
	}}
	s := newTestServer(store, gen)

	w := doJSON(s, http.MethodPost, "/api/signals/generate", gin.H{})

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	// one research call plus one synthesis call
	waitFor(t, "pipeline to finish", func() bool { return gen.callCount() == 2 })
}

// The generate endpoint must answer before the pipeline stages run: a slow
// model would otherwise hold the connection past the server write timeout.
func TestGenerateSignalRespondsBeforePipelineFinishes(t *testing.T) {
	store := newFakeStore()
	gen := &fakeGen{
		delay: 250 * time.Millisecond,
		responses: []string{
			"- RSI oversold on the 1m chart",
			`{"signal":"CALL","reason":"Momentum reversal confirmed.","riskLevel":"LOW"}`,
		},
	}
	s := newTestServer(store, gen)

	start := time.Now()
	w := doJSON(s, http.MethodPost, "/api/signals/generate", gin.H{
		"asset":      "EUR/USD (Live Feed)",
		"techniques": []string{"technical"},
	})
	elapsed := time.Since(start)

	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	// two model calls at 250ms each; the response must not wait for them
	if elapsed >= gen.delay {
		t.Errorf("response took %v, want under the first model call (%v)", elapsed, gen.delay)
	}
	if store.tradeCount() != 0 {
		t.Errorf("trade persisted before pipeline ran")
	}

	waitFor(t, "trade to be persisted", func() bool { return store.tradeCount() == 1 })
	if got := store.tradeAt(0).Direction; got != database.DirectionCall {
		t.Errorf("direction = %q, want CALL", got)
	}
}

func TestMarkOutcomeEndpoint(t *testing.T) {
	store := newFakeStore()
	store.trades = append(store.trades, &database.TradeLog{
		ID:      "trade-9",
		UserID:  testUserID,
		Asset:   "EUR/USD (Live Feed)",
		Outcome: database.OutcomePending,
	})
	gen := &fakeGen{responses: []string{"- entry aligned with the prevailing trend"}}
	s := newTestServer(store, gen)

	w := doJSON(s, http.MethodPost, "/api/trades/trade-9/outcome", gin.H{"outcome": "win"})

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if store.trades[0].Outcome != database.OutcomeWin {
		t.Errorf("outcome = %q, want WIN", store.trades[0].Outcome)
	}

	// a second attempt must be rejected
	w = doJSON(s, http.MethodPost, "/api/trades/trade-9/outcome", gin.H{"outcome": "LOSS"})
	if w.Code != http.StatusConflict {
		t.Errorf("second attempt status = %d, want 409", w.Code)
	}
	if store.trades[0].Outcome != database.OutcomeWin {
		t.Errorf("outcome changed to %q after rejected attempt", store.trades[0].Outcome)
	}
}

func TestMarkOutcomeUnknownTrade(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeGen{})

	w := doJSON(s, http.MethodPost, "/api/trades/missing/outcome", gin.H{"outcome": "WIN"})
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestListTradesEndpoint(t *testing.T) {
	store := newFakeStore()
	store.trades = append(store.trades,
		&database.TradeLog{ID: "t1", UserID: testUserID, Asset: "EUR/USD (Live Feed)", Outcome: database.OutcomePending},
		&database.TradeLog{ID: "t2", UserID: testUserID, Asset: "BTC/USD (Crypto)", Outcome: database.OutcomePending},
		&database.TradeLog{ID: "t3", UserID: "someone-else", Asset: "EUR/USD (Live Feed)", Outcome: database.OutcomePending},
	)
	s := newTestServer(store, &fakeGen{})

	w := doJSON(s, http.MethodGet, "/api/trades?asset=EUR/USD%20(Live%20Feed)", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Trades []database.TradeLog `json:"trades"`
		Count  int                 `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Count != 1 || resp.Trades[0].ID != "t1" {
		t.Errorf("trades = %+v", resp.Trades)
	}
}

func TestGetSettingsDefaults(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeGen{})

	w := doJSON(s, http.MethodGet, "/api/settings", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var resp struct {
		Settings database.UserSettings `json:"settings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Settings.Broker != "Ultimate Broker (LIVE OMNI-CORE ACTIVE)" {
		t.Errorf("broker = %q", resp.Settings.Broker)
	}
	if resp.Settings.Asset != "EUR/USD (Live Feed)" {
		t.Errorf("asset = %q", resp.Settings.Asset)
	}
	if len(resp.Settings.LastTen) != 0 {
		t.Errorf("lastTen = %v, want empty", resp.Settings.LastTen)
	}
}

func TestGetSettingsTruncatesLastTen(t *testing.T) {
	store := newFakeStore()
	overlong := make([]string, 14)
	for i := range overlong {
		overlong[i] = "S"
	}
	store.settings[testUserID] = &database.UserSettings{UserID: testUserID, LastTen: overlong}
	s := newTestServer(store, &fakeGen{})

	w := doJSON(s, http.MethodGet, "/api/settings", nil)

	var resp struct {
		Settings database.UserSettings `json:"settings"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Settings.LastTen) != database.MaxLastTen {
		t.Errorf("lastTen length = %d, want %d", len(resp.Settings.LastTen), database.MaxLastTen)
	}
}

func TestSaveSettingsMerges(t *testing.T) {
	store := newFakeStore()
	store.settings[testUserID] = &database.UserSettings{
		UserID: testUserID,
		Broker: "Quotex",
		Asset:  "EUR/USD (Live Feed)",
	}
	s := newTestServer(store, &fakeGen{})

	w := doJSON(s, http.MethodPut, "/api/settings", gin.H{"asset": "BTC/USD (Crypto)"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	saved := store.settings[testUserID]
	if saved.Asset != "BTC/USD (Crypto)" {
		t.Errorf("asset = %q", saved.Asset)
	}
	if saved.Broker != "Quotex" {
		t.Errorf("broker = %q, patch must not clear untouched fields", saved.Broker)
	}
}

func TestSaveSettingsRejectsUnknownBroker(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeGen{})

	w := doJSON(s, http.MethodPut, "/api/settings", gin.H{"broker": "Totally Made Up"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSaveSettingsStorageFailure(t *testing.T) {
	store := newFakeStore()
	store.settingsErr = errors.New("connection refused")
	s := newTestServer(store, &fakeGen{})

	w := doJSON(s, http.MethodPut, "/api/settings", gin.H{"asset": "BTC/USD (Crypto)"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}

func TestCatalogEndpoints(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeGen{})

	w := doJSON(s, http.MethodGet, "/api/catalog/brokers", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("brokers status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "OMNI-CORE ACTIVE - $100K FIX") {
		t.Errorf("brokers body missing display names: %s", w.Body.String())
	}

	w = doJSON(s, http.MethodGet, "/api/catalog/durations?broker=FUTURES%20(Bot%20Auto-Trade)", nil)
	if !strings.Contains(w.Body.String(), "4 Hour") {
		t.Errorf("futures durations missing 4 Hour: %s", w.Body.String())
	}

	w = doJSON(s, http.MethodGet, "/api/catalog/personas", nil)
	if !strings.Contains(w.Body.String(), "news_trader") {
		t.Errorf("personas body: %s", w.Body.String())
	}
}

func TestPipelineStateEndpoint(t *testing.T) {
	s := newTestServer(newFakeStore(), &fakeGen{})

	w := doJSON(s, http.MethodGet, "/api/signals/state", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), string(signal.StateIdle)) {
		t.Errorf("body = %s", w.Body.String())
	}
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)

	if !rl.Allow("/api/x") || !rl.Allow("/api/x") {
		t.Fatal("first two requests should pass")
	}
	if rl.Allow("/api/x") {
		t.Error("third request should be limited")
	}
	if !rl.Allow("/api/y") {
		t.Error("limits are per endpoint")
	}
}
