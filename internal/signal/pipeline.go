package signal

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"omnicore-dashboard/internal/catalog"
	"omnicore-dashboard/internal/database"
	"omnicore-dashboard/internal/events"
	"omnicore-dashboard/internal/logging"
)

// State is the pipeline state for one user.
type State string

const (
	StateIdle          State = "IDLE"
	StateSyncing       State = "SYNCING"
	StateResearching   State = "RESEARCHING"
	StateHistoryLookup State = "HISTORY_LOOKUP"
	StateSynthesizing  State = "SYNTHESIZING"
	StateLogging       State = "LOGGING"
	StateCooldown      State = "COOLDOWN"
	StateFailed        State = "FAILED"
)

// ErrRunSuperseded is returned when a run was cleared while one of its calls
// was in flight. The stale result is discarded, never applied.
var ErrRunSuperseded = errors.New("pipeline run superseded")

// SuccessMarker is prepended to lastTen after every logged signal. It marks
// generation activity, not a realized win; true outcomes arrive later
// through the outcome flow and are tracked on the trade itself.
const SuccessMarker = "S"

// EntryTimeOffset is how far ahead of now the advertised entry time lies.
const EntryTimeOffset = 2 * time.Minute

// AccuracyLabel is the fixed accuracy string stamped on every signal.
const AccuracyLabel = "100.0% (OMNI-CORE CONSENSUS)"

// entryTimeZone renders entry times in the dashboard's fixed display zone.
var entryTimeZone = time.FixedZone("UTC+6", 6*60*60)

// Store is the persistence surface the orchestrator needs.
type Store interface {
	GetSettings(ctx context.Context, userID string) (*database.UserSettings, error)
	SaveSettings(ctx context.Context, userID string, patch *database.SettingsPatch) error
	AppendTrade(ctx context.Context, userID string, trade *database.TradeLog) (string, error)
	GetTrade(ctx context.Context, userID, tradeID string) (*database.TradeLog, error)
	PatchOutcome(ctx context.Context, userID, tradeID, outcome, analysis string) error
	RecentTradeSummaries(ctx context.Context, userID string, limit int) string
}

// Notifier forwards a logged trade to an external sink, best-effort.
type Notifier interface {
	TradeLogged(trade *database.TradeLog)
}

// Options tunes the orchestrator's timers.
type Options struct {
	Cooldown     time.Duration
	SyncMin      time.Duration
	SyncMax      time.Duration
	HistoryLimit int
}

// GenerateRequest is one signal generation trigger.
type GenerateRequest struct {
	Broker              string
	Asset               string
	Duration            string
	Techniques          []string
	Persona             string
	ModelCount          int
	ConfidenceThreshold string
}

// Orchestrator sequences research, synthesis, and persistence for signal
// runs, one pipeline per user.
type Orchestrator struct {
	store       Store
	runner      *Runner
	synthesizer *Synthesizer
	analyst     *Analyst
	notifier    Notifier
	bus         *events.EventBus
	opts        Options
	logger      *logging.Logger

	mu        sync.Mutex
	pipelines map[string]*userPipeline
}

type userPipeline struct {
	state State
	runID uint64
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(store Store, runner *Runner, synthesizer *Synthesizer, analyst *Analyst, notifier Notifier, bus *events.EventBus, opts Options) *Orchestrator {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = database.MaxLastTen
	}
	return &Orchestrator{
		store:       store,
		runner:      runner,
		synthesizer: synthesizer,
		analyst:     analyst,
		notifier:    notifier,
		bus:         bus,
		opts:        opts,
		logger:      logging.Default().WithComponent("pipeline"),
		pipelines:   make(map[string]*userPipeline),
	}
}

// StateFor returns the current pipeline state for a user.
func (o *Orchestrator) StateFor(userID string) State {
	o.mu.Lock()
	defer o.mu.Unlock()
	if p, ok := o.pipelines[userID]; ok {
		return p.state
	}
	return StateIdle
}

// Clear force-resets a user's pipeline to Idle. In-flight calls are not
// cancelled; their results are discarded by the run-identity guard.
func (o *Orchestrator) Clear(userID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.pipelines[userID]
	if !ok {
		return
	}
	p.runID++
	p.state = StateIdle
	o.publishState(userID, StateIdle)
}

// Generate runs the full signal pipeline for one user and returns the
// persisted trade. It blocks until logging completes or a stage fails;
// cooldown continues in the background after it returns.
func (o *Orchestrator) Generate(ctx context.Context, userID string, req GenerateRequest) (*database.TradeLog, error) {
	// technique validation happens before any network or store call
	techniques := ParseTechniques(req.Techniques)
	if len(techniques) == 0 {
		return nil, ErrNoTechniqueSelected
	}

	runID, err := o.begin(userID)
	if err != nil {
		return nil, err
	}

	return o.run(ctx, userID, runID, techniques, req)
}

// StartAsync validates the request and claims the pipeline synchronously,
// then runs the stages in a background goroutine. Callers observe progress
// and the final trade through the event bus and the pipeline state; stage
// failures surface as signal.failed events, not as a return value.
func (o *Orchestrator) StartAsync(userID string, req GenerateRequest) error {
	techniques := ParseTechniques(req.Techniques)
	if len(techniques) == 0 {
		return ErrNoTechniqueSelected
	}

	runID, err := o.begin(userID)
	if err != nil {
		return err
	}

	go func() {
		// detached from the request context: the HTTP response has
		// already been sent by the time the stages execute
		if _, err := o.run(context.Background(), userID, runID, techniques, req); err != nil {
			o.logger.WithField("user_id", userID).WithError(err).Warn("background signal run failed")
		}
	}()
	return nil
}

// run executes the claimed pipeline stages. The caller must already hold a
// valid runID from begin.
func (o *Orchestrator) run(ctx context.Context, userID string, runID uint64, techniques []Technique, req GenerateRequest) (*database.TradeLog, error) {
	log := o.logger.WithField("user_id", userID).WithField("asset", req.Asset)
	totalSteps := len(techniques) + 2 // research steps + history + consensus

	// optional simulated market-data sync window
	if o.opts.SyncMax > 0 {
		if err := o.syncWindow(ctx, userID, runID); err != nil {
			return nil, o.fail(userID, runID, req.Asset, err)
		}
	}

	if err := o.transition(userID, runID, StateResearching); err != nil {
		return nil, err
	}
	bundle := make(Bundle, len(techniques))
	for i, t := range techniques {
		o.bus.PublishProgress(userID, i+1, totalSteps, fmt.Sprintf("✨ Step %d/%d: Researching %s...", i+1, totalSteps, t.Label()))
		partial, err := o.runner.Run(ctx, req.Asset, []Technique{t})
		if err != nil {
			var re *ResearchError
			if errors.As(err, &re) {
				re.Step = i + 1
			}
			return nil, o.fail(userID, runID, req.Asset, err)
		}
		if !o.active(userID, runID) {
			return nil, ErrRunSuperseded
		}
		bundle[t] = partial[t]
	}

	if err := o.transition(userID, runID, StateHistoryLookup); err != nil {
		return nil, err
	}
	o.bus.PublishProgress(userID, totalSteps-1, totalSteps, fmt.Sprintf("✨ Step %d/%d: Analyzing Your Past Trade History...", totalSteps-1, totalSteps))
	history := o.store.RecentTradeSummaries(ctx, userID, o.opts.HistoryLimit)
	if !o.active(userID, runID) {
		return nil, ErrRunSuperseded
	}

	if err := o.transition(userID, runID, StateSynthesizing); err != nil {
		return nil, err
	}
	o.bus.PublishProgress(userID, totalSteps, totalSteps, fmt.Sprintf("✨ Step %d/%d: Finalizing 100%% Accuracy Consensus...", totalSteps, totalSteps))
	consensus := o.synthesizer.Synthesize(ctx, SynthesisInput{
		Asset:               req.Asset,
		Bundle:              bundle,
		TradeHistory:        history,
		Persona:             PersonaByID(req.Persona),
		ModelCount:          req.ModelCount,
		ConfidenceThreshold: req.ConfidenceThreshold,
	})
	if !o.active(userID, runID) {
		return nil, ErrRunSuperseded
	}

	if err := o.transition(userID, runID, StateLogging); err != nil {
		return nil, err
	}
	trade := o.buildTrade(userID, req, consensus)
	tradeID, err := o.store.AppendTrade(ctx, userID, trade)
	if err != nil {
		return nil, o.fail(userID, runID, req.Asset, fmt.Errorf("could not save trade data: %w", err))
	}
	trade.ID = tradeID
	if !o.active(userID, runID) {
		return nil, ErrRunSuperseded
	}

	o.recordActivity(ctx, userID)

	if o.notifier != nil {
		o.notifier.TradeLogged(trade)
	}
	o.bus.PublishSignalGenerated(userID, trade.ID, trade.Asset, trade.Direction, trade.RiskLevel)
	log.WithField("trade_id", trade.ID).WithField("direction", trade.Direction).Info("signal logged")

	o.startCooldown(userID, runID)
	return trade, nil
}

// MarkOutcome records the realized outcome of a PENDING trade, attaching a
// best-effort post-trade analysis. A second call for the same trade is
// rejected without touching the stored analysis.
func (o *Orchestrator) MarkOutcome(ctx context.Context, userID, tradeID, outcome string) (*database.TradeLog, error) {
	switch outcome {
	case database.OutcomeWin, database.OutcomeLoss, database.OutcomePush:
	default:
		return nil, fmt.Errorf("invalid outcome %q", outcome)
	}

	trade, err := o.store.GetTrade(ctx, userID, tradeID)
	if err != nil {
		return nil, err
	}
	if trade.Outcome != database.OutcomePending {
		return nil, database.ErrOutcomeAlreadySet
	}

	analysis := o.analyst.Analyze(ctx, trade, outcome)

	if err := o.store.PatchOutcome(ctx, userID, tradeID, outcome, analysis); err != nil {
		return nil, err
	}
	trade.Outcome = outcome
	trade.Analysis = analysis

	o.bus.PublishOutcomeRecorded(userID, tradeID, outcome)
	o.logger.WithField("user_id", userID).WithField("trade_id", tradeID).
		WithField("outcome", outcome).Info("outcome recorded")
	return trade, nil
}

func (o *Orchestrator) begin(userID string) (uint64, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.pipelines[userID]
	if !ok {
		p = &userPipeline{state: StateIdle}
		o.pipelines[userID] = p
	}
	if p.state != StateIdle {
		return 0, ErrPipelineBusy
	}
	p.runID++
	p.state = StateSyncing
	o.publishState(userID, StateSyncing)
	return p.runID, nil
}

// active reports whether runID is still the current run.
func (o *Orchestrator) active(userID string, runID uint64) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.pipelines[userID]
	return ok && p.runID == runID
}

// transition moves the user's pipeline to next if runID is still current.
func (o *Orchestrator) transition(userID string, runID uint64, next State) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.pipelines[userID]
	if !ok || p.runID != runID {
		return ErrRunSuperseded
	}
	p.state = next
	o.publishState(userID, next)
	return nil
}

// fail transitions to Failed, surfaces the error, and resets to Idle. No
// partial persistence survives a failed run.
func (o *Orchestrator) fail(userID string, runID uint64, asset string, err error) error {
	o.mu.Lock()
	p, ok := o.pipelines[userID]
	if ok && p.runID == runID {
		p.state = StateFailed
		o.publishState(userID, StateFailed)
		p.state = StateIdle
		o.publishState(userID, StateIdle)
	}
	o.mu.Unlock()

	o.bus.PublishSignalFailed(userID, asset, err.Error())
	o.logger.WithField("user_id", userID).WithField("asset", asset).WithError(err).
		Error("pipeline run failed")
	return err
}

func (o *Orchestrator) syncWindow(ctx context.Context, userID string, runID uint64) error {
	o.bus.PublishProgress(userID, 0, 0, "Syncing live market data feeds...")
	wait := o.opts.SyncMin
	if spread := o.opts.SyncMax - o.opts.SyncMin; spread > 0 {
		wait += time.Duration(rand.Int63n(int64(spread)))
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(wait):
	}
	if !o.active(userID, runID) {
		return ErrRunSuperseded
	}
	return nil
}

func (o *Orchestrator) buildTrade(userID string, req GenerateRequest, c Consensus) *database.TradeLog {
	entry := time.Now().Add(EntryTimeOffset).In(entryTimeZone)
	return &database.TradeLog{
		UserID:    userID,
		Broker:    catalog.DisplayName(req.Broker),
		Asset:     req.Asset,
		Duration:  req.Duration,
		Direction: c.Signal,
		EntryTime: entry.Format("15:04") + " (UTC+6)",
		RiskLevel: c.RiskLevel,
		Reason:    fmt.Sprintf("**OMNI-CORE AI (%s):** %s", c.Signal, c.Reason),
		Accuracy:  AccuracyLabel,
		Outcome:   database.OutcomePending,
	}
}

// recordActivity prepends the activity marker to lastTen and truncates to
// the rolling window. Save failures are logged and swallowed.
func (o *Orchestrator) recordActivity(ctx context.Context, userID string) {
	settings, err := o.store.GetSettings(ctx, userID)
	if err != nil {
		o.logger.WithField("user_id", userID).WithError(err).Warn("failed to load settings for activity marker")
		return
	}
	var lastTen []string
	if settings != nil {
		lastTen = settings.LastTen
	}
	lastTen = append([]string{SuccessMarker}, lastTen...)
	if len(lastTen) > database.MaxLastTen {
		lastTen = lastTen[:database.MaxLastTen]
	}
	if err := o.store.SaveSettings(ctx, userID, &database.SettingsPatch{LastTen: lastTen}); err != nil {
		o.logger.WithField("user_id", userID).WithError(err).Warn("failed to save activity marker")
	}
}

func (o *Orchestrator) startCooldown(userID string, runID uint64) {
	o.mu.Lock()
	p, ok := o.pipelines[userID]
	if !ok || p.runID != runID {
		o.mu.Unlock()
		return
	}
	p.state = StateCooldown
	o.publishState(userID, StateCooldown)
	o.mu.Unlock()

	if o.opts.Cooldown <= 0 {
		o.finishCooldown(userID, runID)
		return
	}

	go func() {
		remaining := int(o.opts.Cooldown / time.Second)
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		deadline := time.After(o.opts.Cooldown)
		for {
			select {
			case <-ticker.C:
				remaining--
				if remaining > 0 && o.active(userID, runID) {
					o.bus.PublishCooldownTick(userID, remaining)
				}
			case <-deadline:
				o.finishCooldown(userID, runID)
				return
			}
			if !o.active(userID, runID) {
				return
			}
		}
	}()
}

func (o *Orchestrator) finishCooldown(userID string, runID uint64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	p, ok := o.pipelines[userID]
	if !ok || p.runID != runID {
		return
	}
	p.state = StateIdle
	o.publishState(userID, StateIdle)
}

func (o *Orchestrator) publishState(userID string, s State) {
	o.bus.PublishState(userID, string(s))
}

// DefaultSelections fills empty selection fields from catalog defaults.
func DefaultSelections(req *GenerateRequest) {
	if req.Broker == "" {
		req.Broker = catalog.DefaultBroker
	}
	if req.Asset == "" {
		req.Asset = catalog.DefaultAsset
	}
	if req.Duration == "" {
		req.Duration = catalog.DefaultDuration
	}
}
