package signal

import (
	"context"
	"fmt"
	"time"

	"omnicore-dashboard/internal/ai/llm"
	"omnicore-dashboard/internal/database"
	"omnicore-dashboard/internal/logging"
)

// AnalysisUnavailable is stored on the trade when the post-trade analysis
// call fails. The outcome itself is always recorded regardless.
const AnalysisUnavailable = "Post-trade analysis unavailable. The outcome was recorded without model review."

// Analyst explains a realized trade outcome after the fact.
type Analyst struct {
	client  Generator
	timeout time.Duration
	logger  *logging.Logger
}

// NewAnalyst creates a post-trade analyst.
func NewAnalyst(client Generator, timeout time.Duration) *Analyst {
	return &Analyst{
		client:  client,
		timeout: timeout,
		logger:  logging.Default().WithComponent("analyst"),
	}
}

// AnalysisPrompt builds the post-trade prompt from the closed trade. Pure
// function, testable offline.
func AnalysisPrompt(trade *database.TradeLog, outcome string) ResearchPrompt {
	system := fmt.Sprintf("You are a post-trade reviewer for OMNI-CORE AI. Use Google Search to check what actually happened in the market around the trade below. Explain in exactly 3-4 bullet points the most likely cause of the realized outcome. Be concrete: name the price move, news event, or indicator behavior responsible. Do not give a new signal. Do not add any greeting or conclusion.")
	content := fmt.Sprintf(
		"Trade under review:\n- Asset: %s\n- Broker: %s\n- Direction: %s\n- Duration: %s\n- Entry time: %s\n- Original reasoning: %s\n- Realized outcome: %s\nWhy did this trade end as %s?",
		trade.Asset, trade.Broker, trade.Direction, trade.Duration, trade.EntryTime, trade.Reason, outcome, outcome,
	)
	return ResearchPrompt{System: system, Content: content}
}

// Analyze asks the model to explain the outcome. Best-effort: on any failure
// it returns AnalysisUnavailable instead of an error so outcome recording is
// never blocked.
func (a *Analyst) Analyze(ctx context.Context, trade *database.TradeLog, outcome string) string {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	prompt := AnalysisPrompt(trade, outcome)
	analysis, err := a.client.Generate(ctx, llm.Request{
		System:        prompt.System,
		Content:       prompt.Content,
		SearchEnabled: true,
	})
	if err != nil {
		a.logger.WithField("trade_id", trade.ID).WithField("outcome", outcome).
			WithError(err).Warn("post-trade analysis failed")
		return AnalysisUnavailable
	}
	if analysis == "" {
		return AnalysisUnavailable
	}
	return analysis
}
