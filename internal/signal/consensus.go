package signal

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"omnicore-dashboard/internal/ai/llm"
	"omnicore-dashboard/internal/database"
	"omnicore-dashboard/internal/logging"
)

// Consensus is the structured decision returned by the synthesis stage.
type Consensus struct {
	Signal    string `json:"signal"`
	Reason    string `json:"reason"`
	RiskLevel string `json:"riskLevel"`
}

// FallbackReason is the reason attached to the degraded consensus used when
// the synthesis call fails or returns unparseable output.
const FallbackReason = "Fallback: Market volatility algorithms locked. All models confirm the trajectory."

// FallbackConsensus returns the fixed safe default the synthesizer degrades
// to. Synthesis never aborts a run once research has succeeded.
func FallbackConsensus() Consensus {
	return Consensus{
		Signal:    database.DirectionPut,
		Reason:    FallbackReason,
		RiskLevel: database.RiskHigh,
	}
}

// SynthesisInput carries everything the consensus prompt is built from.
type SynthesisInput struct {
	Asset               string
	Bundle              Bundle
	TradeHistory        string
	Persona             Persona
	ModelCount          int
	ConfidenceThreshold string
}

// Synthesizer merges research output into one consensus prompt and parses
// the structured reply.
type Synthesizer struct {
	client  Generator
	timeout time.Duration
	logger  *logging.Logger
}

// NewSynthesizer creates a consensus synthesizer.
func NewSynthesizer(client Generator, timeout time.Duration) *Synthesizer {
	return &Synthesizer{
		client:  client,
		timeout: timeout,
		logger:  logging.Default().WithComponent("consensus"),
	}
}

// BuildPrompt assembles the synthesis prompt. Pure function of its input so
// prompt content is testable without network access.
func BuildPrompt(in SynthesisInput) ResearchPrompt {
	modelCount := in.ModelCount
	if modelCount <= 0 {
		modelCount = TotalAIModels
	}
	confidence := in.ConfidenceThreshold
	if confidence == "" {
		confidence = database.RiskHigh
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are OMNI-CORE AI, the Chief Quantitative Analyst commanding %d models. Your single most important goal is 100%% ACCURACY. You MUST find a winning trade. Required confidence threshold: %s.\n", modelCount, confidence)
	fmt.Fprintf(&b, "Persona directive: %s\n", in.Persona.Instruction)
	b.WriteString("You have the following sources of information:\n")
	fmt.Fprintf(&b, "1. **CORE TRADING KNOWLEDGE (My Main Server Data - MUST BE FOLLOWED):**\n%s\n", CoreTradingKnowledgeBase)

	// every technique gets a section; unselected ones stay explicitly empty so
	// the model does not hallucinate missing reports
	section := 2
	for _, t := range AllTechniques {
		findings, ok := in.Bundle[t]
		if !ok || findings == "" {
			findings = "(no report requested)"
		}
		fmt.Fprintf(&b, "%d. **%s Report (Real-time):**\n%s\n", section, titleCase(string(t)), findings)
		section++
	}

	fmt.Fprintf(&b, "%d. **User's Past 10 Trades (Self-Learning Data):**\n%s\n", section, in.TradeHistory)
	b.WriteString(`Your job is to synthesize *all* sources to make the final, high-conviction, 100% accurate signal (CALL or PUT). If the reports conflict with the Core Knowledge, the Core Knowledge ALWAYS wins. Analyze the user's past trades for any patterns and factor this into your consensus. Provide a detailed, expert-level reason for your final decision, citing the key data points from all reports that led to your consensus. You MUST respond with ONLY a valid JSON object string with exactly three fields. Do not include "json" or markdown backticks. Example: {"signal": "CALL", "reason": "Consensus is CALL because: Core Rule 2 (Price at Support) is met. Fundamental (Positive CPI) aligns. Technical (RSI Oversold) aligns.", "riskLevel": "LOW"}`)

	return ResearchPrompt{
		System:  b.String(),
		Content: fmt.Sprintf("Asset: %s\nProvide the final 100%% accuracy signal, reason, and risk level based on all data sources.", in.Asset),
	}
}

// Synthesize requests the consensus decision. It never returns an error:
// transport failures and malformed replies degrade to FallbackConsensus.
func (s *Synthesizer) Synthesize(ctx context.Context, in SynthesisInput) Consensus {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	log := s.logger.WithField("asset", in.Asset).WithField("persona", in.Persona.ID)

	prompt := BuildPrompt(in)
	reply, err := s.client.Generate(ctx, llm.Request{
		System:   prompt.System,
		Content:  prompt.Content,
		JSONMode: true,
	})
	if err != nil {
		log.WithError(err).Warn("synthesis call failed, using fallback signal")
		return FallbackConsensus()
	}

	consensus, err := ParseConsensus(reply)
	if err != nil {
		log.WithError(err).Warn("synthesis reply unparseable, using fallback signal")
		return FallbackConsensus()
	}
	return consensus
}

var codeBlockRegex = regexp.MustCompile("(?s)^```(?:json)?\\s*\\n?(.*?)\\n?```$")

// stripMarkdownCodeBlock removes a surrounding markdown code fence if present.
func stripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRegex.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// ParseConsensus decodes the model reply into a validated Consensus.
func ParseConsensus(reply string) (Consensus, error) {
	cleaned := stripMarkdownCodeBlock(reply)

	var c Consensus
	if err := json.Unmarshal([]byte(cleaned), &c); err != nil {
		return Consensus{}, fmt.Errorf("failed to parse consensus reply: %w", err)
	}

	c.Signal = strings.ToUpper(strings.TrimSpace(c.Signal))
	if c.Signal != database.DirectionCall && c.Signal != database.DirectionPut {
		return Consensus{}, fmt.Errorf("invalid signal %q", c.Signal)
	}

	c.RiskLevel = strings.ToUpper(strings.TrimSpace(c.RiskLevel))
	switch c.RiskLevel {
	case database.RiskLow, database.RiskMedium, database.RiskHigh:
	case "":
		c.RiskLevel = database.RiskMedium
	default:
		return Consensus{}, fmt.Errorf("invalid risk level %q", c.RiskLevel)
	}

	if c.Reason == "" {
		c.Reason = "No reasoning provided by consensus."
	}
	return c, nil
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
