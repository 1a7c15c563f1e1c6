package signal

import (
	"strings"
	"testing"

	"omnicore-dashboard/internal/database"
)

func TestParseConsensus(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		want    Consensus
		wantErr bool
	}{
		{
			name:  "plain json",
			reply: `{"signal": "CALL", "reason": "confluence met", "riskLevel": "LOW"}`,
			want:  Consensus{Signal: "CALL", Reason: "confluence met", RiskLevel: "LOW"},
		},
		{
			name:  "fenced json",
			reply: "```json\n{\"signal\": \"PUT\", \"reason\": \"rejection at resistance\", \"riskLevel\": \"MEDIUM\"}\n```",
			want:  Consensus{Signal: "PUT", Reason: "rejection at resistance", RiskLevel: "MEDIUM"},
		},
		{
			name:  "fence without language tag",
			reply: "```\n{\"signal\": \"CALL\", \"reason\": \"r\", \"riskLevel\": \"HIGH\"}\n```",
			want:  Consensus{Signal: "CALL", Reason: "r", RiskLevel: "HIGH"},
		},
		{
			name:  "lowercase signal normalized",
			reply: `{"signal": "call", "reason": "r", "riskLevel": "low"}`,
			want:  Consensus{Signal: "CALL", Reason: "r", RiskLevel: "LOW"},
		},
		{
			name:  "missing risk defaults to medium",
			reply: `{"signal": "PUT", "reason": "r"}`,
			want:  Consensus{Signal: "PUT", Reason: "r", RiskLevel: "MEDIUM"},
		},
		{
			name:    "malformed json",
			reply:   "The signal is CALL because momentum is strong.",
			wantErr: true,
		},
		{
			name:    "invalid signal",
			reply:   `{"signal": "HOLD", "reason": "r", "riskLevel": "LOW"}`,
			wantErr: true,
		},
		{
			name:    "invalid risk",
			reply:   `{"signal": "CALL", "reason": "r", "riskLevel": "EXTREME"}`,
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseConsensus(tt.reply)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseConsensus failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestFallbackConsensus(t *testing.T) {
	fb := FallbackConsensus()
	if fb.Signal != database.DirectionPut {
		t.Errorf("fallback signal must be PUT, got %s", fb.Signal)
	}
	if fb.RiskLevel != database.RiskHigh {
		t.Errorf("fallback risk must be HIGH, got %s", fb.RiskLevel)
	}
	if fb.Reason != FallbackReason {
		t.Errorf("unexpected fallback reason: %s", fb.Reason)
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := BuildPrompt(SynthesisInput{
		Asset: "Gold (Live Feed)",
		Bundle: Bundle{
			TechniqueFundamental: "- gold demand up",
			TechniqueTechnical:   "- RSI 72",
		},
		TradeHistory:        "- Asset: Gold, Signal: CALL, Outcome: WIN",
		Persona:             PersonaByID(PersonaConservative),
		ModelCount:          64,
		ConfidenceThreshold: database.RiskHigh,
	})

	for _, want := range []string{
		"CORE TRADING KNOWLEDGE",
		"Rule 4: Confluence is King",
		"- gold demand up",
		"- RSI 72",
		"**Sentiment Report (Real-time):**\n(no report requested)",
		"- Asset: Gold, Signal: CALL, Outcome: WIN",
		"capital preservation",
		"commanding 64 models",
	} {
		if !strings.Contains(prompt.System, want) {
			t.Errorf("synthesis system prompt missing %q", want)
		}
	}
	if !strings.Contains(prompt.Content, "Gold (Live Feed)") {
		t.Errorf("user content should name the asset: %s", prompt.Content)
	}
}

func TestBuildPromptDefaults(t *testing.T) {
	prompt := BuildPrompt(SynthesisInput{
		Asset:   "EUR/USD (Live Feed)",
		Bundle:  Bundle{},
		Persona: PersonaByID(""),
	})
	if !strings.Contains(prompt.System, "commanding 108 models") {
		t.Error("model count should default to the advertised pool size")
	}
	if !strings.Contains(prompt.System, "balanced, objective analytical approach") {
		t.Error("empty persona should fall back to standard")
	}
}

func TestStripMarkdownCodeBlock(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{`{"a":1}`, `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := stripMarkdownCodeBlock(tt.in); got != tt.want {
			t.Errorf("stripMarkdownCodeBlock(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
