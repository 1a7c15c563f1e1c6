package signal

import (
	"strings"
	"testing"
)

func TestPromptFor(t *testing.T) {
	asset := "USD/JPY (Live Feed)"

	fundamental := PromptFor(TechniqueFundamental, asset)
	if !strings.Contains(fundamental.System, "financial news researcher") {
		t.Errorf("unexpected fundamental system prompt: %s", fundamental.System)
	}
	if !strings.Contains(fundamental.System, asset) || !strings.Contains(fundamental.Content, asset) {
		t.Error("fundamental prompt should name the asset in both parts")
	}

	technical := PromptFor(TechniqueTechnical, asset)
	if !strings.Contains(technical.System, "RSI, MACD, Bollinger Bands") {
		t.Errorf("unexpected technical system prompt: %s", technical.System)
	}

	sentiment := PromptFor(TechniqueSentiment, asset)
	if !strings.Contains(sentiment.System, "sentiment") {
		t.Errorf("unexpected sentiment system prompt: %s", sentiment.System)
	}

	// every research prompt forbids signals and greetings
	for _, p := range []ResearchPrompt{fundamental, technical, sentiment} {
		if !strings.Contains(p.System, "Do not analyze or give a signal") {
			t.Errorf("research prompt must forbid signals: %s", p.System)
		}
	}
}

func TestParseTechniques(t *testing.T) {
	got := ParseTechniques([]string{"technical", "astrology", "fundamental", ""})
	if len(got) != 2 {
		t.Fatalf("expected 2 valid techniques, got %d", len(got))
	}
	if got[0] != TechniqueTechnical || got[1] != TechniqueFundamental {
		t.Errorf("order must be preserved, got %v", got)
	}
}

func TestPersonaByID(t *testing.T) {
	if p := PersonaByID(PersonaAggressive); p.Name != "Aggressive Tactician" {
		t.Errorf("unexpected persona: %+v", p)
	}
	if p := PersonaByID("nonsense"); p.ID != PersonaStandard {
		t.Errorf("unknown id should fall back to standard, got %s", p.ID)
	}
	if len(Personas()) != 4 {
		t.Errorf("expected 4 personas, got %d", len(Personas()))
	}
}
