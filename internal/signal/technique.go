package signal

import "fmt"

// Technique is one category of research query.
type Technique string

const (
	TechniqueFundamental Technique = "fundamental"
	TechniqueTechnical   Technique = "technical"
	TechniqueSentiment   Technique = "sentiment"
)

// AllTechniques lists every technique in research execution order.
var AllTechniques = []Technique{TechniqueFundamental, TechniqueTechnical, TechniqueSentiment}

// Valid reports whether t is a known technique.
func (t Technique) Valid() bool {
	switch t {
	case TechniqueFundamental, TechniqueTechnical, TechniqueSentiment:
		return true
	}
	return false
}

// Label returns the human-readable name used in progress messages.
func (t Technique) Label() string {
	switch t {
	case TechniqueFundamental:
		return "Fundamental Data (News, Sentiment)"
	case TechniqueTechnical:
		return "Technical Data (RSI, MACD)"
	case TechniqueSentiment:
		return "Market Sentiment (Social, Positioning)"
	}
	return string(t)
}

// ResearchPrompt holds the system instruction and user content for one
// research call. Prompts are built as pure functions of the asset so they
// can be tested without any network access.
type ResearchPrompt struct {
	System  string
	Content string
}

// PromptFor builds the research prompt for a technique and asset.
func PromptFor(t Technique, asset string) ResearchPrompt {
	switch t {
	case TechniqueFundamental:
		return ResearchPrompt{
			System:  fmt.Sprintf("You are a financial news researcher. Use Google Search to find the top 3-5 most critical, recent (last 1-3 hours) *fundamental* news headlines and market sentiment reports for %s. Return *only* a simple, bulleted list of these raw findings. Do not analyze or give a signal. Do not add any greeting or conclusion.", asset),
			Content: fmt.Sprintf("Get recent fundamental news for %s.", asset),
		}
	case TechniqueTechnical:
		return ResearchPrompt{
			System:  fmt.Sprintf("You are a technical analyst. Use Google Search to find the most recent (last 1 hour) *technical* indicators for %s (e.g., RSI, MACD, Bollinger Bands, Support/Resistance levels). Return *only* a simple, bulleted list of these raw technical findings. Do not analyze or give a signal. Do not add any greeting or conclusion.", asset),
			Content: fmt.Sprintf("Get recent technical indicators for %s.", asset),
		}
	case TechniqueSentiment:
		return ResearchPrompt{
			System:  fmt.Sprintf("You are a market sentiment researcher. Use Google Search to find the most recent (last 1-3 hours) *sentiment* readings for %s: social media mood, retail positioning, fear/greed measures, and notable analyst commentary. Return *only* a simple, bulleted list of these raw findings. Do not analyze or give a signal. Do not add any greeting or conclusion.", asset),
			Content: fmt.Sprintf("Get recent market sentiment for %s.", asset),
		}
	}
	return ResearchPrompt{}
}

// ParseTechniques converts stored technique names into validated techniques,
// dropping unknown entries.
func ParseTechniques(names []string) []Technique {
	out := make([]Technique, 0, len(names))
	for _, n := range names {
		t := Technique(n)
		if t.Valid() {
			out = append(out, t)
		}
	}
	return out
}
