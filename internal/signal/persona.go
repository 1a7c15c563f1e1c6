package signal

// Persona is a named behavioral directive injected into the consensus prompt.
type Persona struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Instruction string `json:"instruction"`
}

const (
	PersonaStandard     = "standard"
	PersonaConservative = "conservative"
	PersonaAggressive   = "aggressive"
	PersonaNewsTrader   = "news_trader"
)

var personas = map[string]Persona{
	PersonaStandard: {
		ID:          PersonaStandard,
		Name:        "OMNI-CORE Standard",
		Description: "Balanced approach using all available data streams equally.",
		Instruction: "You will maintain a balanced, objective analytical approach.",
	},
	PersonaConservative: {
		ID:          PersonaConservative,
		Name:        "Conservative Analyst",
		Description: "Prioritizes capital preservation. Only acts on very high-probability, low-risk setups.",
		Instruction: "You must adopt a highly risk-averse, conservative persona. Your primary goal is capital preservation. You will heavily penalize any conflicting data and only generate a signal if confidence is exceptionally high and the risk is definitively LOW. If there is any doubt, you must state it.",
	},
	PersonaAggressive: {
		ID:          PersonaAggressive,
		Name:        "Aggressive Tactician",
		Description: "Seeks high-reward opportunities and is willing to accept higher risk for strong signals.",
		Instruction: "You are an aggressive tactician. You are looking for high-impact opportunities and are willing to accept MEDIUM risk if the confluence of data is strong, even if not perfect. You may give more weight to short-term momentum indicators.",
	},
	PersonaNewsTrader: {
		ID:          PersonaNewsTrader,
		Name:        "News-Focused Trader",
		Description: "Places a heavy emphasis on fundamental news and market sentiment over technicals.",
		Instruction: "Your analysis must be heavily weighted towards Fundamental (News) and Sentiment data. Technical indicators are secondary and should only be used to confirm the entry point for a fundamentally-driven trade idea. Your reasoning must start with the key news event driving your decision.",
	},
}

// PersonaByID returns the persona for an id, falling back to the standard
// persona for unknown or empty ids.
func PersonaByID(id string) Persona {
	if p, ok := personas[id]; ok {
		return p
	}
	return personas[PersonaStandard]
}

// Personas returns all personas in a stable order.
func Personas() []Persona {
	return []Persona{
		personas[PersonaStandard],
		personas[PersonaConservative],
		personas[PersonaAggressive],
		personas[PersonaNewsTrader],
	}
}
