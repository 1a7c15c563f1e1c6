// Package signal implements the AI signal generation pipeline: staged
// research calls, consensus synthesis, trade logging, and post-trade
// outcome analysis.
package signal

// TotalAIModels is the advertised size of the consensus model pool. The
// number is embedded in prompts and progress messages, not a real fan-out.
const TotalAIModels = 108

// CoreTradingKnowledgeBase is the fixed house rule set injected verbatim
// into every consensus prompt. Reports that conflict with these rules lose.
const CoreTradingKnowledgeBase = `
- **Rule 1: The Trend is Your Friend (Primary Rule):** ALWAYS identify the major trend (H1, H4, D1). All signals MUST align with the dominant trend. Never counter-trend unless strong divergence and fundamental news align.
- **Rule 2: Support & Resistance are Key:** Identify major support and resistance levels. A CALL signal is stronger if the price bounces *off* support. A PUT signal is stronger if the price is rejected *from* resistance.
- **Rule 3: News Overrides All:** High-impact news (like CPI, NFP, Interest Rate decisions) causes extreme volatility and overrides all technical indicators. If such news is imminent (within 1 hour) or just occurred (within 30 mins), DO NOT TRADE or signal extreme caution.
- **Rule 4: Confluence is King (100% Accuracy Rule):** Do not rely on one indicator. A 100% accuracy signal requires at least 3 aligning factors (confluence).
    - **Example A (Strong CALL):** 1) Price is at major Daily Support Zone. 2) RSI is Oversold (<30) on H1. 3) Fundamental sentiment is positive.
    - **Example B (Strong PUT):** 1) Price is at major Daily Resistance Zone. 2) MACD shows bearish divergence on H4. 3) A bearish pin bar candle just formed.
- **Rule 5: Volume Confirms Price:** A move on high volume is significant. A move on low volume is often a trap or pullback. Always check if recent price moves are backed by volume.
- **Rule 6: Risk Assessment (Critical):** If Fundamental data (News) conflicts with Technical data (Indicators), the signal is "MEDIUM" or "HIGH" risk. A "LOW" risk (100% accuracy) signal *requires* both fundamentals and technicals to align.
- **Rule 7: Duration Matters:** A signal for "5 Second" is purely technical scalping (based on M1/M5 price action). A signal for "1 Hour" MUST align with the H1/H4 trend.
`
