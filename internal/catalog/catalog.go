// Package catalog holds the static broker and market asset universe the
// dashboard offers, plus the per-broker duration menus.
package catalog

// Brokers lists every supported broker in display order.
var Brokers = []string{
	"Ultimate Broker (LIVE OMNI-CORE ACTIVE)",
	"POCKET OPTION",
	"BINOMO",
	"OLYMP TRADE",
	"IQ OPTION",
	"EXPERT OPTION",
	"QUOTEX",
	"DERIV (Binary/Synthetics)",
	"RoboForex (FX/CFD)",
	"Exness (FX/CFD)",
	"FXTM (FX/CFD)",
	"OctaFX (FX/CFD)",
	"FUTURES (CME/CBOT)",
	"FTX (Crypto Exchange)",
	"BYBIT (Derivatives)",
	"BINANCE (Global Exchange)",
	"TD Ameritrade (US Stocks)",
}

// AssetGroup is a named cluster of selectable assets.
type AssetGroup struct {
	Name   string   `json:"name"`
	Assets []string `json:"assets"`
}

// AssetGroups lists the market assets grouped the way the selector renders
// them. Order is part of the contract: the first asset of the first group is
// the default selection.
var AssetGroups = []AssetGroup{
	{
		Name: "### FOREX (LIVE FEED) ###",
		Assets: []string{
			"EUR/USD (Live Feed)", "GBP/USD (Live Feed)", "USD/JPY (Live Feed)", "AUD/USD (Live Feed)",
			"USD/CAD (Live Feed)", "USD/CHF (Live Feed)", "EUR/GBP (Live Feed)", "EUR/AUD (Live Feed)",
			"GBP/JPY (Live Feed)", "AUD/NZD (Live Feed)", "NZD/USD (Live Feed)", "EUR/NZD (Live Feed)",
			"USD/ZAR (Live Feed)", "USD/TRY (Live Feed)", "USD/BRL (Live Feed)", "NZD/CAD (Live Feed)",
			"USD/DZD (Live Feed)", "USD/IDR (Live Feed)", "USD/EGP (Live Feed)", "GBP/NZD (Live Feed)",
			"USD/PKR (Live Feed)", "NZD/CHF (Live Feed)", "CAD/CHF (Live Feed)", "NZD/JPY (Live Feed)",
			"USD/ARS (Live Feed)", "USD/MXN (Live Feed)", "USD/INR (Live Feed)", "USD/NGN (Live Feed)",
			"USD/PHP (Live Feed)", "USD/BDT (Live Feed)", "GBP/CHF (Live Feed)", "EUR/CHF (Live Feed)",
			"GBP/CAD (Live Feed)", "GBP/AUD (Live Feed)",
		},
	},
	{
		Name: "### LIVE OTC/CRYPTO MARKET ###",
		Assets: []string{
			"Bitcoin (Live Feed)", "Ethereum (Live Feed)", "Ripple (Live Feed)", "Cardano (Live Feed)",
			"Solana (Live Feed)", "Dogecoin (Live Feed)", "Binance Coin (Live Feed)", "Polkadot (Live Feed)",
			"Chainlink (Live Feed)", "Shiba Inu (Live Feed)", "Toncoin (Live Feed)", "Arbitrum (Live Feed)",
			"Avalanche (Live Feed)", "Pepe (Live Feed)", "Aptos (Live Feed)", "Beam (Live Feed)",
			"Bonk (Live Feed)", "Hamster Kombat (Live Feed)", "Notcoin (Live Feed)", "Trump (Live Feed)",
			"Zcash (Live Feed)", "Ethereum Classic (Live Feed)", "Cosmos (Live Feed)", "Axie Infinity (Live Feed)",
			"TRON (Live Feed)", "Decentraland (Live Feed)", "Bitcoin Cash (Live Feed)", "Dogwifhat (Live Feed)",
			"Celestia (Live Feed)", "FLOKI (Live Feed)", "GALA (Live Feed)", "UNI (Live Feed)",
			"XMR (Live Feed)",
		},
	},
	{
		Name: "### LIVE COMMODITIES & INDICES ###",
		Assets: []string{
			"Gold (Live Feed)", "Silver (Live Feed)", "USCrude (Live Feed)", "UKBrent (Live Feed)",
			"Platinum (Live Feed)", "Copper (Live Feed)", "Dow Jones (Live Feed)", "Nikkei 225 (Live Feed)",
			"NASDAQ 100 (Live Feed)", "FTSE 100 (Live Feed)", "EURO STOXX 50 (Live Feed)",
			"Volatility 75 Index (Live Feed)", "Crash 1000 Index (Live Feed)", "Step Index (Live Feed)",
			"S&P/ASX 200 (Live Feed)", "Hong Kong 50 (Live Feed)", "CAC 40 (Live Feed)",
		},
	},
	{
		Name: "### LIVE STOCKS MARKET ###",
		Assets: []string{
			"Microsoft (Live Feed)", "Apple (Live Feed)", "Amazon (Live Feed)", "Google (Live Feed)",
			"Tesla (Live Feed)", "Intel (Live Feed)", "Pfizer Inc (Live Feed)", "American Express (Live Feed)",
			"Boeing Company (Live Feed)", "FACEBOOK INC (Live Feed)", "Johnson & Johnson (Live Feed)",
			"McDonald's (Live Feed)",
		},
	},
}

// BrokerDisplayMap maps each broker to the label shown while a run is active.
var BrokerDisplayMap = map[string]string{
	"Ultimate Broker (LIVE OMNI-CORE ACTIVE)": "Ultimate Singularity Core (OMNI-CORE ACTIVE - $100K FIX)",
	"POCKET OPTION":                           "POCKET OPTION (OMNI-CORE ACTIVE - $100K FIX)",
	"BINOMO":                                  "BINOMO (OMNI-CORE ACTIVE - $100K FIX)",
	"OLYMP TRADE":                             "OLYMP TRADE (OMNI-CORE ACTIVE - $100K FIX)",
	"IQ OPTION":                               "IQ OPTION (OMNI-CORE ACTIVE - $100K FIX)",
	"EXPERT OPTION":                           "EXPERT OPTION (OMNI-CORE ACTIVE - $100K FIX)",
	"QUOTEX":                                  "QUOTEX (OMNI-CORE ACTIVE - $100K FIX)",
	"DERIV (Binary/Synthetics)":               "DERIV (OMNI-CORE ACTIVE - $100K FIX)",
	"RoboForex (FX/CFD)":                      "RoboForex (OMNI-CORE ACTIVE - $100K FIX)",
	"Exness (FX/CFD)":                         "Exness (OMNI-CORE ACTIVE - $100K FIX)",
	"FXTM (FX/CFD)":                           "FXTM (OMNI-CORE ACTIVE - $100K FIX)",
	"OctaFX (FX/CFD)":                         "OctaFX (OMNI-CORE ACTIVE - $100K FIX)",
	"FUTURES (CME/CBOT)":                      "FUTURES (OMNI-CORE ACTIVE - $100K FIX)",
	"FTX (Crypto Exchange)":                   "FTX (OMNI-CORE ACTIVE - $100K FIX)",
	"BYBIT (Derivatives)":                     "BYBIT (OMNI-CORE ACTIVE - $100K FIX)",
	"BINANCE (Global Exchange)":               "BINANCE (OMNI-CORE ACTIVE - $100K FIX)",
	"TD Ameritrade (US Stocks)":               "TD Ameritrade (OMNI-CORE ACTIVE - $100K FIX)",
}

var (
	shortBinaryDurations = []string{"5 Second", "10 Second", "15 Second", "30 Second", "1 Minute"}
	forexDurations       = []string{"1 Minute", "5 Minute", "15 Minute", "30 Minute", "1 Hour", "4 Hour", "Daily"}
	cryptoStockDurations = []string{"5 Minute", "15 Minute", "30 Minute", "1 Hour", "4 Hour", "Daily"}
)

// DefaultDurations is the fallback menu for brokers without a specific entry.
var DefaultDurations = []string{"1 Minute", "30 Second", "5 Second"}

var brokerDurations = map[string][]string{
	"Ultimate Broker (LIVE OMNI-CORE ACTIVE)": shortBinaryDurations,
	"POCKET OPTION":                           shortBinaryDurations,
	"BINOMO":                                  shortBinaryDurations,
	"OLYMP TRADE":                             shortBinaryDurations,
	"IQ OPTION":                               shortBinaryDurations,
	"EXPERT OPTION":                           shortBinaryDurations,
	"QUOTEX":                                  shortBinaryDurations,
	"DERIV (Binary/Synthetics)":               shortBinaryDurations,
	"RoboForex (FX/CFD)":                      forexDurations,
	"Exness (FX/CFD)":                         forexDurations,
	"FXTM (FX/CFD)":                           forexDurations,
	"OctaFX (FX/CFD)":                         forexDurations,
	"FUTURES (CME/CBOT)":                      {"1 Minute", "30 Second", "5 Second", "1 Hour", "4 Hour"},
	"FTX (Crypto Exchange)":                   cryptoStockDurations,
	"BYBIT (Derivatives)":                     cryptoStockDurations,
	"BINANCE (Global Exchange)":               cryptoStockDurations,
	"TD Ameritrade (US Stocks)":               {"1 Hour", "4 Hour", "Daily"},
}

// Defaults returned for a user with no saved settings.
const (
	DefaultBroker   = "Ultimate Broker (LIVE OMNI-CORE ACTIVE)"
	DefaultAsset    = "EUR/USD (Live Feed)"
	DefaultDuration = "30 Second"
)

// DurationsFor returns the duration menu for a broker, falling back to
// DefaultDurations for unknown brokers.
func DurationsFor(broker string) []string {
	if d, ok := brokerDurations[broker]; ok {
		return d
	}
	return DefaultDurations
}

// DisplayName returns the active-run label for a broker, or the broker name
// itself when no mapping exists.
func DisplayName(broker string) string {
	if name, ok := BrokerDisplayMap[broker]; ok {
		return name
	}
	return broker
}

// ValidBroker reports whether the broker is in the catalog.
func ValidBroker(broker string) bool {
	for _, b := range Brokers {
		if b == broker {
			return true
		}
	}
	return false
}

// ValidAsset reports whether the asset appears in any group.
func ValidAsset(asset string) bool {
	for _, g := range AssetGroups {
		for _, a := range g.Assets {
			if a == asset {
				return true
			}
		}
	}
	return false
}

// ValidDuration reports whether the duration is offered by the given broker.
func ValidDuration(broker, duration string) bool {
	for _, d := range DurationsFor(broker) {
		if d == duration {
			return true
		}
	}
	return false
}
