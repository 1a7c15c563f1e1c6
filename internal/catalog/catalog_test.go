package catalog

import "testing"

func TestDefaultsAreInCatalog(t *testing.T) {
	if !ValidBroker(DefaultBroker) {
		t.Errorf("default broker %q not in catalog", DefaultBroker)
	}
	if !ValidAsset(DefaultAsset) {
		t.Errorf("default asset %q not in catalog", DefaultAsset)
	}
	if !ValidDuration(DefaultBroker, DefaultDuration) {
		t.Errorf("default duration %q not offered by default broker", DefaultDuration)
	}
	if Brokers[0] != DefaultBroker {
		t.Errorf("first broker should be the default, got %q", Brokers[0])
	}
	if AssetGroups[0].Assets[0] != DefaultAsset {
		t.Errorf("first asset should be the default, got %q", AssetGroups[0].Assets[0])
	}
}

func TestDurationsFor(t *testing.T) {
	tests := []struct {
		broker string
		want   []string
	}{
		{"POCKET OPTION", []string{"5 Second", "10 Second", "15 Second", "30 Second", "1 Minute"}},
		{"Exness (FX/CFD)", []string{"1 Minute", "5 Minute", "15 Minute", "30 Minute", "1 Hour", "4 Hour", "Daily"}},
		{"TD Ameritrade (US Stocks)", []string{"1 Hour", "4 Hour", "Daily"}},
		{"no such broker", []string{"1 Minute", "30 Second", "5 Second"}},
	}
	for _, tt := range tests {
		got := DurationsFor(tt.broker)
		if len(got) != len(tt.want) {
			t.Errorf("%s: expected %d durations, got %d", tt.broker, len(tt.want), len(got))
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: duration %d = %q, want %q", tt.broker, i, got[i], tt.want[i])
			}
		}
	}
}

func TestEveryBrokerHasDurations(t *testing.T) {
	for _, b := range Brokers {
		if len(DurationsFor(b)) == 0 {
			t.Errorf("broker %q has empty duration menu", b)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("QUOTEX"); got != "QUOTEX (OMNI-CORE ACTIVE - $100K FIX)" {
		t.Errorf("unexpected display name: %q", got)
	}
	if got := DisplayName("unknown"); got != "unknown" {
		t.Errorf("unknown broker should map to itself, got %q", got)
	}
}

func TestValidDurationRejectsOtherMenus(t *testing.T) {
	// Daily exists for FX brokers but not binary brokers
	if ValidDuration("POCKET OPTION", "Daily") {
		t.Error("Daily should not be valid for POCKET OPTION")
	}
	if !ValidDuration("Exness (FX/CFD)", "Daily") {
		t.Error("Daily should be valid for Exness")
	}
}
