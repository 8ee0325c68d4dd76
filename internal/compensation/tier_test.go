package compensation

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func standardTiers() []Tier {
	return []Tier{
		{From: dec("500"), Percentage: dec("10")},
		{From: dec("0"), To: decPtr("100"), Percentage: dec("5")},
		{From: dec("100"), To: decPtr("500"), Percentage: dec("8")},
	}
}

func TestResolveTier(t *testing.T) {
	cases := []struct {
		name    string
		tiers   []Tier
		base    string
		wantNil bool
		wantPct string
	}{
		{name: "middle tier", tiers: standardTiers(), base: "250", wantPct: "8"},
		{name: "open ended top tier", tiers: standardTiers(), base: "600", wantPct: "10"},
		{name: "lower bound inclusive", tiers: standardTiers(), base: "100", wantPct: "8"},
		{name: "upper bound exclusive", tiers: standardTiers(), base: "99.99", wantPct: "5"},
		{
			name: "above every bounded tier uses greatest to",
			tiers: []Tier{
				{From: dec("0"), To: decPtr("100"), Percentage: dec("5")},
				{From: dec("100"), To: decPtr("500"), Percentage: dec("8")},
			},
			base:    "900",
			wantPct: "8",
		},
		{
			name: "gap between tiers",
			tiers: []Tier{
				{From: dec("0"), To: decPtr("100"), Percentage: dec("5")},
				{From: dec("200"), To: decPtr("500"), Percentage: dec("8")},
			},
			base:    "150",
			wantNil: true,
		},
		{name: "no tiers", tiers: nil, base: "10", wantNil: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tier := ResolveTier(tc.tiers, dec(tc.base))
			if tc.wantNil {
				if tier != nil {
					t.Fatalf("expected no tier, got %+v", tier)
				}
				return
			}
			if tier == nil {
				t.Fatalf("expected tier with %s%%, got nil", tc.wantPct)
			}
			if !tier.Percentage.Equal(dec(tc.wantPct)) {
				t.Fatalf("expected percentage %s, got %s", tc.wantPct, tier.Percentage)
			}
		})
	}
}

func TestSortTiersKeepsInputUntouched(t *testing.T) {
	tiers := standardTiers()
	sorted := SortTiers(tiers)
	if !sorted[0].From.Equal(dec("0")) || !sorted[2].From.Equal(dec("500")) {
		t.Fatalf("unexpected order: %+v", sorted)
	}
	if !tiers[0].From.Equal(dec("500")) {
		t.Fatalf("expected input slice unchanged, got %+v", tiers)
	}
}
