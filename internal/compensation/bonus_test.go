package compensation

import (
	"testing"

	"github.com/tienda-next/internal/constants"
)

func TestComputeBonus(t *testing.T) {
	tiered := TieredBonus{Tiers: []BonusTier{
		{Threshold: dec("100"), Amount: dec("200"), Label: "gold"},
		{Threshold: dec("120"), Amount: dec("300"), Label: "platinum"},
		{Threshold: dec("80"), Amount: dec("100"), Label: "silver"},
	}}

	cases := []struct {
		name        string
		formula     BonusFormula
		rules       BonusRules
		achievement string
		want        string
		wantLabel   string
	}{
		{
			name:        "fixed prorated",
			formula:     FixedBonus{Amount: dec("100")},
			rules:       BonusRules{ProRated: true},
			achievement: "60",
			want:        "60",
		},
		{
			name:        "below minimum achievement",
			formula:     FixedBonus{Amount: dec("100")},
			rules:       BonusRules{ProRated: true, MinAchievement: dec("50")},
			achievement: "40",
			want:        "0",
		},
		{
			name:        "fixed not prorated",
			formula:     FixedBonus{Amount: dec("100")},
			rules:       BonusRules{MinAchievement: dec("50")},
			achievement: "75",
			want:        "100",
		},
		{
			name:        "proration capped at full amount",
			formula:     FixedBonus{Amount: dec("100")},
			rules:       BonusRules{ProRated: true},
			achievement: "150",
			want:        "100",
		},
		{
			name:        "percentage of target",
			formula:     PercentageBonus{Percentage: dec("2")},
			rules:       BonusRules{TargetValue: dec("10000"), MinAchievement: dec("100")},
			achievement: "105",
			want:        "200",
		},
		{
			name:        "percentage prorated",
			formula:     PercentageBonus{Percentage: dec("2")},
			rules:       BonusRules{TargetValue: dec("10000"), ProRated: true},
			achievement: "50",
			want:        "100",
		},
		{
			name:        "tiered highest qualifying",
			formula:     tiered,
			rules:       BonusRules{},
			achievement: "110",
			want:        "200",
			wantLabel:   "gold",
		},
		{
			name:        "tiered top",
			formula:     tiered,
			rules:       BonusRules{},
			achievement: "130",
			want:        "300",
			wantLabel:   "platinum",
		},
		{
			name:        "tiered below every threshold",
			formula:     tiered,
			rules:       BonusRules{},
			achievement: "70",
			want:        "0",
		},
		{
			name:        "none",
			formula:     NoBonus{},
			rules:       BonusRules{},
			achievement: "200",
			want:        "0",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeBonus(tc.formula, tc.rules, dec(tc.achievement))
			if !got.Amount.Equal(dec(tc.want)) {
				t.Fatalf("expected bonus %s, got %s", tc.want, got.Amount)
			}
			if got.TierLabel != tc.wantLabel {
				t.Fatalf("expected tier label %q, got %q", tc.wantLabel, got.TierLabel)
			}
		})
	}
}

func TestNewBonusFormula(t *testing.T) {
	formula, err := NewBonusFormula(BonusParams{Type: constants.GoalBonusFixed, Amount: dec("50")})
	if err != nil {
		t.Fatalf("new bonus formula failed: %v", err)
	}
	if formula.Type() != constants.GoalBonusFixed {
		t.Fatalf("expected fixed formula, got %s", formula.Type())
	}

	none, err := NewBonusFormula(BonusParams{})
	if err != nil {
		t.Fatalf("empty bonus type should mean none: %v", err)
	}
	if _, ok := none.(NoBonus); !ok {
		t.Fatalf("expected NoBonus, got %T", none)
	}

	if _, err := NewBonusFormula(BonusParams{Type: "lottery"}); err == nil {
		t.Fatalf("expected error for unknown bonus type")
	}
}
