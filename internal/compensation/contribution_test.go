package compensation

import (
	"reflect"
	"testing"

	"github.com/tienda-next/internal/constants"
)

func sampleOrder() ContributionOrder {
	return ContributionOrder{
		TotalAmount: dec("130"),
		Items: []ContributionItem{
			{ProductID: 1, Category: "drinks", Quantity: 2, Price: dec("10"), Cost: decPtr("4")},
			{ProductID: 2, Category: "food", Quantity: 1, Price: dec("50")},
			{ProductID: 3, Category: "food", Quantity: 3, Price: dec("20"), Cost: decPtr("12")},
		},
	}
}

func TestContributionValue(t *testing.T) {
	fallback := dec("0.3")
	cases := []struct {
		name        string
		targetType  string
		scope       ItemScope
		want        string
		wantMatched bool
	}{
		{name: "amount uses order total", targetType: constants.GoalTargetAmount, want: "130", wantMatched: true},
		{name: "amount scoped to category", targetType: constants.GoalTargetAmount, scope: ItemScope{Categories: []string{"food"}}, want: "110", wantMatched: true},
		{name: "units", targetType: constants.GoalTargetUnits, want: "6", wantMatched: true},
		{name: "units scoped to product", targetType: constants.GoalTargetUnits, scope: ItemScope{ProductIDs: []uint{3}}, want: "3", wantMatched: true},
		{name: "orders", targetType: constants.GoalTargetOrders, want: "1", wantMatched: true},
		// 12 + 50*0.3 + 24
		{name: "margin with fallback", targetType: constants.GoalTargetMargin, want: "51", wantMatched: true},
		{name: "scope without match", targetType: constants.GoalTargetOrders, scope: ItemScope{ProductIDs: []uint{99}}, want: "0", wantMatched: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, matched := ContributionValue(tc.targetType, sampleOrder(), tc.scope, fallback)
			if matched != tc.wantMatched {
				t.Fatalf("expected matched %v, got %v", tc.wantMatched, matched)
			}
			if !got.Equal(dec(tc.want)) {
				t.Fatalf("expected contribution %s, got %s", tc.want, got)
			}
		})
	}
}

func TestPercentageComplete(t *testing.T) {
	if got := PercentageComplete(dec("333"), dec("1000")); !got.Equal(dec("33.3")) {
		t.Fatalf("expected 33.3, got %s", got)
	}
	if got := PercentageComplete(dec("1"), dec("3")); !got.Equal(dec("33.33")) {
		t.Fatalf("expected 33.33, got %s", got)
	}
	if got := PercentageComplete(dec("10"), dec("0")); !got.IsZero() {
		t.Fatalf("expected 0 for zero target, got %s", got)
	}
	nearly := PercentageComplete(dec("99999.99"), dec("100000"))
	if !nearly.Equal(dec("99.99")) {
		t.Fatalf("expected 99.99 below target, got %s", nearly)
	}
	if crossed := NewMilestones([]int{100}, nil, nearly); len(crossed) != 0 {
		t.Fatalf("expected no 100%% milestone below target, got %v", crossed)
	}
	if got := PercentageComplete(dec("2"), dec("3")); !got.Equal(dec("66.66")) {
		t.Fatalf("expected 66.66, got %s", got)
	}
}

func TestNewMilestones(t *testing.T) {
	milestones := []int{90, 50, 75}

	first := NewMilestones(milestones, nil, dec("55"))
	if !reflect.DeepEqual(first, []int{50}) {
		t.Fatalf("expected [50], got %v", first)
	}
	again := NewMilestones(milestones, []int{50}, dec("60"))
	if len(again) != 0 {
		t.Fatalf("expected no new milestones, got %v", again)
	}
	jump := NewMilestones(milestones, []int{50}, dec("95"))
	if !reflect.DeepEqual(jump, []int{75, 90}) {
		t.Fatalf("expected [75 90], got %v", jump)
	}
}

func TestAppendBounded(t *testing.T) {
	var ring []int
	for i := 1; i <= 5; i++ {
		ring = AppendBounded(ring, i, 3)
	}
	if !reflect.DeepEqual(ring, []int{3, 4, 5}) {
		t.Fatalf("expected oldest evicted, got %v", ring)
	}
	unbounded := AppendBounded([]int{1}, 2, 0)
	if len(unbounded) != 2 {
		t.Fatalf("expected unbounded append, got %v", unbounded)
	}
}
