package compensation

import (
	"errors"
	"testing"
	"time"

	"github.com/tienda-next/internal/constants"
)

func TestComputePeriod(t *testing.T) {
	loc := time.FixedZone("VET", -4*3600)
	// 2026-10-18 是星期日
	now := time.Date(2026, 10, 18, 15, 30, 0, 0, loc)

	cases := []struct {
		name       string
		periodType string
		now        time.Time
		start      time.Time
		end        time.Time
		label      string
	}{
		{
			name:       "daily",
			periodType: constants.GoalPeriodDaily,
			now:        now,
			start:      time.Date(2026, 10, 18, 0, 0, 0, 0, loc),
			end:        time.Date(2026, 10, 19, 0, 0, 0, 0, loc),
			label:      "2026-10-18",
		},
		{
			name:       "weekly on sunday",
			periodType: constants.GoalPeriodWeekly,
			now:        now,
			start:      time.Date(2026, 10, 18, 0, 0, 0, 0, loc),
			end:        time.Date(2026, 10, 25, 0, 0, 0, 0, loc),
			label:      "Week of 2026-10-18",
		},
		{
			name:       "weekly on saturday",
			periodType: constants.GoalPeriodWeekly,
			now:        time.Date(2026, 10, 24, 23, 59, 0, 0, loc),
			start:      time.Date(2026, 10, 18, 0, 0, 0, 0, loc),
			end:        time.Date(2026, 10, 25, 0, 0, 0, 0, loc),
			label:      "Week of 2026-10-18",
		},
		{
			name:       "biweekly first half",
			periodType: constants.GoalPeriodBiweekly,
			now:        time.Date(2026, 10, 15, 23, 0, 0, 0, loc),
			start:      time.Date(2026, 10, 1, 0, 0, 0, 0, loc),
			end:        time.Date(2026, 10, 16, 0, 0, 0, 0, loc),
			label:      "2026-10 1H",
		},
		{
			name:       "biweekly second half",
			periodType: constants.GoalPeriodBiweekly,
			now:        now,
			start:      time.Date(2026, 10, 16, 0, 0, 0, 0, loc),
			end:        time.Date(2026, 11, 1, 0, 0, 0, 0, loc),
			label:      "2026-10 2H",
		},
		{
			name:       "monthly",
			periodType: constants.GoalPeriodMonthly,
			now:        now,
			start:      time.Date(2026, 10, 1, 0, 0, 0, 0, loc),
			end:        time.Date(2026, 11, 1, 0, 0, 0, 0, loc),
			label:      "2026-10",
		},
		{
			name:       "quarterly",
			periodType: constants.GoalPeriodQuarterly,
			now:        now,
			start:      time.Date(2026, 10, 1, 0, 0, 0, 0, loc),
			end:        time.Date(2027, 1, 1, 0, 0, 0, 0, loc),
			label:      "2026-Q4",
		},
		{
			name:       "yearly",
			periodType: constants.GoalPeriodYearly,
			now:        now,
			start:      time.Date(2026, 1, 1, 0, 0, 0, 0, loc),
			end:        time.Date(2027, 1, 1, 0, 0, 0, 0, loc),
			label:      "2026",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			period, err := ComputePeriod(tc.periodType, tc.now, CustomWindow{})
			if err != nil {
				t.Fatalf("compute period failed: %v", err)
			}
			if !period.Start.Equal(tc.start) {
				t.Fatalf("expected start %v, got %v", tc.start, period.Start)
			}
			if !period.End.Equal(tc.end) {
				t.Fatalf("expected end %v, got %v", tc.end, period.End)
			}
			if period.Label != tc.label {
				t.Fatalf("expected label %q, got %q", tc.label, period.Label)
			}
			if !period.Contains(tc.now) {
				t.Fatalf("expected period to contain now")
			}
			if period.Contains(period.End) {
				t.Fatalf("expected period end to be exclusive")
			}
		})
	}
}

func TestComputeCustomPeriod(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC)

	period, err := ComputePeriod(constants.GoalPeriodCustom, time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC), CustomWindow{Start: &start, End: &end})
	if err != nil {
		t.Fatalf("compute custom period failed: %v", err)
	}
	if !period.End.Equal(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected date-only end pushed to next midnight, got %v", period.End)
	}
	if period.Label != "2026-01-01 ~ 2026-03-31" {
		t.Fatalf("unexpected label %q", period.Label)
	}
	if !period.Contains(time.Date(2026, 3, 31, 22, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected last day included")
	}

	if _, err := ComputePeriod(constants.GoalPeriodCustom, start, CustomWindow{Start: &start}); !errors.Is(err, ErrCustomPeriodInvalid) {
		t.Fatalf("expected invalid custom period, got %v", err)
	}
}

func TestComputePeriodUnknownType(t *testing.T) {
	if _, err := ComputePeriod("fortnightly", time.Now(), CustomWindow{}); err == nil {
		t.Fatalf("expected error for unknown period type")
	}
}
