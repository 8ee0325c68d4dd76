package compensation

import (
	"errors"
	"fmt"
	"time"

	"github.com/tienda-next/internal/constants"
)

// ErrCustomPeriodInvalid 自定义周期缺失或结束不晚于开始
var ErrCustomPeriodInvalid = errors.New("custom period requires start before end")

// Period 目标周期 [Start, End)
type Period struct {
	Start time.Time
	End   time.Time
	Label string
}

// Contains 判断时间点是否在周期内
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// CustomWindow 自定义周期
type CustomWindow struct {
	Start *time.Time
	End   *time.Time
}

// ComputePeriod 按周期类型计算 now 所在的周期，边界使用 now 的时区
func ComputePeriod(periodType string, now time.Time, custom CustomWindow) (Period, error) {
	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)

	switch periodType {
	case constants.GoalPeriodDaily:
		return Period{
			Start: today,
			End:   today.AddDate(0, 0, 1),
			Label: today.Format("2006-01-02"),
		}, nil
	case constants.GoalPeriodWeekly:
		start := today.AddDate(0, 0, -int(today.Weekday()))
		return Period{
			Start: start,
			End:   start.AddDate(0, 0, 7),
			Label: "Week of " + start.Format("2006-01-02"),
		}, nil
	case constants.GoalPeriodBiweekly:
		monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		mid := monthStart.AddDate(0, 0, 15)
		if now.Day() <= 15 {
			return Period{Start: monthStart, End: mid, Label: monthStart.Format("2006-01") + " 1H"}, nil
		}
		return Period{Start: mid, End: monthStart.AddDate(0, 1, 0), Label: monthStart.Format("2006-01") + " 2H"}, nil
	case constants.GoalPeriodMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, loc)
		return Period{Start: start, End: start.AddDate(0, 1, 0), Label: start.Format("2006-01")}, nil
	case constants.GoalPeriodQuarterly:
		quarter := (int(now.Month()) - 1) / 3
		start := time.Date(now.Year(), time.Month(quarter*3+1), 1, 0, 0, 0, 0, loc)
		return Period{
			Start: start,
			End:   start.AddDate(0, 3, 0),
			Label: fmt.Sprintf("%d-Q%d", now.Year(), quarter+1),
		}, nil
	case constants.GoalPeriodYearly:
		start := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, loc)
		return Period{Start: start, End: start.AddDate(1, 0, 0), Label: fmt.Sprintf("%d", now.Year())}, nil
	case constants.GoalPeriodCustom:
		return customPeriod(custom, loc)
	default:
		return Period{}, fmt.Errorf("unknown period type %q", periodType)
	}
}

// customPeriod 自定义周期；只有日期部分的结束时间视为当天结束，即推到次日零点
func customPeriod(custom CustomWindow, loc *time.Location) (Period, error) {
	if custom.Start == nil || custom.End == nil {
		return Period{}, ErrCustomPeriodInvalid
	}
	start := custom.Start.In(loc)
	end := custom.End.In(loc)
	if end.Hour() == 0 && end.Minute() == 0 && end.Second() == 0 && end.Nanosecond() == 0 {
		end = end.AddDate(0, 0, 1)
	}
	if !end.After(start) {
		return Period{}, ErrCustomPeriodInvalid
	}
	lastDay := end.Add(-time.Nanosecond)
	return Period{
		Start: start,
		End:   end,
		Label: start.Format("2006-01-02") + " ~ " + lastDay.Format("2006-01-02"),
	}, nil
}

// IsRecurring 是否为周期性目标（自定义周期只有一个窗口）
func IsRecurring(periodType string) bool {
	return periodType != constants.GoalPeriodCustom
}
