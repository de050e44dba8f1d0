package features

import (
	"math"
	"time"
)

// fixed federal holidays by (month, day).
var federalHolidaysFixed = map[[2]int]bool{
	{1, 1}:   true, // New Year's Day
	{6, 19}:  true, // Juneteenth
	{7, 4}:   true, // Independence Day
	{11, 11}: true, // Veterans Day
	{12, 25}: true, // Christmas Day
}

// floatingHoliday describes a holiday defined as the Nth weekday of a month.
type floatingHoliday struct {
	month   time.Month
	weekday time.Weekday
	nth     int // 1-based; -1 means "last"
}

var federalHolidaysFloating = []floatingHoliday{
	{time.January, time.Monday, 3},   // MLK Day
	{time.February, time.Monday, 3},  // Presidents Day
	{time.May, time.Monday, -1},      // Memorial Day
	{time.September, time.Monday, 1}, // Labor Day
	{time.October, time.Monday, 2},   // Columbus Day
	{time.November, time.Thursday, 4},// Thanksgiving
}

func nthWeekdayOfMonth(year int, month time.Month, weekday time.Weekday, nth int) int {
	if nth > 0 {
		first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		offset := (int(weekday) - int(first.Weekday()) + 7) % 7
		day := 1 + offset + (nth-1)*7
		return day
	}
	// last weekday-of-month
	firstNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	last := firstNext.AddDate(0, 0, -1)
	offset := (int(last.Weekday()) - int(weekday) + 7) % 7
	return last.Day() - offset
}

func isFederalHoliday(t time.Time) bool {
	key := [2]int{int(t.Month()), t.Day()}
	if federalHolidaysFixed[key] {
		return true
	}
	for _, fh := range federalHolidaysFloating {
		if t.Month() != fh.month {
			continue
		}
		if t.Day() == nthWeekdayOfMonth(t.Year(), fh.month, fh.weekday, fh.nth) {
			return true
		}
	}
	return false
}

// ComputeTemporal returns the 16 temporal features for timestamp t,
// evaluated in t's own timezone (callers pass UTC or local consistently).
func ComputeTemporal(t time.Time) map[string]float64 {
	hour := float64(t.Hour()) + float64(t.Minute())/60.0
	dow := float64(t.Weekday()) // Sun=0..Sat=6, Go-native
	month := float64(t.Month())

	hourAngle := 2 * math.Pi * hour / 24.0
	dowAngle := 2 * math.Pi * dow / 7.0
	monthAngle := 2 * math.Pi * (month - 1) / 12.0

	isWeekend := 0.0
	if t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		isWeekend = 1.0
	}
	isHoliday := 0.0
	if isFederalHoliday(t) {
		isHoliday = 1.0
	}
	isRushHour := 0.0
	if (t.Hour() >= 7 && t.Hour() < 10) || (t.Hour() >= 16 && t.Hour() < 19) {
		isRushHour = 1.0
	}
	isNight := 0.0
	if t.Hour() >= 22 || t.Hour() < 6 {
		isNight = 1.0
	}
	isBusinessHours := 0.0
	if t.Hour() >= 9 && t.Hour() < 17 && isWeekend == 0 {
		isBusinessHours = 1.0
	}

	return map[string]float64{
		"hour_sin":            math.Sin(hourAngle),
		"hour_cos":            math.Cos(hourAngle),
		"dow_sin":             math.Sin(dowAngle),
		"dow_cos":             math.Cos(dowAngle),
		"month_sin":           math.Sin(monthAngle),
		"month_cos":           math.Cos(monthAngle),
		"is_weekend":          isWeekend,
		"is_holiday":          isHoliday,
		"is_rush_hour":        isRushHour,
		"is_night":            isNight,
		"is_business_hours":   isBusinessHours,
		"hour_raw":            hour,
		"dow_raw":             dow,
		"month_raw":           month,
		"day_of_month":        float64(t.Day()),
		"week_of_year":        float64(isoWeek(t)),
	}
}

func isoWeek(t time.Time) int {
	_, week := t.ISOWeek()
	return week
}
