package util

import "time"

// ContractMonthLayout renders contract months the way quote boards do ("Mar 25").
const ContractMonthLayout = "Jan 06"

// ContractMonth returns the label of the contract monthsAhead months after
// now. Month zero is the prompt month following now.
func ContractMonth(now time.Time, monthsAhead int) string {
	return ContractMonthTime(now, monthsAhead).Format(ContractMonthLayout)
}

// ContractMonthTime is the first day of the contract month.
func ContractMonthTime(now time.Time, monthsAhead int) time.Time {
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return first.AddDate(0, monthsAhead+1, 0)
}

// DayOfYear is time.YearDay that never exceeds 365, so leap years reuse the
// last normal-year day.
func DayOfYear(t time.Time) int {
	d := t.YearDay()
	if d > 365 {
		return 365
	}
	return d
}
