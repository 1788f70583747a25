package repository

// ChartRange is a history window in ticks offered to dashboard charts.
type ChartRange int

const (
	Range7   ChartRange = 7
	Range30  ChartRange = 30
	Range90  ChartRange = 90
	Range180 ChartRange = 180
)

// NormalizeRange snaps n to the nearest supported chart range not below it,
// capped at Range180. Non-positive n maps to the default of 30.
func NormalizeRange(n int) ChartRange {
	switch {
	case n <= 0:
		return Range30
	case n <= 7:
		return Range7
	case n <= 30:
		return Range30
	case n <= 90:
		return Range90
	default:
		return Range180
	}
}
