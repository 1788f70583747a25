package features

import (
	"math"

	"CommodSim/internal/domain/models"
)

// PointsPerYear treats each history point as one trading day.
const PointsPerYear = 252

// ComputeLogReturns computes log returns r_t = ln(P_t / P_{t-1}).
// Non-positive prices, possible for power hubs, contribute a zero return.
func ComputeLogReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		prev, cur := prices[i-1], prices[i]
		if prev <= 0 || cur <= 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, math.Log(cur/prev))
	}
	return out
}

// RealizedVolatility computes annualized realized volatility over the last
// window returns.
func RealizedVolatility(logReturns []float64, window int, pointsPerYear float64) float64 {
	if window <= 1 || len(logReturns) < window {
		return 0
	}
	sum, sum2 := 0.0, 0.0
	for _, r := range logReturns[len(logReturns)-window:] {
		sum += r
		sum2 += r * r
	}
	n := float64(window)
	mean := sum / n
	variance := (sum2 - n*mean*mean) / (n - 1)
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance * pointsPerYear)
}

// Stats summarizes the last window prices of a history.
func Stats(hub string, prices []float64, window int) models.HubStats {
	if window <= 0 || window > len(prices) {
		window = len(prices)
	}
	st := models.HubStats{Hub: hub, Window: window}
	if window == 0 {
		return st
	}
	w := prices[len(prices)-window:]

	st.Points = len(w)
	st.Last = w[len(w)-1]
	st.High, st.Low = w[0], w[0]
	sum := 0.0
	for _, p := range w {
		st.High = math.Max(st.High, p)
		st.Low = math.Min(st.Low, p)
		sum += p
	}
	st.Mean = sum / float64(len(w))
	if w[0] != 0 {
		st.ChangePercent = (st.Last - w[0]) / math.Abs(w[0]) * 100
	}
	rets := ComputeLogReturns(w)
	st.RealizedVol = RealizedVolatility(rets, len(rets), PointsPerYear)
	return st
}
