package weather

import (
	"time"

	"CommodSim/internal/domain/models"
	"CommodSim/pkg/util"
)

// biasPerDegreeDay converts a 6-10 day degree-day deviation into a
// fractional drift bias: +10 HDD is roughly +2%.
const biasPerDegreeDay = 0.002

// IsHeatingSeason covers October through April.
func IsHeatingSeason(m time.Month) bool {
	switch m {
	case time.January, time.February, time.March, time.April,
		time.October, time.November, time.December:
		return true
	}
	return false
}

// ComputeBias maps each city's degree-day deviation onto its hubs. A hub
// listed under several cities takes the last city's value.
func ComputeBias(cities []models.CityForecast, month time.Month) map[string]float64 {
	heating := IsHeatingSeason(month)
	out := make(map[string]float64)
	for _, c := range cities {
		dev := c.Summary.CDD6to10Dev
		if heating {
			dev = c.Summary.HDD6to10Dev
		}
		b := util.Round(dev*biasPerDegreeDay, 4)
		for _, hub := range c.Hubs {
			out[hub] = b
		}
	}
	return out
}
