package weather

import (
	"math"

	"CommodSim/internal/domain/models"
)

const (
	degreeDayBase = 65.0
	forecastDays  = 14
)

// DefaultCities maps weather stations to the gas and power hubs they move.
func DefaultCities() []models.City {
	return []models.City{
		{ID: "houston", Name: "Houston", State: "TX", Lat: 29.76, Lon: -95.37,
			Hubs: []string{"Henry Hub", "Waha", "ERCOT Hub", "ERCOT South"}, NormalJan: 53, NormalJul: 95, Sector: "both"},
		{ID: "chicago", Name: "Chicago", State: "IL", Lat: 41.88, Lon: -87.63,
			Hubs: []string{"Chicago", "MISO Illinois"}, NormalJan: 26, NormalJul: 84, Sector: "both"},
		{ID: "new_york", Name: "New York", State: "NY", Lat: 40.71, Lon: -74.01,
			Hubs: []string{"Transco Zone 6", "NYISO Zone J", "Tetco M3"}, NormalJan: 33, NormalJul: 85, Sector: "both"},
		{ID: "boston", Name: "Boston", State: "MA", Lat: 42.36, Lon: -71.06,
			Hubs: []string{"Algonquin", "NEPOOL Mass"}, NormalJan: 29, NormalJul: 82, Sector: "both"},
		{ID: "pittsburgh", Name: "Pittsburgh", State: "PA", Lat: 40.44, Lon: -79.99,
			Hubs: []string{"Dominion South", "PJM West Hub"}, NormalJan: 28, NormalJul: 83, Sector: "both"},
		{ID: "dallas", Name: "Dallas", State: "TX", Lat: 32.78, Lon: -96.80,
			Hubs: []string{"ERCOT North", "ERCOT Hub"}, NormalJan: 47, NormalJul: 96, Sector: "both"},
		{ID: "los_angeles", Name: "Los Angeles", State: "CA", Lat: 34.05, Lon: -118.24,
			Hubs: []string{"SoCal Gas", "CAISO SP15", "CAISO NP15"}, NormalJan: 58, NormalJul: 84, Sector: "both"},
		{ID: "denver", Name: "Denver", State: "CO", Lat: 39.74, Lon: -104.98,
			Hubs: []string{"Opal", "Kern River"}, NormalJan: 32, NormalJul: 88, Sector: "ng"},
	}
}

// NormalTemp is a sinusoid through the January and July normals, peaking in
// mid-July.
func NormalTemp(c models.City, dayOfYear int) float64 {
	mid := (c.NormalJan + c.NormalJul) / 2
	amp := (c.NormalJul - c.NormalJan) / 2
	return mid + amp*math.Sin(2*math.Pi*float64(dayOfYear-105)/365)
}

func hdd(avg float64) float64 { return math.Max(0, degreeDayBase-avg) }

func cdd(avg float64) float64 { return math.Max(0, avg-degreeDayBase) }
