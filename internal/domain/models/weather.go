package models

import "time"

// City is a weather station whose forecast drives bias for nearby hubs.
type City struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	State     string   `json:"state"`
	Lat       float64  `json:"lat"`
	Lon       float64  `json:"lon"`
	Hubs      []string `json:"hubs"`
	NormalJan float64  `json:"normal_jan"`
	NormalJul float64  `json:"normal_jul"`
	Sector    string   `json:"sector"`
}

// DayForecast holds one forecast day in °F.
type DayForecast struct {
	Date    string  `json:"date"`
	High    float64 `json:"high"`
	Low     float64 `json:"low"`
	Avg     float64 `json:"avg"`
	Normal  float64 `json:"normal"`
	Anomaly float64 `json:"anomaly"`
	HDD     float64 `json:"hdd"`
	CDD     float64 `json:"cdd"`
}

// DegreeDaySummary aggregates the 6-10 and 8-14 day windows.
type DegreeDaySummary struct {
	HDD6to10       float64 `json:"hdd_6_10"`
	CDD6to10       float64 `json:"cdd_6_10"`
	HDD8to14       float64 `json:"hdd_8_14"`
	CDD8to14       float64 `json:"cdd_8_14"`
	NormalHDD6to10 float64 `json:"normal_hdd_6_10"`
	NormalCDD6to10 float64 `json:"normal_cdd_6_10"`
	NormalHDD8to14 float64 `json:"normal_hdd_8_14"`
	NormalCDD8to14 float64 `json:"normal_cdd_8_14"`
	HDD6to10Dev    float64 `json:"hdd_6_10_dev"`
	CDD6to10Dev    float64 `json:"cdd_6_10_dev"`
	HDD8to14Dev    float64 `json:"hdd_8_14_dev"`
	CDD8to14Dev    float64 `json:"cdd_8_14_dev"`
}

type CityForecast struct {
	City
	Days    []DayForecast    `json:"days"`
	Summary DegreeDaySummary `json:"summary"`
}

// Forecast is the full set of city forecasts from one source.
type Forecast struct {
	Source   string         `json:"source"`
	CachedAt time.Time      `json:"cached_at"`
	Cities   []CityForecast `json:"cities"`
}

// BiasReport is the per-hub weather bias handed to the spot engine.
type BiasReport struct {
	IsHeatingSeason bool               `json:"is_heating_season"`
	Source          string             `json:"source"`
	Bias            map[string]float64 `json:"bias"`
	UpdatedAt       time.Time          `json:"updated_at"`
}
