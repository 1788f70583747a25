package models

import "time"

// Quote is the rendered view of one hub after a tick.
type Quote struct {
	Hub           string   `json:"hub"`
	Sector        SectorID `json:"sector"`
	Price         float64  `json:"price"`
	Change        float64  `json:"change"`
	ChangePercent float64  `json:"change_pct"`
	Visible       bool     `json:"visible"`
}

// CurveView is a forward curve with contract month labels.
type CurveView struct {
	Hub    string           `json:"hub"`
	Spot   float64          `json:"spot"`
	Points []CurvePointView `json:"points"`
}

// CurvePointView decorates a CurvePoint with its contract month.
type CurvePointView struct {
	Month        string  `json:"month"`
	MonthsAhead  int     `json:"months_ahead"`
	Price        float64 `json:"price"`
	OpenInterest int     `json:"oi"`
}

// Snapshot is the state published after every tick.
type Snapshot struct {
	Seq       uint64             `json:"seq"`
	Timestamp time.Time          `json:"ts"`
	Quotes    []Quote            `json:"quotes"`
	Fronts    map[string]float64 `json:"fronts"`
}

// HubStats summarizes a window of price history.
type HubStats struct {
	Hub           string  `json:"hub"`
	Window        int     `json:"window"`
	Points        int     `json:"points"`
	Last          float64 `json:"last"`
	High          float64 `json:"high"`
	Low           float64 `json:"low"`
	Mean          float64 `json:"mean"`
	RealizedVol   float64 `json:"realized_vol"`
	ChangePercent float64 `json:"change_pct"`
}

// SectorView lists a sector's hubs with their current display state.
type SectorView struct {
	ID                   SectorID  `json:"id"`
	Name                 string    `json:"name"`
	AllowsNegativePrices bool      `json:"allows_negative_prices"`
	BiasEligible         bool      `json:"bias_eligible"`
	Hubs                 []HubView `json:"hubs"`
}

type HubView struct {
	Hub
	Visible bool `json:"visible"`
}
