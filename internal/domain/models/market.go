package models

// SectorID identifies a market sector ("ng", "power", ...).
type SectorID string

const (
	SectorNG      SectorID = "ng"
	SectorCrude   SectorID = "crude"
	SectorPower   SectorID = "power"
	SectorFreight SectorID = "freight"
	SectorAg      SectorID = "ag"
	SectorMetals  SectorID = "metals"
	SectorNGLs    SectorID = "ngls"
	SectorLNG     SectorID = "lng"
)

// Hub is a named price point. Base is the reference price, Vol the
// annualized-style volatility in percent.
type Hub struct {
	Name  string  `yaml:"name" json:"name" validate:"required"`
	Base  float64 `yaml:"base" json:"base" validate:"gt=0"`
	Vol   float64 `yaml:"vol" json:"vol" validate:"gte=0"`
	Unit  string  `yaml:"unit" json:"unit,omitempty"`
	Color string  `yaml:"color" json:"color,omitempty"`
}

// Sector groups hubs that share market behavior rules.
type Sector struct {
	ID   SectorID `yaml:"id" json:"id" validate:"required"`
	Name string   `yaml:"name" json:"name"`
	// AllowsNegativePrices relaxes the price floor to -base*0.5 on ticks.
	AllowsNegativePrices bool `yaml:"allows_negative_prices" json:"allows_negative_prices"`
	// BiasEligible sectors receive the weather bias term in spot drift.
	BiasEligible bool  `yaml:"bias_eligible" json:"bias_eligible"`
	Hubs         []Hub `yaml:"hubs" json:"hubs" validate:"required,min=1,dive"`
}
