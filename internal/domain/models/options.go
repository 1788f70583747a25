package models

// Greeks are per-contract sensitivities. Theta is per calendar day; vega and
// rho are per one point move.
type Greeks struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Theta float64 `json:"theta"`
	Vega  float64 `json:"vega"`
	Rho   float64 `json:"rho"`
}

type OptionQuote struct {
	Price        float64 `json:"price"`
	Bid          float64 `json:"bid"`
	Ask          float64 `json:"ask"`
	IV           float64 `json:"iv"`
	Volume       int     `json:"volume"`
	OpenInterest int     `json:"oi"`
	ITM          bool    `json:"itm"`
	Greeks       Greeks  `json:"greeks"`
}

// StrikeRow pairs the call and put at one strike.
type StrikeRow struct {
	Strike float64     `json:"strike"`
	ATM    bool        `json:"atm"`
	Call   OptionQuote `json:"call"`
	Put    OptionQuote `json:"put"`
}

type OptionsChain struct {
	Hub          string      `json:"hub"`
	Expiry       int         `json:"expiry"`
	Month        string      `json:"month"`
	Underlying   float64     `json:"underlying"`
	TimeToExpiry float64     `json:"t"`
	Rate         float64     `json:"r"`
	ATMStrike    float64     `json:"atm_strike"`
	Interval     float64     `json:"interval"`
	Rows         []StrikeRow `json:"rows"`
}
