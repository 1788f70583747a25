package models

// QuotesRequest filters quotes by sector.
type QuotesRequest struct {
	Sector string `query:"sector" validate:"omitempty,oneof=ng crude power freight ag metals ngls lng"`
}

type HistoryRequest struct {
	Hub string `param:"hub" validate:"required"`
	N   int    `query:"n" default:"30" validate:"gte=0,lte=200"`
}

type StatsRequest struct {
	Hub    string `param:"hub" validate:"required"`
	Window int    `query:"window" default:"30" validate:"gte=2,lte=200"`
}

type OptionsRequest struct {
	Hub     string `param:"hub" validate:"required"`
	Expiry  int    `query:"expiry" validate:"gte=0,lt=12"`
	Strikes int    `query:"strikes" default:"9" validate:"gte=1,lte=41"`
}

type VisibilityRequest struct {
	Hub     string `param:"hub" validate:"required"`
	Visible *bool  `json:"visible" validate:"required"`
}

// BiasMessage is the payload accepted on the weather bias topic.
type BiasMessage struct {
	Bias map[string]float64 `json:"bias" validate:"required,min=1"`
}
