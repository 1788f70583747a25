package http

// APIResponse is the envelope of every JSON response. The transport status
// is always 200; Status carries the outcome.
type APIResponse struct {
	Status  int         `json:"status" example:"200"`
	Message string      `json:"message" example:"OK"`
	Data    interface{} `json:"data,omitempty"`
}

// ValidationError describes one rejected request field.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_LTE"`
	Field   string                 `json:"field,omitempty" example:"N"`
	Message string                 `json:"message,omitempty" example:"N must be less than or equal to 200"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
