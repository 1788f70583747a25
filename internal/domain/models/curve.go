package models

// CurveMonths is the fixed number of months-ahead points on a forward curve.
const CurveMonths = 12

// MinOpenInterest is the lowest open interest a curve point may hold.
const MinOpenInterest = 100

// CurvePoint is one month-ahead contract on a forward curve.
type CurvePoint struct {
	Price        float64 `json:"price"`
	OpenInterest int     `json:"oi"`
}

// ForwardCurve is indexed by months ahead (0..11) and never resized.
type ForwardCurve [CurveMonths]CurvePoint
