package options

import "math"

// Abramowitz and Stegun 7.1.26 coefficients.
const (
	asA1 = 0.254829592
	asA2 = -0.284496736
	asA3 = 1.421413741
	asA4 = -1.453152027
	asA5 = 1.061405429
	asP  = 0.3275911
)

const minGreeksT = 0.001

type Kind int

const (
	Call Kind = iota
	Put
)

// NormCDF approximates the standard normal CDF to about 1e-7.
func NormCDF(x float64) float64 {
	sign := 1.0
	if x < 0 {
		sign = -1
	}
	x = math.Abs(x) / math.Sqrt2
	t := 1 / (1 + asP*x)
	y := 1 - (((((asA5*t+asA4)*t)+asA3)*t+asA2)*t+asA1)*t*math.Exp(-x*x)
	return 0.5 * (1 + sign*y)
}

func NormPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}

func d1d2(s, k, t, r, sigma float64) (float64, float64) {
	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (r+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	return d1, d1 - sigma*sqrtT
}

// Price is the Black-Scholes value. At or past expiry it is intrinsic value.
func Price(s, k, t, r, sigma float64, kind Kind) float64 {
	if t <= 0 {
		if kind == Call {
			return math.Max(s-k, 0)
		}
		return math.Max(k-s, 0)
	}
	d1, d2 := d1d2(s, k, t, r, sigma)
	disc := k * math.Exp(-r*t)
	if kind == Call {
		return s*NormCDF(d1) - disc*NormCDF(d2)
	}
	return disc*NormCDF(-d2) - s*NormCDF(-d1)
}

// Greeks computes sensitivities with t floored at 0.001 years.
func Greeks(s, k, t, r, sigma float64, kind Kind) (delta, gamma, theta, vega, rho float64) {
	t = math.Max(t, minGreeksT)
	sqrtT := math.Sqrt(t)
	d1, d2 := d1d2(s, k, t, r, sigma)
	nd1 := NormPDF(d1)
	disc := k * math.Exp(-r*t)

	if kind == Call {
		delta = NormCDF(d1)
		theta = (-s*nd1*sigma/(2*sqrtT) - r*disc*NormCDF(d2)) / 365
		rho = disc * t * NormCDF(d2) / 100
	} else {
		delta = NormCDF(d1) - 1
		theta = (-s*nd1*sigma/(2*sqrtT) + r*disc*NormCDF(-d2)) / 365
		rho = -disc * t * NormCDF(-d2) / 100
	}
	gamma = nd1 / (s * sigma * sqrtT)
	vega = s * nd1 * sqrtT / 100
	return delta, gamma, theta, vega, rho
}

// StrikeInterval picks a strike ladder step that suits the price level.
func StrikeInterval(price float64) float64 {
	switch {
	case price < 5:
		return 0.25
	case price < 20:
		return 0.5
	case price < 50:
		return 1
	case price < 100:
		return 2.5
	case price < 500:
		return 5
	default:
		return 10
	}
}
