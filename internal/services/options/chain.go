package options

import (
	"math"
	"sync"

	"CommodSim/internal/domain/models"
)

const (
	RiskFreeRate       = 0.045
	DefaultStrikes     = 9
	defaultFutureOI    = 10000
	volScale           = 2.5
	smileQuadratic     = 0.15
	smileLinear        = 0.05
	ivNoiseRange       = 0.2
	baseSpread         = 0.02
	spreadPerMoneyness = 0.05
)

// Rand supplies uniform draws in [0, 1).
type Rand interface {
	Float64() float64
}

// Generator builds option chains off forward-curve points. IV, volume and
// open interest carry noise from rnd, so the generator serializes draws.
type Generator struct {
	mu  sync.Mutex
	rnd Rand
}

func NewGenerator(rnd Rand) *Generator {
	return &Generator{rnd: rnd}
}

// Input is what a chain is priced from.
type Input struct {
	Hub     models.Hub
	Spot    float64
	Curve   *models.ForwardCurve
	Expiry  int
	Strikes int
	Month   string
}

func round4(v float64) float64 { return math.Round(v*1e4) / 1e4 }

// Build prices a chain of Strikes strikes centred on the at-the-money strike.
// Without a curve point the spot price and a default open interest stand in.
func (g *Generator) Build(in Input) models.OptionsChain {
	fut, futOI := in.Spot, float64(defaultFutureOI)
	if in.Curve != nil && in.Expiry >= 0 && in.Expiry < models.CurveMonths {
		pt := in.Curve[in.Expiry]
		fut, futOI = pt.Price, float64(pt.OpenInterest)
	}
	n := in.Strikes
	if n <= 0 {
		n = DefaultStrikes
	}

	t := float64(in.Expiry+1) / 12
	baseVol := in.Hub.Vol / 100 * volScale
	interval := StrikeInterval(fut)
	atm := math.Round(fut/interval) * interval

	chain := models.OptionsChain{
		Hub:          in.Hub.Name,
		Expiry:       in.Expiry,
		Month:        in.Month,
		Underlying:   fut,
		TimeToExpiry: t,
		Rate:         RiskFreeRate,
		ATMStrike:    atm,
		Interval:     interval,
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	half := n / 2
	for i := -half; i <= half; i++ {
		k := round4(atm + float64(i)*interval)
		if k <= 0 || fut <= 0 {
			continue
		}
		m := math.Log(k / fut)
		skew := 1 + smileQuadratic*m*m + smileLinear*m
		iv := baseVol * skew * (0.9 + g.rnd.Float64()*ivNoiseRange)

		spread := baseSpread + math.Abs(m)*spreadPerMoneyness
		atmFactor := math.Exp(-3 * m * m)

		call := g.quote(fut, k, t, iv, spread, Call)
		put := g.quote(fut, k, t, iv, spread, Put)
		call.Volume = int(math.Floor(50 + atmFactor*2000*g.rnd.Float64()))
		put.Volume = int(math.Floor(40 + atmFactor*1800*g.rnd.Float64()))
		call.OpenInterest = int(math.Floor(500 + atmFactor*futOI*0.3*(0.5+g.rnd.Float64())))
		put.OpenInterest = int(math.Floor(400 + atmFactor*futOI*0.25*(0.5+g.rnd.Float64())))
		call.ITM = k < fut
		put.ITM = k > fut

		chain.Rows = append(chain.Rows, models.StrikeRow{
			Strike: k,
			ATM:    math.Abs(k-atm) < interval*0.01,
			Call:   call,
			Put:    put,
		})
	}
	return chain
}

func (g *Generator) quote(fut, k, t, iv, spread float64, kind Kind) models.OptionQuote {
	p := Price(fut, k, t, RiskFreeRate, iv, kind)
	delta, gamma, theta, vega, rho := Greeks(fut, k, t, RiskFreeRate, iv, kind)
	return models.OptionQuote{
		Price:  p,
		Bid:    math.Max(0, p*(1-spread)),
		Ask:    p * (1 + spread),
		IV:     iv,
		Greeks: models.Greeks{Delta: delta, Gamma: gamma, Theta: theta, Vega: vega, Rho: rho},
	}
}
