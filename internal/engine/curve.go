package engine

import (
	"math"

	"CommodSim/internal/domain/models"
)

const (
	seasonalAmplitude = 0.03
	contangoPerMonth  = 0.002
	seedNoiseRatio    = 0.01
	seedOIBase        = 5000
	seedOIRange       = 50000
	curveVolDivisor   = 50.0
	curveFloorRatio   = 0.3
	oiStepRange       = 200
)

// curveTerms returns the seasonal sine term and the contango slope for month m.
func curveTerms(base float64, m int) (seasonal, contango float64) {
	seasonal = math.Sin(float64(m+1)/models.CurveMonths*2*math.Pi) * (base * seasonalAmplitude)
	contango = float64(m) * (base * contangoPerMonth)
	return seasonal, contango
}

// CurveShape is the deterministic offset of a seeded curve point from spot.
func CurveShape(base float64, m int) float64 {
	seasonal, contango := curveTerms(base, m)
	return seasonal + contango
}

func curveFloor(hub models.Hub, sector models.Sector) float64 {
	if sector.AllowsNegativePrices {
		return hub.Base * negFloorRatio
	}
	return hub.Base * curveFloorRatio
}

func (s *Simulation) seedCurves() {
	for _, sector := range s.registry.Sectors() {
		for _, hub := range sector.Hubs {
			hist := s.history[hub.Name]
			spot := hist[len(hist)-1]

			var c models.ForwardCurve
			for m := range c {
				seasonal, contango := curveTerms(hub.Base, m)
				c[m].Price = spot + seasonal + contango + (s.rnd.Float64()-0.5)*hub.Base*seedNoiseRatio
				c[m].OpenInterest = int(math.Floor(seedOIBase + s.rnd.Float64()*seedOIRange))
			}
			s.curves[hub.Name] = &c
			s.curveOrder = append(s.curveOrder, hub.Name)
		}
	}
}

// tickCurves moves every point independently. Curves whose hub no longer
// resolves are left untouched.
func (s *Simulation) tickCurves() (ticked, skipped int) {
	for _, name := range s.curveOrder {
		hub, sector, ok := s.registry.Lookup(name)
		if !ok {
			skipped++
			continue
		}
		c := s.curves[name]
		floor := curveFloor(hub, sector)
		step := hub.Base * hub.Vol / 100 / curveVolDivisor

		for m := range c {
			pt := &c[m]
			pt.Price += centered(s.rnd) * step
			if pt.Price < floor {
				pt.Price = floor
			}
			pt.OpenInterest += int(math.Floor((s.rnd.Float64() - 0.5) * oiStepRange))
			if pt.OpenInterest < models.MinOpenInterest {
				pt.OpenInterest = models.MinOpenInterest
			}
		}
		ticked++
	}
	return ticked, skipped
}
