package engine

import "CommodSim/internal/domain/models"

const (
	spotVolDivisor = 15.0
	spotFloorRatio = 0.4
	negFloorRatio  = -0.5
	biasMinScale   = 0.3
	biasScaleRange = 0.4
)

func spotStep(hub models.Hub) float64 {
	return hub.Base * hub.Vol / 100 / spotVolDivisor
}

// spotFloor is the per-tick lower bound. Seeding always uses the non-negative
// floor regardless of sector.
func spotFloor(hub models.Hub, sector models.Sector) float64 {
	if sector.AllowsNegativePrices {
		return hub.Base * negFloorRatio
	}
	return hub.Base * spotFloorRatio
}

func (s *Simulation) seedHistory(hub models.Hub) []float64 {
	floor := hub.Base * spotFloorRatio
	step := spotStep(hub)

	h := make([]float64, 1, s.historyCap+1)
	h[0] = hub.Base
	for i := 1; i < s.seedLength; i++ {
		p := h[i-1] + centered(s.rnd)*step
		if p < floor {
			p = floor
		}
		h = append(h, p)
	}
	return h
}

func (s *Simulation) tickSpot() int {
	n := 0
	for _, sector := range s.registry.Sectors() {
		for _, hub := range sector.Hubs {
			hist, ok := s.history[hub.Name]
			if !ok || len(hist) == 0 {
				// hub appeared after seeding
				continue
			}
			last := hist[len(hist)-1]
			drift := centered(s.rnd) * spotStep(hub)
			if sector.BiasEligible && s.bias != nil {
				if b, ok := s.bias.Bias(hub.Name); ok && b != 0 {
					drift += last * b * (biasMinScale + s.rnd.Float64()*biasScaleRange)
				}
			}

			next := last + drift
			if floor := spotFloor(hub, sector); next < floor {
				next = floor
			}
			hist = append(hist, next)
			if len(hist) > s.historyCap {
				// shift in place so the backing array does not grow forever
				copy(hist, hist[1:])
				hist = hist[:len(hist)-1]
			}
			s.history[hub.Name] = hist
			n++
		}
	}
	return n
}
