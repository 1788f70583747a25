package engine

import "CommodSim/internal/domain/models"

// CurrentPrice returns the latest price for hub, or 0 when the hub is unknown.
func (s *Simulation) CurrentPrice(hub string) float64 {
	h := s.history[hub]
	if len(h) == 0 {
		return 0
	}
	return h[len(h)-1]
}

// AbsoluteChange is the latest price minus the previous one. Histories with
// fewer than two points report 0.
func (s *Simulation) AbsoluteChange(hub string) float64 {
	h := s.history[hub]
	if len(h) < 2 {
		return 0
	}
	return h[len(h)-1] - h[len(h)-2]
}

// PercentChange is AbsoluteChange relative to the previous price, in percent.
func (s *Simulation) PercentChange(hub string) float64 {
	h := s.history[hub]
	if len(h) < 2 {
		return 0
	}
	prev := h[len(h)-2]
	if prev == 0 {
		return 0
	}
	return (h[len(h)-1] - prev) / prev * 100
}

// FindHub resolves a hub across all sectors.
func (s *Simulation) FindHub(name string) (models.Hub, models.Sector, bool) {
	return s.registry.Lookup(name)
}

// Curve returns the forward curve for hub by value.
func (s *Simulation) Curve(hub string) (models.ForwardCurve, bool) {
	c, ok := s.curves[hub]
	if !ok {
		return models.ForwardCurve{}, false
	}
	return *c, true
}

// History copies the last n points of a hub's history; n <= 0 copies all.
func (s *Simulation) History(hub string, n int) []float64 {
	h := s.history[hub]
	if n <= 0 || n > len(h) {
		n = len(h)
	}
	out := make([]float64, n)
	copy(out, h[len(h)-n:])
	return out
}
