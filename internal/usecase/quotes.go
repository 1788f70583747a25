package usecase

import (
	"fmt"

	"CommodSim/internal/domain/models"
	domrepo "CommodSim/internal/domain/repository"
	"CommodSim/internal/engine"
	"CommodSim/internal/services/features"
	"CommodSim/pkg/util"
)

func unknownHub(hub string) error {
	return fmt.Errorf("%w: %q", ErrUnknownHub, hub)
}

// Sectors lists every sector with hub visibility.
func (m *MarketSimulator) Sectors() []models.SectorView {
	sectors := m.reg.Sectors()
	out := make([]models.SectorView, 0, len(sectors))
	for _, s := range sectors {
		v := models.SectorView{
			ID:                   s.ID,
			Name:                 s.Name,
			AllowsNegativePrices: s.AllowsNegativePrices,
			BiasEligible:         s.BiasEligible,
			Hubs:                 make([]models.HubView, 0, len(s.Hubs)),
		}
		for _, h := range s.Hubs {
			v.Hubs = append(v.Hubs, models.HubView{Hub: h, Visible: m.vis.Visible(h.Name)})
		}
		out = append(out, v)
	}
	return out
}

// Quotes returns current quotes, optionally limited to one sector.
func (m *MarketSimulator) Quotes(sector models.SectorID) []models.Quote {
	var out []models.Quote
	m.read(func(*engine.Simulation) {
		for _, s := range m.reg.Sectors() {
			if sector != "" && s.ID != sector {
				continue
			}
			for _, h := range s.Hubs {
				out = append(out, m.quote(s, h.Name))
			}
		}
	})
	return out
}

// Quote returns one hub's quote.
func (m *MarketSimulator) Quote(hub string) (models.Quote, error) {
	_, sector, ok := m.reg.Lookup(hub)
	if !ok {
		return models.Quote{}, unknownHub(hub)
	}
	var q models.Quote
	m.read(func(*engine.Simulation) { q = m.quote(sector, hub) })
	return q, nil
}

// History returns up to n most recent prices, oldest first. n <= 0 returns all.
func (m *MarketSimulator) History(hub string, n int) ([]float64, error) {
	if _, _, ok := m.reg.Lookup(hub); !ok {
		return nil, unknownHub(hub)
	}
	var out []float64
	m.read(func(sim *engine.Simulation) { out = sim.History(hub, n) })
	return out, nil
}

// Curve returns the forward curve labelled with contract months.
func (m *MarketSimulator) Curve(hub string) (models.CurveView, error) {
	if _, _, ok := m.reg.Lookup(hub); !ok {
		return models.CurveView{}, unknownHub(hub)
	}
	var (
		curve models.ForwardCurve
		spot  float64
		ok    bool
	)
	m.read(func(sim *engine.Simulation) {
		curve, ok = sim.Curve(hub)
		spot = sim.CurrentPrice(hub)
	})
	if !ok {
		return models.CurveView{}, unknownHub(hub)
	}

	now := m.now()
	view := models.CurveView{Hub: hub, Spot: spot, Points: make([]models.CurvePointView, 0, models.CurveMonths)}
	for i, pt := range curve {
		view.Points = append(view.Points, models.CurvePointView{
			Month:        util.ContractMonth(now, i),
			MonthsAhead:  i,
			Price:        pt.Price,
			OpenInterest: pt.OpenInterest,
		})
	}
	return view, nil
}

// Stats summarizes the hub's history over the chart range closest to window.
func (m *MarketSimulator) Stats(hub string, window int) (models.HubStats, error) {
	if _, _, ok := m.reg.Lookup(hub); !ok {
		return models.HubStats{}, unknownHub(hub)
	}
	w := int(domrepo.NormalizeRange(window))
	var prices []float64
	m.read(func(sim *engine.Simulation) { prices = sim.History(hub, w) })
	return features.Stats(hub, prices, w), nil
}

// SetVisible toggles a hub on the dashboard.
func (m *MarketSimulator) SetVisible(hub string, visible bool) error {
	if _, _, ok := m.reg.Lookup(hub); !ok {
		return unknownHub(hub)
	}
	m.vis.Set(hub, visible)
	return nil
}
