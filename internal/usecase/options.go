package usecase

import (
	"CommodSim/internal/domain/models"
	"CommodSim/internal/engine"
	"CommodSim/internal/services/options"
	"CommodSim/pkg/util"
)

// OptionsChains prices option chains off the simulator's forward curves.
type OptionsChains struct {
	sim *MarketSimulator
	gen *options.Generator
}

func NewOptionsChains(sim *MarketSimulator, gen *options.Generator) *OptionsChains {
	return &OptionsChains{sim: sim, gen: gen}
}

// Chain builds a chain for the contract expiry months ahead.
func (o *OptionsChains) Chain(hub string, expiry, strikes int) (models.OptionsChain, error) {
	h, _, ok := o.sim.reg.Lookup(hub)
	if !ok {
		return models.OptionsChain{}, unknownHub(hub)
	}

	in := options.Input{
		Hub:     h,
		Expiry:  expiry,
		Strikes: strikes,
		Month:   util.ContractMonth(o.sim.now(), expiry),
	}
	o.sim.read(func(sim *engine.Simulation) {
		in.Spot = sim.CurrentPrice(hub)
		if c, ok := sim.Curve(hub); ok {
			in.Curve = &c
		}
	})
	return o.gen.Build(in), nil
}
