package registry

import "CommodSim/internal/domain/models"

func h(name string, base, vol float64, color, unit string) models.Hub {
	return models.Hub{Name: name, Base: base, Vol: vol, Color: color, Unit: unit}
}

// DefaultSectors is the built-in market universe.
func DefaultSectors() []models.Sector {
	return []models.Sector{
		{
			ID: models.SectorNG, Name: "Natural Gas", BiasEligible: true,
			Hubs: []models.Hub{
				h("Henry Hub", 2.75, 4.5, "#22d3ee", "$/MMBtu"),
				h("Waha", 2.40, 6.0, "#f59e0b", "$/MMBtu"),
				h("SoCal Gas", 2.90, 5.5, "#a78bfa", "$/MMBtu"),
				h("Chicago", 2.70, 4.0, "#10b981", "$/MMBtu"),
				h("Algonquin", 3.55, 12.0, "#ef4444", "$/MMBtu"),
				h("Transco Zone 6", 3.35, 10.0, "#ec4899", "$/MMBtu"),
				h("Dominion South", 2.30, 5.0, "#84cc16", "$/MMBtu"),
				h("Dawn", 2.85, 4.5, "#06b6d4", "$/MMBtu"),
				h("Sumas", 2.95, 6.0, "#f97316", "$/MMBtu"),
				h("Malin", 2.93, 5.5, "#8b5cf6", "$/MMBtu"),
				h("Opal", 2.67, 5.0, "#14b8a6", "$/MMBtu"),
				h("Tetco M3", 3.30, 9.0, "#e11d48", "$/MMBtu"),
				h("Kern River", 2.80, 5.0, "#0ea5e9", "$/MMBtu"),
				h("AECO", 1.95, 7.0, "#d946ef", "CAD/GJ"),
			},
		},
		{
			ID: models.SectorCrude, Name: "Crude Oil",
			Hubs: []models.Hub{
				h("WTI Cushing", 79.50, 1.8, "#22d3ee", "$/bbl"),
				h("Brent Dated", 82.70, 1.6, "#f59e0b", "$/bbl"),
				h("WTI Midland", 79.90, 2.0, "#a78bfa", "$/bbl"),
				h("Mars Sour", 77.70, 2.2, "#10b981", "$/bbl"),
				h("LLS", 80.70, 1.9, "#ec4899", "$/bbl"),
				h("ANS", 80.40, 2.0, "#ef4444", "$/bbl"),
				h("Bakken", 78.90, 2.1, "#84cc16", "$/bbl"),
				h("WCS", 65.00, 3.0, "#f97316", "$/bbl"),
			},
		},
		{
			ID: models.SectorPower, Name: "Power", AllowsNegativePrices: true, BiasEligible: true,
			Hubs: []models.Hub{
				h("ERCOT Hub", 42.50, 8.0, "#22d3ee", "$/MWh"),
				h("ERCOT North", 40.80, 7.5, "#06b6d4", "$/MWh"),
				h("ERCOT South", 44.10, 9.0, "#0ea5e9", "$/MWh"),
				h("PJM West Hub", 38.20, 6.0, "#a78bfa", "$/MWh"),
				h("NEPOOL Mass", 51.30, 10.0, "#ef4444", "$/MWh"),
				h("MISO Illinois", 34.70, 5.5, "#10b981", "$/MWh"),
				h("CAISO NP15", 48.60, 9.5, "#f59e0b", "$/MWh"),
				h("CAISO SP15", 47.20, 9.0, "#f97316", "$/MWh"),
				h("NYISO Zone J", 55.40, 11.0, "#ec4899", "$/MWh"),
				h("NYISO Zone A", 36.80, 7.0, "#8b5cf6", "$/MWh"),
				h("SPP North", 33.90, 6.5, "#84cc16", "$/MWh"),
			},
		},
		{
			ID: models.SectorFreight, Name: "Freight",
			Hubs: []models.Hub{
				h("Baltic Dry Index", 1650, 5.0, "#22d3ee", "pts"),
				h("Baltic Capesize", 2200, 7.0, "#f59e0b", "pts"),
				h("Baltic Panamax", 1450, 5.5, "#a78bfa", "pts"),
				h("Baltic Supramax", 1280, 5.0, "#10b981", "pts"),
				h("TD3C VLCC AG-East", 45.50, 8.0, "#ef4444", "WS"),
				h("TC2 Transatlantic", 18.20, 9.0, "#ec4899", "WS"),
				h("TD20 Suezmax WAF", 32.80, 7.5, "#84cc16", "WS"),
				h("LNG Spot East", 12.40, 6.0, "#f97316", "$k/day"),
			},
		},
		{
			ID: models.SectorAg, Name: "Agriculture",
			Hubs: []models.Hub{
				h("Corn (CBOT)", 4.52, 3.5, "#f59e0b", "bu"),
				h("Soybeans (CBOT)", 11.85, 2.8, "#10b981", "bu"),
				h("Wheat (CBOT)", 5.78, 4.0, "#ef4444", "bu"),
				h("Soybean Oil (CBOT)", 0.445, 3.2, "#a78bfa", "lb"),
				h("Soybean Meal (CBOT)", 330.50, 2.5, "#84cc16", "ton"),
				h("Cotton (ICE)", 0.775, 3.5, "#ec4899", "lb"),
				h("Sugar #11 (ICE)", 0.198, 4.5, "#22d3ee", "lb"),
				h("Coffee C (ICE)", 1.88, 5.0, "#f97316", "lb"),
				h("Cocoa (ICE)", 8450, 3.0, "#8b5cf6", "MT"),
				h("Live Cattle (CME)", 1.875, 2.0, "#06b6d4", "lb"),
				h("Lean Hogs (CME)", 0.895, 4.0, "#e11d48", "lb"),
				h("Feeder Cattle (CME)", 2.56, 2.2, "#14b8a6", "lb"),
			},
		},
		{
			ID: models.SectorMetals, Name: "Metals",
			Hubs: []models.Hub{
				h("Gold (COMEX)", 2340.50, 1.2, "#f59e0b", "oz"),
				h("Silver (COMEX)", 29.45, 3.0, "#94a3b8", "oz"),
				h("Copper (COMEX)", 4.42, 2.5, "#ef4444", "lb"),
				h("Platinum (NYMEX)", 985.00, 2.0, "#a78bfa", "oz"),
				h("Palladium (NYMEX)", 1020.00, 3.5, "#22d3ee", "oz"),
				h("Aluminum (LME)", 2480.00, 2.0, "#84cc16", "MT"),
				h("Nickel (LME)", 17250.00, 3.0, "#10b981", "MT"),
				h("Zinc (LME)", 2720.00, 2.5, "#06b6d4", "MT"),
				h("Iron Ore (SGX)", 108.50, 3.5, "#f97316", "MT"),
				h("Steel HRC (CME)", 780.00, 2.8, "#ec4899", "ton"),
			},
		},
		{
			ID: models.SectorNGLs, Name: "NGLs",
			Hubs: []models.Hub{
				h("Ethane (C2)", 22.5, 6.0, "#3b82f6", "¢/gal"),
				h("Propane (C3)", 72.0, 5.0, "#f97316", "¢/gal"),
				h("Normal Butane (nC4)", 105.0, 4.5, "#ef4444", "¢/gal"),
				h("Isobutane (iC4)", 112.0, 4.5, "#a855f7", "¢/gal"),
				h("Nat Gasoline (C5+)", 155.0, 3.5, "#10b981", "¢/gal"),
			},
		},
		{
			ID: models.SectorLNG, Name: "LNG",
			Hubs: []models.Hub{
				h("JKM (Platts)", 12.80, 8.0, "#ef4444", "$/MMBtu"),
				h("TTF (ICE)", 10.50, 7.0, "#3b82f6", "$/MMBtu"),
				h("NBP (ICE)", 10.20, 7.5, "#8b5cf6", "$/MMBtu"),
				h("HH Netback", 8.90, 5.0, "#22d3ee", "$/MMBtu"),
				h("DES South America", 11.40, 6.5, "#10b981", "$/MMBtu"),
				h("Brent-Linked LNG", 13.20, 4.0, "#f59e0b", "$/MMBtu"),
			},
		},
	}
}
