package weather

import (
	"math"
	"sync"
	"time"

	"CommodSim/internal/domain/models"
	"CommodSim/pkg/util"
)

// buildCityForecast turns raw highs and lows into a decorated forecast.
// dates may be shorter than highs; missing dates are derived from start.
func buildCityForecast(c models.City, start time.Time, highs, lows []float64, dates []string) models.CityForecast {
	doy := util.DayOfYear(start)
	n := min(forecastDays, len(highs), len(lows))

	days := make([]models.DayForecast, 0, n)
	for d := 0; d < n; d++ {
		high, low := highs[d], lows[d]
		avg := (high + low) / 2
		normal := NormalTemp(c, doy+d)
		date := start.AddDate(0, 0, d).Format("2006-01-02")
		if d < len(dates) && dates[d] != "" {
			date = dates[d]
		}
		days = append(days, models.DayForecast{
			Date:    date,
			High:    util.Round(high, 1),
			Low:     util.Round(low, 1),
			Avg:     util.Round(avg, 1),
			Normal:  util.Round(normal, 1),
			Anomaly: util.Round(avg-normal, 1),
			HDD:     util.Round(hdd(avg), 1),
			CDD:     util.Round(cdd(avg), 1),
		})
	}

	return models.CityForecast{City: c, Days: days, Summary: summarize(c, doy, days)}
}

func window(days []models.DayForecast, from, to int) []models.DayForecast {
	from, to = min(from, len(days)), min(to, len(days))
	return days[from:to]
}

func summarize(c models.City, doy int, days []models.DayForecast) models.DegreeDaySummary {
	sum := func(ds []models.DayForecast, f func(models.DayForecast) float64) float64 {
		var t float64
		for _, d := range ds {
			t += f(d)
		}
		return t
	}
	normal := func(from, to int, f func(float64) float64) float64 {
		var t float64
		for i := from; i < to; i++ {
			t += f(NormalTemp(c, doy+i))
		}
		return t
	}
	dayHDD := func(d models.DayForecast) float64 { return d.HDD }
	dayCDD := func(d models.DayForecast) float64 { return d.CDD }

	h610, c610 := sum(window(days, 5, 10), dayHDD), sum(window(days, 5, 10), dayCDD)
	h814, c814 := sum(window(days, 7, 14), dayHDD), sum(window(days, 7, 14), dayCDD)
	nh610, nc610 := normal(5, 10, hdd), normal(5, 10, cdd)
	nh814, nc814 := normal(7, 14, hdd), normal(7, 14, cdd)

	return models.DegreeDaySummary{
		HDD6to10:       util.Round(h610, 1),
		CDD6to10:       util.Round(c610, 1),
		HDD8to14:       util.Round(h814, 1),
		CDD8to14:       util.Round(c814, 1),
		NormalHDD6to10: util.Round(nh610, 1),
		NormalCDD6to10: util.Round(nc610, 1),
		NormalHDD8to14: util.Round(nh814, 1),
		NormalCDD8to14: util.Round(nc814, 1),
		HDD6to10Dev:    util.Round(h610-nh610, 1),
		CDD6to10Dev:    util.Round(c610-nc610, 1),
		HDD8to14Dev:    util.Round(h814-nh814, 1),
		CDD8to14Dev:    util.Round(c814-nc814, 1),
	}
}

// Gaussian draws standard normal variates.
type Gaussian interface {
	NormFloat64() float64
}

// Synthetic produces plausible forecasts around seasonal normals with a 5°F
// daily anomaly and a |N(5,2)| high/low spread.
type Synthetic struct {
	cities []models.City
	now    func() time.Time

	mu  sync.Mutex // guards rnd; Generate runs from the scheduler and from readers
	rnd Gaussian
}

func NewSynthetic(cities []models.City, rnd Gaussian) *Synthetic {
	return &Synthetic{cities: cities, rnd: rnd, now: time.Now}
}

func (s *Synthetic) Source() string { return SourceSynthetic }

func (s *Synthetic) Generate() []models.CityForecast {
	start := s.now().UTC()
	doy := util.DayOfYear(start)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.CityForecast, 0, len(s.cities))
	for _, c := range s.cities {
		highs := make([]float64, forecastDays)
		lows := make([]float64, forecastDays)
		for d := 0; d < forecastDays; d++ {
			normal := NormalTemp(c, doy+d)
			anomaly := s.rnd.NormFloat64() * 5
			highs[d] = normal + math.Abs(5+s.rnd.NormFloat64()*2) + anomaly
			lows[d] = normal - math.Abs(5+s.rnd.NormFloat64()*2) + anomaly
		}
		out = append(out, buildCityForecast(c, start, highs, lows, nil))
	}
	return out
}
