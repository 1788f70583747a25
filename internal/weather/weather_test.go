package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"CommodSim/internal/domain/models"
	"CommodSim/pkg/logger"
)

type zeroGauss struct{}

func (zeroGauss) NormFloat64() float64 { return 0 }

func TestNormalTemp(t *testing.T) {
	c := models.City{NormalJan: 30, NormalJul: 90}
	if got := NormalTemp(c, 105); math.Abs(got-60) > 1e-9 {
		t.Fatalf("expected midpoint at day 105, got %v", got)
	}
	peak := NormalTemp(c, 105+365/4)
	if peak < 89.9 || peak > 90 {
		t.Fatalf("expected peak near July normal, got %v", peak)
	}
}

func TestSyntheticAroundNormals(t *testing.T) {
	s := NewSynthetic(DefaultCities(), zeroGauss{})
	s.now = func() time.Time { return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) }

	out := s.Generate()
	if len(out) != 8 {
		t.Fatalf("expected 8 cities, got %d", len(out))
	}
	for _, c := range out {
		if len(c.Days) != forecastDays {
			t.Fatalf("%s: expected %d days, got %d", c.ID, forecastDays, len(c.Days))
		}
		d := c.Days[0]
		if math.Abs(d.High-d.Low-10) > 0.11 || math.Abs(d.Anomaly) > 0.05 {
			t.Fatalf("%s: unexpected day %+v", c.ID, d)
		}
		if math.Abs(c.Summary.HDD6to10Dev) > 0.3 {
			t.Fatalf("%s: zero anomaly should track normals, dev %v", c.ID, c.Summary.HDD6to10Dev)
		}
	}
	if out[0].Days[1].Date != "2024-01-16" {
		t.Fatalf("unexpected date %s", out[0].Days[1].Date)
	}
}

func TestComputeBias(t *testing.T) {
	cities := []models.CityForecast{
		{City: models.City{Hubs: []string{"Henry Hub", "ERCOT Hub"}}, Summary: models.DegreeDaySummary{HDD6to10Dev: 10, CDD6to10Dev: -4}},
		{City: models.City{Hubs: []string{"ERCOT Hub", "ERCOT North"}}, Summary: models.DegreeDaySummary{HDD6to10Dev: -5, CDD6to10Dev: 7.5}},
	}

	winter := ComputeBias(cities, time.January)
	if winter["Henry Hub"] != 0.02 {
		t.Fatalf("expected +2%% bias, got %v", winter["Henry Hub"])
	}
	if winter["ERCOT Hub"] != -0.01 {
		t.Fatalf("last city should win, got %v", winter["ERCOT Hub"])
	}

	summer := ComputeBias(cities, time.July)
	if summer["Henry Hub"] != -0.008 || summer["ERCOT North"] != 0.015 {
		t.Fatalf("unexpected summer bias %v", summer)
	}
	if !IsHeatingSeason(time.October) || IsHeatingSeason(time.May) {
		t.Fatalf("unexpected heating season")
	}
}

func openMeteoServer(t *testing.T, hits *int32, fail bool) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if fail {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		if r.URL.Query().Get("temperature_unit") != "fahrenheit" {
			t.Errorf("missing unit param: %s", r.URL.RawQuery)
		}
		daily := map[string]interface{}{
			"time":               make([]string, forecastDays),
			"temperature_2m_max": make([]float64, forecastDays),
			"temperature_2m_min": make([]float64, forecastDays),
		}
		for i := 0; i < forecastDays; i++ {
			daily["time"].([]string)[i] = time.Date(2024, 7, 1+i, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
			daily["temperature_2m_max"].([]float64)[i] = 80
			daily["temperature_2m_min"].([]float64)[i] = 70
		}
		resp := make([]map[string]interface{}, len(DefaultCities()))
		for i := range resp {
			resp[i] = map[string]interface{}{"daily": daily}
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestOpenMeteoFetch(t *testing.T) {
	var hits int32
	srv := openMeteoServer(t, &hits, false)
	defer srv.Close()

	o := NewOpenMeteo(srv.URL, DefaultCities(), time.Second, 1)
	out, err := o.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(out) != 8 {
		t.Fatalf("expected 8 cities, got %d", len(out))
	}
	c := out[0]
	if c.Days[0].Avg != 75 || c.Days[0].CDD != 10 || c.Days[0].HDD != 0 {
		t.Fatalf("unexpected day %+v", c.Days[0])
	}
	if c.Summary.CDD6to10 != 50 || c.Summary.CDD8to14 != 70 {
		t.Fatalf("unexpected summary %+v", c.Summary)
	}
	if c.Days[2].Date != "2024-07-03" {
		t.Fatalf("expected api dates, got %s", c.Days[2].Date)
	}
}

func newTestService(live LiveSource, month time.Month) *Service {
	now := func() time.Time { return time.Date(2024, month, 10, 12, 0, 0, 0, time.UTC) }
	syn := NewSynthetic(DefaultCities(), zeroGauss{})
	syn.now = now
	s := NewService(Options{Enabled: true, CacheTTL: time.Hour}, live, syn, nil, logger.Nop())
	s.now = now
	return s
}

func TestServiceCachesAndComputesBias(t *testing.T) {
	var hits int32
	srv := openMeteoServer(t, &hits, false)
	defer srv.Close()

	o := NewOpenMeteo(srv.URL, DefaultCities(), time.Second, 1)
	s := newTestService(o, time.July)

	if err := s.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if _, err := s.Forecast(context.Background()); err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Fatalf("expected cached forecast, got %d requests", hits)
	}

	f, _ := s.Forecast(context.Background())
	if f.Source != SourceOpenMeteo {
		t.Fatalf("unexpected source %s", f.Source)
	}
	want := ComputeBias(f.Cities, time.July)
	got, ok := s.Bias("Henry Hub")
	if !ok || got != want["Henry Hub"] {
		t.Fatalf("bias %v (%v), want %v", got, ok, want["Henry Hub"])
	}
	if _, ok := s.Bias("WTI Cushing"); ok {
		t.Fatalf("hub without a city should have no bias")
	}

	s.Override(map[string]float64{"Henry Hub": 0.05})
	if got, _ := s.Bias("Henry Hub"); got != 0.05 {
		t.Fatalf("override not applied: %v", got)
	}
	r := s.Report()
	if r.IsHeatingSeason || r.Source != SourceOpenMeteo || r.Bias["Henry Hub"] != 0.05 {
		t.Fatalf("unexpected report %+v", r)
	}
}

func TestServiceFallsBackToSynthetic(t *testing.T) {
	var hits int32
	srv := openMeteoServer(t, &hits, true)
	defer srv.Close()

	s := newTestService(NewOpenMeteo(srv.URL, DefaultCities(), time.Second, 1), time.January)
	f, err := s.Forecast(context.Background())
	if err != nil {
		t.Fatalf("forecast: %v", err)
	}
	if f.Source != SourceSynthetic || len(f.Cities) != 8 {
		t.Fatalf("expected synthetic fallback, got %s with %d cities", f.Source, len(f.Cities))
	}
}

func TestServiceDisabled(t *testing.T) {
	s := NewService(Options{}, nil, NewSynthetic(DefaultCities(), zeroGauss{}), nil, logger.Nop())
	s.Override(map[string]float64{"Henry Hub": 0.1})
	if _, ok := s.Bias("Henry Hub"); ok {
		t.Fatalf("disabled service should report no bias")
	}
}

// missCache never holds anything, so every Forecast regenerates.
type missCache struct{}

func (missCache) GetBytes(string) ([]byte, bool, error)        { return nil, false, nil }
func (missCache) SetBytes(string, []byte, time.Duration) error { return nil }

// Run with -race: the scheduler refresh and API readers share one generator.
func TestSyntheticConcurrentForecasts(t *testing.T) {
	syn := NewSynthetic(DefaultCities(), rand.New(rand.NewSource(3)))
	s := NewService(Options{Enabled: true, CacheTTL: time.Hour}, nil, syn, missCache{}, logger.Nop())
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 4*20)
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 20; i++ {
				if (g+i)%2 == 0 {
					errs <- s.Refresh(ctx)
					continue
				}
				f, err := s.Forecast(ctx)
				if err == nil && len(f.Cities) != len(DefaultCities()) {
					err = fmt.Errorf("forecast has %d cities", len(f.Cities))
				}
				errs <- err
			}
		}(g)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent forecast: %v", err)
		}
	}
}
