package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"CommodSim/internal/domain/models"
	"CommodSim/internal/engine"
	"CommodSim/internal/registry"
	"CommodSim/internal/repository"
	icache "CommodSim/internal/service/cache"
	"CommodSim/internal/services/options"
	"CommodSim/internal/usecase"
	pkgcache "CommodSim/pkg/cache"
	xhttp "CommodSim/pkg/http"
	"CommodSim/pkg/logger"
	"CommodSim/pkg/metrics"
)

type fixture struct {
	e   *echo.Echo
	sim *usecase.MarketSimulator
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	reg, err := registry.New([]models.Sector{
		{ID: models.SectorNG, Name: "Natural Gas", BiasEligible: true, Hubs: []models.Hub{{Name: "Henry Hub", Base: 3, Vol: 10}}},
		{ID: models.SectorPower, Name: "Power", AllowsNegativePrices: true, Hubs: []models.Hub{{Name: "ERCOT Hub", Base: 40, Vol: 50}}},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	rec := metrics.NewWithRegisterer(prometheus.NewRegistry())
	sim := usecase.NewMarketSimulator(usecase.SimulatorConfig{Seed: 3, SeedLength: 20}, reg, usecase.NewVisibilityStore(), nil, rec, logger.Nop())
	sim.Seed()

	mc := pkgcache.NewMemoryCache()
	t.Cleanup(func() { _ = mc.Close() })

	market := NewMarketHandler(logger.Nop(), sim, usecase.NewOptionsChains(sim, options.NewGenerator(engine.NewRand(5))), repository.NewCacheSnapshotStore(mc, time.Minute))
	market.SetCache(icache.NewTTLCache())

	e := echo.New()
	market.RegisterRoutes(e)
	NewWeatherHandler(logger.Nop(), nil).RegisterRoutes(e)
	NewStreamHandler(sim, logger.Nop()).RegisterRoutes(e)
	return fixture{e: e, sim: sim}
}

func (f fixture) do(t *testing.T, method, path, body string) xhttp.APIResponse {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	var resp xhttp.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("%s %s: decode %v (%s)", method, path, err, rec.Body.String())
	}
	return resp
}

func TestQuotesEndpoint(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodGet, "/api/quotes?sector=power", "")
	if resp.Status != http.StatusOK {
		t.Fatalf("status %d", resp.Status)
	}
	rows := resp.Data.([]interface{})
	if len(rows) != 1 || rows[0].(map[string]interface{})["hub"] != "ERCOT Hub" {
		t.Fatalf("unexpected rows %v", rows)
	}

	if resp := f.do(t, http.MethodGet, "/api/quotes?sector=coal", ""); resp.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown sector, got %d", resp.Status)
	}
}

func TestHubEndpoints(t *testing.T) {
	f := newFixture(t)

	if resp := f.do(t, http.MethodGet, "/api/hubs/Henry%20Hub", ""); resp.Status != http.StatusOK {
		t.Fatalf("quote status %d", resp.Status)
	}
	if resp := f.do(t, http.MethodGet, "/api/hubs/Nowhere", ""); resp.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Status)
	}

	resp := f.do(t, http.MethodGet, "/api/hubs/Henry%20Hub/history?n=5", "")
	prices := resp.Data.(map[string]interface{})["prices"].([]interface{})
	if len(prices) != 5 {
		t.Fatalf("expected 5 prices, got %d", len(prices))
	}
	if resp := f.do(t, http.MethodGet, "/api/hubs/Henry%20Hub/history?n=500", ""); resp.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for n=500, got %d", resp.Status)
	}

	resp = f.do(t, http.MethodGet, "/api/hubs/ERCOT%20Hub/curve", "")
	points := resp.Data.(map[string]interface{})["points"].([]interface{})
	if len(points) != models.CurveMonths {
		t.Fatalf("expected %d curve points, got %d", models.CurveMonths, len(points))
	}

	resp = f.do(t, http.MethodGet, "/api/hubs/Henry%20Hub/stats?window=7", "")
	if resp.Data.(map[string]interface{})["window"].(float64) != 7 {
		t.Fatalf("unexpected stats %v", resp.Data)
	}
}

func TestOptionsAreCachedWithinTick(t *testing.T) {
	f := newFixture(t)

	first := f.do(t, http.MethodGet, "/api/hubs/Henry%20Hub/options?expiry=1&strikes=5", "")
	second := f.do(t, http.MethodGet, "/api/hubs/Henry%20Hub/options?expiry=1&strikes=5", "")
	a, _ := json.Marshal(first.Data)
	b, _ := json.Marshal(second.Data)
	if string(a) != string(b) {
		t.Fatalf("chain changed between requests within one tick")
	}
	rows := first.Data.(map[string]interface{})["rows"].([]interface{})
	if len(rows) != 5 {
		t.Fatalf("expected 5 strikes, got %d", len(rows))
	}
	if resp := f.do(t, http.MethodGet, "/api/hubs/Henry%20Hub/options?expiry=12", ""); resp.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 for expiry 12, got %d", resp.Status)
	}
}

func TestVisibilityToggle(t *testing.T) {
	f := newFixture(t)

	resp := f.do(t, http.MethodPut, "/api/hubs/Henry%20Hub/visibility", `{"visible":false}`)
	if resp.Status != http.StatusOK {
		t.Fatalf("status %d", resp.Status)
	}
	q, _ := f.sim.Quote("Henry Hub")
	if q.Visible {
		t.Fatalf("hub should be hidden")
	}
	if resp := f.do(t, http.MethodPut, "/api/hubs/Henry%20Hub/visibility", `{}`); resp.Status != http.StatusBadRequest {
		t.Fatalf("expected 400 without visible, got %d", resp.Status)
	}
}

func TestSnapshotFallsBackToSimulator(t *testing.T) {
	f := newFixture(t)
	resp := f.do(t, http.MethodGet, "/api/snapshot", "")
	if resp.Status != http.StatusOK || resp.Data.(map[string]interface{})["seq"].(float64) != 0 {
		t.Fatalf("unexpected snapshot response %+v", resp)
	}
}

func TestWeatherDisabled(t *testing.T) {
	f := newFixture(t)
	if resp := f.do(t, http.MethodGet, "/api/weather/bias", ""); resp.Status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.Status)
	}
}

func TestStreamDeliversTicks(t *testing.T) {
	f := newFixture(t)
	srv := httptest.NewServer(f.e)
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var msg StreamMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read initial: %v", err)
	}
	if msg.Type != "snapshot" || msg.Data == nil || msg.Data.Seq != 0 {
		t.Fatalf("unexpected initial message %+v", msg)
	}

	f.sim.Tick(context.Background())
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read tick: %v", err)
	}
	if msg.Data == nil || msg.Data.Seq != 1 || len(msg.Data.Quotes) != 2 {
		t.Fatalf("unexpected tick message %+v", msg)
	}
}
