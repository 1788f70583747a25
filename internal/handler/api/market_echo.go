package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/labstack/echo/v4"

	"CommodSim/internal/domain/models"
	domrepo "CommodSim/internal/domain/repository"
	"CommodSim/internal/repository"
	icache "CommodSim/internal/service/cache"
	"CommodSim/internal/service/metrics"
	"CommodSim/internal/service/ratelimit"
	"CommodSim/internal/usecase"
	xhttp "CommodSim/pkg/http"
	applogger "CommodSim/pkg/logger"
)

const (
	rateCapacity = 20
	rateRefill   = 10
	chainTTL     = 30 * time.Second
)

// MarketHandler serves quotes, curves, stats and option chains.
type MarketHandler struct {
	log    *applogger.Logger
	sim    *usecase.MarketSimulator
	chains *usecase.OptionsChains
	store  domrepo.SnapshotStore
	cache  icache.BytesCache
	rl     *ratelimit.Limiter
}

func NewMarketHandler(log *applogger.Logger, sim *usecase.MarketSimulator, chains *usecase.OptionsChains, store domrepo.SnapshotStore) *MarketHandler {
	metrics.Register()
	return &MarketHandler{log: log.Named("market-api"), sim: sim, chains: chains, store: store, rl: ratelimit.New()}
}

// SetCache enables short-lived caching of option chains.
func (h *MarketHandler) SetCache(c icache.BytesCache) { h.cache = c }

func (h *MarketHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/health", h.Health)
	g.GET("/sectors", h.observe("sectors", h.Sectors))
	g.GET("/quotes", h.observe("quotes", h.Quotes))
	g.GET("/snapshot", h.observe("snapshot", h.Snapshot))

	hubs := g.Group("/hubs/:hub")
	hubs.GET("", h.observe("quote", h.Quote))
	hubs.GET("/history", h.observe("history", h.History))
	hubs.GET("/curve", h.observe("curve", h.Curve))
	hubs.GET("/stats", h.observe("stats", h.Stats))
	hubs.GET("/options", h.observe("options", h.Options))
	hubs.PUT("/visibility", h.observe("visibility", h.Visibility))
}

// observe records latency and applies the per-client limiter.
func (h *MarketHandler) observe(endpoint string, next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		defer func() { metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

		if !h.rl.Allow(c.RealIP()+":"+endpoint, rateCapacity, rateRefill) {
			metrics.RateLimited.WithLabelValues(endpoint).Inc()
			h.log.Warn("rate limited", applogger.String("endpoint", endpoint), applogger.String("remote", c.RealIP()))
			return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("rate limited"))
		}
		return next(c)
	}
}

// fail maps usecase errors onto API errors.
func (h *MarketHandler) fail(c echo.Context, endpoint, hub string, err error) error {
	if errors.Is(err, usecase.ErrUnknownHub) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("hub %q not found", hub))
	}
	metrics.APIErrors.WithLabelValues(endpoint).Inc()
	h.log.Error("market api error", applogger.String("endpoint", endpoint), applogger.String("hub", hub), applogger.Error(err))
	return xhttp.AppErrorResponse(c, err)
}

// hubName accepts both raw and percent-encoded hub names ("Henry%20Hub").
func hubName(raw string) string {
	if s, err := url.PathUnescape(raw); err == nil {
		return s
	}
	return raw
}

func (h *MarketHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"status": "ok",
		"seq":    h.sim.Seq(),
		"hubs":   len(h.sim.Registry().HubNames()),
	})
}

func (h *MarketHandler) Sectors(c echo.Context) error {
	return xhttp.SuccessResponse(c, h.sim.Sectors())
}

func (h *MarketHandler) Quotes(c echo.Context) error {
	req := &models.QuotesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	return xhttp.SuccessResponse(c, h.sim.Quotes(models.SectorID(req.Sector)))
}

func (h *MarketHandler) Quote(c echo.Context) error {
	hub := hubName(c.Param("hub"))
	q, err := h.sim.Quote(hub)
	if err != nil {
		return h.fail(c, "quote", hub, err)
	}
	return xhttp.SuccessResponse(c, q)
}

func (h *MarketHandler) History(c echo.Context) error {
	req := &models.HistoryRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	hub := hubName(req.Hub)
	prices, err := h.sim.History(hub, req.N)
	if err != nil {
		return h.fail(c, "history", hub, err)
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"hub": hub, "prices": prices})
}

func (h *MarketHandler) Curve(c echo.Context) error {
	hub := hubName(c.Param("hub"))
	cv, err := h.sim.Curve(hub)
	if err != nil {
		return h.fail(c, "curve", hub, err)
	}
	return xhttp.SuccessResponse(c, cv)
}

func (h *MarketHandler) Stats(c echo.Context) error {
	req := &models.StatsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	hub := hubName(req.Hub)
	st, err := h.sim.Stats(hub, req.Window)
	if err != nil {
		return h.fail(c, "stats", hub, err)
	}
	return xhttp.SuccessResponse(c, st)
}

// Options prices a chain. Chains are cached per tick so noise stays stable
// between refreshes.
func (h *MarketHandler) Options(c echo.Context) error {
	req := &models.OptionsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	hub := hubName(req.Hub)
	key := fmt.Sprintf("options:%s:%d:%d:%d", hub, req.Expiry, req.Strikes, h.sim.Seq())

	if h.cache != nil {
		if b, ok, err := h.cache.GetBytes(key); err != nil {
			h.log.Warn("options cache get failed", applogger.Error(err))
		} else if ok {
			var chain models.OptionsChain
			if err := json.Unmarshal(b, &chain); err == nil {
				return xhttp.SuccessResponse(c, chain)
			}
		}
	}

	chain, err := h.chains.Chain(hub, req.Expiry, req.Strikes)
	if err != nil {
		return h.fail(c, "options", hub, err)
	}
	if h.cache != nil {
		if b, err := json.Marshal(chain); err == nil {
			if err := h.cache.SetBytes(key, b, chainTTL); err != nil {
				h.log.Warn("options cache set failed", applogger.Error(err))
			}
		}
	}
	return xhttp.SuccessResponse(c, chain)
}

func (h *MarketHandler) Visibility(c echo.Context) error {
	req := &models.VisibilityRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	hub := hubName(req.Hub)
	if err := h.sim.SetVisible(hub, *req.Visible); err != nil {
		return h.fail(c, "visibility", hub, err)
	}
	h.log.Info("hub visibility changed", applogger.String("hub", hub), applogger.Bool("visible", *req.Visible))
	return xhttp.SuccessResponse(c, map[string]interface{}{"hub": hub, "visible": *req.Visible})
}

// Snapshot returns the last stored snapshot, falling back to the simulator's
// in-memory one when the store is empty or unavailable.
func (h *MarketHandler) Snapshot(c echo.Context) error {
	if h.store != nil {
		snap, err := h.store.Latest(c.Request().Context())
		if err == nil {
			return xhttp.SuccessResponse(c, snap)
		}
		if !errors.Is(err, repository.ErrNoSnapshot) {
			metrics.APIErrors.WithLabelValues("snapshot").Inc()
			h.log.Warn("snapshot store read failed", applogger.Error(err))
		}
	}
	if snap, ok := h.sim.Latest(); ok {
		return xhttp.SuccessResponse(c, snap)
	}
	return xhttp.AppErrorResponse(c, xhttp.NotFoundError("no snapshot yet"))
}
