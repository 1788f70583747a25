package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"CommodSim/internal/domain/models"
	xhttp "CommodSim/pkg/http"
)

const (
	SourceSynthetic = "synthetic"
	SourceOpenMeteo = "open-meteo"
)

type openMeteoDaily struct {
	Time []string  `json:"time"`
	Max  []float64 `json:"temperature_2m_max"`
	Min  []float64 `json:"temperature_2m_min"`
}

type openMeteoResponse struct {
	Daily *openMeteoDaily `json:"daily"`
}

// OpenMeteo fetches 14-day forecasts for every city in one request.
type OpenMeteo struct {
	baseURL string
	cities  []models.City
	client  *xhttp.Client
	now     func() time.Time
}

func NewOpenMeteo(baseURL string, cities []models.City, timeout time.Duration, attempts int) *OpenMeteo {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &OpenMeteo{
		baseURL: baseURL,
		cities:  cities,
		client: xhttp.NewClient(
			xhttp.WithTimeout(timeout),
			xhttp.WithHeader("User-Agent", "CommodSim/1.0"),
			xhttp.WithRetry(attempts, 200*time.Millisecond),
		),
		now: time.Now,
	}
}

func (o *OpenMeteo) Source() string { return SourceOpenMeteo }

func (o *OpenMeteo) query() map[string][]string {
	lats := make([]string, len(o.cities))
	lons := make([]string, len(o.cities))
	for i, c := range o.cities {
		lats[i] = strconv.FormatFloat(c.Lat, 'f', -1, 64)
		lons[i] = strconv.FormatFloat(c.Lon, 'f', -1, 64)
	}
	return map[string][]string{
		"latitude":         {strings.Join(lats, ",")},
		"longitude":        {strings.Join(lons, ",")},
		"daily":            {"temperature_2m_max,temperature_2m_min"},
		"temperature_unit": {"fahrenheit"},
		"forecast_days":    {strconv.Itoa(forecastDays)},
		"timezone":         {"America/Chicago"},
	}
}

func (o *OpenMeteo) get(ctx context.Context) ([]byte, error) {
	var body []byte
	err := o.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method:      xhttp.MethodGet,
		URL:         o.baseURL,
		QueryParams: o.query(),
	}, &body)
	if err != nil {
		return nil, fmt.Errorf("get forecast: %w", err)
	}
	return body, nil
}

// Fetch returns one forecast per city, or an error if any city is missing.
func (o *OpenMeteo) Fetch(ctx context.Context) ([]models.CityForecast, error) {
	body, err := o.get(ctx)
	if err != nil {
		return nil, err
	}

	// a single coordinate yields an object rather than a list
	var raw []openMeteoResponse
	if trimmed := strings.TrimSpace(string(body)); strings.HasPrefix(trimmed, "{") {
		var one openMeteoResponse
		if err := json.Unmarshal(body, &one); err != nil {
			return nil, fmt.Errorf("decode forecast: %w", err)
		}
		raw = []openMeteoResponse{one}
	} else if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode forecast: %w", err)
	}

	start := o.now().UTC()
	out := make([]models.CityForecast, 0, len(o.cities))
	for i, c := range o.cities {
		if i >= len(raw) || raw[i].Daily == nil {
			continue
		}
		d := raw[i].Daily
		out = append(out, buildCityForecast(c, start, d.Max, d.Min, d.Time))
	}
	if len(out) != len(o.cities) {
		return nil, fmt.Errorf("forecast covers %d of %d cities", len(out), len(o.cities))
	}
	return out, nil
}
