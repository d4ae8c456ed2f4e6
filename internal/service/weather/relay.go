// Package weather forwards forecast lookups to Open-Meteo.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"tripconcierge/internal/config"
)

const maxForecastBytes = 4 << 20

// ErrRelay marks every failed forecast lookup.
var ErrRelay = errors.New("weather lookup failed")

// Relay fetches hourly forecasts for a coordinate pair.
type Relay struct {
	baseURL    string
	httpClient *http.Client
}

func NewRelay(cfg config.WeatherConfig) *Relay {
	base := cfg.BaseURL
	if base == "" {
		base = config.DefaultOpenMeteoURL
	}
	return &Relay{
		baseURL:    base,
		httpClient: &http.Client{Timeout: config.ClampTimeout(cfg.Timeout)},
	}
}

// Forecast returns the upstream JSON body unmodified.
func (r *Relay) Forecast(ctx context.Context, lat, lon float64) (json.RawMessage, error) {
	u, err := url.Parse(r.baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: bad base url: %v", ErrRelay, err)
	}
	q := u.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("hourly", "temperature_2m,weathercode")
	q.Set("timezone", "auto")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRelay, err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRelay, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxForecastBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrRelay, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: upstream status %d", ErrRelay, resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: upstream returned invalid json", ErrRelay)
	}
	return json.RawMessage(body), nil
}
