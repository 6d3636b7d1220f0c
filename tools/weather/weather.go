// Package weather implements the weather tool: an HTTP client against
// Open-Meteo's free forecast API, with the usual timeout-client-plus-query
// shape shared by the other HTTP-backed tools in this module.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Tool fetches current-conditions forecasts for a latitude/longitude pair.
type Tool struct {
	httpClient *http.Client
	baseURL    string
}

// New constructs the weather tool. baseURL defaults to Open-Meteo's public
// endpoint when empty, which requires no API key.
func New(baseURL string) *Tool {
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com/v1/forecast"
	}
	return &Tool{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
	}
}

func (t *Tool) Name() string { return "weather" }

func (t *Tool) Schema() json.RawMessage {
	return json.RawMessage(`{"type":"object","properties":{"latitude":{"type":"number"},"longitude":{"type":"number"}},"required":["latitude","longitude"]}`)
}

type params struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

func (t *Tool) Execute(ctx context.Context, raw json.RawMessage) (string, error) {
	var p params
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", fmt.Errorf("weather: invalid params: %w", err)
	}

	reqURL := fmt.Sprintf("%s?latitude=%s&longitude=%s&current_weather=true",
		t.baseURL, url.QueryEscape(fmt.Sprintf("%g", p.Latitude)), url.QueryEscape(fmt.Sprintf("%g", p.Longitude)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("weather: building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("weather: upstream %d: %s", resp.StatusCode, string(body))
	}

	var data struct {
		CurrentWeather struct {
			Temperature float64 `json:"temperature"`
			WindSpeed   float64 `json:"windspeed"`
		} `json:"current_weather"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("weather: parsing response: %w", err)
	}

	return fmt.Sprintf("%.1f°C, wind %.1f km/h", data.CurrentWeather.Temperature, data.CurrentWeather.WindSpeed), nil
}

func (t *Tool) Fallback(raw json.RawMessage, cause error) string {
	return "Weather data is temporarily unavailable."
}
