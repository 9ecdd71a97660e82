// Package weather provides the fetch_weather tool backed by weatherapi.com.
package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/skosovsky/toolrelay"
)

// DefaultBaseURL is the weatherapi.com v1 endpoint.
const DefaultBaseURL = "https://api.weatherapi.com/v1"

const unitCelsius = "celsius"

// Config configures the weather tool. BaseURL and HTTPClient default to
// DefaultBaseURL and a pooled cleanhttp client.
type Config struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

// Args are the keyword arguments of fetch_weather.
type Args struct {
	Location string `json:"location" description:"City or place to look up"`
	Unit     string `json:"unit,omitempty" description:"Temperature unit" enum:"fahrenheit,celsius" jsonschema:"default=fahrenheit"`
}

// New returns the fetch_weather tool.
func New(cfg Config) (toolrelay.Tool, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("weather: API key is required")
	}
	c := &client{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    cfg.HTTPClient,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = cleanhttp.DefaultPooledClient()
	}
	return toolrelay.NewTool("fetch_weather", "Retrieves the current weather for a given location.", c.forecast)
}

type client struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

type forecastResponse struct {
	Forecast struct {
		ForecastDay []struct {
			Day struct {
				MaxTempC  float64 `json:"maxtemp_c"`
				MaxTempF  float64 `json:"maxtemp_f"`
				Condition struct {
					Text string `json:"text"`
				} `json:"condition"`
			} `json:"day"`
		} `json:"forecastday"`
	} `json:"forecast"`
}

// forecast returns today's condition with the high temperature in the requested unit.
func (c *client) forecast(ctx context.Context, args Args) (string, error) {
	q := url.Values{}
	q.Set("q", args.Location)
	q.Set("key", c.apiKey)
	reqURL := c.baseURL + "/forecast.json?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", fmt.Errorf("weather: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("weather: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("weather: API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	var data forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("weather: parse response: %w", err)
	}
	if len(data.Forecast.ForecastDay) == 0 {
		return "", fmt.Errorf("weather: no forecast for %q", args.Location)
	}
	day := data.Forecast.ForecastDay[0].Day
	if args.Unit == unitCelsius {
		return fmt.Sprintf("%s, high %.1f°C", day.Condition.Text, day.MaxTempC), nil
	}
	return fmt.Sprintf("%s, high %.1f°F", day.Condition.Text, day.MaxTempF), nil
}
