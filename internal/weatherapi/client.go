// Package weatherapi fetches the current temperature for a city from the
// OpenWeatherMap current-weather endpoint. A failed lookup is reported as
// analysis.ErrReadingUnavailable so callers skip classification instead
// of receiving a zero temperature.
package weatherapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"github.com/tempwatch/tempwatch/internal/analysis"
	"github.com/tempwatch/tempwatch/internal/types"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the OpenWeatherMap current weather API endpoint.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

// Options configures the client. Zero values get sensible defaults.
type Options struct {
	// BaseURL overrides the API endpoint, mainly for tests.
	BaseURL string
	// Timeout bounds each HTTP request. Default 10s.
	Timeout time.Duration
	// RequestsPerSecond throttles outbound calls. Default 1, burst 3.
	RequestsPerSecond float64
	// BreakerFailures is the consecutive-failure count that opens the
	// circuit. Default 5.
	BreakerFailures uint32
	// BreakerCooldown is how long the circuit stays open. Default 30s.
	BreakerCooldown time.Duration
}

// Client calls the current-weather API with rate limiting and a circuit
// breaker in front of it.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	logger     *zap.SugaredLogger
}

// NewClient creates a client for the given API key.
func NewClient(apiKey string, opts Options, logger *zap.SugaredLogger) *Client {
	baseURL := opts.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	rps := opts.RequestsPerSecond
	if rps == 0 {
		rps = 1
	}
	failures := opts.BreakerFailures
	if failures == 0 {
		failures = 5
	}
	cooldown := opts.BreakerCooldown
	if cooldown == 0 {
		cooldown = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "openweathermap",
		Timeout: cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warnf("weather lookup circuit %s: %s -> %s", name, from, to)
		},
	})

	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(rps), 3),
		breaker:    breaker,
		logger:     logger,
	}
}

// currentWeatherResponse is the subset of the API response we consume.
type currentWeatherResponse struct {
	Main struct {
		Temp float64 `json:"temp"`
	} `json:"main"`
	Name string `json:"name"`
}

// CurrentTemperature fetches the current temperature in Celsius for a
// named city. Transport failures, non-2xx statuses, and an open circuit
// all map to analysis.ErrReadingUnavailable.
func (c *Client) CurrentTemperature(ctx context.Context, city string) (types.CurrentReading, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return types.CurrentReading{}, fmt.Errorf("%w: rate limit wait: %v", analysis.ErrReadingUnavailable, err)
	}

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, city)
	})
	if err != nil {
		c.logger.Warnf("current temperature lookup failed for %s: %v", city, err)
		return types.CurrentReading{}, fmt.Errorf("%w: %v", analysis.ErrReadingUnavailable, err)
	}

	temp := result.(float64)
	return types.CurrentReading{
		City:        city,
		Temperature: temp,
		ObservedAt:  time.Now(),
	}, nil
}

func (c *Client) fetch(ctx context.Context, city string) (float64, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", c.apiKey)
	params.Set("units", "metric")

	endpoint := fmt.Sprintf("%s/weather?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, fmt.Errorf("building request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("API status %d: %s", resp.StatusCode, body)
	}

	var parsed currentWeatherResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return 0, fmt.Errorf("parsing response: %w", err)
	}
	return parsed.Main.Temp, nil
}
