package edr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/couchcryptid/wind-grid-etl/internal/config"
	"github.com/couchcryptid/wind-grid-etl/internal/domain"
	"github.com/couchcryptid/wind-grid-etl/internal/observability"
)

// ErrCircuitOpen is returned without contacting the API while the breaker is
// open after repeated upstream failures.
var ErrCircuitOpen = errors.New("forecast API circuit open")

// failuresToTrip consecutive failed requests open the breaker.
const failuresToTrip = 3

// Client implements pipeline.Source against an OGC EDR forecast API.
type Client struct {
	baseURL    string
	collection string
	apiKey     string
	httpClient *http.Client
	circuit    *gobreaker.CircuitBreaker
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an EDR client for the configured collection.
func NewClient(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return newClient(cfg.EDRBaseURL, cfg.EDRCollection, cfg.EDRAPIKey, cfg.EDRTimeout, metrics, logger)
}

func newClient(baseURL, collection, apiKey string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "edr",
		MaxRequests: 1,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failuresToTrip
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change", "breaker", name, "from", from.String(), "to", to.String())
		},
	})

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		collection: collection,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		circuit:    cb,
		metrics:    metrics,
		logger:     logger,
	}
}

// FetchForecast runs one cube query and returns its point features.
func (c *Client) FetchForecast(ctx context.Context, req domain.ForecastRequest) ([]domain.Feature, error) {
	u, err := c.cubeURL(req)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, err := c.circuit.Execute(func() (interface{}, error) {
		return c.doRequest(ctx, u)
	})
	c.metrics.UpstreamDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.metrics.UpstreamRequests.WithLabelValues("circuit_open").Inc()
			return nil, fmt.Errorf("%w: %v", ErrCircuitOpen, err)
		}
		c.metrics.UpstreamRequests.WithLabelValues("error").Inc()
		return nil, err
	}
	c.metrics.UpstreamRequests.WithLabelValues("success").Inc()

	features, ok := result.([]domain.Feature)
	if !ok {
		return nil, fmt.Errorf("unexpected result type from circuit breaker")
	}
	c.logger.Debug("forecast fetched", "features", len(features), "duration", time.Since(start))
	return features, nil
}

func (c *Client) cubeURL(req domain.ForecastRequest) (string, error) {
	u, err := url.JoinPath(c.baseURL, "collections", c.collection, "cube")
	if err != nil {
		return "", fmt.Errorf("build cube url: %w", err)
	}

	names := make([]string, len(req.Parameters))
	for i, p := range req.Parameters {
		names[i] = p.String()
	}

	params := url.Values{
		"bbox":           {req.BBox.String()},
		"crs":            {"crs84"},
		"parameter-name": {strings.Join(names, ",")},
		"datetime":       {"../" + req.To.UTC().Format(time.RFC3339)},
		"f":              {"GeoJSON"},
	}
	if c.apiKey != "" {
		params.Set("api-key", c.apiKey)
	}
	return u + "?" + params.Encode(), nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]domain.Feature, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("forecast request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("forecast API error: status %d: %s", resp.StatusCode, body)
	}

	return DecodeFeatureCollection(resp.Body)
}
