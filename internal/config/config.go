package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/wind-grid-etl/internal/domain"
)

var validate = validator.New()

// Config holds all service settings, populated from environment variables.
type Config struct {
	EDRBaseURL    string        `validate:"required,url"`
	EDRAPIKey     string        // optional; sent as the api-key query parameter
	EDRCollection string        `validate:"required"`
	EDRTimeout    time.Duration `validate:"gt=0"`

	// ForecastFile replaces the EDR API with a local GeoJSON FeatureCollection.
	ForecastFile string

	Grid domain.GridConfig

	OutputDir    string `validate:"required"`
	OutputPrefix string `validate:"required"`

	KafkaEnabled bool
	KafkaBrokers []string `validate:"required_if=KafkaEnabled true"`
	KafkaTopic   string   `validate:"required_if=KafkaEnabled true"`

	// RunInterval > 0 keeps the process alive and re-runs on that period.
	RunInterval time.Duration `validate:"gte=0"`

	HTTPAddr        string `validate:"required"`
	LogLevel        string `validate:"oneof=debug info warn error"`
	LogFormat       string `validate:"oneof=json text"`
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables (and a .env file when
// present), applying defaults where unset.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	edrTimeout, err := parseDuration("EDR_TIMEOUT", "60s")
	if err != nil {
		return nil, err
	}

	runInterval, err := parseDuration("RUN_INTERVAL", "0s")
	if err != nil {
		return nil, err
	}

	grid, err := parseGrid()
	if err != nil {
		return nil, err
	}

	var brokers []string
	if s := os.Getenv("KAFKA_BROKERS"); s != "" {
		brokers = sharedcfg.ParseBrokers(s)
	}

	cfg := &Config{
		EDRBaseURL:    sharedcfg.EnvOrDefault("EDR_BASE_URL", "https://dmigw.govcloud.dk/v1/forecastedr"),
		EDRAPIKey:     os.Getenv("EDR_API_KEY"),
		EDRCollection: sharedcfg.EnvOrDefault("EDR_COLLECTION", "harmonie_dini_sf"),
		EDRTimeout:    edrTimeout,
		ForecastFile:  os.Getenv("FORECAST_FILE"),

		Grid: grid,

		OutputDir:    sharedcfg.EnvOrDefault("OUTPUT_DIR", "."),
		OutputPrefix: sharedcfg.EnvOrDefault("OUTPUT_PREFIX", "wind"),

		KafkaEnabled: len(brokers) > 0,
		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "wind-grids"),

		RunInterval: runInterval,

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),
		ShutdownTimeout: shutdownTimeout,
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Grid.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func parseGrid() (domain.GridConfig, error) {
	grid := domain.DefaultGridConfig()

	lonStep, err := parseFloat("GRID_LON_STEP", grid.LonStep)
	if err != nil {
		return grid, err
	}
	latStep, err := parseFloat("GRID_LAT_STEP", grid.LatStep)
	if err != nil {
		return grid, err
	}
	grid.LonStep, grid.LatStep = lonStep, latStep

	if s := os.Getenv("FORECAST_BBOX"); s != "" {
		bbox, err := domain.ParseBBox(s)
		if err != nil {
			return grid, fmt.Errorf("invalid FORECAST_BBOX: %w", err)
		}
		grid.BBox = bbox
	}

	if s := os.Getenv("FORECAST_HEIGHTS"); s != "" {
		heights, err := parseHeights(s)
		if err != nil {
			return grid, fmt.Errorf("invalid FORECAST_HEIGHTS: %w", err)
		}
		grid.Heights = heights
	}

	return grid, nil
}

func parseHeights(s string) ([]domain.Height, error) {
	var heights []domain.Height
	for _, part := range strings.Split(s, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		h, err := domain.ParseHeight(part)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(heights, h) {
			heights = append(heights, h)
		}
	}
	return heights, nil
}

func parseFloat(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return v, nil
}

func parseDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}
