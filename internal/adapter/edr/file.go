package edr

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/wind-grid-etl/internal/domain"
)

// FileSource serves a saved cube response from disk in place of the API,
// for offline runs against fixtures produced by genmock.
type FileSource struct {
	path   string
	logger *slog.Logger
}

// NewFileSource reads the FeatureCollection at path on every fetch.
func NewFileSource(path string, logger *slog.Logger) *FileSource {
	return &FileSource{path: path, logger: logger}
}

// FetchForecast ignores the request window and returns every feature in the
// file.
func (s *FileSource) FetchForecast(ctx context.Context, _ domain.ForecastRequest) ([]domain.Feature, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open forecast file: %w", err)
	}
	defer f.Close()

	features, err := DecodeFeatureCollection(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}
	s.logger.Debug("forecast loaded from file", "path", s.path, "features", len(features))
	return features, nil
}
