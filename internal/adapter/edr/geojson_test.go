package edr

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wind-grid-etl/internal/domain"
)

func TestDecodeFeatureCollection_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing geometry",
			body: `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{"step":"s"}}]}`,
			want: "feature 0: expected point geometry",
		},
		{
			name: "polygon geometry",
			body: `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Polygon","coordinates":[]},"properties":{"step":"s"}}]}`,
			want: "expected point geometry",
		},
		{
			name: "missing step",
			body: `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{"wind-speed":3}}]}`,
			want: `missing "step" property`,
		},
		{
			name: "truncated",
			body: `{"type":"FeatureCollection","features":[`,
			want: "decode feature collection",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFeatureCollection(strings.NewReader(tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecodeFeatureCollection_IgnoresNonNumericProperties(t *testing.T) {
	body := `{"type":"FeatureCollection","features":[{"type":"Feature",
		"geometry":{"type":"Point","coordinates":[10,55]},
		"properties":{"step":"2026-03-01T06:00:00Z","wind-speed":3.5,"model":"dini","wind-dir":null}}]}`

	features, err := DecodeFeatureCollection(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, features, 1)
	assert.Equal(t, map[string]float64{"wind-speed": 3.5}, features[0].Values)
}

func TestFileSource_FetchForecast(t *testing.T) {
	path := filepath.Join(t.TempDir(), "forecast.geojson")
	require.NoError(t, os.WriteFile(path, []byte(cubeBody), 0o600))

	src := NewFileSource(path, slog.New(slog.NewTextHandler(io.Discard, nil)))
	features, err := src.FetchForecast(context.Background(), domain.ForecastRequest{})
	require.NoError(t, err)
	assert.Len(t, features, 2)
}

func TestFileSource_MissingFile(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "absent.geojson"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := src.FetchForecast(context.Background(), domain.ForecastRequest{})
	require.ErrorIs(t, err, os.ErrNotExist)
}
