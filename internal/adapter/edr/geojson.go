package edr

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/couchcryptid/wind-grid-etl/internal/domain"
)

const stepProperty = "step"

// FeatureCollection is the GeoJSON body returned by the cube query with
// f=GeoJSON.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is one forecast point at one step. Properties hold "step" plus one
// entry per requested parameter; parameters without data arrive as null.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   *Geometry      `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry is a GeoJSON Point with [lon, lat] coordinates.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// DecodeFeatureCollection reads a FeatureCollection and maps it to domain
// features in document order.
func DecodeFeatureCollection(r io.Reader) ([]domain.Feature, error) {
	var fc FeatureCollection
	if err := json.NewDecoder(r).Decode(&fc); err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}
	return fc.ToDomain()
}

// ToDomain converts every feature. A feature without a point geometry or a
// step fails the conversion.
func (fc FeatureCollection) ToDomain() ([]domain.Feature, error) {
	out := make([]domain.Feature, 0, len(fc.Features))
	for i, f := range fc.Features {
		df, err := f.toDomain()
		if err != nil {
			return nil, fmt.Errorf("feature %d: %w", i, err)
		}
		out = append(out, df)
	}
	return out, nil
}

func (f Feature) toDomain() (domain.Feature, error) {
	if f.Geometry == nil || f.Geometry.Type != "Point" || len(f.Geometry.Coordinates) < 2 {
		return domain.Feature{}, fmt.Errorf("expected point geometry")
	}
	step, ok := f.Properties[stepProperty].(string)
	if !ok || step == "" {
		return domain.Feature{}, fmt.Errorf("missing %q property", stepProperty)
	}

	values := make(map[string]float64, len(f.Properties)-1)
	for k, v := range f.Properties {
		if n, ok := v.(float64); ok {
			values[k] = n
		}
	}
	return domain.Feature{
		Lon:    f.Geometry.Coordinates[0],
		Lat:    f.Geometry.Coordinates[1],
		Step:   step,
		Values: values,
	}, nil
}

// NewFeatureCollection renders domain features as GeoJSON. Used to build
// forecast fixtures.
func NewFeatureCollection(features []domain.Feature) FeatureCollection {
	fc := FeatureCollection{Type: "FeatureCollection", Features: make([]Feature, 0, len(features))}
	for _, f := range features {
		props := make(map[string]any, len(f.Values)+1)
		props[stepProperty] = f.Step
		for k, v := range f.Values {
			props[k] = v
		}
		fc.Features = append(fc.Features, Feature{
			Type:       "Feature",
			Geometry:   &Geometry{Type: "Point", Coordinates: []float64{f.Lon, f.Lat}},
			Properties: props,
		})
	}
	return fc
}
