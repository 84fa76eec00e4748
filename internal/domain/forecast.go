package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Height identifies a vertical forecast level. The zero value is the surface
// level, whose parameters carry no height suffix.
type Height string

// Surface is the level addressed by plain parameter names ("wind-speed").
const Surface Height = ""

// SupportedHeights lists the levels offered by the HARMONIE DINI collection.
var SupportedHeights = []Height{"10m", "50m", "100m", "150m", "250m", "350m", "450m"}

// ParseHeight validates a height label. "surface" selects [Surface].
func ParseHeight(s string) (Height, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "surface" {
		return Surface, nil
	}
	h := Height(s)
	if !slices.Contains(SupportedHeights, h) {
		return "", fmt.Errorf("unsupported height %q: %w", s, ErrInvalidConfig)
	}
	return h, nil
}

// Label returns a printable name for logs, metrics and message keys.
func (h Height) Label() string {
	if h == Surface {
		return "surface"
	}
	return string(h)
}

// ParamKind is a forecast parameter without its height suffix.
type ParamKind string

const (
	KindWindSpeed ParamKind = "wind-speed"
	KindWindDir   ParamKind = "wind-dir"
)

// ParamKey addresses one parameter at one height.
type ParamKey struct {
	Kind   ParamKind
	Height Height
}

// String renders the upstream parameter name, e.g. "wind-dir-100m".
func (k ParamKey) String() string {
	if k.Height == Surface {
		return string(k.Kind)
	}
	return string(k.Kind) + "-" + string(k.Height)
}

// BBox is a geographic bounding box in degrees (CRS84).
type BBox struct {
	West  float64
	South float64
	East  float64
	North float64
}

// ParseBBox parses "west,south,east,north".
func ParseBBox(s string) (BBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return BBox{}, fmt.Errorf("bbox %q: want west,south,east,north: %w", s, ErrInvalidConfig)
	}
	var vals [4]float64
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return BBox{}, fmt.Errorf("bbox %q: %w", s, ErrInvalidConfig)
		}
		vals[i] = v
	}
	b := BBox{West: vals[0], South: vals[1], East: vals[2], North: vals[3]}
	return b, b.Validate()
}

// Validate checks ordering and range of the box edges.
func (b BBox) Validate() error {
	switch {
	case b.West >= b.East:
		return fmt.Errorf("bbox west %g must be less than east %g: %w", b.West, b.East, ErrInvalidConfig)
	case b.South >= b.North:
		return fmt.Errorf("bbox south %g must be less than north %g: %w", b.South, b.North, ErrInvalidConfig)
	case b.West < -180 || b.East > 180 || b.South < -90 || b.North > 90:
		return fmt.Errorf("bbox %s outside CRS84 range: %w", b, ErrInvalidConfig)
	}
	return nil
}

// String formats the box as the EDR bbox query value.
func (b BBox) String() string {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return f(b.West) + "," + f(b.South) + "," + f(b.East) + "," + f(b.North)
}

// GridConfig is the full set of knobs for one conversion run.
type GridConfig struct {
	LonStep    float64
	LatStep    float64
	BBox       BBox
	Heights    []Height
	Parameters []ParamKind
}

// DefaultGridConfig mirrors the DINI deployment: 0.5° x 0.25° cells over the
// North Sea / Baltic box at every supported height.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		LonStep:    0.5,
		LatStep:    0.25,
		BBox:       BBox{West: 3, South: 52, East: 20, North: 65},
		Heights:    slices.Clone(SupportedHeights),
		Parameters: []ParamKind{KindWindSpeed, KindWindDir},
	}
}

// Validate rejects configurations the resampler cannot honour.
func (c GridConfig) Validate() error {
	if c.LonStep <= 0 || c.LatStep <= 0 {
		return fmt.Errorf("lattice steps must be positive (lon %g, lat %g): %w", c.LonStep, c.LatStep, ErrInvalidConfig)
	}
	if len(c.Heights) == 0 {
		return fmt.Errorf("no heights requested: %w", ErrInvalidConfig)
	}
	for _, k := range []ParamKind{KindWindSpeed, KindWindDir} {
		if !slices.Contains(c.Parameters, k) {
			return fmt.Errorf("parameter %s is required: %w", k, ErrInvalidConfig)
		}
	}
	return c.BBox.Validate()
}

// ParamKeys lists every parameter to request, kind-major: all speeds, then
// all directions.
func (c GridConfig) ParamKeys() []ParamKey {
	keys := make([]ParamKey, 0, len(c.Parameters)*len(c.Heights))
	for _, kind := range c.Parameters {
		for _, h := range c.Heights {
			keys = append(keys, ParamKey{Kind: kind, Height: h})
		}
	}
	return keys
}

// ForecastRequest is what the pipeline asks of a forecast source.
type ForecastRequest struct {
	BBox       BBox
	Parameters []ParamKey
	To         time.Time
}

// Feature is one upstream point forecast.
type Feature struct {
	Lon    float64
	Lat    float64
	Step   string
	Values map[string]float64
}

// Value looks up a parameter on the feature.
func (f Feature) Value(k ParamKey) (float64, bool) {
	v, ok := f.Values[k.String()]
	return v, ok
}

// ScatterSample is one (point, height) observation from the forecast.
type ScatterSample struct {
	Lon       float64
	Lat       float64
	Step      string
	Speed     float64
	Direction float64
}

// VectorSample is a ScatterSample with its Cartesian wind components.
type VectorSample struct {
	ScatterSample
	U float64
	V float64
}

// LevelGrid is the converted output for one height.
type LevelGrid struct {
	Height   Height
	Envelope GridEnvelope
	Samples  int // samples retained after horizon selection
}

// Run groups every level produced by one pipeline execution.
type Run struct {
	ID        string
	StartedAt time.Time
	Grids     []LevelGrid
}
