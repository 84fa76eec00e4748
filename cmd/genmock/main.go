// Command genmock writes a synthetic EDR cube response (GeoJSON
// FeatureCollection) so the pipeline can run offline via FORECAST_FILE. The
// fixture is checked against the real conversion before it is written.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -out data/mock/dini_cube.geojson \
//	  -bbox 3,52,20,65 -spacing 0.2 -steps 3 \
//	  -heights surface,10m,100m
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/wind-grid-etl/internal/adapter/edr"
	"github.com/couchcryptid/wind-grid-etl/internal/domain"
)

type options struct {
	bbox    domain.BBox
	spacing float64
	steps   int
	start   time.Time
	heights []domain.Height
	seed    uint64
	jitter  float64
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the GeoJSON fixture")
	bbox := flag.String("bbox", "3,52,20,65", "west,south,east,north")
	spacing := flag.Float64("spacing", 0.2, "distance between forecast points in degrees")
	steps := flag.Int("steps", 3, "number of hourly forecast steps")
	start := flag.String("start", "2026-03-01T06:00:00Z", "first forecast step (RFC 3339)")
	heights := flag.String("heights", "surface,10m,100m", "comma-separated heights")
	seed := flag.Uint64("seed", 1, "random seed for point jitter and noise")
	jitter := flag.Float64("jitter", 0.3, "point position jitter as a fraction of spacing")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	opts, err := parseOptions(*bbox, *spacing, *steps, *start, *heights, *seed, *jitter)
	if err != nil {
		return err
	}

	features := generate(opts)
	log.Printf("generated %d features (%d steps x %d points)", len(features), opts.steps, len(features)/opts.steps)

	grid := domain.DefaultGridConfig()
	grid.BBox = opts.bbox
	grid.Heights = opts.heights
	levels, err := domain.Convert(features, grid)
	if err != nil {
		return fmt.Errorf("fixture does not convert: %w", err)
	}

	if err := writeJSON(*out, edr.NewFeatureCollection(features)); err != nil {
		return fmt.Errorf("writing fixture: %w", err)
	}
	log.Printf("wrote fixture: %s", *out)

	printStats(levels)
	return nil
}

func parseOptions(bbox string, spacing float64, steps int, start, heights string, seed uint64, jitter float64) (options, error) {
	box, err := domain.ParseBBox(bbox)
	if err != nil {
		return options{}, err
	}
	if spacing <= 0 || steps <= 0 {
		return options{}, fmt.Errorf("spacing and steps must be positive")
	}
	if jitter < 0 || jitter >= 0.5 {
		return options{}, fmt.Errorf("jitter must be in [0, 0.5)")
	}
	t0, err := time.Parse(time.RFC3339, start)
	if err != nil {
		return options{}, fmt.Errorf("invalid -start: %w", err)
	}
	var hs []domain.Height
	for _, s := range strings.Split(heights, ",") {
		h, err := domain.ParseHeight(s)
		if err != nil {
			return options{}, err
		}
		hs = append(hs, h)
	}
	return options{bbox: box, spacing: spacing, steps: steps, start: t0.UTC(), heights: hs, seed: seed, jitter: jitter}, nil
}

// generate lays out a jittered point set over the box and emits it once per
// step, step-major, the way the cube query orders its response. Points stay
// fixed across steps; only the wind field evolves.
func generate(opts options) []domain.Feature {
	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))

	var points [][2]float64
	for lat := opts.bbox.North; lat >= opts.bbox.South-1e-9; lat -= opts.spacing {
		for lon := opts.bbox.West; lon <= opts.bbox.East+1e-9; lon += opts.spacing {
			dx := (rng.Float64()*2 - 1) * opts.jitter * opts.spacing
			dy := (rng.Float64()*2 - 1) * opts.jitter * opts.spacing
			points = append(points, [2]float64{round(lon + dx), round(lat + dy)})
		}
	}

	features := make([]domain.Feature, 0, len(points)*opts.steps)
	for s := range opts.steps {
		step := opts.start.Add(time.Duration(s) * time.Hour).Format(time.RFC3339)
		for _, p := range points {
			values := make(map[string]float64, 2*len(opts.heights))
			for _, h := range opts.heights {
				speed, dir := windAt(p[0], p[1], s, h, rng)
				values[domain.ParamKey{Kind: domain.KindWindSpeed, Height: h}.String()] = speed
				values[domain.ParamKey{Kind: domain.KindWindDir, Height: h}.String()] = dir
			}
			features = append(features, domain.Feature{Lon: p[0], Lat: p[1], Step: step, Values: values})
		}
	}
	return features
}

// windAt is a smooth cyclonic field that strengthens with height, plus noise.
func windAt(lon, lat float64, step int, h domain.Height, rng *rand.Rand) (speed, dir float64) {
	phase := float64(step) * 0.15
	speed = 8 + 4*math.Sin(lon*0.3+phase) + 2*math.Cos(lat*0.5) + heightBoost(h) + rng.NormFloat64()*0.5
	speed = math.Max(0, speed)
	dir = math.Mod(225+40*math.Sin(lat*0.2-phase)+rng.NormFloat64()*5+360, 360)
	return round(speed), round(dir)
}

func heightBoost(h domain.Height) float64 {
	if h == domain.Surface {
		return 0
	}
	m, _ := strconv.ParseFloat(strings.TrimSuffix(string(h), "m"), 64)
	return 1.5 * math.Log1p(m/10)
}

func round(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(levels []domain.LevelGrid) {
	fmt.Println("\n=== Converted levels ===")
	for _, l := range levels {
		u := l.Envelope.U()
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range u.Data {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		fmt.Printf("%-8s samples=%d nx=%d ny=%d lo1=%g la1=%g refTime=%s u=[%.2f, %.2f]\n",
			l.Height.Label(), l.Samples, u.Header.Nx, u.Header.Ny, u.Header.Lo1, u.Header.La1, u.Header.RefTime, lo, hi)
	}
}
