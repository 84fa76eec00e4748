package domain

import "fmt"

// ExtractSamples returns, for each requested height, one ScatterSample per
// feature in input order. A feature missing the speed or direction for any
// requested height fails the whole extraction.
func ExtractSamples(features []Feature, heights []Height) (map[Height][]ScatterSample, error) {
	if len(features) == 0 {
		return nil, fmt.Errorf("extract samples: %w", ErrEmptyInput)
	}
	if len(heights) == 0 {
		heights = []Height{Surface}
	}

	type keys struct {
		height Height
		speed  ParamKey
		dir    ParamKey
	}
	levels := make([]keys, 0, len(heights))
	out := make(map[Height][]ScatterSample, len(heights))
	for _, h := range heights {
		if _, dup := out[h]; dup {
			continue
		}
		levels = append(levels, keys{
			height: h,
			speed:  ParamKey{Kind: KindWindSpeed, Height: h},
			dir:    ParamKey{Kind: KindWindDir, Height: h},
		})
		out[h] = make([]ScatterSample, 0, len(features))
	}

	for i, f := range features {
		for _, lvl := range levels {
			speed, ok := f.Value(lvl.speed)
			if !ok {
				return nil, fmt.Errorf("feature %d: %s: %w", i, lvl.speed, ErrMissingParameter)
			}
			dir, ok := f.Value(lvl.dir)
			if !ok {
				return nil, fmt.Errorf("feature %d: %s: %w", i, lvl.dir, ErrMissingParameter)
			}
			out[lvl.height] = append(out[lvl.height], ScatterSample{
				Lon:       f.Lon,
				Lat:       f.Lat,
				Step:      f.Step,
				Speed:     speed,
				Direction: dir,
			})
		}
	}
	return out, nil
}
