package domain

import "fmt"

// Convert turns a forecast response into one GridEnvelope per configured
// height. It either converts every height or returns an error.
func Convert(features []Feature, cfg GridConfig) ([]LevelGrid, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	byHeight, err := ExtractSamples(features, cfg.Heights)
	if err != nil {
		return nil, err
	}

	grids := make([]LevelGrid, 0, len(byHeight))
	for _, h := range cfg.Heights {
		samples, ok := byHeight[h]
		if !ok {
			continue
		}
		delete(byHeight, h)

		grid, err := ConvertLevel(samples, cfg.LonStep, cfg.LatStep)
		if err != nil {
			return nil, fmt.Errorf("height %s: %w", h.Label(), err)
		}
		grid.Height = h
		grids = append(grids, grid)
	}
	return grids, nil
}

// ConvertLevel runs horizon selection, decomposition, sorting, resampling and
// encoding for the samples of a single height.
func ConvertLevel(samples []ScatterSample, dx, dy float64) (LevelGrid, error) {
	kept, step, err := SelectHorizon(samples)
	if err != nil {
		return LevelGrid{}, err
	}

	vectors := DecomposeSamples(kept)
	SortSpatially(vectors)

	lattice, err := NewLattice(vectors, dx, dy)
	if err != nil {
		return LevelGrid{}, err
	}

	return LevelGrid{
		Envelope: EncodeEnvelope(Resample(vectors, lattice), step),
		Samples:  len(kept),
	}, nil
}
