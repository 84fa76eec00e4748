package domain

import (
	"fmt"
	"slices"
	"time"
)

// SelectHorizon keeps only the samples of the earliest forecast step, in
// their original order, and returns that step. Samples are grouped by step
// identifier, so the input need not be step-major.
func SelectHorizon(samples []ScatterSample) ([]ScatterSample, string, error) {
	if len(samples) == 0 {
		return nil, "", fmt.Errorf("select horizon: %w", ErrEmptyInput)
	}

	var steps []string
	seen := make(map[string]int)
	for _, s := range samples {
		if _, ok := seen[s.Step]; !ok {
			steps = append(steps, s.Step)
		}
		seen[s.Step]++
	}

	step := earliestStep(steps)
	kept := make([]ScatterSample, 0, seen[step])
	for _, s := range samples {
		if s.Step == step {
			kept = append(kept, s)
		}
	}
	return kept, step, nil
}

// earliestStep orders steps chronologically when every step is an RFC 3339
// timestamp and lexicographically otherwise.
func earliestStep(steps []string) string {
	best := -1
	var bestTime time.Time
	for i, s := range steps {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return slices.Min(steps)
		}
		if best < 0 || t.Before(bestTime) {
			best, bestTime = i, t
		}
	}
	return steps[best]
}
