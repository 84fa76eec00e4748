package domain

import (
	"cmp"
	"math"
	"slices"
)

// Decompose converts a meteorological (speed, from-direction) pair into the
// east/north components of the vector the wind blows toward.
func Decompose(speed, direction float64) (u, v float64) {
	if speed == 0 {
		return 0, 0
	}
	d := math.Mod(direction, 360)
	if d < 0 {
		d += 360
	}
	theta := 270 - d
	if theta < 0 {
		theta += 360
	}
	rad := theta * math.Pi / 180
	return speed * math.Cos(rad), speed * math.Sin(rad)
}

// DecomposeSamples attaches U and V to every sample.
func DecomposeSamples(samples []ScatterSample) []VectorSample {
	out := make([]VectorSample, len(samples))
	for i, s := range samples {
		u, v := Decompose(s.Speed, s.Direction)
		out[i] = VectorSample{ScatterSample: s, U: u, V: v}
	}
	return out
}

// SortSpatially orders samples by longitude, then latitude, both ascending.
// The sort is stable so duplicate positions keep their input order.
func SortSpatially(samples []VectorSample) {
	slices.SortStableFunc(samples, func(a, b VectorSample) int {
		if c := cmp.Compare(a.Lon, b.Lon); c != 0 {
			return c
		}
		return cmp.Compare(a.Lat, b.Lat)
	})
}
