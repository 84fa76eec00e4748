package domain

import "math"

// GRIB2 discipline 0 codes used by leaflet-velocity style renderers.
const (
	ParameterCategoryMomentum = 2
	ParameterNumberU          = 2
	ParameterNumberV          = 3
)

// Header is the georeferencing metadata of one parameter layer.
type Header struct {
	ParameterCategory int     `json:"parameterCategory"`
	ParameterNumber   int     `json:"parameterNumber"`
	Lo1               float64 `json:"lo1"`
	La1               float64 `json:"la1"`
	Dx                float64 `json:"dx"`
	Dy                float64 `json:"dy"`
	Nx                int     `json:"nx"` // lon W-E
	Ny                int     `json:"ny"` // lat N-S
	RefTime           string  `json:"refTime"`
}

// ParameterLayer is a header plus its nx*ny row-major values.
type ParameterLayer struct {
	Header Header    `json:"header"`
	Data   []float64 `json:"data"`
}

// GridEnvelope is the output unit: the U layer followed by the V layer. It
// marshals as a two-element JSON array.
type GridEnvelope [2]ParameterLayer

// U returns the eastward component layer.
func (e GridEnvelope) U() ParameterLayer { return e[0] }

// V returns the northward component layer.
func (e GridEnvelope) V() ParameterLayer { return e[1] }

// RefTime is the forecast step both layers describe.
func (e GridEnvelope) RefTime() string { return e[0].Header.RefTime }

// EncodeEnvelope builds the U/V layer pair for a resampled grid.
func EncodeEnvelope(g Grid, refTime string) GridEnvelope {
	l := g.Lattice
	head := Header{
		ParameterCategory: ParameterCategoryMomentum,
		ParameterNumber:   ParameterNumberU,
		Lo1:               l.Lon(0),
		La1:               l.Lat(0),
		Dx:                realisedStep(l.Lon(0), l.Lon(l.Nx-1), l.Nx, l.Dx),
		Dy:                realisedStep(l.Lat(0), l.Lat(l.Ny-1), l.Ny, l.Dy),
		Nx:                l.Nx,
		Ny:                l.Ny,
		RefTime:           refTime,
	}
	headV := head
	headV.ParameterNumber = ParameterNumberV

	return GridEnvelope{
		{Header: head, Data: g.U},
		{Header: headV, Data: g.V},
	}
}

// realisedStep is the spacing between the first and last lattice lines.
// With a single line there is no spacing to measure, so the nominal step is
// reported instead.
func realisedStep(first, last float64, n int, nominal float64) float64 {
	if n < 2 {
		return nominal
	}
	return math.Abs(first-last) / float64(n-1)
}
