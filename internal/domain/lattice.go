package domain

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/kdtree"
)

// Lattice is a regular lon/lat grid anchored at its north-west corner.
// Column i sits at MinLon + i*Dx, row j at MaxLat - j*Dy.
type Lattice struct {
	MinLon float64
	MaxLon float64
	MinLat float64
	MaxLat float64
	Dx     float64
	Dy     float64
	Nx     int
	Ny     int
}

// NewLattice spans the extent of samples at the given spacing. The ranges
// are half-open on the far edge: [minLon, maxLon) and (minLat, maxLat].
func NewLattice(samples []VectorSample, dx, dy float64) (Lattice, error) {
	if len(samples) == 0 {
		return Lattice{}, fmt.Errorf("build lattice: %w", ErrEmptyInput)
	}
	if dx <= 0 || dy <= 0 {
		return Lattice{}, fmt.Errorf("build lattice: steps %g/%g: %w", dx, dy, ErrInvalidConfig)
	}

	lons := make([]float64, len(samples))
	lats := make([]float64, len(samples))
	for i, s := range samples {
		lons[i], lats[i] = s.Lon, s.Lat
	}
	l := Lattice{
		MinLon: floats.Min(lons),
		MaxLon: floats.Max(lons),
		MinLat: floats.Min(lats),
		MaxLat: floats.Max(lats),
		Dx:     dx,
		Dy:     dy,
	}
	if l.MinLon == l.MaxLon || l.MinLat == l.MaxLat {
		return Lattice{}, fmt.Errorf("build lattice: lon [%g, %g] lat [%g, %g]: %w",
			l.MinLon, l.MaxLon, l.MinLat, l.MaxLat, ErrDegenerateExtent)
	}
	l.Nx = int(math.Ceil((l.MaxLon - l.MinLon) / dx))
	l.Ny = int(math.Ceil((l.MaxLat - l.MinLat) / dy))
	return l, nil
}

// Lon returns the longitude of column i.
func (l Lattice) Lon(i int) float64 { return l.MinLon + float64(i)*l.Dx }

// Lat returns the latitude of row j.
func (l Lattice) Lat(j int) float64 { return l.MaxLat - float64(j)*l.Dy }

// Cells is the number of lattice positions.
func (l Lattice) Cells() int { return l.Nx * l.Ny }

// Grid holds resampled U and V values in row-major order.
type Grid struct {
	Lattice Lattice
	U       []float64
	V       []float64
}

// Resample assigns every lattice cell the U and V of its nearest sample.
// One nearest-neighbour search per cell serves both components.
func Resample(samples []VectorSample, l Lattice) Grid {
	points := make(samplePoints, len(samples))
	for i, s := range samples {
		points[i] = samplePoint{pos: [2]float64{s.Lon, s.Lat}, index: i}
	}
	tree := kdtree.New(points, false)

	g := Grid{
		Lattice: l,
		U:       make([]float64, l.Cells()),
		V:       make([]float64, l.Cells()),
	}
	for j := 0; j < l.Ny; j++ {
		for i := 0; i < l.Nx; i++ {
			q := samplePoint{pos: [2]float64{l.Lon(i), l.Lat(j)}}
			nearest, _ := tree.Nearest(q)
			s := samples[nearest.(samplePoint).index]
			k := j*l.Nx + i
			g.U[k] = s.U
			g.V[k] = s.V
		}
	}
	return g
}

// samplePoint is a k-d tree node remembering which sample it came from.
type samplePoint struct {
	pos   [2]float64
	index int
}

func (p samplePoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(samplePoint)
	return p.pos[d] - q.pos[d]
}

func (p samplePoint) Dims() int { return 2 }

// Distance is the squared planar distance in degrees.
func (p samplePoint) Distance(c kdtree.Comparable) float64 {
	q := c.(samplePoint)
	dx := p.pos[0] - q.pos[0]
	dy := p.pos[1] - q.pos[1]
	return dx*dx + dy*dy
}

type samplePoints []samplePoint

func (p samplePoints) Index(i int) kdtree.Comparable        { return p[i] }
func (p samplePoints) Len() int                             { return len(p) }
func (p samplePoints) Pivot(d kdtree.Dim) int               { return samplePlane{Dim: d, samplePoints: p}.Pivot() }
func (p samplePoints) Slice(start, end int) kdtree.Interface { return p[start:end] }

// samplePlane sorts points along one dimension for median partitioning.
type samplePlane struct {
	kdtree.Dim
	samplePoints
}

func (p samplePlane) Less(i, j int) bool {
	return p.samplePoints[i].pos[p.Dim] < p.samplePoints[j].pos[p.Dim]
}
func (p samplePlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p samplePlane) Slice(start, end int) kdtree.SortSlicer {
	p.samplePoints = p.samplePoints[start:end]
	return p
}
func (p samplePlane) Swap(i, j int) {
	p.samplePoints[i], p.samplePoints[j] = p.samplePoints[j], p.samplePoints[i]
}
