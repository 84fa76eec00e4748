// Package domain converts scattered point forecasts of wind speed and
// direction into regular U/V grids for vector-field renderers.
//
// # Data Source
//
// Forecasts come from an OGC EDR (Environmental Data Retrieval) "cube" query
// against a HARMONIE collection (e.g. harmonie_dini_sf), requested as
// GeoJSON in CRS84. The response is a flat list of Point features, one per
// (grid point, forecast step). Each feature's properties carry a "step"
// timestamp and one value per requested parameter.
//
// # Parameter Naming
//
// Parameters are named "<kind>" for surface collections and
// "<kind>-<height>" when a vertical level is requested:
//
//	wind-speed          wind-dir           (surface, m/s and degrees)
//	wind-speed-100m     wind-dir-100m      (100 m above ground)
//
// Supported heights are 10m, 50m, 100m, 150m, 250m, 350m and 450m. Names are
// built from a [ParamKey] rather than formatted by hand.
//
// # Wind Direction Convention
//
// Direction is meteorological: the bearing the wind blows FROM, 0° = north,
// increasing clockwise. Renderers expect the vector the wind blows TOWARD in
// an east-x / north-y frame, so a direction d becomes the mathematical angle
// theta = 270 - d:
//
//	from north (0°)   → u = 0,  v = -s
//	from east  (90°)  → u = -s, v = 0
//	from south (180°) → u = 0,  v = +s
//
// Directions outside [0, 360) are normalised rather than rejected.
//
// # Forecast Horizon
//
// The upstream response repeats every point once per forecast step. Only
// the earliest step is kept: samples are grouped by step and the minimum
// step wins. Steps compare as RFC 3339 timestamps when they all parse,
// lexicographically otherwise. The selected step becomes the envelope's
// refTime.
//
// # Lattice and Envelope Layout
//
// The lattice spans the sample extent at fixed spacing (0.5° lon, 0.25° lat
// by default). Columns run west → east from the minimum longitude, rows run
// north → south from the maximum latitude, over a half-open range:
//
//	nx = ceil((maxLon - minLon) / dx)
//	ny = ceil((maxLat - minLat) / dy)
//
// Each cell takes the U and V of its nearest sample (planar lon/lat
// distance). The envelope is the GRIB-as-JSON pair understood by
// leaflet-velocity and wind.js: U (parameterNumber 2) then V
// (parameterNumber 3), both parameterCategory 2, data in row-major order.
// Header dx/dy are recomputed from the realised lattice; a single-column or
// single-row lattice reports the nominal step for that axis.
package domain
