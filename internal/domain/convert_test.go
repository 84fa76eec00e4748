package domain

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func unitBoxFeatures(steps []string, heights []Height) []Feature {
	corners := [][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	var features []Feature
	for si, step := range steps {
		for _, c := range corners {
			values := map[string]float64{}
			for _, h := range heights {
				values[ParamKey{Kind: KindWindSpeed, Height: h}.String()] = 10 + float64(si)
				values[ParamKey{Kind: KindWindDir, Height: h}.String()] = 180
			}
			features = append(features, Feature{Lon: c[0], Lat: c[1], Step: step, Values: values})
		}
	}
	return features
}

func unitBoxConfig(heights ...Height) GridConfig {
	cfg := DefaultGridConfig()
	cfg.BBox = BBox{West: 0, South: 0, East: 1, North: 1}
	cfg.Heights = heights
	return cfg
}

func TestConvert_UnitBoxEndToEnd(t *testing.T) {
	features := unitBoxFeatures([]string{step0}, []Height{Surface})

	grids, err := Convert(features, unitBoxConfig(Surface))
	require.NoError(t, err)
	require.Len(t, grids, 1)

	env := grids[0].Envelope
	assert.Equal(t, Surface, grids[0].Height)
	assert.Equal(t, 4, grids[0].Samples)

	want := Header{
		ParameterCategory: 2,
		ParameterNumber:   2,
		Lo1:               0,
		La1:               1,
		Dx:                0.5,
		Dy:                0.25,
		Nx:                2,
		Ny:                4,
		RefTime:           step0,
	}
	if diff := cmp.Diff(want, env.U().Header); diff != "" {
		t.Fatalf("U header mismatch (-want +got):\n%s", diff)
	}
	require.Len(t, env.U().Data, 8)
	require.Len(t, env.V().Data, 8)
	for k := range env.U().Data {
		assert.InDelta(t, 0, env.U().Data[k], tolerance)
		assert.InDelta(t, 10, env.V().Data[k], tolerance)
	}
}

func TestConvert_KeepsEarliestStepPerHeight(t *testing.T) {
	heights := []Height{"10m", "100m"}
	features := unitBoxFeatures([]string{step0, step1, step2}, heights)

	grids, err := Convert(features, unitBoxConfig(heights...))
	require.NoError(t, err)
	require.Len(t, grids, 2)

	for i, g := range grids {
		assert.Equal(t, heights[i], g.Height)
		assert.Equal(t, 4, g.Samples)
		assert.Equal(t, step0, g.Envelope.RefTime())
		for _, v := range g.Envelope.V().Data {
			// Step 0 carries speed 10; later steps are faster.
			assert.InDelta(t, 10, v, tolerance)
		}
	}
}

func TestConvert_Errors(t *testing.T) {
	t.Run("invalid config", func(t *testing.T) {
		cfg := unitBoxConfig(Surface)
		cfg.LonStep = 0
		_, err := Convert(unitBoxFeatures([]string{step0}, []Height{Surface}), cfg)
		assert.ErrorIs(t, err, ErrInvalidConfig)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := Convert(nil, unitBoxConfig(Surface))
		assert.ErrorIs(t, err, ErrEmptyInput)
	})

	t.Run("missing height", func(t *testing.T) {
		features := unitBoxFeatures([]string{step0}, []Height{"10m"})
		_, err := Convert(features, unitBoxConfig("10m", "50m"))
		assert.ErrorIs(t, err, ErrMissingParameter)
	})

	t.Run("degenerate extent", func(t *testing.T) {
		features := []Feature{
			{Lon: 5, Lat: 55, Step: step0, Values: map[string]float64{"wind-speed": 1, "wind-dir": 0}},
			{Lon: 5, Lat: 56, Step: step0, Values: map[string]float64{"wind-speed": 1, "wind-dir": 0}},
		}
		_, err := Convert(features, unitBoxConfig(Surface))
		require.ErrorIs(t, err, ErrDegenerateExtent)
		assert.Contains(t, err.Error(), "height surface")
	})
}

func TestParseHeight(t *testing.T) {
	h, err := ParseHeight(" 100M ")
	require.NoError(t, err)
	assert.Equal(t, Height("100m"), h)

	h, err = ParseHeight("surface")
	require.NoError(t, err)
	assert.Equal(t, Surface, h)
	assert.Equal(t, "surface", h.Label())

	_, err = ParseHeight("75m")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestParamKey_String(t *testing.T) {
	assert.Equal(t, "wind-speed", ParamKey{Kind: KindWindSpeed}.String())
	assert.Equal(t, "wind-dir-250m", ParamKey{Kind: KindWindDir, Height: "250m"}.String())
}

func TestGridConfig_ParamKeys(t *testing.T) {
	cfg := DefaultGridConfig()
	cfg.Heights = []Height{"10m", "50m"}

	got := make([]string, 0, 4)
	for _, k := range cfg.ParamKeys() {
		got = append(got, k.String())
	}
	assert.Equal(t, []string{"wind-speed-10m", "wind-speed-50m", "wind-dir-10m", "wind-dir-50m"}, got)
}

func TestGridConfig_Validate(t *testing.T) {
	require.NoError(t, DefaultGridConfig().Validate())

	noHeights := DefaultGridConfig()
	noHeights.Heights = nil
	assert.ErrorIs(t, noHeights.Validate(), ErrInvalidConfig)

	noDir := DefaultGridConfig()
	noDir.Parameters = []ParamKind{KindWindSpeed}
	assert.ErrorIs(t, noDir.Validate(), ErrInvalidConfig)

	flipped := DefaultGridConfig()
	flipped.BBox = BBox{West: 20, South: 52, East: 3, North: 65}
	assert.ErrorIs(t, flipped.Validate(), ErrInvalidConfig)
}

func TestParseBBox(t *testing.T) {
	b, err := ParseBBox("6, 53, 17, 59")
	require.NoError(t, err)
	assert.Equal(t, BBox{West: 6, South: 53, East: 17, North: 59}, b)
	assert.Equal(t, "6,53,17,59", b.String())

	_, err = ParseBBox("6,53,17")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseBBox("6,53,x,59")
	assert.ErrorIs(t, err, ErrInvalidConfig)

	_, err = ParseBBox("6,60,17,59")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}
