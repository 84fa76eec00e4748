package file

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/wind-grid-etl/internal/domain"
	"github.com/couchcryptid/wind-grid-etl/internal/observability"
)

func testWriter(dir string) *Writer {
	return &Writer{
		dir:     dir,
		prefix:  "wind",
		metrics: observability.NewMetricsForTesting(),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func testEnvelope(refTime string) domain.GridEnvelope {
	head := domain.Header{
		ParameterCategory: domain.ParameterCategoryMomentum,
		ParameterNumber:   domain.ParameterNumberU,
		Lo1:               3,
		La1:               65,
		Dx:                0.5,
		Dy:                0.25,
		Nx:                2,
		Ny:                1,
		RefTime:           refTime,
	}
	headV := head
	headV.ParameterNumber = domain.ParameterNumberV
	return domain.GridEnvelope{
		{Header: head, Data: []float64{1, 2}},
		{Header: headV, Data: []float64{-1, 0}},
	}
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "wind.json", FileName("wind", domain.Surface))
	assert.Equal(t, "wind10m.json", FileName("wind", "10m"))
	assert.Equal(t, "dini450m.json", FileName("dini", "450m"))
}

func TestWriter_Load_WritesOneFilePerHeight(t *testing.T) {
	dir := t.TempDir()
	w := testWriter(dir)

	run := domain.Run{ID: "run-1", Grids: []domain.LevelGrid{
		{Height: domain.Surface, Envelope: testEnvelope("2026-03-01T06:00:00Z")},
		{Height: "100m", Envelope: testEnvelope("2026-03-01T07:00:00Z")},
	}}
	require.NoError(t, w.Load(context.Background(), run))

	data, err := os.ReadFile(filepath.Join(dir, "wind100m.json"))
	require.NoError(t, err)

	var got domain.GridEnvelope
	require.NoError(t, json.Unmarshal(data, &got))
	if diff := cmp.Diff(run.Grids[1].Envelope, got); diff != "" {
		t.Errorf("envelope mismatch (-want +got):\n%s", diff)
	}

	_, err = os.Stat(filepath.Join(dir, "wind.json"))
	require.NoError(t, err)
	assert.InDelta(t, 2, testutil.ToFloat64(w.metrics.EnvelopesWritten.WithLabelValues("file")), 0)
}

func TestWriter_Load_EnvelopeIsTwoElementArray(t *testing.T) {
	dir := t.TempDir()
	w := testWriter(dir)

	run := domain.Run{Grids: []domain.LevelGrid{{Height: "10m", Envelope: testEnvelope("2026-03-01T06:00:00Z")}}}
	require.NoError(t, w.Load(context.Background(), run))

	data, err := os.ReadFile(filepath.Join(dir, "wind10m.json"))
	require.NoError(t, err)

	var layers []map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &layers))
	require.Len(t, layers, 2)
	assert.Contains(t, layers[0], "header")
	assert.Contains(t, layers[0], "data")
	assert.JSONEq(t, `[-1,0]`, string(layers[1]["data"]))
}

func TestWriter_Load_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	w := testWriter(dir)

	run := domain.Run{Grids: []domain.LevelGrid{{Height: "10m", Envelope: testEnvelope("s")}}}
	require.NoError(t, w.Load(context.Background(), run))
	require.NoError(t, w.Load(context.Background(), run))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "wind10m.json", entries[0].Name())
}

func TestWriter_Load_CreatesOutputDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "out")
	w := testWriter(dir)

	run := domain.Run{Grids: []domain.LevelGrid{{Height: domain.Surface, Envelope: testEnvelope("s")}}}
	require.NoError(t, w.Load(context.Background(), run))

	_, err := os.Stat(filepath.Join(dir, "wind.json"))
	require.NoError(t, err)
}

func TestWriter_Load_CancelledContext(t *testing.T) {
	dir := t.TempDir()
	w := testWriter(dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run := domain.Run{Grids: []domain.LevelGrid{{Height: domain.Surface, Envelope: testEnvelope("s")}}}
	require.ErrorIs(t, w.Load(ctx, run), context.Canceled)

	_, err := os.Stat(filepath.Join(dir, "wind.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriter_Load_BlockedDestinationWritesNothing(t *testing.T) {
	dir := t.TempDir()
	w := testWriter(dir)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "wind100m.json"), 0o755))

	run := domain.Run{Grids: []domain.LevelGrid{
		{Height: domain.Surface, Envelope: testEnvelope("s")},
		{Height: "100m", Envelope: testEnvelope("s")},
	}}
	require.Error(t, w.Load(context.Background(), run))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "no envelope or temp file may remain")
	assert.Equal(t, "wind100m.json", entries[0].Name())
	assert.InDelta(t, 0, testutil.ToFloat64(w.metrics.EnvelopesWritten.WithLabelValues("file")), 0)
}

func TestWriter_Load_StagingFailureKeepsPreviousRun(t *testing.T) {
	dir := t.TempDir()
	w := testWriter(dir)

	first := domain.Run{Grids: []domain.LevelGrid{{Height: domain.Surface, Envelope: testEnvelope("old")}}}
	require.NoError(t, w.Load(context.Background(), first))

	// The second height's temp name exceeds the file name limit.
	second := domain.Run{Grids: []domain.LevelGrid{
		{Height: domain.Surface, Envelope: testEnvelope("new")},
		{Height: domain.Height(strings.Repeat("9", 300) + "m"), Envelope: testEnvelope("new")},
	}}
	require.Error(t, w.Load(context.Background(), second))

	data, err := os.ReadFile(filepath.Join(dir, "wind.json"))
	require.NoError(t, err)
	var got domain.GridEnvelope
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "old", got.RefTime())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriter_Load_UnencodableEnvelopeWritesNothing(t *testing.T) {
	dir := t.TempDir()
	w := testWriter(dir)

	bad := testEnvelope("s")
	bad[0].Data[1] = math.NaN()
	run := domain.Run{Grids: []domain.LevelGrid{
		{Height: domain.Surface, Envelope: testEnvelope("s")},
		{Height: "10m", Envelope: bad},
	}}
	require.Error(t, w.Load(context.Background(), run))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
