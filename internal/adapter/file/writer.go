package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/couchcryptid/wind-grid-etl/internal/config"
	"github.com/couchcryptid/wind-grid-etl/internal/domain"
	"github.com/couchcryptid/wind-grid-etl/internal/observability"
)

// Writer stores each level's envelope as <prefix><height>.json.
// It implements pipeline.Loader.
type Writer struct {
	dir     string
	prefix  string
	metrics *observability.Metrics
	logger  *slog.Logger
}

// NewWriter creates a file sink rooted at OUTPUT_DIR.
func NewWriter(cfg *config.Config, metrics *observability.Metrics, logger *slog.Logger) *Writer {
	return &Writer{dir: cfg.OutputDir, prefix: cfg.OutputPrefix, metrics: metrics, logger: logger}
}

// FileName is the output name for one height; the surface level has no suffix.
func FileName(prefix string, h domain.Height) string {
	return prefix + string(h) + ".json"
}

// Load encodes every grid, stages each one as a temp file next to its
// destination, and only then renames the staged files into place. A failure
// while encoding or staging leaves the output directory untouched. Renames
// are not transactional across heights: if one fails, the heights renamed
// before it keep their new envelopes.
func (w *Writer) Load(ctx context.Context, run domain.Run) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	payloads := make([][]byte, len(run.Grids))
	for i, g := range run.Grids {
		data, err := json.Marshal(g.Envelope)
		if err != nil {
			return fmt.Errorf("serialize envelope %s: %w", g.Height.Label(), err)
		}
		payloads[i] = data
	}

	staged := make([]string, 0, len(run.Grids))
	defer func() {
		for _, tmp := range staged {
			_ = os.Remove(tmp)
		}
	}()

	paths := make([]string, len(run.Grids))
	for i, g := range run.Grids {
		if err := ctx.Err(); err != nil {
			return err
		}
		paths[i] = filepath.Join(w.dir, FileName(w.prefix, g.Height))
		tmp, err := stage(paths[i], payloads[i])
		if err != nil {
			return err
		}
		staged = append(staged, tmp)
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	for i, g := range run.Grids {
		if err := os.Rename(staged[i], paths[i]); err != nil {
			return fmt.Errorf("rename %s: %w", paths[i], err)
		}
		w.metrics.EnvelopesWritten.WithLabelValues("file").Inc()
		w.logger.Info("envelope written", "path", paths[i], "height", g.Height.Label(), "bytes", len(payloads[i]))
	}
	return nil
}

// stage writes data to a temp file in the destination's directory and returns
// its name. The destination must be absent or a regular file.
func stage(path string, data []byte) (string, error) {
	info, err := os.Stat(path)
	switch {
	case err == nil && !info.Mode().IsRegular():
		return "", fmt.Errorf("stage %s: destination is not a regular file", path)
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return "", fmt.Errorf("stage %s: %w", path, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("chmod %s: %w", path, err)
	}
	return tmp.Name(), nil
}
