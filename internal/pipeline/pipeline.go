package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/couchcryptid/wind-grid-etl/internal/domain"
	"github.com/couchcryptid/wind-grid-etl/internal/observability"
)

// Source fetches point forecasts for a request.
type Source interface {
	FetchForecast(ctx context.Context, req domain.ForecastRequest) ([]domain.Feature, error)
}

// Loader delivers every grid of a completed run to one destination.
type Loader interface {
	Load(ctx context.Context, run domain.Run) error
}

// Pipeline orchestrates one fetch-convert-load run.
type Pipeline struct {
	source  Source
	loaders []Loader
	grid    domain.GridConfig
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool

	// mu serialises runs so a slow run and a scheduled tick never overlap.
	mu sync.Mutex
}

// New creates a Pipeline. Loaders run in order; the first failure aborts the run.
func New(source Source, loaders []Loader, grid domain.GridConfig, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:  source,
		loaders: loaders,
		grid:    grid,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once at least one run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run fetches the forecast, converts it into one envelope per height and
// hands the result to every loader.
func (p *Pipeline) Run(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := clock.Now()
	run := domain.Run{ID: uuid.NewString(), StartedAt: start.UTC()}
	logger := p.logger.With("run_id", run.ID)

	err := p.run(ctx, &run, logger)
	p.metrics.RunDuration.Observe(clock.Since(start).Seconds())
	if err != nil {
		p.metrics.RunsTotal.WithLabelValues("error").Inc()
		logger.Error("run failed", "error", err)
		return err
	}

	p.metrics.RunsTotal.WithLabelValues("success").Inc()
	p.metrics.LastSuccess.Set(float64(clock.Now().Unix()))
	p.ready.Store(true)
	logger.Info("run complete", "grids", len(run.Grids), "duration", clock.Since(start))
	return nil
}

func (p *Pipeline) run(ctx context.Context, run *domain.Run, logger *slog.Logger) error {
	req := domain.ForecastRequest{
		BBox:       p.grid.BBox,
		Parameters: p.grid.ParamKeys(),
		To:         run.StartedAt,
	}
	logger.Info("fetching forecast", "bbox", req.BBox.String(), "parameters", len(req.Parameters))

	features, err := p.source.FetchForecast(ctx, req)
	if err != nil {
		return fmt.Errorf("fetch forecast: %w", err)
	}
	p.metrics.FeaturesFetched.Set(float64(len(features)))

	grids, err := domain.Convert(features, p.grid)
	if err != nil {
		return fmt.Errorf("convert forecast: %w", err)
	}

	for _, g := range grids {
		label := g.Height.Label()
		u := g.Envelope.U().Header
		p.metrics.SamplesRetained.WithLabelValues(label).Set(float64(g.Samples))
		p.metrics.GridCells.WithLabelValues(label).Set(float64(u.Nx * u.Ny))
		logger.Debug("grid converted",
			"height", label,
			"samples", g.Samples,
			"nx", u.Nx,
			"ny", u.Ny,
			"ref_time", u.RefTime,
		)
	}
	run.Grids = grids

	for _, l := range p.loaders {
		if err := l.Load(ctx, *run); err != nil {
			return fmt.Errorf("load grids: %w", err)
		}
	}
	return nil
}
