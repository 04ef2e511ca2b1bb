package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/aor-intel-dashboard/internal/domain"
	"github.com/couchcryptid/aor-intel-dashboard/internal/observability"
)

// ErrStoreUnavailable wraps any failure to read from the report store,
// including query timeouts. It is not retried here.
var ErrStoreUnavailable = errors.New("report store unavailable")

// Store reads report documents. Implementations return an empty slice, not an
// error, when nothing matches; the AOR identifier is opaque to the store.
type Store interface {
	QueryByAOR(ctx context.Context, aor string) ([]domain.RawDocument, error)
	Ping(ctx context.Context) error
}

// Result is one AOR's normalized dataset together with its registry entry.
type Result struct {
	AOR     domain.AORConfig
	Dataset domain.Dataset
}

// Pipeline runs the query-and-normalize cycle for a selected AOR. It holds no
// per-request state and is safe for concurrent use.
type Pipeline struct {
	store        Store
	registry     *domain.Registry
	logger       *slog.Logger
	metrics      *observability.Metrics
	queryTimeout time.Duration
}

// New creates a Pipeline. A zero queryTimeout disables the per-query deadline.
func New(store Store, registry *domain.Registry, logger *slog.Logger, metrics *observability.Metrics, queryTimeout time.Duration) *Pipeline {
	return &Pipeline{
		store:        store,
		registry:     registry,
		logger:       logger,
		metrics:      metrics,
		queryTimeout: queryTimeout,
	}
}

// Registry exposes the AOR registry backing the selection surface.
func (p *Pipeline) Registry() *domain.Registry {
	return p.registry
}

// Fetch looks up the AOR, queries the store, and normalizes the result.
// Unknown AORs return an error wrapping domain.ErrUnknownAOR without touching
// the store; store failures return an error wrapping ErrStoreUnavailable.
// Malformed documents are never errors.
func (p *Pipeline) Fetch(ctx context.Context, aor string) (Result, error) {
	cfg, err := p.registry.Lookup(aor)
	if err != nil {
		return Result{}, err
	}

	start := time.Now()
	docs, err := p.query(ctx, aor)
	if err != nil {
		p.metrics.Queries.WithLabelValues(aor, "error").Inc()
		p.logger.Error("report query failed", "aor", aor, "error", err)
		return Result{}, fmt.Errorf("%w: query %s: %w", ErrStoreUnavailable, aor, err)
	}

	ds := domain.Normalize(docs)
	p.observe(aor, ds, time.Since(start))

	return Result{AOR: cfg, Dataset: ds}, nil
}

func (p *Pipeline) query(ctx context.Context, aor string) ([]domain.RawDocument, error) {
	if p.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.queryTimeout)
		defer cancel()
	}
	return p.store.QueryByAOR(ctx, aor)
}

// observe records metrics and a structured summary for one normalization pass.
func (p *Pipeline) observe(aor string, ds domain.Dataset, elapsed time.Duration) {
	p.metrics.Queries.WithLabelValues(aor, "success").Inc()
	p.metrics.QueryDuration.WithLabelValues(aor).Observe(elapsed.Seconds())
	p.metrics.DocumentsFetched.WithLabelValues(aor).Add(float64(ds.Stats.Fetched))
	for reason, n := range ds.Stats.Dropped {
		p.metrics.RowsDropped.WithLabelValues(aor, string(reason)).Add(float64(n))
	}
	if ds.Stats.InvalidTimestamps > 0 {
		p.metrics.InvalidTimestamps.WithLabelValues(aor).Add(float64(ds.Stats.InvalidTimestamps))
	}
	if outcome := ds.Outcome(); outcome != domain.OutcomeReports {
		p.metrics.EmptyDatasets.WithLabelValues(aor, string(outcome)).Inc()
	}

	level := slog.LevelDebug
	if ds.Stats.DroppedTotal() > 0 {
		level = slog.LevelWarn
	}
	p.logger.Log(context.Background(), level, "reports normalized",
		"aor", aor,
		"fetched", ds.Stats.Fetched,
		"kept", ds.Stats.Kept,
		"dropped", ds.Stats.DroppedTotal(),
		"invalid_timestamps", ds.Stats.InvalidTimestamps,
		"duration", elapsed,
	)
}

// CheckReadiness pings the store and returns an error if it is unreachable.
func (p *Pipeline) CheckReadiness(ctx context.Context) error {
	if err := p.store.Ping(ctx); err != nil {
		p.metrics.StoreUp.Set(0)
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	p.metrics.StoreUp.Set(1)
	return nil
}
