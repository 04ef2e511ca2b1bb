package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/aor-intel-dashboard/internal/domain"
	"github.com/couchcryptid/aor-intel-dashboard/internal/observability"
	"github.com/couchcryptid/aor-intel-dashboard/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockStore struct {
	docs    map[string][]domain.RawDocument
	err     error
	pingErr error
	block   bool
	queried []string
}

func (m *mockStore) QueryByAOR(ctx context.Context, aor string) ([]domain.RawDocument, error) {
	m.queried = append(m.queried, aor)
	if m.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.err != nil {
		return nil, m.err
	}
	return m.docs[aor], nil
}

func (m *mockStore) Ping(_ context.Context) error { return m.pingErr }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newPipeline(store pipeline.Store, metrics *observability.Metrics, timeout time.Duration) *pipeline.Pipeline {
	return pipeline.New(store, domain.DefaultRegistry(), discardLogger(), metrics, timeout)
}

// --- tests ---

func TestPipeline_Fetch_HappyPath(t *testing.T) {
	store := &mockStore{docs: map[string][]domain.RawDocument{
		"USEUCOM": {
			{"_id": "a1", "ccom": "USEUCOM", "lat": 51.0, "lon": 16.0, "intensity": 80, "summary": "X"},
			{"_id": "a2", "ccom": "USEUCOM", "lat": "bad", "lon": 16.0, "intensity": 80},
		},
	}}
	metrics := observability.NewMetricsForTesting()
	p := newPipeline(store, metrics, time.Second)

	res, err := p.Fetch(context.Background(), "USEUCOM")
	require.NoError(t, err)

	assert.Equal(t, "USEUCOM", res.AOR.Name)
	assert.Equal(t, 3, res.AOR.Zoom)
	require.Len(t, res.Dataset.Reports, 1)
	assert.Equal(t, "USEUCOM", res.Dataset.Reports[0].AOR)
	assert.Equal(t, []string{"USEUCOM"}, store.queried)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Queries.WithLabelValues("USEUCOM", "success")), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.DocumentsFetched.WithLabelValues("USEUCOM")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RowsDropped.WithLabelValues("USEUCOM", "invalid_position")), 0)
}

func TestPipeline_Fetch_UnknownAOR(t *testing.T) {
	store := &mockStore{}
	p := newPipeline(store, observability.NewMetricsForTesting(), time.Second)

	_, err := p.Fetch(context.Background(), "USNORTHCOM")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnknownAOR)
	assert.Empty(t, store.queried, "store must not be queried for unknown AORs")
}

func TestPipeline_Fetch_StoreError(t *testing.T) {
	store := &mockStore{err: errors.New("connection refused")}
	metrics := observability.NewMetricsForTesting()
	p := newPipeline(store, metrics, time.Second)

	_, err := p.Fetch(context.Background(), "USCENTCOM")

	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrStoreUnavailable)
	assert.Contains(t, err.Error(), "connection refused")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.Queries.WithLabelValues("USCENTCOM", "error")), 0)
}

func TestPipeline_Fetch_QueryTimeout(t *testing.T) {
	store := &mockStore{block: true}
	p := newPipeline(store, observability.NewMetricsForTesting(), 20*time.Millisecond)

	start := time.Now()
	_, err := p.Fetch(context.Background(), "USEUCOM")

	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestPipeline_Fetch_NoDocuments(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	p := newPipeline(&mockStore{}, metrics, time.Second)

	res, err := p.Fetch(context.Background(), "USINDOPACOM")
	require.NoError(t, err)

	assert.True(t, res.Dataset.Empty())
	assert.Equal(t, domain.OutcomeNoDocuments, res.Dataset.Outcome())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.EmptyDatasets.WithLabelValues("USINDOPACOM", "no_documents")), 0)
}

func TestPipeline_Fetch_AllFiltered(t *testing.T) {
	store := &mockStore{docs: map[string][]domain.RawDocument{
		"USCENTCOM": {
			{"aor": "USCENTCOM", "lat": "?", "lon": 44.0, "intensity": 50},
			{"aor": "USCENTCOM", "lat": 33.3, "lon": 44.4, "intensity": "n/a", "timestamp": "garbage"},
		},
	}}
	metrics := observability.NewMetricsForTesting()
	p := newPipeline(store, metrics, 0)

	res, err := p.Fetch(context.Background(), "USCENTCOM")
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeAllFiltered, res.Dataset.Outcome())
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.EmptyDatasets.WithLabelValues("USCENTCOM", "all_filtered")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.RowsDropped.WithLabelValues("USCENTCOM", "invalid_intensity")), 0)
}

func TestPipeline_CheckReadiness(t *testing.T) {
	t.Run("store reachable", func(t *testing.T) {
		metrics := observability.NewMetricsForTesting()
		p := newPipeline(&mockStore{}, metrics, time.Second)

		require.NoError(t, p.CheckReadiness(context.Background()))
		assert.InDelta(t, 1, testutil.ToFloat64(metrics.StoreUp), 0)
	})

	t.Run("store unreachable", func(t *testing.T) {
		metrics := observability.NewMetricsForTesting()
		p := newPipeline(&mockStore{pingErr: errors.New("server selection timeout")}, metrics, time.Second)

		err := p.CheckReadiness(context.Background())
		require.Error(t, err)
		assert.ErrorIs(t, err, pipeline.ErrStoreUnavailable)
		assert.InDelta(t, 0, testutil.ToFloat64(metrics.StoreUp), 0)
	})
}

func TestPipeline_Registry(t *testing.T) {
	p := newPipeline(&mockStore{}, observability.NewMetricsForTesting(), time.Second)
	assert.Equal(t, []string{"USCENTCOM", "USEUCOM", "USINDOPACOM"}, p.Registry().Keys())
}
