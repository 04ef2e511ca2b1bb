//go:build integration

package integration_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math/rand/v2"
	"testing"
	"time"

	mongoadapter "github.com/couchcryptid/aor-intel-dashboard/internal/adapter/mongo"
	"github.com/couchcryptid/aor-intel-dashboard/internal/config"
	"github.com/couchcryptid/aor-intel-dashboard/internal/domain"
	"github.com/couchcryptid/aor-intel-dashboard/internal/observability"
	"github.com/couchcryptid/aor-intel-dashboard/internal/pipeline"
	"github.com/couchcryptid/aor-intel-dashboard/internal/seed"
	"github.com/couchcryptid/aor-intel-dashboard/internal/view"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"
)

// startStore runs a throwaway MongoDB and returns a Store bound to a fresh
// collection.
func startStore(ctx context.Context, t *testing.T) *mongoadapter.Store {
	t.Helper()

	container, err := mongodb.Run(ctx, "mongo:7")
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "start mongo container")

	uri, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	cfg := &config.Config{
		MongoURL:            uri,
		MongoDatabase:       "intel_db",
		MongoCollection:     "reports",
		MongoConnectTimeout: 10 * time.Second,
	}
	client, err := mongoadapter.Connect(ctx, cfg)
	require.NoError(t, err)

	store := mongoadapter.NewStore(client, cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	t.Cleanup(func() { _ = store.Close(context.Background()) })
	return store
}

func newPipeline(store pipeline.Store) *pipeline.Pipeline {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return pipeline.New(store, domain.DefaultRegistry(), logger, observability.NewMetricsForTesting(), 5*time.Second)
}

func TestSeedThenFetch(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store := startStore(ctx, t)
	p := newPipeline(store)
	require.NoError(t, p.CheckReadiness(ctx))

	gen, err := seed.NewGenerator(domain.DefaultRegistry(), clockwork.NewRealClock(), rand.New(rand.NewPCG(3, 5)), seed.Options{Count: seed.DefaultCount})
	require.NoError(t, err)
	docs, err := gen.Produce(ctx)
	require.NoError(t, err)

	n, err := store.Reseed(ctx, docs)
	require.NoError(t, err)
	assert.Equal(t, seed.DefaultCount, n)

	total := 0
	for _, aor := range p.Registry().Keys() {
		res, err := p.Fetch(ctx, aor)
		require.NoError(t, err)

		ds := res.Dataset
		assert.Zero(t, ds.Stats.DroppedTotal(), aor)
		for _, r := range ds.Reports {
			assert.Equal(t, aor, r.AOR)
			assert.True(t, r.Timestamp.Valid(), "stored dates decode as timestamps")
			assert.NotContains(t, r.Extra, domain.FieldID)
		}
		total += ds.Stats.Fetched
	}
	assert.Equal(t, seed.DefaultCount, total)
}

func TestReseedReplacesCollection(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store := startStore(ctx, t)
	p := newPipeline(store)

	_, err := store.Reseed(ctx, []domain.RawDocument{
		{"aor": "USEUCOM", "lat": 50.0, "lon": 15.0, "intensity": 10},
		{"aor": "USEUCOM", "lat": 51.0, "lon": 16.0, "intensity": 20},
	})
	require.NoError(t, err)

	_, err = store.Reseed(ctx, []domain.RawDocument{
		{"ccom": "USEUCOM", "lat": "52.5", "lon": 17.0, "intensity": "30", "timestamp": "2024-04-26 15:10:00"},
		{"aor": "USEUCOM", "lat": "unknown", "lon": 17.0, "intensity": 30},
	})
	require.NoError(t, err)

	res, err := p.Fetch(ctx, "USEUCOM")
	require.NoError(t, err)

	ds := res.Dataset
	assert.Equal(t, 2, ds.Stats.Fetched)
	assert.Equal(t, 1, ds.Stats.Dropped[domain.DropInvalidPosition])
	require.Len(t, ds.Reports, 1)
	assert.InDelta(t, 52.5, ds.Reports[0].Lat, 1e-9)
	assert.Equal(t, "2024-04-26 15:10:00", ds.Reports[0].Timestamp.Display())

	d := view.Build(res.AOR, ds)
	assert.Equal(t, view.ModeMap, d.Mode)
}

func TestConflictingAORKeysFollowCanonical(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store := startStore(ctx, t)
	_, err := store.Reseed(ctx, []domain.RawDocument{
		{"aor": "USCENTCOM", "ccom": "USEUCOM", "lat": 30.0, "lon": 50.0, "intensity": 10},
		{"ccom": "USEUCOM", "lat": 50.0, "lon": 15.0, "intensity": 20},
	})
	require.NoError(t, err)
	p := newPipeline(store)

	eucom, err := p.Fetch(ctx, "USEUCOM")
	require.NoError(t, err)
	require.Len(t, eucom.Dataset.Reports, 1)
	assert.Equal(t, "USEUCOM", eucom.Dataset.Reports[0].AOR)

	centcom, err := p.Fetch(ctx, "USCENTCOM")
	require.NoError(t, err)
	require.Len(t, centcom.Dataset.Reports, 1)
	assert.Equal(t, "USCENTCOM", centcom.Dataset.Reports[0].AOR)
}

func TestEmptyCollectionYieldsBriefing(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store := startStore(ctx, t)
	_, err := store.Reseed(ctx, nil)
	require.NoError(t, err)

	res, err := newPipeline(store).Fetch(ctx, "USINDOPACOM")
	require.NoError(t, err)

	assert.Equal(t, domain.OutcomeNoDocuments, res.Dataset.Outcome())
	assert.Equal(t, view.ModeBriefing, view.Build(res.AOR, res.Dataset).Mode)
}

func TestStoreDownIsUnavailable(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store := startStore(ctx, t)
	require.NoError(t, store.Close(ctx))

	_, err := newPipeline(store).Fetch(ctx, "USEUCOM")

	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrStoreUnavailable))
}
