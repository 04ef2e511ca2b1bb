package seed

import (
	"context"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/couchcryptid/aor-intel-dashboard/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, time.April, 27, 6, 0, 0, 0, time.UTC)

func newTestGenerator(t *testing.T, opts Options) *Generator {
	t.Helper()
	g, err := NewGenerator(domain.DefaultRegistry(), clockwork.NewFakeClockAt(fixedNow), rand.New(rand.NewPCG(1, 2)), opts)
	require.NoError(t, err)
	return g
}

func TestGenerator_ProducesWellFormedDocuments(t *testing.T) {
	g := newTestGenerator(t, Options{Count: DefaultCount})
	reg := domain.DefaultRegistry()

	docs, err := g.Produce(context.Background())
	require.NoError(t, err)
	require.Len(t, docs, DefaultCount)

	for _, doc := range docs {
		cfg, err := reg.Lookup(doc[domain.FieldAOR].(string))
		require.NoError(t, err)

		assert.Contains(t, cfg.Countries, doc[domain.FieldCountry])
		assert.InDelta(t, cfg.Lat, doc[domain.FieldLat].(float64), jitterDegrees)
		assert.InDelta(t, cfg.Lon, doc[domain.FieldLon].(float64), jitterDegrees)

		intensity := doc[domain.FieldIntensity].(int)
		assert.GreaterOrEqual(t, intensity, minIntensity)
		assert.LessOrEqual(t, intensity, maxIntensity)

		ts := doc[domain.FieldTimestamp].(time.Time)
		assert.False(t, ts.After(fixedNow.Add(-time.Hour)))
		assert.False(t, ts.Before(fixedNow.Add(-maxAgeHours*time.Hour)))

		assert.Equal(t, mockSummary, doc[domain.FieldSummary])
		assert.Equal(t, mockSource, doc[domain.FieldSource])
		_, err = uuid.Parse(doc[FieldRef].(string))
		assert.NoError(t, err)
	}
}

func TestGenerator_NormalizesWithoutDrops(t *testing.T) {
	docs, err := newTestGenerator(t, Options{Count: 50}).Produce(context.Background())
	require.NoError(t, err)

	ds := domain.Normalize(docs)

	assert.Equal(t, 50, ds.Stats.Kept)
	assert.Zero(t, ds.Stats.DroppedTotal())
	assert.Zero(t, ds.Stats.InvalidTimestamps)
	assert.Equal(t, []string{"timestamp", "country", "summary", "intensity"}, ds.Columns)
	assert.Contains(t, ds.Reports[0].Extra, FieldRef)
}

func TestGenerator_MalformedRatio(t *testing.T) {
	docs, err := newTestGenerator(t, Options{Count: 200, MalformedRatio: 1}).Produce(context.Background())
	require.NoError(t, err)

	ds := domain.Normalize(docs)

	assert.Equal(t, 200, ds.Stats.Fetched)
	assert.Positive(t, ds.Stats.DroppedTotal())
	assert.Positive(t, ds.Stats.InvalidTimestamps)
	assert.Equal(t, ds.Stats.Fetched, ds.Stats.Kept+ds.Stats.DroppedTotal())
}

func TestGenerator_LegacyKeys(t *testing.T) {
	docs, err := newTestGenerator(t, Options{Count: 5, LegacyKeys: true}).Produce(context.Background())
	require.NoError(t, err)

	for _, doc := range docs {
		assert.Contains(t, doc, domain.FieldAORLegacy)
		assert.NotContains(t, doc, domain.FieldAOR)
	}
	ds := domain.Normalize(docs)
	for _, r := range ds.Reports {
		assert.NotEmpty(t, r.AOR)
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	a, err := newTestGenerator(t, Options{Count: 10}).Produce(context.Background())
	require.NoError(t, err)
	b, err := newTestGenerator(t, Options{Count: 10}).Produce(context.Background())
	require.NoError(t, err)

	for i := range a {
		assert.Equal(t, a[i][domain.FieldLat], b[i][domain.FieldLat])
		assert.Equal(t, a[i][domain.FieldIntensity], b[i][domain.FieldIntensity])
	}
}

func TestGenerator_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestGenerator(t, Options{Count: 10}).Produce(ctx)

	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewGenerator_RejectsBadOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"negative count", Options{Count: -1}},
		{"ratio below zero", Options{Count: 1, MalformedRatio: -0.1}},
		{"ratio above one", Options{Count: 1, MalformedRatio: 1.5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGenerator(domain.DefaultRegistry(), clockwork.NewFakeClock(), nil, tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestGenerator_ImplementsProducer(t *testing.T) {
	var _ Producer = newTestGenerator(t, Options{})
}
