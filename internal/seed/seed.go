// Package seed produces report documents for the store. Generator creates
// synthetic demo data; live feeds implement Producer the same way.
package seed

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/couchcryptid/aor-intel-dashboard/internal/domain"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

const (
	// DefaultCount is the number of documents a demo seed writes.
	DefaultCount = 100

	mockSummary = "MOCK INTEL: Detected regional movement pattern."
	mockSource  = "Synthetic Generator"

	jitterDegrees = 10.0
	minIntensity  = 20
	maxIntensity  = 100
	maxAgeHours   = 48
)

// FieldRef is the extra field carrying a generated document's identifier.
const FieldRef = "ref"

// Producer yields a batch of raw report documents.
type Producer interface {
	Produce(ctx context.Context) ([]domain.RawDocument, error)
}

// Options controls a Generator batch.
type Options struct {
	Count int
	// MalformedRatio is the fraction of documents, in [0, 1], that carry a
	// bad position, intensity, or timestamp.
	MalformedRatio float64
	// LegacyKeys writes "ccom" instead of "aor".
	LegacyKeys bool
}

// Generator produces synthetic reports scattered around each AOR center.
type Generator struct {
	registry *domain.Registry
	clock    clockwork.Clock
	rng      *rand.Rand
	opts     Options
}

// NewGenerator returns a Generator. A nil rng uses a randomly seeded source.
func NewGenerator(registry *domain.Registry, clock clockwork.Clock, rng *rand.Rand, opts Options) (*Generator, error) {
	if opts.Count < 0 {
		return nil, fmt.Errorf("count must be non-negative, got %d", opts.Count)
	}
	if opts.MalformedRatio < 0 || opts.MalformedRatio > 1 {
		return nil, fmt.Errorf("malformed ratio must be in [0, 1], got %g", opts.MalformedRatio)
	}
	if len(registry.Keys()) == 0 {
		return nil, errors.New("registry has no AORs")
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())) //nolint:gosec // demo data
	}
	return &Generator{registry: registry, clock: clock, rng: rng, opts: opts}, nil
}

// Produce generates Options.Count documents.
func (g *Generator) Produce(ctx context.Context) ([]domain.RawDocument, error) {
	keys := g.registry.Keys()
	now := g.clock.Now()

	docs := make([]domain.RawDocument, 0, g.opts.Count)
	for range g.opts.Count {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		cfg, err := g.registry.Lookup(keys[g.rng.IntN(len(keys))])
		if err != nil {
			return nil, err
		}
		doc := g.document(cfg, now)
		if g.rng.Float64() < g.opts.MalformedRatio {
			g.corrupt(doc)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (g *Generator) document(cfg domain.AORConfig, now time.Time) domain.RawDocument {
	aorKey := domain.FieldAOR
	if g.opts.LegacyKeys {
		aorKey = domain.FieldAORLegacy
	}
	doc := domain.RawDocument{
		aorKey:                cfg.Name,
		domain.FieldLat:       cfg.Lat + g.jitter(),
		domain.FieldLon:       cfg.Lon + g.jitter(),
		domain.FieldIntensity: minIntensity + g.rng.IntN(maxIntensity-minIntensity+1),
		domain.FieldSummary:   mockSummary,
		domain.FieldSource:    mockSource,
		domain.FieldTimestamp: now.Add(-time.Duration(1+g.rng.IntN(maxAgeHours)) * time.Hour).UTC(),
		FieldRef:              uuid.NewString(),
	}
	if len(cfg.Countries) > 0 {
		doc[domain.FieldCountry] = cfg.Countries[g.rng.IntN(len(cfg.Countries))]
	}
	return doc
}

func (g *Generator) jitter() float64 {
	return (g.rng.Float64()*2 - 1) * jitterDegrees
}

// corrupt applies one data-quality fault seen from real feeds.
func (g *Generator) corrupt(doc domain.RawDocument) {
	switch g.rng.IntN(4) {
	case 0:
		doc[domain.FieldLat] = "unknown"
	case 1:
		delete(doc, domain.FieldIntensity)
	case 2:
		doc[domain.FieldLon] = "NaN"
	default:
		doc[domain.FieldTimestamp] = "yesterday"
	}
}
