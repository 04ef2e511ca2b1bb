package mongo

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/aor-intel-dashboard/internal/config"
	"github.com/couchcryptid/aor-intel-dashboard/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	mongodrv "go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Connect opens the process-wide client. The driver pools connections, so a
// single client is shared by every request and closed once at shutdown.
func Connect(ctx context.Context, cfg *config.Config) (*mongodrv.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.MongoURL).
		SetConnectTimeout(cfg.MongoConnectTimeout).
		SetServerSelectionTimeout(cfg.MongoConnectTimeout).
		SetAppName("aor-intel-dashboard")

	client, err := mongodrv.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	return client, nil
}

// Store reads and writes report documents in a MongoDB collection.
// It implements pipeline.Store.
type Store struct {
	client *mongodrv.Client
	coll   *mongodrv.Collection
	logger *slog.Logger
}

// NewStore binds a Store to the configured database and collection.
func NewStore(client *mongodrv.Client, cfg *config.Config, logger *slog.Logger) *Store {
	return &Store{
		client: client,
		coll:   client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection),
		logger: logger,
	}
}

// aorFilter matches documents filed under the AOR. The legacy key is only
// consulted when the canonical key is missing, the same precedence
// normalization applies.
func aorFilter(aor string) bson.M {
	return bson.M{"$or": bson.A{
		bson.M{domain.FieldAOR: aor},
		bson.M{
			domain.FieldAOR:       bson.M{"$exists": false},
			domain.FieldAORLegacy: aor,
		},
	}}
}

// QueryByAOR returns every document filed under the AOR. No match yields an
// empty slice. Connectivity and timeout failures are returned as-is.
func (s *Store) QueryByAOR(ctx context.Context, aor string) ([]domain.RawDocument, error) {
	cur, err := s.coll.Find(ctx, aorFilter(aor))
	if err != nil {
		return nil, fmt.Errorf("find reports: %w", err)
	}
	defer cur.Close(ctx) //nolint:errcheck // cursor already drained or errored

	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, fmt.Errorf("decode reports: %w", err)
	}

	docs := make([]domain.RawDocument, 0, len(raw))
	for _, m := range raw {
		docs = append(docs, toRawDocument(m))
	}
	s.logger.Debug("reports queried", "aor", aor, "count", len(docs))
	return docs, nil
}

// Reseed clears the collection and inserts docs. It is a bulk reset for demo
// data, not an incremental write path.
func (s *Store) Reseed(ctx context.Context, docs []domain.RawDocument) (int, error) {
	del, err := s.coll.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("clear reports: %w", err)
	}
	s.logger.Info("reports cleared", "deleted", del.DeletedCount)

	if len(docs) == 0 {
		return 0, nil
	}

	batch := make([]any, len(docs))
	for i, d := range docs {
		batch[i] = map[string]any(d)
	}
	res, err := s.coll.InsertMany(ctx, batch)
	if err != nil {
		return 0, fmt.Errorf("insert reports: %w", err)
	}
	return len(res.InsertedIDs), nil
}

// Ping checks that the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the underlying client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
