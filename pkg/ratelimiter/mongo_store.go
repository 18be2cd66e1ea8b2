package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// DefaultMongoCollection is the collection name shared by all endpoint
// buckets and keys; every query is scoped by the (key, endpoint) filter,
// so no partitioning is needed.
const DefaultMongoCollection = "rate_limits"

// MongoStore implements Store on a MongoDB collection. Expiry is
// delegated to a TTL index on expires_at; a compound index on
// (key, endpoint, created_at) keeps window counts indexed.
type MongoStore struct {
	coll *mongo.Collection
}

// MongoStoreOption configures a MongoStore.
type MongoStoreOption func(*mongoStoreConfig)

type mongoStoreConfig struct {
	collection string
}

// WithMongoCollection overrides the collection name.
func WithMongoCollection(name string) MongoStoreOption {
	return func(c *mongoStoreConfig) {
		if name != "" {
			c.collection = name
		}
	}
}

// NewMongoStore creates a store on db. Construction performs no I/O: a
// temporarily unreachable server surfaces as per-operation errors, which
// the engine converts into degraded decisions rather than failures.
func NewMongoStore(db *mongo.Database, opts ...MongoStoreOption) *MongoStore {
	cfg := mongoStoreConfig{collection: DefaultMongoCollection}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &MongoStore{coll: db.Collection(cfg.collection)}
}

// EnsureIndexes creates the TTL index that expires records at expires_at
// and the compound lookup index for window queries. Safe to call on
// every startup; MongoDB treats existing identical indexes as a no-op.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
		{
			Keys: bson.D{
				{Key: "key", Value: 1},
				{Key: "endpoint", Value: 1},
				{Key: "created_at", Value: 1},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create rate limit indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Record(ctx context.Context, rec Record) error {
	if _, err := s.coll.InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("insert rate limit record: %w", err)
	}
	return nil
}

// Count filters by created_at, not by physical presence alone: an
// expired record the TTL monitor has not deleted yet is still excluded.
func (s *MongoStore) Count(ctx context.Context, key, endpoint string, since time.Time) (int64, error) {
	n, err := s.coll.CountDocuments(ctx, windowFilter(key, endpoint, since))
	if err != nil {
		return 0, fmt.Errorf("count rate limit records: %w", err)
	}
	return n, nil
}

func (s *MongoStore) Oldest(ctx context.Context, key, endpoint string, since time.Time) (time.Time, bool, error) {
	var rec Record
	err := s.coll.FindOne(ctx,
		windowFilter(key, endpoint, since),
		options.FindOne().SetSort(bson.D{{Key: "created_at", Value: 1}}),
	).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("find oldest rate limit record: %w", err)
	}
	return rec.CreatedAt, true, nil
}

func windowFilter(key, endpoint string, since time.Time) bson.M {
	return bson.M{
		"key":        key,
		"endpoint":   endpoint,
		"created_at": bson.M{"$gte": since},
	}
}
