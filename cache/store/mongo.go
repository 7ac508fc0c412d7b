package store

import (
	"context"
	"fmt"
	"time"

	"github.com/sweetpotato0/agri-advisor/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoConnectTimeout = 10 * time.Second

// MongoStore keeps one document per key. The server reaps documents through
// a TTL index on expires_at, which runs about once a minute, so reads filter
// on expiry as well.
type MongoStore struct {
	coll       *mongo.Collection
	disconnect func(context.Context) error
}

type mongoDoc struct {
	Key       string     `bson:"_id"`
	Value     []byte     `bson:"value"`
	CreatedAt time.Time  `bson:"created_at"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// OpenMongoStore connects to uri and uses database.collection.
func OpenMongoStore(ctx context.Context, uri, database, collection string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	s, err := NewMongoStore(ctx, client.Database(database).Collection(collection))
	if err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	s.disconnect = client.Disconnect
	return s, nil
}

// NewMongoStore ensures the indexes on coll. Close leaves the client open.
func NewMongoStore(ctx context.Context, coll *mongo.Collection) (*MongoStore, error) {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0).SetName("ttl_expires_at"),
		},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	})
	if err != nil {
		return nil, fmt.Errorf("mongo indexes on %s: %w", coll.Name(), err)
	}
	return &MongoStore{coll: coll}, nil
}

// live matches documents without expiry or expiring after now.
func live(now time.Time) bson.D {
	return bson.D{{Key: "$or", Value: bson.A{
		bson.D{{Key: "expires_at", Value: bson.D{{Key: "$exists", Value: false}}}},
		bson.D{{Key: "expires_at", Value: bson.D{{Key: "$gt", Value: now}}}},
	}}}
}

func (s *MongoStore) Get(ctx context.Context, key string) (*Entry, error) {
	filter := bson.D{{Key: "_id", Value: key}}
	filter = append(filter, live(time.Now())...)

	var doc mongoDoc
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return nil, fmt.Errorf("cache key %q: %w", key, errors.ErrNotFound)
	case err != nil:
		return nil, fmt.Errorf("mongo get %q: %w", key, err)
	}
	e := &Entry{Key: doc.Key, Value: doc.Value, CreatedAt: doc.CreatedAt}
	if doc.ExpiresAt != nil {
		e.ExpiresAt = *doc.ExpiresAt
	}
	return e, nil
}

func (s *MongoStore) Put(ctx context.Context, entry *Entry) error {
	if entry == nil || entry.Key == "" {
		return fmt.Errorf("cache entry without key: %w", errors.ErrInvalidInput)
	}
	doc := mongoDoc{Key: entry.Key, Value: entry.Value, CreatedAt: entry.CreatedAt}
	if !entry.ExpiresAt.IsZero() {
		exp := entry.ExpiresAt
		doc.ExpiresAt = &exp
	}
	_, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: entry.Key}}, doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("mongo put %q: %w", entry.Key, err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, key string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: key}}); err != nil {
		return fmt.Errorf("mongo delete %q: %w", key, err)
	}
	return nil
}

// Cleanup deletes expired documents the TTL monitor has not reached yet.
func (s *MongoStore) Cleanup(ctx context.Context) (int, error) {
	res, err := s.coll.DeleteMany(ctx, bson.D{{Key: "expires_at", Value: bson.D{{Key: "$lte", Value: time.Now()}}}})
	if err != nil {
		return 0, fmt.Errorf("mongo cleanup: %w", err)
	}
	return int(res.DeletedCount), nil
}

func (s *MongoStore) Stats(ctx context.Context) (Stats, error) {
	cur, err := s.coll.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$match", Value: live(time.Now())}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: nil},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "oldest", Value: bson.D{{Key: "$min", Value: "$created_at"}}},
			{Key: "newest", Value: bson.D{{Key: "$max", Value: "$created_at"}}},
			{Key: "size", Value: bson.D{{Key: "$sum", Value: bson.D{{Key: "$bsonSize", Value: "$$ROOT"}}}}},
		}}},
	})
	if err != nil {
		return Stats{}, fmt.Errorf("mongo stats: %w", err)
	}
	defer cur.Close(ctx)

	var out struct {
		Count  int       `bson:"count"`
		Oldest time.Time `bson:"oldest"`
		Newest time.Time `bson:"newest"`
		Size   int64     `bson:"size"`
	}
	if !cur.Next(ctx) {
		return Stats{}, cur.Err()
	}
	if err := cur.Decode(&out); err != nil {
		return Stats{}, fmt.Errorf("mongo stats: %w", err)
	}
	return Stats{Count: out.Count, Oldest: out.Oldest, Newest: out.Newest, ApproxSizeBytes: out.Size}, nil
}

// Close disconnects the client when the store opened it.
func (s *MongoStore) Close() error {
	if s.disconnect == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.disconnect(ctx)
}
