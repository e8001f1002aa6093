package fetcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/IshaanNene/NewsGoat/internal/config"
)

// MongoCache is a PageCache backed by a MongoDB collection. Documents carry
// an expires_at field covered by a TTL index, and Get treats expired
// documents as misses because the TTL monitor only sweeps once a minute.
type MongoCache struct {
	client     *mongo.Client
	collection *mongo.Collection
	prefix     string
	now        func() time.Time
}

type cachedPage struct {
	Key       string    `bson:"_id"`
	Body      []byte    `bson:"body"`
	ExpiresAt time.Time `bson:"expires_at"`
}

// NewMongoCache connects to MongoDB and ensures the TTL index exists.
func NewMongoCache(cfg config.CacheConfig) (*MongoCache, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ping: %w", err)
	}

	coll := client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb ttl index: %w", err)
	}

	return &MongoCache{
		client:     client,
		collection: coll,
		prefix:     cfg.KeyPrefix,
		now:        time.Now,
	}, nil
}

func (c *MongoCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var page cachedPage
	err := c.collection.FindOne(ctx, bson.D{{Key: "_id", Value: c.prefix + key}}).Decode(&page)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if !c.now().Before(page.ExpiresAt) {
		return nil, false, nil
	}
	return page.Body, true, nil
}

func (c *MongoCache) Set(ctx context.Context, key string, body []byte, ttl time.Duration) error {
	page := cachedPage{
		Key:       c.prefix + key,
		Body:      body,
		ExpiresAt: c.now().Add(ttl).UTC(),
	}
	_, err := c.collection.ReplaceOne(ctx,
		bson.D{{Key: "_id", Value: page.Key}},
		page,
		options.Replace().SetUpsert(true),
	)
	return err
}

func (c *MongoCache) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.client.Disconnect(ctx)
}
