// Package mongo stores the dataset in a MongoDB collection.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"throughput-bench/config"
	"throughput-bench/dataset"
)

// Collection is a sink backed by one MongoDB collection.
type Collection struct {
	Client     *mongo.Client
	Collection *mongo.Collection
}

// Open connects with cfg and returns a sink for cfg.Collection.
func Open(ctx context.Context, cfg config.MongoConfig) (*Collection, error) {
	opts := options.Client().ApplyURI(cfg.ConnectionURI())
	if cfg.Timeout > 0 {
		opts.SetServerSelectionTimeout(cfg.Timeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect mongo %s:%d: %w", cfg.Host, cfg.Port, err)
	}
	return &Collection{
		Client:     client,
		Collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (c *Collection) Name() string { return "MongoDB" }

func (c *Collection) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx, readpref.Primary())
}

// Prepare drops the collection on replace, otherwise empties it.
// Documents carry their own fields so columns only need to be non-empty.
func (c *Collection) Prepare(ctx context.Context, columns []string, replace bool) error {
	if len(columns) == 0 {
		return fmt.Errorf("collection %s: no columns", c.Collection.Name())
	}
	if replace {
		if err := c.Collection.Drop(ctx); err != nil {
			return fmt.Errorf("drop collection %s: %w", c.Collection.Name(), err)
		}
		return nil
	}

	n, err := c.Collection.EstimatedDocumentCount(ctx)
	if err != nil {
		return fmt.Errorf("count collection %s: %w", c.Collection.Name(), err)
	}
	if n > 0 {
		return c.Clear(ctx)
	}
	return nil
}

func (c *Collection) Insert(ctx context.Context, records []dataset.Record) error {
	if len(records) == 0 {
		return nil
	}
	if _, err := c.Collection.InsertMany(ctx, documents(records)); err != nil {
		return fmt.Errorf("insert into %s: %w", c.Collection.Name(), err)
	}
	return nil
}

// documents copies records into BSON documents. A dataset _id column is
// dropped so every insert gets fresh server ids.
func documents(records []dataset.Record) []any {
	docs := make([]any, len(records))
	for i, rec := range records {
		doc := make(bson.M, len(rec))
		for k, v := range rec {
			if k == "_id" {
				continue
			}
			doc[k] = v
		}
		docs[i] = doc
	}
	return docs
}

func (c *Collection) Lookup(ctx context.Context, field string, value any) error {
	err := c.Collection.FindOne(ctx, bson.M{field: value}).Err()
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil
	}
	return err
}

func (c *Collection) Clear(ctx context.Context) error {
	_, err := c.Collection.DeleteMany(ctx, bson.D{})
	return err
}

func (c *Collection) Count(ctx context.Context) (int64, error) {
	return c.Collection.CountDocuments(ctx, bson.D{})
}

func (c *Collection) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return c.Client.Disconnect(ctx)
}
