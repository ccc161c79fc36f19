package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/fwerkmann/stackflow/pkg/errors"
)

// Defaults applied by Config.withDefaults.
const (
	DefaultDatabase   = "stackflow"
	DefaultCollection = "diagrams"
	DefaultTimeout    = 10 * time.Second
)

// Config configures the MongoDB store backend.
type Config struct {
	URI        string        // mongodb:// connection string (required)
	Database   string        // defaults to "stackflow"
	Collection string        // defaults to "diagrams"
	Timeout    time.Duration // per-operation bound, defaults to 10s
}

func (c Config) withDefaults() Config {
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.Collection == "" {
		c.Collection = DefaultCollection
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// MongoStore implements Store on MongoDB so several machines can share one
// set of published diagrams.
type MongoStore struct {
	client  *mongo.Client
	col     *mongo.Collection
	timeout time.Duration
}

// NewMongoStore connects to MongoDB, verifies the connection with a ping
// and ensures the unique index on diagram names.
func NewMongoStore(ctx context.Context, cfg Config) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "store URI is required")
	}
	cfg = cfg.withDefaults()

	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to store")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ping store")
	}

	col := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStore, err, "ensure name index")
	}

	return &MongoStore{client: client, col: col, timeout: cfg.Timeout}, nil
}

// opCtx bounds a single operation with the configured timeout.
func (s *MongoStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Save inserts or replaces the diagram stored under d.Name. The upsert
// keeps _id and created_at across replacements so a name stays a stable
// handle to the latest render.
func (s *MongoStore) Save(ctx context.Context, d *Diagram) error {
	if err := validateName(d.Name); err != nil {
		return err
	}
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	now := time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"title":      d.Title,
			"graph_hash": d.GraphHash,
			"document":   d.Document,
			"svg":        d.SVG,
			"node_count": d.NodeCount,
			"edge_count": d.EdgeCount,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{
			"_id":        uuid.NewString(),
			"name":       d.Name,
			"created_at": now,
		},
	}
	_, err := s.col.UpdateOne(ctx, bson.M{"name": d.Name}, update, options.Update().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "save diagram %q", d.Name)
	}
	return nil
}

// Get returns the diagram stored under name.
func (s *MongoStore) Get(ctx context.Context, name string) (*Diagram, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var d Diagram
	err := s.col.FindOne(ctx, bson.M{"name": name}).Decode(&d)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeDiagramNotFound, "diagram %q not found", name)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "load diagram %q", name)
	}
	return &d, nil
}

// List returns a summary of every stored diagram, most recently updated
// first. The projection leaves the document and SVG behind so listing
// stays cheap even with large diagrams.
func (s *MongoStore) List(ctx context.Context) ([]Summary, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	opts := options.Find().
		SetProjection(bson.M{"svg": 0, "document": 0}).
		SetSort(bson.D{{Key: "updated_at", Value: -1}})
	cur, err := s.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list diagrams")
	}
	var out []Summary
	if err := cur.All(ctx, &out); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list diagrams")
	}
	return out, nil
}

// Delete removes the diagram stored under name.
func (s *MongoStore) Delete(ctx context.Context, name string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	res, err := s.col.DeleteOne(ctx, bson.M{"name": name})
	if err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete diagram %q", name)
	}
	if res.DeletedCount == 0 {
		return errors.New(errors.ErrCodeDiagramNotFound, "diagram %q not found", name)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// Ensure MongoStore implements Store.
var _ Store = (*MongoStore)(nil)
