package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/jzagalv/ssaa-designer/pkg/observability"
	"github.com/jzagalv/ssaa-designer/pkg/schema"
)

// MongoConfig configures the MongoDB-backed store.
type MongoConfig struct {
	// URI is the MongoDB connection string.
	URI string
	// Database holds the designer collections. Defaults to "ssaa_designer".
	Database string
	// Collection holds project documents. Defaults to "projects".
	Collection string
}

// Mongo stores projects in MongoDB, one document per project keyed by name.
type Mongo struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoDoc wraps a project document with its storage key.
type mongoDoc struct {
	Name      string                 `bson:"_id"`
	Project   schema.ProjectDocument `bson:"project"`
	UpdatedAt time.Time              `bson:"updated_at"`
}

// NewMongo connects to MongoDB and verifies the connection.
func NewMongo(ctx context.Context, cfg MongoConfig) (*Mongo, error) {
	if cfg.Database == "" {
		cfg.Database = "ssaa_designer"
	}
	if cfg.Collection == "" {
		cfg.Collection = "projects"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}
	return &Mongo{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

func (s *Mongo) Load(ctx context.Context, name string) (*schema.ProjectDocument, error) {
	start := time.Now()
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		observability.Store().OnLoad(ctx, "mongo", name, time.Since(start), ErrNotFound)
		return nil, fmt.Errorf("load %q: %w", name, ErrNotFound)
	}
	if err != nil {
		observability.Store().OnLoad(ctx, "mongo", name, time.Since(start), err)
		return nil, fmt.Errorf("mongodb find: %w", err)
	}
	observability.Store().OnLoad(ctx, "mongo", name, time.Since(start), nil)
	return &doc.Project, nil
}

func (s *Mongo) Save(ctx context.Context, name string, doc *schema.ProjectDocument) error {
	start := time.Now()
	wrapped := mongoDoc{Name: name, Project: *doc, UpdatedAt: time.Now().UTC()}
	_, err := s.coll.ReplaceOne(ctx, bson.M{"_id": name}, wrapped, options.Replace().SetUpsert(true))
	observability.Store().OnSave(ctx, "mongo", name, 0, time.Since(start), err)
	if err != nil {
		return fmt.Errorf("mongodb replace: %w", err)
	}
	return nil
}

func (s *Mongo) Delete(ctx context.Context, name string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": name}); err != nil {
		return fmt.Errorf("mongodb delete: %w", err)
	}
	return nil
}

func (s *Mongo) List(ctx context.Context) ([]string, error) {
	values, err := s.coll.Distinct(ctx, "_id", bson.M{})
	if err != nil {
		return nil, fmt.Errorf("mongodb distinct: %w", err)
	}
	var names []string
	for _, v := range values {
		if name, ok := v.(string); ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *Mongo) Close() error {
	return s.client.Disconnect(context.Background())
}

var _ Store = (*Mongo)(nil)
