package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/valhq/flowscope/pkg/errors"
	"github.com/valhq/flowscope/pkg/httputil"
)

// MongoConfig locates the layouts collection.
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore persists saved layouts in a MongoDB collection, keyed by
// flowchart id via the document _id.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// NewMongoStore connects to MongoDB and verifies the connection with a
// ping before returning. The ping is retried briefly since MongoDB may
// still be coming up alongside us.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "connect to mongodb")
	}
	err = httputil.RetryWithBackoff(ctx, func() error {
		return httputil.Retryable(client.Ping(ctx, nil))
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "ping mongodb")
	}

	db := cfg.Database
	if db == "" {
		db = "flowscope"
	}
	coll := cfg.Collection
	if coll == "" {
		coll = "layouts"
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(db).Collection(coll),
	}, nil
}

func (s *MongoStore) Get(ctx context.Context, flowchartID string) (SavedLayout, bool, error) {
	var saved SavedLayout
	err := s.coll.FindOne(ctx, bson.M{"_id": flowchartID}).Decode(&saved)
	if err == mongo.ErrNoDocuments {
		return SavedLayout{}, false, nil
	}
	if err != nil {
		return SavedLayout{}, false, errors.Wrap(errors.ErrCodeInternal, err, "load layout %s", flowchartID)
	}
	return saved, true, nil
}

func (s *MongoStore) Put(ctx context.Context, saved SavedLayout) error {
	if saved.UpdatedAt.IsZero() {
		saved.UpdatedAt = time.Now().UTC()
	}
	_, err := s.coll.ReplaceOne(ctx,
		bson.M{"_id": saved.FlowchartID},
		saved,
		options.Replace().SetUpsert(true))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "save layout %s", saved.FlowchartID)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, flowchartID string) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": flowchartID}); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "delete layout %s", flowchartID)
	}
	return nil
}

func (s *MongoStore) List(ctx context.Context) ([]SavedLayout, error) {
	cursor, err := s.coll.Find(ctx, bson.M{},
		options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "list layouts")
	}
	defer cursor.Close(ctx)

	var all []SavedLayout
	if err := cursor.All(ctx, &all); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "decode layouts")
	}
	return all, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
