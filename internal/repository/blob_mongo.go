package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type blobDocument struct {
	Key       string    `bson:"_id"`
	Value     []byte    `bson:"value"`
	UpdatedAt time.Time `bson:"updatedAt"`
}

type mongoBlobStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoBlobStore keeps one document per key in collection.
func NewMongoBlobStore(client *mongo.Client, database, collection string) BlobStore {
	return &mongoBlobStore{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}
}

func (s *mongoBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	var doc blobDocument
	err := s.collection.FindOne(ctx, bson.M{"_id": key}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrBlobNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc.Value, nil
}

func (s *mongoBlobStore) Set(ctx context.Context, key string, value []byte) error {
	doc := blobDocument{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := s.collection.ReplaceOne(ctx, bson.M{"_id": key}, doc, options.Replace().SetUpsert(true))
	return err
}

func (s *mongoBlobStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}
