package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestMongoBlobStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("get returns stored value", func(mt *mtest.T) {
		store := NewMongoBlobStore(mt.Client, "fincorp", "blobs")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "fincorp.blobs", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: testKey},
			{Key: "value", Value: []byte(`[{"id":"c1"}]`)},
		}))

		data, err := store.Get(context.Background(), testKey)
		require.NoError(mt, err)
		assert.JSONEq(mt, `[{"id":"c1"}]`, string(data))
	})

	mt.Run("missing document maps to blob not found", func(mt *mtest.T) {
		store := NewMongoBlobStore(mt.Client, "fincorp", "blobs")
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "fincorp.blobs", mtest.FirstBatch))

		_, err := store.Get(context.Background(), testKey)
		assert.ErrorIs(mt, err, ErrBlobNotFound)
	})

	mt.Run("set upserts", func(mt *mtest.T) {
		store := NewMongoBlobStore(mt.Client, "fincorp", "blobs")
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: testKey}}}},
		))

		require.NoError(mt, store.Set(context.Background(), testKey, []byte(`[]`)))
	})

	mt.Run("set surfaces server errors", func(mt *mtest.T) {
		store := NewMongoBlobStore(mt.Client, "fincorp", "blobs")
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    13,
			Name:    "Unauthorized",
			Message: "not authorized on fincorp",
		}))

		assert.Error(mt, store.Set(context.Background(), testKey, []byte(`[]`)))
	})

	mt.Run("backs the client repository", func(mt *mtest.T) {
		repo := NewClientRepository(NewMongoBlobStore(mt.Client, "fincorp", "blobs"), testKey, nil)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "fincorp.blobs", mtest.FirstBatch))

		clients, err := repo.GetAll(context.Background())
		require.NoError(mt, err)
		assert.Empty(mt, clients)
	})
}
