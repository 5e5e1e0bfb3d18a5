package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"parlour/models"
	"parlour/utils"
)

func TestMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upsert inserts", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 0},
			bson.E{Key: "upserted", Value: bson.A{bson.D{{Key: "index", Value: 0}, {Key: "_id", Value: id}}}},
		))

		name := "Nadia"
		res, err := store.Upsert(context.Background(), "new@example.com", models.ProfileUpdate{Name: &name})
		require.NoError(mt, err)
		assert.EqualValues(mt, 1, res.UpsertedCount)
		assert.Equal(mt, id.Hex(), res.UpsertedID)
	})

	mt.Run("find by email", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: primitive.NewObjectID()},
			{Key: "email", Value: "boss@example.com"},
			{Key: "role", Value: "admin"},
		}))

		u, err := store.FindByEmail(context.Background(), "boss@example.com")
		require.NoError(mt, err)
		assert.Equal(mt, models.RoleAdmin, u.Role)
	})

	mt.Run("find missing", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		ns := mt.Coll.Database().Name() + "." + mt.Coll.Name()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := store.FindByEmail(context.Background(), "ghost@example.com")
		assert.ErrorIs(mt, err, utils.ErrNotFound)
	})

	mt.Run("set role on unknown email", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		res, err := store.SetRole(context.Background(), "ghost@example.com", models.RoleAdmin)
		require.NoError(mt, err)
		assert.EqualValues(mt, 0, res.MatchedCount)
	})

	mt.Run("store error is upstream", func(mt *mtest.T) {
		store := NewMongoStore(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 2, Message: "bad value", Name: "BadValue",
		}))

		_, err := store.SetRole(context.Background(), "boss@example.com", models.RoleAdmin)
		assert.ErrorIs(mt, err, utils.ErrUpstream)
	})
}
