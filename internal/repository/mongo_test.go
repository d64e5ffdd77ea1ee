package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/iliyamo/laptop-inventory/internal/model"
)

// mockStore binds a MongoStore to the mock deployment of mt. Index
// creation is skipped; TestNewMongoStore covers it.
func mockStore(mt *mtest.T) *MongoStore {
	return &MongoStore{
		users:   mt.DB.Collection(usersCollection),
		laptops: mt.DB.Collection(laptopsCollection),
	}
}

func ns(mt *mtest.T, coll string) string { return mt.DB.Name() + "." + coll }

// countReply is the aggregate batch CountDocuments reads its total from.
func countReply(mt *mtest.T, coll string, n int32) bson.D {
	if n == 0 {
		return mtest.CreateCursorResponse(0, ns(mt, coll), mtest.FirstBatch)
	}
	return mtest.CreateCursorResponse(0, ns(mt, coll), mtest.FirstBatch,
		bson.D{{Key: "_id", Value: 1}, {Key: "n", Value: n}})
}

func updateReply(matched int32) bson.D {
	return mtest.CreateSuccessResponse(
		bson.E{Key: "n", Value: matched},
		bson.E{Key: "nModified", Value: matched},
	)
}

func TestNewMongoStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("indexes created", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		s, err := NewMongoStore(context.Background(), mt.DB)
		require.NoError(mt, err)
		assert.NotNil(mt, s)
	})

	mt.Run("index failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code: 85, Name: "IndexOptionsConflict", Message: "index exists with different options",
		}))
		_, err := NewMongoStore(context.Background(), mt.DB)
		assert.ErrorContains(mt, err, "users indexes")
	})
}

func TestMongoStore_SwapState(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("applied", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(updateReply(1))
		require.NoError(mt, s.SwapState(ctx, "l1", model.Available(), model.AssignedTo("u1"), stamp))

		ev := mt.GetStartedEvent()
		require.NotNil(mt, ev)
		assert.Equal(mt, "update", ev.CommandName)
		update := ev.Command.Lookup("updates").Array().Index(0).Value().Document()
		filter := update.Lookup("q").Document()
		assert.Equal(mt, "l1", filter.Lookup("_id").StringValue())
		assert.Equal(mt, "available", filter.Lookup("status").StringValue())
		assert.Equal(mt, bson.TypeNull, filter.Lookup("assignedTo").Type)
		set := update.Lookup("u").Document().Lookup("$set").Document()
		assert.Equal(mt, "assigned", set.Lookup("status").StringValue())
		assert.Equal(mt, "u1", set.Lookup("assignedTo").StringValue())
	})

	mt.Run("lost race", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(updateReply(0), countReply(mt, laptopsCollection, 1))
		err := s.SwapState(ctx, "l1", model.Available(), model.AssignedTo("u2"), stamp)
		assert.ErrorIs(mt, err, ErrStateChanged)
	})

	mt.Run("missing", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(updateReply(0), countReply(mt, laptopsCollection, 0))
		err := s.SwapState(ctx, "ghost", model.InMaintenance("u1"), model.Available(), stamp)
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestMongoStore_DuplicateInsert(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	dup := mtest.WriteError{Index: 0, Code: 11000, Message: "E11000 duplicate key error"}

	mt.Run("user email", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(dup))
		err := s.CreateUser(ctx, &model.User{ID: "u2", Email: "ann@example.com", Role: model.RoleUser})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})

	mt.Run("laptop serial", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(dup))
		err := s.CreateLaptop(ctx, &model.Laptop{ID: "l2", SerialNumber: "SN-1", State: model.Available()})
		assert.ErrorIs(mt, err, ErrDuplicate)
	})
}

func TestMongoStore_DeleteUser(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("referenced by a laptop", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(countReply(mt, laptopsCollection, 1))
		assert.ErrorIs(mt, s.DeleteUser(ctx, "u1"), ErrReferenced)

		// Only the holder count ran; no delete was sent.
		require.NotNil(mt, mt.GetStartedEvent())
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("deleted", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(countReply(mt, laptopsCollection, 0), mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}))
		assert.NoError(mt, s.DeleteUser(ctx, "u1"))
	})

	mt.Run("missing", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(countReply(mt, laptopsCollection, 0), mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(0)}))
		assert.ErrorIs(mt, s.DeleteUser(ctx, "ghost"), ErrNotFound)
	})
}

func TestMongoStore_GetLaptop(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("found", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, laptopsCollection), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "l1"},
			{Key: "brand", Value: "Dell"},
			{Key: "model", Value: "XPS13"},
			{Key: "serialNumber", Value: "SN-1"},
			{Key: "specs", Value: bson.D{{Key: "ram", Value: "16GB"}}},
			{Key: "status", Value: "maintenance"},
			{Key: "assignedTo", Value: "u1"},
			{Key: "createdAt", Value: stamp},
			{Key: "updatedAt", Value: stamp},
		}))
		l, err := s.GetLaptop(ctx, "l1")
		require.NoError(mt, err)
		assert.Equal(mt, model.InMaintenance("u1"), l.State)
		assert.Equal(mt, "16GB", l.Specs.RAM)
		assert.True(mt, l.CreatedAt.Equal(stamp))
	})

	mt.Run("missing", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, laptopsCollection), mtest.FirstBatch))
		_, err := s.GetLaptop(ctx, "ghost")
		assert.ErrorIs(mt, err, ErrNotFound)
	})

	mt.Run("inconsistent document", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, laptopsCollection), mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "l1"},
			{Key: "status", Value: "available"},
			{Key: "assignedTo", Value: "u1"},
		}))
		_, err := s.GetLaptop(ctx, "l1")
		assert.ErrorIs(mt, err, model.ErrInconsistentState)
	})
}

func TestMongoStore_CountByStatus(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("grouped", func(mt *mtest.T) {
		s := mockStore(mt)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns(mt, laptopsCollection), mtest.FirstBatch,
			bson.D{{Key: "_id", Value: "available"}, {Key: "n", Value: int32(3)}},
			bson.D{{Key: "_id", Value: "assigned"}, {Key: "n", Value: int32(2)}},
		))
		counts, err := s.CountByStatus(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, map[model.Status]int{model.StatusAvailable: 3, model.StatusAssigned: 2}, counts)
	})
}
