package reviews

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"parlour/models"
	"parlour/utils"
)

type Store interface {
	Insert(ctx context.Context, rv *models.Review) (primitive.ObjectID, error)
	List(ctx context.Context, skip, limit int64) ([]models.Review, error)
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Insert(ctx context.Context, rv *models.Review) (primitive.ObjectID, error) {
	if rv.ID.IsZero() {
		rv.ID = primitive.NewObjectID()
	}
	if _, err := s.coll.InsertOne(ctx, rv); err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: insert review: %v", utils.ErrUpstream, err)
	}
	return rv.ID, nil
}

// List returns reviews newest first.
func (s *MongoStore) List(ctx context.Context, skip, limit int64) ([]models.Review, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(skip)
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cur, err := s.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: find reviews: %v", utils.ErrUpstream, err)
	}
	out := []models.Review{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%w: decode reviews: %v", utils.ErrUpstream, err)
	}
	return out, nil
}
