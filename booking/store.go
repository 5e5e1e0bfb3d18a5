package booking

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"parlour/models"
	"parlour/utils"
)

// Store is the persistence of bookings.
type Store interface {
	Insert(ctx context.Context, b *models.Booking) (primitive.ObjectID, error)
	FindAll(ctx context.Context) ([]models.Booking, error)
	FindByEmail(ctx context.Context, email string) ([]models.Booking, error)
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	DeleteByID(ctx context.Context, id string) (int64, error)
	MarkPaid(ctx context.Context, id, transactionID string) (*models.Booking, error)
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Insert(ctx context.Context, b *models.Booking) (primitive.ObjectID, error) {
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	if _, err := s.coll.InsertOne(ctx, b); err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: insert booking: %v", utils.ErrUpstream, err)
	}
	return b.ID, nil
}

func (s *MongoStore) FindAll(ctx context.Context) ([]models.Booking, error) {
	return s.find(ctx, bson.M{})
}

// FindByEmail returns the bookings of one customer, newest first.
func (s *MongoStore) FindByEmail(ctx context.Context, email string) ([]models.Booking, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return s.find(ctx, bson.M{"email": email}, opts)
}

func (s *MongoStore) find(ctx context.Context, filter bson.M, opts ...*options.FindOptions) ([]models.Booking, error) {
	cur, err := s.coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: find bookings: %v", utils.ErrUpstream, err)
	}
	out := []models.Booking{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%w: decode bookings: %v", utils.ErrUpstream, err)
	}
	return out, nil
}

// FindByID treats a malformed id like an absent one.
func (s *MongoStore) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("booking %q: %w", id, utils.ErrNotFound)
	}
	var b models.Booking
	err = s.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&b)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("booking %q: %w", id, utils.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find booking: %v", utils.ErrUpstream, err)
	}
	return &b, nil
}

// DeleteByID reports how many bookings were removed. Absent and malformed
// ids remove nothing and are not errors.
func (s *MongoStore) DeleteByID(ctx context.Context, id string) (int64, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, nil
	}
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return 0, fmt.Errorf("%w: delete booking: %v", utils.ErrUpstream, err)
	}
	return res.DeletedCount, nil
}

// MarkPaid flips an unpaid booking to paid in a single conditional update
// and returns the updated document. A booking that is already paid yields
// ErrConflict, an unknown one ErrNotFound.
func (s *MongoStore) MarkPaid(ctx context.Context, id, transactionID string) (*models.Booking, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("booking %q: %w", id, utils.ErrNotFound)
	}

	var b models.Booking
	err = s.coll.FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "paid": bson.M{"$ne": true}},
		bson.M{"$set": bson.M{"paid": true, "transactionId": transactionID}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&b)
	if err == nil {
		return &b, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: mark booking paid: %v", utils.ErrUpstream, err)
	}

	n, err := s.coll.CountDocuments(ctx, bson.M{"_id": oid})
	if err != nil {
		return nil, fmt.Errorf("%w: count booking: %v", utils.ErrUpstream, err)
	}
	if n > 0 {
		return nil, fmt.Errorf("booking %q already paid: %w", id, utils.ErrConflict)
	}
	return nil, fmt.Errorf("booking %q: %w", id, utils.ErrNotFound)
}
