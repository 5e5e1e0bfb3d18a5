package pay

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

// PaymentStore is the payment ledger.
type PaymentStore interface {
	Insert(ctx context.Context, p *models.Payment) (primitive.ObjectID, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindByBooking(ctx context.Context, bookingID string) ([]models.Payment, error)
}

type MongoPaymentStore struct {
	coll *mongo.Collection
}

func NewMongoPaymentStore(coll *mongo.Collection) *MongoPaymentStore {
	return &MongoPaymentStore{coll: coll}
}

func (s *MongoPaymentStore) Insert(ctx context.Context, p *models.Payment) (primitive.ObjectID, error) {
	if p.ID.IsZero() {
		p.ID = primitive.NewObjectID()
	}
	if _, err := s.coll.InsertOne(ctx, p); err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: insert payment: %v", utils.ErrUpstream, err)
	}
	return p.ID, nil
}

func (s *MongoPaymentStore) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("%w: delete payment: %v", utils.ErrUpstream, err)
	}
	return nil
}

func (s *MongoPaymentStore) FindByBooking(ctx context.Context, bookingID string) ([]models.Payment, error) {
	cur, err := s.coll.Find(ctx, bson.M{"bookingId": bookingID}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("%w: find payments: %v", utils.ErrUpstream, err)
	}
	out := []models.Payment{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%w: decode payments: %v", utils.ErrUpstream, err)
	}
	return out, nil
}
