package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Booking is a reservation of one catalog service by a customer. It starts
// unpaid and flips to paid exactly once, when a payment is confirmed.
type Booking struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Email         string             `json:"email" bson:"email"`
	Name          string             `json:"name" bson:"name"` // service name
	CustomerName  string             `json:"customerName,omitempty" bson:"customerName,omitempty"`
	Phone         string             `json:"phone,omitempty" bson:"phone,omitempty"`
	Date          string             `json:"date,omitempty" bson:"date,omitempty"`
	Time          string             `json:"time,omitempty" bson:"time,omitempty"`
	Price         float64            `json:"price" bson:"price"`
	Paid          bool               `json:"paid" bson:"paid"`
	TransactionID string             `json:"transactionId,omitempty" bson:"transactionId,omitempty"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// InsertResult mirrors what the store reports for a single insert.
type InsertResult struct {
	Acknowledged bool   `json:"acknowledged"`
	InsertedID   string `json:"insertedId"`
}

type DeleteResult struct {
	Acknowledged bool  `json:"acknowledged"`
	DeletedCount int64 `json:"deletedCount"`
}

type UpdateResult struct {
	Acknowledged  bool   `json:"acknowledged"`
	MatchedCount  int64  `json:"matchedCount"`
	ModifiedCount int64  `json:"modifiedCount"`
	UpsertedCount int64  `json:"upsertedCount"`
	UpsertedID    string `json:"upsertedId,omitempty"`
}
