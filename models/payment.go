package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Payment records a confirmed card transaction for a booking.
type Payment struct {
	ID            primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	BookingID     string             `json:"bookingId" bson:"bookingId"`
	TransactionID string             `json:"transactionId" bson:"transactionId"`
	CreatedAt     time.Time          `json:"createdAt" bson:"createdAt"`
}

// PaymentIntent is what the client needs to confirm a charge on its side.
type PaymentIntent struct {
	ClientSecret string `json:"clientSecret"`
}
