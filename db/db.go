// Package db owns the MongoDB client for the lifetime of the process.
package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store holds the client and one handle per collection. It is opened once in
// main and handed to every component that needs it.
type Store struct {
	Client *mongo.Client

	ServiceCollection *mongo.Collection
	ReviewCollection  *mongo.Collection
	BookingCollection *mongo.Collection
	UserCollection    *mongo.Collection
	PaymentCollection *mongo.Collection
}

// Connect dials MongoDB and verifies the connection with a ping. Failing here
// is fatal for the server.
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return New(client, database), nil
}

// New binds the collections of database on an existing client.
func New(client *mongo.Client, database string) *Store {
	d := client.Database(database)
	return &Store{
		Client:            client,
		ServiceCollection: d.Collection("services"),
		ReviewCollection:  d.Collection("review"),
		BookingCollection: d.Collection("booking"),
		UserCollection:    d.Collection("user"),
		PaymentCollection: d.Collection("payment"),
	}
}

// EnsureIndexes creates the indexes the handlers rely on. It is idempotent.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	if _, err := s.UserCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("unique_email"),
	}); err != nil {
		return fmt.Errorf("user index: %w", err)
	}
	if _, err := s.BookingCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}, {Key: "createdAt", Value: -1}},
		Options: options.Index().SetName("owner_recent"),
	}); err != nil {
		return fmt.Errorf("booking index: %w", err)
	}
	if _, err := s.PaymentCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "bookingId", Value: 1}},
		Options: options.Index().SetName("by_booking"),
	}); err != nil {
		return fmt.Errorf("payment index: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client, waiting for in-flight operations up to ctx.
func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}
