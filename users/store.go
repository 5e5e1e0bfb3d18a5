package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"parlour/models"
	"parlour/utils"
)

// Store is the persistence the user operations need.
type Store interface {
	Upsert(ctx context.Context, email string, p models.ProfileUpdate) (models.UpdateResult, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	SetRole(ctx context.Context, email, role string) (models.UpdateResult, error)
}

// MongoStore keeps users in the "user" collection keyed by email.
type MongoStore struct {
	coll *mongo.Collection
	now  func() time.Time
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll, now: time.Now}
}

// Upsert creates the account on first login with the default role and
// afterwards only touches the profile fields that were supplied.
func (s *MongoStore) Upsert(ctx context.Context, email string, p models.ProfileUpdate) (models.UpdateResult, error) {
	now := s.now().UTC()
	set := bson.M{"updatedAt": now}
	if p.Name != nil {
		set["name"] = strings.TrimSpace(*p.Name)
	}
	if p.PhotoURL != nil {
		set["photoURL"] = strings.TrimSpace(*p.PhotoURL)
	}
	if p.Phone != nil {
		set["phone"] = strings.TrimSpace(*p.Phone)
	}
	if p.Address != nil {
		set["address"] = strings.TrimSpace(*p.Address)
	}

	update := bson.M{
		"$set":         set,
		"$setOnInsert": bson.M{"role": models.RoleUser, "createdAt": now},
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"email": email}, update, options.Update().SetUpsert(true))
	if err != nil {
		return models.UpdateResult{}, fmt.Errorf("%w: upsert user: %v", utils.ErrUpstream, err)
	}
	return toUpdateResult(res), nil
}

func (s *MongoStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.coll.FindOne(ctx, bson.M{"email": email}).Decode(&u)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("user %q: %w", email, utils.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %v", utils.ErrUpstream, err)
	}
	return &u, nil
}

// SetRole changes the role of an existing account. Unknown emails match
// nothing and are reported through MatchedCount, not as an error.
func (s *MongoStore) SetRole(ctx context.Context, email, role string) (models.UpdateResult, error) {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"role": role, "updatedAt": s.now().UTC()}},
	)
	if err != nil {
		return models.UpdateResult{}, fmt.Errorf("%w: set role: %v", utils.ErrUpstream, err)
	}
	return toUpdateResult(res), nil
}

func toUpdateResult(res *mongo.UpdateResult) models.UpdateResult {
	out := models.UpdateResult{
		Acknowledged:  true,
		MatchedCount:  res.MatchedCount,
		ModifiedCount: res.ModifiedCount,
		UpsertedCount: res.UpsertedCount,
	}
	if oid, ok := res.UpsertedID.(primitive.ObjectID); ok {
		out.UpsertedID = oid.Hex()
	}
	return out
}
