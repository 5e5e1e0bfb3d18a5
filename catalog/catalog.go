// Package catalog is the list of services the salon offers.
package catalog

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"parlour/models"
	"parlour/utils"
)

type Store interface {
	Insert(ctx context.Context, svc *models.Service) (primitive.ObjectID, error)
	List(ctx context.Context) ([]models.Service, error)
}

type MongoStore struct {
	coll *mongo.Collection
}

func NewMongoStore(coll *mongo.Collection) *MongoStore {
	return &MongoStore{coll: coll}
}

func (s *MongoStore) Insert(ctx context.Context, svc *models.Service) (primitive.ObjectID, error) {
	if svc.ID.IsZero() {
		svc.ID = primitive.NewObjectID()
	}
	if _, err := s.coll.InsertOne(ctx, svc); err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: insert service: %v", utils.ErrUpstream, err)
	}
	return svc.ID, nil
}

func (s *MongoStore) List(ctx context.Context) ([]models.Service, error) {
	cur, err := s.coll.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("%w: find services: %v", utils.ErrUpstream, err)
	}
	out := []models.Service{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("%w: decode services: %v", utils.ErrUpstream, err)
	}
	return out, nil
}

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

func validate(svc *models.Service) error {
	svc.Name = strings.TrimSpace(svc.Name)
	if svc.Name == "" {
		return fmt.Errorf("%w: service name is required", utils.ErrBadRequest)
	}
	if svc.Price < 0 || math.IsNaN(svc.Price) || math.IsInf(svc.Price, 0) {
		return fmt.Errorf("%w: price must not be negative", utils.ErrBadRequest)
	}
	return nil
}

// POST /services
func (h *Handler) AddService(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var svc models.Service
	if err := utils.DecodeJSON(r, &svc); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	if err := validate(&svc); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	svc.ID = primitive.NilObjectID

	id, err := h.store.Insert(r.Context(), &svc)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, models.InsertResult{Acknowledged: true, InsertedID: id.Hex()})
}

// GET /services
func (h *Handler) GetServices(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := h.store.List(r.Context())
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}
