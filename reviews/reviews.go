// Package reviews holds customer reviews of the salon.
package reviews

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parlour/middleware"
	"parlour/models"
	"parlour/utils"
)

// maxPageSize caps ?limit=. Without it every review is returned.
const maxPageSize = 200

type Service struct {
	store Store
	now   func() time.Time
}

func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Create stores a review written by author. The author always comes from
// the verified token, never from the body.
func (s *Service) Create(ctx context.Context, author string, rv models.Review) (models.InsertResult, error) {
	rv.Text = strings.TrimSpace(rv.Text)
	if rv.Rating < 1 || rv.Rating > 5 {
		return models.InsertResult{}, fmt.Errorf("%w: rating must be between 1 and 5", utils.ErrBadRequest)
	}
	if rv.Text == "" {
		return models.InsertResult{}, fmt.Errorf("%w: review text is required", utils.ErrBadRequest)
	}

	rv.ID = primitive.NilObjectID
	rv.Email = author
	rv.Name = strings.TrimSpace(rv.Name)
	rv.CreatedAt = s.now().UTC()

	id, err := s.store.Insert(ctx, &rv)
	if err != nil {
		return models.InsertResult{}, err
	}
	return models.InsertResult{Acknowledged: true, InsertedID: id.Hex()}, nil
}

func (s *Service) List(ctx context.Context, skip, limit int64) ([]models.Review, error) {
	return s.store.List(ctx, skip, limit)
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// POST /review
func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	email, ok := middleware.EmailFrom(r.Context())
	if !ok {
		utils.RespondWithErr(w, r, utils.ErrUnauthenticated)
		return
	}
	var rv models.Review
	if err := utils.DecodeJSON(r, &rv); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	res, err := h.svc.Create(r.Context(), email, rv)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// GET /reviews
func (h *Handler) GetReviews(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	skip, limit := utils.ParsePagination(r, 0, maxPageSize)
	list, err := h.svc.List(r.Context(), skip, limit)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}
