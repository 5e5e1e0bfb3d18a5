package booking

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"parlour/models"
	"parlour/utils"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// POST /booking
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var b models.Booking
	if err := utils.DecodeJSON(r, &b); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	res, err := h.svc.Create(r.Context(), b)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// GET /booking
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	list, err := h.svc.ListAll(r.Context())
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// GET /booking/:id where the parameter is the owner's email. The route is
// guarded so that it always equals the caller.
func (h *Handler) ListOwnBookings(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	list, err := h.svc.ListByOwner(r.Context(), ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, list)
}

// DELETE /booked/:id
func (h *Handler) DeleteBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	res, err := h.svc.DeleteByID(r.Context(), ps.ByName("id"))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// GET /payment/:id answers null for unknown bookings.
func (h *Handler) GetBooking(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	b, err := h.svc.GetByID(r.Context(), ps.ByName("id"))
	if errors.Is(err, utils.ErrNotFound) {
		utils.RespondWithJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, b)
}
