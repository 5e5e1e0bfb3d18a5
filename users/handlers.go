package users

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

// PUT /user/:email
func (h *Handler) UpsertUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var profile models.ProfileUpdate
	if err := utils.DecodeJSON(r, &profile); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	res, err := h.svc.Login(r.Context(), ps.ByName("email"), profile)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// GET /user/:email answers null for unknown accounts.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	u, err := h.svc.Get(r.Context(), ps.ByName("email"))
	if errors.Is(err, utils.ErrNotFound) {
		utils.RespondWithJSON(w, http.StatusOK, nil)
		return
	}
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, u)
}

// GET /admin/:email
func (h *Handler) CheckAdmin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	admin, err := h.svc.IsAdmin(r.Context(), ps.ByName("email"))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"admin": admin})
}

// PATCH /user/admin/:email, admin only.
func (h *Handler) MakeAdmin(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	res, err := h.svc.PromoteToAdmin(r.Context(), ps.ByName("email"))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}
