package pay

import (
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"parlour/middleware"
	"parlour/utils"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

type intentRequest struct {
	Price     float64 `json:"price"`
	BookingID string  `json:"bookingId,omitempty"`
}

// POST /create-payment-intent
func (h *Handler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req intentRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	intent, err := h.svc.CreateIntent(r.Context(), req.Price, req.BookingID, r.Header.Get("Idempotency-Key"))
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, intent)
}

type confirmRequest struct {
	BookingID     string `json:"bookingId"`
	TransactionID string `json:"transactionId"`
}

// PATCH /booking/:id. The path names the booking; a bookingId in the body
// must agree with it.
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req confirmRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	id := ps.ByName("id")
	if req.BookingID != "" && req.BookingID != id {
		utils.RespondWithErr(w, r, fmt.Errorf("%w: bookingId does not match the path", utils.ErrBadRequest))
		return
	}

	b, err := h.svc.ConfirmPayment(r.Context(), id, req.TransactionID)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, b)
}

// GET /payment/:id/receipt
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	email, _ := middleware.EmailFrom(r.Context())
	id := ps.ByName("id")

	pdf, err := h.svc.Receipt(r.Context(), id, email)
	if err != nil {
		utils.RespondWithErr(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+id+".pdf")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}
