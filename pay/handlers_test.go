package pay

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"parlour/auth"
	"parlour/middleware"
	"parlour/models"
)

type testEnv struct {
	router   *httprouter.Router
	payments *memPayments
	bookings *memBookings
	gateway  *fakeGateway
	tokens   *auth.Tokens
}

func newTestEnv(bs ...models.Booking) *testEnv {
	env := &testEnv{
		payments: newMemPayments(),
		bookings: newMemBookings(bs...),
		gateway:  &fakeGateway{},
		tokens:   auth.NewTokens("secret", time.Hour),
	}
	h := NewHandler(newTestService(env.payments, env.bookings, env.gateway, zerolog.Nop()))

	env.router = httprouter.New()
	env.router.POST("/create-payment-intent", h.CreatePaymentIntent)
	env.router.PATCH("/booking/:id", h.ConfirmPayment)
	env.router.GET("/payment/:id/receipt", middleware.Protect(h.Receipt, middleware.Authenticated(env.tokens)))
	return env
}

func (e *testEnv) do(method, target, body, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func TestCreatePaymentIntentHandler(t *testing.T) {
	env := newTestEnv()

	rec := env.do(http.MethodPost, "/create-payment-intent", `{"price":25}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"clientSecret":"pi_2500_secret"}`, rec.Body.String())

	rec = env.do(http.MethodPost, "/create-payment-intent", `{"price":0}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/create-payment-intent", `{"price":"25"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConfirmPaymentHandler(t *testing.T) {
	b := unpaidBooking()
	env := newTestEnv(b)
	id := b.ID.Hex()

	rec := env.do(http.MethodPatch, "/booking/"+id, `{"bookingId":"`+id+`","transactionId":"pi_123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got models.Booking
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Paid)
	assert.Equal(t, "pi_123", got.TransactionID)

	rec = env.do(http.MethodPatch, "/booking/"+id, `{"transactionId":"pi_123"}`, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Len(t, env.payments.rows, 1)
}

func TestConfirmPaymentHandler_Errors(t *testing.T) {
	b := unpaidBooking()
	env := newTestEnv(b)

	other := unpaidBooking().ID.Hex()
	rec := env.do(http.MethodPatch, "/booking/"+b.ID.Hex(), `{"bookingId":"`+other+`","transactionId":"pi_123"}`, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPatch, "/booking/"+other, `{"transactionId":"pi_123"}`, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Empty(t, env.payments.rows)
}

func TestReceiptHandler(t *testing.T) {
	b := unpaidBooking()
	env := newTestEnv(b)
	id := b.ID.Hex()

	owner, err := env.tokens.Issue(b.Email)
	require.NoError(t, err)
	stranger, err := env.tokens.Issue("rina@example.com")
	require.NoError(t, err)

	rec := env.do(http.MethodGet, "/payment/"+id+"/receipt", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(http.MethodGet, "/payment/"+id+"/receipt", "", owner)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPatch, "/booking/"+id, `{"transactionId":"pi_123"}`, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/payment/"+id+"/receipt", "", stranger)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodGet, "/payment/"+id+"/receipt", "", owner)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}
