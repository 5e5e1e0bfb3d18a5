// Package pay runs the card payment workflow: intent creation at the
// processor, confirmation against a booking, and receipts.
package pay

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parlour/metrics"
	"parlour/models"
	"parlour/utils"
)

const (
	currency            = "usd"
	compensationTimeout = 5 * time.Second
)

// Bookings is the part of the booking store the workflow needs.
type Bookings interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	MarkPaid(ctx context.Context, id, transactionID string) (*models.Booking, error)
}

type Service struct {
	payments PaymentStore
	bookings Bookings
	gateway  Gateway
	receipts *Receipts
	log      zerolog.Logger
	now      func() time.Time
}

func NewService(payments PaymentStore, bookings Bookings, gateway Gateway, receipts *Receipts, log zerolog.Logger) *Service {
	return &Service{
		payments: payments,
		bookings: bookings,
		gateway:  gateway,
		receipts: receipts,
		log:      log,
		now:      time.Now,
	}
}

// ToMinorUnits converts a price in dollars to cents.
func ToMinorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}

// CreateIntent asks the processor for a card payment intent of price
// dollars. A booking id, when given, is attached as intent metadata.
func (s *Service) CreateIntent(ctx context.Context, price float64, bookingID, idempotencyKey string) (*models.PaymentIntent, error) {
	if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", utils.ErrBadRequest)
	}
	amount := ToMinorUnits(price)
	if amount <= 0 {
		return nil, fmt.Errorf("%w: price is below one cent", utils.ErrBadRequest)
	}

	req := IntentRequest{Amount: amount, Currency: currency, IdempotencyKey: idempotencyKey}
	if bookingID = strings.TrimSpace(bookingID); bookingID != "" {
		req.Metadata = map[string]string{"bookingId": bookingID}
	}
	return s.gateway.CreateIntent(ctx, req)
}

// ConfirmPayment records the payment and marks the booking paid.
//
// The payment row is written first. The booking is then flipped with a
// conditional update that only matches unpaid bookings. A rejected update
// (already paid, unknown booking) deletes the payment row again. When the
// update fails with an unknown outcome the booking is read back first and
// the row is only deleted if the booking is not paid with this transaction,
// so a paid booking always has its payment.
func (s *Service) ConfirmPayment(ctx context.Context, bookingID, transactionID string) (*models.Booking, error) {
	bookingID = strings.TrimSpace(bookingID)
	transactionID = strings.TrimSpace(transactionID)
	if _, err := primitive.ObjectIDFromHex(bookingID); err != nil {
		return nil, fmt.Errorf("%w: invalid booking id %q", utils.ErrBadRequest, bookingID)
	}
	if transactionID == "" {
		return nil, fmt.Errorf("%w: transactionId is required", utils.ErrBadRequest)
	}

	p := &models.Payment{BookingID: bookingID, TransactionID: transactionID, CreatedAt: s.now().UTC()}
	paymentID, err := s.payments.Insert(ctx, p)
	if err != nil {
		metrics.IncPayment("failed")
		return nil, err
	}

	b, err := s.bookings.MarkPaid(ctx, bookingID, transactionID)
	if err == nil {
		metrics.IncPayment("confirmed")
		s.log.Info().Str("booking_id", bookingID).Str("transaction_id", transactionID).Msg("payment confirmed")
		return b, nil
	}
	if errors.Is(err, utils.ErrConflict) || errors.Is(err, utils.ErrNotFound) {
		s.compensate(ctx, paymentID, bookingID, err)
		return nil, err
	}
	return s.settle(ctx, paymentID, bookingID, transactionID, err)
}

// settle resolves a MarkPaid failure whose outcome is unknown, e.g. a
// cancelled request or a network error after the write reached the server.
func (s *Service) settle(ctx context.Context, paymentID primitive.ObjectID, bookingID, transactionID string, cause error) (*models.Booking, error) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	b, err := s.bookings.FindByID(rctx, bookingID)
	switch {
	case err == nil && b.Paid && b.TransactionID == transactionID:
		metrics.IncPayment("confirmed")
		s.log.Warn().AnErr("cause", cause).
			Str("booking_id", bookingID).
			Str("transaction_id", transactionID).
			Msg("payment confirmed, update reported an error but was applied")
		return b, nil
	case err == nil || errors.Is(err, utils.ErrNotFound):
		s.compensate(ctx, paymentID, bookingID, cause)
		return nil, cause
	default:
		metrics.IncPayment("orphaned")
		s.log.Error().Err(err).
			Str("payment_id", paymentID.Hex()).
			Str("booking_id", bookingID).
			AnErr("cause", cause).
			Msg("orphaned payment: booking state unknown, payment kept")
		return nil, cause
	}
}

func (s *Service) compensate(ctx context.Context, paymentID primitive.ObjectID, bookingID string, cause error) {
	switch {
	case errors.Is(cause, utils.ErrConflict):
		metrics.IncPayment("conflict")
	case errors.Is(cause, utils.ErrNotFound):
		metrics.IncPayment("not_found")
	default:
		metrics.IncPayment("failed")
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	if err := s.payments.Delete(ctx, paymentID); err != nil {
		metrics.IncPayment("orphaned")
		s.log.Error().Err(err).
			Str("payment_id", paymentID.Hex()).
			Str("booking_id", bookingID).
			AnErr("cause", cause).
			Msg("orphaned payment: compensation failed")
		return
	}
	s.log.Warn().Err(cause).Str("booking_id", bookingID).Msg("payment confirmation rejected, payment removed")
}

// Receipt renders the PDF receipt of a paid booking owned by email.
func (s *Service) Receipt(ctx context.Context, bookingID, email string) ([]byte, error) {
	b, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Email != email {
		return nil, fmt.Errorf("receipt of booking %s: %w", bookingID, utils.ErrForbidden)
	}
	if !b.Paid {
		return nil, fmt.Errorf("booking %s is not paid: %w", bookingID, utils.ErrConflict)
	}

	ledger, err := s.payments.FindByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	var paidAt time.Time
	for _, p := range ledger {
		if p.TransactionID == b.TransactionID {
			paidAt = p.CreatedAt
			break
		}
	}
	return s.receipts.Render(*b, paidAt)
}
