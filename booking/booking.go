// Package booking records service bookings and notifies the customer.
package booking

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"parlour/metrics"
	"parlour/models"
	"parlour/utils"
)

const defaultNotifyTimeout = 30 * time.Second

// Notifier is told about every new booking. Delivery is best effort.
type Notifier interface {
	BookingCreated(ctx context.Context, b models.Booking) error
}

type Service struct {
	store         Store
	notifier      Notifier
	log           zerolog.Logger
	notifyTimeout time.Duration
	now           func() time.Time
	wg            sync.WaitGroup
}

// NewService wires the booking operations. notifier may be nil.
func NewService(store Store, notifier Notifier, log zerolog.Logger) *Service {
	return &Service{
		store:         store,
		notifier:      notifier,
		log:           log,
		notifyTimeout: defaultNotifyTimeout,
		now:           time.Now,
	}
}

// Create stores b as a new unpaid booking and fires the notification on its
// own goroutine. A failed notification never fails the booking.
func (s *Service) Create(ctx context.Context, b models.Booking) (models.InsertResult, error) {
	b.Email = strings.TrimSpace(b.Email)
	b.Name = strings.TrimSpace(b.Name)
	switch {
	case b.Email == "":
		return models.InsertResult{}, fmt.Errorf("%w: email is required", utils.ErrBadRequest)
	case b.Name == "":
		return models.InsertResult{}, fmt.Errorf("%w: service name is required", utils.ErrBadRequest)
	case strings.ContainsAny(b.Email, "\r\n") || strings.ContainsAny(b.Name, "\r\n"):
		// both end up in mail headers
		return models.InsertResult{}, fmt.Errorf("%w: email and service name must be a single line", utils.ErrBadRequest)
	case b.Price < 0:
		return models.InsertResult{}, fmt.Errorf("%w: price must not be negative", utils.ErrBadRequest)
	}

	b.ID = primitive.NilObjectID
	b.Paid = false
	b.TransactionID = ""
	b.CreatedAt = s.now().UTC()

	id, err := s.store.Insert(ctx, &b)
	if err != nil {
		return models.InsertResult{}, err
	}
	b.ID = id

	if s.notifier != nil {
		s.wg.Add(1)
		go s.notify(b)
	}
	return models.InsertResult{Acknowledged: true, InsertedID: id.Hex()}, nil
}

func (s *Service) notify(b models.Booking) {
	defer s.wg.Done()
	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()

	if err := s.notifier.BookingCreated(ctx, b); err != nil {
		metrics.IncNotification("failed")
		s.log.Warn().Err(err).Str("booking_id", b.ID.Hex()).Msg("booking notification failed")
		return
	}
	metrics.IncNotification("dispatched")
}

// Wait blocks until the notifications in flight are done.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) ListAll(ctx context.Context) ([]models.Booking, error) {
	return s.store.FindAll(ctx)
}

// ListByOwner returns the bookings of email, newest first.
func (s *Service) ListByOwner(ctx context.Context, email string) ([]models.Booking, error) {
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", utils.ErrBadRequest)
	}
	return s.store.FindByEmail(ctx, email)
}

func (s *Service) DeleteByID(ctx context.Context, id string) (models.DeleteResult, error) {
	n, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return models.DeleteResult{}, err
	}
	return models.DeleteResult{Acknowledged: true, DeletedCount: n}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	return s.store.FindByID(ctx, id)
}
