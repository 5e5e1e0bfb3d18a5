package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"parlour/metrics"
	"parlour/models"
)

const deliveryTimeout = 30 * time.Second

// Deliverer sends the customer facing notification for a new booking.
type Deliverer interface {
	BookingCreated(ctx context.Context, b models.Booking) error
}

// Worker listens on the booking channel and hands every event to a
// Deliverer, one at a time. Pub/sub fans out to every subscriber, so only
// one server instance may run a Worker per Redis.
type Worker struct {
	client    *redis.Client
	channel   string
	deliverer Deliverer
	log       zerolog.Logger

	sub  *redis.PubSub
	done chan struct{}
}

func NewWorker(client *redis.Client, deliverer Deliverer, log zerolog.Logger) *Worker {
	return &Worker{
		client:    client,
		channel:   BookingChannel,
		deliverer: deliverer,
		log:       log.With().Str("component", "booking-worker").Logger(),
	}
}

// Start subscribes and returns once Redis confirmed the subscription.
func (w *Worker) Start(ctx context.Context) error {
	sub := w.client.Subscribe(ctx, w.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("subscribe %s: %w", w.channel, err)
	}
	w.sub = sub
	w.done = make(chan struct{})
	go w.loop(sub.Channel())

	w.log.Info().Str("channel", w.channel).Msg("listening for booking events")
	return nil
}

// Stop unsubscribes and waits for the event in progress.
func (w *Worker) Stop() error {
	if w.sub == nil {
		return nil
	}
	err := w.sub.Close()
	<-w.done
	return err
}

func (w *Worker) loop(ch <-chan *redis.Message) {
	defer close(w.done)
	for msg := range ch {
		w.handle(msg.Payload)
	}
}

func (w *Worker) handle(payload string) {
	var ev BookingEvent
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		w.log.Warn().Err(err).Msg("dropping malformed event")
		return
	}
	if ev.Type != EventBookingCreated {
		w.log.Debug().Str("type", ev.Type).Msg("ignoring event")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
	defer cancel()
	if err := w.deliverer.BookingCreated(ctx, ev.Booking); err != nil {
		metrics.IncNotification("failed")
		w.log.Warn().Err(err).Str("booking_id", ev.Booking.ID.Hex()).Msg("booking notification failed")
		return
	}
	metrics.IncNotification("sent")
}
