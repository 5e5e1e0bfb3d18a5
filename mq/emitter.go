// Package mq carries booking events over Redis pub/sub so notifications are
// delivered outside the request path.
package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"parlour/models"
)

const (
	BookingChannel = "parlour:booking-events"

	EventBookingCreated = "booking.created"
)

type BookingEvent struct {
	Type      string         `json:"type"`
	Booking   models.Booking `json:"booking"`
	EmittedAt time.Time      `json:"emittedAt"`
}

// Publisher emits booking events. It satisfies the booking notifier, so a
// new booking costs the request one PUBLISH.
type Publisher struct {
	client  *redis.Client
	channel string
	now     func() time.Time
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client, channel: BookingChannel, now: time.Now}
}

func (p *Publisher) BookingCreated(ctx context.Context, b models.Booking) error {
	return p.Emit(ctx, BookingEvent{Type: EventBookingCreated, Booking: b, EmittedAt: p.now().UTC()})
}

// Emit publishes ev. Events published while no worker listens are lost.
func (p *Publisher) Emit(ctx context.Context, ev BookingEvent) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", ev.Type, err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish %s event: %w", ev.Type, err)
	}
	return nil
}
