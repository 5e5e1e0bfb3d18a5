package pay

import (
	"context"
	"errors"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"

	"parlour/models"
	"parlour/utils"
)

// IntentRequest is a card payment intent in minor currency units.
type IntentRequest struct {
	Amount         int64
	Currency       string
	Metadata       map[string]string
	IdempotencyKey string
}

// Gateway creates payment intents at the card processor.
type Gateway interface {
	CreateIntent(ctx context.Context, req IntentRequest) (*models.PaymentIntent, error)
}

type StripeGateway struct {
	api *client.API
}

// NewStripeGateway talks to Stripe with key. backends may be nil for the
// default Stripe endpoints.
func NewStripeGateway(key string, backends *stripe.Backends) *StripeGateway {
	return &StripeGateway{api: client.New(key, backends)}
}

func (g *StripeGateway) CreateIntent(ctx context.Context, req IntentRequest) (*models.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(req.Amount),
		Currency:           stripe.String(req.Currency),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
	}
	params.Context = ctx
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		var se *stripe.Error
		if errors.As(err, &se) && se.Type == stripe.ErrorTypeInvalidRequest {
			return nil, fmt.Errorf("%w: %s", utils.ErrBadRequest, se.Msg)
		}
		return nil, fmt.Errorf("%w: create payment intent: %v", utils.ErrUpstream, err)
	}
	return &models.PaymentIntent{ClientSecret: pi.ClientSecret}, nil
}
