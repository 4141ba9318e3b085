package billing

import (
	"context"
	"errors"
	"fmt"

	stripe "github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/pulsarpub/pulsar/internal/pkg/env"
)

// ErrNotConfigured is returned when Stripe credentials are absent from the
// environment. Billing endpoints surface this as a service misconfiguration.
var ErrNotConfigured = errors.New("billing: stripe is not configured")

// CheckoutClient is the provider surface the subscription controllers
// depend on. StripeClient is the production implementation.
type CheckoutClient interface {
	EnsureCustomer(ctx context.Context, existingID, email, username string, accountID uint) (string, error)
	CreateCheckoutSession(ctx context.Context, customerID string, accountID uint, successURL, cancelURL string) (string, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error
}

// StripeClient wraps the Stripe API surface the platform uses: customer
// management, checkout sessions and subscription cancellation.
type StripeClient struct {
	api     *client.API
	priceID string
}

// NewStripeClientFromEnv reads STRIPE_SECRET_KEY and STRIPE_PRICE_ID. It
// returns ErrNotConfigured when the key is missing so callers can degrade at
// request time instead of failing startup.
func NewStripeClientFromEnv() (*StripeClient, error) {
	key := env.GetEnv("STRIPE_SECRET_KEY", "")
	if key == "" {
		return nil, ErrNotConfigured
	}

	api := &client.API{}
	api.Init(key, nil)

	return &StripeClient{
		api:     api,
		priceID: env.GetEnv("STRIPE_PRICE_ID", ""),
	}, nil
}

// EnsureCustomer returns the Stripe customer id for the account, creating the
// customer on first use.
func (c *StripeClient) EnsureCustomer(ctx context.Context, existingID, email, username string, accountID uint) (string, error) {
	if existingID != "" {
		return existingID, nil
	}

	params := &stripe.CustomerParams{
		Params: stripe.Params{Context: ctx},
		Email:  stripe.String(email),
	}
	params.AddMetadata("account_id", fmt.Sprintf("%d", accountID))
	params.AddMetadata("username", username)

	cust, err := c.api.Customers.New(params)
	if err != nil {
		return "", fmt.Errorf("create stripe customer: %w", err)
	}
	return cust.ID, nil
}

// CreateCheckoutSession starts a subscription checkout for the customer and
// returns the hosted checkout URL.
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, customerID string, accountID uint, successURL, cancelURL string) (string, error) {
	if c.priceID == "" {
		return "", ErrNotConfigured
	}

	params := &stripe.CheckoutSessionParams{
		Params:             stripe.Params{Context: ctx},
		ClientReferenceID:  stripe.String(fmt.Sprintf("%d", accountID)),
		Customer:           stripe.String(customerID),
		SuccessURL:         stripe.String(successURL),
		CancelURL:          stripe.String(cancelURL),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.priceID),
				Quantity: stripe.Int64(1),
			},
		},
	}

	sess, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return sess.URL, nil
}

// CancelAtPeriodEnd flags the subscription to lapse at the end of the paid
// period. Access is only revoked once Stripe delivers the deletion event.
func (c *StripeClient) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	params := &stripe.SubscriptionParams{
		Params:            stripe.Params{Context: ctx},
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	if _, err := c.api.Subscriptions.Update(subscriptionID, params); err != nil {
		return fmt.Errorf("cancel subscription %s: %w", subscriptionID, err)
	}
	return nil
}

// VerifyWebhook checks the Stripe-Signature header against the payload and
// returns the parsed event. Any error means the request must be rejected
// without touching account state.
func VerifyWebhook(payload []byte, sigHeader, secret string) (stripe.Event, error) {
	return webhook.ConstructEventWithOptions(payload, sigHeader, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
}
