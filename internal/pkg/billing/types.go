package billing

import (
	"encoding/json"
	"time"
)

// Stripe event types the reconciler reacts to. Everything else is
// acknowledged and logged.
const (
	EventSubscriptionCreated = "customer.subscription.created"
	EventSubscriptionUpdated = "customer.subscription.updated"
	EventSubscriptionDeleted = "customer.subscription.deleted"
	EventPaymentSucceeded    = "invoice.payment_succeeded"
	EventPaymentFailed       = "invoice.payment_failed"
)

// SubscriptionStatusActive is the only Stripe status that grants premium.
const SubscriptionStatusActive = "active"

// SubscriptionEvent is the subset of a Stripe subscription object the
// reconciler reads. Fields mirror Stripe's wire names.
type SubscriptionEvent struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	Created           int64  `json:"created"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	Items             struct {
		Data []struct {
			CurrentPeriodEnd int64 `json:"current_period_end"`
		} `json:"data"`
	} `json:"items"`
}

// ParseSubscriptionEvent decodes the "data.object" of a subscription event.
func ParseSubscriptionEvent(raw []byte) (*SubscriptionEvent, error) {
	var ev SubscriptionEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}

// IsActive reports whether the subscription grants premium access.
func (e *SubscriptionEvent) IsActive() bool {
	return e.Status == SubscriptionStatusActive
}

// StartedAt converts the creation timestamp to UTC time.
func (e *SubscriptionEvent) StartedAt() time.Time {
	return time.Unix(e.Created, 0).UTC()
}

// PeriodEnd returns the current period end of the first subscription item, or
// nil when the payload carries no items.
func (e *SubscriptionEvent) PeriodEnd() *time.Time {
	if len(e.Items.Data) == 0 {
		return nil
	}
	t := time.Unix(e.Items.Data[0].CurrentPeriodEnd, 0).UTC()
	return &t
}

// InvoiceEvent is the subset of a Stripe invoice object the reconciler reads.
type InvoiceEvent struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
}

// ParseInvoiceEvent decodes the "data.object" of an invoice event.
func ParseInvoiceEvent(raw []byte) (*InvoiceEvent, error) {
	var ev InvoiceEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
