package billing

import (
	"fmt"
	"log"
	"time"

	"github.com/pulsarpub/pulsar/app/models"
)

// Reconciler applies Stripe subscription events to account state. Handlers
// overwrite the billing fields from the event payload, so replaying a
// delivery converges to the same state.
type Reconciler struct {
	repo Repository
	now  func() time.Time
}

// NewReconciler creates a reconciler over the billing repository.
func NewReconciler(repo Repository) *Reconciler {
	return &Reconciler{repo: repo, now: time.Now}
}

// ApplyEvent dispatches a verified webhook event to its handler. Event types
// without a handler are acknowledged and logged; the caller still responds
// with success so Stripe stops redelivering.
func (s *Reconciler) ApplyEvent(eventType string, object []byte) error {
	switch eventType {
	case EventSubscriptionCreated:
		return s.handleSubscriptionCreated(object)
	case EventSubscriptionUpdated:
		return s.handleSubscriptionUpdated(object)
	case EventSubscriptionDeleted:
		return s.handleSubscriptionDeleted(object)
	case EventPaymentSucceeded:
		return s.handlePayment(eventType, object)
	case EventPaymentFailed:
		return s.handlePayment(eventType, object)
	default:
		log.Printf("[Billing] ignoring unhandled event type %s", eventType)
		return nil
	}
}

func (s *Reconciler) handleSubscriptionCreated(object []byte) error {
	ev, err := ParseSubscriptionEvent(object)
	if err != nil {
		return fmt.Errorf("parse subscription payload: %w", err)
	}

	start := ev.StartedAt()
	return s.repo.UpdateAccountByCustomerID(ev.Customer, func(u *models.User) error {
		u.StripeSubscriptionID = ev.ID
		u.IsPremium = ev.IsActive()
		u.SubscriptionStartDate = &start
		if end := ev.PeriodEnd(); end != nil {
			u.SubscriptionEndDate = end
		}
		log.Printf("[Billing] subscription %s created for account %d (premium=%t)", ev.ID, u.ID, u.IsPremium)
		return nil
	})
}

func (s *Reconciler) handleSubscriptionUpdated(object []byte) error {
	ev, err := ParseSubscriptionEvent(object)
	if err != nil {
		return fmt.Errorf("parse subscription payload: %w", err)
	}

	// updates only re-derive premium and the period end; the stored
	// subscription id stays as the created event set it
	return s.repo.UpdateAccountByCustomerID(ev.Customer, func(u *models.User) error {
		u.IsPremium = ev.IsActive()
		if end := ev.PeriodEnd(); end != nil {
			u.SubscriptionEndDate = end
		}
		log.Printf("[Billing] subscription %s updated for account %d (premium=%t, cancel_at_period_end=%t)",
			ev.ID, u.ID, u.IsPremium, ev.CancelAtPeriodEnd)
		return nil
	})
}

func (s *Reconciler) handleSubscriptionDeleted(object []byte) error {
	ev, err := ParseSubscriptionEvent(object)
	if err != nil {
		return fmt.Errorf("parse subscription payload: %w", err)
	}

	now := s.now()
	return s.repo.UpdateAccountByCustomerID(ev.Customer, func(u *models.User) error {
		u.IsPremium = false
		u.SubscriptionEndDate = &now
		log.Printf("[Billing] subscription %s deleted for account %d", ev.ID, u.ID)
		return nil
	})
}

// handlePayment logs invoice outcomes. Access changes only happen through
// subscription lifecycle events, so a failed payment on its own does not
// revoke premium.
func (s *Reconciler) handlePayment(eventType string, object []byte) error {
	ev, err := ParseInvoiceEvent(object)
	if err != nil {
		return fmt.Errorf("parse invoice payload: %w", err)
	}
	log.Printf("[Billing] %s for customer %s (invoice %s)", eventType, ev.Customer, ev.ID)
	return nil
}
