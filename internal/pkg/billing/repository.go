package billing

import (
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pulsarpub/pulsar/app/models"
)

// ErrAccountNotFound is returned when a webhook references a Stripe customer
// no account is linked to.
var ErrAccountNotFound = errors.New("billing: no account for stripe customer")

// Repository is the persistence surface of the reconciler. Account updates
// run under a row lock so concurrent webhook deliveries for the same account
// serialize instead of interleaving.
type Repository interface {
	UpdateAccountByCustomerID(customerID string, apply func(*models.User) error) error
	SetCustomerID(accountID uint, customerID string) error
	RecordWebhookEvent(event *models.BillingWebhookEvent) (bool, error)
	MarkWebhookProcessed(eventID uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

// UpdateAccountByCustomerID loads the account linked to customerID with
// SELECT ... FOR UPDATE, applies the mutation and saves it in one
// transaction.
func (r *gormRepository) UpdateAccountByCustomerID(customerID string, apply func(*models.User) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("stripe_customer_id = ?", customerID).
			First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAccountNotFound
			}
			return err
		}

		if err := apply(&user); err != nil {
			return err
		}

		return tx.Save(&user).Error
	})
}

// SetCustomerID links the account to its Stripe customer with a
// single-column update. The checkout flow must never write the full row: a
// stale snapshot would clobber billing fields a concurrent webhook just set.
func (r *gormRepository) SetCustomerID(accountID uint, customerID string) error {
	return r.db.Model(&models.User{}).
		Where("id = ?", accountID).
		Update("stripe_customer_id", customerID).Error
}

// RecordWebhookEvent stores the event if its (provider, event id) pair is new
// and reports whether it was created. Redeliveries return false.
func (r *gormRepository) RecordWebhookEvent(event *models.BillingWebhookEvent) (bool, error) {
	var existing models.BillingWebhookEvent
	err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&existing).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if err := r.db.Create(event).Error; err != nil {
		// lost the race against a concurrent redelivery
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *gormRepository) MarkWebhookProcessed(eventID uint, processingError string) error {
	now := time.Now()
	return r.db.Model(&models.BillingWebhookEvent{}).
		Where("id = ?", eventID).
		Updates(map[string]interface{}{
			"processed_at":     &now,
			"processing_error": processingError,
		}).Error
}
