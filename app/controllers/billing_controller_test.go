package controllers

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsarpub/pulsar/app/models"
	"github.com/pulsarpub/pulsar/app/repository"
	"github.com/pulsarpub/pulsar/internal/pkg/billing"
	"github.com/pulsarpub/pulsar/internal/pkg/usercontext"
)

const testWebhookSecret = "whsec_test_secret"

type fakeBillingRepo struct {
	accounts     map[string]*models.User
	events       map[string]*models.BillingWebhookEvent
	updates      int
	customerSets int
	processed    map[uint]string
}

func newFakeBillingRepo(users ...*models.User) *fakeBillingRepo {
	r := &fakeBillingRepo{
		accounts:  make(map[string]*models.User),
		events:    make(map[string]*models.BillingWebhookEvent),
		processed: make(map[uint]string),
	}
	for _, u := range users {
		r.accounts[u.StripeCustomerID] = u
	}
	return r
}

func (r *fakeBillingRepo) UpdateAccountByCustomerID(customerID string, apply func(*models.User) error) error {
	u, ok := r.accounts[customerID]
	if !ok {
		return billing.ErrAccountNotFound
	}
	r.updates++
	return apply(u)
}

func (r *fakeBillingRepo) SetCustomerID(accountID uint, customerID string) error {
	r.customerSets++
	for _, u := range r.accounts {
		if u.ID == accountID {
			u.StripeCustomerID = customerID
		}
	}
	return nil
}

func (r *fakeBillingRepo) RecordWebhookEvent(event *models.BillingWebhookEvent) (bool, error) {
	key := event.Provider + ":" + event.ProviderEventID
	if _, ok := r.events[key]; ok {
		return false, nil
	}
	event.ID = uint(len(r.events) + 1)
	r.events[key] = event
	return true, nil
}

func (r *fakeBillingRepo) MarkWebhookProcessed(eventID uint, processingError string) error {
	r.processed[eventID] = processingError
	return nil
}

// stripeSignature builds a Stripe-Signature header the same way Stripe does:
// HMAC-SHA256 over "<timestamp>.<payload>".
func stripeSignature(secret string, payload []byte, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func subscriptionEventJSON(eventID, eventType, subID, customer, status string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"object": "event",
		"api_version": "2025-03-31",
		"type": %q,
		"data": {
			"object": {
				"id": %q,
				"customer": %q,
				"status": %q,
				"created": 1700000000,
				"items": {"data": [{"current_period_end": 1702592000}]}
			}
		}
	}`, eventID, eventType, subID, customer, status))
}

func newWebhookApp(repo *fakeBillingRepo) *fiber.App {
	InitializeBillingController(nil, nil, billing.NewReconciler(repo), repo)
	app := fiber.New()
	app.Post("/webhooks/stripe", HandleStripeWebhook)
	return app
}

func postWebhook(t *testing.T, app *fiber.App, payload []byte, signature string) int {
	t.Helper()
	req := httptest.NewRequest(fiber.MethodPost, "/webhooks/stripe", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestStripeWebhookMissingSecret(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", "")
	repo := newFakeBillingRepo()
	app := newWebhookApp(repo)

	payload := subscriptionEventJSON("evt_1", billing.EventSubscriptionCreated, "sub_1", "cus_1", "active")
	status := postWebhook(t, app, payload, stripeSignature(testWebhookSecret, payload, time.Now()))

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Empty(t, repo.events)
}

func TestStripeWebhookInvalidSignature(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	user := &models.User{ID: 1, StripeCustomerID: "cus_1"}
	repo := newFakeBillingRepo(user)
	app := newWebhookApp(repo)

	payload := subscriptionEventJSON("evt_1", billing.EventSubscriptionCreated, "sub_1", "cus_1", "active")
	status := postWebhook(t, app, payload, stripeSignature("whsec_wrong", payload, time.Now()))

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Empty(t, repo.events, "rejected deliveries must not be recorded")
	assert.Zero(t, repo.updates, "rejected deliveries must not touch accounts")
	assert.False(t, user.IsPremium)
}

func TestStripeWebhookMissingSignatureHeader(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	repo := newFakeBillingRepo()
	app := newWebhookApp(repo)

	payload := subscriptionEventJSON("evt_1", billing.EventSubscriptionCreated, "sub_1", "cus_1", "active")
	status := postWebhook(t, app, payload, "")

	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Empty(t, repo.events)
}

func TestStripeWebhookSubscriptionCreated(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	user := &models.User{ID: 1, StripeCustomerID: "cus_1"}
	repo := newFakeBillingRepo(user)
	app := newWebhookApp(repo)

	payload := subscriptionEventJSON("evt_1", billing.EventSubscriptionCreated, "sub_1", "cus_1", "active")
	status := postWebhook(t, app, payload, stripeSignature(testWebhookSecret, payload, time.Now()))

	assert.Equal(t, fiber.StatusOK, status)
	assert.True(t, user.IsPremium)
	assert.Equal(t, "sub_1", user.StripeSubscriptionID)
	require.Len(t, repo.events, 1)
	assert.Equal(t, "", repo.processed[1], "no processing error expected")
}

func TestStripeWebhookRedeliveryIsIgnored(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	user := &models.User{ID: 1, StripeCustomerID: "cus_1"}
	repo := newFakeBillingRepo(user)
	app := newWebhookApp(repo)

	payload := subscriptionEventJSON("evt_1", billing.EventSubscriptionCreated, "sub_1", "cus_1", "active")
	sig := stripeSignature(testWebhookSecret, payload, time.Now())

	assert.Equal(t, fiber.StatusOK, postWebhook(t, app, payload, sig))
	assert.Equal(t, fiber.StatusOK, postWebhook(t, app, payload, sig))

	assert.Equal(t, 1, repo.updates, "redelivery must not reapply the event")
	assert.Len(t, repo.events, 1)
}

func TestStripeWebhookUnknownCustomerIsAcknowledged(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	repo := newFakeBillingRepo()
	app := newWebhookApp(repo)

	payload := subscriptionEventJSON("evt_2", billing.EventSubscriptionDeleted, "sub_9", "cus_missing", "canceled")
	status := postWebhook(t, app, payload, stripeSignature(testWebhookSecret, payload, time.Now()))

	assert.Equal(t, fiber.StatusOK, status, "unknown customers must still be acknowledged")
	require.Len(t, repo.events, 1)
	assert.NotEmpty(t, repo.processed[1], "the failure must be recorded on the event")
}

type fakeCheckout struct {
	customers  int
	sessions   int
	cancels    int
	sessionURL string
	onEnsure   func()
}

func (f *fakeCheckout) EnsureCustomer(ctx context.Context, existingID, email, username string, accountID uint) (string, error) {
	if f.onEnsure != nil {
		f.onEnsure()
	}
	if existingID != "" {
		return existingID, nil
	}
	f.customers++
	return "cus_new", nil
}

func (f *fakeCheckout) CreateCheckoutSession(ctx context.Context, customerID string, accountID uint, successURL, cancelURL string) (string, error) {
	f.sessions++
	return f.sessionURL, nil
}

func (f *fakeCheckout) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) error {
	f.cancels++
	return nil
}

type fakeUserRepo struct {
	users   map[uint]*models.User
	columns [][]string
}

func (r *fakeUserRepo) Create(user *models.User) error { return nil }
func (r *fakeUserRepo) GetByID(id uint) (*models.User, error) {
	if u, ok := r.users[id]; ok {
		return u, nil
	}
	return nil, fiber.ErrNotFound
}
func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, fiber.ErrNotFound
}
func (r *fakeUserRepo) GetByUsername(username string) (*models.User, error) {
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, fiber.ErrNotFound
}
func (r *fakeUserRepo) GetByCustomDomain(domain string) (*models.User, error) {
	return nil, fiber.ErrNotFound
}
func (r *fakeUserRepo) UpdateColumns(user *models.User, columns ...string) error {
	r.columns = append(r.columns, columns)
	return nil
}
func (r *fakeUserRepo) Count() (int64, error)                       { return int64(len(r.users)), nil }
func (r *fakeUserRepo) UsernameExists(string) (bool, error)         { return false, nil }
func (r *fakeUserRepo) CustomDomainExistsExceptID(string, uint) (bool, error) {
	return false, nil
}

// loggedInAs injects the user context the session middleware would build.
func loggedInAs(user *models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
			UserID:     user.ID,
			Username:   user.Username,
			IsLoggedIn: true,
			IsPremium:  user.IsPremium,
		})
		return c.Next()
	}
}

func newCheckoutApp(user *models.User, checkout billing.CheckoutClient, repo *fakeBillingRepo) *fiber.App {
	users := &fakeUserRepo{users: map[uint]*models.User{user.ID: user}}
	InitializeBillingController(&repository.Repositories{User: users}, checkout, billing.NewReconciler(repo), repo)

	app := fiber.New()
	app.Use(loggedInAs(user))
	app.Post("/subscription/checkout", HandleCreateCheckoutSession)
	return app
}

func TestCheckoutCreatesOneCustomerThenOneSession(t *testing.T) {
	user := &models.User{ID: 1, Username: "bob", Email: "bob@example.com"}
	checkout := &fakeCheckout{sessionURL: "https://checkout.stripe.test/cs_1"}
	repo := newFakeBillingRepo(user)
	app := newCheckoutApp(user, checkout, repo)

	req := httptest.NewRequest(fiber.MethodPost, "/subscription/checkout", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "https://checkout.stripe.test/cs_1", resp.Header.Get("Location"))
	assert.Equal(t, 1, checkout.customers)
	assert.Equal(t, 1, checkout.sessions)
	assert.Equal(t, "cus_new", user.StripeCustomerID)
	assert.Equal(t, 1, repo.customerSets, "customer id must be persisted through the single-column write")

	// second attempt reuses the stored customer
	resp, err = app.Test(httptest.NewRequest(fiber.MethodPost, "/subscription/checkout", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, 1, checkout.customers, "existing customer must be reused")
	assert.Equal(t, 2, checkout.sessions)
	assert.Equal(t, 1, repo.customerSets)
}

func TestCheckoutDoesNotClobberConcurrentWebhookState(t *testing.T) {
	user := &models.User{ID: 1, Username: "bob", Email: "bob@example.com"}
	repo := newFakeBillingRepo(user)
	checkout := &fakeCheckout{sessionURL: "https://checkout.stripe.test/cs_1"}

	// the reconciler commits premium between the handler's user load and
	// its persistence step
	checkout.onEnsure = func() {
		user.IsPremium = true
		user.StripeSubscriptionID = "sub_1"
	}

	users := &fakeUserRepo{users: map[uint]*models.User{user.ID: user}}
	InitializeBillingController(&repository.Repositories{User: users}, checkout, billing.NewReconciler(repo), repo)

	app := fiber.New()
	app.Use(loggedInAs(user))
	app.Post("/subscription/checkout", HandleCreateCheckoutSession)

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/subscription/checkout", nil), -1)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusSeeOther, resp.StatusCode)

	assert.True(t, user.IsPremium, "checkout persistence must not revoke premium set by the reconciler")
	assert.Equal(t, "sub_1", user.StripeSubscriptionID)
	assert.Equal(t, "cus_new", user.StripeCustomerID)
	assert.Empty(t, users.columns, "checkout must never issue a user row update")
}

func TestCheckoutAlreadyPremiumShortCircuits(t *testing.T) {
	user := &models.User{ID: 1, Username: "bob", Email: "bob@example.com", IsPremium: true, StripeCustomerID: "cus_1"}
	checkout := &fakeCheckout{sessionURL: "https://checkout.stripe.test/cs_1"}
	app := newCheckoutApp(user, checkout, newFakeBillingRepo(user))

	resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/subscription/checkout", nil), -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/subscription", resp.Header.Get("Location"))
	assert.Zero(t, checkout.customers, "premium accounts must not reach the provider")
	assert.Zero(t, checkout.sessions)
}

func TestStripeWebhookUnknownEventType(t *testing.T) {
	t.Setenv("STRIPE_WEBHOOK_SECRET", testWebhookSecret)
	repo := newFakeBillingRepo()
	app := newWebhookApp(repo)

	payload := []byte(`{"id":"evt_3","object":"event","api_version":"2025-03-31","type":"customer.created","data":{"object":{}}}`)
	status := postWebhook(t, app, payload, stripeSignature(testWebhookSecret, payload, time.Now()))

	assert.Equal(t, fiber.StatusOK, status)
	assert.Zero(t, repo.updates)
}
