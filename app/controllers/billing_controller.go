package controllers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/pulsarpub/pulsar/app/models"
	"github.com/pulsarpub/pulsar/app/repository"
	"github.com/pulsarpub/pulsar/internal/pkg/billing"
	"github.com/pulsarpub/pulsar/internal/pkg/env"
	"github.com/pulsarpub/pulsar/internal/pkg/mail"
	"github.com/pulsarpub/pulsar/internal/pkg/middleware"
	"github.com/pulsarpub/pulsar/internal/pkg/tenant"
)

var (
	billingRepos      *repository.Repositories
	billingStripe     billing.CheckoutClient
	billingReconciler *billing.Reconciler
	billingRepo       billing.Repository
)

// InitializeBillingController wires the Stripe client, the reconciler and the
// billing repository. A nil checkout client disables the checkout flows but
// the webhook endpoint stays up.
func InitializeBillingController(repos *repository.Repositories, checkout billing.CheckoutClient, reconciler *billing.Reconciler, repo billing.Repository) {
	billingRepos = repos
	billingStripe = checkout
	billingReconciler = reconciler
	billingRepo = repo
}

// HandleSubscriptionIndex shows the subscription state. Lives on the
// canonical host like the dashboard.
func HandleSubscriptionIndex(c *fiber.Ctx) error {
	if res := middleware.GetResolution(c); res.Kind != tenant.KindCanonical {
		return c.Redirect(canonicalURL()+"/subscription", fiber.StatusSeeOther)
	}

	user := currentUser(c, billingRepos.User)
	if user == nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	return render(c, "subscription_index", fiber.Map{
		"User":                 user,
		"StripePublishableKey": env.GetEnv("STRIPE_PUBLISHABLE_KEY", ""),
		"SubscriptionEnabled":  billingStripe != nil,
	})
}

// HandleCreateCheckoutSession starts the hosted Stripe checkout. Already
// premium accounts short-circuit with an info flash.
func HandleCreateCheckoutSession(c *fiber.Ctx) error {
	user := currentUser(c, billingRepos.User)
	if user == nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	if user.IsPremium {
		return flashInfo(c, "You already have an active premium subscription.", "/subscription")
	}

	if billingStripe == nil {
		return flashError(c, "subscriptions are not available right now", "/subscription")
	}

	ctx, cancel := context.WithTimeout(c.Context(), 15*time.Second)
	defer cancel()

	customerID, err := billingStripe.EnsureCustomer(ctx, user.StripeCustomerID, user.Email, user.Username, user.ID)
	if err != nil {
		log.Printf("error creating checkout session: %v", err)
		return flashError(c, "error processing your request, please contact admin@pulsar.pub", "/subscription")
	}

	// single-column write: the billing reconciler owns the other
	// subscription fields and may be committing concurrently
	if user.StripeCustomerID == "" {
		if err := billingRepo.SetCustomerID(user.ID, customerID); err != nil {
			log.Printf("error saving stripe customer id for user %d: %v", user.ID, err)
			return flashError(c, "error processing your request, please contact admin@pulsar.pub", "/subscription")
		}
	}

	sessionURL, err := billingStripe.CreateCheckoutSession(
		ctx,
		customerID,
		user.ID,
		canonicalURL()+"/subscription/success",
		canonicalURL()+"/subscription",
	)
	if err != nil {
		log.Printf("error creating checkout session: %v", err)
		return flashError(c, "error processing your request, please contact admin@pulsar.pub", "/subscription")
	}

	return c.Redirect(sessionURL, fiber.StatusSeeOther)
}

// HandleSubscriptionSuccess thanks the user. The short delay gives the
// webhook a head start; correctness never depends on it.
func HandleSubscriptionSuccess(c *fiber.Ctx) error {
	time.Sleep(2 * time.Second)
	return flashSuccess(c, "thanks for subscribing!", "/subscription")
}

// HandleSubscriptionCancel renders the confirmation form on GET and flags the
// subscription to lapse at period end on POST.
func HandleSubscriptionCancel(c *fiber.Ctx) error {
	user := currentUser(c, billingRepos.User)
	if user == nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	if c.Method() != fiber.MethodPost {
		return render(c, "subscription_cancel", fiber.Map{"User": user})
	}

	if user.StripeSubscriptionID == "" {
		return flashError(c, "no active subscription found", "/subscription")
	}

	if billingStripe == nil {
		return flashError(c, "subscriptions are not available right now", "/subscription")
	}

	ctx, cancel := context.WithTimeout(c.Context(), 15*time.Second)
	defer cancel()

	if err := billingStripe.CancelAtPeriodEnd(ctx, user.StripeSubscriptionID); err != nil {
		log.Printf("error canceling subscription: %v", err)
		return flashError(c, "there was an error canceling your subscription. please contact admin@pulsar.pub", "/subscription")
	}

	return flashSuccess(c, "your subscription will end at the end of the current billing period and will not renew", "/subscription")
}

// HandleStripeWebhook is the reconciler's inbox. Signature first, then
// dedup, then event application; Stripe always gets a 2xx for verified
// deliveries so it stops retrying.
func HandleStripeWebhook(c *fiber.Ctx) error {
	log.Println("[StripeWebhook] webhook received")
	payload := c.Body()
	sigHeader := c.Get("Stripe-Signature")

	secret := env.GetEnv("STRIPE_WEBHOOK_SECRET", "")
	if secret == "" {
		log.Println("[StripeWebhook] STRIPE_WEBHOOK_SECRET not configured")
		return c.SendStatus(fiber.StatusBadRequest)
	}

	event, err := billing.VerifyWebhook(payload, sigHeader, secret)
	if err != nil {
		log.Printf("[StripeWebhook] invalid payload or signature: %v", err)
		return c.SendStatus(fiber.StatusBadRequest)
	}

	record := &models.BillingWebhookEvent{
		Provider:        models.BillingProviderStripe,
		ProviderEventID: event.ID,
		EventType:       string(event.Type),
		PayloadJSON:     string(payload),
		SignatureValid:  true,
	}
	created, err := billingRepo.RecordWebhookEvent(record)
	if err != nil {
		log.Printf("[StripeWebhook] could not record event %s: %v", event.ID, err)
		return c.SendStatus(fiber.StatusInternalServerError)
	}
	if !created {
		log.Printf("[StripeWebhook] duplicate delivery of event %s, skipping", event.ID)
		return c.SendStatus(fiber.StatusOK)
	}

	mail.NotifyAdmins(
		fmt.Sprintf("Stripe Webhook Received: %s", event.Type),
		fmt.Sprintf("<p>Event %s (%s) received at %s.</p><pre>%s</pre>",
			event.ID, event.Type, time.Now().UTC().Format(time.RFC3339), payload),
	)

	processingError := ""
	if err := billingReconciler.ApplyEvent(string(event.Type), event.Data.Raw); err != nil {
		// unresolvable customers and handler failures are logged, not retried
		log.Printf("[StripeWebhook] error processing event %s (%s): %v", event.ID, event.Type, err)
		processingError = err.Error()
	}

	if err := billingRepo.MarkWebhookProcessed(record.ID, processingError); err != nil {
		log.Printf("[StripeWebhook] could not mark event %s processed: %v", event.ID, err)
	}

	return c.SendStatus(fiber.StatusOK)
}
