package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pulsarpub/pulsar/app/controllers"
	"github.com/pulsarpub/pulsar/internal/pkg/middleware"
)

func (h HttpRouter) registerPublicRoutes(app *fiber.App) {
	// on-demand TLS hook for the reverse proxy
	app.Get("/domain-check", controllers.HandleDomainCheck)

	// public raw image delivery
	app.Get("/images/raw/:slug.:extension", controllers.HandleImageRaw)

	// static reference pages
	app.Get("/markdown", controllers.HandleMarkdownGuide)
	app.Get("/landing", middleware.RequireAuth, controllers.HandleLanding)

	// Auth
	app.Post("/logout", middleware.RequireAuth, controllers.HandleAuthLogout)

	// Billing provider webhooks (no CSRF, signature-verified in controller)
	app.Post("/webhooks/stripe", controllers.HandleStripeWebhook)
}
