package router

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/pulsarpub/pulsar/app/controllers"
	"github.com/pulsarpub/pulsar/app/repository"
	"github.com/pulsarpub/pulsar/internal/pkg/billing"
	"github.com/pulsarpub/pulsar/internal/pkg/database"
	"github.com/pulsarpub/pulsar/internal/pkg/env"
	"github.com/pulsarpub/pulsar/internal/pkg/middleware"
	"github.com/pulsarpub/pulsar/internal/pkg/session"
	"github.com/pulsarpub/pulsar/internal/pkg/tenant"
)

type HttpRouter struct {
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// init session
	session.NewSessionStore()

	db := database.GetDB()
	repos := repository.NewRepositories(db)

	resolver := tenant.NewResolver(env.CanonicalHost(), tenant.NewGormDirectory(db))
	middleware.SetResolver(resolver)

	// classify the host, then attach the user context, on every request
	app.Use(middleware.TenantMiddleware)
	app.Use(middleware.UserContextMiddleware)

	controllers.InitializeMainController(resolver, repos)
	controllers.InitializeAuthController(repos)
	controllers.InitializeUserController(repos)
	controllers.InitializePageController(repos)
	controllers.InitializeImageController(repos)

	var checkout billing.CheckoutClient
	if stripeClient, err := billing.NewStripeClientFromEnv(); err != nil {
		log.Printf("stripe disabled: %v", err)
	} else {
		checkout = stripeClient
	}
	billingRepo := billing.NewRepository(db)
	controllers.InitializeBillingController(repos, checkout, billing.NewReconciler(billingRepo), billingRepo)

	h.registerPublicRoutes(app)
	h.registerCSRFProtectedRoutes(app)
}
