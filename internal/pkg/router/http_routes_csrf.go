package router

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/csrf"

	"github.com/pulsarpub/pulsar/app/controllers"
	"github.com/pulsarpub/pulsar/internal/pkg/env"
	"github.com/pulsarpub/pulsar/internal/pkg/middleware"
)

func (h HttpRouter) registerCSRFProtectedRoutes(app *fiber.App) {
	csrfConf := csrf.Config{
		KeyLookup:      "form:_csrf",
		ContextKey:     "csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		Expiration:     1 * time.Hour,
		CookieSecure:   !env.IsDev(),
	}

	group := app.Group("", cors.New(), csrf.New(csrfConf))

	group.Get("/", controllers.HandleIndex)

	group.Get("/login", controllers.HandleAuthLogin)
	group.Post("/login", controllers.HandleAuthLogin)
	group.Get("/register", controllers.HandleAuthRegister)
	group.Post("/register", controllers.HandleAuthRegister)

	group.Get("/dashboard", middleware.RequireAuth, controllers.HandleDashboard)
	group.Get("/settings", middleware.RequireAuth, controllers.HandleUserSettings)
	group.Post("/settings", middleware.RequireAuth, controllers.HandleUserSettings)
	group.Get("/custom-css", middleware.RequireAuth, controllers.HandleCustomCSS)
	group.Post("/custom-css", middleware.RequireAuth, controllers.HandleCustomCSS)
	group.Get("/homepage/edit", middleware.RequireAuth, controllers.HandleHomepageUpdate)
	group.Post("/homepage/edit", middleware.RequireAuth, controllers.HandleHomepageUpdate)

	group.Get("/onboarding/title", middleware.RequireAuth, controllers.HandleOnboardingTitle)
	group.Post("/onboarding/title", middleware.RequireAuth, controllers.HandleOnboardingTitle)
	group.Get("/onboarding/body", middleware.RequireAuth, controllers.HandleOnboardingBody)
	group.Post("/onboarding/body", middleware.RequireAuth, controllers.HandleOnboardingBody)
	group.Get("/onboarding/done", middleware.RequireAuth, controllers.HandleOnboardingDone)

	group.Get("/pages/create", middleware.RequireAuth, controllers.HandlePageCreate)
	group.Post("/pages/create", middleware.RequireAuth, controllers.HandlePageCreate)
	group.Get("/pages/edit/:id", middleware.RequireAuth, controllers.HandlePageUpdate)
	group.Post("/pages/edit/:id", middleware.RequireAuth, controllers.HandlePageUpdate)
	group.Post("/pages/delete/:id", middleware.RequireAuth, controllers.HandlePageDelete)
	group.Get("/pages/:slug", controllers.HandlePageDetail)

	group.Get("/images", middleware.RequireAuth, controllers.HandleImageList)
	group.Post("/images/upload", middleware.RequireAuth, controllers.HandleImageUpload)
	group.Get("/images/edit/:slug", middleware.RequireAuth, controllers.HandleImageUpdate)
	group.Post("/images/edit/:slug", middleware.RequireAuth, controllers.HandleImageUpdate)
	group.Post("/images/delete/:slug", middleware.RequireAuth, controllers.HandleImageDelete)
	group.Get("/images/:slug", middleware.RequireAuth, controllers.HandleImageDetail)

	group.Get("/subscription", middleware.RequireAuth, controllers.HandleSubscriptionIndex)
	group.Post("/subscription/checkout", middleware.RequireAuth, controllers.HandleCreateCheckoutSession)
	group.Get("/subscription/success", middleware.RequireAuth, controllers.HandleSubscriptionSuccess)
	group.Get("/subscription/cancel", middleware.RequireAuth, controllers.HandleSubscriptionCancel)
	group.Post("/subscription/cancel", middleware.RequireAuth, controllers.HandleSubscriptionCancel)
}
