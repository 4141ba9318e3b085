package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/pulsarpub/pulsar/app/repository"
	"github.com/pulsarpub/pulsar/internal/pkg/env"
	"github.com/pulsarpub/pulsar/internal/pkg/middleware"
	"github.com/pulsarpub/pulsar/internal/pkg/statistics"
	"github.com/pulsarpub/pulsar/internal/pkg/tenant"
	"github.com/pulsarpub/pulsar/internal/pkg/usercontext"
)

var (
	mainResolver *tenant.Resolver
	mainRepos    *repository.Repositories
)

// InitializeMainController wires the tenant resolver and repositories used by
// the index and domain-check handlers.
func InitializeMainController(resolver *tenant.Resolver, repos *repository.Repositories) {
	mainResolver = resolver
	mainRepos = repos
}

// HandleIndex serves "/" for every host class: the account site on subdomains
// and custom domains, the landing or a redirect to the user's own site on the
// canonical host, and 403 everywhere else.
func HandleIndex(c *fiber.Ctx) error {
	res := middleware.GetResolution(c)

	switch res.Kind {
	case tenant.KindSubdomain, tenant.KindCustomDomain:
		return renderAccountIndex(c, res)
	case tenant.KindCanonical:
		uc := usercontext.GetUserContext(c)
		if uc.IsLoggedIn {
			return c.Redirect(fmt.Sprintf("%s//%s.%s/", env.Protocol(), uc.Username, env.CanonicalHost()))
		}
		statistics.UpdateCacheIfNeeded()
		stats := statistics.GetStatistics()
		return render(c, "landing", fiber.Map{
			"TotalUsers":  stats.TotalUsers,
			"TotalPages":  stats.TotalPages,
			"TotalImages": stats.TotalImages,
		})
	default:
		return c.SendStatus(fiber.StatusForbidden)
	}
}

func renderAccountIndex(c *fiber.Ctx, res tenant.Resolution) error {
	account := res.Account
	uc := usercontext.GetUserContext(c)

	// owners land in onboarding until they give their site a title
	if uc.IsLoggedIn && uc.UserID == account.ID && !account.HasOnboarded() {
		return c.Redirect("/onboarding/title", fiber.StatusSeeOther)
	}

	pages, err := mainRepos.Page.ListByUser(account.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not load pages")
	}

	return render(c, "account_index", fiber.Map{
		"Account":   account,
		"Pages":     pages,
		"IsOwner":   uc.IsLoggedIn && uc.UserID == account.ID,
		"Title":     account.WebsiteTitle,
		"CustomCSS": account.CustomCSS,
	})
}

// HandleLanding shows the marketing page to logged-in users who ask for it.
func HandleLanding(c *fiber.Ctx) error {
	statistics.UpdateCacheIfNeeded()
	stats := statistics.GetStatistics()
	return render(c, "landing", fiber.Map{
		"TotalUsers":  stats.TotalUsers,
		"TotalPages":  stats.TotalPages,
		"TotalImages": stats.TotalImages,
	})
}

// HandleMarkdownGuide serves the Markdown syntax reference.
func HandleMarkdownGuide(c *fiber.Ctx) error {
	return render(c, "markdown", nil)
}

// HandleDomainCheck answers the web server's on-demand TLS question: 200 when
// the queried domain belongs to the platform or a registered account, 403
// otherwise. Certificate issuance for unknown hosts must fail.
func HandleDomainCheck(c *fiber.Ctx) error {
	domain := c.Query("domain")
	if domain == "" {
		return c.SendStatus(fiber.StatusForbidden)
	}

	res, err := mainResolver.Resolve(domain)
	if err != nil {
		return c.SendStatus(fiber.StatusForbidden)
	}
	if res.Kind == tenant.KindUnrecognized {
		return c.SendStatus(fiber.StatusForbidden)
	}
	return c.SendStatus(fiber.StatusOK)
}
