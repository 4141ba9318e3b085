package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pulsarpub/pulsar/app/repository"
	"github.com/pulsarpub/pulsar/internal/pkg/env"
	"github.com/pulsarpub/pulsar/internal/pkg/middleware"
	"github.com/pulsarpub/pulsar/internal/pkg/tenant"
)

var userRepos *repository.Repositories

// InitializeUserController wires the repositories used by the account
// handlers.
func InitializeUserController(repos *repository.Repositories) {
	userRepos = repos
}

// HandleDashboard shows the owner's control panel. It always lives on the
// canonical host; tenant hosts redirect there.
func HandleDashboard(c *fiber.Ctx) error {
	if res := middleware.GetResolution(c); res.Kind != tenant.KindCanonical {
		return c.Redirect(canonicalURL()+"/dashboard", fiber.StatusSeeOther)
	}

	user := currentUser(c, userRepos.User)
	if user == nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	pages, err := userRepos.Page.ListByUser(user.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not load pages")
	}

	return render(c, "dashboard", fiber.Map{
		"User":                user,
		"Pages":               pages,
		"WebsiteURL":          user.WebsiteURL(env.Protocol(), env.CanonicalHost()),
		"SubscriptionEnabled": env.GetEnv("STRIPE_SECRET_KEY", "") != "",
	})
}

func HandleUserSettings(c *fiber.Ctx) error {
	user := currentUser(c, userRepos.User)
	if user == nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	if c.Method() != fiber.MethodPost {
		return render(c, "settings", fiber.Map{"User": user})
	}

	user.Email = strings.TrimSpace(c.FormValue("email", user.Email))
	if title := c.FormValue("website_title"); title != "" {
		user.WebsiteTitle = &title
	}
	user.ShowNav = c.FormValue("show_nav") == "on"
	user.Contact = c.FormValue("contact") == "on"

	// custom domains are a premium feature
	if user.IsPremium {
		domain := strings.ToLower(strings.TrimSpace(c.FormValue("custom_domain")))
		if domain != user.CustomDomain {
			if domain != "" {
				if taken, err := userRepos.User.CustomDomainExistsExceptID(domain, user.ID); err != nil || taken {
					return flashError(c, "this domain is already connected to another site", "/settings")
				}
			}
			user.CustomDomain = domain
		}
	}

	if err := user.Validate(); err != nil {
		return flashError(c, "please check your input", "/settings")
	}

	if err := userRepos.User.UpdateColumns(user, "email", "website_title", "show_nav", "contact", "custom_domain"); err != nil {
		return flashError(c, "could not save settings", "/settings")
	}

	return flashSuccess(c, "settings saved", "/settings")
}

// HandleCustomCSS lets owners restyle their site with raw CSS.
func HandleCustomCSS(c *fiber.Ctx) error {
	user := currentUser(c, userRepos.User)
	if user == nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	if c.Method() != fiber.MethodPost {
		return render(c, "custom_css", fiber.Map{"User": user})
	}

	user.CustomCSS = c.FormValue("custom_css")
	if err := userRepos.User.UpdateColumns(user, "custom_css"); err != nil {
		return flashError(c, "could not save CSS", "/custom-css")
	}
	return flashSuccess(c, "CSS saved", "/custom-css")
}

// HandleHomepageUpdate edits the Markdown body of the site's front page.
func HandleHomepageUpdate(c *fiber.Ctx) error {
	user := currentUser(c, userRepos.User)
	if user == nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	if c.Method() != fiber.MethodPost {
		return render(c, "homepage_update", fiber.Map{"User": user})
	}

	user.Homepage = c.FormValue("homepage")
	if err := userRepos.User.UpdateColumns(user, "homepage"); err != nil {
		return flashError(c, "could not save homepage", "/homepage/edit")
	}
	return flashSuccess(c, "homepage saved", "/")
}

// Onboarding: title, then homepage body, then done.

func HandleOnboardingTitle(c *fiber.Ctx) error {
	user := currentUser(c, userRepos.User)
	if user == nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	if c.Method() != fiber.MethodPost {
		return render(c, "onboarding_title", fiber.Map{"User": user})
	}

	title := c.FormValue("website_title")
	user.WebsiteTitle = &title
	if err := userRepos.User.UpdateColumns(user, "website_title"); err != nil {
		return flashError(c, "could not save title", "/onboarding/title")
	}
	return c.Redirect("/onboarding/body", fiber.StatusSeeOther)
}

func HandleOnboardingBody(c *fiber.Ctx) error {
	user := currentUser(c, userRepos.User)
	if user == nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	if c.Method() != fiber.MethodPost {
		return render(c, "onboarding_body", fiber.Map{"User": user})
	}

	user.Homepage = c.FormValue("homepage")
	if err := userRepos.User.UpdateColumns(user, "homepage"); err != nil {
		return flashError(c, "could not save homepage", "/onboarding/body")
	}
	return c.Redirect("/onboarding/done", fiber.StatusSeeOther)
}

func HandleOnboardingDone(c *fiber.Ctx) error {
	user := currentUser(c, userRepos.User)
	if user == nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}
	return render(c, "onboarding_done", fiber.Map{
		"User":       user,
		"WebsiteURL": user.WebsiteURL(env.Protocol(), env.CanonicalHost()),
	})
}
