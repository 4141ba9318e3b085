package controllers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pulsarpub/pulsar/app/models"
	"github.com/pulsarpub/pulsar/app/repository"
	"github.com/pulsarpub/pulsar/internal/pkg/env"
	"github.com/pulsarpub/pulsar/internal/pkg/middleware"
	"github.com/pulsarpub/pulsar/internal/pkg/tenant"
	"github.com/pulsarpub/pulsar/internal/pkg/usercontext"
)

var pageRepos *repository.Repositories

// InitializePageController wires the repositories used by the page handlers.
func InitializePageController(repos *repository.Repositories) {
	pageRepos = repos
}

func HandlePageCreate(c *fiber.Ctx) error {
	user := currentUser(c, pageRepos.User)
	if user == nil {
		return c.Redirect("/login", fiber.StatusSeeOther)
	}

	if c.Method() != fiber.MethodPost {
		return render(c, "page_create", nil)
	}

	page := &models.Page{
		UserID: user.ID,
		Title:  strings.TrimSpace(c.FormValue("title")),
		Slug:   strings.ToLower(strings.TrimSpace(c.FormValue("slug"))),
		Body:   c.FormValue("body"),
	}

	if err := page.Validate(); err != nil {
		return flashError(c, "please check title and slug", "/pages/create")
	}

	if taken, err := pageRepos.Page.SlugExistsExceptID(user.ID, page.Slug, 0); err != nil || taken {
		return flashError(c, "This slug is already defined as one of your pages.", "/pages/create")
	}

	if err := pageRepos.Page.Create(page); err != nil {
		return flashError(c, "could not create page", "/pages/create")
	}

	return c.Redirect("/pages/"+page.Slug, fiber.StatusSeeOther)
}

// HandlePageDetail serves a page on the account site it belongs to. On the
// canonical host, owners are bounced to their own subdomain and anonymous
// visitors to the landing page.
func HandlePageDetail(c *fiber.Ctx) error {
	res := middleware.GetResolution(c)

	switch res.Kind {
	case tenant.KindSubdomain, tenant.KindCustomDomain:
		// fall through to the tenant lookup below
	case tenant.KindCanonical:
		uc := usercontext.GetUserContext(c)
		if uc.IsLoggedIn {
			return c.Redirect(env.Protocol() + "//" + uc.Username + "." + env.CanonicalHost() + c.Path())
		}
		return c.Redirect("/", fiber.StatusSeeOther)
	default:
		return c.SendStatus(fiber.StatusForbidden)
	}

	account := res.Account
	page, err := pageRepos.Page.GetByUserAndSlug(account.ID, c.Params("slug"))
	if err != nil {
		return fiber.ErrNotFound
	}

	pages, err := pageRepos.Page.ListByUser(account.ID)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "could not load pages")
	}

	uc := usercontext.GetUserContext(c)
	return render(c, "page_detail", fiber.Map{
		"Account":   account,
		"Page":      page,
		"Pages":     pages,
		"IsOwner":   uc.IsLoggedIn && uc.UserID == account.ID,
		"Title":     page.Title,
		"CustomCSS": account.CustomCSS,
	})
}

func HandlePageUpdate(c *fiber.Ctx) error {
	page, status := loadOwnedPage(c)
	if status != fiber.StatusOK {
		return c.SendStatus(status)
	}

	if c.Method() != fiber.MethodPost {
		return render(c, "page_update", fiber.Map{"Page": page})
	}

	slug := strings.ToLower(strings.TrimSpace(c.FormValue("slug")))
	if taken, err := pageRepos.Page.SlugExistsExceptID(page.UserID, slug, page.ID); err != nil || taken {
		return flashError(c, "This slug is already defined as one of your pages.", "/pages/edit/"+c.Params("id"))
	}

	page.Title = strings.TrimSpace(c.FormValue("title"))
	page.Slug = slug
	page.Body = c.FormValue("body")

	if err := page.Validate(); err != nil {
		return flashError(c, "please check title and slug", "/pages/edit/"+c.Params("id"))
	}

	if err := pageRepos.Page.Update(page); err != nil {
		return flashError(c, "could not save page", "/pages/edit/"+c.Params("id"))
	}

	return c.Redirect("/pages/"+page.Slug, fiber.StatusSeeOther)
}

func HandlePageDelete(c *fiber.Ctx) error {
	page, status := loadOwnedPage(c)
	if status != fiber.StatusOK {
		return c.SendStatus(status)
	}

	if err := pageRepos.Page.Delete(page.ID); err != nil {
		return flashError(c, "could not delete page", "/dashboard")
	}

	return flashSuccess(c, "page deleted", "/dashboard")
}

// loadOwnedPage fetches the page in :id and enforces ownership. A mismatch is
// a 403, never a silent redirect.
func loadOwnedPage(c *fiber.Ctx) (*models.Page, int) {
	uc := usercontext.GetUserContext(c)
	if !uc.IsLoggedIn {
		return nil, fiber.StatusForbidden
	}

	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return nil, fiber.StatusNotFound
	}

	page, err := pageRepos.Page.GetByID(uint(id))
	if err != nil {
		return nil, fiber.StatusNotFound
	}

	if page.UserID != uc.UserID {
		return nil, fiber.StatusForbidden
	}

	return page, fiber.StatusOK
}
