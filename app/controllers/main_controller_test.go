package controllers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/template/html/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsarpub/pulsar/app/models"
	"github.com/pulsarpub/pulsar/app/repository"
	"github.com/pulsarpub/pulsar/internal/pkg/middleware"
	"github.com/pulsarpub/pulsar/internal/pkg/tenant"
)

type fakeDirectory struct {
	usernames map[string]*models.User
	domains   map[string]*models.User
}

func (d *fakeDirectory) ByUsername(username string) (*models.User, error) {
	if u, ok := d.usernames[username]; ok {
		return u, nil
	}
	return nil, tenant.ErrNotFound
}

func (d *fakeDirectory) ByCustomDomain(domain string) (*models.User, error) {
	if u, ok := d.domains[domain]; ok {
		return u, nil
	}
	return nil, tenant.ErrNotFound
}

type fakePageRepo struct {
	pages []models.Page
}

func (r *fakePageRepo) Create(page *models.Page) error { return nil }
func (r *fakePageRepo) GetByID(id uint) (*models.Page, error) {
	return nil, tenant.ErrNotFound
}
func (r *fakePageRepo) GetByUserAndSlug(userID uint, slug string) (*models.Page, error) {
	for i := range r.pages {
		if r.pages[i].UserID == userID && r.pages[i].Slug == slug {
			return &r.pages[i], nil
		}
	}
	return nil, tenant.ErrNotFound
}
func (r *fakePageRepo) ListByUser(userID uint) ([]models.Page, error) { return r.pages, nil }
func (r *fakePageRepo) Update(page *models.Page) error                { return nil }
func (r *fakePageRepo) Delete(id uint) error                          { return nil }
func (r *fakePageRepo) SlugExistsExceptID(userID uint, slug string, id uint) (bool, error) {
	return false, nil
}

func newTestApp(t *testing.T) *fiber.App {
	t.Helper()

	title := "HSTS Blog"
	account := &models.User{ID: 1, Username: "hsts", WebsiteTitle: &title}
	resolver := tenant.NewResolver("pulsar.pub", &fakeDirectory{
		usernames: map[string]*models.User{"hsts": account},
		domains:   map[string]*models.User{"hsts.dev": account},
	})

	middleware.SetResolver(resolver)
	InitializeMainController(resolver, &repository.Repositories{
		Page: &fakePageRepo{},
	})

	app := fiber.New(fiber.Config{
		Views: html.New("../../views", ".html"),
	})
	app.Use(middleware.TenantMiddleware)
	app.Get("/domain-check", HandleDomainCheck)
	app.Get("/", HandleIndex)
	return app
}

func TestHandleDomainCheck(t *testing.T) {
	app := newTestApp(t)

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"canonical host", "/domain-check?domain=pulsar.pub", fiber.StatusOK},
		{"registered subdomain", "/domain-check?domain=hsts.pulsar.pub", fiber.StatusOK},
		{"custom domain", "/domain-check?domain=hsts.dev", fiber.StatusOK},
		{"unknown subdomain", "/domain-check?domain=nobody.pulsar.pub", fiber.StatusForbidden},
		{"unknown domain", "/domain-check?domain=example.com", fiber.StatusForbidden},
		{"nested label", "/domain-check?domain=x.hsts.pulsar.pub", fiber.StatusForbidden},
		{"missing parameter", "/domain-check", fiber.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodGet, tt.target, nil)
			resp, err := app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.status, resp.StatusCode)
		})
	}
}

func TestHandleIndexUnrecognizedHost(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Host = "stranger.example.com"
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestHandleIndexRendersAccountSite(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Host = "hsts.pulsar.pub"
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestHandleIndexCustomDomainRendersAccountSite(t *testing.T) {
	app := newTestApp(t)

	req := httptest.NewRequest(fiber.MethodGet, "/", nil)
	req.Host = "hsts.dev"
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}
