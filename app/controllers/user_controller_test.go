package controllers

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsarpub/pulsar/app/models"
	"github.com/pulsarpub/pulsar/app/repository"
)

func newSettingsApp(user *models.User) (*fiber.App, *fakeUserRepo) {
	users := &fakeUserRepo{users: map[uint]*models.User{user.ID: user}}
	InitializeUserController(&repository.Repositories{User: users})

	app := fiber.New()
	app.Use(loggedInAs(user))
	app.Post("/settings", HandleUserSettings)
	return app, users
}

func TestSettingsUpdateWritesOnlyProfileColumns(t *testing.T) {
	user := &models.User{ID: 1, Username: "hsts", Email: "hsts@example.com", Password: "secret1"}
	app, users := newSettingsApp(user)

	form := url.Values{}
	form.Set("email", "new@example.com")
	form.Set("website_title", "HSTS Blog")
	form.Set("show_nav", "on")

	req := httptest.NewRequest(fiber.MethodPost, "/settings", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Equal(t, "/settings", resp.Header.Get("Location"))
	assert.Equal(t, "new@example.com", user.Email)

	require.Len(t, users.columns, 1)
	assert.ElementsMatch(t,
		[]string{"email", "website_title", "show_nav", "contact", "custom_domain"},
		users.columns[0])
	for _, col := range users.columns[0] {
		assert.NotContains(t,
			[]string{"is_premium", "stripe_customer_id", "stripe_subscription_id", "subscription_start_date", "subscription_end_date"},
			col, "profile saves must never target billing columns")
	}
}

func TestSettingsCustomDomainRequiresPremium(t *testing.T) {
	user := &models.User{ID: 1, Username: "hsts", Email: "hsts@example.com", Password: "secret1"}
	app, _ := newSettingsApp(user)

	form := url.Values{}
	form.Set("email", "hsts@example.com")
	form.Set("custom_domain", "hsts.dev")

	req := httptest.NewRequest(fiber.MethodPost, "/settings", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	assert.Equal(t, fiber.StatusFound, resp.StatusCode)
	assert.Empty(t, user.CustomDomain, "free accounts must not set a custom domain")
}
