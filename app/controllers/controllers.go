package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/sujit-baniya/flash"

	"github.com/pulsarpub/pulsar/app/models"
	"github.com/pulsarpub/pulsar/app/repository"
	"github.com/pulsarpub/pulsar/internal/pkg/env"
	"github.com/pulsarpub/pulsar/internal/pkg/usercontext"
)

// Session keys shared with the user context middleware.
const (
	AUTH_KEY  string = usercontext.AuthKey
	USER_ID   string = usercontext.KeyUserID
	USER_NAME string = usercontext.KeyUsername
)

// canonicalURL returns the absolute URL of the platform host, e.g.
// "https://pulsar.pub".
func canonicalURL() string {
	return fmt.Sprintf("%s//%s", env.Protocol(), env.CanonicalHost())
}

// currentUser loads the logged-in user fresh from the database, or nil for
// anonymous requests.
func currentUser(c *fiber.Ctx, users repository.UserRepository) *models.User {
	uc := usercontext.GetUserContext(c)
	if !uc.IsLoggedIn {
		return nil
	}
	user, err := users.GetByID(uc.UserID)
	if err != nil {
		return nil
	}
	return user
}

// csrfToken returns the token set by the CSRF middleware, or empty on routes
// outside the protected group.
func csrfToken(c *fiber.Ctx) string {
	if token, ok := c.Locals("csrf").(string); ok {
		return token
	}
	return ""
}

// render wraps c.Render with the values every template expects.
func render(c *fiber.Ctx, name string, data fiber.Map) error {
	if data == nil {
		data = fiber.Map{}
	}
	uc := usercontext.GetUserContext(c)
	data["IsLoggedIn"] = uc.IsLoggedIn
	data["Username"] = uc.Username
	data["IsPremium"] = uc.IsPremium
	data["CanonicalURL"] = canonicalURL()
	data["CSRFToken"] = csrfToken(c)
	if _, ok := data["Flash"]; !ok {
		data["Flash"] = flash.Get(c)
	}
	return c.Render(name, data)
}

func flashError(c *fiber.Ctx, message, target string) error {
	return flash.WithError(c, fiber.Map{
		"type":    "error",
		"message": message,
	}).Redirect(target)
}

func flashSuccess(c *fiber.Ctx, message, target string) error {
	return flash.WithSuccess(c, fiber.Map{
		"type":    "success",
		"message": message,
	}).Redirect(target)
}

func flashInfo(c *fiber.Ctx, message, target string) error {
	return flash.WithInfo(c, fiber.Map{
		"type":    "info",
		"message": message,
	}).Redirect(target)
}
