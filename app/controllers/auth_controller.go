package controllers

import (
	"fmt"
	"log"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/pulsarpub/pulsar/app/models"
	"github.com/pulsarpub/pulsar/app/repository"
	"github.com/pulsarpub/pulsar/internal/pkg/denylist"
	"github.com/pulsarpub/pulsar/internal/pkg/env"
	"github.com/pulsarpub/pulsar/internal/pkg/hcaptcha"
	"github.com/pulsarpub/pulsar/internal/pkg/session"
)

var authRepos *repository.Repositories

// InitializeAuthController wires the repositories used by the auth handlers.
func InitializeAuthController(repos *repository.Repositories) {
	authRepos = repos
}

func HandleAuthLogin(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return render(c, "auth_login", nil)
	}

	// notice: in production you should not inform the user
	// with detailed messages about login failures
	user, err := authRepos.User.GetByEmail(c.FormValue("email"))
	if err != nil {
		return flashError(c, "There is a problem with the login process", "/login")
	}

	if !user.CheckPassword(c.FormValue("password")) {
		return flashError(c, "There is a problem with the login process", "/login")
	}

	if err := logIn(c, user); err != nil {
		return flashError(c, fmt.Sprintf("something went wrong: %s", err), "/login")
	}

	return flashSuccess(c, "Welcome back!", "/")
}

func HandleAuthRegister(c *fiber.Ctx) error {
	if c.Method() != fiber.MethodPost {
		return render(c, "auth_register", fiber.Map{
			"HCaptchaSiteKey": env.GetEnv("HCAPTCHA_SITEKEY", ""),
		})
	}

	username := strings.ToLower(strings.TrimSpace(c.FormValue("username")))
	email := strings.TrimSpace(c.FormValue("email"))
	password := c.FormValue("password")

	if denylist.IsReserved(username) {
		return flashError(c, "username unavailable", "/register")
	}

	if hcaptcha.Enabled() {
		if ok, err := hcaptcha.Verify(c.FormValue("h-captcha-response")); !ok {
			log.Printf("hCaptcha verification failed: %v", err)
			return flashError(c, "captcha verification failed, please try again", "/register")
		}
	}

	if taken, err := authRepos.User.UsernameExists(username); err != nil || taken {
		return flashError(c, "username unavailable", "/register")
	}

	user, err := models.CreateUser(username, email, password)
	if err != nil {
		return flashError(c, "please check username, email and password (min 6 characters)", "/register")
	}

	if err := authRepos.User.Create(user); err != nil {
		// unique index on email catches duplicates under concurrency
		return flashError(c, "username or email already registered", "/register")
	}

	if err := logIn(c, user); err != nil {
		return flashError(c, fmt.Sprintf("something went wrong: %s", err), "/login")
	}

	return c.Redirect("/onboarding/title", fiber.StatusSeeOther)
}

func HandleAuthLogout(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return flashError(c, "logged out (no sess)", "/login")
	}

	if err := sess.Destroy(); err != nil {
		return flashError(c, fmt.Sprintf("something went wrong: %s", err), "/login")
	}

	return flashSuccess(c, "Bye! See you soon.", "/login")
}

func logIn(c *fiber.Ctx, user *models.User) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return err
	}

	sess.Set(AUTH_KEY, true)
	sess.Set(USER_ID, user.ID)
	sess.Set(USER_NAME, user.Username)

	return sess.Save()
}
