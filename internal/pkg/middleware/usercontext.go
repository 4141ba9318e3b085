package middleware

import (
	"github.com/gofiber/fiber/v2"

	"github.com/pulsarpub/pulsar/app/repository"
	"github.com/pulsarpub/pulsar/internal/pkg/database"
	"github.com/pulsarpub/pulsar/internal/pkg/session"
	"github.com/pulsarpub/pulsar/internal/pkg/usercontext"
)

// UserContextMiddleware sets up the complete user context for every request
// This centralizes user session handling and eliminates code duplication
func UserContextMiddleware(c *fiber.Ctx) error {
	sess, err := session.GetSessionStore().Get(c)
	if err != nil {
		return anonymous(c)
	}

	userID := sess.Get(usercontext.KeyUserID)
	if userID == nil {
		return anonymous(c)
	}

	id, ok := userID.(uint)
	if !ok {
		return anonymous(c)
	}

	username := session.GetSessionValue(c, usercontext.KeyUsername)

	isPremium := false
	if db := database.GetDB(); db != nil {
		if user, err := repository.NewUserRepository(db).GetByID(id); err == nil {
			isPremium = user.IsPremium
			username = user.Username
		}
	}

	c.Locals(usercontext.KeyUserContext, usercontext.UserContext{
		UserID:     id,
		Username:   username,
		IsLoggedIn: true,
		IsPremium:  isPremium,
	})
	c.Locals(usercontext.KeyFromProtected, true)
	c.Locals(usercontext.KeyUserID, id)
	c.Locals(usercontext.KeyUsername, username)

	return c.Next()
}

func anonymous(c *fiber.Ctx) error {
	c.Locals(usercontext.KeyUserContext, usercontext.UserContext{IsLoggedIn: false})
	c.Locals(usercontext.KeyFromProtected, false)
	return c.Next()
}
