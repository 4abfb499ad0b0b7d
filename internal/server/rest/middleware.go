package rest

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

const localUser = "current_user"

// accessLog logs one line per request. Errors are rendered here so the
// logged status is the one the client receives.
func accessLog(l logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		if err := c.Next(); err != nil {
			if herr := c.App().ErrorHandler(c, err); herr != nil {
				_ = c.SendStatus(fiber.StatusInternalServerError)
			}
		}

		l.Info(c.UserContext(), "request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"latency", time.Since(start).String(),
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		)
		return nil
	}
}

// bearerToken extracts the token from "Authorization: Bearer <token>".
func bearerToken(c *fiber.Ctx) string {
	h := strings.TrimSpace(c.Get(common.AuthorizationHeaderName))
	scheme, token, ok := strings.Cut(h, " ")
	if !ok || !strings.EqualFold(scheme, common.BearerScheme) {
		return ""
	}
	return strings.TrimSpace(token)
}

// currentUser resolves the bearer token, applies gates and stores the user
// in the request locals.
func currentUser(ac *services.AccessController, gates ...services.Gate) fiber.Handler {
	return func(c *fiber.Ctx) error {
		user, err := ac.ResolveCurrentUser(c.UserContext(), bearerToken(c))
		if err != nil {
			return err
		}
		if err := ac.Authorize(user, gates...); err != nil {
			return err
		}
		c.Locals(localUser, user)
		return c.Next()
	}
}

func userFrom(c *fiber.Ctx) *models.User {
	u, _ := c.Locals(localUser).(*models.User)
	return u
}
