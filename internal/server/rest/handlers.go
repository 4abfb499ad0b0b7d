package rest

import (
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/gofiber/fiber/v2"
)

type handlers struct {
	users               *services.UserService
	access              *services.AccessController
	logger              logging.Logger
	requireVerification bool
}

func (h *handlers) register(app *fiber.App) {
	app.Get("/healthz", h.health)

	a := app.Group("/auth")
	a.Post("/register", h.registerUser)
	a.Post("/jwt/login", h.login)
	a.Post("/jwt/logout", currentUser(h.access, services.RequireActive), h.logout)
	a.Post("/forgot-password", h.forgotPassword)
	a.Post("/reset-password", h.resetPassword)
	a.Post("/request-verify-token", h.requestVerifyToken)
	a.Post("/verify", h.verify)

	self := []services.Gate{services.RequireActive}
	if h.requireVerification {
		self = append(self, services.RequireVerified)
	}
	admin := append(append([]services.Gate{}, self...), services.RequireSuperuser)

	u := app.Group("/users")
	u.Get("/me", currentUser(h.access, self...), h.me)
	u.Patch("/me", currentUser(h.access, self...), h.updateMe)
	u.Get("/:id", currentUser(h.access, admin...), h.getUser)
	u.Patch("/:id", currentUser(h.access, admin...), h.updateUser)
	u.Delete("/:id", currentUser(h.access, admin...), h.deleteUser)
}

func (h *handlers) health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (h *handlers) registerUser(c *fiber.Ctx) error {
	var body registerRequest
	if err := c.BodyParser(&body); err != nil {
		return errInvalidBody
	}

	user, err := h.users.Register(c.UserContext(), services.RegisterInput{
		Email:     body.Email,
		Password:  body.Password,
		FirstName: body.FirstName,
		LastName:  body.LastName,
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return badRequest(codeRegisterUserAlreadyExists)
		}
		return invalidPassword(codeRegisterInvalidPassword, err)
	}

	return c.Status(fiber.StatusCreated).JSON(toUserResponse(user))
}

func (h *handlers) login(c *fiber.Ctx) error {
	var body loginRequest
	if err := c.BodyParser(&body); err != nil {
		return errInvalidBody
	}

	email := body.Username
	if email == "" {
		email = body.Email
	}

	_, token, err := h.users.Authenticate(c.UserContext(), email, body.Password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrorBadCredentials), errors.Is(err, common.ErrorInactiveUser):
			return badRequest(codeLoginBadCredentials)
		case errors.Is(err, common.ErrorNotVerified):
			return badRequest(codeLoginUserNotVerified)
		}
		return err
	}

	return c.JSON(tokenResponse{AccessToken: token, TokenType: common.TokenTypeBearer})
}

// logout is a no-op for stateless tokens beyond checking the caller.
func (h *handlers) logout(c *fiber.Ctx) error {
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *handlers) forgotPassword(c *fiber.Ctx) error {
	var body emailRequest
	if err := c.BodyParser(&body); err != nil {
		return errInvalidBody
	}

	if _, err := h.users.RequestPasswordReset(c.UserContext(), body.Email); err != nil {
		h.logger.Error(c.UserContext(), "forgot password", "error", err)
	}

	return c.Status(fiber.StatusAccepted).JSON(nil)
}

func (h *handlers) resetPassword(c *fiber.Ctx) error {
	var body resetPasswordRequest
	if err := c.BodyParser(&body); err != nil {
		return errInvalidBody
	}

	if _, err := h.users.ResetPassword(c.UserContext(), body.Token, body.Password); err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			return badRequest(codeResetPasswordBadToken)
		}
		return invalidPassword(codeResetPasswordInvalidPassword, err)
	}

	return c.Status(fiber.StatusOK).JSON(nil)
}

func (h *handlers) requestVerifyToken(c *fiber.Ctx) error {
	var body emailRequest
	if err := c.BodyParser(&body); err != nil {
		return errInvalidBody
	}

	if _, err := h.users.RequestVerification(c.UserContext(), body.Email); err != nil {
		h.logger.Error(c.UserContext(), "request verification", "error", err)
	}

	return c.Status(fiber.StatusAccepted).JSON(nil)
}

func (h *handlers) verify(c *fiber.Ctx) error {
	var body verifyRequest
	if err := c.BodyParser(&body); err != nil {
		return errInvalidBody
	}

	user, err := h.users.VerifyEmail(c.UserContext(), body.Token)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidToken):
			return badRequest(codeVerifyUserBadToken)
		case errors.Is(err, common.ErrorAlreadyVerified):
			return badRequest(codeVerifyUserAlreadyVerified)
		}
		return err
	}

	return c.JSON(toUserResponse(user))
}

func (h *handlers) me(c *fiber.Ctx) error {
	return c.JSON(toUserResponse(userFrom(c)))
}

func (h *handlers) updateMe(c *fiber.Ctx) error {
	var body profileUpdateRequest
	if err := c.BodyParser(&body); err != nil {
		return errInvalidBody
	}

	user, err := h.users.UpdateProfile(c.UserContext(), userFrom(c), body.toProfileUpdate())
	if err != nil {
		return invalidPassword(codeUpdateUserInvalidPassword, err)
	}

	return c.JSON(toUserResponse(user))
}

func (h *handlers) getUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.access.AuthorizeTarget(userFrom(c), id); err != nil {
		return err
	}

	user, err := h.users.GetUser(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(toUserResponse(user))
}

func (h *handlers) updateUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.access.AuthorizeTarget(userFrom(c), id); err != nil {
		return err
	}

	var body userUpdateRequest
	if err := c.BodyParser(&body); err != nil {
		return errInvalidBody
	}

	user, err := h.users.UpdateUser(c.UserContext(), id, services.UserUpdate{
		ProfileUpdate: body.toProfileUpdate(),
		IsActive:      body.IsActive,
		IsSuperuser:   body.IsSuperuser,
		IsVerified:    body.IsVerified,
	})
	if err != nil {
		return invalidPassword(codeUpdateUserInvalidPassword, err)
	}

	return c.JSON(toUserResponse(user))
}

func (h *handlers) deleteUser(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.access.AuthorizeTarget(userFrom(c), id); err != nil {
		return err
	}

	if err := h.users.DeleteUser(c.UserContext(), id); err != nil {
		return err
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (r profileUpdateRequest) toProfileUpdate() services.ProfileUpdate {
	return services.ProfileUpdate{
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Password:  r.Password,
	}
}
