package rest

import (
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/gofiber/fiber/v2"
)

// Error detail codes returned to clients.
const (
	codeRegisterUserAlreadyExists    = "REGISTER_USER_ALREADY_EXISTS"
	codeRegisterInvalidPassword      = "REGISTER_INVALID_PASSWORD"
	codeLoginBadCredentials          = "LOGIN_BAD_CREDENTIALS"
	codeLoginUserNotVerified         = "LOGIN_USER_NOT_VERIFIED"
	codeResetPasswordBadToken        = "RESET_PASSWORD_BAD_TOKEN"
	codeResetPasswordInvalidPassword = "RESET_PASSWORD_INVALID_PASSWORD"
	codeVerifyUserBadToken           = "VERIFY_USER_BAD_TOKEN"
	codeVerifyUserAlreadyVerified    = "VERIFY_USER_ALREADY_VERIFIED"
	codeUpdateUserInvalidPassword    = "UPDATE_USER_INVALID_PASSWORD"
)

// apiError carries an HTTP status and the "detail" payload.
type apiError struct {
	status int
	detail any
}

func (e *apiError) Error() string { return fmt.Sprintf("%d: %v", e.status, e.detail) }

func badRequest(detail any) error {
	return &apiError{status: fiber.StatusBadRequest, detail: detail}
}

// invalidPassword turns a policy violation into {code, reason}. Other
// errors pass through unchanged.
func invalidPassword(code string, err error) error {
	var v *auth.PolicyViolation
	if errors.As(err, &v) {
		return badRequest(fiber.Map{"code": code, "reason": v.Reason})
	}
	return err
}

var errInvalidBody = fiber.NewError(fiber.StatusBadRequest, "invalid request body")

func errorHandler(logger logging.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, detail := classify(err)

		if status == fiber.StatusUnauthorized {
			c.Set(fiber.HeaderWWWAuthenticate, "Bearer")
		}
		if status >= fiber.StatusInternalServerError {
			logger.Error(c.UserContext(), "request failed",
				"method", c.Method(), "path", c.Path(), "error", err)
		}

		return c.Status(status).JSON(fiber.Map{"detail": detail})
	}
}

func classify(err error) (int, any) {
	var ae *apiError
	if errors.As(err, &ae) {
		return ae.status, ae.detail
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		if fe.Code >= fiber.StatusInternalServerError {
			return fe.Code, "internal error"
		}
		return fe.Code, fe.Message
	}

	var ve *services.ValidationError
	if errors.As(err, &ve) {
		var fields validation.Errors
		if errors.As(ve.Err, &fields) {
			return fiber.StatusBadRequest, fields
		}
		return fiber.StatusBadRequest, ve.Error()
	}

	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return fiber.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, common.ErrorForbidden):
		return fiber.StatusForbidden, "Forbidden"
	case errors.Is(err, common.ErrorNotFound):
		return fiber.StatusNotFound, "Not Found"
	case errors.Is(err, common.ErrorInvalidPassword):
		return fiber.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrInvalidToken):
		return fiber.StatusBadRequest, "BAD_TOKEN"
	}

	return fiber.StatusInternalServerError, "internal error"
}
