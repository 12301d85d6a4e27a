package handlers

import (
	"errors"

	"boutique/internal/apperrors"
	"boutique/internal/logging"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// ErrorHandler is the fiber error handler. Application errors map to their
// status; fiber errors keep theirs; anything else is a 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) && apperrors.KindOf(err) == apperrors.KindUnknown {
		return c.Status(fe.Code).JSON(fiber.Map{
			"error":   "request_error",
			"message": fe.Message,
		})
	}
	return writeError(c, err)
}

func writeError(c *fiber.Ctx, err error) error {
	status := apperrors.HTTPStatus(err)
	logger := logging.FromCtx(c)
	if status >= fiber.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	} else {
		logger.Debug("request rejected", zap.Error(err))
	}

	body := fiber.Map{
		"error":   apperrors.KindOf(err).String(),
		"message": apperrors.PublicMessage(err),
	}
	if field := apperrors.FieldOf(err); field != "" {
		body["field"] = field
	}
	return c.Status(status).JSON(body)
}

func badBody(err error) error {
	return &apperrors.Error{Kind: apperrors.KindValidation, Field: "body", Message: "invalid request body", Err: err}
}
