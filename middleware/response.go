package middleware

import (
	"errors"

	"sdssn/services/certification"
	"sdssn/utils"

	"github.com/gofiber/fiber/v2"
)

func JsonResponse(c *fiber.Ctx, statusCode int, success bool, message string, data interface{}) error {
	body := fiber.Map{
		"success": success,
		"message": message,
	}
	if success {
		body["data"] = data
	} else {
		body["error"] = data
	}
	return c.Status(statusCode).JSON(body)
}

// PageResponse writes one page of a listing with its pagination meta.
func PageResponse[T any](c *fiber.Ctx, message string, page *certification.Page[T]) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": message,
		"data":    page.Items,
		"meta":    page.Meta,
	})
}

func ValidationErrorResponse(c *fiber.Ctx, errors map[string]string) error {
	return JsonResponse(c, fiber.StatusUnprocessableEntity, false, "Validation failed!", errors)
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch certification.KindOf(err) {
	case certification.ErrValidation:
		return fiber.StatusUnprocessableEntity
	case certification.ErrDuplicateActiveRequest, certification.ErrDuplicateRequestForType, certification.ErrAlreadyIssued:
		return fiber.StatusConflict
	case certification.ErrInvalidTransition, certification.ErrAlreadyApproved, certification.ErrForbiddenDelete:
		return fiber.StatusForbidden
	case certification.ErrNotFound:
		return fiber.StatusNotFound
	case certification.ErrNotActive:
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorResponse renders a service error as a failure envelope.
func ErrorResponse(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return JsonResponse(c, fe.Code, false, fe.Message, nil)
	}

	status := StatusFor(err)
	if status == fiber.StatusInternalServerError {
		utils.Log.WithError(err).WithField("path", c.Path()).Error("request failed")
	}

	var detail interface{}
	if fields := certification.FieldsOf(err); len(fields) > 0 {
		detail = fields
	}
	return JsonResponse(c, status, false, certification.MessageOf(err), detail)
}
