package certificationValidator

import (
	"mime/multipart"
	"path/filepath"
	"strconv"
	"strings"

	"sdssn/middleware"
	"sdssn/models"
	"sdssn/validators"

	"github.com/gofiber/fiber/v2"
)

const maxCredentialSize = 5 << 20

var credentialExtensions = map[string]bool{
	".pdf":  true,
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

type SubmitRequest struct {
	CertificationID        uint                  `form:"certification_id" validate:"required,gt=0"`
	ReasonForCertification string                `form:"reason_for_certification" validate:"required,max=2000"`
	Credential             *multipart.FileHeader `validate:"-"`
}

type StatusRequest struct {
	Status         string  `json:"status" validate:"required,oneof=pending approved rejected paid"`
	ManagementNote *string `json:"management_note" validate:"omitempty,max=2000"`
}

type NoteRequest struct {
	ManagementNote *string `json:"management_note" validate:"omitempty,max=2000"`
}

type ListRequest struct {
	Search string `query:"search" validate:"max=191"`
	Status string `query:"status" validate:"omitempty,oneof=pending approved rejected paid"`
	Type   string `query:"type" validate:"max=191"`
	validators.PageParams
}

type UserSearchRequest struct {
	Term string `query:"term" validate:"required,max=191"`
	validators.PageParams
}

// Submit validates a multipart certification application.
func Submit() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SubmitRequest)
		errors := map[string]string{}

		id, err := strconv.ParseUint(strings.TrimSpace(c.FormValue("certification_id")), 10, 64)
		if err != nil {
			errors["certification_id"] = "Certification is required!"
		}
		reqData.CertificationID = uint(id)
		reqData.ReasonForCertification = strings.TrimSpace(c.FormValue("reason_for_certification"))

		if fieldErrs := validators.Struct(reqData); fieldErrs != nil {
			for k, v := range fieldErrs {
				if _, seen := errors[k]; !seen {
					errors[k] = v
				}
			}
		}

		if file, err := c.FormFile("credential"); err == nil {
			ext := strings.ToLower(filepath.Ext(file.Filename))
			switch {
			case !credentialExtensions[ext]:
				errors["credential"] = "Credential must be a PDF or an image!"
			case file.Size > maxCredentialSize:
				errors["credential"] = "Credential must not exceed 5 MB!"
			default:
				reqData.Credential = file
			}
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedRequest", reqData)
		return c.Next()
	}
}

// UpdateStatus validates a status transition body.
func UpdateStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(StatusRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.Status = strings.ToLower(strings.TrimSpace(reqData.Status))

		if errors := validators.Struct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedStatus", reqData)
		return c.Next()
	}
}

// Decision validates the approve / reject shortcuts. The body is optional.
func Decision(status string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		note := new(NoteRequest)
		if len(c.Body()) > 0 {
			if err := c.BodyParser(note); err != nil {
				return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
			}
		}
		if errors := validators.Struct(note); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedStatus", &StatusRequest{Status: status, ManagementNote: note.ManagementNote})
		return c.Next()
	}
}

// Approve and Reject are the shortcut forms of UpdateStatus.
func Approve() fiber.Handler { return Decision(models.RequestApproved) }
func Reject() fiber.Handler  { return Decision(models.RequestRejected) }

// List validates the admin listing query.
func List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ListRequest)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		reqData.Status = strings.ToLower(strings.TrimSpace(reqData.Status))

		if errors := validators.Struct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedList", reqData)
		return c.Next()
	}
}

// UserSearch validates search by user name or email.
func UserSearch() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UserSearchRequest)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		reqData.Term = strings.TrimSpace(reqData.Term)

		if errors := validators.Struct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSearch", reqData)
		return c.Next()
	}
}
