package membershipValidator

import (
	"strings"

	"sdssn/middleware"
	"sdssn/validators"

	"github.com/gofiber/fiber/v2"
)

type ListRequest struct {
	Search            string `query:"search" validate:"max=191"`
	Status            string `query:"status" validate:"omitempty,oneof=pending paid"`
	CertificateStatus string `query:"certificate_status" validate:"omitempty,oneof=pending processing generated"`
	IssuedOn          string `query:"issued_on" validate:"omitempty,datetime=2006-01-02"`
	ExpiresOn         string `query:"expires_on" validate:"omitempty,datetime=2006-01-02"`
	validators.PageParams
}

type SearchRequest struct {
	Search string `query:"search" validate:"required,max=191"`
	validators.PageParams
}

type UpdateRequest struct {
	FullName          *string `json:"full_name" validate:"omitempty,min=2,max=191"`
	CertificateStatus *string `json:"certificate_status" validate:"omitempty,oneof=pending processing generated"`
}

type MarkPaidRequest struct {
	PaymentReference string `json:"payment_reference" validate:"required,max=191"`
}

// List validates the admin membership listing query.
func List() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(ListRequest)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}

		if errors := validators.Struct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedList", reqData)
		return c.Next()
	}
}

// Search validates the free-text membership search.
func Search() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(SearchRequest)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		reqData.Search = strings.TrimSpace(reqData.Search)

		if errors := validators.Struct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedSearch", reqData)
		return c.Next()
	}
}

func Update() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(UpdateRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}

		errors := validators.Struct(reqData)
		if reqData.FullName == nil && reqData.CertificateStatus == nil {
			errors = map[string]string{"full_name": "Nothing to update!"}
		}
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedUpdate", reqData)
		return c.Next()
	}
}

func MarkPaid() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(MarkPaidRequest)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid request body!", nil)
		}
		reqData.PaymentReference = strings.TrimSpace(reqData.PaymentReference)

		if errors := validators.Struct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedPayment", reqData)
		return c.Next()
	}
}

// Serial validates the public verification parameter.
func Serial() fiber.Handler {
	return func(c *fiber.Ctx) error {
		serial := strings.TrimSpace(c.Params("serial"))
		if errors := validators.Var("serial", serial, "required,alphanum,max=64"); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("serial", serial)
		return c.Next()
	}
}
