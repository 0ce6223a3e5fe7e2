package validators

import (
	"strconv"

	"sdssn/middleware"

	"github.com/gofiber/fiber/v2"
)

// PageParams are the shared pagination query parameters.
type PageParams struct {
	Page    int `query:"page" validate:"omitempty,gte=1"`
	PerPage int `query:"per_page" validate:"omitempty,gte=1,max=100"`
}

// ParseID reads a positive numeric route parameter.
func ParseID(c *fiber.Ctx, name string) (uint, map[string]string) {
	id, err := strconv.ParseUint(c.Params(name), 10, 64)
	if err != nil || id == 0 {
		return 0, map[string]string{name: "Invalid " + name + "!"}
	}
	return uint(id), nil
}

// ID validates the :id route parameter and stores it under key.
func ID(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, errs := ParseID(c, "id")
		if errs != nil {
			return middleware.ValidationErrorResponse(c, errs)
		}
		c.Locals(key, id)
		return c.Next()
	}
}

// Page validates bare pagination queries.
func Page() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(PageParams)
		if err := c.QueryParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, false, "Invalid query parameters!", nil)
		}
		if errors := Struct(reqData); errors != nil {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("validatedPage", reqData)
		return c.Next()
	}
}
