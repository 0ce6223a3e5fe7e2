package membershipRoutes

import (
	controllers "sdssn/controllers/membership"
	"sdssn/middleware"
	"sdssn/validators"
	membershipValidators "sdssn/validators/membership"

	"github.com/gofiber/fiber/v2"
)

// SetupMembershipRoutes sets up member, admin and public verification
// routes. limiter guards public verification.
func SetupMembershipRoutes(app *fiber.App, limiter fiber.Handler) {
	group := app.Group("/memberships")
	id := validators.ID("membershipID")

	// Public
	group.Get("/verify/:serial", limiter, membershipValidators.Serial(), controllers.Verify)

	// Member
	group.Get("/mine", middleware.JWTMiddleware, validators.Page(), controllers.Mine)
	group.Get("/mine/:id", middleware.JWTMiddleware, id, controllers.ShowOwn)

	// Admin
	admin := []fiber.Handler{middleware.JWTMiddleware, middleware.AdminOnly}
	group.Get("/", append(admin, membershipValidators.List(), controllers.List)...)
	group.Get("/search", append(admin, membershipValidators.Search(), controllers.Search)...)
	group.Get("/:id", append(admin, id, controllers.Show)...)
	group.Patch("/:id", append(admin, id, membershipValidators.Update(), controllers.Update)...)
	group.Post("/:id/mark-paid", append(admin, id, membershipValidators.MarkPaid(), controllers.MarkPaid)...)
	group.Delete("/:id", append(admin, id, controllers.Delete)...)
}
