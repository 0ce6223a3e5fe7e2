package certificationRoutes

import (
	controllers "sdssn/controllers/certification"
	"sdssn/middleware"
	"sdssn/services/certification"
	"sdssn/validators"
	requestValidators "sdssn/validators/certification"

	"github.com/gofiber/fiber/v2"
)

// SetupCertificationRoutes sets up the certification request routes
func SetupCertificationRoutes(app *fiber.App) {
	group := app.Group("/certification-requests", middleware.JWTMiddleware)
	id := validators.ID("requestID")

	// Applicant
	group.Post("/", requestValidators.Submit(), controllers.Submit)
	group.Get("/mine", validators.Page(), controllers.Mine)

	// Admin listings
	group.Get("/", middleware.AdminOnly, requestValidators.List(), controllers.List)
	group.Get("/trashed", middleware.AdminOnly, validators.Page(), controllers.Trashed)
	group.Get("/search/name", middleware.AdminOnly, requestValidators.UserSearch(), controllers.SearchByUser(certification.ByUserName))
	group.Get("/search/email", middleware.AdminOnly, requestValidators.UserSearch(), controllers.SearchByUser(certification.ByUserEmail))

	group.Get("/:id", id, controllers.Show)

	// Status changes all go through the state machine
	group.Put("/:id/status", middleware.AdminOnly, id, requestValidators.UpdateStatus(), controllers.UpdateStatus)
	group.Post("/:id/approve", middleware.AdminOnly, id, requestValidators.Approve(), controllers.UpdateStatus)
	group.Post("/:id/reject", middleware.AdminOnly, id, requestValidators.Reject(), controllers.UpdateStatus)

	// Removal
	group.Delete("/:id", middleware.AdminOnly, id, controllers.Destroy)
	group.Delete("/:id/trash", middleware.AdminOnly, id, controllers.Delete)
	group.Patch("/:id/restore", middleware.AdminOnly, id, controllers.Restore)
	group.Delete("/:id/force", middleware.AdminOnly, id, controllers.ForceDelete)
}
