package authRoutes

import (
	authControllers "sdssn/controllers/auth"
	authValidators "sdssn/validators/auth"

	"github.com/gofiber/fiber/v2"
)

// SetupAuthRoutes registers signup, login and OTP routes. limiter guards
// both OTP endpoints.
func SetupAuthRoutes(app *fiber.App, limiter fiber.Handler) {
	authGroup := app.Group("/auth")

	authGroup.Post("/signup", authValidators.Signup(), authControllers.Signup)
	authGroup.Post("/login", authValidators.Login(), authControllers.Login)
	authGroup.Post("/otp/send", limiter, authValidators.SendOTP(), authControllers.SendOTP)
	authGroup.Patch("/otp/verify", limiter, authValidators.VerifyOTP(), authControllers.VerifyOTP)
}
