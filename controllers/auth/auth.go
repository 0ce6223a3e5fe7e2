package authController

import (
	"context"
	"errors"

	"sdssn/config"
	"sdssn/database"
	"sdssn/middleware"
	"sdssn/models"
	"sdssn/services/otp"
	"sdssn/utils"
	authValidator "sdssn/validators/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// OTPSender delivers a one-time code to a user.
type OTPSender interface {
	SendOTP(ctx context.Context, user *models.User, code string) error
}

// Set at boot.
var (
	OTP    *otp.Service
	Sender OTPSender
)

func Init(svc *otp.Service, sender OTPSender) {
	OTP = svc
	Sender = sender
}

func Signup(c *fiber.Ctx) error {
	reqData := c.Locals("validatedUser").(*authValidator.SignupRequest)
	db := database.Database.Db

	// Check if email already exists
	if err := db.Where("email = ?", reqData.Email).First(&models.User{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		utils.Log.WithError(err).Error("hashing password failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to process your request!", nil)
	}

	newUser := models.User{
		FirstName: reqData.FirstName,
		LastName:  reqData.LastName,
		Email:     reqData.Email,
		Mobile:    reqData.Mobile,
		Role:      models.RoleUser,
		Password:  string(hashedPassword),
	}
	if err := db.Create(&newUser).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already registered!", nil)
		}
		utils.Log.WithError(err).Error("saving user failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to Signup user!", nil)
	}

	sendCode(c.UserContext(), &newUser, models.OTPPurposeAccountVerification)

	return middleware.JsonResponse(c, fiber.StatusCreated, true, "User registered successfully. Check your e-mail for the verification code.", newUser)
}

func Login(c *fiber.Ctx) error {
	reqData := c.Locals("validatedUser").(*authValidator.LoginRequest)

	var user models.User
	if err := database.Database.Db.Where("email = ?", reqData.Email).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid credentials!", nil)
	}
	if user.IsBlocked {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Your account is blocked!", nil)
	}
	if !user.IsEmailVerified {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Email not verified!", nil)
	}

	token, err := middleware.GenerateJWT(user.ID, user.FullName(), user.Role, user.Email)
	if err != nil {
		utils.Log.WithError(err).Error("signing token failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to generate token!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, true, "Login successful.", fiber.Map{
		"token": token,
		"user":  user,
	})
}

// sendCode issues a code and mails it. Delivery failures are logged only.
func sendCode(ctx context.Context, user *models.User, purpose string) error {
	code, err := OTP.Issue(ctx, user.ID, purpose)
	if err != nil {
		utils.Log.WithError(err).WithField("user_id", user.ID).Error("issuing otp failed")
		return err
	}
	if err := Sender.SendOTP(ctx, user, code); err != nil {
		utils.Log.WithError(err).WithFields(logrus.Fields{"user_id": user.ID, "purpose": purpose}).Warn("otp delivery failed")
	}
	return nil
}

func SendOTP(c *fiber.Ctx) error {
	reqData := c.Locals("validatedOTP").(*authValidator.SendOTPRequest)

	var user models.User
	if err := database.Database.Db.Where("email = ?", reqData.Email).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, false, "User not found!", nil)
	}
	if reqData.Purpose == models.OTPPurposeAccountVerification && user.IsEmailVerified {
		return middleware.JsonResponse(c, fiber.StatusConflict, false, "Email is already verified!", nil)
	}

	if err := sendCode(c.UserContext(), &user, reqData.Purpose); err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to Create OTP!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "OTP sent successfully.", nil)
}

func VerifyOTP(c *fiber.Ctx) error {
	reqData := c.Locals("validatedOTP").(*authValidator.VerifyOTPRequest)

	var user models.User
	if err := database.Database.Db.Where("email = ?", reqData.Email).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid OTP or OTP expired!", nil)
	}

	var err error
	switch reqData.Purpose {
	case models.OTPPurposePasswordReset:
		err = OTP.ResetPassword(c.UserContext(), user.ID, reqData.Code, reqData.Password)
	default:
		err = OTP.VerifyAccount(c.UserContext(), user.ID, reqData.Code)
	}

	switch {
	case errors.Is(err, otp.ErrOTPExpired):
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "OTP expired!", nil)
	case errors.Is(err, otp.ErrInvalidOTP):
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, false, "Invalid OTP or OTP expired!", nil)
	case err != nil:
		utils.Log.WithError(err).WithField("user_id", user.ID).Error("verifying otp failed")
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, false, "Failed to verify OTP!", nil)
	}

	if reqData.Purpose == models.OTPPurposePasswordReset {
		return middleware.JsonResponse(c, fiber.StatusOK, true, "Password reset successfully.", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, true, "Email verified successfully.", nil)
}
