package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/bheruji/learnflow-backend/internal/app/service"
	apperrors "github.com/bheruji/learnflow-backend/internal/errors"
	"github.com/bheruji/learnflow-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type SignUpRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Username string `json:"username" binding:"required,min=3,max=30"`
	Email    string `json:"email" binding:"required,email"`
	MobileNo string `json:"mobile_no" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

type VerifySignUpRequest struct {
	Email string `json:"email" binding:"required,email"`
	OTP   string `json:"otp" binding:"required,len=6"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required,len=6"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

// respondOTPError maps the shared OTP failures to HTTP. Returns false
// when the error is not an OTP failure.
func respondOTPError(c *gin.Context, err error) bool {
	var pendingErr *service.OTPPendingError
	if errors.As(err, &pendingErr) {
		c.Header("Retry-After", strconv.Itoa(pendingErr.RetryAfter))
		apperrors.TooManyRequests(c, apperrors.OTPPending,
			fmt.Sprintf("an OTP was already sent, retry after %d seconds", pendingErr.RetryAfter))
		return true
	}

	var invalidErr *service.InvalidOTPError
	if errors.As(err, &invalidErr) {
		apperrors.BadRequest(c, apperrors.OTPInvalidCode,
			fmt.Sprintf("incorrect OTP, %d attempts remaining", invalidErr.AttemptsLeft))
		return true
	}

	switch {
	case errors.Is(err, service.ErrOTPInvalidOrExpired):
		apperrors.BadRequest(c, apperrors.OTPInvalidOrExpired, "invalid or expired OTP")
		return true
	case errors.Is(err, service.ErrOTPExpired):
		apperrors.BadRequest(c, apperrors.OTPExpired, "OTP has expired, request a new one")
		return true
	case errors.Is(err, service.ErrOTPTooManyAttempts):
		apperrors.TooManyRequests(c, apperrors.OTPTooManyAttempts, "too many incorrect attempts, request a new OTP")
		return true
	}
	return false
}

// SignUp stages a registration and sends an OTP
// POST /sign_up
func (ctrl *AuthController) SignUp(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid sign-up request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid sign-up details")
		return
	}

	err := ctrl.authService.SignUp(service.SignUpInput{
		FullName: req.FullName,
		Username: req.Username,
		Email:    req.Email,
		MobileNo: req.MobileNo,
		Password: req.Password,
	})
	if err != nil {
		if respondOTPError(c, err) {
			return
		}
		switch {
		case errors.Is(err, service.ErrEmailAlreadyExists):
			apperrors.BadRequest(c, apperrors.AuthEmailAlreadyExists, "email is already registered")
		case errors.Is(err, service.ErrUsernameAlreadyExists):
			apperrors.BadRequest(c, apperrors.AuthUsernameExists, "username is already taken")
		default:
			// Two sign-ups racing past the pending-record check collide
			// on the verifications unique index; the later insert is a
			// client-retriable conflict, not a server fault.
			if info := apperrors.ParseError(err, "sign up"); info.Code == apperrors.AuthEmailAlreadyExists ||
				info.Code == apperrors.ResourceAlreadyExists {
				log.Warn("Sign-up lost an issuance race", map[string]interface{}{
					"email": req.Email,
				})
				apperrors.BadRequest(c, info.Code, info.Message)
				return
			}
			log.Error("Sign-up failed", err, map[string]interface{}{
				"email": req.Email,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "sign up")
		}
		return
	}

	log.Info("Sign-up OTP sent", map[string]interface{}{
		"email": req.Email,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "OTP sent to your email, verify to complete registration",
	})
}

// VerifySignUp completes a registration
// POST /sign_up/verify
func (ctrl *AuthController) VerifySignUp(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req VerifySignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid verification request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid verification details")
		return
	}

	student, err := ctrl.authService.VerifySignUp(req.Email, req.OTP)
	if err != nil {
		if respondOTPError(c, err) {
			return
		}
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			apperrors.BadRequest(c, apperrors.AuthEmailAlreadyExists, "email is already registered")
			return
		}
		log.Error("Sign-up verification failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "verify sign up")
		return
	}

	log.Info("Registration completed", map[string]interface{}{
		"student_id": student.ID,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "registration completed, you can log in now",
		"student": gin.H{
			"id":        student.ID,
			"email":     student.Email,
			"username":  student.Username,
			"full_name": student.FullName,
		},
	})
}

// Login issues an access token
// POST /login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid login request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid login details")
		return
	}

	result, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "invalid email or password")
		case errors.Is(err, service.ErrEmailNotVerified):
			apperrors.Forbidden(c, apperrors.AuthEmailNotVerified, "verify your email before logging in")
		default:
			log.Error("Login failed", err, map[string]interface{}{
				"email": req.Email,
			})
			apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "login")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":      result.AccessToken,
		"token_type":        "bearer",
		"profile_completed": result.ProfileCompleted,
	})
}

// ForgotPassword issues a reset OTP
// POST /forgotpassword
func (ctrl *AuthController) ForgotPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid email")
		return
	}

	if err := ctrl.authService.ForgotPassword(req.Email); err != nil {
		if respondOTPError(c, err) {
			return
		}
		log.Error("Password reset request failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "forgot password")
		return
	}

	// Same response whether the address exists or not
	c.JSON(http.StatusOK, gin.H{
		"message": "if the email is registered, an OTP has been sent",
	})
}

// ResetPassword verifies the OTP and sets a new password
// POST /reset-password
func (ctrl *AuthController) ResetPassword(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid reset details")
		return
	}

	if err := ctrl.authService.ResetPassword(req.Email, req.OTP, req.NewPassword); err != nil {
		if respondOTPError(c, err) {
			return
		}
		if errors.Is(err, service.ErrStudentNotFound) {
			apperrors.NotFound(c, apperrors.ResourceNotFound, "no account found for this email")
			return
		}
		log.Error("Password reset failed", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "reset password")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "password updated, log in with your new password",
	})
}
