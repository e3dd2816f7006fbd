package controller

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bheruji/learnflow-backend/internal/app/service"
	apperrors "github.com/bheruji/learnflow-backend/internal/errors"
	"github.com/bheruji/learnflow-backend/internal/middleware"
	"github.com/gin-gonic/gin"
)

type ProfileController struct {
	profileService service.ProfileService
}

func NewProfileController(profileService service.ProfileService) *ProfileController {
	return &ProfileController{
		profileService: profileService,
	}
}

type EducationRequest struct {
	CurrentLevel    string `json:"current_level"`
	CourseType      string `json:"course_type"`
	CourseName      string `json:"course_name"`
	CourseStartYear *int   `json:"course_start_year"`
	CourseEndYear   *int   `json:"course_end_year"`
	CurrentYear     *int   `json:"current_year"`
	InstitutionName string `json:"institution_name"`
}

type ProfileCreateRequest struct {
	DateOfBirth string            `json:"date_of_birth" binding:"required"`
	Gender      string            `json:"gender" binding:"required,oneof=male female other"`
	City        string            `json:"city" binding:"required"`
	State       string            `json:"state" binding:"required"`
	Country     string            `json:"country" binding:"required"`
	Education   *EducationRequest `json:"education"`
}

type ProfileUpdateRequest struct {
	DateOfBirth string            `json:"date_of_birth"`
	Gender      string            `json:"gender" binding:"omitempty,oneof=male female other"`
	City        string            `json:"city"`
	State       string            `json:"state"`
	Country     string            `json:"country"`
	Education   *EducationRequest `json:"education"`
}

type EmailChangeRequest struct {
	NewEmail string `json:"new_email" binding:"required,email"`
}

type EmailChangeVerifyRequest struct {
	OTP string `json:"otp" binding:"required,len=6"`
}

func educationInput(req *EducationRequest) *service.EducationInput {
	if req == nil {
		return nil
	}
	return &service.EducationInput{
		CurrentLevel:    req.CurrentLevel,
		CourseType:      req.CourseType,
		CourseName:      req.CourseName,
		CourseStartYear: req.CourseStartYear,
		CourseEndYear:   req.CourseEndYear,
		CurrentYear:     req.CurrentYear,
		InstitutionName: req.InstitutionName,
	}
}

// GetProfile returns the combined account, profile and education data
// GET /profile
func (ctrl *ProfileController) GetProfile(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	view, err := ctrl.profileService.GetProfile(studentID)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			apperrors.NotFound(c, apperrors.ProfileNotFound, "profile not created yet")
			return
		}
		log.Error("Failed to fetch profile", err, map[string]interface{}{
			"student_id": studentID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "get profile")
		return
	}

	c.JSON(http.StatusOK, view)
}

// CreateProfile creates the student's profile
// POST /profile_create
func (ctrl *ProfileController) CreateProfile(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	var req ProfileCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid profile create request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid profile details")
		return
	}

	dateOfBirth, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "date_of_birth must be YYYY-MM-DD")
		return
	}

	view, err := ctrl.profileService.CreateProfile(studentID, service.ProfileInput{
		DateOfBirth: dateOfBirth,
		Gender:      req.Gender,
		City:        req.City,
		State:       req.State,
		Country:     req.Country,
		Education:   educationInput(req.Education),
	})
	if err != nil {
		if errors.Is(err, service.ErrProfileAlreadyExists) {
			apperrors.Conflict(c, apperrors.ProfileAlreadyExists, "profile already exists")
			return
		}
		log.Error("Failed to create profile", err, map[string]interface{}{
			"student_id": studentID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "create profile")
		return
	}

	c.JSON(http.StatusCreated, view)
}

// UpdateProfile partially updates the profile and education details
// PATCH /profile_update
func (ctrl *ProfileController) UpdateProfile(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	var req ProfileUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid profile details")
		return
	}

	input := service.ProfileInput{
		Gender:    req.Gender,
		City:      req.City,
		State:     req.State,
		Country:   req.Country,
		Education: educationInput(req.Education),
	}
	if req.DateOfBirth != "" {
		dateOfBirth, err := time.Parse("2006-01-02", req.DateOfBirth)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "date_of_birth must be YYYY-MM-DD")
			return
		}
		input.DateOfBirth = dateOfBirth
	}

	view, err := ctrl.profileService.UpdateProfile(studentID, input)
	if err != nil {
		if errors.Is(err, service.ErrProfileNotFound) {
			apperrors.NotFound(c, apperrors.ProfileNotFound, "profile not created yet")
			return
		}
		log.Error("Failed to update profile", err, map[string]interface{}{
			"student_id": studentID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "update profile")
		return
	}

	c.JSON(http.StatusOK, view)
}

// UploadPhoto stores the profile photo
// POST /profile/photo
func (ctrl *ProfileController) UploadPhoto(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "file is required")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		apperrors.BadRequest(c, apperrors.UploadFailed, "could not read the uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		apperrors.BadRequest(c, apperrors.UploadFailed, "could not read the uploaded file")
		return
	}

	if err := ctrl.profileService.UploadPhoto(c.Request.Context(), studentID, fileHeader.Filename, data); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidFileType):
			apperrors.BadRequest(c, apperrors.UploadInvalidFileType, "only jpg and png photos are allowed")
		case errors.Is(err, service.ErrFileTooLarge):
			apperrors.BadRequest(c, apperrors.UploadFileTooLarge, "photo must be 5 MB or smaller")
		case errors.Is(err, service.ErrProfileNotFound):
			apperrors.NotFound(c, apperrors.ProfileNotFound, "profile not created yet")
		default:
			log.Error("Failed to upload photo", err, map[string]interface{}{
				"student_id": studentID,
			})
			apperrors.InternalError(c, "failed to upload photo")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "profile photo uploaded",
	})
}

// GetPhoto returns a time-limited URL for the profile photo
// GET /profile/photo
func (ctrl *ProfileController) GetPhoto(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	url, err := ctrl.profileService.PhotoURL(c.Request.Context(), studentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPhotoNotFound):
			apperrors.NotFound(c, apperrors.ProfilePhotoNotFound, "no profile photo uploaded")
		case errors.Is(err, service.ErrProfileNotFound):
			apperrors.NotFound(c, apperrors.ProfileNotFound, "profile not created yet")
		default:
			log.Error("Failed to fetch photo URL", err, map[string]interface{}{
				"student_id": studentID,
			})
			apperrors.InternalError(c, "failed to fetch photo")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"photo_url": url,
	})
}

// DeletePhoto removes the profile photo
// DELETE /profile/photo
func (ctrl *ProfileController) DeletePhoto(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	if err := ctrl.profileService.RemovePhoto(c.Request.Context(), studentID); err != nil {
		switch {
		case errors.Is(err, service.ErrPhotoNotFound):
			apperrors.NotFound(c, apperrors.ProfilePhotoNotFound, "no profile photo uploaded")
		case errors.Is(err, service.ErrProfileNotFound):
			apperrors.NotFound(c, apperrors.ProfileNotFound, "profile not created yet")
		default:
			log.Error("Failed to delete photo", err, map[string]interface{}{
				"student_id": studentID,
			})
			apperrors.InternalError(c, "failed to delete photo")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "profile photo removed",
	})
}

// RequestEmailChange issues an OTP to the new address
// PATCH /profile/email/request
func (ctrl *ProfileController) RequestEmailChange(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	var req EmailChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid email")
		return
	}

	if err := ctrl.profileService.RequestEmailChange(studentID, req.NewEmail); err != nil {
		if respondOTPError(c, err) {
			return
		}
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			apperrors.BadRequest(c, apperrors.AuthEmailAlreadyExists, "email is already in use")
			return
		}
		log.Error("Failed to request email change", err, map[string]interface{}{
			"student_id": studentID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "request email change")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "OTP sent to the new email address",
	})
}

// VerifyEmailChange confirms the OTP and swaps the account email
// POST /profile/email/verify
func (ctrl *ProfileController) VerifyEmailChange(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	studentID, ok := middleware.GetStudentID(c)
	if !ok {
		apperrors.Unauthorized(c, "authentication required")
		return
	}

	var req EmailChangeVerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid verification details")
		return
	}

	student, err := ctrl.profileService.VerifyEmailChange(studentID, req.OTP)
	if err != nil {
		if respondOTPError(c, err) {
			return
		}
		if errors.Is(err, service.ErrEmailAlreadyExists) {
			apperrors.BadRequest(c, apperrors.AuthEmailAlreadyExists, "email is already in use")
			return
		}
		log.Error("Failed to verify email change", err, map[string]interface{}{
			"student_id": studentID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "verify email change")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "email updated",
		"email":   student.Email,
	})
}
