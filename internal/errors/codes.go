package errors

// Error code constants returned in the "error" field of failure responses.
// Format: CATEGORY_SPECIFIC_DETAIL. The frontend maps these to messages.

const (
	// ==================== Auth (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"
	AuthUsernameExists     = "AUTH_USERNAME_EXISTS"
	AuthEmailNotVerified   = "AUTH_EMAIL_NOT_VERIFIED"

	// ==================== OTP (OTP_) ====================
	OTPPending          = "OTP_PENDING"            // live code already issued, retry later
	OTPInvalidOrExpired = "OTP_INVALID_OR_EXPIRED" // no pending verification found
	OTPExpired          = "OTP_EXPIRED"
	OTPTooManyAttempts  = "OTP_TOO_MANY_ATTEMPTS"
	OTPInvalidCode      = "OTP_INVALID_CODE" // wrong code, attempts remain

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Profile (PROFILE_) ====================
	ProfileNotFound      = "PROFILE_NOT_FOUND"
	ProfileAlreadyExists = "PROFILE_ALREADY_EXISTS"
	ProfilePhotoNotFound = "PROFILE_PHOTO_NOT_FOUND"

	// ==================== Tasks / Roadmaps (TASK_, ROADMAP_) ====================
	TaskNotFound    = "TASK_NOT_FOUND"
	RoadmapNotFound = "ROADMAP_NOT_FOUND"

	// ==================== Upload (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE"
	UploadFileTooLarge    = "UPLOAD_FILE_TOO_LARGE"
	UploadFailed          = "UPLOAD_FAILED"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
