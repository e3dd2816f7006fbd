package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ErrorInfo is a parsed error: code plus a safe user-facing message
type ErrorInfo struct {
	Code    string
	Message string
}

// ParseError converts datastore and transport errors into a code and a
// message that does not leak internals. Context is a short description of
// the failed operation ("create note", "update profile", ...).
func ParseError(err error, context string) ErrorInfo {
	if err == nil {
		return ErrorInfo{Code: InternalServerError, Message: "Something went wrong"}
	}

	errStr := strings.ToLower(err.Error())

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrorInfo{Code: ResourceNotFound, Message: getNotFoundMessage(context)}
	}

	// PostgreSQL constraint violations

	if strings.Contains(errStr, "duplicate key") || strings.Contains(errStr, "unique constraint") {
		return parseDuplicateKeyError(errStr)
	}

	if strings.Contains(errStr, "foreign key constraint") {
		return ErrorInfo{
			Code:    ResourceNotFound,
			Message: "Referenced data could not be found",
		}
	}

	if strings.Contains(errStr, "null value") && strings.Contains(errStr, "not-null constraint") {
		return ErrorInfo{
			Code:    ValidationInvalidInput,
			Message: "A required field is missing",
		}
	}

	// Upstream connectivity (object storage, SMTP, redis)
	if strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "timeout") {
		return ErrorInfo{
			Code:    InternalExternalAPI,
			Message: "An external service is unavailable. Please try again later",
		}
	}

	return ErrorInfo{
		Code:    InternalServerError,
		Message: "Something went wrong. Please try again later",
	}
}

func parseDuplicateKeyError(errStr string) ErrorInfo {
	if strings.Contains(errStr, "email") {
		return ErrorInfo{Code: AuthEmailAlreadyExists, Message: "Email is already registered"}
	}
	if strings.Contains(errStr, "username") {
		return ErrorInfo{Code: AuthUsernameExists, Message: "This username already exists"}
	}
	if strings.Contains(errStr, "student_id") {
		return ErrorInfo{Code: ProfileAlreadyExists, Message: "Profile already exists"}
	}
	return ErrorInfo{Code: ResourceAlreadyExists, Message: "This record already exists"}
}

func getNotFoundMessage(context string) string {
	contextLower := strings.ToLower(context)

	switch {
	case strings.Contains(contextLower, "profile"):
		return "Profile not found. Please create your profile first"
	case strings.Contains(contextLower, "task"):
		return "Task not found"
	case strings.Contains(contextLower, "roadmap"):
		return "Roadmap not found"
	case strings.Contains(contextLower, "note"):
		return "Note not found"
	case strings.Contains(contextLower, "student"), strings.Contains(contextLower, "user"):
		return "User not found"
	}
	return "The requested data could not be found"
}

// ParseAndRespond parses err and writes the response in one step
func ParseAndRespond(c interface{ JSON(int, interface{}) }, statusCode int, err error, context string) {
	errorInfo := ParseError(err, context)
	c.JSON(statusCode, ErrorResponse{
		Error:   errorInfo.Code,
		Message: errorInfo.Message,
	})
}
