package services

import (
	"errors"
	"fmt"

	apperrors "github.com/JosefMarie/usafi-barista-app-sub003/internal/errors"
)

// ===== COMMON SERVICE ERRORS =====

var (
	// Generic errors
	ErrNotFound         = errors.New("resource not found")
	ErrUnauthorized     = errors.New("unauthorized access")
	ErrForbidden        = errors.New("forbidden - insufficient permissions")
	ErrValidationFailed = errors.New("validation failed")
	ErrInternalError    = errors.New("internal server error")
	ErrConflict         = errors.New("resource conflict")

	// Course/module specific errors
	ErrCourseNotFound       = errors.New("course not found")
	ErrModuleNotFound       = errors.New("module not found")
	ErrModuleNotPublished   = errors.New("module is not published")
	ErrModuleNotAssigned    = errors.New("student is not assigned to module")
	ErrSlideNotFound        = errors.New("slide not found")
	ErrSlideIndexOutOfRange = errors.New("slide index out of range")

	// Quiz/attempt specific errors
	ErrQuizEmpty        = errors.New("quiz has no questions")
	ErrQuizLocked       = errors.New("quiz access has not been granted")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrAttemptNotActive = errors.New("attempt is not active")
	ErrAttemptNotGraded = errors.New("attempt is not graded")
	ErrAttemptPassed    = errors.New("passed attempts cannot be retaken")

	// Progress errors
	ErrProgressNotFound   = errors.New("progress record not found")
	ErrEnrollmentNotFound = errors.New("enrollment not found")

	// User/Permission errors
	ErrUserNotFound            = errors.New("user not found")
	ErrInvalidRole             = errors.New("invalid user role")
	ErrInsufficientPermissions = errors.New("insufficient permissions")
)

// ===== CUSTOM ERROR TYPES =====

// Use shared validation errors from errors package
type ValidationError = apperrors.ValidationError
type ValidationErrors = apperrors.ValidationErrors

type BusinessRuleError struct {
	Rule    string                 `json:"rule"`
	Message string                 `json:"message"`
	Context map[string]interface{} `json:"context,omitempty"`
}

func (bre *BusinessRuleError) Error() string {
	return fmt.Sprintf("business rule violation (%s): %s", bre.Rule, bre.Message)
}

type PermissionError struct {
	UserID     string `json:"user_id"`
	ResourceID uint   `json:"resource_id"`
	Resource   string `json:"resource"`
	Action     string `json:"action"`
	Reason     string `json:"reason"`
}

func (pe *PermissionError) Error() string {
	return fmt.Sprintf("permission denied: user %s cannot %s %s %d - %s",
		pe.UserID, pe.Action, pe.Resource, pe.ResourceID, pe.Reason)
}

// ===== ERROR HELPERS =====

// NewValidationError creates a new validation error using the shared type
func NewValidationError(field, message string, value interface{}) *ValidationError {
	return apperrors.NewValidationError(field, message, value)
}

func NewBusinessRuleError(rule, message string, context map[string]interface{}) *BusinessRuleError {
	return &BusinessRuleError{
		Rule:    rule,
		Message: message,
		Context: context,
	}
}

func NewPermissionError(userID string, resourceID uint, resource, action, reason string) *PermissionError {
	return &PermissionError{
		UserID:     userID,
		ResourceID: resourceID,
		Resource:   resource,
		Action:     action,
		Reason:     reason,
	}
}

// IsNotFound checks if error represents a "not found" condition
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrCourseNotFound) ||
		errors.Is(err, ErrModuleNotFound) ||
		errors.Is(err, ErrSlideNotFound) ||
		errors.Is(err, ErrAttemptNotFound) ||
		errors.Is(err, ErrProgressNotFound) ||
		errors.Is(err, ErrEnrollmentNotFound) ||
		errors.Is(err, ErrUserNotFound)
}

// IsUnauthorized checks if error represents an "unauthorized" condition
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrModuleNotAssigned) ||
		errors.Is(err, ErrQuizLocked) ||
		errors.Is(err, ErrInsufficientPermissions)
}

// IsValidation checks if error represents a validation failure
func IsValidation(err error) bool {
	if errors.Is(err, ErrValidationFailed) {
		return true
	}
	var ve apperrors.ValidationErrors
	return errors.As(err, &ve)
}

// IsBusinessRule checks if error represents a business rule violation
func IsBusinessRule(err error) bool {
	var bre *BusinessRuleError
	return errors.As(err, &bre)
}

// IsConflict checks if error represents a resource conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict) ||
		errors.Is(err, ErrAttemptPassed) ||
		errors.Is(err, ErrQuizEmpty)
}
