package common

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

type contextKey string

const (
	SessionKey contextKey = "session"
)

// Session identifies the caller. It is put on the request context by the
// JWT middleware and passed explicitly into services.
type Session struct {
	UserID  uuid.UUID
	OwnerID uuid.UUID
}

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, SessionKey, s)
}

// GetSessionFromContext extracts the caller's session from the request context
func GetSessionFromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(SessionKey).(Session)
	if !ok || s.OwnerID == uuid.Nil {
		return Session{}, false
	}
	return s, true
}

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error"`
}

// CreateErrorResponse creates a standardized error response
func CreateErrorResponse(code string, message string, details map[string]string) *ErrorResponse {
	var resp ErrorResponse
	resp.Error.Code = code
	resp.Error.Message = message
	resp.Error.Details = details
	return &resp
}

// SendValidationError sends a validation error response
func SendValidationError(c echo.Context, field, message string) error {
	details := map[string]string{
		field: message,
	}
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("VALIDATION_ERROR", "Validation failed", details))
}

// SendClientError sends a client error response
func SendClientError(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, CreateErrorResponse("CLIENT_ERROR", message, nil))
}

// SendServerError sends a server error response
func SendServerError(c echo.Context, message string) error {
	return c.JSON(http.StatusInternalServerError, CreateErrorResponse("SERVER_ERROR", message, nil))
}

// SendUnauthorizedError sends an unauthorized error response
func SendUnauthorizedError(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, CreateErrorResponse("UNAUTHORIZED", "Unauthorized access", nil))
}

var gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z]{1}[A-Z0-9]{1}Z[A-Z0-9]{1}$`)

// ValidateGSTIN validates GSTIN format
func ValidateGSTIN(gstin, fieldName string) error {
	if strings.TrimSpace(gstin) == "" {
		return nil // GSTIN is optional
	}

	// GSTIN format: 22AAAAA0000A1Z5 (15 characters)
	if len(gstin) != 15 {
		return NewValidationError(fieldName, "must be exactly 15 characters")
	}
	if !gstinPattern.MatchString(gstin) {
		return NewValidationError(fieldName, "has invalid GSTIN format")
	}
	return nil
}

// GSTINStateCode returns the two-digit state code a GSTIN starts with.
func GSTINStateCode(gstin string) string {
	gstin = strings.TrimSpace(gstin)
	if len(gstin) < 2 {
		return ""
	}
	return gstin[:2]
}

// ValidateRequiredString validates required string fields
func ValidateRequiredString(value, fieldName string) error {
	if strings.TrimSpace(value) == "" {
		return NewValidationError(fieldName, "is required")
	}
	return nil
}

// ValidateOptionalString validates optional string fields
func ValidateOptionalString(value *string, fieldName string, maxLength int) error {
	if value != nil {
		if len(*value) > maxLength {
			return NewValidationError(fieldName, fmt.Sprintf("cannot exceed %d characters", maxLength))
		}
		*value = strings.TrimSpace(*value)
	}
	return nil
}

// SafeString safely handles string pointer operations
func SafeString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// TrimmedOrNil trims s and maps blank values to nil.
func TrimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

// ValidateDateRange validates date ranges to prevent abuse
func ValidateDateRange(startDate, endDate time.Time) error {
	if endDate.Before(startDate) {
		return NewValidationError("to", "end date cannot be before start date")
	}

	// A GST register is at most one financial year plus slack.
	if endDate.Sub(startDate) > 400*24*time.Hour {
		return NewValidationError("to", "date range cannot exceed 400 days")
	}
	return nil
}
