package common

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("not found")
	ErrOutOfStock        = errors.New("out of stock")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrDuplicatePart     = errors.New("part already selected in this list")
	ErrInvalidQuantity   = errors.New("quantity must be at least 1")
	ErrAlreadyGenerated  = errors.New("bill already generated for this job")
	ErrNetworkFailure    = errors.New("network failure")
	ErrListCommitting    = errors.New("selection list is being committed")
)

// ValidationError names the offending field. errors.Is(err, ErrValidation)
// holds for every ValidationError.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StockError carries the exact limit the user ran into so it can be shown
// inline. Limit is the max selectable quantity for ErrOutOfStock and the
// on-hand quantity for ErrInsufficientStock.
type StockError struct {
	Err       error
	PartID    uuid.UUID
	PartName  string
	Requested int
	Limit     int
}

func (e *StockError) Error() string {
	name := e.PartName
	if name == "" {
		name = e.PartID.String()
	}
	return fmt.Sprintf("%v: %s requested %d, at most %d available", e.Err, name, e.Requested, e.Limit)
}

func (e *StockError) Unwrap() error { return e.Err }

// NetworkError wraps a failed collaborator call. Message is the server's
// own explanation when it sent one.
type NetworkError struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
	if e.Status != 0 {
		return fmt.Sprintf("%s: remote service returned status %d", e.Op, e.Status)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return e.Op + ": " + ErrNetworkFailure.Error()
}

func (e *NetworkError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrNetworkFailure, e.Err}
	}
	return []error{ErrNetworkFailure}
}

// UserMessage is what the client is shown for a network failure.
func (e *NetworkError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return "Inventory service is unreachable, please try again"
}

// SendError maps a service error onto the standard error envelope.
func SendError(c echo.Context, err error) error {
	var validationErr *ValidationError
	var stockErr *StockError
	var networkErr *NetworkError

	switch {
	case errors.As(err, &validationErr):
		return SendValidationError(c, validationErr.Field, validationErr.Message)
	case errors.As(err, &stockErr):
		code := "OUT_OF_STOCK"
		if errors.Is(err, ErrInsufficientStock) {
			code = "INSUFFICIENT_STOCK"
		}
		details := map[string]string{
			"part_id":   stockErr.PartID.String(),
			"requested": strconv.Itoa(stockErr.Requested),
			"available": strconv.Itoa(stockErr.Limit),
		}
		return c.JSON(http.StatusConflict, CreateErrorResponse(code, stockErr.Error(), details))
	case errors.Is(err, ErrInvalidQuantity):
		return SendValidationError(c, "quantity", err.Error())
	case errors.Is(err, ErrDuplicatePart):
		return c.JSON(http.StatusConflict, CreateErrorResponse("DUPLICATE_PART", err.Error(), nil))
	case errors.Is(err, ErrListCommitting):
		return c.JSON(http.StatusConflict, CreateErrorResponse("LIST_COMMITTING", err.Error(), nil))
	case errors.Is(err, ErrNotFound):
		return c.JSON(http.StatusNotFound, CreateErrorResponse("NOT_FOUND", err.Error(), nil))
	case errors.As(err, &networkErr):
		log.Printf("Collaborator call failed: %v", err)
		return c.JSON(http.StatusBadGateway, CreateErrorResponse("NETWORK_FAILURE", networkErr.UserMessage(), nil))
	default:
		log.Printf("Unhandled error: %v", err)
		return SendServerError(c, "Operation could not be completed")
	}
}
