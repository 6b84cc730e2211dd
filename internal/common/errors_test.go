package common

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorWrapping(t *testing.T) {
	err := fmt.Errorf("add entry: %w", &StockError{Err: ErrOutOfStock, Requested: 4, Limit: 2})
	assert.ErrorIs(t, err, ErrOutOfStock)
	assert.NotErrorIs(t, err, ErrInsufficientStock)

	var stockErr *StockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 2, stockErr.Limit)

	assert.ErrorIs(t, NewValidationError("discount", "cannot exceed subtotal"), ErrValidation)

	cause := errors.New("dial tcp: connection refused")
	netErr := &NetworkError{Op: "list parts", Err: cause}
	assert.ErrorIs(t, netErr, ErrNetworkFailure)
	assert.ErrorIs(t, netErr, cause)
	assert.Equal(t, "Inventory service is unreachable, please try again", netErr.UserMessage())

	withMessage := &NetworkError{Op: "update quantity", Status: 422, Message: "quantity cannot be negative"}
	assert.Equal(t, "quantity cannot be negative", withMessage.UserMessage())
}

func sendErrorRecorder(t *testing.T, err error) (*httptest.ResponseRecorder, ErrorResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, SendError(c, err))

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestSendError(t *testing.T) {
	partID := uuid.New()

	rec, body := sendErrorRecorder(t, &StockError{Err: ErrOutOfStock, PartID: partID, Requested: 4, Limit: 2})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "OUT_OF_STOCK", body.Error.Code)
	assert.Equal(t, "2", body.Error.Details["available"])
	assert.Equal(t, partID.String(), body.Error.Details["part_id"])

	rec, body = sendErrorRecorder(t, fmt.Errorf("commit: %w", &StockError{Err: ErrInsufficientStock, PartID: partID, Requested: 3, Limit: 1}))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "INSUFFICIENT_STOCK", body.Error.Code)

	rec, body = sendErrorRecorder(t, NewValidationError("discount", "cannot exceed subtotal"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "cannot exceed subtotal", body.Error.Details["discount"])

	rec, _ = sendErrorRecorder(t, ErrDuplicatePart)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, body = sendErrorRecorder(t, &NetworkError{Op: "get part", Status: 503, Message: "maintenance window"})
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "maintenance window", body.Error.Message)

	rec, body = sendErrorRecorder(t, fmt.Errorf("selection list: %w", ErrListCommitting))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "LIST_COMMITTING", body.Error.Code)

	rec, _ = sendErrorRecorder(t, fmt.Errorf("job: %w", ErrNotFound))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = sendErrorRecorder(t, errors.New("boom"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestValidateGSTIN(t *testing.T) {
	assert.NoError(t, ValidateGSTIN("", "gstin"))
	assert.NoError(t, ValidateGSTIN("29ABCDE1234F1Z5", "gstin"))
	assert.ErrorIs(t, ValidateGSTIN("29ABCDE1234F1Z", "gstin"), ErrValidation)
	assert.ErrorIs(t, ValidateGSTIN("29abcde1234f1z5", "gstin"), ErrValidation)
	assert.Equal(t, "29", GSTINStateCode("29ABCDE1234F1Z5"))
}

func TestSessionContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, ok := GetSessionFromContext(req.Context())
	assert.False(t, ok)

	s := Session{UserID: uuid.New(), OwnerID: uuid.New()}
	c := e.NewContext(req.WithContext(WithSession(req.Context(), s)), httptest.NewRecorder())
	got, ok := GetSessionFromContext(c.Request().Context())
	assert.True(t, ok)
	assert.Equal(t, s, got)
}
