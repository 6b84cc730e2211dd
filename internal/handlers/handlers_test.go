package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"garagebill/internal/common"
)

// newContext builds an echo context for target. A non-nil owner is put on
// the request as the authenticated session.
func newContext(t *testing.T, method, target string, body interface{}, owner uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if owner != uuid.Nil {
		req = req.WithContext(common.WithSession(req.Context(), common.Session{UserID: uuid.New(), OwnerID: owner}))
	}

	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func withParams(c echo.Context, kv ...string) echo.Context {
	var names, values []string
	for i := 0; i+1 < len(kv); i += 2 {
		names = append(names, kv[i])
		values = append(values, kv[i+1])
	}
	c.SetParamNames(names...)
	c.SetParamValues(values...)
	return c
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) common.ErrorResponse {
	t.Helper()
	var resp common.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func decodeMap(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}
