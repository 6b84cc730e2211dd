package inventoryapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"garagebill/internal/common"
	"garagebill/internal/config"
	"garagebill/internal/models"
	"garagebill/pkg/money"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(&config.InventoryConfig{APIURL: server.URL, APIKey: "test-key", TimeoutSeconds: 2})
}

func TestListParts(t *testing.T) {
	ownerID := uuid.New()
	partID := uuid.New()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/inventory", r.URL.Path)
		assert.Equal(t, ownerID.String(), r.URL.Query().Get("owner_id"))
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]models.Part{{ID: partID, OwnerID: ownerID, Name: "Brake pad", QuantityOnHand: 4, PricePerUnit: money.MustParse("1000")}})
	})

	parts, err := client.ListParts(context.Background(), ownerID)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, partID, parts[0].ID)
	assert.Equal(t, "1000.00", parts[0].PricePerUnit.String())
}

func TestUpdateQuantitySendsPayload(t *testing.T) {
	ownerID := uuid.New()
	partID := uuid.New()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/inventory/"+partID.String(), r.URL.Path)

		var body struct {
			OwnerID  uuid.UUID `json:"owner_id"`
			Quantity int       `json:"quantity_on_hand"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, ownerID, body.OwnerID)
		assert.Equal(t, 3, body.Quantity)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, client.UpdateQuantity(context.Background(), ownerID, partID, 3))
	assert.ErrorIs(t, client.UpdateQuantity(context.Background(), ownerID, partID, -1), common.ErrValidation)
}

func TestServerMessageIsSurfaced(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"message":"Inventory is being recounted"}`))
	})

	_, err := client.ListParts(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNetworkFailure)

	var netErr *common.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, http.StatusServiceUnavailable, netErr.Status)
	assert.Equal(t, "Inventory is being recounted", netErr.UserMessage())
}

func TestNestedErrorEnvelope(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"code":"VALIDATION_ERROR","message":"quantity_on_hand cannot be negative"}}`))
	})

	err := client.DeletePart(context.Background(), uuid.New(), uuid.New())
	var netErr *common.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, "quantity_on_hand cannot be negative", netErr.Message)
}

func TestGenericMessageWithoutBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.ListParts(context.Background(), uuid.New())
	var netErr *common.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, "Inventory service is unreachable, please try again", netErr.UserMessage())
}

func TestGetPartNotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})

	_, err := client.GetPart(context.Background(), uuid.New(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestUnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := NewClient(&config.InventoryConfig{APIURL: server.URL, TimeoutSeconds: 1})

	_, err := client.ListParts(context.Background(), uuid.New())
	assert.ErrorIs(t, err, common.ErrNetworkFailure)
}
