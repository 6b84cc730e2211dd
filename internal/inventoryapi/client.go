// Package inventoryapi talks to a remote inventory service over REST. The
// Client satisfies reservation.InventoryGateway.
package inventoryapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"garagebill/internal/common"
	"garagebill/internal/config"
	"garagebill/internal/models"
)

type Client struct {
	config     *config.InventoryConfig
	httpClient *http.Client
}

func NewClient(cfg *config.InventoryConfig) *Client {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// makeRequest performs an HTTP request against the inventory API.
func (c *Client) makeRequest(ctx context.Context, method, endpoint string, payload interface{}) (*http.Response, error) {
	target := strings.TrimRight(c.config.APIURL, "/") + endpoint

	var body io.Reader
	if payload != nil {
		jsonData, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal payload: %w", err)
		}
		body = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.config.APIKey))
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &common.NetworkError{Op: method + " " + endpoint, Err: err}
	}
	return resp, nil
}

// do runs a request and decodes a 2xx JSON body into out (when non-nil).
// Non-2xx answers become NetworkErrors carrying the server's message;
// 404 maps to common.ErrNotFound.
func (c *Client) do(ctx context.Context, method, endpoint string, payload, out interface{}) error {
	resp, err := c.makeRequest(ctx, method, endpoint, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return &common.NetworkError{Op: method + " " + endpoint, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%s %s: %w", method, endpoint, common.ErrNotFound)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("Inventory API error: status %d, body: %s", resp.StatusCode, string(raw))
		return &common.NetworkError{Op: method + " " + endpoint, Status: resp.StatusCode, Message: serverMessage(raw)}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return &common.NetworkError{Op: method + " " + endpoint, Status: resp.StatusCode, Err: fmt.Errorf("failed to decode response: %w", err)}
	}
	return nil
}

func serverMessage(raw []byte) string {
	var body struct {
		Message string          `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	if len(body.Error) == 0 {
		return ""
	}
	var text string
	if err := json.Unmarshal(body.Error, &text); err == nil {
		return text
	}
	// The error envelope this service itself sends.
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body.Error, &nested); err == nil {
		return nested.Message
	}
	return ""
}

func ownerQuery(ownerID uuid.UUID) string {
	return "?" + url.Values{"owner_id": {ownerID.String()}}.Encode()
}

func (c *Client) ListParts(ctx context.Context, ownerID uuid.UUID) ([]models.Part, error) {
	var parts []models.Part
	if err := c.do(ctx, http.MethodGet, "/inventory"+ownerQuery(ownerID), nil, &parts); err != nil {
		return nil, err
	}
	return parts, nil
}

func (c *Client) GetPart(ctx context.Context, ownerID, partID uuid.UUID) (*models.Part, error) {
	part := &models.Part{}
	if err := c.do(ctx, http.MethodGet, "/inventory/"+partID.String()+ownerQuery(ownerID), nil, part); err != nil {
		return nil, err
	}
	return part, nil
}

func (c *Client) AddPart(ctx context.Context, part *models.Part) error {
	if err := common.ValidateRequiredString(part.Name, "name"); err != nil {
		return err
	}
	if part.QuantityOnHand < 0 {
		return common.NewValidationError("quantity_on_hand", "cannot be negative")
	}
	if part.PricePerUnit.IsNegative() {
		return common.NewValidationError("price_per_unit", "cannot be negative")
	}
	return c.do(ctx, http.MethodPost, "/inventory", part, part)
}

func (c *Client) UpdateQuantity(ctx context.Context, ownerID, partID uuid.UUID, quantity int) error {
	if quantity < 0 {
		return common.NewValidationError("quantity_on_hand", "cannot be negative")
	}
	payload := map[string]interface{}{
		"owner_id":         ownerID,
		"quantity_on_hand": quantity,
	}
	return c.do(ctx, http.MethodPut, "/inventory/"+partID.String(), payload, nil)
}

func (c *Client) DeletePart(ctx context.Context, ownerID, partID uuid.UUID) error {
	return c.do(ctx, http.MethodDelete, "/inventory/"+partID.String()+ownerQuery(ownerID), nil, nil)
}
