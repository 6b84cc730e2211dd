package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"garagebill/internal/common"
	"garagebill/internal/models"
	"garagebill/internal/services"
	"garagebill/pkg/money"
)

// PartsHandlers exposes the owner's inventory as seen by the selection
// screens.
type PartsHandlers struct {
	inventoryService  services.InventoryService
	lowStockThreshold int
}

func NewPartsHandlers(inventoryService services.InventoryService, lowStockThreshold int) *PartsHandlers {
	return &PartsHandlers{
		inventoryService:  inventoryService,
		lowStockThreshold: lowStockThreshold,
	}
}

// ListParts godoc
// @Summary      Refresh and list parts with availability
// @Tags         parts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  map[string]interface{}
// @Failure      502  {object}  common.ErrorResponse
// @Router       /v1/parts [get]
func (h *PartsHandlers) ListParts(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}

	parts, err := h.inventoryService.ListParts(c.Request().Context(), ownerID)
	if err != nil {
		return common.SendError(c, err)
	}
	if parts == nil {
		parts = []models.PartAvailability{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"parts": parts,
		"count": len(parts),
	})
}

// Candidates lists parts that can still be added to a list. Without
// list_id every part with stock is offered.
func (h *PartsHandlers) Candidates(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}

	listID := uuid.Nil
	if raw := c.QueryParam("list_id"); raw != "" {
		listID, err = uuid.Parse(raw)
		if err != nil {
			return common.SendValidationError(c, "list_id", "must be a valid UUID")
		}
	}

	candidates, err := h.inventoryService.Candidates(c.Request().Context(), ownerID, listID)
	if err != nil {
		return common.SendError(c, err)
	}
	if candidates == nil {
		candidates = []models.Candidate{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"candidates": candidates,
	})
}

// LowStock lists parts at or below ?threshold=, defaulting to the
// configured threshold.
func (h *PartsHandlers) LowStock(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}

	threshold := h.lowStockThreshold
	if raw := c.QueryParam("threshold"); raw != "" {
		threshold, err = strconv.Atoi(raw)
		if err != nil || threshold < 0 {
			return common.SendValidationError(c, "threshold", "must be a non-negative integer")
		}
	}

	alerts, err := h.inventoryService.LowStock(c.Request().Context(), ownerID, threshold)
	if err != nil {
		return common.SendError(c, err)
	}
	if alerts == nil {
		alerts = []models.LowStockAlert{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"threshold": threshold,
		"parts":     alerts,
	})
}

// CreatePartRequest represents the part creation request payload
type CreatePartRequest struct {
	Name           string           `json:"name"`
	PartNumber     *string          `json:"part_number,omitempty"`
	HSNCode        *string          `json:"hsn_code,omitempty"`
	QuantityOnHand int              `json:"quantity_on_hand"`
	PricePerUnit   money.Money      `json:"price_per_unit"`
	TaxPercentage  *decimal.Decimal `json:"tax_percentage,omitempty"`
}

// CreatePart godoc
// @Summary      Add a part to inventory
// @Tags         parts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        part  body      CreatePartRequest  true  "Part"
// @Success      201   {object}  models.Part
// @Failure      400   {object}  common.ErrorResponse
// @Router       /v1/parts [post]
func (h *PartsHandlers) CreatePart(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}

	var req CreatePartRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	if err := common.ValidateRequiredString(req.Name, "name"); err != nil {
		return common.SendError(c, err)
	}
	if err := common.ValidateOptionalString(req.PartNumber, "part_number", 64); err != nil {
		return common.SendError(c, err)
	}
	if req.QuantityOnHand < 0 {
		return common.SendValidationError(c, "quantity_on_hand", "cannot be negative")
	}
	if req.PricePerUnit.IsNegative() {
		return common.SendValidationError(c, "price_per_unit", "cannot be negative")
	}

	part := &models.Part{
		OwnerID:        ownerID,
		Name:           strings.TrimSpace(req.Name),
		PartNumber:     common.TrimmedOrNil(req.PartNumber),
		HSNCode:        common.TrimmedOrNil(req.HSNCode),
		QuantityOnHand: req.QuantityOnHand,
		PricePerUnit:   req.PricePerUnit,
		TaxPercentage:  req.TaxPercentage,
	}

	created, err := h.inventoryService.AddPart(c.Request().Context(), ownerID, part)
	if err != nil {
		return common.SendError(c, err)
	}

	return c.JSON(http.StatusCreated, created)
}

// DeletePart godoc
// @Summary      Delete a part with no stock left
// @Tags         parts
// @Security     BearerAuth
// @Param        id   path  string  true  "Part ID"
// @Success      204
// @Failure      400  {object}  common.ErrorResponse
// @Failure      404  {object}  common.ErrorResponse
// @Router       /v1/parts/{id} [delete]
func (h *PartsHandlers) DeletePart(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}
	partID, ok, err := uuidParam(c, "id")
	if !ok {
		return err
	}

	if err := h.inventoryService.DeletePart(c.Request().Context(), ownerID, partID); err != nil {
		return common.SendError(c, err)
	}

	return c.NoContent(http.StatusNoContent)
}
