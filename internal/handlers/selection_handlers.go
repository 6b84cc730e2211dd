package handlers

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"garagebill/internal/common"
	"garagebill/internal/models"
	"garagebill/internal/reservation"
	"garagebill/internal/services"
)

// SelectionHandlers drives the part selection lists behind the job and
// assignment screens.
type SelectionHandlers struct {
	inventoryService services.InventoryService
}

func NewSelectionHandlers(inventoryService services.InventoryService) *SelectionHandlers {
	return &SelectionHandlers{inventoryService: inventoryService}
}

// SavedEntryRequest is a part already committed for the job being edited.
type SavedEntryRequest struct {
	PartID   uuid.UUID       `json:"part_id"`
	Quantity int             `json:"quantity"`
	SGST     *models.LineTax `json:"sgst,omitempty"`
	CGST     *models.LineTax `json:"cgst,omitempty"`
}

// CreateSelectionRequest represents the selection list creation payload
type CreateSelectionRequest struct {
	JobID *uuid.UUID          `json:"job_id,omitempty"`
	Scope models.ListScope    `json:"scope"`
	Label string              `json:"label"`
	Saved []SavedEntryRequest `json:"saved"`
}

// AddEntryRequest represents the payload for adding a part to a list
type AddEntryRequest struct {
	PartID   uuid.UUID       `json:"part_id"`
	Quantity int             `json:"quantity"`
	SGST     *models.LineTax `json:"sgst,omitempty"`
	CGST     *models.LineTax `json:"cgst,omitempty"`
}

// UpdateEntryRequest changes quantity and tax toggles; omitted fields are
// left as they are.
type UpdateEntryRequest struct {
	Quantity *int            `json:"quantity,omitempty"`
	SGST     *models.LineTax `json:"sgst,omitempty"`
	CGST     *models.LineTax `json:"cgst,omitempty"`
}

// StepEntryRequest is the +1 / -1 stepper.
type StepEntryRequest struct {
	Step int `json:"step"`
}

func (h *SelectionHandlers) ListSelections(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}

	lists := h.inventoryService.ListSelections(c.Request().Context(), ownerID)
	if lists == nil {
		lists = []models.SelectionList{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"selections": lists,
	})
}

// CreateSelection godoc
// @Summary      Open a selection list
// @Tags         selections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        selection  body      CreateSelectionRequest  true  "Selection list"
// @Success      201        {object}  models.SelectionView
// @Failure      400        {object}  common.ErrorResponse
// @Router       /v1/selections [post]
func (h *SelectionHandlers) CreateSelection(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}

	var req CreateSelectionRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}

	spec := reservation.ListSpec{
		JobID: req.JobID,
		Scope: req.Scope,
		Label: req.Label,
	}
	for _, saved := range req.Saved {
		entry := models.SelectionEntry{PartID: saved.PartID, Quantity: saved.Quantity}
		if saved.SGST != nil {
			entry.SGST = *saved.SGST
		}
		if saved.CGST != nil {
			entry.CGST = *saved.CGST
		}
		spec.Saved = append(spec.Saved, entry)
	}

	view, err := h.inventoryService.CreateSelection(c.Request().Context(), ownerID, spec)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusCreated, view)
}

func (h *SelectionHandlers) GetSelection(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}
	listID, ok, err := uuidParam(c, "id")
	if !ok {
		return err
	}

	view, err := h.inventoryService.GetSelection(c.Request().Context(), ownerID, listID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// DiscardSelection drops a list without touching stock.
func (h *SelectionHandlers) DiscardSelection(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}
	listID, ok, err := uuidParam(c, "id")
	if !ok {
		return err
	}

	if err := h.inventoryService.DiscardSelection(c.Request().Context(), ownerID, listID); err != nil {
		return common.SendError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddEntry godoc
// @Summary      Add a part to a selection list
// @Tags         selections
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string           true  "Selection ID"
// @Param        entry  body      AddEntryRequest  true  "Entry"
// @Success      200    {object}  models.SelectionView
// @Failure      409    {object}  common.ErrorResponse
// @Router       /v1/selections/{id}/entries [post]
func (h *SelectionHandlers) AddEntry(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}
	listID, ok, err := uuidParam(c, "id")
	if !ok {
		return err
	}

	var req AddEntryRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}
	if req.PartID == uuid.Nil {
		return common.SendValidationError(c, "part_id", "is required")
	}

	view, err := h.inventoryService.AddEntry(c.Request().Context(), ownerID, listID, reservation.EntryInput{
		PartID:   req.PartID,
		Quantity: req.Quantity,
		SGST:     req.SGST,
		CGST:     req.CGST,
	})
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *SelectionHandlers) UpdateEntry(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}
	listID, ok, err := uuidParam(c, "id")
	if !ok {
		return err
	}
	partID, ok, err := uuidParam(c, "part_id")
	if !ok {
		return err
	}

	var req UpdateEntryRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}

	view, err := h.inventoryService.UpdateEntry(c.Request().Context(), ownerID, listID, partID, reservation.EntryUpdate{
		Quantity: req.Quantity,
		SGST:     req.SGST,
		CGST:     req.CGST,
	})
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *SelectionHandlers) StepEntry(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}
	listID, ok, err := uuidParam(c, "id")
	if !ok {
		return err
	}
	partID, ok, err := uuidParam(c, "part_id")
	if !ok {
		return err
	}

	var req StepEntryRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}

	view, err := h.inventoryService.StepEntry(c.Request().Context(), ownerID, listID, partID, req.Step)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

func (h *SelectionHandlers) RemoveEntry(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}
	listID, ok, err := uuidParam(c, "id")
	if !ok {
		return err
	}
	partID, ok, err := uuidParam(c, "part_id")
	if !ok {
		return err
	}

	view, err := h.inventoryService.RemoveEntry(c.Request().Context(), ownerID, listID, partID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// Commit godoc
// @Summary      Commit a selection list to inventory
// @Description  Writes the net quantity change of every entry. On failure nothing stays half applied and the list remains open.
// @Tags         selections
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Selection ID"
// @Success      200  {object}  models.CommitResult
// @Failure      409  {object}  common.ErrorResponse
// @Failure      502  {object}  common.ErrorResponse
// @Router       /v1/selections/{id}/commit [post]
func (h *SelectionHandlers) Commit(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}
	listID, ok, err := uuidParam(c, "id")
	if !ok {
		return err
	}

	result, err := h.inventoryService.Commit(c.Request().Context(), ownerID, listID)
	if err != nil {
		log.Printf("Commit of selection %s for owner %s failed: %v", listID, ownerID, err)
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}
