package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"garagebill/internal/common"
	"garagebill/internal/invoicing"
	"garagebill/internal/models"
	"garagebill/internal/services"
)

const (
	dateLayout   = "2006-01-02"
	mimeXLSX     = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	mimePDF      = "application/pdf"
	registerName = "gst-register-%s-to-%s.xlsx"
)

// BillHandlers covers the bill preview, invoice generation and the
// invoice export channels.
type BillHandlers struct {
	invoiceService services.InvoiceService
}

func NewBillHandlers(invoiceService services.InvoiceService) *BillHandlers {
	return &BillHandlers{invoiceService: invoiceService}
}

// ComputeSummary godoc
// @Summary      Preview the bill summary
// @Tags         bills
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        bill  body      models.BillRequest  true  "Bill"
// @Success      200   {object}  services.SummaryPreview
// @Failure      400   {object}  common.ErrorResponse
// @Router       /v1/bills/summary [post]
func (h *BillHandlers) ComputeSummary(c echo.Context) error {
	if _, ok, err := ownerFrom(c); !ok {
		return err
	}

	var req models.BillRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}

	preview, err := h.invoiceService.ComputeSummary(c.Request().Context(), req)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, preview)
}

// GenerateBill godoc
// @Summary      Generate the job's invoice
// @Description  Issues the invoice once. Repeated calls return the stored invoice with already_generated set.
// @Tags         bills
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string              true  "Job ID"
// @Param        bill  body      models.BillRequest  true  "Bill"
// @Success      201   {object}  models.InvoiceResult
// @Success      200   {object}  models.InvoiceResult
// @Failure      400   {object}  common.ErrorResponse
// @Failure      404   {object}  common.ErrorResponse
// @Router       /v1/jobs/{id}/generate-bill [post]
func (h *BillHandlers) GenerateBill(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}
	jobID, ok, err := uuidParam(c, "id")
	if !ok {
		return err
	}

	var req models.BillRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request body")
	}

	result, err := h.invoiceService.GenerateBill(c.Request().Context(), ownerID, jobID, req)
	if err != nil {
		return common.SendError(c, err)
	}

	status := http.StatusCreated
	if result.AlreadyGenerated {
		status = http.StatusOK
	}
	return c.JSON(status, result)
}

func (h *BillHandlers) GetInvoice(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}
	jobID, ok, err := uuidParam(c, "id")
	if !ok {
		return err
	}

	inv, err := h.invoiceService.GetInvoice(c.Request().Context(), ownerID, jobID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, inv)
}

// DownloadPDF streams the invoice PDF. ?inline=true displays it in the
// browser instead of downloading.
func (h *BillHandlers) DownloadPDF(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}
	jobID, ok, err := uuidParam(c, "id")
	if !ok {
		return err
	}

	inv, pdf, err := h.invoiceService.RenderPDF(c.Request().Context(), ownerID, jobID)
	if err != nil {
		return common.SendError(c, err)
	}

	disposition := "attachment"
	if c.QueryParam("inline") == "true" {
		disposition = "inline"
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("%s; filename=%q", disposition, invoicing.FileName(inv)))
	return c.Blob(http.StatusOK, mimePDF, pdf)
}

// ShareInvoice godoc
// @Summary      Share the invoice
// @Description  Uploads the PDF and returns a time-limited download link with mail and message payloads.
// @Tags         bills
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Job ID"
// @Success      200  {object}  models.InvoiceShare
// @Failure      404  {object}  common.ErrorResponse
// @Router       /v1/jobs/{id}/invoice/share [post]
func (h *BillHandlers) ShareInvoice(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}
	jobID, ok, err := uuidParam(c, "id")
	if !ok {
		return err
	}

	share, err := h.invoiceService.ShareInvoice(c.Request().Context(), ownerID, jobID)
	if err != nil {
		return common.SendError(c, err)
	}
	return c.JSON(http.StatusOK, share)
}

// ExportRegister godoc
// @Summary      GST register workbook
// @Tags         bills
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security     BearerAuth
// @Param        from  query  string  true  "Start date (YYYY-MM-DD)"
// @Param        to    query  string  true  "End date (YYYY-MM-DD), inclusive"
// @Success      200
// @Failure      400  {object}  common.ErrorResponse
// @Router       /v1/invoices/register [get]
func (h *BillHandlers) ExportRegister(c echo.Context) error {
	ownerID, ok, err := ownerFrom(c)
	if !ok {
		return err
	}

	from, err := time.Parse(dateLayout, c.QueryParam("from"))
	if err != nil {
		return common.SendValidationError(c, "from", "must be a date in YYYY-MM-DD format")
	}
	to, err := time.Parse(dateLayout, c.QueryParam("to"))
	if err != nil {
		return common.SendValidationError(c, "to", "must be a date in YYYY-MM-DD format")
	}
	// to is a whole day
	endOfDay := to.Add(24*time.Hour - time.Nanosecond)

	buf, err := h.invoiceService.ExportRegister(c.Request().Context(), ownerID, from, endOfDay)
	if err != nil {
		return common.SendError(c, err)
	}

	fileName := fmt.Sprintf(registerName, from.Format(dateLayout), to.Format(dateLayout))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", fileName))
	return c.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
}
