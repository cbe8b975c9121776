package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"packstore/internal/invoices"
	"packstore/pkg/logkey"

	"github.com/gin-gonic/gin"
)

type invoiceItemRequest struct {
	Description string `json:"description" validate:"required"`
	Quantity    int    `json:"quantity" validate:"required,min=1"`
	UnitPrice   int64  `json:"unit_price" validate:"min=0"`
}

type invoicePrintingRequest struct {
	Material   string `json:"material" validate:"required"`
	Dimensions string `json:"dimensions" validate:"required"`
	Colors     string `json:"colors"`
	Quantity   int    `json:"quantity" validate:"required,min=1"`
}

type invoiceRequest struct {
	InvoiceNumber string                  `json:"invoice_number" validate:"required"`
	CompanyName   string                  `json:"company_name" validate:"required"`
	ContactName   string                  `json:"contact_name"`
	Email         string                  `json:"email" validate:"omitempty,email"`
	Phone         string                  `json:"phone"`
	Address       string                  `json:"address"`
	Date          string                  `json:"date" validate:"required"`
	DueDate       string                  `json:"due_date" validate:"required"`
	Status        string                  `json:"status"`
	Notes         string                  `json:"notes"`
	Items         []invoiceItemRequest    `json:"items" validate:"required,min=1,dive"`
	Printing      *invoicePrintingRequest `json:"printing"`
}

// toInvoice converts the request into the store model, parsing dates and
// validating the status enum.
func (r invoiceRequest) toInvoice() (invoices.Invoice, error) {
	date, err := time.Parse("2006-01-02", r.Date)
	if err != nil {
		return invoices.Invoice{}, errors.New("date must be YYYY-MM-DD")
	}
	due, err := time.Parse("2006-01-02", r.DueDate)
	if err != nil {
		return invoices.Invoice{}, errors.New("due_date must be YYYY-MM-DD")
	}

	status := invoices.Status(r.Status)
	if r.Status == "" {
		status = invoices.StatusDraft
	} else if !invoices.ValidStatus(status) {
		return invoices.Invoice{}, errors.New("invalid invoice status")
	}

	inv := invoices.Invoice{
		InvoiceNumber: r.InvoiceNumber,
		CompanyName:   r.CompanyName,
		ContactName:   r.ContactName,
		Email:         r.Email,
		Phone:         r.Phone,
		Address:       r.Address,
		Date:          date,
		DueDate:       due,
		Status:        status,
		Notes:         r.Notes,
	}
	for _, it := range r.Items {
		inv.Items = append(inv.Items, invoices.InvoiceItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	if r.Printing != nil {
		inv.Printing = &invoices.PrintingInfo{
			Material:   r.Printing.Material,
			Dimensions: r.Printing.Dimensions,
			Colors:     r.Printing.Colors,
			Quantity:   r.Printing.Quantity,
		}
	}
	return inv, nil
}

func (h *Handler) AdminCreateInvoice(c *gin.Context) {
	traceId := traceOf(c)

	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !h.validRequest(c, traceId, req) {
		return
	}

	inv, err := req.toInvoice()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.inv.Insert(c.Request.Context(), inv)
	if err != nil {
		if errors.Is(err, invoices.ErrNumberTaken) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invoice number already exists"})
			return
		}
		slog.Error("error in inserting invoice", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Invoice creation failed"})
		return
	}
	c.JSON(http.StatusOK, created)
}

func (h *Handler) AdminListInvoices(c *gin.Context) {
	traceId := traceOf(c)

	page, limit := pageParams(c)
	f := invoices.Filter{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
		Status: invoices.Status(c.Query("status")),
	}

	list, total, err := h.inv.List(c.Request.Context(), f)
	if err != nil {
		slog.Error("error in listing invoices", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invoices"})
		return
	}
	pagedResponse(c, list, page, limit, total)
}

func (h *Handler) AdminGetInvoice(c *gin.Context) {
	traceId := traceOf(c)

	inv, err := h.inv.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, invoices.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		slog.Error("error in retrieving invoice", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invoice"})
		return
	}
	c.JSON(http.StatusOK, inv)
}

// AdminInvoicePDF streams the invoice rendered as a PDF document.
func (h *Handler) AdminInvoicePDF(c *gin.Context) {
	traceId := traceOf(c)

	inv, err := h.inv.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, invoices.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		slog.Error("error in retrieving invoice", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch invoice"})
		return
	}

	pdf, err := invoices.RenderPDF(inv)
	if err != nil {
		slog.Error("error in rendering invoice pdf", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "PDF rendering failed"})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="invoice-`+inv.InvoiceNumber+`.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func (h *Handler) AdminUpdateInvoice(c *gin.Context) {
	traceId := traceOf(c)

	var req invoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !h.validRequest(c, traceId, req) {
		return
	}

	inv, err := req.toInvoice()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.inv.Update(c.Request.Context(), c.Param("id"), inv)
	if err != nil {
		switch {
		case errors.Is(err, invoices.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
		case errors.Is(err, invoices.ErrNumberTaken):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invoice number already exists"})
		default:
			slog.Error("error in updating invoice", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Invoice update failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invoice updated successfully", "invoice": updated})
}

func (h *Handler) AdminDeleteInvoice(c *gin.Context) {
	traceId := traceOf(c)

	if err := h.inv.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, invoices.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Invoice not found"})
			return
		}
		slog.Error("error in deleting invoice", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Invoice deletion failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Invoice successfully deleted"})
}
