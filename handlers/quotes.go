package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"packstore/internal/quotes"
	"packstore/internal/uploads"
	"packstore/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// SubmitQuote accepts either a JSON body or a multipart form with an
// optional payment receipt file. Authenticated submitters get the quote
// attached to their account; anonymous ones do not.
func (h *Handler) SubmitQuote(c *gin.Context) {
	traceId := traceOf(c)

	var nq quotes.NewQuote
	receiptPath := ""

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		quantity, err := strconv.Atoi(c.DefaultPostForm("quantity", "0"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "quantity must be a number"})
			return
		}
		nq = quotes.NewQuote{
			ProductName: c.PostForm("product_name"),
			Quantity:    quantity,
			Discount:    c.PostForm("discount"),
			Name:        c.PostForm("name"),
			Email:       c.PostForm("email"),
			Phone:       c.PostForm("phone"),
			Company:     c.PostForm("company"),
			Message:     c.PostForm("message"),
		}

		if fh, err := c.FormFile("receipt"); err == nil {
			data, mimeType, err := uploads.Read(fh)
			if err != nil {
				slog.Error("receipt rejected", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			receiptPath, err = uploads.SaveLocal(h.cfg.UploadDir, data, mimeType)
			if err != nil {
				slog.Error("error in saving receipt", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Receipt upload failed"})
				return
			}
		}
	} else {
		if err := c.ShouldBindJSON(&nq); err != nil {
			slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
			return
		}
	}

	if !h.validRequest(c, traceId, nq) {
		return
	}

	quote, err := h.q.Insert(c.Request.Context(), nq, h.optionalUserID(c), receiptPath)
	if err != nil {
		slog.Error("error in inserting quote", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Quote submission failed"})
		return
	}

	if err := h.mail.SendQuoteReceived(quote.Email, quote.Name, quote.ProductName); err != nil {
		slog.Error("error in sending quote email", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}

	c.JSON(http.StatusOK, quote)
}

func (h *Handler) SubmitBulkQuote(c *gin.Context) {
	traceId := traceOf(c)

	var nq quotes.NewBulkQuote
	if err := c.ShouldBindJSON(&nq); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !h.validRequest(c, traceId, nq) {
		return
	}

	quote, err := h.q.InsertBulk(c.Request.Context(), nq)
	if err != nil {
		slog.Error("error in inserting bulk quote", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Quote submission failed"})
		return
	}

	if err := h.mail.SendQuoteReceived(quote.Email, quote.Name, quote.Products); err != nil {
		slog.Error("error in sending quote email", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}

	c.JSON(http.StatusOK, quote)
}

func (h *Handler) AdminListQuotes(c *gin.Context) {
	traceId := traceOf(c)

	page, limit := pageParams(c)
	f := quotes.Filter{Page: page, Limit: limit, Status: c.Query("status")}

	list, total, err := h.q.List(c.Request.Context(), f)
	if err != nil {
		slog.Error("error in listing quotes", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quotes"})
		return
	}
	pagedResponse(c, list, page, limit, total)
}

func (h *Handler) AdminGetQuote(c *gin.Context) {
	traceId := traceOf(c)

	quote, err := h.q.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, quotes.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Quote not found"})
			return
		}
		slog.Error("error in retrieving quote", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quote"})
		return
	}
	c.JSON(http.StatusOK, quote)
}

func (h *Handler) AdminListBulkQuotes(c *gin.Context) {
	traceId := traceOf(c)

	page, limit := pageParams(c)
	f := quotes.Filter{Page: page, Limit: limit, Status: c.Query("status")}

	list, total, err := h.q.ListBulk(c.Request.Context(), f)
	if err != nil {
		slog.Error("error in listing bulk quotes", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch quotes"})
		return
	}
	pagedResponse(c, list, page, limit, total)
}

func (h *Handler) AdminUpdateQuoteStatus(c *gin.Context) {
	traceId := traceOf(c)

	var req struct {
		Status string `json:"status" validate:"required,oneof=pending reviewed accepted rejected"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !h.validRequest(c, traceId, req) {
		return
	}

	if err := h.q.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		if errors.Is(err, quotes.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Quote not found"})
			return
		}
		slog.Error("error in updating quote status", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Quote update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Quote status updated", "status": req.Status})
}
