package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"packstore/internal/printservice"
	"packstore/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) SubmitPrintRequest(c *gin.Context) {
	traceId := traceOf(c)

	var nr printservice.NewPrintRequest
	if err := c.ShouldBindJSON(&nr); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !h.validRequest(c, traceId, nr) {
		return
	}

	req, err := h.p.Insert(c.Request.Context(), nr)
	if err != nil {
		slog.Error("error in inserting print request", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Print request submission failed"})
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *Handler) AdminListPrintRequests(c *gin.Context) {
	traceId := traceOf(c)

	page, limit := pageParams(c)
	f := printservice.Filter{
		Page:   page,
		Limit:  limit,
		Status: printservice.Status(c.Query("status")),
	}

	list, total, err := h.p.List(c.Request.Context(), f)
	if err != nil {
		slog.Error("error in listing print requests", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch print requests"})
		return
	}
	pagedResponse(c, list, page, limit, total)
}

func (h *Handler) AdminGetPrintRequest(c *gin.Context) {
	traceId := traceOf(c)

	req, err := h.p.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, printservice.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Print request not found"})
			return
		}
		slog.Error("error in retrieving print request", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch print request"})
		return
	}
	c.JSON(http.StatusOK, req)
}

// AdminUpdatePrintStatus advances the request through its lifecycle. The
// store rejects transitions outside the allowed graph; each successful
// move notifies the customer by email.
func (h *Handler) AdminUpdatePrintStatus(c *gin.Context) {
	traceId := traceOf(c)

	var body struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !h.validRequest(c, traceId, body) {
		return
	}

	req, err := h.p.UpdateStatus(c.Request.Context(), c.Param("id"), printservice.Status(body.Status))
	if err != nil {
		switch {
		case errors.Is(err, printservice.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Print request not found"})
		case errors.Is(err, printservice.ErrInvalidTransition):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			slog.Error("error in updating print status", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Print request update failed"})
		}
		return
	}

	if err := h.mail.SendPrintStatusUpdate(req.Email, req.Name, string(req.Status)); err != nil {
		slog.Error("error in sending status email", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}

	c.JSON(http.StatusOK, req)
}
