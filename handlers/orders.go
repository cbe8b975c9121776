package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"packstore/internal/orders"
	"packstore/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// MyOrders lists the authenticated user's own orders.
func (h *Handler) MyOrders(c *gin.Context) {
	traceId := traceOf(c)

	claims, ok := currentClaims(c)
	if !ok {
		slog.Error("claims not found", slog.String(logkey.TraceID, traceId))
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	list, err := h.o.ListByUser(c.Request.Context(), claims.Subject)
	if err != nil {
		slog.Error("error in listing user orders", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

func (h *Handler) AdminListOrders(c *gin.Context) {
	traceId := traceOf(c)

	page, limit := pageParams(c)
	f := orders.Filter{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
		Status: c.Query("status"),
	}

	list, total, err := h.o.List(c.Request.Context(), f)
	if err != nil {
		slog.Error("error in listing orders", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
		return
	}
	pagedResponse(c, list, page, limit, total)
}

func (h *Handler) AdminGetOrder(c *gin.Context) {
	traceId := traceOf(c)

	order, err := h.o.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("error in retrieving order", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
		return
	}
	c.JSON(http.StatusOK, order)
}

// AdminUpdateOrderStatus writes a new status. The status column is
// free-form text so upstream platform statuses pass through untouched.
func (h *Handler) AdminUpdateOrderStatus(c *gin.Context) {
	traceId := traceOf(c)

	var req struct {
		Status string `json:"status" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !h.validRequest(c, traceId, req) {
		return
	}

	if err := h.o.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status, ""); err != nil {
		if errors.Is(err, orders.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		slog.Error("error in updating order status", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Order update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "status": req.Status})
}
