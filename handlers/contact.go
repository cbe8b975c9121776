package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"packstore/internal/contact"
	"packstore/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// SubmitContactMessage stores the message. Spam-flagged submissions are
// accepted with the same response so the sender learns nothing; they just
// land in the inbox pre-flagged.
func (h *Handler) SubmitContactMessage(c *gin.Context) {
	traceId := traceOf(c)

	var nm contact.NewMessage
	if err := c.ShouldBindJSON(&nm); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !h.validRequest(c, traceId, nm) {
		return
	}

	msg, err := h.cm.Insert(c.Request.Context(), nm)
	if err != nil {
		slog.Error("error in inserting message", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Message submission failed"})
		return
	}

	if !msg.Spam {
		if err := h.mail.SendContactAutoReply(msg.Email, msg.Name); err != nil {
			slog.Error("error in sending auto-reply", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "Message received", "id": msg.ID})
}

func (h *Handler) AdminListMessages(c *gin.Context) {
	traceId := traceOf(c)

	page, limit := pageParams(c)
	f := contact.Filter{Page: page, Limit: limit, Status: c.Query("status")}

	list, total, err := h.cm.List(c.Request.Context(), f)
	if err != nil {
		slog.Error("error in listing messages", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}
	pagedResponse(c, list, page, limit, total)
}

func (h *Handler) AdminUpdateMessageStatus(c *gin.Context) {
	traceId := traceOf(c)

	var req struct {
		Status string `json:"status" validate:"required,oneof=unread read replied"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !h.validRequest(c, traceId, req) {
		return
	}

	if err := h.cm.UpdateStatus(c.Request.Context(), c.Param("id"), req.Status); err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Message not found"})
			return
		}
		slog.Error("error in updating message status", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Message update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message status updated", "status": req.Status})
}

func (h *Handler) AdminDeleteMessage(c *gin.Context) {
	traceId := traceOf(c)

	if err := h.cm.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Message not found"})
			return
		}
		slog.Error("error in deleting message", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Message deletion failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Message successfully deleted"})
}
