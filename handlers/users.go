package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"packstore/internal/users"
	"packstore/pkg/logkey"

	"github.com/gin-gonic/gin"
)

func (h *Handler) AdminListUsers(c *gin.Context) {
	traceId := traceOf(c)

	page, limit := pageParams(c)
	f := users.Filter{
		Page:   page,
		Limit:  limit,
		Search: c.Query("search"),
		Role:   c.Query("role"),
		Status: c.Query("status"),
	}

	list, total, err := h.u.List(c.Request.Context(), f)
	if err != nil {
		slog.Error("error in listing users", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}
	pagedResponse(c, list, page, limit, total)
}

func (h *Handler) AdminGetUser(c *gin.Context) {
	traceId := traceOf(c)

	user, err := h.u.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		slog.Error("error in retrieving user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *Handler) AdminUpdateUser(c *gin.Context) {
	traceId := traceOf(c)

	var up users.UpdateUser
	if err := c.ShouldBindJSON(&up); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !h.validRequest(c, traceId, up) {
		return
	}

	user, err := h.u.Update(c.Request.Context(), c.Param("id"), up)
	if err != nil {
		switch {
		case errors.Is(err, users.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
		case errors.Is(err, users.ErrEmailTaken):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Email already registered"})
		default:
			slog.Error("error in updating user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "User update failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User updated successfully", "user": user})
}

func (h *Handler) AdminDeleteUser(c *gin.Context) {
	traceId := traceOf(c)

	if err := h.u.Delete(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		slog.Error("error in deleting user", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "User deletion failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User successfully deleted"})
}
