package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"packstore/internal/uploads"
	"packstore/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// Upload validates the file and hosts it: image-host API when configured,
// inline data URL when the host call fails, local disk for PDFs.
func (h *Handler) Upload(c *gin.Context) {
	traceId := traceOf(c)

	fh, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	data, mimeType, err := uploads.Read(fh)
	if err != nil {
		if errors.Is(err, uploads.ErrTooLarge) || errors.Is(err, uploads.ErrBadMIMEType) {
			slog.Error("upload rejected", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		slog.Error("error in reading upload", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}

	if mimeType != "application/pdf" && h.images.Configured() {
		url, err := h.images.Upload(c.Request.Context(), data)
		if err != nil {
			slog.Error("image host upload failed, inlining as data url",
				slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.JSON(http.StatusOK, gin.H{"url": uploads.DataURL(mimeType, data), "hosted": false})
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url, "hosted": true})
		return
	}

	path, err := uploads.SaveLocal(h.cfg.UploadDir, data, mimeType)
	if err != nil {
		slog.Error("error in saving upload", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": path, "hosted": false})
}
