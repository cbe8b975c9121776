package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"packstore/internal/blog"
	"packstore/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const viewerCookie = "viewer_id"

// ListPublishedPosts is the public blog listing; drafts never appear here.
func (h *Handler) ListPublishedPosts(c *gin.Context) {
	traceId := traceOf(c)

	page, limit := pageParams(c)
	f := blog.Filter{
		Page:          page,
		Limit:         limit,
		Search:        c.Query("search"),
		CategoryID:    c.Query("category"),
		PublishedOnly: true,
	}

	list, total, err := h.b.ListPosts(c.Request.Context(), f)
	if err != nil {
		slog.Error("error in listing posts", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	pagedResponse(c, list, page, limit, total)
}

func (h *Handler) GetPostBySlug(c *gin.Context) {
	traceId := traceOf(c)

	post, err := h.b.GetPostBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		slog.Error("error in retrieving post", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch post"})
		return
	}
	if !post.Published {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return
	}
	c.JSON(http.StatusOK, post)
}

// RecordPostView counts at most one view per viewer per post. The viewer
// id lives in a cookie minted on first contact.
func (h *Handler) RecordPostView(c *gin.Context) {
	traceId := traceOf(c)

	viewerID, err := c.Cookie(viewerCookie)
	if err != nil || viewerID == "" {
		viewerID = uuid.NewString()
		c.SetCookie(viewerCookie, viewerID, 60*60*24*365, "/", "", false, true)
	}

	counted, err := h.b.RecordView(c.Request.Context(), c.Param("id"), viewerID)
	if err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		slog.Error("error in recording view", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to record view"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"counted": counted})
}

func (h *Handler) ListCategories(c *gin.Context) {
	traceId := traceOf(c)

	list, err := h.b.ListCategories(c.Request.Context())
	if err != nil {
		slog.Error("error in listing categories", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch categories"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": list})
}

// AdminListPosts includes drafts, unlike the public listing.
func (h *Handler) AdminListPosts(c *gin.Context) {
	traceId := traceOf(c)

	page, limit := pageParams(c)
	f := blog.Filter{
		Page:       page,
		Limit:      limit,
		Search:     c.Query("search"),
		CategoryID: c.Query("category"),
	}

	list, total, err := h.b.ListPosts(c.Request.Context(), f)
	if err != nil {
		slog.Error("error in listing posts", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch posts"})
		return
	}
	pagedResponse(c, list, page, limit, total)
}

func (h *Handler) AdminCreatePost(c *gin.Context) {
	traceId := traceOf(c)

	claims, ok := currentClaims(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var np blog.NewPost
	if err := c.ShouldBindJSON(&np); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !h.validRequest(c, traceId, np) {
		return
	}

	post, err := h.b.InsertPost(c.Request.Context(), np, claims.Subject)
	if err != nil {
		if errors.Is(err, blog.ErrSlugTaken) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Slug already exists"})
			return
		}
		slog.Error("error in inserting post", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Post creation failed"})
		return
	}
	c.JSON(http.StatusOK, post)
}

func (h *Handler) AdminUpdatePost(c *gin.Context) {
	traceId := traceOf(c)

	var np blog.NewPost
	if err := c.ShouldBindJSON(&np); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !h.validRequest(c, traceId, np) {
		return
	}

	post, err := h.b.UpdatePost(c.Request.Context(), c.Param("id"), np)
	if err != nil {
		switch {
		case errors.Is(err, blog.ErrNotFound):
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		case errors.Is(err, blog.ErrSlugTaken):
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Slug already exists"})
		default:
			slog.Error("error in updating post", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Post update failed"})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post updated successfully", "post": post})
}

func (h *Handler) AdminDeletePost(c *gin.Context) {
	traceId := traceOf(c)

	if err := h.b.DeletePost(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		slog.Error("error in deleting post", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Post deletion failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post successfully deleted"})
}

func (h *Handler) AdminCreateCategory(c *gin.Context) {
	traceId := traceOf(c)

	var req struct {
		Name string `json:"name" validate:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !h.validRequest(c, traceId, req) {
		return
	}

	cat, err := h.b.InsertCategory(c.Request.Context(), req.Name)
	if err != nil {
		slog.Error("error in inserting category", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Category creation failed"})
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *Handler) AdminDeleteCategory(c *gin.Context) {
	traceId := traceOf(c)

	if err := h.b.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, blog.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Category not found"})
			return
		}
		slog.Error("error in deleting category", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Category deletion failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category successfully deleted"})
}
