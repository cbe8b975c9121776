package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"packstore/internal/shopify"
	"packstore/pkg/logkey"

	"github.com/gin-gonic/gin"
)

// shopError maps commerce client failures to responses: missing
// credentials become 503, upstream non-200s keep their status and text.
func shopError(c *gin.Context, traceId string, err error) {
	if errors.Is(err, shopify.ErrNotConfigured) {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "Product catalog is not configured"})
		return
	}
	var upstream *shopify.UpstreamError
	if errors.As(err, &upstream) {
		slog.Error("upstream catalog error", slog.String(logkey.TraceID, traceId),
			slog.Int("Status", upstream.StatusCode), slog.String(logkey.ERROR, upstream.Body))
		c.AbortWithStatusJSON(upstream.StatusCode, gin.H{"error": upstream.Body})
		return
	}
	slog.Error("catalog request failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch products"})
}

func firstParam(c *gin.Context) int {
	first, err := strconv.Atoi(c.DefaultQuery("first", "50"))
	if err != nil || first < 1 || first > 250 {
		first = 50
	}
	return first
}

func (h *Handler) ListProducts(c *gin.Context) {
	traceId := traceOf(c)

	products, err := h.shop.StorefrontProducts(c.Request.Context(), firstParam(c))
	if err != nil {
		shopError(c, traceId, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// GetCollection fetches the upstream collection by handle and re-filters
// its products through the local classification rules so every route
// groups products the same way.
func (h *Handler) GetCollection(c *gin.Context) {
	traceId := traceOf(c)
	handle := c.Param("handle")

	col, products, err := h.shop.StorefrontCollection(c.Request.Context(), handle, firstParam(c))
	if err != nil {
		shopError(c, traceId, err)
		return
	}

	if _, ok := shopify.RuleFor(handle); ok {
		products = shopify.Classify(products, handle)
	}

	c.JSON(http.StatusOK, gin.H{"collection": col, "products": products})
}

// OrganizedCollection pulls the full admin catalog and buckets every
// product by the shared classification table. A handle query param
// narrows the response to that single collection's bucket.
func (h *Handler) OrganizedCollection(c *gin.Context) {
	traceId := traceOf(c)

	products, err := h.shop.AdminProducts(c.Request.Context())
	if err != nil {
		shopError(c, traceId, err)
		return
	}

	if handle := c.Query("handle"); handle != "" {
		rule, ok := shopify.RuleFor(handle)
		if !ok {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "Collection not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"collections": []gin.H{collectionGroup(rule, products)}})
		return
	}

	groups := make([]gin.H, 0, len(shopify.Rules()))
	for _, rule := range shopify.Rules() {
		groups = append(groups, collectionGroup(rule, products))
	}

	c.JSON(http.StatusOK, gin.H{"collections": groups})
}

func collectionGroup(rule shopify.CollectionRule, products []shopify.Product) gin.H {
	matched := shopify.Classify(products, rule.Handle)
	return gin.H{
		"handle":   rule.Handle,
		"title":    rule.Title,
		"products": matched,
		"count":    len(matched),
	}
}
