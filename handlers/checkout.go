package handlers

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"

	"packstore/internal/orders"
	"packstore/internal/shopify"
	"packstore/pkg/logkey"

	"github.com/gin-gonic/gin"
)

type checkoutItem struct {
	VariantID string `json:"variant_id"`
	Title     string `json:"title" validate:"required"`
	Price     string `json:"price" validate:"required"`
	Quantity  int    `json:"quantity" validate:"required,min=1"`
	ProductID string `json:"product_id"`
	Image     string `json:"image"`
}

type checkoutRequest struct {
	FirstName string         `json:"first_name" validate:"required"`
	LastName  string         `json:"last_name" validate:"required"`
	Email     string         `json:"email" validate:"required,email"`
	Phone     string         `json:"phone"`
	Address   string         `json:"address" validate:"required"`
	City      string         `json:"city" validate:"required"`
	Country   string         `json:"country" validate:"required"`
	Zip       string         `json:"zip"`
	Shipping  int64          `json:"shipping" validate:"min=0"`
	Items     []checkoutItem `json:"items" validate:"required,min=1,dive"`
}

// Checkout places the order on the commerce platform first, then records a
// local copy. The upstream order is the source of truth: a failed local
// insert is logged and the customer still gets their confirmation.
func (h *Handler) Checkout(c *gin.Context) {
	traceId := traceOf(c)

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Error("json validation error", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": http.StatusText(http.StatusBadRequest)})
		return
	}
	if !h.validRequest(c, traceId, req) {
		return
	}

	in := shopify.OrderInput{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
		City:      req.City,
		Country:   req.Country,
		Zip:       req.Zip,
	}
	for _, it := range req.Items {
		in.Items = append(in.Items, shopify.OrderInputItem{
			VariantID: it.VariantID,
			Title:     it.Title,
			Price:     it.Price,
			Quantity:  it.Quantity,
		})
	}

	result, err := h.shop.CreateOrder(c.Request.Context(), in)
	if err != nil {
		shopError(c, traceId, err)
		return
	}

	// Best-effort local copy for the admin views and the customer's
	// order history.
	order := orders.Order{
		UserID:        h.optionalUserID(c),
		OrderNumber:   result.OrderNumber,
		CustomerName:  req.FirstName + " " + req.LastName,
		CustomerEmail: req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		Country:       req.Country,
		PostalCode:    req.Zip,
		Status:        orders.StatusPending,
		Shipping:      req.Shipping,
		Currency:      "TND",
	}
	if result.Currency != "" {
		order.Currency = result.Currency
	}
	var subtotal int64
	for _, it := range req.Items {
		cents := priceToCents(it.Price)
		subtotal += cents * int64(it.Quantity)
		order.Items = append(order.Items, orders.OrderItem{
			ProductID: it.ProductID,
			Title:     it.Title,
			Price:     cents,
			Quantity:  it.Quantity,
			Image:     it.Image,
		})
	}
	order.Subtotal = subtotal
	order.Total = subtotal + order.Shipping

	if _, err := h.o.Insert(c.Request.Context(), order); err != nil {
		slog.Error("upstream order created but local insert failed",
			slog.String(logkey.TraceID, traceId),
			slog.String("OrderNumber", result.OrderNumber),
			slog.String(logkey.ERROR, err.Error()))
	}

	if err := h.mail.SendOrderConfirmation(req.Email, result.OrderNumber); err != nil {
		slog.Error("error in sending order confirmation", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"order": gin.H{
			"id":           result.ID,
			"order_number": result.OrderNumber,
			"processed_at": result.ProcessedAt,
			"total_price":  result.TotalPrice,
			"currency":     order.Currency,
		},
	})
}

// priceToCents converts a decimal price string to the smallest currency
// unit. Unparseable input degrades to zero rather than failing checkout.
func priceToCents(price string) int64 {
	f, err := strconv.ParseFloat(price, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f * 100))
}
