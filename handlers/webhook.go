package handlers

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"packstore/internal/orders"
	"packstore/pkg/logkey"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/webhook"
)

// StripeWebhook consumes payment events. A succeeded payment intent marks
// the referenced local order paid and triggers the confirmation email.
// With a signing secret configured, the Stripe-Signature header must
// verify against the raw payload.
func (h *Handler) StripeWebhook(c *gin.Context) {
	traceId := traceOf(c)
	const MaxBodyBytes = int64(65536)

	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, MaxBodyBytes))
	if err != nil {
		slog.Error("failed to read webhook payload", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to read payload"})
		return
	}

	var event stripe.Event
	if h.cfg != nil && h.cfg.StripeWebhookSecret != "" {
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.cfg.StripeWebhookSecret)
		if err != nil {
			slog.Error("webhook signature verification failed", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
			return
		}
	} else if err := json.Unmarshal(payload, &event); err != nil {
		slog.Error("failed to bind webhook event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var paymentIntent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &paymentIntent); err != nil {
			slog.Error("failed to unmarshal payment intent", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		orderId := paymentIntent.Metadata["order_id"]
		if orderId == "" {
			slog.Error("payment intent missing order_id metadata", slog.String(logkey.TraceID, traceId), slog.String("PaymentIntent", paymentIntent.ID))
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing order_id metadata"})
			return
		}
		slog.Info("payment intent succeeded", slog.String(logkey.TraceID, traceId),
			slog.String("PaymentIntent", paymentIntent.ID), slog.String("OrderID", orderId))

		if err := h.o.UpdateStatus(c.Request.Context(), orderId, orders.StatusPaid, paymentIntent.ID); err != nil {
			slog.Error("failed to mark order paid", slog.String(logkey.TraceID, traceId),
				slog.String("OrderID", orderId), slog.String(logkey.ERROR, err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to update order"})
			return
		}

		if email := paymentIntent.Metadata["email"]; email != "" {
			if err := h.mail.SendOrderConfirmation(email, orderId); err != nil {
				slog.Error("error in sending payment confirmation", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
			}
		}
		c.Status(http.StatusOK)

	default:
		slog.Info("unhandled event type", slog.String(logkey.TraceID, traceId), slog.String("EventType", string(event.Type)))
		c.JSON(http.StatusOK, gin.H{
			"message": "Event type not handled",
			"event":   event.Type,
		})
	}
}
