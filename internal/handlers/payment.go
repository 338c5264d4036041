package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/models"
)

const maxWebhookBody = int64(65536)

// PaymentRecorder applies provider-reported payment statuses.
type PaymentRecorder interface {
	RecordPayment(ctx context.Context, orderID uuid.UUID, target models.PaymentStatus) (*models.Order, error)
}

type PaymentHandler struct {
	orders PaymentRecorder
	secret string
}

func NewPaymentHandler(orders PaymentRecorder, webhookSecret string) *PaymentHandler {
	return &PaymentHandler{orders: orders, secret: webhookSecret}
}

// StripeWebhook records payments reported by Stripe. Payment intents carry
// the order id in their metadata; "payment_kind": "downpayment" marks a
// partial payment.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)
	payload, err := c.GetRawData()
	if err != nil {
		RespondError(c, apperr.Validation("unreadable body", nil))
		return
	}

	event, err := webhook.ConstructEventWithOptions(payload, c.GetHeader("Stripe-Signature"), h.secret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		log.Println("❌ Invalid Stripe signature:", err)
		RespondError(c, apperr.Validation("invalid signature", nil))
		return
	}
	log.Printf("📥 Stripe event received: %s", event.Type)

	var (
		metadata map[string]string
		target   models.PaymentStatus
	)
	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			RespondError(c, apperr.Validation("malformed payment intent", nil))
			return
		}
		metadata, target = pi.Metadata, models.PaymentPaid
		if pi.Metadata["payment_kind"] == "downpayment" {
			target = models.PaymentDownpayment
		}
	case "charge.refunded":
		var ch stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
			RespondError(c, apperr.Validation("malformed charge", nil))
			return
		}
		if !ch.Refunded {
			log.Printf("ℹ️ Partial refund on charge %s ignored", ch.ID)
			c.Status(http.StatusOK)
			return
		}
		metadata, target = ch.Metadata, models.PaymentRefunded
	default:
		log.Printf("ℹ️ Stripe event ignored: %s", event.Type)
		c.Status(http.StatusOK)
		return
	}

	orderID, err := uuid.Parse(metadata["order_id"])
	if err != nil {
		log.Printf("⚠️ Stripe event %s without a usable order_id", event.ID)
		c.Status(http.StatusOK)
		return
	}

	if _, err := h.orders.RecordPayment(c.Request.Context(), orderID, target); err != nil {
		// retrying cannot fix a bad transition or a missing order
		if apperr.KindOf(err) != apperr.KindDatabase {
			log.Printf("⚠️ Payment %s for order %s not applied: %v", target, orderID, err)
			c.Status(http.StatusOK)
			return
		}
		RespondError(c, err)
		return
	}
	c.Status(http.StatusOK)
}
