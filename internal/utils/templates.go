package utils

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"

	"unimerch_back_end/internal/models"
)

var statusEmail = template.Must(template.New("status").Funcs(template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("₱%.2f", v) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="UTF-8"><title>Order update</title></head>
<body style="margin:0;padding:20px;font-family:Arial,sans-serif;background-color:#f5f5f5;">
  <div style="max-width:600px;margin:auto;background-color:#ffffff;padding:24px;border-radius:12px;">
    <h2 style="color:#333;">{{.Icon}} {{.Headline}}</h2>
    <p>Hi {{.Name}},</p>
    <p>{{.Message}}</p>
    <p style="color:#555;">Order <strong>{{.OrderID}}</strong></p>
    {{if .Reason}}<p style="color:#b00020;">Reason: {{.Reason}}</p>{{end}}
    <table style="width:100%;border-collapse:collapse;margin:20px 0;">
      <thead><tr style="background-color:#f0f0f0;">
        <th style="padding:8px;text-align:left;">Item</th>
        <th style="padding:8px;text-align:left;">Qty</th>
        <th style="padding:8px;text-align:left;">Price</th>
      </tr></thead>
      <tbody>
      {{range .Items}}<tr>
        <td style="padding:8px;">{{.ProductName}}</td>
        <td style="padding:8px;">{{.Quantity}}</td>
        <td style="padding:8px;">{{money .Subtotal}}</td>
      </tr>{{end}}
      </tbody>
      <tfoot><tr>
        <td colspan="2" style="padding:8px;text-align:right;font-weight:bold;">Total</td>
        <td style="padding:8px;font-weight:bold;">{{money .Total}}</td>
      </tr></tfoot>
    </table>
    {{if .Pickup}}<p>Show the attached QR code at the merch booth to claim your order.</p>{{end}}
    <p style="margin-top:30px;color:#555;">UniMerch</p>
  </div>
</body>
</html>`))

type statusView struct {
	Icon     string
	Headline string
	Message  string
	Name     string
	OrderID  string
	Reason   string
	Items    []models.OrderItem
	Total    float64
	Pickup   bool
}

// StatusSubject returns the email subject for an order status.
func StatusSubject(status models.OrderStatus) string {
	switch status {
	case models.OrderPending:
		return "📋 Order received - UniMerch"
	case models.OrderProcessing:
		return "🛠️ Your order is being prepared - UniMerch"
	case models.OrderReady:
		return "📦 Your order is ready for pickup - UniMerch"
	case models.OrderDelivered:
		return "🎉 Order claimed - UniMerch"
	case models.OrderCancelled:
		return "❌ Order cancelled - UniMerch"
	default:
		return "📋 Order update - UniMerch"
	}
}

func statusCopy(status models.OrderStatus) (icon, headline, message string) {
	switch status {
	case models.OrderPending:
		return "📋", "Order received", "We received your order and will start on it soon."
	case models.OrderProcessing:
		return "🛠️", "Order in progress", "Your order is being prepared."
	case models.OrderReady:
		return "📦", "Ready for pickup", "Your order is ready. Bring the QR code below when you pick it up."
	case models.OrderDelivered:
		return "🎉", "Order claimed", "Thanks for your purchase! A short survey is waiting in your orders page."
	case models.OrderCancelled:
		return "❌", "Order cancelled", "Your order was cancelled."
	}
	return "📋", "Order update", "Your order status changed to " + string(status) + "."
}

// RenderStatusEmail renders the HTML body of a status email.
func RenderStatusEmail(order *models.Order, customer *models.Customer) (string, error) {
	icon, headline, message := statusCopy(order.Status)
	view := statusView{
		Icon:     icon,
		Headline: headline,
		Message:  message,
		Name:     displayName(customer),
		OrderID:  order.ID.String(),
		Items:    order.Items,
		Total:    order.TotalPrice,
		Pickup:   order.Status == models.OrderReady,
	}
	if order.Status == models.OrderCancelled && order.CancellationReason != nil {
		view.Reason = strings.ReplaceAll(strings.ToLower(string(*order.CancellationReason)), "_", " ")
	}

	var buf bytes.Buffer
	if err := statusEmail.Execute(&buf, view); err != nil {
		return "", fmt.Errorf("render status email: %w", err)
	}
	return buf.String(), nil
}

func displayName(c *models.Customer) string {
	if c.Name != "" {
		return c.Name
	}
	if name, _, ok := strings.Cut(c.Email, "@"); ok && name != "" {
		return name
	}
	return "there"
}

// PickupQR encodes the order id as a PNG QR code.
func PickupQR(orderID uuid.UUID) ([]byte, error) {
	png, err := qrcode.Encode(orderID.String(), qrcode.Medium, 256)
	if err != nil {
		return nil, fmt.Errorf("encode pickup code: %w", err)
	}
	return png, nil
}
