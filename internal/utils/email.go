package utils

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/wneessen/go-mail"

	"unimerch_back_end/internal/config"
	"unimerch_back_end/internal/models"
)

// Mailer sends order emails over SMTP.
type Mailer struct {
	cfg  config.SMTPConfig
	send func(ctx context.Context, msg *mail.Msg) error
}

func NewMailer(cfg config.SMTPConfig) *Mailer {
	m := &Mailer{cfg: cfg}
	m.send = m.dialAndSend
	return m
}

func (m *Mailer) dialAndSend(ctx context.Context, msg *mail.Msg) error {
	client, err := mail.NewClient(m.cfg.Host,
		mail.WithPort(m.cfg.Port),
		mail.WithSMTPAuth(mail.SMTPAuthLogin),
		mail.WithUsername(m.cfg.Username),
		mail.WithPassword(m.cfg.Password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return err
	}
	return client.DialAndSendWithContext(ctx, msg)
}

// OrderStatusChanged emails the customer about the order's current status.
func (m *Mailer) OrderStatusChanged(ctx context.Context, order *models.Order, customer *models.Customer) error {
	if customer == nil || customer.Email == "" {
		log.Printf("⚠️ No email for customer of order %s, skipping notification", order.ID)
		return nil
	}
	msg, err := m.StatusMessage(order, customer)
	if err != nil {
		return err
	}
	if err := m.send(ctx, msg); err != nil {
		log.Printf("❌ Status email failed for order %s: %v", order.ID, err)
		return err
	}
	log.Printf("📧 Status email sent: %s → %s", order.Status, customer.Email)
	return nil
}

// StatusMessage builds the status email. READY orders carry the pickup QR code.
func (m *Mailer) StatusMessage(order *models.Order, customer *models.Customer) (*mail.Msg, error) {
	html, err := RenderStatusEmail(order, customer)
	if err != nil {
		return nil, err
	}

	msg := mail.NewMsg()
	if err := msg.From(m.cfg.From); err != nil {
		return nil, fmt.Errorf("sender %q: %w", m.cfg.From, err)
	}
	if err := msg.To(customer.Email); err != nil {
		return nil, fmt.Errorf("recipient %q: %w", customer.Email, err)
	}
	msg.Subject(StatusSubject(order.Status))
	msg.SetBodyString(mail.TypeTextHTML, html)

	if order.Status == models.OrderReady {
		png, err := PickupQR(order.ID)
		if err != nil {
			return nil, err
		}
		if err := msg.AttachReader("pickup-"+order.ID.String()+".png", bytes.NewReader(png),
			mail.WithFileContentType(mail.ContentType("image/png"))); err != nil {
			return nil, fmt.Errorf("attach pickup code: %w", err)
		}
	}
	return msg, nil
}
