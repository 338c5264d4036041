package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/models"
	"unimerch_back_end/internal/permissions"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
	maxNoteLength   = 500
)

// GetCustomerOrder returns an order owned by customerID. Orders of other
// customers are reported as not found.
func (s *Service) GetCustomerOrder(ctx context.Context, customerID string, orderID uuid.UUID) (*models.Order, error) {
	if customerID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, apperr.NotFound("order")
	}
	return order, nil
}

func (s *Service) ListCustomerOrders(ctx context.Context, customerID string, limit, offset int) ([]models.Order, error) {
	if customerID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}
	return s.orders.ListOrders(ctx, page(models.OrderFilter{CustomerID: customerID, Limit: limit, Offset: offset}))
}

// ListOrders is the back-office listing; it needs orders.canRead.
func (s *Service) ListOrders(ctx context.Context, actor permissions.Actor, filter models.OrderFilter) ([]models.Order, error) {
	if err := s.gate.Authorize(ctx, actor, models.ActionOrderView, "", permissions.OrdersRead); err != nil {
		return nil, err
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperr.Field("status", "unknown order status")
	}
	if filter.PaymentStatus != "" && !filter.PaymentStatus.Valid() {
		return nil, apperr.Field("payment_status", "unknown payment status")
	}
	return s.orders.ListOrders(ctx, page(filter))
}

func (s *Service) GetOrder(ctx context.Context, actor permissions.Actor, orderID uuid.UUID) (*models.Order, error) {
	if err := s.gate.Authorize(ctx, actor, models.ActionOrderView, orderID.String(), permissions.OrdersRead); err != nil {
		return nil, err
	}
	return s.orders.GetOrder(ctx, orderID)
}

// UpdateItemNote sets the free-text note of one item. Only the order owner
// may do this; price fields never change.
func (s *Service) UpdateItemNote(ctx context.Context, customerID string, orderID, itemID uuid.UUID, note string) (*models.OrderItem, error) {
	note = strings.TrimSpace(note)
	if len(note) > maxNoteLength {
		return nil, apperr.Field("note", "too long")
	}

	order, err := s.GetCustomerOrder(ctx, customerID, orderID)
	if err != nil {
		return nil, err
	}

	for i := range order.Items {
		if order.Items[i].ID != itemID {
			continue
		}
		if err := s.orders.UpdateItemNote(ctx, orderID, itemID, note); err != nil {
			return nil, err
		}
		order.Items[i].Note = note
		return &order.Items[i], nil
	}
	return nil, apperr.NotFound("order item")
}

// Stats backs the dashboard.
func (s *Service) Stats(ctx context.Context, actor permissions.Actor) (*models.OrderStats, error) {
	if err := s.gate.Authorize(ctx, actor, models.ActionDashboardView, "", permissions.DashboardRead); err != nil {
		return nil, err
	}
	return s.orders.OrderStats(ctx)
}

func page(f models.OrderFilter) models.OrderFilter {
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}
