// Package orders owns the order lifecycle: checkout, status and payment
// transitions, their side effects, item notes and satisfaction surveys.
package orders

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/models"
	"unimerch_back_end/internal/permissions"
)

// Repository persists orders and their items.
type Repository interface {
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, reason *models.CancellationReason, at time.Time) error
	UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus, at time.Time) error
	UpdateItemNote(ctx context.Context, orderID, itemID uuid.UUID, note string) error
	ListOrders(ctx context.Context, filter models.OrderFilter) ([]models.Order, error)
	OrderStats(ctx context.Context) (*models.OrderStats, error)
}

// SurveyRepository persists survey categories and surveys.
type SurveyRepository interface {
	SurveyForOrder(ctx context.Context, orderID uuid.UUID) (*models.CustomerSatisfactionSurvey, error)
	DefaultSurveyCategory(ctx context.Context) (*models.SurveyCategory, error)
	GetSurveyCategory(ctx context.Context, id uuid.UUID) (*models.SurveyCategory, error)
	CreateSurvey(ctx context.Context, survey *models.CustomerSatisfactionSurvey) error
	SubmitSurvey(ctx context.Context, surveyID uuid.UUID, ratings []int, comment string, at time.Time) error
	ListSurveyCategories(ctx context.Context) ([]models.SurveyCategory, error)
	CreateSurveyCategory(ctx context.Context, category *models.SurveyCategory) error
	DeleteSurveyCategory(ctx context.Context, id uuid.UUID) error
}

// Catalog looks up a variant together with its product.
type Catalog interface {
	GetVariantWithProduct(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, *models.Product, error)
}

// Customers returns storefront profiles.
type Customers interface {
	Profile(ctx context.Context, userID string) (*models.Customer, error)
}

// Authorizer guards staff operations.
type Authorizer interface {
	Authorize(ctx context.Context, actor permissions.Actor, action, resourceID string, required ...permissions.Capability) error
}

// Notifier tells a customer that their order changed.
type Notifier interface {
	OrderStatusChanged(ctx context.Context, order *models.Order, customer *models.Customer) error
}

// EventPublisher broadcasts order events.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event models.OrderEvent) error
}

type Service struct {
	orders     Repository
	surveys    SurveyRepository
	catalog    Catalog
	customers  Customers
	gate       Authorizer
	notifier   Notifier
	publishers []EventPublisher
	now        func() time.Time
	async      func(func())
}

type Option func(*Service)

func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

func WithPublishers(p ...EventPublisher) Option {
	return func(s *Service) { s.publishers = append(s.publishers, p...) }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSyncSideEffects runs notifications and event publishing inline.
func WithSyncSideEffects() Option {
	return func(s *Service) { s.async = func(f func()) { f() } }
}

func NewService(orders Repository, surveys SurveyRepository, catalog Catalog, customers Customers, gate Authorizer, opts ...Option) *Service {
	s := &Service{
		orders:    orders,
		surveys:   surveys,
		catalog:   catalog,
		customers: customers,
		gate:      gate,
		now:       time.Now,
		async:     func(f func()) { go f() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UpdateStatus moves an order to target. The caller needs orders.canUpdate;
// the check runs before anything is read or written. reason is required
// for CANCELLED and rejected otherwise.
func (s *Service) UpdateStatus(ctx context.Context, actor permissions.Actor, orderID uuid.UUID, target models.OrderStatus, reason *models.CancellationReason) (*models.Order, error) {
	if err := s.gate.Authorize(ctx, actor, models.ActionOrderStatusUpdate, orderID.String(), permissions.OrdersUpdate); err != nil {
		return nil, err
	}

	if !target.Valid() {
		return nil, apperr.Field("status", "unknown order status")
	}
	if target == models.OrderCancelled {
		if reason == nil {
			return nil, apperr.Field("cancellation_reason", "required when cancelling an order")
		}
		if !reason.Valid() {
			return nil, apperr.Field("cancellation_reason", "unknown cancellation reason")
		}
	} else if reason != nil {
		return nil, apperr.Field("cancellation_reason", "only allowed when cancelling an order")
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if order.Status == target {
		if target == models.OrderDelivered {
			s.ensureSurvey(ctx, order.ID)
		}
		return order, nil
	}

	if !CanTransition(order.Status, target) {
		return nil, apperr.Field("status", "cannot move order from "+string(order.Status)+" to "+string(target))
	}

	now := s.now()
	if err := s.orders.UpdateOrderStatus(ctx, order.ID, target, reason, now); err != nil {
		return nil, err
	}

	previous := order.Status
	order.Status = target
	order.CancellationReason = reason
	order.UpdatedAt = now
	log.Printf("✅ Order %s: %s → %s", order.ID, previous, target)

	if target == models.OrderDelivered {
		s.ensureSurvey(ctx, order.ID)
	}
	s.afterChange(ctx, order, models.EventOrderStatusChanged, string(previous), true)

	return order, nil
}

// UpdatePaymentStatus moves the payment status of an order. Allowed whatever
// the order status, so delivered orders can still be refunded.
func (s *Service) UpdatePaymentStatus(ctx context.Context, actor permissions.Actor, orderID uuid.UUID, target models.PaymentStatus) (*models.Order, error) {
	if err := s.gate.Authorize(ctx, actor, models.ActionOrderPaymentUpdate, orderID.String(), permissions.OrdersUpdate); err != nil {
		return nil, err
	}
	return s.applyPayment(ctx, orderID, target)
}

// RecordPayment applies a payment status reported by the payment provider.
// The webhook signature is the guard, so no capability check runs here.
func (s *Service) RecordPayment(ctx context.Context, orderID uuid.UUID, target models.PaymentStatus) (*models.Order, error) {
	return s.applyPayment(ctx, orderID, target)
}

func (s *Service) applyPayment(ctx context.Context, orderID uuid.UUID, target models.PaymentStatus) (*models.Order, error) {
	if !target.Valid() {
		return nil, apperr.Field("payment_status", "unknown payment status")
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentStatus == target {
		return order, nil
	}
	if !CanTransitionPayment(order.PaymentStatus, target) {
		return nil, apperr.Field("payment_status", "cannot move payment from "+string(order.PaymentStatus)+" to "+string(target))
	}

	now := s.now()
	if err := s.orders.UpdatePaymentStatus(ctx, order.ID, target, now); err != nil {
		return nil, err
	}

	previous := order.PaymentStatus
	order.PaymentStatus = target
	order.UpdatedAt = now
	log.Printf("💰 Order %s payment: %s → %s", order.ID, previous, target)

	s.afterChange(ctx, order, models.EventPaymentStatusChanged, string(previous), false)
	return order, nil
}

// ensureSurvey creates the order's survey unless one exists. Failures are
// logged: the status change has already been committed and re-delivering
// the order retries this step.
func (s *Service) ensureSurvey(ctx context.Context, orderID uuid.UUID) {
	if _, err := s.surveys.SurveyForOrder(ctx, orderID); err == nil {
		return
	} else if !apperr.Is(err, apperr.KindNotFound) {
		log.Printf("❌ Survey lookup failed for order %s: %v", orderID, err)
		return
	}

	category, err := s.surveys.DefaultSurveyCategory(ctx)
	if err != nil {
		log.Printf("⚠️ No survey category available for order %s: %v", orderID, err)
		return
	}

	survey := &models.CustomerSatisfactionSurvey{
		ID:         uuid.New(),
		OrderID:    orderID,
		CategoryID: category.ID,
		CreatedAt:  s.now(),
	}
	if err := s.surveys.CreateSurvey(ctx, survey); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return
		}
		log.Printf("❌ Survey creation failed for order %s: %v", orderID, err)
		return
	}
	log.Printf("📝 Survey created for order %s", orderID)
}

// afterChange publishes the event and, for status changes, emails the
// customer. Both run off the request path.
func (s *Service) afterChange(ctx context.Context, order *models.Order, eventType, previous string, notify bool) {
	event := models.OrderEvent{
		Type:          eventType,
		OrderID:       order.ID,
		CustomerID:    order.CustomerID,
		Status:        order.Status,
		PaymentStatus: order.PaymentStatus,
		Previous:      previous,
		OccurredAt:    order.UpdatedAt,
	}
	snapshot := *order
	bg := context.WithoutCancel(ctx)

	s.async(func() {
		s.publish(bg, event)
		if notify {
			s.notify(bg, &snapshot)
		}
	})
}

func (s *Service) publish(ctx context.Context, event models.OrderEvent) {
	for _, p := range s.publishers {
		if err := p.PublishOrderEvent(ctx, event); err != nil {
			log.Printf("⚠️ Publishing %s for order %s failed: %v", event.Type, event.OrderID, err)
		}
	}
}

func (s *Service) notify(ctx context.Context, order *models.Order) {
	if s.notifier == nil {
		return
	}
	customer, err := s.customers.Profile(ctx, order.CustomerID)
	if err != nil {
		log.Printf("⚠️ No customer profile for order %s: %v", order.ID, err)
		return
	}
	if err := s.notifier.OrderStatusChanged(ctx, order, customer); err != nil {
		log.Printf("❌ Status email for order %s failed: %v", order.ID, err)
	}
}
