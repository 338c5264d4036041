package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderReady      OrderStatus = "READY"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderProcessing, OrderReady, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further status change is allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

type PaymentStatus string

const (
	PaymentPending     PaymentStatus = "PENDING"
	PaymentDownpayment PaymentStatus = "DOWNPAYMENT"
	PaymentPaid        PaymentStatus = "PAID"
	PaymentRefunded    PaymentStatus = "REFUNDED"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentDownpayment, PaymentPaid, PaymentRefunded:
		return true
	}
	return false
}

type CancellationReason string

const (
	CancelOutOfStock      CancellationReason = "OUT_OF_STOCK"
	CancelCustomerRequest CancellationReason = "CUSTOMER_REQUEST"
	CancelPaymentFailed   CancellationReason = "PAYMENT_FAILED"
	CancelOthers          CancellationReason = "OTHERS"
)

func (r CancellationReason) Valid() bool {
	switch r {
	case CancelOutOfStock, CancelCustomerRequest, CancelPaymentFailed, CancelOthers:
		return true
	}
	return false
}

type Order struct {
	ID                 uuid.UUID           `json:"id" db:"order_id"`
	CustomerID         string              `json:"customer_id" db:"customer_id"`
	Status             OrderStatus         `json:"status" db:"status"`
	PaymentStatus      PaymentStatus       `json:"payment_status" db:"payment_status"`
	CancellationReason *CancellationReason `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	Items              []OrderItem         `json:"items"`
	TotalPrice         float64             `json:"total_price" db:"total_price"`
	CreatedAt          time.Time           `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at" db:"updated_at"`
}

// OrderItem keeps the price resolved at checkout. Only Note changes later.
type OrderItem struct {
	ID            uuid.UUID    `json:"id" db:"item_id"`
	OrderID       uuid.UUID    `json:"order_id" db:"order_id"`
	VariantID     uuid.UUID    `json:"variant_id" db:"variant_id"`
	ProductName   string       `json:"product_name,omitempty" db:"product_name"`
	Quantity      int          `json:"quantity" db:"quantity"`
	UnitPrice     float64      `json:"unit_price" db:"unit_price"`
	OriginalPrice float64      `json:"original_price" db:"original_price"`
	AppliedRole   CustomerRole `json:"applied_role" db:"applied_role"`
	Note          string       `json:"note,omitempty" db:"note"`
}

func (i OrderItem) Subtotal() float64 {
	return float64(i.Quantity) * i.UnitPrice
}

// OrderFilter narrows order listings. Zero values mean "any".
type OrderFilter struct {
	CustomerID    string
	Status        OrderStatus
	PaymentStatus PaymentStatus
	Limit         int
	Offset        int
}

// OrderStats backs the admin dashboard.
type OrderStats struct {
	TotalOrders int                 `json:"total_orders"`
	ByStatus    map[OrderStatus]int `json:"by_status"`
	Revenue     float64             `json:"revenue"`
}

// OrderEvent is published after an order status or payment status changes.
type OrderEvent struct {
	Type          string        `json:"type"`
	OrderID       uuid.UUID     `json:"order_id"`
	CustomerID    string        `json:"customer_id"`
	Status        OrderStatus   `json:"status"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Previous      string        `json:"previous,omitempty"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

const (
	EventOrderCreated         = "order.created"
	EventOrderStatusChanged   = "order.status_changed"
	EventPaymentStatusChanged = "order.payment_status_changed"
)
