package orders

import "unimerch_back_end/internal/models"

// statusTransitions lists the allowed moves of an order. DELIVERED and
// CANCELLED have no outgoing edges.
var statusTransitions = map[models.OrderStatus][]models.OrderStatus{
	models.OrderPending:    {models.OrderProcessing, models.OrderCancelled},
	models.OrderProcessing: {models.OrderReady, models.OrderCancelled},
	models.OrderReady:      {models.OrderDelivered, models.OrderCancelled},
}

// paymentTransitions lists the allowed moves of a payment status.
var paymentTransitions = map[models.PaymentStatus][]models.PaymentStatus{
	models.PaymentPending:     {models.PaymentDownpayment, models.PaymentPaid},
	models.PaymentDownpayment: {models.PaymentPaid, models.PaymentRefunded},
	models.PaymentPaid:        {models.PaymentRefunded},
}

// CanTransition reports whether an order may move from one status to another.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range statusTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from status.
func NextStatuses(status models.OrderStatus) []models.OrderStatus {
	return append([]models.OrderStatus(nil), statusTransitions[status]...)
}

// CanTransitionPayment reports whether a payment status may move from one
// value to another.
func CanTransitionPayment(from, to models.PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
