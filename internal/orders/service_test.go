package orders

import (
	"context"
	"math"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/models"
)

func reason(r models.CancellationReason) *models.CancellationReason { return &r }

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to models.OrderStatus
		want     bool
	}{
		{models.OrderPending, models.OrderProcessing, true},
		{models.OrderPending, models.OrderDelivered, false},
		{models.OrderProcessing, models.OrderReady, true},
		{models.OrderReady, models.OrderDelivered, true},
		{models.OrderReady, models.OrderCancelled, true},
		{models.OrderDelivered, models.OrderCancelled, false},
		{models.OrderCancelled, models.OrderPending, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CanTransition(tt.from, tt.to), "%s → %s", tt.from, tt.to)
	}
	assert.Empty(t, NextStatuses(models.OrderDelivered))
	assert.True(t, CanTransitionPayment(models.PaymentPaid, models.PaymentRefunded))
	assert.False(t, CanTransitionPayment(models.PaymentRefunded, models.PaymentPaid))
}

func TestUpdateStatusCancelWithReason(t *testing.T) {
	f := newFixture()
	order := f.seedOrder(models.OrderProcessing)

	updated, err := f.svc.UpdateStatus(context.Background(), manager, order.ID, models.OrderCancelled, reason(models.CancelCustomerRequest))
	require.NoError(t, err)
	assert.Equal(t, models.OrderCancelled, updated.Status)

	stored := f.store.orders[order.ID]
	assert.Equal(t, models.OrderCancelled, stored.Status)
	require.NotNil(t, stored.CancellationReason)
	assert.Equal(t, models.CancelCustomerRequest, *stored.CancellationReason)

	require.Len(t, f.mail.orders, 1)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, models.EventOrderStatusChanged, f.events.events[0].Type)
	assert.Equal(t, string(models.OrderProcessing), f.events.events[0].Previous)
}

func TestUpdateStatusReasonRules(t *testing.T) {
	f := newFixture()
	order := f.seedOrder(models.OrderProcessing)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, manager, order.ID, models.OrderCancelled, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.UpdateStatus(ctx, manager, order.ID, models.OrderCancelled, reason("BORED"))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.UpdateStatus(ctx, manager, order.ID, models.OrderReady, reason(models.CancelOthers))
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	assert.Equal(t, 0, f.store.writes)
}

func TestUpdateStatusRejectsSkippingStates(t *testing.T) {
	f := newFixture()
	order := f.seedOrder(models.OrderPending)

	_, err := f.svc.UpdateStatus(context.Background(), manager, order.ID, models.OrderDelivered, nil)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	assert.Equal(t, models.OrderPending, f.store.orders[order.ID].Status)
	assert.Empty(t, f.store.surveys)
}

func TestUpdateStatusUnauthorizedChangesNothing(t *testing.T) {
	f := newFixture()
	order := f.seedOrder(models.OrderProcessing)

	_, err := f.svc.UpdateStatus(context.Background(), analyst, order.ID, models.OrderReady, nil)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	assert.Equal(t, 0, f.store.writes)
	assert.Equal(t, models.OrderProcessing, f.store.orders[order.ID].Status)
	assert.Empty(t, f.mail.orders)

	require.Len(t, f.audit.entries, 1)
	assert.False(t, f.audit.entries[0].Success)
	assert.Equal(t, models.ActionOrderStatusUpdate, f.audit.entries[0].Action)
}

func TestUpdateStatusNotFoundVersusUnauthorized(t *testing.T) {
	f := newFixture()
	missing := uuid.New()

	_, err := f.svc.UpdateStatus(context.Background(), manager, missing, models.OrderReady, nil)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.UpdateStatus(context.Background(), analyst, missing, models.OrderReady, nil)
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
}

func TestDeliveredTwiceCreatesOneSurvey(t *testing.T) {
	f := newFixture()
	order := f.seedOrder(models.OrderReady)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, manager, order.ID, models.OrderDelivered, nil)
	require.NoError(t, err)
	first := f.store.surveys[order.ID]
	require.NotNil(t, first)

	_, err = f.svc.UpdateStatus(ctx, manager, order.ID, models.OrderDelivered, nil)
	require.NoError(t, err)

	assert.Len(t, f.store.surveys, 1)
	assert.Equal(t, first.ID, f.store.surveys[order.ID].ID)
	assert.Len(t, f.mail.orders, 1, "the no-op resubmission sends nothing")
}

func TestDeliveredWithoutSurveyCategoryStillSucceeds(t *testing.T) {
	f := newFixture()
	f.store.categories[0].IsDeleted = true
	order := f.seedOrder(models.OrderReady)

	updated, err := f.svc.UpdateStatus(context.Background(), manager, order.ID, models.OrderDelivered, nil)
	require.NoError(t, err)
	assert.Equal(t, models.OrderDelivered, updated.Status)
	assert.Empty(t, f.store.surveys)
}

func TestPaymentStatus(t *testing.T) {
	f := newFixture()
	order := f.seedOrder(models.OrderDelivered)
	ctx := context.Background()

	_, err := f.svc.UpdatePaymentStatus(ctx, manager, order.ID, models.PaymentRefunded)
	assert.True(t, apperr.Is(err, apperr.KindValidation), "PENDING cannot be refunded")

	_, err = f.svc.RecordPayment(ctx, order.ID, models.PaymentPaid)
	require.NoError(t, err)

	updated, err := f.svc.UpdatePaymentStatus(ctx, manager, order.ID, models.PaymentRefunded)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentRefunded, updated.PaymentStatus)
	assert.Equal(t, models.OrderDelivered, updated.Status)

	_, err = f.svc.UpdatePaymentStatus(ctx, analyst, order.ID, models.PaymentPaid)
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	assert.Empty(t, f.mail.orders, "payment changes do not email")
	require.Len(t, f.events.events, 2)
	assert.Equal(t, models.EventPaymentStatusChanged, f.events.events[1].Type)
}

func TestCheckoutResolvesPrices(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	order, err := f.svc.Checkout(ctx, customer, []CheckoutLine{
		{VariantID: f.variant, Quantity: 1},
		{VariantID: f.variant, Quantity: 2},
	})
	require.NoError(t, err)
	require.Len(t, order.Items, 1, "repeated variants are merged")
	item := order.Items[0]
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, 400.0, item.UnitPrice)
	assert.Equal(t, 500.0, item.OriginalPrice)
	assert.Equal(t, models.RoleStudent, item.AppliedRole)
	assert.Equal(t, 1200.0, order.TotalPrice)
	assert.Equal(t, models.OrderPending, order.Status)
	assert.Equal(t, models.PaymentPending, order.PaymentStatus)
	assert.Equal(t, 7, f.store.variants[f.variant].Stock)

	other, err := f.svc.Checkout(ctx, "outsider-1", []CheckoutLine{{VariantID: f.variant, Quantity: 1}})
	require.NoError(t, err)
	assert.Equal(t, 500.0, other.Items[0].UnitPrice)
	assert.Equal(t, models.RoleOthers, other.Items[0].AppliedRole)
}

func TestCheckoutValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.Checkout(ctx, "", []CheckoutLine{{VariantID: f.variant, Quantity: 1}})
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	_, err = f.svc.Checkout(ctx, customer, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.Checkout(ctx, customer, []CheckoutLine{{VariantID: f.variant, Quantity: 0}})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.Checkout(ctx, customer, []CheckoutLine{{VariantID: f.variant, Quantity: 11}})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "more than in stock")

	_, err = f.svc.Checkout(ctx, customer, []CheckoutLine{{VariantID: f.variant, Quantity: math.MaxInt}, {VariantID: f.variant, Quantity: math.MaxInt}})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "oversized lines")

	_, err = f.svc.Checkout(ctx, customer, []CheckoutLine{{VariantID: f.variant, Quantity: MaxLineQuantity}, {VariantID: f.variant, Quantity: 1}})
	assert.True(t, apperr.Is(err, apperr.KindValidation), "merged lines over the cap")

	_, err = f.svc.Checkout(ctx, customer, []CheckoutLine{{VariantID: uuid.New(), Quantity: 1}})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	f.store.variants[f.variant].IsDeleted = true
	_, err = f.svc.Checkout(ctx, customer, []CheckoutLine{{VariantID: f.variant, Quantity: 1}})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	assert.Empty(t, f.store.orders)
}

func TestCustomerScopedReads(t *testing.T) {
	f := newFixture()
	order := f.seedOrder(models.OrderPending)
	ctx := context.Background()

	got, err := f.svc.GetCustomerOrder(ctx, customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)

	_, err = f.svc.GetCustomerOrder(ctx, "outsider-1", order.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	list, err := f.svc.ListCustomerOrders(ctx, customer, 0, 0)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	item, err := f.svc.UpdateItemNote(ctx, customer, order.ID, order.Items[0].ID, "  size M please ")
	require.NoError(t, err)
	assert.Equal(t, "size M please", item.Note)
	assert.Equal(t, 400.0, item.UnitPrice)

	_, err = f.svc.UpdateItemNote(ctx, "outsider-1", order.ID, order.Items[0].ID, "mine")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestAdminReads(t *testing.T) {
	f := newFixture()
	f.seedOrder(models.OrderPending)
	paid := f.seedOrder(models.OrderDelivered)
	f.store.orders[paid.ID].PaymentStatus = models.PaymentPaid
	ctx := context.Background()

	list, err := f.svc.ListOrders(ctx, analyst, models.OrderFilter{Status: models.OrderPending})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = f.svc.ListOrders(ctx, analyst, models.OrderFilter{Status: "LOST"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	stats, err := f.svc.Stats(ctx, manager)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalOrders)
	assert.Equal(t, 400.0, stats.Revenue)

	_, err = f.svc.Stats(ctx, stranger)
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))
}

func TestSurveyAnswers(t *testing.T) {
	f := newFixture()
	order := f.seedOrder(models.OrderReady)
	ctx := context.Background()

	_, err := f.svc.UpdateStatus(ctx, manager, order.ID, models.OrderDelivered, nil)
	require.NoError(t, err)

	survey, err := f.svc.Survey(ctx, customer, order.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Quality?", "Pickup?"}, survey.Questions)

	_, err = f.svc.SubmitSurvey(ctx, customer, order.ID, []int{5}, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.SubmitSurvey(ctx, customer, order.ID, []int{5, 6}, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	answered, err := f.svc.SubmitSurvey(ctx, customer, order.ID, []int{5, 4}, "great")
	require.NoError(t, err)
	require.NotNil(t, answered.SubmittedAt)

	_, err = f.svc.SubmitSurvey(ctx, customer, order.ID, []int{1, 1}, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation), "answered once")

	_, err = f.svc.Survey(ctx, "outsider-1", order.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestSurveyCategories(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.svc.CreateSurveyCategory(ctx, analyst, "Pickup", []string{"a", "b", "c", "d", "e"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.svc.CreateSurveyCategory(ctx, manager, "Pickup", []string{"a"})
	assert.True(t, apperr.Is(err, apperr.KindAuthorization))

	created, err := f.svc.CreateSurveyCategory(ctx, analyst, " Pickup ", []string{"How fast?"})
	require.NoError(t, err)
	assert.Equal(t, "Pickup", created.Name)

	require.NoError(t, f.svc.DeleteSurveyCategory(ctx, analyst, created.ID))
	list, err := f.svc.SurveyCategories(ctx, analyst)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestMergeLines(t *testing.T) {
	v := uuid.New()

	merged, err := mergeLines([]CheckoutLine{{VariantID: v, Quantity: 2}, {VariantID: v, Quantity: 3}})
	require.NoError(t, err)
	require.Len(t, merged, 1)
	assert.Equal(t, 5, merged[0].Quantity)

	_, err = mergeLines([]CheckoutLine{{VariantID: v, Quantity: math.MaxInt}, {VariantID: v, Quantity: math.MaxInt}})
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}
