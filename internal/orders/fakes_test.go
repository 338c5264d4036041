package orders

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"unimerch_back_end/internal/apperr"
	"unimerch_back_end/internal/models"
	"unimerch_back_end/internal/permissions"
)

// memStore is an in-memory stand-in for the Postgres store.
type memStore struct {
	mu         sync.Mutex
	orders     map[uuid.UUID]*models.Order
	variants   map[uuid.UUID]*models.ProductVariant
	products   map[uuid.UUID]*models.Product
	customers  map[string]*models.Customer
	surveys    map[uuid.UUID]*models.CustomerSatisfactionSurvey
	categories []*models.SurveyCategory
	writes     int
}

func newMemStore() *memStore {
	return &memStore{
		orders:    map[uuid.UUID]*models.Order{},
		variants:  map[uuid.UUID]*models.ProductVariant{},
		products:  map[uuid.UUID]*models.Product{},
		customers: map[string]*models.Customer{},
		surveys:   map[uuid.UUID]*models.CustomerSatisfactionSurvey{},
	}
}

func cloneOrder(o *models.Order) *models.Order {
	c := *o
	c.Items = append([]models.OrderItem(nil), o.Items...)
	return &c
}

func (m *memStore) GetOrder(_ context.Context, id uuid.UUID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, apperr.NotFound("order")
	}
	return cloneOrder(o), nil
}

func (m *memStore) CreateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range order.Items {
		v := m.variants[item.VariantID]
		if v.Stock < item.Quantity {
			return apperr.Field("stock", "insufficient")
		}
	}
	for _, item := range order.Items {
		m.variants[item.VariantID].Stock -= item.Quantity
	}
	m.orders[order.ID] = cloneOrder(order)
	m.writes++
	return nil
}

func (m *memStore) UpdateOrderStatus(_ context.Context, id uuid.UUID, status models.OrderStatus, reason *models.CancellationReason, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return apperr.NotFound("order")
	}
	o.Status = status
	o.CancellationReason = reason
	o.UpdatedAt = at
	m.writes++
	return nil
}

func (m *memStore) UpdatePaymentStatus(_ context.Context, id uuid.UUID, status models.PaymentStatus, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return apperr.NotFound("order")
	}
	o.PaymentStatus = status
	o.UpdatedAt = at
	m.writes++
	return nil
}

func (m *memStore) UpdateItemNote(_ context.Context, orderID, itemID uuid.UUID, note string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o := m.orders[orderID]
	for i := range o.Items {
		if o.Items[i].ID == itemID {
			o.Items[i].Note = note
			m.writes++
			return nil
		}
	}
	return apperr.NotFound("order item")
}

func (m *memStore) ListOrders(_ context.Context, f models.OrderFilter) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if f.CustomerID != "" && o.CustomerID != f.CustomerID {
			continue
		}
		if f.Status != "" && o.Status != f.Status {
			continue
		}
		out = append(out, *cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memStore) OrderStats(_ context.Context) (*models.OrderStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := &models.OrderStats{ByStatus: map[models.OrderStatus]int{}}
	for _, o := range m.orders {
		stats.TotalOrders++
		stats.ByStatus[o.Status]++
		if o.PaymentStatus == models.PaymentPaid {
			stats.Revenue += o.TotalPrice
		}
	}
	return stats, nil
}

func (m *memStore) SurveyForOrder(_ context.Context, orderID uuid.UUID) (*models.CustomerSatisfactionSurvey, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.surveys[orderID]
	if !ok {
		return nil, apperr.NotFound("survey")
	}
	c := *s
	return &c, nil
}

func (m *memStore) DefaultSurveyCategory(_ context.Context) (*models.SurveyCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if !c.IsDeleted {
			return c, nil
		}
	}
	return nil, apperr.NotFound("survey category")
}

func (m *memStore) GetSurveyCategory(_ context.Context, id uuid.UUID) (*models.SurveyCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, apperr.NotFound("survey category")
}

func (m *memStore) CreateSurvey(_ context.Context, survey *models.CustomerSatisfactionSurvey) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.surveys[survey.OrderID]; ok {
		return fmt.Errorf("survey for order %s: %w", survey.OrderID, apperr.ErrConflict)
	}
	c := *survey
	m.surveys[survey.OrderID] = &c
	return nil
}

func (m *memStore) SubmitSurvey(_ context.Context, surveyID uuid.UUID, ratings []int, comment string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.surveys {
		if s.ID == surveyID {
			s.Ratings = ratings
			s.Comment = comment
			s.SubmittedAt = &at
			return nil
		}
	}
	return apperr.NotFound("survey")
}

func (m *memStore) ListSurveyCategories(_ context.Context) ([]models.SurveyCategory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SurveyCategory
	for _, c := range m.categories {
		if !c.IsDeleted {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (m *memStore) CreateSurveyCategory(_ context.Context, c *models.SurveyCategory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cc := *c
	m.categories = append(m.categories, &cc)
	return nil
}

func (m *memStore) DeleteSurveyCategory(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.ID == id && !c.IsDeleted {
			c.IsDeleted = true
			return nil
		}
	}
	return apperr.NotFound("survey category")
}

func (m *memStore) GetVariantWithProduct(_ context.Context, id uuid.UUID) (*models.ProductVariant, *models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.variants[id]
	if !ok {
		return nil, nil, apperr.NotFound("variant")
	}
	vc := *v
	pc := *m.products[v.ProductID]
	return &vc, &pc, nil
}

func (m *memStore) Profile(_ context.Context, userID string) (*models.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.customers[userID]
	if !ok {
		return nil, apperr.NotFound("customer")
	}
	cc := *c
	return &cc, nil
}

type staffRoles map[string][]string

func (s staffRoles) ActiveStaffRoles(_ context.Context, userID string) ([]string, error) {
	return s[userID], nil
}

type auditTrail struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (a *auditTrail) Record(_ context.Context, e models.AuditLog) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, e)
	return nil
}

type capturedMail struct {
	mu     sync.Mutex
	orders []models.Order
}

func (c *capturedMail) OrderStatusChanged(_ context.Context, order *models.Order, _ *models.Customer) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orders = append(c.orders, *order)
	return nil
}

type capturedEvents struct {
	mu     sync.Mutex
	events []models.OrderEvent
}

func (c *capturedEvents) PublishOrderEvent(_ context.Context, e models.OrderEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

type fixture struct {
	store   *memStore
	audit   *auditTrail
	mail    *capturedMail
	events  *capturedEvents
	svc     *Service
	now     time.Time
	variant uuid.UUID
}

var (
	manager  = permissions.Actor{UserID: "manager-1", IPAddress: "10.0.0.1"}
	analyst  = permissions.Actor{UserID: "analyst-1"}
	stranger = permissions.Actor{UserID: "stranger-1"}
	customer = "student-1"
)

func newFixture() *fixture {
	f := &fixture{
		store:  newMemStore(),
		audit:  &auditTrail{},
		mail:   &capturedMail{},
		events: &capturedEvents{},
		now:    time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC),
	}

	product := &models.Product{ID: uuid.New(), Name: "Hoodie", College: "COCS"}
	variant := &models.ProductVariant{
		ID:          uuid.New(),
		ProductID:   product.ID,
		Name:        "M",
		BasePrice:   500,
		RolePricing: models.RolePricing{models.RoleOthers: 500, models.RoleStudent: 400},
		Stock:       10,
	}
	f.store.products[product.ID] = product
	f.store.variants[variant.ID] = variant
	f.variant = variant.ID
	f.store.customers[customer] = &models.Customer{ID: customer, Email: "student@uni.test", Role: models.RoleStudent, College: "COCS"}
	f.store.customers["outsider-1"] = &models.Customer{ID: "outsider-1", Email: "x@uni.test", Role: models.RoleStudent, College: "COE"}
	f.store.categories = append(f.store.categories, &models.SurveyCategory{
		ID:        uuid.New(),
		Name:      "Default",
		Questions: []string{"Quality?", "Pickup?"},
	})

	gate := permissions.NewGate(staffRoles{
		manager.UserID: {"ORDER_MANAGER"},
		analyst.UserID: {"ANALYST"},
	}, permissions.DefaultCatalog(), f.audit)

	f.svc = NewService(f.store, f.store, f.store, f.store, gate,
		WithNotifier(f.mail),
		WithPublishers(f.events),
		WithClock(func() time.Time { return f.now }),
		WithSyncSideEffects(),
	)
	return f
}

// seedOrder stores an order for customer in the given state.
func (f *fixture) seedOrder(status models.OrderStatus) *models.Order {
	o := &models.Order{
		ID:            uuid.New(),
		CustomerID:    customer,
		Status:        status,
		PaymentStatus: models.PaymentPending,
		Items: []models.OrderItem{{
			ID: uuid.New(), VariantID: f.variant, Quantity: 1, UnitPrice: 400, OriginalPrice: 500, AppliedRole: models.RoleStudent,
		}},
		TotalPrice: 400,
		CreatedAt:  f.now,
		UpdatedAt:  f.now,
	}
	o.Items[0].OrderID = o.ID
	f.store.orders[o.ID] = cloneOrder(o)
	return o
}
