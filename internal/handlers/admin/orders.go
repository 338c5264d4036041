package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"unimerch_back_end/internal/handlers"
	"unimerch_back_end/internal/handlers/user"
	"unimerch_back_end/internal/middleware"
	"unimerch_back_end/internal/models"
	"unimerch_back_end/internal/orders"
)

type OrderHandler struct {
	orders   *orders.Service
	events   user.Subscriber
	upgrader *websocket.Upgrader
}

func NewOrderHandler(svc *orders.Service, events user.Subscriber, upgrader *websocket.Upgrader) *OrderHandler {
	return &OrderHandler{orders: svc, events: events, upgrader: upgrader}
}

// ListOrders accepts ?status=, ?payment_status=, ?customer_id=, ?limit= and ?offset=.
func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit, offset := handlers.Page(c)
	filter := models.OrderFilter{
		CustomerID:    c.Query("customer_id"),
		Status:        models.OrderStatus(c.Query("status")),
		PaymentStatus: models.PaymentStatus(c.Query("payment_status")),
		Limit:         limit,
		Offset:        offset,
	}
	list, err := h.orders.ListOrders(c.Request.Context(), middleware.Actor(c), filter)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if list == nil {
		list = []models.Order{}
	}
	handlers.RespondOK(c, http.StatusOK, "", gin.H{"orders": list, "total": len(list)})
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "", order)
}

type statusRequest struct {
	Status             models.OrderStatus         `json:"status"`
	CancellationReason *models.CancellationReason `json:"cancellation_reason"`
}

// UpdateStatus moves an order along its lifecycle.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req statusRequest
	if !handlers.BindJSON(c, &req) {
		return
	}
	order, err := h.orders.UpdateStatus(c.Request.Context(), middleware.Actor(c), id, req.Status, req.CancellationReason)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "order status updated", order)
}

func (h *OrderHandler) UpdatePaymentStatus(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		PaymentStatus models.PaymentStatus `json:"payment_status"`
	}
	if !handlers.BindJSON(c, &req) {
		return
	}
	order, err := h.orders.UpdatePaymentStatus(c.Request.Context(), middleware.Actor(c), id, req.PaymentStatus)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "payment status updated", order)
}

// OrderWebSocket lets staff follow any order live.
func (h *OrderHandler) OrderWebSocket(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), middleware.Actor(c), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	user.StreamOrder(c, h.upgrader, h.events, order)
}

// Dashboard returns order counts per status and PAID revenue.
func (h *OrderHandler) Dashboard(c *gin.Context) {
	stats, err := h.orders.Stats(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "", stats)
}

func (h *OrderHandler) ListSurveyCategories(c *gin.Context) {
	list, err := h.orders.SurveyCategories(c.Request.Context(), middleware.Actor(c))
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	if list == nil {
		list = []models.SurveyCategory{}
	}
	handlers.RespondOK(c, http.StatusOK, "", list)
}

func (h *OrderHandler) CreateSurveyCategory(c *gin.Context) {
	var req struct {
		Name      string   `json:"name"`
		Questions []string `json:"questions"`
	}
	if !handlers.BindJSON(c, &req) {
		return
	}
	cat, err := h.orders.CreateSurveyCategory(c.Request.Context(), middleware.Actor(c), req.Name, req.Questions)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusCreated, "survey category created", cat)
}

func (h *OrderHandler) DeleteSurveyCategory(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	if err := h.orders.DeleteSurveyCategory(c.Request.Context(), middleware.Actor(c), id); err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "survey category deleted", nil)
}
