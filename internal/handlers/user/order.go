package user

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"unimerch_back_end/internal/handlers"
	"unimerch_back_end/internal/middleware"
	"unimerch_back_end/internal/models"
	"unimerch_back_end/internal/orders"
)

type OrderHandler struct {
	orders   *orders.Service
	events   Subscriber
	upgrader *websocket.Upgrader
}

func NewOrderHandler(svc *orders.Service, events Subscriber, upgrader *websocket.Upgrader) *OrderHandler {
	return &OrderHandler{orders: svc, events: events, upgrader: upgrader}
}

// Checkout places an order for the caller.
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req struct {
		Items []orders.CheckoutLine `json:"items"`
	}
	if !handlers.BindJSON(c, &req) {
		return
	}
	order, err := h.orders.Checkout(c.Request.Context(), middleware.UserID(c), req.Items)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusCreated, "order placed", order)
}

func (h *OrderHandler) ListOrders(c *gin.Context) {
	limit, offset := handlers.Page(c)
	list, err := h.orders.ListCustomerOrders(c.Request.Context(), middleware.UserID(c), limit, offset)
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
	order, err := h.orders.GetCustomerOrder(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "", order)
}

// UpdateItemNote changes the note of one item of the caller's order.
func (h *OrderHandler) UpdateItemNote(c *gin.Context) {
	orderID, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := handlers.ParamUUID(c, "itemId")
	if !ok {
		return
	}
	var req struct {
		Note string `json:"note"`
	}
	if !handlers.BindJSON(c, &req) {
		return
	}
	item, err := h.orders.UpdateItemNote(c.Request.Context(), middleware.UserID(c), orderID, itemID, req.Note)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "note saved", item)
}

func (h *OrderHandler) GetSurvey(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	survey, err := h.orders.Survey(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "", survey)
}

func (h *OrderHandler) SubmitSurvey(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Ratings []int  `json:"ratings"`
		Comment string `json:"comment"`
	}
	if !handlers.BindJSON(c, &req) {
		return
	}
	survey, err := h.orders.SubmitSurvey(c.Request.Context(), middleware.UserID(c), id, req.Ratings, req.Comment)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	handlers.RespondOK(c, http.StatusOK, "thanks for your feedback", survey)
}
