package user

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"unimerch_back_end/internal/handlers"
	"unimerch_back_end/internal/middleware"
	"unimerch_back_end/internal/models"
)

const (
	pingInterval = 30 * time.Second
	writeWait    = 10 * time.Second
)

// Subscriber streams the events of one order.
type Subscriber interface {
	Subscribe(ctx context.Context, orderID uuid.UUID) (<-chan models.OrderEvent, error)
}

// NewUpgrader accepts upgrades from the given browser origins. "*" allows
// any origin. Requests without an Origin header come from non-browser
// clients and are accepted.
func NewUpgrader(origins []string) *websocket.Upgrader {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		allowed[strings.ToLower(strings.TrimRight(strings.TrimSpace(o), "/"))] = true
	}
	return &websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || allowed["*"] {
				return true
			}
			if allowed[strings.ToLower(strings.TrimRight(origin, "/"))] {
				return true
			}
			log.Printf("🚫 WebSocket origin rejected: %s", origin)
			return false
		},
	}
}

// OrderWebSocket pushes status changes of one of the caller's orders.
func (h *OrderHandler) OrderWebSocket(c *gin.Context) {
	id, ok := handlers.ParamUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetCustomerOrder(c.Request.Context(), middleware.UserID(c), id)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}
	StreamOrder(c, h.upgrader, h.events, order)
}

// StreamOrder upgrades the request and relays events until either side
// goes away.
func StreamOrder(c *gin.Context, upgrader *websocket.Upgrader, events Subscriber, order *models.Order) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stream, err := events.Subscribe(ctx, order.ID)
	if err != nil {
		log.Printf("❌ Subscribe to order %s failed: %v", order.ID, err)
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscription failed"))
		return
	}

	// reader: notices client close
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(gin.H{
		"type":           "connected",
		"order_id":       order.ID,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
	}); err != nil {
		return
	}

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-stream:
			if !ok {
				return
			}
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("❌ WebSocket send failed: %v", err)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
