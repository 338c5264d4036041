package user

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unimerch_back_end/internal/cache"
	"unimerch_back_end/internal/models"
)

const shopOrigin = "http://shop.test"

type failingSubscriber struct{}

func (failingSubscriber) Subscribe(context.Context, uuid.UUID) (<-chan models.OrderEvent, error) {
	return nil, errors.New("redis down")
}

func streamServer(t *testing.T, events Subscriber, order *models.Order) string {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	upgrader := NewUpgrader([]string{shopOrigin})
	r.GET("/ws", func(c *gin.Context) { StreamOrder(c, upgrader, events, order) })
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
}

func dial(url, origin string) (*websocket.Conn, *http.Response, error) {
	header := http.Header{}
	if origin != "" {
		header.Set("Origin", origin)
	}
	return websocket.DefaultDialer.Dial(url, header)
}

func TestStreamOrderRelaysEvents(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	b := cache.NewStatusBroadcaster(rdb)

	order := &models.Order{ID: uuid.New(), Status: models.OrderPending, PaymentStatus: models.PaymentPending}
	conn, _, err := dial(streamServer(t, b, order), shopOrigin)
	require.NoError(t, err)

	var hello map[string]any
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "connected", hello["type"])
	assert.Equal(t, order.ID.String(), hello["order_id"])

	require.NoError(t, b.PublishOrderEvent(context.Background(), models.OrderEvent{
		Type:    models.EventOrderStatusChanged,
		OrderID: order.ID,
		Status:  models.OrderProcessing,
	}))
	var event models.OrderEvent
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, models.OrderProcessing, event.Status)

	channel := "order:" + order.ID.String()
	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool {
		return mr.PubSubNumSub(channel)[channel] == 0
	}, 2*time.Second, 20*time.Millisecond, "subscription released after client left")
}

func TestStreamOrderOrigins(t *testing.T) {
	url := streamServer(t, failingSubscriber{}, &models.Order{ID: uuid.New()})

	_, resp, err := dial(url, "http://evil.test")
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	up := NewUpgrader([]string{"*"})
	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	req.Header.Set("Origin", "http://anything.test")
	assert.True(t, up.CheckOrigin(req))

	up = NewUpgrader([]string{"HTTP://Shop.test/"})
	assert.False(t, up.CheckOrigin(req))
	req.Header.Set("Origin", shopOrigin)
	assert.True(t, up.CheckOrigin(req))
	req.Header.Del("Origin")
	assert.True(t, up.CheckOrigin(req), "non-browser clients send no origin")
}

func TestStreamOrderSubscriptionFailure(t *testing.T) {
	conn, _, err := dial(streamServer(t, failingSubscriber{}, &models.Order{ID: uuid.New()}), shopOrigin)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	var closeErr *websocket.CloseError
	require.ErrorAs(t, err, &closeErr)
	assert.Equal(t, websocket.CloseInternalServerErr, closeErr.Code)
}
