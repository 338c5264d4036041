package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"unimerch_back_end/internal/models"
)

// OrderExchange receives every order event; the routing key is the event type.
const OrderExchange = "unimerch.orders"

type amqpChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// EventPublisher sends order events to RabbitMQ.
type EventPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       amqpChannel
	exchange string
}

// NewEventPublisher dials the broker and declares the topic exchange.
func NewEventPublisher(url string) (*EventPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}
	p, err := newEventPublisher(ch, OrderExchange)
	if err != nil {
		conn.Close()
		return nil, err
	}
	p.conn = conn
	log.Println("✅ Connected to RabbitMQ")
	return p, nil
}

func newEventPublisher(ch amqpChannel, exchange string) (*EventPublisher, error) {
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		ch.Close()
		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}
	return &EventPublisher{ch: ch, exchange: exchange}, nil
}

func (p *EventPublisher) PublishOrderEvent(ctx context.Context, event models.OrderEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, event.Type, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.OrderID.String() + ":" + event.Type + ":" + event.OccurredAt.UTC().Format(time.RFC3339Nano),
		Timestamp:    event.OccurredAt,
		Body:         body,
	})
}

func (p *EventPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ch.Close()
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
