package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"scriptgen/internal/domain"
)

// EventScriptReady is the message type of ScriptReadyMessage.
const EventScriptReady = "script.ready"

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

// RabbitMQ publishes script events to a durable direct exchange.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

// declareTopology declares the exchange and the review queue bound to it.
func declareTopology(ch *amqp.Channel, cfg Config) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

type ScriptReadyMessage struct {
	Event     string             `json:"event"`
	Script    domain.ScriptReady `json:"script"`
	Timestamp time.Time          `json:"timestamp"`
}

func (r *RabbitMQ) Publish(ctx context.Context, ready *domain.ScriptReady) error {
	now := time.Now().UTC()
	msg := ScriptReadyMessage{
		Event:     EventScriptReady,
		Script:    *ready,
		Timestamp: now,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false,
		false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    uuid.NewString(),
			Type:         EventScriptReady,
			Body:         body,
			Timestamp:    now,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	r.logger.Debug("published script ready event",
		"page_id", ready.PageID,
		"blocks", ready.BlockCount,
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	var errs []error
	if r.channel != nil && !r.channel.IsClosed() {
		errs = append(errs, r.channel.Close())
	}
	if r.conn != nil && !r.conn.IsClosed() {
		errs = append(errs, r.conn.Close())
	}
	return errors.Join(errs...)
}
