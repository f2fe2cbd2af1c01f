// Package rabbitmq publishes and consumes account lifecycle events.
package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/samber/oops"
	amqp "github.com/streadway/amqp"
)

const (
	// AccountExchange is the topic exchange lifecycle events are published to.
	AccountExchange = "account_events"
	// AccountQueue is the durable queue bound to every account routing key.
	AccountQueue = "account_queue"

	accountBinding = "account.#"
)

// Account event types, also used as routing keys.
const (
	EventAccountCreated = "account.created"
	EventAccountUpdated = "account.updated"
	EventAccountDeleted = "account.deleted"
)

var errNoChannel = errors.New("rabbitmq channel is not available")

// AccountEvent is the message body of an account lifecycle event.
type AccountEvent struct {
	Type       string    `json:"type"`
	AccountID  string    `json:"accountId"`
	Username   string    `json:"username,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// NewAccountEvent stamps an event of the given type with the current time.
func NewAccountEvent(eventType, accountID, username string) AccountEvent {
	return AccountEvent{
		Type:       eventType,
		AccountID:  accountID,
		Username:   username,
		OccurredAt: time.Now().UTC(),
	}
}

// DecodeAccountEvent parses a message body produced by PublishAccountEvent.
func DecodeAccountEvent(body []byte) (AccountEvent, error) {
	var ev AccountEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return AccountEvent{}, oops.Code("EVENT_DECODE_FAILED").Wrap(err)
	}
	if ev.Type == "" || ev.AccountID == "" {
		return AccountEvent{}, oops.Code("EVENT_DECODE_FAILED").Errorf("event is missing type or account id")
	}
	return ev, nil
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *slog.Logger
	// amqp channels are not safe for concurrent publishing.
	mu sync.Mutex
}

// NewClient connects to RabbitMQ and declares the account exchange and queue.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, oops.Code("AMQP_DIAL_FAILED").Wrapf(err, "connect to RabbitMQ")
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, oops.Code("AMQP_CHANNEL_FAILED").Wrapf(err, "open channel")
	}

	if err := declareTopology(ch); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	logger.Info("rabbitmq connected", "exchange", AccountExchange, "queue", AccountQueue)
	return &Client{conn: conn, channel: ch, logger: logger}, nil
}

func declareTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(
		AccountExchange, // name
		"topic",         // kind
		true,            // durable
		false,           // auto-deleted
		false,           // internal
		false,           // no-wait
		nil,
	); err != nil {
		return oops.Code("AMQP_DECLARE_FAILED").With("exchange", AccountExchange).Wrap(err)
	}
	if _, err := ch.QueueDeclare(
		AccountQueue, // name
		true,         // durable
		false,        // delete when unused
		false,        // exclusive
		false,        // no-wait
		nil,
	); err != nil {
		return oops.Code("AMQP_DECLARE_FAILED").With("queue", AccountQueue).Wrap(err)
	}
	if err := ch.QueueBind(AccountQueue, accountBinding, AccountExchange, false, nil); err != nil {
		return oops.Code("AMQP_BIND_FAILED").With("queue", AccountQueue).Wrap(err)
	}
	return nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, oops.Wrapf(err, "close channel"))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, oops.Wrapf(err, "close connection"))
		}
	}
	return errors.Join(errs...)
}

// Publish sends a persistent JSON message.
func (c *Client) Publish(exchange, routingKey string, body []byte) error {
	if c.channel == nil {
		return errNoChannel
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.channel.Publish(
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return oops.Code("AMQP_PUBLISH_FAILED").With("routing_key", routingKey).Wrap(err)
	}
	return nil
}

// PublishAccountEvent publishes ev on the account exchange, routed by its type.
func (c *Client) PublishAccountEvent(_ context.Context, ev AccountEvent) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return oops.Code("EVENT_ENCODE_FAILED").Wrap(err)
	}
	if err := c.Publish(AccountExchange, ev.Type, body); err != nil {
		return err
	}
	c.logger.Debug("account event published", "type", ev.Type, "account_id", ev.AccountID)
	return nil
}

// ConsumeAccountEvents delivers messages from the account queue to handler
// until ctx is done or the channel closes. Messages are acked when handler
// returns nil. Undecodable messages are dropped; handler failures are requeued.
func (c *Client) ConsumeAccountEvents(ctx context.Context, handler func(AccountEvent) error) error {
	if c.channel == nil {
		return errNoChannel
	}

	msgs, err := c.channel.Consume(
		AccountQueue,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return oops.Code("AMQP_CONSUME_FAILED").With("queue", AccountQueue).Wrap(err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				return oops.Code("AMQP_CHANNEL_CLOSED").Errorf("delivery channel closed")
			}
			c.handle(msg, handler)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *Client) handle(msg amqp.Delivery, handler func(AccountEvent) error) {
	settle(c.logger, msg.DeliveryTag, msg.Body, &msg, handler)
}

func settle(logger *slog.Logger, tag uint64, body []byte, ack acknowledger, handler func(AccountEvent) error) {
	ev, err := DecodeAccountEvent(body)
	if err != nil {
		logger.Warn("dropping malformed account event", "delivery_tag", tag, "error", err)
		if nackErr := ack.Nack(false, false); nackErr != nil {
			logger.Error("nack failed", "delivery_tag", tag, "error", nackErr)
		}
		return
	}
	if err := handler(ev); err != nil {
		logger.Error("account event handler failed", "delivery_tag", tag, "type", ev.Type, "error", err)
		if nackErr := ack.Nack(false, true); nackErr != nil {
			logger.Error("nack failed", "delivery_tag", tag, "error", nackErr)
		}
		return
	}
	if ackErr := ack.Ack(false); ackErr != nil {
		logger.Error("ack failed", "delivery_tag", tag, "error", ackErr)
	}
}
