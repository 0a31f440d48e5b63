package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures = 5
	openTimeout = 30 * time.Second
	maxBackoff  = 30 * time.Second
)

// Client publishes and consumes record sync messages over RabbitMQ. A small
// circuit breaker keeps a dead broker from slowing down the write path: after
// maxFailures consecutive failures publishes fail fast until openTimeout has
// passed.
type Client struct {
	url          string
	exchangeName string
	queueName    string

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	failureCount     int64
	state            int32
	lastFailureNanos int64
}

func NewClient(url, exchangeName, queueName string) (*Client, error) {
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
	}

	if err := client.connect(); err != nil {
		return nil, err
	}

	return client, nil
}

func (c *Client) connect() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := setupTopology(channel, c.exchangeName, c.queueName); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.mu.Lock()
	c.conn = conn
	c.channel = channel
	c.mu.Unlock()

	return nil
}

func setupTopology(channel *amqp091.Channel, exchangeName, queueName string) error {
	err := channel.ExchangeDeclare(
		exchangeName,
		"direct",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key equals the queue name on a direct exchange.
	if err := channel.QueueBind(queueName, queueName, exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}

	return nil
}

// PublishRecordSync enqueues an upsert for the given record id.
func (c *Client) PublishRecordSync(ctx context.Context, id string) error {
	return c.publish(ctx, NewRecordSyncMessage(id))
}

// PublishRecordDelete enqueues a removal for the given record id.
func (c *Client) PublishRecordDelete(ctx context.Context, id string) error {
	return c.publish(ctx, NewRecordDeleteMessage(id))
}

func (c *Client) publish(ctx context.Context, msg *RecordSyncMessage) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if c.isCircuitOpen() {
		return fmt.Errorf("publish %s for record %s: circuit breaker is open", msg.Action, msg.ID)
	}

	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		c.recordFailure()
		return fmt.Errorf("publish message: no channel")
	}

	err = channel.PublishWithContext(
		ctx,
		c.exchangeName,
		c.queueName, // routing key
		false,       // mandatory
		false,       // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("publish message: %w", err)
	}

	c.recordSuccess()
	slog.InfoContext(ctx, "Published record sync message",
		"id", msg.ID,
		"action", msg.Action,
		"exchange", c.exchangeName,
		"queue", c.queueName)

	return nil
}

// ConsumeRecordSync delivers queue messages to the handler. Handler errors
// that look like connection problems requeue the message with backoff; other
// errors drop it.
func (c *Client) ConsumeRecordSync(ctx context.Context, handler func(*RecordSyncMessage) error) error {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		return fmt.Errorf("start consuming: no channel")
	}

	msgs, err := channel.Consume(
		c.queueName,
		"",    // consumer tag
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming record sync messages", "queue", c.queueName)

	attempt := 0
	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			msg, err := RecordSyncMessageFromJSON(delivery.Body)
			if err != nil {
				slog.ErrorContext(ctx, "Failed to unmarshal message", "error", err)
				delivery.Nack(false, false)
				continue
			}

			if err := handler(msg); err != nil {
				slog.ErrorContext(ctx, "Failed to handle message",
					"error", err,
					"id", msg.ID,
					"action", msg.Action)
				if isConnectionError(err) {
					attempt++
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-time.After(exponentialBackoff(attempt)):
					}
					delivery.Nack(false, true)
				} else {
					delivery.Nack(false, false)
				}
				continue
			}

			attempt = 0
			delivery.Ack(false)
			slog.InfoContext(ctx, "Processed record sync message",
				"id", msg.ID,
				"action", msg.Action)
		}
	}
}

func (c *Client) isCircuitOpen() bool {
	state := atomic.LoadInt32(&c.state)
	if state != StateOpen {
		return false
	}
	last := time.Unix(0, atomic.LoadInt64(&c.lastFailureNanos))
	if time.Since(last) > openTimeout {
		atomic.StoreInt32(&c.state, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	atomic.StoreInt64(&c.lastFailureNanos, time.Now().UnixNano())
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

func exponentialBackoff(attempt int) time.Duration {
	d := time.Second << uint(attempt)
	if d > maxBackoff || d <= 0 {
		return maxBackoff
	}
	return d
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	for _, s := range []string{
		"connection refused",
		"connection closed",
		"EOF",
		"broken pipe",
		"use of closed network connection",
	} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
