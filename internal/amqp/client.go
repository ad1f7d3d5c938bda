// Package amqp connects the API server to the background worker over
// RabbitMQ. One durable direct exchange carries two queues: bank syncs
// and spreadsheet exports, each bound with its queue name as routing
// key.
package amqp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rabbitmq/amqp091-go"
)

type Client struct {
	conn             *amqp091.Connection
	channel          *amqp091.Channel
	exchangeName     string
	bankSyncQueue    string
	sheetExportQueue string
}

func NewClient(url, exchangeName, bankSyncQueue, sheetExportQueue string) (*Client, error) {
	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	client := &Client{
		conn:             conn,
		channel:          channel,
		exchangeName:     exchangeName,
		bankSyncQueue:    bankSyncQueue,
		sheetExportQueue: sheetExportQueue,
	}

	if err := client.setup(); err != nil {
		client.Close()
		return nil, fmt.Errorf("setup exchange and queues: %w", err)
	}

	return client, nil
}

func (c *Client) setup() error {
	err := c.channel.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	for _, queue := range []string{c.bankSyncQueue, c.sheetExportQueue} {
		_, err = c.channel.QueueDeclare(
			queue, // name
			true,  // durable
			false, // delete when unused
			false, // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return fmt.Errorf("declare queue %s: %w", queue, err)
		}

		err = c.channel.QueueBind(
			queue,          // queue name
			queue,          // routing key (same as queue name for direct exchange)
			c.exchangeName, // exchange
			false,
			nil,
		)
		if err != nil {
			return fmt.Errorf("bind queue %s: %w", queue, err)
		}
	}

	return nil
}

func (c *Client) publish(ctx context.Context, routingKey string, body []byte) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := c.channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		routingKey,     // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}
	return nil
}

// PublishBankSync enqueues a bank sync for the user.
func (c *Client) PublishBankSync(ctx context.Context, userID string) error {
	body, err := NewBankSyncMessage(userID).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.bankSyncQueue, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published bank sync message",
		"user_id", userID,
		"exchange", c.exchangeName,
		"queue", c.bankSyncQueue)
	return nil
}

// PublishSheetExport enqueues a spreadsheet export of the user's
// transactions in [from, to].
func (c *Client) PublishSheetExport(ctx context.Context, userID, from, to string) error {
	body, err := NewSheetExportMessage(userID, from, to).ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}
	if err := c.publish(ctx, c.sheetExportQueue, body); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Published sheet export message",
		"user_id", userID,
		"from", from,
		"to", to,
		"queue", c.sheetExportQueue)
	return nil
}

// consume runs handler for every delivery on the queue until ctx ends.
// Failed handlers nack with requeue; undecodable payloads are dropped.
func (c *Client) consume(ctx context.Context, queue string, handler func([]byte) error) error {
	msgs, err := c.channel.Consume(
		queue, // queue
		"",    // consumer
		false, // auto-ack (we want manual ack)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	slog.InfoContext(ctx, "Started consuming", "queue", queue)

	for {
		select {
		case <-ctx.Done():
			slog.InfoContext(ctx, "Stopping message consumption", "queue", queue, "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			if err := handler(delivery.Body); err != nil {
				if _, ok := err.(*decodeError); ok {
					slog.ErrorContext(ctx, "Failed to unmarshal message", "queue", queue, "error", err)
					delivery.Nack(false, false) // reject and don't requeue
					continue
				}
				slog.ErrorContext(ctx, "Failed to handle message", "queue", queue, "error", err)
				delivery.Nack(false, true) // reject and requeue
				continue
			}

			delivery.Ack(false)
		}
	}
}

type decodeError struct{ err error }

func (e *decodeError) Error() string { return e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// ConsumeBankSync dispatches bank sync messages to handler.
func (c *Client) ConsumeBankSync(ctx context.Context, handler func(*BankSyncMessage) error) error {
	return c.consume(ctx, c.bankSyncQueue, func(body []byte) error {
		msg, err := BankSyncMessageFromJSON(body)
		if err != nil {
			return &decodeError{err}
		}
		return handler(msg)
	})
}

// ConsumeSheetExport dispatches sheet export messages to handler.
func (c *Client) ConsumeSheetExport(ctx context.Context, handler func(*SheetExportMessage) error) error {
	return c.consume(ctx, c.sheetExportQueue, func(body []byte) error {
		msg, err := SheetExportMessageFromJSON(body)
		if err != nil {
			return &decodeError{err}
		}
		return handler(msg)
	})
}

func (c *Client) Close() error {
	if c.channel != nil {
		c.channel.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}
