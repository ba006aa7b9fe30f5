// Package events publishes inventory events to RabbitMQ. Publishing is
// optional: the API runs fine without a broker, in which case no client is
// constructed at all.
package events

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/streadway/amqp"
)

const stockQueue = "stock_events"

// Config holds RabbitMQ connection details.
type Config struct {
	URL string
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

// StockChangedEvent is the wire format for a stock adjustment.
type StockChangedEvent struct {
	ProductID string    `json:"productId"`
	Delta     int       `json:"delta"`
	Stock     int       `json:"stock"`
	At        time.Time `json:"at"`
}

// NewClient connects to RabbitMQ and declares the durable stock queue.
func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		stockQueue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare %s queue: %w", stockQueue, err)
	}

	log.Printf("RabbitMQ client connected, %s queue declared", stockQueue)
	return &Client{conn: conn, channel: ch}, nil
}

// Close closes the RabbitMQ channel and connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors closing RabbitMQ client: %v", errs)
	}
	return nil
}

// PublishStockChanged publishes a stock adjustment to the stock queue as a
// persistent JSON message.
func (c *Client) PublishStockChanged(productID string, delta, stock int) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	body, err := json.Marshal(StockChangedEvent{
		ProductID: productID,
		Delta:     delta,
		Stock:     stock,
		At:        time.Now(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal stock event: %w", err)
	}

	err = c.channel.Publish(
		"",         // default exchange
		stockQueue, // routing key
		false,      // mandatory
		false,      // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now(),
		})
	if err != nil {
		return fmt.Errorf("failed to publish stock event: %w", err)
	}
	return nil
}
