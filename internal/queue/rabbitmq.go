// Package queue wraps the RabbitMQ connection used to hand attachment blob
// paths from the write pipeline to the cleanup worker. The queue is durable
// so dispatched jobs survive a process restart between publish and consume.
package queue

import (
	"context"
	"encoding/json"
	"time"

	"commentd/pkg/logger"
	"commentd/pkg/utils"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DeleteJob is the wire format of a cleanup message.
type DeleteJob struct {
	Files []string `json:"files"`
}

// Topology names the delete-job destination shared by publisher and worker.
type Topology struct {
	Exchange   string
	Queue      string
	RoutingKey string
}

type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	top  Topology
	log  *logger.Logger
}

// Dial connects to RabbitMQ and asserts the delete-job topology: a durable
// direct exchange bound to a durable queue.
func Dial(url string, top Topology, log *logger.Logger) (*Client, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, utils.NewError(utils.ErrInternalServerError.Code, "Failed to connect to RabbitMQ", err.Error())
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, utils.NewError(utils.ErrInternalServerError.Code, "Failed to open RabbitMQ channel", err.Error())
	}

	if err := ch.ExchangeDeclare(top.Exchange, "direct", true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, utils.NewError(utils.ErrInternalServerError.Code, "Failed to declare exchange", err.Error())
	}
	if _, err := ch.QueueDeclare(top.Queue, true, false, false, false, nil); err != nil {
		conn.Close()
		return nil, utils.NewError(utils.ErrInternalServerError.Code, "Failed to declare queue", err.Error())
	}
	if err := ch.QueueBind(top.Queue, top.RoutingKey, top.Exchange, false, nil); err != nil {
		conn.Close()
		return nil, utils.NewError(utils.ErrInternalServerError.Code, "Failed to bind queue", err.Error())
	}

	return &Client{conn: conn, ch: ch, top: top, log: log}, nil
}

// PublishDelete sends a delete job for the given blob paths. Persistent
// delivery mode keeps the job on disk until the worker acks it.
func (c *Client) PublishDelete(ctx context.Context, files []string) error {
	body, err := json.Marshal(DeleteJob{Files: files})
	if err != nil {
		return err
	}

	return c.ch.PublishWithContext(ctx, c.top.Exchange, c.top.RoutingKey, false, false, amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now(),
		CorrelationId: uuid.NewString(),
		Body:          body,
	})
}

// ConsumeDeleteJobs subscribes to the delete-job queue with manual acks.
func (c *Client) ConsumeDeleteJobs() (<-chan amqp.Delivery, error) {
	return c.ch.Consume(c.top.Queue, "", false, false, false, false, nil)
}

// Close releases the channel and connection.
func (c *Client) Close() {
	if c.ch != nil {
		c.ch.Close()
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.log.Error(context.Background()).WithMeta(utils.Map{"error": err.Error()}).Logs("RabbitMQ close failed")
			return
		}
	}
	c.log.Info(context.Background()).Logs("RabbitMQ connection closed")
}
