package queue

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// ErrDeliveriesClosed is returned by Wait when the broker closed the delivery
// channel before the consumer was stopped
var ErrDeliveriesClosed = errors.New("sms delivery channel closed by broker")

// Handler delivers one job. An error requeues the job once; a job that fails
// again after redelivery is dropped.
type Handler func(ctx context.Context, job *SMSJob) error

// Consumer reads SMS jobs one at a time with manual acknowledgement
type Consumer struct {
	conn      *Connection
	queueName string
	handler   Handler
	logger    *zap.Logger
	done      chan struct{}
	err       error
}

func NewConsumer(conn *Connection, queueName string, handler Handler, logger *zap.Logger) (*Consumer, error) {
	if conn == nil {
		return nil, errors.New("connection cannot be nil")
	}
	if queueName == "" {
		return nil, errors.New("queue name cannot be empty")
	}
	if handler == nil {
		return nil, errors.New("handler cannot be nil")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to get channel: %w", err)
	}
	if err := declare(ch, queueName); err != nil {
		return nil, err
	}

	return &Consumer{
		conn:      conn,
		queueName: queueName,
		handler:   handler,
		logger:    logger,
		done:      make(chan struct{}),
	}, nil
}

// Start begins consuming in the background until ctx is cancelled or the
// broker closes the delivery channel. Wait blocks until then and reports which.
func (c *Consumer) Start(ctx context.Context) error {
	ch, err := c.conn.Channel()
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := ch.ConsumeWithContext(ctx,
		c.queueName,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to start consuming: %w", err)
	}

	go c.loop(ctx, deliveries)
	c.logger.Info("SMS consumer started", zap.String("queue", c.queueName))
	return nil
}

func (c *Consumer) loop(ctx context.Context, deliveries <-chan amqp.Delivery) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("SMS consumer stopping")
			return
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return
				}
				c.logger.Error("SMS delivery channel closed")
				c.err = ErrDeliveriesClosed
				return
			}
			c.process(ctx, d)
		}
	}
}

func (c *Consumer) process(ctx context.Context, d amqp.Delivery) {
	job, err := decodeJob(d.Body)
	if err != nil {
		c.logger.Error("dropping malformed sms job", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	if err := c.handler(ctx, job); err != nil {
		requeue := !d.Redelivered
		c.logger.Warn("sms delivery failed",
			zap.String("reference", job.Reference),
			zap.Bool("requeue", requeue),
			zap.Error(err))
		_ = d.Nack(false, requeue)
		return
	}
	_ = d.Ack(false)
}

// Wait blocks until the consume loop has exited. It returns ErrDeliveriesClosed
// when the loop ended without the context being cancelled.
func (c *Consumer) Wait() error {
	<-c.done
	return c.err
}
