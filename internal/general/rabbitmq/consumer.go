package rabbitmq

import (
	"context"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const handlerTimeout = 30 * time.Second

// newConsumerChannel returns a fresh channel with prefetch (QoS) applied.
func (client *Client) newConsumerChannel(prefetch int) (*amqp.Channel, error) {
	client.mu.RLock()
	conn := client.conn
	client.mu.RUnlock()

	if conn == nil || conn.IsClosed() {
		return nil, errors.New("rabbitmq: connection is not ready")
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: open channel: %w", err)
	}

	if prefetch <= 0 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("rabbitmq: set QoS (prefetch=%d): %w", prefetch, err)
	}

	return ch, nil
}

// Consume consumes a queue with manual acks until ctx is done or the channel closes.
// A handler error drops the message (no requeue).
func (client *Client) Consume(ctx context.Context, queue, consumerTag string, prefetch int, handler func(context.Context, amqp.Delivery) error) error {
	ch, err := client.newConsumerChannel(prefetch)
	if err != nil {
		return err
	}
	defer ch.Close()

	deliveries, err := ch.Consume(
		queue,
		consumerTag,
		false, // autoAck
		false, // exclusive
		false, // noLocal (ignored by RabbitMQ)
		false, // noWait
		nil,   // args
	)
	if err != nil {
		return fmt.Errorf("rabbitmq: consume(%s): %w", queue, err)
	}

	chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))

	for {
		select {
		case <-ctx.Done():
			if consumerTag != "" {
				_ = ch.Cancel(consumerTag, false)
			}
			return nil

		case cerr := <-chClosed:
			if cerr != nil {
				return fmt.Errorf("rabbitmq: channel closed while consuming %s: %w", queue, cerr)
			}
			return nil

		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			settle(ctx, d, handler)
		}
	}
}

// ConsumeLoop keeps a consumer attached across reconnects until ctx is done.
func (client *Client) ConsumeLoop(ctx context.Context, queue, consumerTag string, prefetch int, handler func(context.Context, amqp.Delivery) error) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-client.closed:
			return nil
		case <-client.Ready():
		}

		err := client.Consume(ctx, queue, consumerTag, prefetch, handler)
		if ctx.Err() != nil {
			return nil
		}
		client.logger.Warn(client.logCtx, "rabbitmq_consumer_detached", "Consumer detached; waiting for reconnect", err,
			map[string]any{"queue": queue})

		// give the watcher a chance to notice the broken connection
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Second):
		}
	}
}

// acknowledger is the subset of amqp.Delivery used to settle a message.
type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func settle(ctx context.Context, d amqp.Delivery, handler func(context.Context, amqp.Delivery) error) {
	hCtx, cancel := context.WithTimeout(ctx, handlerTimeout)
	err := handler(hCtx, d)
	cancel()
	ack(d, err)
}

func ack(d acknowledger, err error) {
	if err != nil {
		_ = d.Nack(false, false) // drop poison message
		return
	}
	_ = d.Ack(false)
}
