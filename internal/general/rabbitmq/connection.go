package rabbitmq

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"ride-console/internal/general/config"
	"ride-console/internal/general/logger"

	amqp "github.com/rabbitmq/amqp091-go"
)

const maxReconnectBackoff = 30 * time.Second

// Client is a resilient RabbitMQ connector with auto-reconnect and topology setup.
type Client struct {
	url      string
	topology Topology
	logger   *logger.Logger
	logCtx   context.Context // context for logging (without cancel)

	mu   sync.RWMutex
	conn *amqp.Connection
	ctrl *amqp.Channel // topology channel; its closure triggers a reconnect

	closed    chan struct{}
	closeOnce sync.Once
	reconnect chan struct{}
	ready     chan struct{} // replaced on every successful connect
}

// ConnectRabbitMQ establishes connection and starts a background watcher that reconnects on failures.
func ConnectRabbitMQ(ctx context.Context, cfg *config.Config, topo Topology, logger *logger.Logger) (*Client, error) {
	client := &Client{
		url:       amqpURL(cfg),
		topology:  topo,
		logger:    logger,
		logCtx:    context.WithoutCancel(ctx), // avoid ctx cancel on reconnects
		closed:    make(chan struct{}),
		reconnect: make(chan struct{}, 1),
		ready:     make(chan struct{}),
	}

	// initial connect (single attempt; further retries happen in the watcher)
	if err := client.connectOnce(); err != nil {
		return nil, err
	}

	go client.watch()

	return client, nil
}

// amqpURL builds the broker URL with escaped credentials.
func amqpURL(cfg *config.Config) string {
	u := url.URL{
		Scheme: "amqp",
		User:   url.UserPassword(cfg.RabbitMQ.User, cfg.RabbitMQ.Password),
		Host:   net.JoinHostPort(cfg.RabbitMQ.Host, strconv.Itoa(cfg.RabbitMQ.Port)),
		Path:   "/",
	}
	return u.String()
}

// Close stops the watcher and closes AMQP resources. It is safe to call more than once.
func (client *Client) Close() {
	client.closeOnce.Do(func() { close(client.closed) })

	client.mu.Lock()
	defer client.mu.Unlock()
	if client.ctrl != nil {
		_ = client.ctrl.Close()
		client.ctrl = nil
	}
	if client.conn != nil {
		_ = client.conn.Close()
		client.conn = nil
	}
}

// Ready returns a channel that is closed once a connection is installed.
// Consumers wait on it before re-subscribing after a reconnect.
func (client *Client) Ready() <-chan struct{} {
	client.mu.RLock()
	defer client.mu.RUnlock()
	return client.ready
}

// --- internals ---

// connectOnce tries to connect and set up topology once.
func (client *Client) connectOnce() (err error) {
	conn, err := amqp.DialConfig(client.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(30 * time.Second),
	})
	if err != nil {
		client.logger.Error(client.logCtx, "rabbitmq_dial_failed", "Failed to dial RabbitMQ", err, nil)
		return fmt.Errorf("rabbitmq dial failed: %w", err)
	}
	defer func() {
		if err != nil {
			_ = conn.Close()
		}
	}()

	ch, err := conn.Channel()
	if err != nil {
		client.logger.Error(client.logCtx, "rabbitmq_open_channel_failed", "Failed to open RabbitMQ channel", err, nil)
		return fmt.Errorf("rabbitmq: failed to open channel: %w", err)
	}

	if err = declareTopology(ch, client.topology); err != nil {
		client.logger.Error(client.logCtx, "rabbitmq_declare_topology_failed", "Failed to declare RabbitMQ topology", err, nil)
		return fmt.Errorf("rabbitmq: failed to declare topology: %w", err)
	}

	client.mu.Lock()
	if client.ctrl != nil && !client.ctrl.IsClosed() {
		_ = client.ctrl.Close()
	}
	client.conn = conn
	client.ctrl = ch
	close(client.ready)
	client.mu.Unlock()

	// either the connection or the control channel closing triggers a reconnect
	go func(conn *amqp.Connection, ch *amqp.Channel) {
		connClosed := conn.NotifyClose(make(chan *amqp.Error, 1))
		chClosed := ch.NotifyClose(make(chan *amqp.Error, 1))
		select {
		case <-client.closed:
			return
		case <-connClosed:
		case <-chClosed:
		}

		client.mu.Lock()
		client.ready = make(chan struct{})
		client.mu.Unlock()

		select {
		case client.reconnect <- struct{}{}:
		default:
		}
	}(conn, ch)

	client.logger.Info(client.logCtx, "rabbitmq_connected", "RabbitMQ connection established successfully", nil)

	return nil
}

// watch runs in background and attempts reconnects with exponential backoff.
func (client *Client) watch() {
	for {
		select {
		case <-client.closed:
			return
		case <-client.reconnect:
			backoff := time.Second
			for {
				select {
				case <-client.closed:
					return
				default:
				}

				err := client.connectOnce()
				if err == nil {
					client.logger.Info(client.logCtx, "rabbitmq_reconnected", "Reconnected to RabbitMQ and re-ensured topology", nil)
					break
				}

				client.logger.Warn(client.logCtx, "retry_attempted", "Failed to reconnect to RabbitMQ", err,
					map[string]any{"backoff": backoff.String()})

				select {
				case <-client.closed:
					return
				case <-time.After(backoff):
				}
				backoff = nextBackoff(backoff)
			}
		}
	}
}

// nextBackoff doubles d up to maxReconnectBackoff.
func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxReconnectBackoff {
		return maxReconnectBackoff
	}
	return d
}
