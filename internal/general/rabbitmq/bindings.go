package rabbitmq

import (
	"fmt"

	"ride-console/internal/general/contracts"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange describes one exchange to declare.
type Exchange struct {
	Name string
	Kind string
}

// Binding ties a queue to an exchange.
type Binding struct {
	Queue      string
	Exchange   string
	RoutingKey string
}

// Topology is the set of exchanges, queues and bindings a client (re)declares on every connect.
type Topology struct {
	Exchanges []Exchange
	Queues    []string
	Bindings  []Binding
}

// TelemetryTopology subscribes the aggregation service to the driver location fanout.
func TelemetryTopology() Topology {
	return Topology{
		Exchanges: []Exchange{
			{Name: contracts.ExchangeLocationFanout, Kind: amqp.ExchangeFanout},
		},
		Queues: []string{contracts.QueueLocationUpdatesAdmin},
		Bindings: []Binding{
			// fanout ignores the routing key
			{Queue: contracts.QueueLocationUpdatesAdmin, Exchange: contracts.ExchangeLocationFanout},
		},
	}
}

// declarer is the subset of *amqp.Channel used to declare topology.
type declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

func declareTopology(ch declarer, topo Topology) error {
	for _, ex := range topo.Exchanges {
		if err := ch.ExchangeDeclare(ex.Name, ex.Kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare exchange %s: %w", ex.Name, err)
		}
	}

	for _, q := range topo.Queues {
		if _, err := ch.QueueDeclare(q, true, false, false, false, nil); err != nil {
			return fmt.Errorf("declare queue %s: %w", q, err)
		}
	}

	for _, b := range topo.Bindings {
		if err := ch.QueueBind(b.Queue, b.RoutingKey, b.Exchange, false, nil); err != nil {
			return fmt.Errorf("bind queue %s to %s: %w", b.Queue, b.Exchange, err)
		}
	}

	return nil
}
