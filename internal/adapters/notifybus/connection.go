// Package notifybus publishes the per-entity change-notification stream
// dbaccess.CommitAll produces (spec §5) to a rabbitmq exchange, letting
// out-of-process subscribers (reverse-index maintainers, caches on other
// nodes) react to a commit without ever touching the entity's writer
// lock. Grounded on common/mrabbitmq's RabbitMQConnection shape, adapted
// to rabbitmq/amqp091-go — the teacher's own go.mod dependency, even
// though its mrabbitmq.go file itself still imports the unmaintained
// streadway/amqp.
package notifybus

import (
	"context"
	"errors"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mutgos/dbcore/mlog"
)

// Connection is a hub for a single rabbitmq channel, mirroring
// RabbitMQConnection's Connect/GetChannel split.
type Connection struct {
	ConnectionStringSource string
	Exchange               string

	conn      *amqp.Connection
	channel   *amqp.Channel
	Connected bool

	Log mlog.Logger
}

// Connect dials the broker, opens a channel, and declares Exchange as a
// durable topic exchange.
func (c *Connection) Connect() error {
	if c.Log == nil {
		c.Log = &mlog.NoneLogger{}
	}

	c.Log.Infof("connecting to rabbitmq")

	conn, err := amqp.Dial(c.ConnectionStringSource)
	if err != nil {
		return fmt.Errorf("dialing rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("opening channel: %w", err)
	}

	if err := ch.ExchangeDeclare(c.Exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declaring exchange %s: %w", c.Exchange, err)
	}

	c.conn = conn
	c.channel = ch
	c.Connected = true

	c.Log.Infof("connected to rabbitmq")

	return nil
}

// GetChannel returns the channel, connecting lazily.
func (c *Connection) GetChannel(ctx context.Context) (*amqp.Channel, error) {
	if c.channel == nil {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	return c.channel, nil
}

// Close tears down the channel and connection.
func (c *Connection) Close() error {
	var errs []error

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}
