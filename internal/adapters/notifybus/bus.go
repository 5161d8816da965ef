package notifybus

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/mutgos/dbcore/dbid"
)

// changeEvent is the wire shape of one entity's change notification,
// published once per CommitAll persist.
type changeEvent struct {
	SiteID        uint32   `json:"site_id"`
	EntityID      uint32   `json:"entity_id"`
	ChangedFields []string `json:"changed_fields"`
}

// Bus publishes change events to Connection's exchange and satisfies
// dbaccess.Notifier, so it plugs straight into
// (*dbaccess.DatabaseAccess).SetNotifier.
type Bus struct {
	conn *Connection
}

// New returns a Bus bound to conn.
func New(conn *Connection) *Bus {
	return &Bus{conn: conn}
}

func routingKey(id dbid.Id) string {
	return fmt.Sprintf("entity.%d.%d", id.SiteID(), id.EntityID())
}

// NotifyEntityChanged publishes id's changed field list to the exchange
// under a per-entity routing key, so a subscriber can filter by site,
// entity, or wildcard across both.
func (b *Bus) NotifyEntityChanged(ctx context.Context, id dbid.Id, changedFields []string) error {
	channel, err := b.conn.GetChannel(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(changeEvent{
		SiteID:        id.SiteID(),
		EntityID:      id.EntityID(),
		ChangedFields: changedFields,
	})
	if err != nil {
		return fmt.Errorf("marshaling change event for %s: %w", id, err)
	}

	return channel.PublishWithContext(ctx, b.conn.Exchange, routingKey(id), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}
