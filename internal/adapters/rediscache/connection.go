// Package rediscache layers an optional, distributed LRU hint on top of
// dbinterface.SiteCache's TryEvict, per spec §4.8's explicit allowance to
// do so: the core's own cache never evicts on its own, so a process that
// wants bounded memory under heavy traffic needs some signal for which
// ids are cold. Grounded on common/mredis's RedisConnection/GetDB shape.
package rediscache

import (
	"context"

	"github.com/redis/go-redis/v9"

	"github.com/mutgos/dbcore/mlog"
)

// Connection is a hub for a single redis client, mirroring
// RedisConnection's Connect/GetDB split.
type Connection struct {
	ConnectionStringSource string

	Client    *redis.Client
	Connected bool

	Log mlog.Logger
}

// Connect parses the connection string and pings the resulting client.
func (c *Connection) Connect(ctx context.Context) error {
	if c.Log == nil {
		c.Log = &mlog.NoneLogger{}
	}

	c.Log.Infof("connecting to redis")

	opts, err := redis.ParseURL(c.ConnectionStringSource)
	if err != nil {
		return err
	}

	client := redis.NewClient(opts)

	if _, err := client.Ping(ctx).Result(); err != nil {
		return err
	}

	c.Connected = true
	c.Client = client

	c.Log.Infof("connected to redis")

	return nil
}

// GetClient returns the client, connecting lazily.
func (c *Connection) GetClient(ctx context.Context) (*redis.Client, error) {
	if c.Client == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.Client, nil
}
