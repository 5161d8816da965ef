// Package mongo implements dbinterface.DbBackend against MongoDB, storing
// each Entity as one BSON document that holds the indexed lookup fields
// (site, entity id, type, name) beside the entity's msgpack snapshot as a
// binary field, the same blob the postgres backend keeps in its BYTEA
// column; the property tree is not expanded into BSON. Grounded on
// common/mmongo's MongoConnection/GetDB shape.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mutgos/dbcore/mlog"
)

// Connection is a hub for a single mongo client, mirroring
// MongoConnection's Connect/GetDB split.
type Connection struct {
	ConnectionStringSource string
	Database               string

	DB        *mongo.Client
	Connected bool

	Log mlog.Logger
}

// Connect opens the client and pings it.
func (c *Connection) Connect(ctx context.Context) error {
	if c.Log == nil {
		c.Log = &mlog.NoneLogger{}
	}

	c.Log.Infof("connecting to mongodb")

	clientOptions := options.Client().ApplyURI(c.ConnectionStringSource)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("opening mongo connection: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("pinging mongo: %w", err)
	}

	c.Connected = true
	c.DB = client

	c.Log.Infof("connected to mongodb")

	return nil
}

// GetDatabase returns the configured database handle, connecting lazily.
func (c *Connection) GetDatabase(ctx context.Context) (*mongo.Database, error) {
	if c.DB == nil {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	return c.DB.Database(c.Database), nil
}
