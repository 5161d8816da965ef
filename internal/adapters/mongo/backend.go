package mongo

import (
	"context"
	"errors"
	"regexp"

	"github.com/vmihailenco/msgpack/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbtype"
)

const (
	countersCollection  = "mutgos_counters"
	sequencesCollection = "mutgos_entity_sequences"
	entitiesCollection  = "mutgos_entities"

	siteCounterID = "site_id"
)

// entityDocument is the BSON shape of one stored entity: the indexed
// lookup fields alongside the entity's full msgpack snapshot, mirroring
// the postgres backend's row layout but as a native document.
type entityDocument struct {
	SiteID     uint32            `bson:"site_id"`
	EntityID   uint32            `bson:"entity_id"`
	EntityType dbtype.EntityType `bson:"entity_type"`
	Name       string            `bson:"name"`
	Data       []byte            `bson:"data"`
}

// entityNameField mirrors only the "name" key of dbtype's entity wire
// format, letting this package read an entity's indexed name straight out
// of its msgpack snapshot without a lock token — PersistEntity runs with
// no concurrent writer, per dbaccess.CommitAll's single-threaded commit
// loop (same trick as internal/adapters/postgres).
type entityNameField struct {
	Name string `msgpack:"name"`
}

func decodeEntityName(data []byte) (string, error) {
	var n entityNameField
	if err := msgpack.Unmarshal(data, &n); err != nil {
		return "", dberrors.DatabaseError(err, "decoding entity name")
	}

	return n.Name, nil
}

// Backend implements dbinterface.DbBackend against Connection.
type Backend struct {
	conn *Connection
}

// New returns a Backend bound to conn.
func New(conn *Connection) *Backend {
	return &Backend{conn: conn}
}

func translateMongoError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, mongo.ErrNoDocuments) {
		return dberrors.NotFound(format, args...)
	}

	if mongo.IsDuplicateKeyError(err) {
		return dberrors.InUse(format, args...)
	}

	return dberrors.DatabaseError(err, format, args...)
}

// EnsureIndexes creates the indexes the entities collection needs for
// PersistEntity's uniqueness and Find's lookups. Callers invoke this once
// at startup (see internal/bootstrap), matching the teacher's practice of
// letting migrations (here, index creation) run ahead of traffic.
func (b *Backend) EnsureIndexes(ctx context.Context) error {
	db, err := b.conn.GetDatabase(ctx)
	if err != nil {
		return err
	}

	_, err = db.Collection(entitiesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "site_id", Value: 1}, {Key: "entity_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "site_id", Value: 1}, {Key: "entity_type", Value: 1}, {Key: "name", Value: 1}},
		},
	})
	if err != nil {
		return translateMongoError(err, "creating entity indexes")
	}

	return nil
}

// AllocateSite reserves and returns the next site id via an atomic
// $inc against a single counter document, mongo's idiomatic stand-in for
// postgres's BIGSERIAL.
func (b *Backend) AllocateSite(ctx context.Context) (uint32, error) {
	db, err := b.conn.GetDatabase(ctx)
	if err != nil {
		return 0, err
	}

	var doc struct {
		Seq uint32 `bson:"seq"`
	}

	err = db.Collection(countersCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": siteCounterID},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, translateMongoError(err, "allocating site")
	}

	return doc.Seq, nil
}

// DeleteSite removes siteID's sequence row and every entity belonging to it.
func (b *Backend) DeleteSite(ctx context.Context, siteID uint32) error {
	db, err := b.conn.GetDatabase(ctx)
	if err != nil {
		return err
	}

	if _, err := db.Collection(entitiesCollection).DeleteMany(ctx, bson.M{"site_id": siteID}); err != nil {
		return translateMongoError(err, "deleting site %d entities", siteID)
	}

	if _, err := db.Collection(sequencesCollection).DeleteOne(ctx, bson.M{"_id": siteID}); err != nil {
		return translateMongoError(err, "deleting site %d sequence", siteID)
	}

	return nil
}

// AllocateEntityID returns the next monotone entity id within siteID,
// starting at 5 (ids 1-4 reserved, spec §6.2), via an atomic upsert $inc
// against that site's sequence document.
func (b *Backend) AllocateEntityID(ctx context.Context, siteID uint32) (uint32, error) {
	db, err := b.conn.GetDatabase(ctx)
	if err != nil {
		return 0, err
	}

	var doc struct {
		Next uint32 `bson:"next"`
	}

	err = db.Collection(sequencesCollection).FindOneAndUpdate(
		ctx,
		bson.M{"_id": siteID},
		bson.M{"$inc": bson.M{"next": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		return 0, translateMongoError(err, "allocating entity id for site %d", siteID)
	}

	// the document's "next" field starts at 0 on first insert and this
	// $inc brings it to 1; shift into the reserved-ids-1-4 numbering so
	// the first issued id is 5, matching dbinterfacetest.Backend.
	return doc.Next + 4, nil
}

// ConstructEntity builds a brand-new, caller-owned Entity; it is not
// persisted until PersistEntity is called.
func (b *Backend) ConstructEntity(ctx context.Context, typ dbtype.EntityType, id dbid.Id, owner dbid.Id, name string) (*dbtype.Entity, error) {
	return dbtype.NewEntity(id, typ, owner, name)
}

// PersistEntity upserts entity's full msgpack snapshot as a BSON document.
func (b *Backend) PersistEntity(ctx context.Context, entity *dbtype.Entity) error {
	db, err := b.conn.GetDatabase(ctx)
	if err != nil {
		return err
	}

	data, err := dbtype.MarshalEntity(entity)
	if err != nil {
		return err
	}

	name, err := decodeEntityName(data)
	if err != nil {
		return err
	}

	id := entity.ID()

	doc := entityDocument{
		SiteID:     id.SiteID(),
		EntityID:   id.EntityID(),
		EntityType: entity.Type(),
		Name:       name,
		Data:       data,
	}

	_, err = db.Collection(entitiesCollection).UpdateOne(ctx,
		bson.M{"site_id": doc.SiteID, "entity_id": doc.EntityID},
		bson.M{"$set": doc},
		options.Update().SetUpsert(true))
	if err != nil {
		return translateMongoError(err, "persisting entity %s", id)
	}

	return nil
}

// LoadEntity reconstructs the stored entity for id.
func (b *Backend) LoadEntity(ctx context.Context, id dbid.Id) (*dbtype.Entity, error) {
	db, err := b.conn.GetDatabase(ctx)
	if err != nil {
		return nil, err
	}

	var doc entityDocument

	err = db.Collection(entitiesCollection).
		FindOne(ctx, bson.M{"site_id": id.SiteID(), "entity_id": id.EntityID()}).
		Decode(&doc)
	if err != nil {
		return nil, translateMongoError(err, "loading entity %s", id)
	}

	return dbtype.UnmarshalEntity(doc.Data)
}

// DeleteEntityPersistent removes id's document.
func (b *Backend) DeleteEntityPersistent(ctx context.Context, id dbid.Id) error {
	db, err := b.conn.GetDatabase(ctx)
	if err != nil {
		return err
	}

	if _, err := db.Collection(entitiesCollection).DeleteOne(ctx,
		bson.M{"site_id": id.SiteID(), "entity_id": id.EntityID()}); err != nil {
		return translateMongoError(err, "deleting entity %s", id)
	}

	return nil
}

// DeleteEntityMemory is a no-op: this backend holds no construction-time
// resources outside of the document itself.
func (b *Backend) DeleteEntityMemory(ctx context.Context, entity *dbtype.Entity) error {
	return nil
}

// Find returns every id within site matching name under typ's rules.
func (b *Backend) Find(ctx context.Context, site uint32, typ dbtype.EntityType, name string, exact bool) ([]dbid.Id, error) {
	db, err := b.conn.GetDatabase(ctx)
	if err != nil {
		return nil, err
	}

	filter := bson.M{"site_id": site, "entity_type": typ}

	if name != "" {
		if exact {
			filter["name"] = primitive.Regex{Pattern: "^" + regexp.QuoteMeta(name) + "$", Options: "i"}
		} else {
			filter["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"}
		}
	}

	cursor, err := db.Collection(entitiesCollection).Find(ctx, filter,
		options.Find().SetProjection(bson.M{"site_id": 1, "entity_id": 1}))
	if err != nil {
		return nil, translateMongoError(err, "finding entities in site %d", site)
	}
	defer cursor.Close(ctx)

	var out []dbid.Id

	for cursor.Next(ctx) {
		var doc struct {
			SiteID   uint32 `bson:"site_id"`
			EntityID uint32 `bson:"entity_id"`
		}

		if err := cursor.Decode(&doc); err != nil {
			return nil, translateMongoError(err, "scanning find result")
		}

		out = append(out, dbid.New(doc.SiteID, doc.EntityID))
	}

	if err := cursor.Err(); err != nil {
		return nil, translateMongoError(err, "iterating find results")
	}

	return out, nil
}
