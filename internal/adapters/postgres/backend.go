package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/mutgos/dbcore/dbid"
	"github.com/mutgos/dbcore/dberrors"
	"github.com/mutgos/dbcore/dbtype"
)

const (
	entitiesTable  = "mutgos_entities"
	sitesTable     = "mutgos_sites"
	sequencesTable = "mutgos_entity_sequences"
)

// Backend implements dbinterface.DbBackend against Connection, persisting
// each Entity as one msgpack blob (dbtype.MarshalEntity) per row, indexed
// by (site, type, name) for Find. This trades mpostgres's per-column
// Table[T] CRUD for a single polymorphic column, since Entity's payload
// shape varies per EntityType and a flat column set per dbinterface.DbBackend
// method would need one table per subtype.
type Backend struct {
	conn *Connection
}

// New returns a Backend bound to conn.
func New(conn *Connection) *Backend {
	return &Backend{conn: conn}
}

func translatePGError(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}

	msg := fmt.Sprintf(format, args...)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return dberrors.InUse("%s: %s", msg, pgErr.Message)
		case "23503":
			return dberrors.BadArguments("%s: %s", msg, pgErr.Message)
		}
	}

	if errors.Is(err, sql.ErrNoRows) {
		return dberrors.NotFound("%s", msg)
	}

	return dberrors.DatabaseError(err, "%s", msg)
}

// entityNameField mirrors only the "name" key of entityWire (dbtype/codec.go),
// letting this package read an entity's indexed name straight out of its
// msgpack snapshot without a lock token — PersistEntity runs with no
// concurrent writer, per CommitAll's single-threaded commit loop.
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

// AllocateSite reserves and returns the next site id via the sites table's
// identity sequence.
func (b *Backend) AllocateSite(ctx context.Context) (uint32, error) {
	db, err := b.conn.GetDB(ctx)
	if err != nil {
		return 0, err
	}

	var siteID uint32

	row := db.QueryRowContext(ctx, "INSERT INTO "+sitesTable+" DEFAULT VALUES RETURNING site_id")
	if err := row.Scan(&siteID); err != nil {
		return 0, translatePGError(err, "allocating site")
	}

	return siteID, nil
}

// DeleteSite removes siteID's row and every entity belonging to it.
func (b *Backend) DeleteSite(ctx context.Context, siteID uint32) error {
	db, err := b.conn.GetDB(ctx)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM "+entitiesTable+" WHERE site_id = $1", siteID); err != nil {
		return translatePGError(err, "deleting site %d entities", siteID)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM "+sequencesTable+" WHERE site_id = $1", siteID); err != nil {
		return translatePGError(err, "deleting site %d sequence", siteID)
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM "+sitesTable+" WHERE site_id = $1", siteID); err != nil {
		return translatePGError(err, "deleting site %d", siteID)
	}

	return nil
}

// AllocateEntityID returns the next monotone entity id within siteID,
// starting at 5 (ids 1-4 are reserved, spec §6.2), via an upsert-and-return
// on the per-site sequence row.
func (b *Backend) AllocateEntityID(ctx context.Context, siteID uint32) (uint32, error) {
	db, err := b.conn.GetDB(ctx)
	if err != nil {
		return 0, err
	}

	var nextID uint32

	row := db.QueryRowContext(ctx, `
		INSERT INTO `+sequencesTable+` (site_id, next_entity_id)
		VALUES ($1, 5)
		ON CONFLICT (site_id) DO UPDATE SET next_entity_id = `+sequencesTable+`.next_entity_id + 1
		RETURNING next_entity_id`, siteID)
	if err := row.Scan(&nextID); err != nil {
		return 0, translatePGError(err, "allocating entity id for site %d", siteID)
	}

	return nextID, nil
}

// ConstructEntity builds a brand-new, caller-owned Entity; it is not
// persisted until PersistEntity is called.
func (b *Backend) ConstructEntity(ctx context.Context, typ dbtype.EntityType, id dbid.Id, owner dbid.Id, name string) (*dbtype.Entity, error) {
	return dbtype.NewEntity(id, typ, owner, name)
}

// PersistEntity upserts entity's full msgpack snapshot.
func (b *Backend) PersistEntity(ctx context.Context, entity *dbtype.Entity) error {
	db, err := b.conn.GetDB(ctx)
	if err != nil {
		return err
	}

	data, err := dbtype.MarshalEntity(entity)
	if err != nil {
		return err
	}

	id := entity.ID()

	name, err := decodeEntityName(data)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO `+entitiesTable+` (site_id, entity_id, entity_type, name, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (site_id, entity_id) DO UPDATE SET
			entity_type = EXCLUDED.entity_type,
			name = EXCLUDED.name,
			data = EXCLUDED.data`,
		id.SiteID(), id.EntityID(), entity.Type(), name, data)
	if err != nil {
		return translatePGError(err, "persisting entity %s", id)
	}

	return nil
}

// LoadEntity reconstructs the stored entity for id.
func (b *Backend) LoadEntity(ctx context.Context, id dbid.Id) (*dbtype.Entity, error) {
	db, err := b.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	var data []byte

	row := db.QueryRowContext(ctx, "SELECT data FROM "+entitiesTable+" WHERE site_id = $1 AND entity_id = $2",
		id.SiteID(), id.EntityID())
	if err := row.Scan(&data); err != nil {
		return nil, translatePGError(err, "loading entity %s", id)
	}

	return dbtype.UnmarshalEntity(data)
}

// DeleteEntityPersistent removes id's row.
func (b *Backend) DeleteEntityPersistent(ctx context.Context, id dbid.Id) error {
	db, err := b.conn.GetDB(ctx)
	if err != nil {
		return err
	}

	if _, err := db.ExecContext(ctx, "DELETE FROM "+entitiesTable+" WHERE site_id = $1 AND entity_id = $2",
		id.SiteID(), id.EntityID()); err != nil {
		return translatePGError(err, "deleting entity %s", id)
	}

	return nil
}

// DeleteEntityMemory is a no-op: this backend holds no construction-time
// resources outside of the row itself.
func (b *Backend) DeleteEntityMemory(ctx context.Context, entity *dbtype.Entity) error {
	return nil
}

// Find returns every id within site matching name under typ's rules,
// building its WHERE clause through queryBuilder (grounded on
// mpostgres.SQLQueryBuilder).
func (b *Backend) Find(ctx context.Context, site uint32, typ dbtype.EntityType, name string, exact bool) ([]dbid.Id, error) {
	db, err := b.conn.GetDB(ctx)
	if err != nil {
		return nil, err
	}

	opts := []queryBuilderOption{
		withFilter("site_id", site),
		withFilter("entity_type", typ),
	}

	trimmed := strings.TrimSpace(name)
	if trimmed != "" {
		if exact {
			opts = append(opts, withCaseInsensitiveFilter("name", trimmed))
		} else {
			opts = append(opts, withContainsFilter("name", trimmed))
		}
	}

	qb := newQueryBuilder(entitiesTable, opts...)

	rows, err := db.QueryContext(ctx, qb.selectSQL("site_id, entity_id"), qb.Params...)
	if err != nil {
		return nil, translatePGError(err, "finding entities in site %d", site)
	}
	defer rows.Close()

	var out []dbid.Id

	for rows.Next() {
		var siteID, entID uint32

		if err := rows.Scan(&siteID, &entID); err != nil {
			return nil, translatePGError(err, "scanning find result")
		}

		out = append(out, dbid.New(siteID, entID))
	}

	if err := rows.Err(); err != nil {
		return nil, translatePGError(err, "iterating find results")
	}

	return out, nil
}
