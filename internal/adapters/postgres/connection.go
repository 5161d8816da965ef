// Package postgres implements dbinterface.DbBackend against a PostgreSQL
// store, grounded on common/mpostgres's PostgresConnection/GetDB shape:
// a primary/replica pair behind dbresolver, schema managed by
// golang-migrate, entity state round-tripped through dbtype's msgpack
// codec instead of mpostgres's reflection-driven Table[T] CRUD (which
// assumes a fixed, flat column set per struct — a poor fit for the
// polymorphic Entity payload this core stores).
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/bxcodec/dbresolver/v2"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"

	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/mutgos/dbcore/mlog"
)

// Connection is a hub for the backend's primary/replica postgres pair,
// mirroring PostgresConnection's fields and Connect/GetDB split.
type Connection struct {
	ConnectionStringPrimary string
	ConnectionStringReplica string
	PrimaryDBName           string
	MigrationsPath          string

	ConnectionDB *dbresolver.DB
	Connected    bool

	Log mlog.Logger
}

// Connect opens the primary and replica pools, runs pending migrations
// against the primary, and pings the resulting resolver.
func (c *Connection) Connect() error {
	if c.Log == nil {
		c.Log = &mlog.NoneLogger{}
	}

	c.Log.Infof("connecting to primary and replica postgres databases")

	dbPrimary, err := sql.Open("pgx", c.ConnectionStringPrimary)
	if err != nil {
		return fmt.Errorf("opening primary connection: %w", err)
	}

	dbReplica, err := sql.Open("pgx", c.ConnectionStringReplica)
	if err != nil {
		return fmt.Errorf("opening replica connection: %w", err)
	}

	connectionDB := dbresolver.New(
		dbresolver.WithPrimaryDBs(dbPrimary),
		dbresolver.WithReplicaDBs(dbReplica),
		dbresolver.WithLoadBalancer(dbresolver.RoundRobinLB))

	migrationsPath := c.MigrationsPath
	if migrationsPath == "" {
		var err error

		migrationsPath, err = filepath.Abs(filepath.Join("internal", "adapters", "postgres", "migrations"))
		if err != nil {
			return fmt.Errorf("resolving migrations path: %w", err)
		}
	}

	migrationsURL, err := url.Parse(filepath.ToSlash(migrationsPath))
	if err != nil {
		return fmt.Errorf("parsing migrations path: %w", err)
	}

	migrationsURL.Scheme = "file"

	driver, err := postgres.WithInstance(dbPrimary, &postgres.Config{
		MultiStatementEnabled: true,
		DatabaseName:          c.PrimaryDBName,
		SchemaName:            "public",
	})
	if err != nil {
		return fmt.Errorf("building migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(migrationsURL.String(), c.PrimaryDBName, driver)
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("applying migrations: %w", err)
	}

	if err := connectionDB.Ping(); err != nil {
		return fmt.Errorf("pinging postgres: %w", err)
	}

	c.Connected = true
	c.ConnectionDB = &connectionDB

	c.Log.Infof("connected to postgres")

	return nil
}

// GetDB returns the resolver, lazily connecting on first use.
func (c *Connection) GetDB(ctx context.Context) (dbresolver.DB, error) {
	if c.ConnectionDB == nil {
		if err := c.Connect(); err != nil {
			return nil, err
		}
	}

	return *c.ConnectionDB, nil
}
