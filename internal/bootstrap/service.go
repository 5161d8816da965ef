package bootstrap

import (
	"context"
	"fmt"

	"github.com/mutgos/dbcore/dbaccess"
	"github.com/mutgos/dbcore/dbinterface"
	"github.com/mutgos/dbcore/internal/adapters/mongo"
	"github.com/mutgos/dbcore/internal/adapters/notifybus"
	"github.com/mutgos/dbcore/internal/adapters/postgres"
	"github.com/mutgos/dbcore/internal/adapters/rediscache"
	"github.com/mutgos/dbcore/mlog"
	"github.com/mutgos/dbcore/mzap"
)

// Service bundles the wired dbaccess facade with whatever optional
// adapters the Config turned on, plus whatever needs closing on
// shutdown.
type Service struct {
	Access *dbaccess.DatabaseAccess
	Logger mlog.Logger

	Eviction *rediscache.EvictionHinter

	closers []func() error
}

// Close releases every connection InitService opened, in reverse order.
func (s *Service) Close() error {
	var firstErr error

	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

func buildPostgresConnection(cfg *Config) *postgres.Connection {
	primary := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		cfg.PrimaryDBHost, cfg.PrimaryDBUser, cfg.PrimaryDBPassword, cfg.PrimaryDBName, cfg.PrimaryDBPort)

	replicaHost := envFallback(cfg.ReplicaDBHost, cfg.PrimaryDBHost)
	replicaUser := envFallback(cfg.ReplicaDBUser, cfg.PrimaryDBUser)
	replicaPassword := envFallback(cfg.ReplicaDBPassword, cfg.PrimaryDBPassword)
	replicaName := envFallback(cfg.ReplicaDBName, cfg.PrimaryDBName)
	replicaPort := envFallback(cfg.ReplicaDBPort, cfg.PrimaryDBPort)

	replica := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		replicaHost, replicaUser, replicaPassword, replicaName, replicaPort)

	return &postgres.Connection{
		ConnectionStringPrimary: primary,
		ConnectionStringReplica: replica,
		PrimaryDBName:           cfg.PrimaryDBName,
		MigrationsPath:          cfg.MigrationsPath,
	}
}

func buildMongoConnection(cfg *Config) *mongo.Connection {
	source := fmt.Sprintf("%s://%s:%s@%s:%s",
		envFallback(cfg.MongoURI, "mongodb"), cfg.MongoDBUser, cfg.MongoDBPass, cfg.MongoDBHost, cfg.MongoDBPort)

	return &mongo.Connection{
		ConnectionStringSource: source,
		Database:               cfg.MongoDBName,
	}
}

func buildRedisConnection(cfg *Config) *rediscache.Connection {
	protocol := envFallback(cfg.RedisProtocol, "redis")

	source := fmt.Sprintf("%s://%s:%s/%d",
		protocol, cfg.RedisHost, cfg.RedisPort, cfg.RedisDB)
	if cfg.RedisURI != "" {
		source = cfg.RedisURI
	}

	return &rediscache.Connection{ConnectionStringSource: source}
}

func buildNotifyConnection(cfg *Config) *notifybus.Connection {
	source := fmt.Sprintf("amqp://%s:%s@%s:%s/",
		cfg.RabbitMQUser, cfg.RabbitMQPass, cfg.RabbitMQHost, cfg.RabbitMQPort)

	exchange := envFallback(cfg.RabbitMQExchange, "mutgos.entity.changes")

	return &notifybus.Connection{
		ConnectionStringSource: source,
		Exchange:               exchange,
	}
}

// InitService builds a Service from cfg: it connects the backend named
// by cfg.DBBackend, optionally wires a rediscache eviction hinter and a
// notifybus publisher, and returns the ready-to-use dbaccess facade.
func InitService(ctx context.Context, cfg *Config) (*Service, error) {
	logger := mzap.InitializeLogger()

	svc := &Service{Logger: logger}

	var backend dbinterface.DbBackend

	switch cfg.DBBackend {
	case "mongo":
		conn := buildMongoConnection(cfg)
		conn.Log = logger

		if err := conn.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connecting mongo backend: %w", err)
		}

		mb := mongo.New(conn)
		if err := mb.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("ensuring mongo indexes: %w", err)
		}

		backend = mb
		svc.closers = append(svc.closers, func() error { conn.Connected = false; return conn.DB.Disconnect(ctx) })

	case "", "postgres":
		conn := buildPostgresConnection(cfg)
		conn.Log = logger

		if err := conn.Connect(); err != nil {
			return nil, fmt.Errorf("connecting postgres backend: %w", err)
		}

		backend = postgres.New(conn)
		svc.closers = append(svc.closers, func() error {
			db, err := conn.GetDB(ctx)
			if err != nil {
				return nil
			}

			return db.Close()
		})

	default:
		return nil, fmt.Errorf("unknown DB_BACKEND %q", cfg.DBBackend)
	}

	access := dbaccess.New(backend, logger)

	if cfg.RedisEnabled {
		conn := buildRedisConnection(cfg)
		conn.Log = logger

		if err := conn.Connect(ctx); err != nil {
			return nil, fmt.Errorf("connecting redis eviction hinter: %w", err)
		}

		svc.Eviction = rediscache.New(conn)
		svc.closers = append(svc.closers, func() error { return conn.Client.Close() })
	}

	if cfg.RabbitMQEnabled {
		conn := buildNotifyConnection(cfg)
		conn.Log = logger

		if err := conn.Connect(); err != nil {
			return nil, fmt.Errorf("connecting notifybus publisher: %w", err)
		}

		access.SetNotifier(notifybus.New(conn))
		svc.closers = append(svc.closers, conn.Close)
	}

	svc.Access = access

	return svc, nil
}
