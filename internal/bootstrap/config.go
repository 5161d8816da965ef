// Package bootstrap wires the env-driven Config into a running Service:
// the backend chosen by DB_BACKEND, an optional rediscache eviction
// hinter, an optional notifybus publisher, and the dbaccess facade that
// sits on top of all three. Grounded on
// components/consumer/internal/bootstrap/config.go (the Config-struct/
// connection-string-building shape) and
// components/onboarding/internal/bootstrap/config_test.go (the
// envFallback/envFallbackInt prefixed-override pattern), both read from
// the teacher tree.
package bootstrap

import (
	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	"github.com/joho/godotenv"
)

// ApplicationName identifies this service to loggers and connections.
const ApplicationName = "mutgosdb"

// Config is the full set of environment variables a mutgosdb process
// can be configured with. Every field is optional; zero values fall
// back to the defaults InitService applies.
type Config struct {
	EnvName  string `env:"ENV_NAME"`
	LogLevel string `env:"LOG_LEVEL"`

	// DBBackend selects which dbinterface.DbBackend implementation
	// backs the service: "postgres" (default) or "mongo".
	DBBackend string `env:"DB_BACKEND"`

	PrimaryDBHost     string `env:"DB_HOST"`
	PrimaryDBUser     string `env:"DB_USER"`
	PrimaryDBPassword string `env:"DB_PASSWORD"`
	PrimaryDBName     string `env:"DB_NAME"`
	PrimaryDBPort     string `env:"DB_PORT"`

	ReplicaDBHost     string `env:"DB_REPLICA_HOST"`
	ReplicaDBUser     string `env:"DB_REPLICA_USER"`
	ReplicaDBPassword string `env:"DB_REPLICA_PASSWORD"`
	ReplicaDBName     string `env:"DB_REPLICA_NAME"`
	ReplicaDBPort     string `env:"DB_REPLICA_PORT"`

	MongoURI     string `env:"MONGO_URI"`
	MongoDBName  string `env:"MONGO_NAME"`
	MongoDBUser  string `env:"MONGO_USER"`
	MongoDBPass  string `env:"MONGO_PASSWORD"`
	MongoDBHost  string `env:"MONGO_HOST"`
	MongoDBPort  string `env:"MONGO_PORT"`

	// RedisEnabled turns on the rediscache eviction hinter layered over
	// every site's SiteCache. Disabled by default: SiteCache already
	// works with no external hint, per its own contract.
	RedisEnabled  bool   `env:"REDIS_ENABLED"`
	RedisURI      string `env:"REDIS_URI"`
	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     string `env:"REDIS_PORT"`
	RedisDB       int    `env:"REDIS_DB"`
	RedisProtocol string `env:"REDIS_PROTOCOL"`

	// RabbitMQEnabled turns on publishing the change-notification
	// stream described in spec §5. Disabled by default: CommitAll's
	// Notifier is optional and a nil Notifier is a silent no-op.
	RabbitMQEnabled  bool   `env:"RABBITMQ_ENABLED"`
	RabbitMQURI      string `env:"RABBITMQ_URI"`
	RabbitMQHost     string `env:"RABBITMQ_HOST"`
	RabbitMQPort     string `env:"RABBITMQ_PORT_AMQP"`
	RabbitMQUser     string `env:"RABBITMQ_DEFAULT_USER"`
	RabbitMQPass     string `env:"RABBITMQ_DEFAULT_PASS"`
	RabbitMQExchange string `env:"RABBITMQ_EXCHANGE"`

	MigrationsPath string `env:"DB_MIGRATIONS_PATH"`
}

// envFallback returns prefixed if it is non-empty, otherwise fallback.
// It exists so a deployment can override a single field (say, a
// per-tenant replica host) without having to restate every other
// connection field.
func envFallback(prefixed, fallback string) string {
	if prefixed != "" {
		return prefixed
	}

	return fallback
}

// envFallbackInt is envFallback for int-valued fields.
func envFallbackInt(prefixed, fallback int) int {
	if prefixed != 0 {
		return prefixed
	}

	return fallback
}

// LoadConfig reads .env (if present) and populates a Config from the
// process environment.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := libCommons.SetConfigFromEnvVars(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
