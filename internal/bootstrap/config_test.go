package bootstrap

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvFallback(t *testing.T) {
	tests := []struct {
		name     string
		prefixed string
		fallback string
		want     string
	}{
		{name: "prefixed non-empty returns prefixed", prefixed: "prefixed-value", fallback: "fallback-value", want: "prefixed-value"},
		{name: "prefixed empty returns fallback", prefixed: "", fallback: "fallback-value", want: "fallback-value"},
		{name: "both empty returns empty", prefixed: "", fallback: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, envFallback(tt.prefixed, tt.fallback))
		})
	}
}

func TestEnvFallbackInt(t *testing.T) {
	tests := []struct {
		name     string
		prefixed int
		fallback int
		want     int
	}{
		{name: "prefixed non-zero returns prefixed", prefixed: 10, fallback: 5, want: 10},
		{name: "prefixed zero returns fallback", prefixed: 0, fallback: 5, want: 5},
		{name: "both zero returns zero", prefixed: 0, fallback: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, envFallbackInt(tt.prefixed, tt.fallback))
		})
	}
}

func TestBuildPostgresConnection_PrefixedFallback(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *Config
		wantPrimary string
		wantReplica string
	}{
		{
			name: "replica falls back to primary fields when unset",
			cfg: &Config{
				PrimaryDBHost:     "primary-host",
				PrimaryDBUser:     "primary-user",
				PrimaryDBPassword: "primary-pass",
				PrimaryDBName:     "primary-db",
				PrimaryDBPort:     "5432",
			},
			wantPrimary: "host=primary-host user=primary-user password=primary-pass dbname=primary-db port=5432 sslmode=disable",
			wantReplica: "host=primary-host user=primary-user password=primary-pass dbname=primary-db port=5432 sslmode=disable",
		},
		{
			name: "replica fields override the primary-derived fallback",
			cfg: &Config{
				PrimaryDBHost: "primary-host",
				PrimaryDBPort: "5432",
				ReplicaDBHost: "replica-host",
				ReplicaDBPort: "5433",
			},
			wantPrimary: "host=primary-host user= password= dbname= port=5432 sslmode=disable",
			wantReplica: "host=replica-host user= password= dbname= port=5433 sslmode=disable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conn := buildPostgresConnection(tt.cfg)
			assert.Equal(t, tt.wantPrimary, conn.ConnectionStringPrimary)
			assert.Equal(t, tt.wantReplica, conn.ConnectionStringReplica)
			assert.Equal(t, tt.cfg.PrimaryDBName, conn.PrimaryDBName)
		})
	}
}

func TestBuildNotifyConnection_DefaultsExchange(t *testing.T) {
	conn := buildNotifyConnection(&Config{RabbitMQHost: "localhost", RabbitMQPort: "5672"})
	assert.Equal(t, "mutgos.entity.changes", conn.Exchange)
	assert.Contains(t, conn.ConnectionStringSource, "amqp://")
}

func TestBuildRedisConnection_PrefersExplicitURI(t *testing.T) {
	conn := buildRedisConnection(&Config{RedisURI: "redis://explicit:6379/0", RedisHost: "ignored"})
	assert.Equal(t, "redis://explicit:6379/0", conn.ConnectionStringSource)
}
