package config

import "time"

// Config holds all application configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"      validate:"required"`
	Database    DatabaseConfig    `mapstructure:"database"    validate:"required"`
	Redis       RedisConfig       `mapstructure:"redis"       validate:"required"`
	Mongo       MongoConfig       `mapstructure:"mongo"`
	Engine      EngineConfig      `mapstructure:"engine"      validate:"required"`
	Auth        AuthConfig        `mapstructure:"auth"        validate:"required"`
	Session     SessionConfig     `mapstructure:"session"     validate:"required"`
	Idempotency IdempotencyConfig `mapstructure:"idempotency" validate:"required"`
	Task        TaskConfig        `mapstructure:"task"        validate:"required"`
}

// ServerConfig defines HTTP server settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig defines the PostgreSQL connection.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// RedisConfig defines the session cache connection.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"     validate:"required,hostname_port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"       validate:"gte=0"`
}

// MongoConfig defines the API audit log sink. Auditing is skipped when
// Enabled is false.
type MongoConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	URI      string `mapstructure:"uri"      validate:"required_if=Enabled true"`
	Database string `mapstructure:"database" validate:"required_if=Enabled true"`
}

// EngineConfig defines how the remote task engine is reached.
// PingTimeout must not exceed CallTimeout.
type EngineConfig struct {
	Addr        string        `mapstructure:"addr"         validate:"required"`
	Service     string        `mapstructure:"service"      validate:"required"`
	PingTimeout time.Duration `mapstructure:"ping_timeout" validate:"gt=0,ltefield=CallTimeout"`
	CallTimeout time.Duration `mapstructure:"call_timeout" validate:"gt=0"`
}

// AuthConfig defines token signing and login throttling.
type AuthConfig struct {
	JWTSecret            string  `mapstructure:"jwt_secret"             validate:"required,min=32"`
	TokenLifetimeMinutes int     `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
	LoginRPS             float64 `mapstructure:"login_rps"              validate:"gt=0"`
	LoginBurst           int     `mapstructure:"login_burst"            validate:"gt=0"`
}

// SessionConfig defines the sliding session window.
type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

// IdempotencyConfig defines retention of cached responses.
type IdempotencyConfig struct {
	Retention     time.Duration `mapstructure:"retention"      validate:"gt=0"`
	SweepInterval time.Duration `mapstructure:"sweep_interval" validate:"gt=0"`
}

// TaskConfig defines the background runner.
type TaskConfig struct {
	WorkerCount  int `mapstructure:"worker_count"  validate:"gt=0"`
	QueueSize    int `mapstructure:"queue_size"    validate:"gt=0"`
	RecoverLimit int `mapstructure:"recover_limit" validate:"gte=0"`
}
