package config

import "time"

// DBConfig contains PostgreSQL database configuration for the external
// user store and permission tables.
type DBConfig struct {
	Host     string `env:"HOST"     envDefault:"localhost"`
	Port     int    `env:"PORT"     envDefault:"5432"`
	User     string `env:"USER"     envDefault:"apg"`
	Password string `env:"PASSWORD" envDefault:"apg"`
	Name     string `env:"NAME"     envDefault:"apg_dashboard"`
	SSLMode  string `env:"SSL_MODE" envDefault:"disable"` // Use 'disable' for local dev, 'require' for production
}

// RedisConfig contains Redis configuration shared by the session and
// cache stores. Sessions and cache live in separate logical databases so
// that a cache flush can never touch login state.
type RedisConfig struct {
	URI                string        `env:"URI"                  envDefault:"localhost:6379"`
	Password           string        `env:"PASSWORD"             envDefault:""`
	SessionDB          int           `env:"SESSION_DB"           envDefault:"0"`
	CacheDB            int           `env:"CACHE_DB"             envDefault:"1"`
	ConnectTimeout     time.Duration `env:"CONNECT_TIMEOUT"      envDefault:"5s"`
	OperationTimeout   time.Duration `env:"OP_TIMEOUT"           envDefault:"5s"`
	SentinelNodes      []string      `env:"SENTINEL_NODES"       envDefault:"localhost:26379"`
	SentinelMasterName string        `env:"SENTINEL_MASTER_NAME" envDefault:"mymaster"`
	SentinelPassword   string        `env:"SENTINEL_PASSWORD"    envDefault:""`
	UseSentinel        bool          `env:"USE_SENTINEL"         envDefault:"false"`
}

// Sanitize applies guardrails to Redis configuration values.
func (r *RedisConfig) Sanitize() {
	if r.ConnectTimeout <= 0 {
		r.ConnectTimeout = 5 * time.Second
	}
	if r.OperationTimeout <= 0 {
		r.OperationTimeout = 5 * time.Second
	}
	if r.SessionDB < 0 {
		r.SessionDB = 0
	}
	if r.CacheDB < 0 {
		r.CacheDB = 1
	}
}

// CacheConfig contains cache store configuration.
type CacheConfig struct {
	// DefaultTTL applies to cache entries stored without an explicit TTL.
	DefaultTTL time.Duration `env:"CACHE_DEFAULT_TTL" envDefault:"1h"`
}

// Sanitize applies guardrails to cache configuration values.
func (c *CacheConfig) Sanitize() {
	if c.DefaultTTL <= 0 {
		c.DefaultTTL = time.Hour
	}
}
