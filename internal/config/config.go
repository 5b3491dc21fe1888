package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" envPrefix:"SERVER_"`
	Auth      AuthConfig      `yaml:"auth" envPrefix:"AUTH_"`
	Store     StoreConfig     `yaml:"store" envPrefix:"STORE_"`
	Redis     RedisConfig     `yaml:"redis" envPrefix:"REDIS_"`
	Postgres  PostgresConfig  `yaml:"postgres" envPrefix:"POSTGRES_"`
	Kafka     KafkaConfig     `yaml:"kafka" envPrefix:"KAFKA_"`
	Cleanup   CleanupConfig   `yaml:"cleanup" envPrefix:"CLEANUP_"`
	Presence  PresenceConfig  `yaml:"presence" envPrefix:"PRESENCE_"`
	World     WorldConfig     `yaml:"world" envPrefix:"WORLD_"`
	WebSocket WebSocketConfig `yaml:"websocket" envPrefix:"WEBSOCKET_"`
	Metrics   MetricsConfig   `yaml:"metrics" envPrefix:"METRICS_"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" env:"PORT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"IDLE_TIMEOUT"`
}

// AuthConfig holds the static bearer key shared by all clients.
// An empty key disables the check.
type AuthConfig struct {
	AnonKey    string `yaml:"anon_key" env:"ANON_KEY"`
	BcryptCost int    `yaml:"bcrypt_cost" env:"BCRYPT_COST"`
}

// StoreConfig selects the PresenceStore backend
type StoreConfig struct {
	Backend string `yaml:"backend" env:"BACKEND"` // "redis" or "memory"
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Addr         string        `yaml:"addr" env:"ADDR"`
	Password     string        `yaml:"password" env:"PASSWORD"`
	DB           int           `yaml:"db" env:"DB"`
	PoolSize     int           `yaml:"pool_size" env:"POOL_SIZE"`
	MinIdleConns int           `yaml:"min_idle_conns" env:"MIN_IDLE_CONNS"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"DIAL_TIMEOUT"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT"`
	ScanCount    int64         `yaml:"scan_count" env:"SCAN_COUNT"`
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Enabled         bool          `yaml:"enabled" env:"ENABLED"`
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	User            string        `yaml:"user" env:"USER"`
	Password        string        `yaml:"password" env:"PASSWORD"`
	Database        string        `yaml:"database" env:"DATABASE"`
	SSLMode         string        `yaml:"ssl_mode" env:"SSL_MODE"`
	MaxConnections  int           `yaml:"max_connections" env:"MAX_CONNECTIONS"`
	MinConnections  int           `yaml:"min_connections" env:"MIN_CONNECTIONS"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime" env:"MAX_CONN_LIFETIME"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time" env:"MAX_CONN_IDLE_TIME"`
}

// ConnectionString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode,
	)
}

// KafkaConfig holds Kafka connection configuration for battle-result ingestion
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers" env:"BROKERS" envSeparator:","`
	Topic        string        `yaml:"topic" env:"TOPIC"`
	GroupID      string        `yaml:"group_id" env:"GROUP_ID"`
	Enabled      bool          `yaml:"enabled" env:"ENABLED"`
	BatchSize    int           `yaml:"batch_size" env:"BATCH_SIZE"`
	BatchTimeout time.Duration `yaml:"batch_timeout" env:"BATCH_TIMEOUT"`
}

// CleanupConfig holds the staleness sweep schedule
type CleanupConfig struct {
	Interval time.Duration `yaml:"interval" env:"INTERVAL"`
	Enabled  bool          `yaml:"enabled" env:"ENABLED"`
}

// PresenceConfig holds the two staleness thresholds. They are intentionally
// independent values.
type PresenceConfig struct {
	ActiveTTL time.Duration `yaml:"active_ttl" env:"ACTIVE_TTL"`
	ExpiryTTL time.Duration `yaml:"expiry_ttl" env:"EXPIRY_TTL"`
}

// WorldConfig describes the map geometry shared by server clamping and clients
type WorldConfig struct {
	MapWidth   int     `yaml:"map_width" env:"MAP_WIDTH"`
	MapHeight  int     `yaml:"map_height" env:"MAP_HEIGHT"`
	TileSize   float64 `yaml:"tile_size" env:"TILE_SIZE"`
	PlayerSize float64 `yaml:"player_size" env:"PLAYER_SIZE"`
}

// WebSocketConfig toggles the leaderboard feed
type WebSocketConfig struct {
	Enabled bool `yaml:"enabled" env:"ENABLED"`
}

// MetricsConfig toggles the Prometheus endpoint
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"ENABLED"`
	Path    string `yaml:"path" env:"PATH"`
}

// envPrefix namespaces all environment overrides
const envPrefix = "QUIZWORLD_"

// Load reads configuration from a YAML file, then applies environment overrides
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// FromEnv builds a configuration from defaults and environment variables only
func FromEnv() (*Config, error) {
	cfg := &Config{}
	cfg.Cleanup.Enabled = true
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parsing environment: %w", err)
	}
	return nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	if c.Auth.BcryptCost == 0 {
		c.Auth.BcryptCost = 10
	}

	if c.Store.Backend == "" {
		c.Store.Backend = "redis"
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 100
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 10
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}
	if c.Redis.ScanCount == 0 {
		c.Redis.ScanCount = 200
	}

	// PostgreSQL defaults
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.MaxConnections == 0 {
		c.Postgres.MaxConnections = 20
	}
	if c.Postgres.MinConnections == 0 {
		c.Postgres.MinConnections = 2
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = 1 * time.Hour
	}
	if c.Postgres.MaxConnIdleTime == 0 {
		c.Postgres.MaxConnIdleTime = 30 * time.Minute
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "gym-results"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "quiz-world-leaderboard"
	}
	if c.Kafka.BatchSize == 0 {
		c.Kafka.BatchSize = 50
	}
	if c.Kafka.BatchTimeout == 0 {
		c.Kafka.BatchTimeout = 1 * time.Second
	}

	if c.Cleanup.Interval == 0 {
		c.Cleanup.Interval = 5 * time.Minute
	}

	if c.Presence.ActiveTTL == 0 {
		c.Presence.ActiveTTL = 120 * time.Second
	}
	if c.Presence.ExpiryTTL == 0 {
		c.Presence.ExpiryTTL = 3600 * time.Second
	}

	if c.World.MapWidth == 0 {
		c.World.MapWidth = 50
	}
	if c.World.MapHeight == 0 {
		c.World.MapHeight = 40
	}
	if c.World.TileSize == 0 {
		c.World.TileSize = 40
	}
	if c.World.PlayerSize == 0 {
		c.World.PlayerSize = 30
	}

	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Cleanup.Enabled = true
	return cfg
}
