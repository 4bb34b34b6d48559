package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	STORAGE_BACKEND_FILESYSTEM = "filesystem"
	STORAGE_BACKEND_GCS        = "gcs"
)

// BaseConfig holds base configuration
type BaseConfig struct {
	Debug     bool   `mapstructure:"debug"`
	SentryDSN string `mapstructure:"sentry_dsn"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`     // Maximum number of open connections to the database
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`     // Maximum number of idle connections in the pool
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`  // e.g. "5m", "1h"
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"` // e.g. "10m", "30m"
}

// NATSConfig holds NATS JetStream configuration
type NATSConfig struct {
	URL            string        `mapstructure:"url"`
	StreamName     string        `mapstructure:"stream_name"`
	ConsumerName   string        `mapstructure:"consumer_name"`
	FilterSubject  string        `mapstructure:"filter_subject"`
	PublishPrefix  string        `mapstructure:"publish_prefix"`
	MaxReconnects  int           `mapstructure:"max_reconnects"`
	ReconnectWait  time.Duration `mapstructure:"reconnect_wait"`
	ConnectionName string        `mapstructure:"connection_name"`
	AckWait        time.Duration `mapstructure:"ack_wait"`
	MaxDeliver     int           `mapstructure:"max_deliver"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	ReadTimeout  int    `mapstructure:"read_timeout"`  // in seconds
	WriteTimeout int    `mapstructure:"write_timeout"` // in seconds
	IdleTimeout  int    `mapstructure:"idle_timeout"`  // in seconds
}

// MediaConfig describes the host platform media directory
type MediaConfig struct {
	// Root is the local media directory (originals and native cache files)
	Root string `mapstructure:"root"`
	// BaseURL is the public URL of Root
	BaseURL string `mapstructure:"base_url"`
	// CacheLayout is "hashed" (2.1.x and later) or "scoped" (2.0.x)
	CacheLayout string `mapstructure:"cache_layout"`
	StoreID     int    `mapstructure:"store_id"`
}

// StorageConfig selects where optimized artifacts are written
type StorageConfig struct {
	Backend string `mapstructure:"backend"`
	Bucket  string `mapstructure:"bucket"`
	Prefix  string `mapstructure:"prefix"`
	// BaseURL is the public URL of the artifact root, including Prefix
	// (e.g. "https://storage.googleapis.com/<bucket>/<prefix>"). Empty means media.base_url.
	BaseURL string `mapstructure:"base_url"`
}

// TinifyConfig holds the compression API client configuration
type TinifyConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// OptimizerConfig holds orchestrator settings
type OptimizerConfig struct {
	// KeyMode is "path" or "content"
	KeyMode       string        `mapstructure:"key_mode"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryInterval time.Duration `mapstructure:"retry_interval"`
	PoolSize      int           `mapstructure:"pool_size"`
}

// AuthConfig holds credentials accepted on write endpoints
type AuthConfig struct {
	JWTPublicKey string   `mapstructure:"jwt_public_key"` // PEM encoded RSA public key
	APIKeys      []string `mapstructure:"api_keys"`
}

// APIConfig holds configuration for API server
type APIConfig struct {
	BaseConfig `mapstructure:",squash"`
	Server     ServerConfig    `mapstructure:"server"`
	Auth       AuthConfig      `mapstructure:"auth"`
	Database   DatabaseConfig  `mapstructure:"database"`
	Media      MediaConfig     `mapstructure:"media"`
	Storage    StorageConfig   `mapstructure:"storage"`
	Tinify     TinifyConfig    `mapstructure:"tinify"`
	Optimizer  OptimizerConfig `mapstructure:"optimizer"`
}

// WorkerConfig holds configuration for worker-optimizer
type WorkerConfig struct {
	BaseConfig `mapstructure:",squash"`
	Database   DatabaseConfig  `mapstructure:"database"`
	NATS       NATSConfig      `mapstructure:"nats"`
	Media      MediaConfig     `mapstructure:"media"`
	Storage    StorageConfig   `mapstructure:"storage"`
	Tinify     TinifyConfig    `mapstructure:"tinify"`
	Optimizer  OptimizerConfig `mapstructure:"optimizer"`
}

// LoadAPIConfig loads configuration for API server
func LoadAPIConfig(configFile string, envPath string) (*APIConfig, error) {
	v := configureViper("api", configFile, envPath)

	// Set defaults
	v.SetDefault("debug", false)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", 10)
	v.SetDefault("server.write_timeout", 60)
	v.SetDefault("server.idle_timeout", 120)
	setCommonDefaults(v)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config APIConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(config.Media, config.Storage); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadWorkerConfig loads configuration for worker-optimizer
func LoadWorkerConfig(configFile string, envPath string) (*WorkerConfig, error) {
	v := configureViper("worker-optimizer", configFile, envPath)

	// Set defaults
	v.SetDefault("nats.max_reconnects", 10)
	v.SetDefault("nats.reconnect_wait", "2s")
	v.SetDefault("nats.stream_name", "IMAGE_EVENTS")
	v.SetDefault("nats.consumer_name", "image-optimizer")
	v.SetDefault("nats.filter_subject", "images.saved.>")
	v.SetDefault("nats.publish_prefix", "images.optimized")
	v.SetDefault("nats.connection_name", "worker-optimizer")
	v.SetDefault("nats.ack_wait", "2m")
	v.SetDefault("nats.max_deliver", 5)
	setCommonDefaults(v)

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var config WorkerConfig
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(config.Media, config.Storage); err != nil {
		return nil, err
	}

	return &config, nil
}

func setCommonDefaults(v *viper.Viper) {
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("media.root", "pub/media")
	v.SetDefault("media.base_url", "/media")
	v.SetDefault("media.cache_layout", "hashed")
	v.SetDefault("media.store_id", 1)
	v.SetDefault("storage.backend", STORAGE_BACKEND_FILESYSTEM)
	v.SetDefault("tinify.endpoint", "https://api.tinify.com")
	v.SetDefault("tinify.timeout", "60s")
	v.SetDefault("optimizer.key_mode", "path")
	v.SetDefault("optimizer.max_retries", 0)
	v.SetDefault("optimizer.retry_interval", "2s")
	v.SetDefault("optimizer.pool_size", 4)
}

// readConfig reads the config file; a missing file leaves environment variables and defaults
func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}

func validate(media MediaConfig, storage StorageConfig) error {
	if media.Root == "" {
		return errors.New("media.root is required")
	}
	switch storage.Backend {
	case STORAGE_BACKEND_FILESYSTEM:
	case STORAGE_BACKEND_GCS:
		if storage.Bucket == "" {
			return errors.New("storage.bucket is required for the gcs backend")
		}
		if storage.BaseURL == "" {
			return errors.New("storage.base_url is required for the gcs backend")
		}
	default:
		return fmt.Errorf("unknown storage.backend %q", storage.Backend)
	}
	return nil
}

// configureViper returns a viper instance with the config file and environment variables set
func configureViper(service string, configFile string, envPath string) *viper.Viper {
	v := viper.New()

	// Load environment variables
	loadEnv(envPath, service)

	// Set config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		// Search for config.yaml in multiple locations:
		// 1. Current directory
		v.AddConfigPath(".")
		// 2. Service-specific directory (e.g., cmd/api/)
		v.AddConfigPath(fmt.Sprintf("cmd/%s/", service))
		// 3. Config directory
		v.AddConfigPath("config/")
	}

	// Set environment variables
	v.SetEnvPrefix("FF_OPTIMIZER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicitly bind all environment variables
	bindAllEnvVars(v)
	return v
}

// bindAllEnvVars explicitly binds all possible environment variables
// This is required for viper to map env vars to config struct fields when no config file exists
func bindAllEnvVars(v *viper.Viper) {
	keys := []string{
		"debug",
		"sentry_dsn",
		// Database
		"database.host",
		"database.port",
		"database.user",
		"database.password",
		"database.dbname",
		"database.sslmode",
		"database.max_open_conns",
		"database.max_idle_conns",
		"database.conn_max_lifetime",
		"database.conn_max_idle_time",
		// NATS
		"nats.url",
		"nats.stream_name",
		"nats.consumer_name",
		"nats.filter_subject",
		"nats.publish_prefix",
		"nats.max_reconnects",
		"nats.reconnect_wait",
		"nats.connection_name",
		"nats.ack_wait",
		"nats.max_deliver",
		// Server
		"server.host",
		"server.port",
		"server.read_timeout",
		"server.write_timeout",
		"server.idle_timeout",
		// Auth
		"auth.jwt_public_key",
		"auth.api_keys",
		// Media
		"media.root",
		"media.base_url",
		"media.cache_layout",
		"media.store_id",
		// Storage
		"storage.backend",
		"storage.bucket",
		"storage.prefix",
		"storage.base_url",
		// Tinify
		"tinify.endpoint",
		"tinify.timeout",
		// Optimizer
		"optimizer.key_mode",
		"optimizer.max_retries",
		"optimizer.retry_interval",
		"optimizer.pool_size",
	}

	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// loadEnv loads environment variables from the config directory
func loadEnv(envPath string, service string) {
	// Always try shared base first, then local, then optional per-service local.
	envFiles := []string{".env", ".env.local"}
	if service != "" {
		envFiles = append(envFiles, ".env."+service+".local")
	}

	// Default to config directory
	if envPath == "" {
		envPath = "config/"
	}

	for _, envFile := range envFiles {
		candidate := filepath.Join(envPath, envFile)
		_ = godotenv.Overload(candidate) // Overload lets later files override earlier ones
	}
}

// ChdirRepoRoot changes the current working directory to the repository root
func ChdirRepoRoot() {
	cwd, _ := os.Getwd()
	for range 5 {
		if _, err := os.Stat(filepath.Join(cwd, "config")); err == nil {
			_ = os.Chdir(cwd)
			return
		}
		cwd = filepath.Dir(cwd)
	}
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}
