package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the service.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Engine    EngineConfig
	Indexer   IndexerConfig
	Organizer OrganizerConfig
	Scheduler SchedulerConfig
	Tracker   TrackerConfig
	NATS      NATSConfig
}

// ServerConfig holds process-level configuration.
type ServerConfig struct {
	Environment  string
	LogLevel     string
	ShutdownTime time.Duration
}

// DatabaseConfig holds durable store configuration.
type DatabaseConfig struct {
	Driver       string
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	SSLMode      string
	Path         string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
}

// EngineConfig holds download engine RPC configuration.
type EngineConfig struct {
	RPCURL      string
	Secret      string
	DownloadDir string
	Timeout     time.Duration
}

// IndexerConfig holds indexer aggregator configuration.
type IndexerConfig struct {
	URL     string
	APIKey  string
	Timeout time.Duration
}

// OrganizerConfig holds file organizer endpoint configuration.
type OrganizerConfig struct {
	URL     string
	Timeout time.Duration
}

// SchedulerConfig holds search scheduler tuning.
type SchedulerConfig struct {
	SearchInterval       time.Duration
	BatchSize            int
	BatchDelay           time.Duration
	SearchBackoff        time.Duration
	ExpiryInterval       time.Duration
	ExpiryWindow         time.Duration
	SearchLogRetention   time.Duration
	EpisodeFallbackCount int
}

// TrackerConfig holds progress tracker tuning.
type TrackerConfig struct {
	PollInterval time.Duration
}

// NATSConfig holds optional event relay configuration. Relay is disabled
// when URL is empty.
type NATSConfig struct {
	URL           string
	StreamName    string
	MaxReconnect  int
	ReconnectWait time.Duration
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Environment:  getEnv("ENVIRONMENT", "development"),
			LogLevel:     getEnv("LOG_LEVEL", "info"),
			ShutdownTime: getEnvAsDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			Driver:       getEnv("DB_DRIVER", "postgres"),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "harpoon"),
			Password:     getEnv("DB_PASSWORD", "harpoon"),
			Database:     getEnv("DB_NAME", "harpoon"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			Path:         getEnv("DB_PATH", "harpoon.db"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
		},
		Engine: EngineConfig{
			RPCURL:      getEnv("ENGINE_RPC_URL", "http://localhost:6800/jsonrpc"),
			Secret:      getEnv("ENGINE_RPC_SECRET", ""),
			DownloadDir: getEnv("ENGINE_DOWNLOAD_DIR", "/downloads"),
			Timeout:     getEnvAsDuration("ENGINE_TIMEOUT", 15*time.Second),
		},
		Indexer: IndexerConfig{
			URL:     getEnv("INDEXER_URL", "http://localhost:9696"),
			APIKey:  getEnv("INDEXER_API_KEY", ""),
			Timeout: getEnvAsDuration("INDEXER_TIMEOUT", 60*time.Second),
		},
		Organizer: OrganizerConfig{
			URL:     getEnv("ORGANIZER_URL", ""),
			Timeout: getEnvAsDuration("ORGANIZER_TIMEOUT", 30*time.Second),
		},
		Scheduler: SchedulerConfig{
			SearchInterval:       getEnvAsDuration("SEARCH_INTERVAL", 5*time.Minute),
			BatchSize:            getEnvAsInt("SEARCH_BATCH_SIZE", 3),
			BatchDelay:           getEnvAsDuration("SEARCH_BATCH_DELAY", 2*time.Second),
			SearchBackoff:        getEnvAsDuration("SEARCH_BACKOFF", 30*time.Minute),
			ExpiryInterval:       getEnvAsDuration("EXPIRY_INTERVAL", time.Hour),
			ExpiryWindow:         getEnvAsDuration("EXPIRY_WINDOW", 14*24*time.Hour),
			SearchLogRetention:   getEnvAsDuration("SEARCH_LOG_RETENTION", 30*24*time.Hour),
			EpisodeFallbackCount: getEnvAsInt("EPISODE_FALLBACK_COUNT", 3),
		},
		Tracker: TrackerConfig{
			PollInterval: getEnvAsDuration("TRACKER_POLL_INTERVAL", 30*time.Second),
		},
		NATS: NATSConfig{
			URL:           getEnv("NATS_URL", ""),
			StreamName:    getEnv("NATS_STREAM", "HARPOON"),
			MaxReconnect:  getEnvAsInt("NATS_MAX_RECONNECT", 60),
			ReconnectWait: getEnvAsDuration("NATS_RECONNECT_WAIT", 2*time.Second),
		},
	}

	return cfg, nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if strValue == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return defaultValue
}
