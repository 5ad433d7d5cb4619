package util

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/spf13/viper"
)

const (
	DeliveryModeDirect = "direct"
	DeliveryModeQueue  = "queue"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Environment          string        `mapstructure:"ENVIRONMENT"`
	LogLevel             string        `mapstructure:"LOG_LEVEL"`
	HTTPServerAddress    string        `mapstructure:"HTTP_SERVER_ADDRESS"`
	AllowedOrigins       []string      `mapstructure:"ALLOWED_ORIGINS"`
	APIToken             string        `mapstructure:"API_TOKEN"`
	RedisServerAddress   string        `mapstructure:"REDIS_SERVER_ADDRESS"`
	RedisPassword        string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB              int           `mapstructure:"REDIS_DB"`
	EventServer          string        `mapstructure:"EVENT_SERVER"`
	ConfigServer         string        `mapstructure:"CONFIG_SERVER"`
	DeliveryScheme       string        `mapstructure:"DELIVERY_SCHEME"`
	DeliveryTimeout      time.Duration `mapstructure:"DELIVERY_TIMEOUT"`
	DeliveryMode         string        `mapstructure:"DELIVERY_MODE"`
	DeliveryMaxRetry     int           `mapstructure:"DELIVERY_MAX_RETRY"`
	FlushDelay           time.Duration `mapstructure:"FLUSH_DELAY"`
	AuctionTTL           time.Duration `mapstructure:"AUCTION_TTL"`
	MaxQueueSize         int           `mapstructure:"MAX_QUEUE_SIZE"`
	SessionIdleTimeout   time.Duration `mapstructure:"SESSION_IDLE_TIMEOUT"`
	SessionSweepInterval time.Duration `mapstructure:"SESSION_SWEEP_INTERVAL"`
	VisitorTTL           time.Duration `mapstructure:"VISITOR_TTL"`
}

// IsDevelopment reports whether logs should be human readable.
func (config Config) IsDevelopment() bool {
	return config.Environment == "development"
}

// LoadConfig reads configuration from file or environment variables. A
// missing file is not an error; environment variables and defaults apply.
func LoadConfig(path string) (config Config, err error) {
	v := viper.New()

	// Set defaults for non-sensitive config
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HTTP_SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("ALLOWED_ORIGINS", []string{"http://localhost:3000"})
	v.SetDefault("API_TOKEN", "")
	v.SetDefault("REDIS_SERVER_ADDRESS", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("EVENT_SERVER", "pa.rxthdr.com/v3")
	v.SetDefault("CONFIG_SERVER", "pa.rxthdr.com/v3")
	v.SetDefault("DELIVERY_SCHEME", "https")
	v.SetDefault("DELIVERY_TIMEOUT", "5s")
	v.SetDefault("DELIVERY_MODE", DeliveryModeDirect)
	v.SetDefault("DELIVERY_MAX_RETRY", 3)
	v.SetDefault("FLUSH_DELAY", "1s")
	v.SetDefault("AUCTION_TTL", "1h")
	v.SetDefault("MAX_QUEUE_SIZE", 10000)
	v.SetDefault("SESSION_IDLE_TIMEOUT", "30m")
	v.SetDefault("SESSION_SWEEP_INTERVAL", "1m")
	v.SetDefault("VISITOR_TTL", "24h")

	// Prefer environment variables over config file
	v.AutomaticEnv()

	// Load config file
	v.SetConfigFile(path)
	if err = v.ReadInConfig(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return
		}
		err = nil
	}

	// Unmarshal config into struct
	err = v.UnmarshalExact(&config)
	if err != nil {
		return
	}

	// Validate required configuration
	err = validateConfig(config)
	return
}

func validateConfig(config Config) error {
	if config.HTTPServerAddress == "" {
		return fmt.Errorf("HTTP_SERVER_ADDRESS is required")
	}
	if config.RedisServerAddress == "" {
		return fmt.Errorf("REDIS_SERVER_ADDRESS is required")
	}
	if config.EventServer == "" {
		return fmt.Errorf("EVENT_SERVER is required")
	}
	if config.DeliveryScheme != "http" && config.DeliveryScheme != "https" {
		return fmt.Errorf("DELIVERY_SCHEME must be http or https, got %q", config.DeliveryScheme)
	}
	if config.DeliveryMode != DeliveryModeDirect && config.DeliveryMode != DeliveryModeQueue {
		return fmt.Errorf("DELIVERY_MODE must be %s or %s, got %q", DeliveryModeDirect, DeliveryModeQueue, config.DeliveryMode)
	}
	if config.DeliveryTimeout <= 0 {
		return fmt.Errorf("DELIVERY_TIMEOUT must be positive")
	}
	if config.FlushDelay <= 0 {
		return fmt.Errorf("FLUSH_DELAY must be positive")
	}
	if config.AuctionTTL <= 0 {
		return fmt.Errorf("AUCTION_TTL must be positive")
	}
	if config.MaxQueueSize < 0 {
		return fmt.Errorf("MAX_QUEUE_SIZE must not be negative")
	}
	if config.SessionIdleTimeout <= 0 || config.SessionSweepInterval <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT and SESSION_SWEEP_INTERVAL must be positive")
	}
	// visitor keys back one-hour windows (utm tags, new visitor flag)
	if config.VisitorTTL <= time.Hour {
		return fmt.Errorf("VISITOR_TTL must be longer than 1h, got %s", config.VisitorTTL)
	}

	return nil
}
