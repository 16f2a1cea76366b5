package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode            string        `mapstructure:"mode"`
	Port            int           `mapstructure:"port"`
	LogLevel        string        `mapstructure:"log_level"`
	ReadLimit       int64         `mapstructure:"read_limit"`
	PingPeriod      time.Duration `mapstructure:"ping_period"`
	Secret          string        `mapstructure:"secret"`
	SendBuffer      int           `mapstructure:"send_buffer"`
	RoomTTL         time.Duration `mapstructure:"room_ttl"`
	ReapSchedule    string        `mapstructure:"reap_schedule"`
	DisconnectGrace time.Duration `mapstructure:"disconnect_grace"`
	Backpressure    string        `mapstructure:"backpressure"`

	RateLimit   RateLimitConfig   `mapstructure:"rate_limit"`
	Persistence PersistenceConfig `mapstructure:"persistence"`
	NATS        NATSConfig        `mapstructure:"nats"`
}

type RateLimitConfig struct {
	Max    int           `mapstructure:"max"`
	Window time.Duration `mapstructure:"window"`
}

// PersistenceConfig selects the document store: "buntdb" (Path, ":memory:"
// allowed), "sqlite" or "postgres" (DSN).
type PersistenceConfig struct {
	Type       string `mapstructure:"type"`
	Path       string `mapstructure:"path"`
	DSN        string `mapstructure:"dsn"`
	MaxRetries uint   `mapstructure:"max_retries"`
}

// NATSConfig enables domain event publishing when URL is set.
type NATSConfig struct {
	URL           string `mapstructure:"url"`
	SubjectPrefix string `mapstructure:"subject_prefix"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("log_level", "info")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("send_buffer", 64)
	v.SetDefault("room_ttl", "24h")
	v.SetDefault("reap_schedule", "@every 1m")
	v.SetDefault("disconnect_grace", "0s")
	v.SetDefault("backpressure", "disconnect")
	v.SetDefault("rate_limit.max", 20)
	v.SetDefault("rate_limit.window", "1s")
	v.SetDefault("persistence.type", "buntdb")
	v.SetDefault("persistence.path", ":memory:")
	v.SetDefault("persistence.max_retries", 5)
	v.SetDefault("nats.subject_prefix", "live")
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvPrefix("LIVE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.SendBuffer <= 0 {
		return nil, fmt.Errorf("send_buffer must be positive, got %d", cfg.SendBuffer)
	}
	if cfg.RoomTTL <= 0 {
		return nil, fmt.Errorf("room_ttl must be positive, got %s", cfg.RoomTTL)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Store: %s\n", cfg.Mode, cfg.Port, cfg.Persistence.Type)
	return &cfg, nil
}
