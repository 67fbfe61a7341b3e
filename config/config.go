package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	ListenAddr  string  `envconfig:"LISTEN_ADDR" default:":8710" mapstructure:"listen_addr"`
	RateLimit   float64 `envconfig:"RATE_LIMIT" default:"50" mapstructure:"rate_limit"`
	RateBurst   int     `envconfig:"RATE_BURST" default:"100" mapstructure:"rate_burst"`
	MetricsPath string  `envconfig:"METRICS_PATH" default:"/metrics" mapstructure:"metrics_path"`
}

type BackendConfig struct {
	URL           string        `envconfig:"BACKEND_URL" default:"http://localhost:8001" validate:"required,url" mapstructure:"url"`
	SubmitTimeout time.Duration `envconfig:"SUBMIT_TIMEOUT" default:"10s" mapstructure:"submit_timeout"`
}

type GeocodingConfig struct {
	APIKey         string `envconfig:"GOOGLE_MAPS_API_KEY" mapstructure:"api_key"`
	BaseURL        string `envconfig:"GEOCODE_BASE_URL" default:"https://maps.googleapis.com/maps/api/geocode/json" mapstructure:"base_url"`
	Language       string `envconfig:"GEOCODE_LANGUAGE" default:"ar" mapstructure:"language"`
	DefaultCountry string `envconfig:"DEFAULT_COUNTRY" default:"Egypt" mapstructure:"default_country"`
}

type PositionConfig struct {
	// Source selects the position provider: "static" reports the fixed
	// coordinates below, "none" leaves every record without a location.
	Source         string        `envconfig:"POSITION_SOURCE" default:"none" validate:"oneof=none static" mapstructure:"source"`
	Latitude       float64       `envconfig:"POSITION_LAT" mapstructure:"latitude"`
	Longitude      float64       `envconfig:"POSITION_LNG" mapstructure:"longitude"`
	AcquireTimeout time.Duration `envconfig:"POSITION_TIMEOUT" default:"15s" mapstructure:"acquire_timeout"`
	MaxAge         time.Duration `envconfig:"POSITION_MAX_AGE" default:"5m" mapstructure:"max_age"`
}

type RetryConfig struct {
	Interval    time.Duration `envconfig:"RETRY_INTERVAL" default:"5s" mapstructure:"interval"`
	MaxAttempts int           `envconfig:"RETRY_MAX_ATTEMPTS" default:"3" validate:"min=1" mapstructure:"max_attempts"`
}

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Backend   BackendConfig   `mapstructure:"backend"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
	Position  PositionConfig  `mapstructure:"position"`
	Retry     RetryConfig     `mapstructure:"retry"`
	TokenDir  string          `envconfig:"TOKEN_DIR" mapstructure:"token_dir"`
	LogLevel  string          `envconfig:"LOG_LEVEL" default:"info" mapstructure:"log_level"`
}

// LoadConfig builds the agent configuration: envconfig defaults and
// environment variables (BACKEND_URL, GOOGLE_MAPS_API_KEY, POSITION_SOURCE,
// ...) first, then an optional YAML file named by AGENT_CONFIG_FILE
// overriding whatever keys it sets.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("agent", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if file := os.Getenv("AGENT_CONFIG_FILE"); file != "" {
		v := viper.New()
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := v.Unmarshal(&cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	}

	if cfg.TokenDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve home directory: %w", err)
		}
		cfg.TokenDir = filepath.Join(home, ".medforce", "agent")
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}
