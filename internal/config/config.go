package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the main config struct
type Config struct {
	Environment string           `yaml:"environment" env:"ENVIRONMENT" env-default:"production" env-description:"Environment name"`
	Secret      string           `yaml:"secret" env:"SECRET" env-default:"" env-description:"Secret bearer token for the admin API"`
	Verbose     string           `yaml:"verbose" env:"VERBOSE" env-default:"info" env-description:"Verbose mode for debug output"`
	Database    DatabaseConfig   `yaml:"database"`
	API         APIConfig        `yaml:"api"`
	Moderation  ModerationConfig `yaml:"moderation"`
	Classifier  ClassifierConfig `yaml:"classifier"`
	Metrics     MetricsConfig    `yaml:"metrics"`
	Proxy       ProxyConfig      `yaml:"proxy"`
}

// API config
type APIConfig struct {
	Host         string        `yaml:"host" env:"API_HOST" env-default:"localhost" env-description:"API host address to bind to"`
	Port         int           `yaml:"port" env:"API_PORT" env-default:"8080" env-description:"API port to bind to"`
	Timeout      time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"30s"`
	ReadTimeout  time.Duration `yaml:"read_timeout" env:"API_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout time.Duration `yaml:"write_timeout" env:"API_WRITE_TIMEOUT" env-default:"10s"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" env:"API_IDLE_TIMEOUT" env-default:"15s"`
}

// SQLite, PostgreSQL or MySQL config
type DatabaseConfig struct {
	// Driver is the database driver to use. Supported drivers are "sqlite3", "postgres" and "mysql".
	Driver     string `yaml:"driver" env:"DATABASE_DRIVER" env-default:"sqlite3" env-description:"Database driver to use"`
	Connection string `yaml:"connection" env:"DATABASE_CONNECTION" env-default:":memory:" env-description:"Database connection string"`
}

// Enforcement ladder config
type ModerationConfig struct {
	StrikesForSuspension int           `yaml:"strikes_for_suspension" env:"MODERATION_STRIKES_FOR_SUSPENSION" env-default:"3" env-description:"Strikes that trigger a suspension"`
	SuspensionsForBan    int           `yaml:"suspensions_for_ban" env:"MODERATION_SUSPENSIONS_FOR_BAN" env-default:"3" env-description:"Suspensions that trigger a permanent ban"`
	SuspensionDuration   time.Duration `yaml:"suspension_duration" env:"MODERATION_SUSPENSION_DURATION" env-default:"168h" env-description:"Length of a temporary suspension"`
	DedupWindow          time.Duration `yaml:"dedup_window" env:"MODERATION_DEDUP_WINDOW" env-default:"10m" env-description:"Window during which a re-flagged content item is not recorded twice"`
	SweepInterval        time.Duration `yaml:"sweep_interval" env:"MODERATION_SWEEP_INTERVAL" env-default:"1m" env-description:"Interval between expiry sweeps over active suspensions"`
}

// Content-safety classifier endpoint config
type ClassifierConfig struct {
	URL     string        `yaml:"url" env:"CLASSIFIER_URL" env-default:"" env-description:"Classifier endpoint, empty disables the client"`
	Token   string        `yaml:"token" env:"CLASSIFIER_TOKEN" env-default:"" env-description:"Classifier bearer token"`
	Timeout time.Duration `yaml:"timeout" env:"CLASSIFIER_TIMEOUT" env-default:"10s"`
}

// InfluxDB metrics config
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled" env:"METRICS_ENABLED" env-default:"false"`
	URL     string `yaml:"url" env:"METRICS_URL" env-default:""`
	Token   string `yaml:"token" env:"METRICS_TOKEN" env-default:""`
	Org     string `yaml:"org" env:"METRICS_ORG" env-default:""`
	Bucket  string `yaml:"bucket" env:"METRICS_BUCKET" env-default:""`
}

// SOCKS5 proxy config for outbound HTTP
type ProxyConfig struct {
	Address  string `yaml:"address" env:"PROXY_ADDRESS" env-default:""`
	Port     int    `yaml:"port" env:"PROXY_PORT" env-default:"0"`
	Username string `yaml:"username" env:"PROXY_USERNAME" env-default:""`
	Password string `yaml:"password" env:"PROXY_PASSWORD" env-default:""`
}

// ConfigError - typed error for config loading problems
type ConfigError struct {
	Message string
}

// Error - implement the error interface
func (e *ConfigError) Error() string {
	return e.Message
}

func MustLoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yml"
	}

	var config Config

	// Without a config file the env defaults are still a complete config.
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := cleanenv.ReadEnv(&config); err != nil {
			return nil, &ConfigError{
				Message: fmt.Sprintf("Cannot read config from environment: %s", err),
			}
		}

		return &config, nil
	}

	if err := cleanenv.ReadConfig(configPath, &config); err != nil {
		return nil, &ConfigError{
			Message: fmt.Sprintf("Cannot read config file: %s", err),
		}
	}

	return &config, nil
}
