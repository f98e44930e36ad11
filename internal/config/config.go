package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Scheduler backends.
const (
	SchedulerBackendPostgres = "postgres"
	SchedulerBackendMemory   = "memory"
)

// Config structure represents the application configuration
type Config struct {
	Server struct {
		Port string `yaml:"port" env:"SERVER_PORT"`
		Mode string `yaml:"mode" env:"SERVER_MODE"`
	} `yaml:"server"`

	Database struct {
		Host     string `yaml:"host" env:"DB_HOST"`
		Port     string `yaml:"port" env:"DB_PORT"`
		User     string `yaml:"user" env:"DB_USER"`
		Password string `yaml:"password" env:"DB_PASSWORD"`
		DBName   string `yaml:"dbname" env:"DB_NAME"`
		SSLMode  string `yaml:"sslmode" env:"DB_SSLMODE"`
		MaxConns int    `yaml:"max_conns" env:"DB_MAX_CONNS"`
	} `yaml:"database"`

	JWT struct {
		Secret          string `yaml:"secret" env:"JWT_SECRET"`
		TokenExpiration string `yaml:"token_expiration" env:"JWT_TOKEN_EXPIRATION"`
		Issuer          string `yaml:"issuer" env:"JWT_ISSUER"`
	} `yaml:"jwt"`

	Attendance struct {
		// SessionDuration is the full session lifetime; the session is
		// active during its second half.
		SessionDuration     string  `yaml:"session_duration" env:"ATTENDANCE_SESSION_DURATION"`
		DefaultRadiusMeters float64 `yaml:"default_radius_meters" env:"ATTENDANCE_DEFAULT_RADIUS_METERS"`
		CodeLength          int     `yaml:"code_length" env:"ATTENDANCE_CODE_LENGTH"`
	} `yaml:"attendance"`

	Scheduler struct {
		Backend      string `yaml:"backend" env:"SCHEDULER_BACKEND"`
		PollInterval string `yaml:"poll_interval" env:"SCHEDULER_POLL_INTERVAL"`
		BatchSize    int    `yaml:"batch_size" env:"SCHEDULER_BATCH_SIZE"`
	} `yaml:"scheduler"`

	RateLimit struct {
		CheckInPerMinute int `yaml:"check_in_per_minute" env:"RATE_LIMIT_CHECK_IN_PER_MINUTE"`
	} `yaml:"rate_limit"`

	Logging struct {
		Level  string `yaml:"level" env:"LOG_LEVEL"`
		Format string `yaml:"format" env:"LOG_FORMAT"`
	} `yaml:"logging"`
}

// LoadConfig loads configuration from a file and environment variables
func LoadConfig(configPath string) (*Config, error) {
	config := &Config{}
	setDefaults(config)

	// Config file is optional; env vars alone can configure a deployment
	if _, err := os.Stat(configPath); err == nil {
		file, err := os.ReadFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if err = yaml.Unmarshal(file, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	if err := processStructFields(config); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// setDefaults sets default values for the configuration
func setDefaults(config *Config) {
	config.Server.Port = "8080"
	config.Server.Mode = "development"

	config.Database.Host = "localhost"
	config.Database.Port = "5432"
	config.Database.User = "postgres"
	config.Database.Password = "postgres"
	config.Database.DBName = "rollcall"
	config.Database.SSLMode = "disable"
	config.Database.MaxConns = 20

	config.JWT.TokenExpiration = "8h"
	config.JWT.Issuer = "rollcall.app"

	config.Attendance.SessionDuration = "60s"
	config.Attendance.DefaultRadiusMeters = 100
	config.Attendance.CodeLength = 6

	config.Scheduler.Backend = SchedulerBackendPostgres
	config.Scheduler.PollInterval = "250ms"
	config.Scheduler.BatchSize = 16

	config.RateLimit.CheckInPerMinute = 120

	config.Logging.Level = "info"
	config.Logging.Format = "json"
}

// validateConfig ensures that the configuration is valid
func validateConfig(config *Config) error {
	if config.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}

	if _, err := time.ParseDuration(config.JWT.TokenExpiration); err != nil {
		return fmt.Errorf("invalid JWT token expiration format: %w", err)
	}

	duration, err := time.ParseDuration(config.Attendance.SessionDuration)
	if err != nil {
		return fmt.Errorf("invalid session duration format: %w", err)
	}
	if duration <= 0 {
		return fmt.Errorf("session duration must be positive")
	}

	if config.Attendance.DefaultRadiusMeters <= 0 {
		return fmt.Errorf("default radius must be positive")
	}

	if config.Attendance.CodeLength <= 0 {
		return fmt.Errorf("attendance code length must be positive")
	}

	switch config.Scheduler.Backend {
	case SchedulerBackendPostgres, SchedulerBackendMemory:
	default:
		return fmt.Errorf("unknown scheduler backend %q", config.Scheduler.Backend)
	}

	if _, err := time.ParseDuration(config.Scheduler.PollInterval); err != nil {
		return fmt.Errorf("invalid scheduler poll interval format: %w", err)
	}

	return nil
}

// SessionDuration returns the parsed session lifetime.
func (c *Config) SessionDuration() time.Duration {
	duration, _ := time.ParseDuration(c.Attendance.SessionDuration)
	return duration
}

// SchedulerPollInterval returns the parsed scheduler poll interval.
func (c *Config) SchedulerPollInterval() time.Duration {
	interval, _ := time.ParseDuration(c.Scheduler.PollInterval)
	return interval
}

// JWTTokenExpiration returns the parsed token lifetime.
func (c *Config) JWTTokenExpiration() time.Duration {
	expiration, _ := time.ParseDuration(c.JWT.TokenExpiration)
	return expiration
}

// GetPostgresConnectionString returns postgres connection string
func (c *Config) GetPostgresConnectionString() string {
	sslMode := c.Database.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.DBName,
		sslMode,
	)
}
