// Package config loads the persistid HCL configuration file.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/spf13/afero"

	"github.com/hashicorp-forge/persistid/pkg/database"
)

// Environment variables that override file settings.
const (
	EnvLogLevel = "PERSISTID_LOG_LEVEL"
)

// Config is the root configuration.
type Config struct {
	// LogLevel is one of trace, debug, info, warn or error.
	LogLevel string `hcl:"log_level,optional"`

	Database    *Database    `hcl:"database,block"`
	Identifiers *Identifiers `hcl:"identifiers,block"`
	Kafka       *Kafka       `hcl:"kafka,block"`
}

// Database configures the identifier store.
type Database struct {
	Driver string `hcl:"driver,optional"`

	Host     string `hcl:"host,optional"`
	Port     int    `hcl:"port,optional"`
	User     string `hcl:"user,optional"`
	Password string `hcl:"password,optional"`
	DBName   string `hcl:"dbname,optional"`
	SSLMode  string `hcl:"sslmode,optional"`

	// Path is the SQLite database file.
	Path string `hcl:"path,optional"`

	// AutoMigrate creates tables with gorm instead of requiring
	// persistid-migrate to have run.
	AutoMigrate bool `hcl:"auto_migrate,optional"`

	MaxOpenConns   int `hcl:"max_open_conns,optional"`
	ConnectRetries int `hcl:"connect_retries,optional"`
}

// Kafka configures the identifier event relay.
type Kafka struct {
	Brokers      []string `hcl:"brokers,optional"`
	Topic        string   `hcl:"topic,optional"`
	PollInterval string   `hcl:"poll_interval,optional"`
	BatchSize    int      `hcl:"batch_size,optional"`
}

// NewConfig parses the configuration file at path from the OS filesystem.
func NewConfig(path string) (*Config, error) {
	return LoadConfig(afero.NewOsFs(), path)
}

// LoadConfig parses, defaults and validates the configuration file at path.
func LoadConfig(fs afero.Fs, path string) (*Config, error) {
	src, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := &Config{}
	if err := hclsimple.Decode(path, src, nil, cfg); err != nil {
		return nil, fmt.Errorf("error decoding config file: %w", err)
	}

	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	if lvl := os.Getenv(EnvLogLevel); lvl != "" {
		c.LogLevel = lvl
	}
}

func (c *Config) setDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.LogLevel = strings.ToLower(c.LogLevel)

	if c.Database == nil {
		c.Database = &Database{}
	}
	if c.Database.Driver == "" {
		c.Database.Driver = database.DriverPostgres
	}
	if c.Database.Driver == database.DriverPostgres && c.Database.Port == 0 {
		c.Database.Port = 5432
	}

	if c.Identifiers == nil {
		c.Identifiers = DefaultIdentifiers()
	}
	if c.Kafka == nil {
		c.Kafka = &Kafka{}
	}
}

// Validate checks every block and reports all problems at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if err := validation.ValidateStruct(c,
		validation.Field(&c.LogLevel, validation.Required, validation.In(
			"trace", "debug", "info", "warn", "error",
		)),
	); err != nil {
		result = multierror.Append(result, err)
	}

	if c.Database != nil {
		if err := c.Database.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("database: %w", err))
		}
	}
	if c.Identifiers != nil {
		if err := c.Identifiers.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("identifiers: %w", err))
		}
	}
	if c.Kafka != nil {
		if err := c.Kafka.Validate(); err != nil {
			result = multierror.Append(result, fmt.Errorf("kafka: %w", err))
		}
	}

	return result.ErrorOrNil()
}

// Validate checks the database block.
func (d Database) Validate() error {
	postgres := d.Driver == database.DriverPostgres
	return validation.ValidateStruct(&d,
		validation.Field(&d.Driver, validation.Required, validation.In(
			database.DriverPostgres, database.DriverSQLite,
		)),
		validation.Field(&d.Host, validation.When(postgres, validation.Required)),
		validation.Field(&d.DBName, validation.When(postgres, validation.Required)),
		validation.Field(&d.Port, validation.When(postgres, validation.Min(1), validation.Max(65535))),
		validation.Field(&d.Path, validation.When(d.Driver == database.DriverSQLite, validation.Required)),
		validation.Field(&d.MaxOpenConns, validation.Min(0)),
	)
}

// Validate checks the kafka block.
func (k Kafka) Validate() error {
	return validation.ValidateStruct(&k,
		validation.Field(&k.PollInterval, validation.By(isDuration)),
		validation.Field(&k.BatchSize, validation.Min(0)),
	)
}

// DatabaseConfig converts the database block for database.Connect.
func (d Database) DatabaseConfig() database.Config {
	return database.Config{
		Driver:         d.Driver,
		Host:           d.Host,
		Port:           d.Port,
		User:           d.User,
		Password:       d.Password,
		DBName:         d.DBName,
		SSLMode:        d.SSLMode,
		Path:           d.Path,
		MaxOpenConns:   d.MaxOpenConns,
		ConnectRetries: d.ConnectRetries,
	}
}

// PollIntervalDuration returns the parsed poll interval, or zero when unset.
func (k Kafka) PollIntervalDuration() time.Duration {
	d, _ := time.ParseDuration(k.PollInterval)
	return d
}

// Logger builds the root logger for name at the configured level.
func (c *Config) Logger(name string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  name,
		Level: hclog.LevelFromString(c.LogLevel),
	})
}

func isDuration(value interface{}) error {
	s, _ := value.(string)
	if s == "" {
		return nil
	}
	if _, err := time.ParseDuration(s); err != nil {
		return fmt.Errorf("must be a duration such as 1s or 500ms")
	}
	return nil
}
