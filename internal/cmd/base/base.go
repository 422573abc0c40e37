// Package base holds the pieces shared by every persistid CLI command.
package base

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
	"gorm.io/gorm"

	"github.com/hashicorp-forge/persistid/internal/config"
	"github.com/hashicorp-forge/persistid/internal/db"
	"github.com/hashicorp-forge/persistid/internal/services"
)

// EnvConfig names the config file when -config is not given.
const EnvConfig = "PERSISTID_CONFIG"

// Command is embedded by every command.
type Command struct {
	Log hclog.Logger
	UI  cli.Ui
}

// NewCommand returns a Command writing to ui and logging to log.
func NewCommand(log hclog.Logger, ui cli.Ui) *Command {
	return &Command{
		Log: log,
		UI:  ui,
	}
}

// ConfigPath returns flagValue, or the PERSISTID_CONFIG environment variable
// when the flag is empty.
func ConfigPath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return os.Getenv(EnvConfig)
}

// LoadConfig parses the config file and applies its log level to c.Log.
func (c *Command) LoadConfig(path string) (*config.Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config file is required (-config or %s)", EnvConfig)
	}
	cfg, err := config.NewConfig(path)
	if err != nil {
		return nil, err
	}
	c.Log.SetLevel(hclog.LevelFromString(cfg.LogLevel))
	return cfg, nil
}

// IdentifierService connects to the configured database and builds the
// identifier service on top of it.
func (c *Command) IdentifierService(ctx context.Context, cfg *config.Config) (*services.IdentifierService, *gorm.DB, error) {
	database, err := db.NewDB(ctx, *cfg.Database, c.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("error initializing database: %w", err)
	}

	svc, err := services.NewIdentifierService(database, cfg.Identifiers, c.Log)
	if err != nil {
		return nil, nil, err
	}
	return svc, database, nil
}

// SignalContext returns a context cancelled on SIGINT or SIGTERM.
func SignalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
