package operator

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/persistid/internal/cmd/base"
	"github.com/hashicorp-forge/persistid/internal/db"
	"github.com/hashicorp-forge/persistid/pkg/database"
	"github.com/hashicorp-forge/persistid/pkg/models"
)

type OutboxStatsCommand struct {
	*base.Command

	flagConfig string
}

func (c *OutboxStatsCommand) Synopsis() string {
	return "Show identifier outbox and connection pool statistics"
}

func (c *OutboxStatsCommand) Help() string {
	return `Usage: persistid operator outbox-stats

  Prints the number of pending, published and failed identifier events
  and the database connection pool statistics.` + c.Flags().Help()
}

func (c *OutboxStatsCommand) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("outbox-stats", flag.ContinueOnError))
	f.ConfigFlag(&c.flagConfig)
	return f
}

func (c *OutboxStatsCommand) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	cfg, err := c.LoadConfig(base.ConfigPath(c.flagConfig))
	if err != nil {
		c.UI.Error(fmt.Sprintf("error parsing config file: %v", err))
		return 1
	}

	ctx, cancel := base.SignalContext()
	defer cancel()

	gdb, err := db.NewDB(ctx, *cfg.Database, c.Log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error initializing database: %v", err))
		return 1
	}

	for _, status := range []string{
		models.OutboxStatusPending,
		models.OutboxStatusPublished,
		models.OutboxStatusFailed,
	} {
		n, err := models.CountOutboxByStatus(gdb.WithContext(ctx), status)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error counting %s events: %v", status, err))
			return 1
		}
		c.UI.Output(fmt.Sprintf("%-10s %d", status, n))
	}

	stats, err := database.GetPoolStats(gdb)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}
	c.UI.Output(fmt.Sprintf("connections open=%d in_use=%d idle=%d max_open=%d",
		stats.OpenConnections, stats.InUse, stats.Idle, stats.MaxOpenConnections))
	return 0
}
