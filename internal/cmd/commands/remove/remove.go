package remove

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/persistid/internal/cmd/base"
)

type Command struct {
	*base.Command

	flagConfig string
}

func (c *Command) Synopsis() string {
	return "Retire an external identifier"
}

func (c *Command) Help() string {
	return `Usage: persistid remove [options] <canonical identifier>

  Retires an external identifier. Schemes that retain tombstones keep the
  value reserved so it is never issued again; other schemes delete it.
  Native identifiers cannot be removed.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("remove", flag.ContinueOnError))
	f.ConfigFlag(&c.flagConfig)
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() != 1 {
		c.UI.Error("exactly one identifier is required")
		return 1
	}
	raw := f.Arg(0)

	cfg, err := c.LoadConfig(base.ConfigPath(c.flagConfig))
	if err != nil {
		c.UI.Error(fmt.Sprintf("error parsing config file: %v", err))
		return 1
	}

	ctx, cancel := base.SignalContext()
	defer cancel()

	svc, _, err := c.IdentifierService(ctx, cfg)
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	removed, err := svc.Remove(ctx, raw)
	if err != nil {
		c.Log.Error("error removing identifier", "identifier", raw, "error", err)
		c.UI.Error(fmt.Sprintf("error removing %s: %v", raw, err))
		return 1
	}
	if !removed {
		c.UI.Warn(fmt.Sprintf("%s is not an active identifier", raw))
		return 1
	}

	c.UI.Info(fmt.Sprintf("Removed %s", raw))
	return 0
}
