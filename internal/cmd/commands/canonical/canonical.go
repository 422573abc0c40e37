package canonical

import (
	"flag"
	"fmt"

	"github.com/hashicorp-forge/persistid/internal/cmd/base"
	"github.com/hashicorp-forge/persistid/internal/config"
	"github.com/hashicorp-forge/persistid/pkg/pid"
)

type Command struct {
	*base.Command

	flagConfig string
}

func (c *Command) Synopsis() string {
	return "Print the forms of an identifier without looking it up"
}

func (c *Command) Help() string {
	return `Usage: persistid canonical [options] <identifier>...

  Parses each argument as a canonical identifier or URL path using the
  configured identifier schemes, and prints its canonical form, URL form
  and external URL. No database is needed; identifiers are not checked for
  registration. Without a config file the default hdl and doi schemes are
  used.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("canonical", flag.ContinueOnError))
	f.ConfigFlag(&c.flagConfig)
	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}
	if f.NArg() == 0 {
		c.UI.Error("at least one identifier is required")
		return 1
	}

	ids := config.DefaultIdentifiers()
	if path := base.ConfigPath(c.flagConfig); path != "" {
		cfg, err := c.LoadConfig(path)
		if err != nil {
			c.UI.Error(fmt.Sprintf("error parsing config file: %v", err))
			return 1
		}
		ids = cfg.Identifiers
	}

	registry, err := ids.BuildRegistry()
	if err != nil {
		c.UI.Error(err.Error())
		return 1
	}

	exitCode := 0
	for _, raw := range f.Args() {
		id, err := Parse(registry, raw)
		if err != nil {
			c.UI.Error(fmt.Sprintf("%s: %v", raw, err))
			exitCode = 1
			continue
		}

		c.UI.Output(fmt.Sprintf("canonical: %s", id.Canonical()))
		c.UI.Output(fmt.Sprintf("url form:  %s", id.URLForm()))
		if ext, ok := id.(pid.ExternalID); ok {
			if u, err := ext.ExternalURL(); err == nil {
				c.UI.Output(fmt.Sprintf("url:       %s", u))
			}
		}
	}
	return exitCode
}

// Parse recognises raw in the same order as resolution (URL forms, then
// canonical forms; native before external) without any store lookup.
func Parse(registry *pid.Registry, raw string) (pid.Resolvable, error) {
	if native, ok := pid.ExtractNativeFromURL(raw); ok {
		return native, nil
	}
	if ext, ok := registry.ExtractExternalFromURL(raw); ok {
		return ext, nil
	}

	native, ok, err := pid.ParseNativeCanonical(raw)
	if err != nil {
		return nil, err
	}
	if ok {
		return native, nil
	}

	ext, ok, err := registry.ParseExternalCanonical(raw)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("not a recognised identifier")
	}
	return ext, nil
}
