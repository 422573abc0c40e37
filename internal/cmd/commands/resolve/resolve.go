package resolve

import (
	"errors"
	"flag"
	"fmt"

	"github.com/hashicorp-forge/persistid/internal/cmd/base"
	"github.com/hashicorp-forge/persistid/pkg/pid"
)

type Command struct {
	*base.Command

	flagConfig string
	flagObject bool
}

func (c *Command) Synopsis() string {
	return "Resolve identifiers to their canonical form or object"
}

func (c *Command) Help() string {
	return `Usage: persistid resolve [options] <identifier>...

  Resolves each argument, which may be a canonical identifier such as
  "hdl:123456789/1" or a URL path such as "/handle/hdl/123456789/1" or
  "/items/uuid/<uuid>". Resolved identifiers are printed with the native
  identifier they are bound to. Arguments that do not resolve are reported
  and make the command exit 1.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("resolve", flag.ContinueOnError))

	f.ConfigFlag(&c.flagConfig)
	f.BoolVar(
		&c.flagObject, "object", false,
		"Also load the object behind each identifier and print its preferred identifier.",
	)

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

	exitCode := 0
	for _, raw := range f.Args() {
		id, ok, err := svc.Resolve(ctx, raw)
		if err != nil {
			c.Log.Error("error resolving identifier", "input", raw, "error", err)
			c.UI.Error(fmt.Sprintf("%s: %v", raw, err))
			exitCode = 1
			continue
		}
		if !ok {
			c.UI.Error(fmt.Sprintf("%s: not found", raw))
			exitCode = 1
			continue
		}

		native, err := id.NativeIdentifier()
		if err != nil {
			c.UI.Error(fmt.Sprintf("%s: %v", raw, err))
			exitCode = 1
			continue
		}
		c.UI.Output(fmt.Sprintf("%s\t%s\t%s", raw, id.Canonical(), native.Canonical()))

		if !c.flagObject {
			continue
		}
		obj, ok, err := svc.ResolveObject(ctx, raw)
		var notFound *pid.ResourceNotFoundError
		switch {
		case errors.As(err, &notFound):
			c.UI.Warn(fmt.Sprintf("%s: %v", raw, err))
			exitCode = 1
		case err != nil:
			c.UI.Error(fmt.Sprintf("%s: %v", raw, err))
			exitCode = 1
		case ok:
			c.UI.Output(fmt.Sprintf("  %s %d %q preferred=%s",
				obj.ResourceType(), obj.ResourceID(), obj.Name,
				svc.Preferred(obj).Canonical()))
		}
	}

	return exitCode
}
