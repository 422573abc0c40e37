package mint

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/hashicorp-forge/persistid/internal/cmd/base"
	pidmint "github.com/hashicorp-forge/persistid/pkg/mint"
	"github.com/hashicorp-forge/persistid/pkg/pid"
)

type Command struct {
	*base.Command

	flagConfig string
	flagType   string
	flagName   string
}

func (c *Command) Synopsis() string {
	return "Create a repository object and mint its identifiers"
}

func (c *Command) Help() string {
	return `Usage: persistid mint -type=<resource type> [-name=<name>]

  Creates a repository object of the given type, mints a native UUID
  identifier for it, and runs every configured assigner. The minted
  identifiers are printed in canonical form, preferred identifier first.

  Resource types: ` + resourceTypeNames() + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("mint", flag.ContinueOnError))

	f.ConfigFlag(&c.flagConfig)
	f.StringVar(
		&c.flagType, "type", "",
		"(Required) Resource type of the new object, e.g. item or collection.",
	)
	f.StringVar(
		&c.flagName, "name", "",
		"Display name of the new object.",
	)

	return f
}

func (c *Command) Run(args []string) int {
	if err := c.Flags().Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	if c.flagType == "" {
		c.UI.Error("type flag is required")
		return 1
	}
	rt, err := pid.ParseResourceType(c.flagType)
	if err != nil {
		c.UI.Error(err.Error())
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

	for ns, prefix := range svc.AssignerPrefixes() {
		c.Log.Debug("assigning external identifier", "namespace", ns, "prefix", prefix)
	}

	obj, err := svc.CreateObject(ctx, rt, c.flagName)
	exitCode := 0
	if err != nil {
		var assignErr *pidmint.AssignerError
		if obj == nil || !errors.As(err, &assignErr) {
			c.Log.Error("error minting identifiers", "error", err)
			c.UI.Error(fmt.Sprintf("error minting identifiers: %v", err))
			return 1
		}
		c.UI.Warn(fmt.Sprintf("some identifiers were not minted: %v", err))
		exitCode = 2
	}

	preferred := svc.Preferred(obj)
	c.UI.Output(fmt.Sprintf("%s %d", obj.ResourceType(), obj.ResourceID()))
	c.UI.Output(preferred.Canonical())
	if native := obj.NativeIdentifier(); native.Canonical() != preferred.Canonical() {
		c.UI.Output(native.Canonical())
	}
	for _, ext := range obj.ExternalIdentifiers() {
		if ext.Canonical() != preferred.Canonical() {
			c.UI.Output(ext.Canonical())
		}
	}

	return exitCode
}

func resourceTypeNames() string {
	var names []string
	for _, rt := range pid.ValidResourceTypes() {
		names = append(names, rt.String())
	}
	return strings.Join(names, ", ")
}
