package version

import (
	"github.com/hashicorp-forge/persistid/internal/cmd/base"
	"github.com/hashicorp-forge/persistid/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the persistid version"
}

func (c *Command) Help() string {
	return `Usage: persistid version

  Prints the version of this persistid binary.`
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.String())
	return 0
}
