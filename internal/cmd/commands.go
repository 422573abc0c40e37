package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/persistid/internal/cmd/base"
	"github.com/hashicorp-forge/persistid/internal/cmd/commands/canonical"
	"github.com/hashicorp-forge/persistid/internal/cmd/commands/mint"
	"github.com/hashicorp-forge/persistid/internal/cmd/commands/operator"
	"github.com/hashicorp-forge/persistid/internal/cmd/commands/relay"
	"github.com/hashicorp-forge/persistid/internal/cmd/commands/remove"
	"github.com/hashicorp-forge/persistid/internal/cmd/commands/resolve"
	"github.com/hashicorp-forge/persistid/internal/cmd/commands/version"
)

// Commands is the mapping of all available persistid commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	b := base.NewCommand(log, ui)

	Commands = map[string]cli.CommandFactory{
		"canonical": func() (cli.Command, error) {
			return &canonical.Command{Command: b}, nil
		},
		"mint": func() (cli.Command, error) {
			return &mint.Command{Command: b}, nil
		},
		"operator": func() (cli.Command, error) {
			return &operator.Command{Command: b}, nil
		},
		"operator assign-uuids": func() (cli.Command, error) {
			return &operator.AssignUUIDsCommand{Command: b}, nil
		},
		"operator outbox-stats": func() (cli.Command, error) {
			return &operator.OutboxStatsCommand{Command: b}, nil
		},
		"relay": func() (cli.Command, error) {
			return &relay.Command{Command: b}, nil
		},
		"remove": func() (cli.Command, error) {
			return &remove.Command{Command: b}, nil
		},
		"resolve": func() (cli.Command, error) {
			return &resolve.Command{Command: b}, nil
		},
		"version": func() (cli.Command, error) {
			return &version.Command{Command: b}, nil
		},
	}
}
