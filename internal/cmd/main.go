package cmd

import (
	"bufio"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/hashicorp-forge/persistid/internal/config"
	"github.com/hashicorp-forge/persistid/internal/version"
)

// Main runs the CLI with the given arguments and returns the exit code.
func Main(args []string) int {
	cliName := args[0]

	log := hclog.New(&hclog.LoggerOptions{
		Name:  cliName,
		Level: hclog.LevelFromString(os.Getenv(config.EnvLogLevel)),
	})

	if len(args) == 2 &&
		(args[1] == "-version" ||
			args[1] == "-v") {
		args = []string{cliName, "version"}
	}

	ui := &cli.BasicUi{
		Reader:      bufio.NewReader(os.Stdin),
		Writer:      os.Stdout,
		ErrorWriter: os.Stderr,
	}

	initCommands(log, ui)

	c := &cli.CLI{
		Name:     cliName,
		Args:     args[1:],
		Version:  version.Version,
		Commands: Commands,
		HelpFunc: cli.FilteredHelpFunc(topLevelCommands(), cli.BasicHelpFunc(cliName)),
	}

	exitCode, err := c.Run()
	if err != nil {
		ui.Error(err.Error())
		return 1
	}

	return exitCode
}

// topLevelCommands omits nested commands such as "operator assign-uuids" from
// the root help; they are listed by their parent.
func topLevelCommands() []string {
	var names []string
	for name := range Commands {
		if !strings.Contains(name, " ") {
			names = append(names, name)
		}
	}
	return names
}
