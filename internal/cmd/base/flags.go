package base

import (
	"bytes"
	"flag"
	"fmt"
	"strings"
)

// FlagSet wraps flag.FlagSet so commands can render their flags in Help.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet wraps f.
func NewFlagSet(f *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: f}
}

// Help renders every flag with its usage, indented for command help text.
func (f *FlagSet) Help() string {
	var out bytes.Buffer

	out.WriteString("\n\nOptions:\n")
	f.VisitAll(func(fl *flag.Flag) {
		name, usage := flag.UnquoteUsage(fl)
		if name != "" {
			fmt.Fprintf(&out, "\n  -%s=<%s>\n", fl.Name, name)
		} else {
			fmt.Fprintf(&out, "\n  -%s\n", fl.Name)
		}
		if fl.DefValue != "" && fl.DefValue != "false" && fl.DefValue != "0" {
			usage += fmt.Sprintf(" The default is %s.", fl.DefValue)
		}
		for _, line := range strings.Split(usage, "\n") {
			fmt.Fprintf(&out, "    %s\n", line)
		}
	})

	return strings.TrimRight(out.String(), "\n")
}

// ConfigFlag adds the -config flag shared by commands that read the config
// file.
func (f *FlagSet) ConfigFlag(p *string) {
	f.StringVar(p, "config", "",
		fmt.Sprintf("[%s] Path to persistid config file.", EnvConfig))
}
