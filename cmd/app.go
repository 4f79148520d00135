// Package cmd implements the val command line application.
package cmd

import (
	"flag"

	"github.com/google/subcommands"
)

// as a CLI application, it has a very short lived lifecycle, so it is ok to use global variables.

var configFile = flag.String("config", "", "Path to the TOML configuration file, "+defaultConfigFile+" when present")
var logLevel = flag.String("log-level", "", "Log level (debug, info, warn, error), overrides the configuration")
var noCache = flag.Bool("no-cache", false, "Do not use the on disk HTTP cache")

// Commands are the val subcommands.
var Commands = []subcommands.Command{
	&valueCmd{},
	&pegCmd{},
	&peersCmd{},
	&screenCmd{},
	&macroCmd{},
	&searchCmd{},
	&explainCmd{},
	&topicCmd{},
}

// Register the subcommands.
func Register(c *subcommands.Commander) {
	c.Register(c.HelpCommand(), "")
	c.Register(c.FlagsCommand(), "")
	c.Register(c.CommandsCommand(), "")

	for _, cmd := range Commands {
		group := "valuation"
		switch cmd.Name() {
		case "screen", "macro", "search":
			group = "market"
		case "explain":
			group = "assistant"
		case "topic":
			group = "help"
		}
		c.Register(cmd, group)
	}
}
