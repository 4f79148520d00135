// Command val values listed companies out of their fundamentals and
// macroeconomic series.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/valuation/cmd"
	"github.com/google/subcommands"
)

func main() {
	cmd.Completion().Complete("val")

	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
