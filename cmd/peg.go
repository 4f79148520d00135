package cmd

import (
	"context"
	"flag"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
)

type pegCmd struct{}

func (*pegCmd) Name() string     { return "peg" }
func (*pegCmd) Synopsis() string { return "computes the PEG ratio of a company" }
func (*pegCmd) Usage() string {
	return `val peg <symbol>

  Divides the trailing P/E by the growth of the trailing twelve months
  net income and buckets the ratio.

  Requires API_EOD to be set.
`
}

func (*pegCmd) SetFlags(f *flag.FlagSet) {}

func (*pegCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbol, err := symbolArg(f.Args())
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}
	e, err := setup(EnvEODHD)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	a := &valuation.Analyzer{Equity: e.eodhd(), Assumptions: e.cfg.Valuation, Logger: e.logger}
	p, err := a.PEG(ctx, symbol)
	if err != nil {
		fail("cannot compute the PEG of %s: %v", symbol, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderPEG(p))
	return subcommands.ExitSuccess
}
