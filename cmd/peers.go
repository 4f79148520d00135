package cmd

import (
	"context"
	"flag"
	"strings"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
)

type peersCmd struct {
	metrics string
}

func (*peersCmd) Name() string     { return "peers" }
func (*peersCmd) Synopsis() string { return "compares the multiples of a company with its peers" }
func (*peersCmd) Usage() string {
	return `val peers [-metrics <m1,m2>] <symbol>

  Fetches the fundamentals of every company of the exchange the symbol is
  listed on, keeps the ones quoted in the same currency, and places the
  company against the sector and market medians.

  Requires API_EOD to be set.
`
}

func (c *peersCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.metrics, "metrics", "", "Comma separated metrics to compare, like TrailingPE,PriceBookMRQ. All the usual multiples when empty.")
}

func (c *peersCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
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
	client := e.eodhd()
	a := &valuation.Analyzer{Equity: client, Peers: client, Assumptions: e.cfg.Valuation, Logger: e.logger}
	if c.metrics != "" {
		for _, m := range strings.Split(c.metrics, ",") {
			a.PeerMetrics = append(a.PeerMetrics, strings.TrimSpace(m))
		}
	}
	cmp, err := a.Compare(ctx, symbol)
	if err != nil {
		fail("cannot compare %s: %v", symbol, err)
		return subcommands.ExitFailure
	}
	printMarkdown(renderer.RenderComparison(cmp))
	return subcommands.ExitSuccess
}
