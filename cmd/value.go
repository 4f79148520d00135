package cmd

import (
	"context"
	"flag"
	"strings"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
)

type valueCmd struct {
	band      float64
	shareRule string
	peers     bool
}

func (*valueCmd) Name() string     { return "value" }
func (*valueCmd) Synopsis() string { return "values a company with a discounted cash flow model" }
func (*valueCmd) Usage() string {
	return `val value [-band <0.2>] [-shares <max|min>] [-peers] <symbol>

  Computes the cost of capital, the return on invested capital and the
  perpetual growth of a company, then its intrinsic value per share, and
  classifies the market price against a fair band around it.

  Requires API_EOD, BCCH_USER, BCCH_PWD and API_FRED to be set.

Usage Examples:
$ val value SQM-B.SN
$ val value -band 0.1 -peers FALABELLA.SN
`
}

func (c *valueCmd) SetFlags(f *flag.FlagSet) {
	f.Float64Var(&c.band, "band", -1, "Relative half width of the fair band, the configured one when negative.")
	f.StringVar(&c.shareRule, "shares", "", "Share count rule when sources disagree (max or min), the configured one when empty.")
	f.BoolVar(&c.peers, "peers", false, "Append the comparison with the peers of the exchange.")
}

func (c *valueCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	symbol, err := symbolArg(f.Args())
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}
	e, err := setup(valuationCredentials...)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	if c.band >= 0 {
		e.cfg.Valuation.Band = c.band
	}
	if c.shareRule != "" {
		e.cfg.Valuation.ShareRule = valuation.ShareRule(strings.ToLower(c.shareRule))
	}
	if err := e.cfg.Valuation.Validate(); err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}

	a := e.analyzer()
	r, err := a.Value(ctx, symbol)
	if err != nil {
		fail("cannot value %s: %v", symbol, err)
		return subcommands.ExitFailure
	}
	md := renderer.RenderValuation(r)

	if c.peers {
		cmp, err := a.Compare(ctx, symbol)
		if err != nil {
			e.logger.Warn().Str("symbol", symbol).Err(err).Msg("peer comparison skipped")
		} else {
			md += "\n" + renderer.RenderComparison(cmp)
		}
	}
	printMarkdown(md)
	return subcommands.ExitSuccess
}
