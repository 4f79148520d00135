package cmd

import (
	"context"
	"flag"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/eodhd"
	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
)

type screenCmd struct {
	currency    string
	sector      string
	quantile    float64
	limit       int
	workers     int
	showSkipped bool
}

func (*screenCmd) Name() string     { return "screen" }
func (*screenCmd) Synopsis() string { return "screens the largest companies of an exchange" }
func (*screenCmd) Usage() string {
	return `val screen [-currency <CLP>] [-sector <name>] [-quantile <0.6>] [-limit <n>] <exchange>

  Fetches the fundamentals of every listing of the exchange, imputes the
  missing multiples with sector then market medians, keeps the companies
  above a market capitalization quantile and fits P/B against ROE.

  Symbols that cannot be fetched are skipped. Requests are paced by the
  configured providers interval.

  Requires API_EOD to be set.

Usage Examples:
$ val screen SN
$ val screen -sector Utilities -show-skipped SN
`
}

func (c *screenCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.currency, "currency", "", "Keep listings quoted in this currency, the configured quote currency when empty.")
	f.StringVar(&c.sector, "sector", "", "Fit the regression on this sector only.")
	f.Float64Var(&c.quantile, "quantile", 0.6, "Market capitalization quantile above which companies are kept.")
	f.IntVar(&c.limit, "limit", 0, "Maximum number of listings fetched, all when zero.")
	f.IntVar(&c.workers, "workers", 0, "Concurrent fetches, the configured ones when zero.")
	f.BoolVar(&c.showSkipped, "show-skipped", false, "List the symbols that could not be fetched.")
}

func (c *screenCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() != 1 {
		fail("exactly one exchange code is required, like SN")
		return subcommands.ExitUsageError
	}
	exchange := f.Arg(0)
	e, err := setup(EnvEODHD)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	interval, _ := e.cfg.Interval()
	client := e.eodhd(eodhd.WithInterval(interval))

	s := &valuation.Screener{
		Symbols:  client,
		Equity:   client,
		Currency: c.currency,
		Sector:   c.sector,
		Quantile: c.quantile,
		Workers:  c.workers,
		Limit:    c.limit,
		Logger:   e.logger,
	}
	if s.Currency == "" {
		s.Currency = e.cfg.Valuation.QuoteCurrency
	}
	if s.Workers == 0 {
		s.Workers = e.cfg.Providers.Workers
	}
	res, err := s.Screen(ctx, exchange)
	if err != nil {
		fail("cannot screen %s: %v", exchange, err)
		return subcommands.ExitFailure
	}
	if len(res.Skipped) > 0 {
		e.logger.Warn().Str("exchange", exchange).Int("skipped", len(res.Skipped)).Msg("some listings could not be fetched")
	}
	printMarkdown(renderer.RenderScreen(res, renderer.ScreenRenderOptions{ShowSkipped: c.showSkipped}))
	return subcommands.ExitSuccess
}
