package cmd

import (
	"context"
	"flag"
	"strings"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/renderer"
	"github.com/google/subcommands"
)

type macroCmd struct {
	from     string
	to       string
	resample string
	agg      string
	share    bool
	title    string
}

func (*macroCmd) Name() string     { return "macro" }
func (*macroCmd) Synopsis() string { return "displays macroeconomic series from the Banco Central de Chile" }
func (*macroCmd) Usage() string {
	return `val macro [-from <date>] [-to <date>] [-resample <period> -agg <sum>] [-share] <code>...

  Fetches BCCh series and displays them side by side, optionally resampled
  to a coarser period. With -share, every series after the first one is
  also shown as a share of the first one.

  Requires BCCH_USER and BCCH_PWD to be set.

Usage Examples:
# Quarterly exports, total then mining, agriculture and industry.
$ val macro -resample Q -agg sum -share F068.B1.FLU.Z.0.C.N.Z.Z.Z.Z.6.0.M F068.B1.FLU.A.0.C.N.Z.Z.Z.Z.6.0.M F068.B1.FLU.B.0.C.N.Z.Z.Z.Z.6.0.M F068.B1.FLU.C.0.C.N.Z.Z.Z.Z.6.0.M
`
}

func (c *macroCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "First date, the configured history years ago when empty.")
	f.StringVar(&c.to, "to", "", "Last date, today when empty.")
	f.StringVar(&c.resample, "resample", "", "Resampling period (D, W, M, Q, Y), none when empty.")
	f.StringVar(&c.agg, "agg", "sum", "Aggregation of the resampled values (sum, mean, median, min, max, last, first, count).")
	f.BoolVar(&c.share, "share", false, "Add the share of every series in the first one.")
	f.StringVar(&c.title, "title", "Macroeconomic Series", "Title of the report.")
}

// request builds the macro request out of the flags.
func (c *macroCmd) request(codes []string, today valuation.Date, historyYears int) (valuation.MacroRequest, error) {
	req := valuation.MacroRequest{Codes: codes, Share: c.share, To: today, From: today.AddMonth(-12 * historyYears)}
	var err error
	if c.from != "" {
		if req.From, err = valuation.ParseDate(c.from); err != nil {
			return req, err
		}
	}
	if c.to != "" {
		if req.To, err = valuation.ParseDate(c.to); err != nil {
			return req, err
		}
	}
	if c.resample != "" {
		p, err := valuation.ParsePeriod(c.resample)
		if err != nil {
			return req, err
		}
		agg, err := valuation.ParseAgg(c.agg)
		if err != nil {
			return req, err
		}
		req.Resample = &valuation.Bucket{Period: p, Agg: agg}
	}
	return req, nil
}

func (c *macroCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fail("at least one series code is required")
		return subcommands.ExitUsageError
	}
	e, err := setup(EnvBCCHUser, EnvBCCHPass)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	req, err := c.request(f.Args(), valuation.Today(), e.cfg.Valuation.HistoryYears)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitUsageError
	}
	table, err := valuation.FetchMacro(ctx, e.bcch(), req)
	if err != nil {
		if len(table.Series) == 0 {
			fail("cannot fetch %s: %v", strings.Join(req.Codes, ", "), err)
			return subcommands.ExitFailure
		}
		e.logger.Warn().Err(err).Msg("some series were skipped")
	}
	printMarkdown(renderer.RenderMacro(c.title, table))
	return subcommands.ExitSuccess
}
