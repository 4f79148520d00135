package cmd

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"github.com/etnz/valuation/eodhd"
	"github.com/google/subcommands"
)

type searchCmd struct {
	exchange string
	limit    int
}

func (*searchCmd) Name() string     { return "search" }
func (*searchCmd) Synopsis() string { return "searches the EODHD symbol of a company" }
func (*searchCmd) Usage() string {
	return `val search [-exchange <SN>] [-limit <n>] <name or ticker>

  Looks for stocks matching the term and prints their EODHD symbols, the
  ones every other command expects.

  Requires API_EOD to be set.

Usage Examples:
$ val search -exchange SN quimica
`
}

func (c *searchCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.exchange, "exchange", "", "Restrict the search to an exchange code.")
	f.IntVar(&c.limit, "limit", 15, "Maximum number of results.")
}

func (c *searchCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fail("a search term is required")
		return subcommands.ExitUsageError
	}
	e, err := setup(EnvEODHD)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	term := strings.Join(f.Args(), " ")
	results, err := e.eodhd().Search(ctx, term, c.exchange, c.limit)
	if err != nil {
		fail("cannot search %q: %v", term, err)
		return subcommands.ExitFailure
	}
	printMarkdown(searchMarkdown(term, results))
	return subcommands.ExitSuccess
}

// searchMarkdown lists the results as a markdown table.
func searchMarkdown(term string, results []eodhd.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Search results for %q\n\n", term)
	if len(results) == 0 {
		b.WriteString("No stock found.\n")
		return b.String()
	}
	b.WriteString("| Symbol | Name | Country | Currency | ISIN |\n")
	b.WriteString("|:---|:---|:---|:---|:---|\n")
	for _, r := range results {
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n", r.Symbol(), r.Name, r.Country, r.Currency, r.ISIN)
	}
	return b.String()
}
