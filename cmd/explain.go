package cmd

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/etnz/valuation/agent"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

type explainCmd struct{}

func (*explainCmd) Name() string     { return "explain" }
func (*explainCmd) Synopsis() string { return "discusses the valuation of a company with an AI assistant" }
func (*explainCmd) Usage() string {
	return `val explain [<symbol>]

  Starts an interactive session with a Gemini assistant. The assistant runs
  the valuation, peers and PEG analyses itself and grounds the news it
  quotes with Google Search. With a symbol, the session opens by explaining
  the valuation of that company. Type 'bye' to exit.

  Requires GEMINI_API_KEY, API_EOD, BCCH_USER, BCCH_PWD and API_FRED to be set.

Usage Examples:
$ val explain SQM-B.SN
`
}

func (*explainCmd) SetFlags(f *flag.FlagSet) {}

func (c *explainCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() > 1 {
		fail("at most one symbol is expected")
		return subcommands.ExitUsageError
	}
	e, err := setup(append([]string{EnvGemini}, valuationCredentials...)...)
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: e.creds.Gemini, Backend: genai.BackendGeminiAPI})
	if err != nil {
		fail("cannot create the Gemini client: %v", err)
		return subcommands.ExitFailure
	}

	analyst := agent.NewAnalyst(e.analyzer())
	trader := agent.NewTrader()
	analyst.Logger, trader.Logger = e.logger, e.logger
	a := agent.New(os.Stdout, os.Stdin, analyst, trader)
	a.Print = printMarkdown

	var prompts []string
	if f.NArg() == 1 {
		prompts = append(prompts, fmt.Sprintf("explain the valuation of %s", f.Arg(0)))
	}
	if err := a.Run(ctx, client, prompts...); err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
