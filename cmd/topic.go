package cmd

import (
	"context"
	"flag"

	"github.com/etnz/valuation/docs"
	"github.com/google/subcommands"
)

type topicCmd struct{}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "displays documentation topics" }
func (*topicCmd) Usage() string {
	return `val topic [<topic>...]

  Displays the documentation topics, or the list of topics without
  arguments. "*" displays them all.

Usage Examples:
$ val topic wacc dcf
`
}

func (*topicCmd) SetFlags(f *flag.FlagSet) {}

func (*topicCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var content string
	var err error
	if f.NArg() == 0 {
		content, err = docs.Index()
	} else {
		content, err = docs.GetTopics(f.Args()...)
	}
	if err != nil {
		fail("%v", err)
		return subcommands.ExitFailure
	}
	printMarkdown(content)
	return subcommands.ExitSuccess
}
