package cmd

import (
	"flag"

	"github.com/etnz/valuation/docs"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// Completion returns the shell completion of the command line.
// Install it with COMP_INSTALL=1 val.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: flagPredictors(flag.CommandLine),
	}
	root.Flags["config"] = predict.Files("*.toml")
	root.Flags["log-level"] = predict.Set{"debug", "info", "warn", "error"}
	for _, c := range Commands {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		root.Sub[c.Name()] = &complete.Command{Flags: flagPredictors(fs)}
	}
	root.Sub["macro"].Flags["resample"] = predict.Set{"D", "W", "M", "Q", "Y"}
	root.Sub["macro"].Flags["agg"] = predict.Set{"sum", "mean", "median", "min", "max", "last", "first", "count"}
	if topics, err := docs.GetAllTopics(); err == nil {
		root.Sub["topic"].Args = predict.Set(topics)
	}
	for _, name := range []string{"help", "flags", "commands"} {
		root.Sub[name] = &complete.Command{}
	}
	return root
}

func flagPredictors(fs *flag.FlagSet) map[string]complete.Predictor {
	flags := map[string]complete.Predictor{}
	fs.VisitAll(func(f *flag.Flag) {
		if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
			flags[f.Name] = predict.Nothing
			return
		}
		flags[f.Name] = predict.Something
	})
	return flags
}
