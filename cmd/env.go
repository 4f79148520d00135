package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/etnz/valuation"
	"github.com/etnz/valuation/bcch"
	"github.com/etnz/valuation/eodhd"
	"github.com/etnz/valuation/fred"
	"github.com/ternarybob/arbor"
)

// env is what every command needs: the configuration, the credentials and a logger.
type env struct {
	cfg    *Config
	creds  Credentials
	logger arbor.ILogger
}

// setup loads the configuration and the credentials named by required.
// Missing credentials fail before any network call.
func setup(required ...string) (*env, error) {
	cfg, err := LoadConfig(*configFile)
	if err != nil {
		return nil, err
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	creds, err := LoadCredentials()
	if err != nil {
		return nil, err
	}
	if err := creds.Require(required...); err != nil {
		return nil, err
	}
	return &env{cfg: cfg, creds: creds, logger: newLogger(cfg.Logging.Level)}, nil
}

func (e *env) cache() (valuation.Period, bool) {
	if *noCache {
		return 0, false
	}
	p, ok, _ := e.cfg.CachePeriod() // validated when loaded
	return p, ok
}

func (e *env) eodhd(opts ...eodhd.ClientOption) *eodhd.Client {
	timeout, _ := e.cfg.Timeout()
	all := []eodhd.ClientOption{
		eodhd.WithLogger(e.logger),
		eodhd.WithHTTPClient(newHTTPClient(timeout)),
	}
	if p, ok := e.cache(); ok {
		all = append(all, eodhd.WithCache(p))
	}
	return eodhd.NewClient(e.creds.EODHD, append(all, opts...)...)
}

func (e *env) bcch() *bcch.Client {
	opts := []bcch.Option{bcch.WithLogger(e.logger)}
	if p, ok := e.cache(); ok {
		opts = append(opts, bcch.WithCache(p))
	}
	return bcch.NewClient(e.creds.BCCHUser, e.creds.BCCHPass, opts...)
}

func (e *env) fred() *fred.Client {
	opts := []fred.Option{fred.WithLogger(e.logger)}
	if p, ok := e.cache(); ok {
		opts = append(opts, fred.WithCache(p))
	}
	return fred.NewClient(e.creds.FRED, opts...)
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// analyzer wires the providers into an Analyzer.
func (e *env) analyzer() *valuation.Analyzer {
	client := e.eodhd()
	return &valuation.Analyzer{
		Equity:      client,
		Peers:       client,
		Macro:       e.bcch(),
		Inflation:   e.fred(),
		Assumptions: e.cfg.Valuation,
		Logger:      e.logger,
	}
}

// valuationCredentials are required by every command running the Analyzer.
var valuationCredentials = []string{EnvEODHD, EnvBCCHUser, EnvBCCHPass, EnvFRED}

func symbolArg(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("exactly one symbol is required, like SQM-B.SN")
	}
	return args[0], nil
}
