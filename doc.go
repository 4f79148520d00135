// Package valuation estimates the intrinsic value of listed companies from
// their financial statements and the macroeconomic context they operate in.
//
// The core functionalities include:
//   - Series normalization: turning raw provider records into chronological,
//     deduplicated series, with rolling windows (trailing twelve months) and
//     calendar resampling.
//   - Metrics: cost of capital (CAPM, Fisher parity, country spread), return
//     on invested capital, long run growth from a Hodrick-Prescott trend,
//     reinvestment, discounted value of operating assets and PEG.
//   - Comparison: classification of the market price against a fair band
//     around the intrinsic value, and relative multiples against sector and
//     market peers.
//   - Screening: fundamentals of a whole exchange, imputed and regressed.
//
// Data is fetched by the provider packages (eodhd, bcch, fred) and wired
// together by the Analyzer. The `val` command line tool renders the results
// as markdown.
package valuation
