package valuation

import "context"

// Statements available in the quarterly financials.
const (
	IncomeStatement = "Income_Statement"
	BalanceSheet    = "Balance_Sheet"
	CashFlow        = "Cash_Flow"
)

// ShareCounts holds the two share counts reported for a company.
type ShareCounts struct {
	Quarterly float64 // latest quarterly report
	Stats     float64 // share statistics
}

// EquityProvider serves company fundamentals and market prices.
type EquityProvider interface {
	Snapshot(ctx context.Context, symbol string) (*Snapshot, error)
	Statement(ctx context.Context, symbol, statement string, opts TableOptions) (*Table, error)
	StatementCurrency(ctx context.Context, symbol string) (string, error)
	SharesOutstanding(ctx context.Context, symbol string) (ShareCounts, error)
	Prices(ctx context.Context, symbol string, from, to Date) (*Series, error)
}

// PeerProvider serves the fundamentals of every company of an exchange.
type PeerProvider interface {
	BulkFundamentals(ctx context.Context, exchange string, offset, limit int) ([]*Snapshot, error)
}

// SymbolProvider lists the symbols traded on an exchange.
type SymbolProvider interface {
	ExchangeSymbols(ctx context.Context, exchange string) ([]Listing, error)
}

// Listing is a symbol traded on an exchange.
type Listing struct {
	Code     string
	Name     string
	Exchange string
	Currency string
	Type     string
}

// Symbol returns the provider ticker CODE.EXCHANGE.
func (l Listing) Symbol() string { return l.Code + "." + l.Exchange }

// MacroProvider serves macroeconomic time series by code.
type MacroProvider interface {
	Series(ctx context.Context, code string, from, to Date) (*Series, error)
}
