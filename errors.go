package valuation

import (
	"errors"
	"fmt"
)

// FetchError reports a failure to obtain data from a remote source: transport
// error, bad HTTP status, or an undecodable payload.
type FetchError struct {
	Source string // eodhd, bcch, fred
	Op     string // fundamentals, series, prices...
	Key    string // symbol or series code
	Err    error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s %s %s: %v", e.Source, e.Op, e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MissingFieldError reports a field absent from a provider document.
type MissingFieldError struct {
	Symbol string
	Field  string
}

func (e *MissingFieldError) Error() string {
	if e.Symbol == "" {
		return fmt.Sprintf("missing field %q", e.Field)
	}
	return fmt.Sprintf("%s: missing field %q", e.Symbol, e.Field)
}

// ComputationError reports a metric that cannot be computed from its inputs,
// like a division by zero or a growth rate above the discount rate.
type ComputationError struct {
	Metric string
	Reason string
}

func (e *ComputationError) Error() string {
	return fmt.Sprintf("cannot compute %s: %s", e.Metric, e.Reason)
}

func computeErr(metric, format string, args ...any) error {
	return &ComputationError{Metric: metric, Reason: fmt.Sprintf(format, args...)}
}

// Skippable reports whether err only concerns a single item of a batch, so
// that the item can be logged and skipped.
func Skippable(err error) bool {
	if err == nil {
		return false
	}
	var fe *FetchError
	var me *MissingFieldError
	var ce *ComputationError
	return errors.As(err, &fe) || errors.As(err, &me) || errors.As(err, &ce)
}
