package valuation

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// MacroRequest describes a set of macroeconomic series to fetch and align.
type MacroRequest struct {
	Codes    []string
	From, To Date
	Resample *Bucket // calendar aggregation, none when nil
	Share    bool    // express every series after the first as a share of the first
}

// MacroTable is a set of aligned macroeconomic series.
type MacroTable struct {
	Series []*Series // in request order
	Shares []*Series // share of the first series, when requested
}

// FetchMacro fetches every requested series. A series that cannot be fetched
// is skipped and reported in the joined error, the others are returned.
func FetchMacro(ctx context.Context, p MacroProvider, req MacroRequest) (*MacroTable, error) {
	t := new(MacroTable)
	var errs error
	for _, code := range req.Codes {
		s, err := p.Series(ctx, code, req.From, req.To)
		if err != nil {
			errs = errors.Join(errs, fmt.Errorf("series %s: %w", code, err))
			continue
		}
		if req.Resample != nil {
			s = s.Resample(req.Resample.Period, req.Resample.Agg)
		}
		t.Series = append(t.Series, s)
	}
	if req.Share && len(t.Series) > 1 {
		t.Shares = ShareOf(t.Series[0], t.Series[1:]...)
	}
	return t, errs
}

// ShareOf returns each part as a fraction of total on their common dates.
func ShareOf(total *Series, parts ...*Series) []*Series {
	res := make([]*Series, 0, len(parts))
	for _, p := range parts {
		share := p.Zip(total, func(v, tot float64) float64 {
			if tot == 0 {
				return math.NaN()
			}
			return v / tot
		})
		share.Name = p.Name
		res = append(res, share)
	}
	return res
}
