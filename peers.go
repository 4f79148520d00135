package valuation

import (
	"math"
	"slices"
	"strings"
)

// Snapshot metrics, as named in the EODHD Highlights, Valuation and Technicals sections.
const (
	MetricMarketCap       = "MarketCapitalization"
	MetricROE             = "ReturnOnEquityTTM"
	MetricPriceBook       = "PriceBookMRQ"
	MetricTrailingPE      = "TrailingPE"
	MetricForwardPE       = "ForwardPE"
	MetricPriceSales      = "PriceSalesTTM"
	MetricEVEBITDA        = "EnterpriseValueEbitda"
	MetricDividendYield   = "DividendYield"
	MetricPEG             = "PEGRatio"
	MetricOperatingMargin = "OperatingMarginTTM"
	MetricBeta            = "Beta"
	MetricWallStreetTgt   = "WallStreetTargetPrice"
	MetricAnalystTarget   = "TargetPrice"
)

// PeerMetrics are the multiples compared against the sector and the market.
var PeerMetrics = []string{
	MetricTrailingPE,
	MetricForwardPE,
	MetricPriceBook,
	MetricPriceSales,
	MetricEVEBITDA,
	MetricDividendYield,
	MetricPEG,
	MetricOperatingMargin,
	MetricROE,
}

// Snapshot holds the most recent fundamental metrics of one company.
type Snapshot struct {
	Symbol   string
	Name     string
	Exchange string
	Currency string
	Sector   string
	Industry string
	metrics  map[string]float64
	imputed  []string
}

// NewSnapshot returns a snapshot with the given metrics. NaN metrics are
// considered missing.
func NewSnapshot(symbol, name, sector string, metrics map[string]float64) *Snapshot {
	s := &Snapshot{Symbol: symbol, Name: name, Sector: sector, metrics: make(map[string]float64)}
	for k, v := range metrics {
		s.set(k, v)
	}
	return s
}

func (s *Snapshot) set(metric string, v float64) {
	if s.metrics == nil {
		s.metrics = make(map[string]float64)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		delete(s.metrics, metric)
		return
	}
	s.metrics[metric] = v
}

// Get returns the metric value and whether it is present.
func (s *Snapshot) Get(metric string) (float64, bool) {
	v, ok := s.metrics[metric]
	return v, ok
}

// Value returns the metric value or NaN.
func (s *Snapshot) Value(metric string) float64 {
	if v, ok := s.metrics[metric]; ok {
		return v
	}
	return math.NaN()
}

// Metrics returns the sorted names of the present metrics.
func (s *Snapshot) Metrics() []string {
	names := make([]string, 0, len(s.metrics))
	for k := range s.metrics {
		names = append(names, k)
	}
	slices.Sort(names)
	return names
}

// Imputed returns the metrics that were filled by Impute.
func (s *Snapshot) Imputed() []string { return slices.Clone(s.imputed) }

// PeerSet is a group of company snapshots.
type PeerSet struct {
	snapshots []*Snapshot
}

// NewPeerSet returns a peer set sorted by symbol.
func NewPeerSet(snapshots ...*Snapshot) *PeerSet {
	p := &PeerSet{snapshots: slices.Clone(snapshots)}
	slices.SortFunc(p.snapshots, func(a, b *Snapshot) int { return strings.Compare(a.Symbol, b.Symbol) })
	return p
}

// Len returns the number of companies.
func (p *PeerSet) Len() int { return len(p.snapshots) }

// Snapshots returns the companies, sorted by symbol.
func (p *PeerSet) Snapshots() []*Snapshot { return slices.Clone(p.snapshots) }

// Get returns the snapshot of symbol.
func (p *PeerSet) Get(symbol string) (*Snapshot, bool) {
	i := slices.IndexFunc(p.snapshots, func(s *Snapshot) bool { return s.Symbol == symbol })
	if i < 0 {
		return nil, false
	}
	return p.snapshots[i], true
}

// Filter returns the companies matching keep.
func (p *PeerSet) Filter(keep func(*Snapshot) bool) *PeerSet {
	res := &PeerSet{}
	for _, s := range p.snapshots {
		if keep(s) {
			res.snapshots = append(res.snapshots, s)
		}
	}
	return res
}

// Sector returns the companies of the given sector, ignoring case.
func (p *PeerSet) Sector(name string) *PeerSet {
	return p.Filter(func(s *Snapshot) bool { return strings.EqualFold(s.Sector, name) })
}

// Currency returns the companies reporting in the given currency.
func (p *PeerSet) Currency(code string) *PeerSet {
	return p.Filter(func(s *Snapshot) bool { return strings.EqualFold(s.Currency, code) })
}

// Sectors returns the distinct sectors, sorted.
func (p *PeerSet) Sectors() []string {
	var res []string
	for _, s := range p.snapshots {
		if s.Sector != "" && !slices.Contains(res, s.Sector) {
			res = append(res, s.Sector)
		}
	}
	slices.Sort(res)
	return res
}

// Values returns the present values of metric.
func (p *PeerSet) Values(metric string) []float64 {
	var res []float64
	for _, s := range p.snapshots {
		if v, ok := s.Get(metric); ok {
			res = append(res, v)
		}
	}
	return res
}

// Median returns the median of metric over the companies reporting it, NaN if none.
func (p *PeerSet) Median(metric string) float64 { return median(p.Values(metric)) }

// Quantile returns the empirical p-quantile of metric.
func (p *PeerSet) Quantile(metric string, q float64) float64 { return Quantile(p.Values(metric), q) }

// FilterMin returns the companies whose metric is at least min.
func (p *PeerSet) FilterMin(metric string, min float64) *PeerSet {
	return p.Filter(func(s *Snapshot) bool {
		v, ok := s.Get(metric)
		return ok && v >= min
	})
}

// Impute fills missing metrics with the median of the company's sector, or
// the median of the whole set when the sector has no value either.
//
// Medians are computed before any value is filled.
func (p *PeerSet) Impute(metrics ...string) {
	type key struct{ sector, metric string }
	sectorMedian := make(map[key]float64)
	marketMedian := make(map[string]float64)
	for _, m := range metrics {
		marketMedian[m] = p.Median(m)
		for _, sector := range p.Sectors() {
			sectorMedian[key{sector, m}] = p.Sector(sector).Median(m)
		}
	}
	for _, s := range p.snapshots {
		for _, m := range metrics {
			if _, ok := s.Get(m); ok {
				continue
			}
			v, ok := sectorMedian[key{s.Sector, m}]
			if !ok || math.IsNaN(v) {
				v = marketMedian[m]
			}
			if math.IsNaN(v) {
				continue
			}
			s.set(m, v)
			s.imputed = append(s.imputed, m)
		}
	}
}

// Position locates a value relative to a reference median.
type Position int

const (
	Below Position = iota - 1
	InLine
	Above
)

func (p Position) String() string {
	switch p {
	case Below:
		return "below"
	case Above:
		return "above"
	default:
		return "in line"
	}
}

// NeutralZone is the relative tolerance around a median considered in line.
const NeutralZone = 0.01

// PositionOf compares v with the median m, values within ±1% of m being in line.
func PositionOf(v, m float64) Position {
	lo, hi := m*(1-NeutralZone), m*(1+NeutralZone)
	if lo > hi {
		lo, hi = hi, lo
	}
	switch {
	case v < lo:
		return Below
	case v > hi:
		return Above
	default:
		return InLine
	}
}

// PeerLine compares one metric of a company with its sector and its market.
type PeerLine struct {
	Metric         string
	Value          float64
	SectorMedian   float64
	MarketMedian   float64
	SectorCount    int
	MarketCount    int
	VersusSector   Position
	VersusMarket   Position
	SectorMin      float64
	SectorMax      float64
	HasValue       bool
	HasSectorPeers bool
}

// Comparison is the relative valuation of a company among its peers.
type Comparison struct {
	Symbol   string
	Sector   string
	Currency string
	Peers    int
	Lines    []PeerLine
}

// Compare places target among the peers for each metric. The target itself is
// excluded from the medians.
func Compare(target *Snapshot, peers *PeerSet, metrics []string) *Comparison {
	others := peers.Filter(func(s *Snapshot) bool { return s.Symbol != target.Symbol })
	sector := others.Sector(target.Sector)
	c := &Comparison{Symbol: target.Symbol, Sector: target.Sector, Currency: target.Currency, Peers: others.Len()}
	for _, m := range metrics {
		sv := sector.Values(m)
		line := PeerLine{
			Metric:         m,
			SectorMedian:   median(sv),
			MarketMedian:   others.Median(m),
			SectorCount:    len(sv),
			MarketCount:    len(others.Values(m)),
			SectorMin:      math.NaN(),
			SectorMax:      math.NaN(),
			HasSectorPeers: len(sv) > 0,
		}
		if len(sv) > 0 {
			line.SectorMin, line.SectorMax = slices.Min(sv), slices.Max(sv)
		}
		line.Value, line.HasValue = target.Get(m)
		if line.HasValue {
			line.VersusSector = PositionOf(line.Value, line.SectorMedian)
			line.VersusMarket = PositionOf(line.Value, line.MarketMedian)
		}
		c.Lines = append(c.Lines, line)
	}
	return c
}
