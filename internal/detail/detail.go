// Package detail shapes a per-symbol option chain snapshot for display.
package detail

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/montanaflynn/stats"

	"github.com/dgnsrekt/options-dashboard/internal/data"
	"github.com/dgnsrekt/options-dashboard/internal/table"
)

const (
	// Dash marks a value the snapshot cannot provide.
	Dash = "-"

	NoExpiry = "No expiry data available"

	pcrSpread = 0.3
)

// Trend reads put/call positioning. More puts than calls is bearish.
type Trend string

const (
	TrendBullish Trend = "Bullish"
	TrendBearish Trend = "Bearish"
	TrendNeutral Trend = "Neutral"
)

// TrendFromPCR maps a put/call ratio onto a trend.
func TrendFromPCR(pcr float64) Trend {
	switch {
	case pcr > 1:
		return TrendBearish
	case pcr < 1:
		return TrendBullish
	default:
		return TrendNeutral
	}
}

// TrendFromDiff maps a PE minus CE difference onto a trend.
func TrendFromDiff(diff float64) Trend {
	switch {
	case diff > 0:
		return TrendBearish
	case diff < 0:
		return TrendBullish
	default:
		return TrendNeutral
	}
}

// Gauge is a headline number with its display range.
type Gauge struct {
	Value string `json:"value"`
	Min   string `json:"min"`
	Max   string `json:"max"`
}

var emptyGauge = Gauge{Value: Dash, Min: Dash, Max: Dash}

type Stats struct {
	TotalCEOI    string `json:"total_ce_oi"`
	TotalPEOI    string `json:"total_pe_oi"`
	TotalCEOIChg string `json:"total_ce_oi_chg"`
	TotalPEOIChg string `json:"total_pe_oi_chg"`
	DiffOI       string `json:"diff_pe_ce_oi"`
	DiffOIChg    string `json:"diff_pe_ce_oi_chg"`
	Trend        Trend  `json:"trend_oi,omitempty"`
	TrendChg     Trend  `json:"trend_oi_chg,omitempty"`
}

// MaxStrikes are the strikes carrying the largest open interest and the
// largest open interest change on each side.
type MaxStrikes struct {
	CallOI    string `json:"max_ce_oi_strike"`
	PutOI     string `json:"max_pe_oi_strike"`
	CallOIChg string `json:"max_ce_oi_chg_strike"`
	PutOIChg  string `json:"max_pe_oi_chg_strike"`
}

type Cell struct {
	Text  string      `json:"text"`
	Style table.Style `json:"style,omitempty"`
}

// ChainRow is one strike, call columns first, then the strike, then put
// columns mirrored.
type ChainRow struct {
	Cells []Cell `json:"cells"`
}

var ChainHeaders = []string{
	"Call OI", "Call OI Chg", "Call Volume", "Call Price",
	"Strike",
	"Put Price", "Put Volume", "Put OI Chg", "Put OI",
}

type View struct {
	Symbol      string     `json:"symbol"`
	Date        string     `json:"date"`
	Expiries    []string   `json:"expiries"`
	Placeholder string     `json:"placeholder,omitempty"`
	PCR         Gauge      `json:"pcr"`
	IV          Gauge      `json:"iv"`
	Stats       Stats      `json:"stats"`
	MaxStrikes  MaxStrikes `json:"max_strikes"`
	Chain       []ChainRow `json:"chain"`
	LastUpdated string     `json:"last_updated,omitempty"`
}

// Build turns a snapshot into a view. The snapshot must not carry a
// backend error; callers surface that separately.
func Build(symbol, date string, d data.StockDetail) (View, error) {
	if d.Error != "" {
		return View{}, fmt.Errorf("building %s detail: %w", symbol, errors.New(d.Error))
	}

	v := View{
		Symbol:      symbol,
		Date:        date,
		Expiries:    d.ExpiryDates,
		PCR:         pcrGauge(d.Stats),
		IV:          ivGauge(d.OptionChain),
		Stats:       oiStats(d.Stats),
		MaxStrikes:  maxStrikes(d.OptionChain),
		Chain:       chainRows(d.OptionChain),
		LastUpdated: d.LastUpdated,
	}
	if len(d.ExpiryDates) == 0 {
		v.Placeholder = NoExpiry
	}
	return v, nil
}

func pcrGauge(s *data.StockStats) Gauge {
	if s == nil || s.PCROI == nil {
		return emptyGauge
	}
	pcr := *s.PCROI
	return Gauge{
		Value: fixed(pcr),
		Min:   fixed(math.Max(0, pcr-pcrSpread)),
		Max:   fixed(pcr + pcrSpread),
	}
}

// ivGauge averages the implied volatilities present in the chain.
func ivGauge(chain []data.ChainRow) Gauge {
	ivs := make(stats.Float64Data, 0, len(chain))
	for _, r := range chain {
		if r.IV != nil && !math.IsNaN(*r.IV) {
			ivs = append(ivs, *r.IV)
		}
	}
	if len(ivs) == 0 {
		return emptyGauge
	}

	mean, err := ivs.Mean()
	if err != nil {
		return emptyGauge
	}
	lo, _ := ivs.Min()
	hi, _ := ivs.Max()
	return Gauge{Value: fixed(mean), Min: fixed(lo), Max: fixed(hi)}
}

func oiStats(s *data.StockStats) Stats {
	if s == nil {
		return Stats{
			TotalCEOI: Dash, TotalPEOI: Dash, TotalCEOIChg: Dash, TotalPEOIChg: Dash,
			DiffOI: Dash, DiffOIChg: Dash,
		}
	}

	diff := s.TotalPEOI - s.TotalCEOI
	diffChg := s.TotalPEOIChg - s.TotalCEOIChg
	out := Stats{
		TotalCEOI:    table.Indian.Format(s.TotalCEOI),
		TotalPEOI:    table.Indian.Format(s.TotalPEOI),
		TotalCEOIChg: table.Indian.Format(s.TotalCEOIChg),
		TotalPEOIChg: table.Indian.Format(s.TotalPEOIChg),
		DiffOI:       table.Indian.Format(diff),
		DiffOIChg:    table.Indian.Format(diffChg),
		TrendChg:     TrendFromDiff(diffChg),
	}
	if s.PCROI != nil {
		out.Trend = TrendFromPCR(*s.PCROI)
	}
	return out
}

// maxStrikes keeps the first strike on ties.
func maxStrikes(chain []data.ChainRow) MaxStrikes {
	if len(chain) == 0 {
		return MaxStrikes{CallOI: Dash, PutOI: Dash, CallOIChg: Dash, PutOIChg: Dash}
	}

	pick := func(value func(data.ChainRow) float64) string {
		best := 0
		for i := 1; i < len(chain); i++ {
			if value(chain[i]) > value(chain[best]) {
				best = i
			}
		}
		return strike(chain[best].Strike)
	}

	return MaxStrikes{
		CallOI:    pick(func(r data.ChainRow) float64 { return r.CallOI }),
		PutOI:     pick(func(r data.ChainRow) float64 { return r.PutOI }),
		CallOIChg: pick(func(r data.ChainRow) float64 { return r.CallOIChg }),
		PutOIChg:  pick(func(r data.ChainRow) float64 { return r.PutOIChg }),
	}
}

func chainRows(chain []data.ChainRow) []ChainRow {
	rows := make([]ChainRow, 0, len(chain))
	for _, r := range chain {
		rows = append(rows, ChainRow{Cells: []Cell{
			{Text: table.Indian.Format(r.CallOI)},
			{Text: table.Indian.Format(r.CallOIChg), Style: table.ClassifySign(r.CallOIChg)},
			{Text: table.Indian.Format(r.CallVolume)},
			{Text: fixed(r.CallPrice)},
			{Text: strike(r.Strike), Style: table.StyleStrike},
			{Text: fixed(r.PutPrice)},
			{Text: table.Indian.Format(r.PutVolume)},
			{Text: table.Indian.Format(r.PutOIChg), Style: table.ClassifySign(r.PutOIChg)},
			{Text: table.Indian.Format(r.PutOI)},
		}})
	}
	return rows
}

func fixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func strike(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
