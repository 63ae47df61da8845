package data

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Side is the option side a metric belongs to.
type Side string

const (
	SideCall Side = "call"
	SidePut  Side = "put"
)

func ParseSide(s string) (Side, error) {
	switch Side(strings.ToLower(strings.TrimSpace(s))) {
	case SideCall:
		return SideCall, nil
	case SidePut:
		return SidePut, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSide, s)
}

// Title returns the capitalized side used in column headers.
func (s Side) Title() string {
	if s == SidePut {
		return "Put"
	}
	return "Call"
}

// MetricKind selects the third series of a historical chart.
type MetricKind string

const (
	MetricMoney MetricKind = "money"
	MetricVega  MetricKind = "vega"
)

func ParseMetricKind(s string) (MetricKind, error) {
	switch MetricKind(strings.ToLower(strings.TrimSpace(s))) {
	case MetricMoney:
		return MetricMoney, nil
	case MetricVega:
		return MetricVega, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// StrikeShift pairs a strike with the percentage change observed there.
type StrikeShift struct {
	Strike  Strike
	Percent Percent
}

// SideMetrics holds one side's signals for a symbol.
type SideMetrics struct {
	DeltaPos    StrikeShift
	DeltaNeg    StrikeShift
	VegaPos     StrikeShift
	VegaNeg     StrikeShift
	TradedValue float64
	Money       float64
}

// MetricRow is one symbol's precomputed metrics for a date. Rows are
// decoded fresh per load and never mutated afterwards.
type MetricRow struct {
	Symbol string
	Call   SideMetrics
	Put    SideMetrics
	Close  float64
	RSI    *float64
}

// Side returns the metrics for the given side.
func (r MetricRow) Side(s Side) SideMetrics {
	if s == SidePut {
		return r.Put
	}
	return r.Call
}

type metricRowWire struct {
	Stock string `json:"stock"`

	CallDeltaPosStrike Strike  `json:"call_delta_pos_strike"`
	CallDeltaPosPct    Percent `json:"call_delta_pos_pct"`
	CallDeltaNegStrike Strike  `json:"call_delta_neg_strike"`
	CallDeltaNegPct    Percent `json:"call_delta_neg_pct"`
	CallVegaPosStrike  Strike  `json:"call_vega_pos_strike"`
	CallVegaPosPct     Percent `json:"call_vega_pos_pct"`
	CallVegaNegStrike  Strike  `json:"call_vega_neg_strike"`
	CallVegaNegPct     Percent `json:"call_vega_neg_pct"`
	CallTotalTradVal   float64 `json:"call_total_tradval"`
	CallTotalMoney     float64 `json:"call_total_money"`

	PutDeltaPosStrike Strike  `json:"put_delta_pos_strike"`
	PutDeltaPosPct    Percent `json:"put_delta_pos_pct"`
	PutDeltaNegStrike Strike  `json:"put_delta_neg_strike"`
	PutDeltaNegPct    Percent `json:"put_delta_neg_pct"`
	PutVegaPosStrike  Strike  `json:"put_vega_pos_strike"`
	PutVegaPosPct     Percent `json:"put_vega_pos_pct"`
	PutVegaNegStrike  Strike  `json:"put_vega_neg_strike"`
	PutVegaNegPct     Percent `json:"put_vega_neg_pct"`
	PutTotalTradVal   float64 `json:"put_total_tradval"`
	PutTotalMoney     float64 `json:"put_total_money"`

	ClosingPrice float64  `json:"closing_price"`
	RSI          *float64 `json:"rsi"`
}

func (r *MetricRow) UnmarshalJSON(b []byte) error {
	var w metricRowWire
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if strings.TrimSpace(w.Stock) == "" {
		return ErrMissingSymbol
	}
	*r = MetricRow{
		Symbol: w.Stock,
		Call: SideMetrics{
			DeltaPos:    StrikeShift{w.CallDeltaPosStrike, w.CallDeltaPosPct},
			DeltaNeg:    StrikeShift{w.CallDeltaNegStrike, w.CallDeltaNegPct},
			VegaPos:     StrikeShift{w.CallVegaPosStrike, w.CallVegaPosPct},
			VegaNeg:     StrikeShift{w.CallVegaNegStrike, w.CallVegaNegPct},
			TradedValue: w.CallTotalTradVal,
			Money:       w.CallTotalMoney,
		},
		Put: SideMetrics{
			DeltaPos:    StrikeShift{w.PutDeltaPosStrike, w.PutDeltaPosPct},
			DeltaNeg:    StrikeShift{w.PutDeltaNegStrike, w.PutDeltaNegPct},
			VegaPos:     StrikeShift{w.PutVegaPosStrike, w.PutVegaPosPct},
			VegaNeg:     StrikeShift{w.PutVegaNegStrike, w.PutVegaNegPct},
			TradedValue: w.PutTotalTradVal,
			Money:       w.PutTotalMoney,
		},
		Close: w.ClosingPrice,
		RSI:   w.RSI,
	}
	return nil
}

func (r MetricRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(metricRowWire{
		Stock:              r.Symbol,
		CallDeltaPosStrike: r.Call.DeltaPos.Strike,
		CallDeltaPosPct:    r.Call.DeltaPos.Percent,
		CallDeltaNegStrike: r.Call.DeltaNeg.Strike,
		CallDeltaNegPct:    r.Call.DeltaNeg.Percent,
		CallVegaPosStrike:  r.Call.VegaPos.Strike,
		CallVegaPosPct:     r.Call.VegaPos.Percent,
		CallVegaNegStrike:  r.Call.VegaNeg.Strike,
		CallVegaNegPct:     r.Call.VegaNeg.Percent,
		CallTotalTradVal:   r.Call.TradedValue,
		CallTotalMoney:     r.Call.Money,
		PutDeltaPosStrike:  r.Put.DeltaPos.Strike,
		PutDeltaPosPct:     r.Put.DeltaPos.Percent,
		PutDeltaNegStrike:  r.Put.DeltaNeg.Strike,
		PutDeltaNegPct:     r.Put.DeltaNeg.Percent,
		PutVegaPosStrike:   r.Put.VegaPos.Strike,
		PutVegaPosPct:      r.Put.VegaPos.Percent,
		PutVegaNegStrike:   r.Put.VegaNeg.Strike,
		PutVegaNegPct:      r.Put.VegaNeg.Percent,
		PutTotalTradVal:    r.Put.TradedValue,
		PutTotalMoney:      r.Put.Money,
		ClosingPrice:       r.Close,
		RSI:                r.RSI,
	})
}

// MetricsSnapshot is the backend's per-date payload: the three
// classifications plus the date pair they compare.
type MetricsSnapshot struct {
	CurrDate string      `json:"curr_date"`
	PrevDate string      `json:"prev_date"`
	Total    []MetricRow `json:"total"`
	OTM      []MetricRow `json:"otm"`
	ITM      []MetricRow `json:"itm"`
	Error    string      `json:"error,omitempty"`
}

// HistoricalPoint is one day of a symbol's historical series. Exactly one
// of StrikeVega, AvgVega, or Moneyness is populated depending on the request.
type HistoricalPoint struct {
	Date            string   `json:"date"`
	PCRVolume       float64  `json:"pcr_volume"`
	PCROI           float64  `json:"pcr_oi"`
	UnderlyingPrice float64  `json:"underlying_price"`
	StrikeVega      *float64 `json:"strike_vega,omitempty"`
	AvgVega         *float64 `json:"avg_vega,omitempty"`
	Moneyness       *float64 `json:"moneyness,omitempty"`
	RSI             *float64 `json:"rsi"`
}

// HistoricalSeries is the backend's historical payload for one
// symbol/side/metric request.
type HistoricalSeries struct {
	Ticker     string            `json:"ticker"`
	OptionType string            `json:"option_type"`
	Metric     string            `json:"metric"`
	Strike     string            `json:"strike,omitempty"`
	Data       []HistoricalPoint `json:"data"`
	Error      string            `json:"error,omitempty"`
}

// HistoricalRequest identifies one historical series.
type HistoricalRequest struct {
	Symbol string
	Side   Side
	Metric MetricKind
	Strike Strike
	Date   string
}

// StockStats are the open-interest totals for one symbol/expiry.
type StockStats struct {
	PCROI        *float64 `json:"pcr_oi"`
	TotalCEOI    float64  `json:"total_ce_oi"`
	TotalPEOI    float64  `json:"total_pe_oi"`
	TotalCEOIChg float64  `json:"total_ce_oi_chg"`
	TotalPEOIChg float64  `json:"total_pe_oi_chg"`
}

// ChainRow is one strike of the option chain.
type ChainRow struct {
	Strike     float64  `json:"strike"`
	CallOI     float64  `json:"call_oi"`
	PutOI      float64  `json:"put_oi"`
	CallOIChg  float64  `json:"call_oi_chg"`
	PutOIChg   float64  `json:"put_oi_chg"`
	CallVolume float64  `json:"call_volume"`
	PutVolume  float64  `json:"put_volume"`
	CallPrice  float64  `json:"call_price"`
	PutPrice   float64  `json:"put_price"`
	IV         *float64 `json:"iv,omitempty"`
}

// PricePoint is one intraday bar of the underlying.
type PricePoint struct {
	Time   string  `json:"time"`
	Open   float64 `json:"open"`
	Close  float64 `json:"close"`
	VWAP   float64 `json:"vwap"`
	Volume float64 `json:"volume"`
}

// StockDetail is the backend's per-symbol option chain snapshot.
type StockDetail struct {
	ExpiryDates []string     `json:"expiry_dates"`
	Stats       *StockStats  `json:"stats"`
	OptionChain []ChainRow   `json:"option_chain"`
	PriceData   []PricePoint `json:"price_data"`
	LastUpdated string       `json:"last_updated"`
	Error       string       `json:"error,omitempty"`
}
