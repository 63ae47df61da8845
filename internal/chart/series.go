package chart

import (
	"fmt"

	"github.com/dgnsrekt/options-dashboard/internal/data"
)

// Axis is the price scale a series is drawn against.
type Axis string

const (
	AxisLeft       Axis = "left"
	AxisRight      Axis = "right"
	AxisOscillator Axis = "rsi"
)

// Panel identifies one of the two stacked chart panels.
type Panel string

const (
	PanelPrimary    Panel = "primary"
	PanelOscillator Panel = "oscillator"
)

func ParsePanel(s string) (Panel, error) {
	switch Panel(s) {
	case PanelPrimary, PanelOscillator:
		return Panel(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPanel, s)
}

const (
	NamePCRVolume  = "PCR (Volume)"
	NamePCROI      = "PCR (OI)"
	NameUnderlying = "Underlying Price"

	ColorPCRVolume  = "#2196F3"
	ColorPCROI      = "#f44336"
	ColorUnderlying = "#ff9800"
	ColorVega       = "#9c27b0"
	ColorMoneyness  = "#4caf50"
	ColorOscillator = "#673ab7"

	DefaultOscillatorLabel = "RSI (40)"
)

// Point is one value at a time key.
type Point struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// SeriesSpec is everything a widget needs to draw one series.
type SeriesSpec struct {
	Name   string  `json:"name"`
	Color  string  `json:"color"`
	Axis   Axis    `json:"axis"`
	Panel  Panel   `json:"panel"`
	Points []Point `json:"points"`
}

// SeriesSet is the aligned output of one historical response. Every
// primary series spans Times exactly; the oscillator holds only the
// points that had a value and is nil when none did.
type SeriesSet struct {
	Times      []string
	Primary    []SeriesSpec
	Oscillator *SeriesSpec
}

// ThirdSeries selects the metric-specific series on the primary panel.
// Implementations are VegaWithStrike, VegaAverage, and MoneynessChange.
type ThirdSeries interface {
	Label() string
	Color() string
	TitleSuffix() string
	value(p data.HistoricalPoint) float64
}

// VegaWithStrike plots the vega of one strike.
type VegaWithStrike struct {
	Strike data.Strike
}

func (v VegaWithStrike) Label() string { return "Strike " + v.Strike.String() + " Vega" }
func (v VegaWithStrike) Color() string { return ColorVega }
func (v VegaWithStrike) TitleSuffix() string {
	return " - Strike: " + v.Strike.String() + " - Vega Trend"
}
func (v VegaWithStrike) value(p data.HistoricalPoint) float64 { return deref(p.StrikeVega) }

// VegaAverage plots the average vega over all strikes.
type VegaAverage struct{}

func (VegaAverage) Label() string                        { return "Average Vega (All Strikes)" }
func (VegaAverage) Color() string                        { return ColorVega }
func (VegaAverage) TitleSuffix() string                  { return " - Vega Trend" }
func (VegaAverage) value(p data.HistoricalPoint) float64 { return deref(p.AvgVega) }

// MoneynessChange plots the day-over-day money flow.
type MoneynessChange struct{}

func (MoneynessChange) Label() string                        { return "Moneyness Change" }
func (MoneynessChange) Color() string                        { return ColorMoneyness }
func (MoneynessChange) TitleSuffix() string                  { return " - Moneyness" }
func (MoneynessChange) value(p data.HistoricalPoint) float64 { return deref(p.Moneyness) }

// SelectThird picks the third series for a metric. A strike only matters
// for vega.
func SelectThird(metric data.MetricKind, strike data.Strike) (ThirdSeries, error) {
	switch metric {
	case data.MetricVega:
		if strike.Available() {
			return VegaWithStrike{Strike: strike}, nil
		}
		return VegaAverage{}, nil
	case data.MetricMoney:
		return MoneynessChange{}, nil
	}
	return nil, fmt.Errorf("%w: %q", data.ErrUnknownMetric, metric)
}

// BuildSeries aligns a historical response into the fixed primary series
// plus the oscillator. Points must have unique time keys.
func BuildSeries(points []data.HistoricalPoint, third ThirdSeries, oscillatorLabel string) (SeriesSet, error) {
	if len(points) == 0 {
		return SeriesSet{}, ErrEmptySeries
	}
	if oscillatorLabel == "" {
		oscillatorLabel = DefaultOscillatorLabel
	}

	seen := make(map[string]struct{}, len(points))
	times := make([]string, 0, len(points))
	for _, p := range points {
		if p.Date == "" {
			return SeriesSet{}, ErrMissingTime
		}
		if _, dup := seen[p.Date]; dup {
			return SeriesSet{}, fmt.Errorf("%w: %s", ErrDuplicateTime, p.Date)
		}
		seen[p.Date] = struct{}{}
		times = append(times, p.Date)
	}

	line := func(name, color string, axis Axis, value func(data.HistoricalPoint) float64) SeriesSpec {
		pts := make([]Point, len(points))
		for i, p := range points {
			pts[i] = Point{Time: p.Date, Value: value(p)}
		}
		return SeriesSpec{Name: name, Color: color, Axis: axis, Panel: PanelPrimary, Points: pts}
	}

	set := SeriesSet{
		Times: times,
		Primary: []SeriesSpec{
			line(NamePCRVolume, ColorPCRVolume, AxisLeft, func(p data.HistoricalPoint) float64 { return p.PCRVolume }),
			line(NamePCROI, ColorPCROI, AxisLeft, func(p data.HistoricalPoint) float64 { return p.PCROI }),
			line(NameUnderlying, ColorUnderlying, AxisRight, func(p data.HistoricalPoint) float64 { return p.UnderlyingPrice }),
			line(third.Label(), third.Color(), AxisLeft, third.value),
		},
	}

	var osc []Point
	for _, p := range points {
		if p.RSI != nil {
			osc = append(osc, Point{Time: p.Date, Value: *p.RSI})
		}
	}
	if len(osc) > 0 {
		set.Oscillator = &SeriesSpec{
			Name:   oscillatorLabel,
			Color:  ColorOscillator,
			Axis:   AxisOscillator,
			Panel:  PanelOscillator,
			Points: osc,
		}
	}
	return set, nil
}

// All returns every series, primary first.
func (s SeriesSet) All() []SeriesSpec {
	out := append([]SeriesSpec(nil), s.Primary...)
	if s.Oscillator != nil {
		out = append(out, *s.Oscillator)
	}
	return out
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
