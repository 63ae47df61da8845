package table

import "github.com/dgnsrekt/options-dashboard/internal/data"

// Style is the semantic class attached to a rendered cell.
type Style string

const (
	StyleNone         Style = ""
	StyleSymbol       Style = "stock-name"
	StyleStrike       Style = "strike-value"
	StyleClose        Style = "closing-price"
	StylePositive     Style = "positive"
	StyleNegative     Style = "negative"
	StyleNotAvailable Style = "na"
	StyleOverbought   Style = "rsi-overbought"
	StyleOversold     Style = "rsi-oversold"
	StyleNeutral      Style = "rsi-neutral"
)

const (
	OverboughtAbove = 70.0
	OversoldBelow   = 30.0
)

// ClassifyPercent styles a percent by its numeric sign.
func ClassifyPercent(p data.Percent) Style {
	if !p.Available() {
		return StyleNotAvailable
	}
	if p.NonNegative() {
		return StylePositive
	}
	return StyleNegative
}

// ClassifySign styles a plain number by its sign; zero is positive.
func ClassifySign(v float64) Style {
	if v >= 0 {
		return StylePositive
	}
	return StyleNegative
}

// ClassifyOscillator buckets an RSI reading. An absent reading is never
// bucketed.
func ClassifyOscillator(rsi *float64) Style {
	switch {
	case rsi == nil:
		return StyleNotAvailable
	case *rsi > OverboughtAbove:
		return StyleOverbought
	case *rsi < OversoldBelow:
		return StyleOversold
	default:
		return StyleNeutral
	}
}
