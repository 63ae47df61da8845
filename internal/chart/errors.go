package chart

import "errors"

var (
	ErrEmptySeries    = errors.New("no historical data available")
	ErrDuplicateTime  = errors.New("duplicate time key in historical data")
	ErrMissingTime    = errors.New("historical point has no date")
	ErrMissingSymbol  = errors.New("symbol is required")
	ErrMissingDate    = errors.New("date is required")
	ErrUnknownPanel   = errors.New("unknown chart panel")
	ErrUnknownSeries  = errors.New("unknown series")
	ErrSessionClosed  = errors.New("chart session closed")
	ErrNoSession      = errors.New("no chart session open")
	ErrStaleResponse  = errors.New("response superseded by a newer request")
	ErrNoPointerInput = errors.New("chart does not accept pointer input")
)
