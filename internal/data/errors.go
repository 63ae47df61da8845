package data

import "errors"

var (
	ErrNonPositiveStrike = errors.New("strike must be positive")
	ErrMissingSymbol     = errors.New("metric row has no symbol")
	ErrUnknownSide       = errors.New("unknown option side")
	ErrUnknownMetric     = errors.New("unknown metric kind")
)
