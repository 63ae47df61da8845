package chart

import (
	"fmt"
	"strings"

	"github.com/dgnsrekt/options-dashboard/internal/data"
)

// DefaultHistoryDays is the lookback the backend serves per request.
const DefaultHistoryDays = 40

// Validate checks a request before anything is fetched and returns the
// third series it selects. A strike on a money request is dropped.
func Validate(req data.HistoricalRequest) (data.HistoricalRequest, ThirdSeries, error) {
	req.Symbol = strings.TrimSpace(req.Symbol)
	if req.Symbol == "" {
		return req, nil, ErrMissingSymbol
	}
	if strings.TrimSpace(req.Date) == "" {
		return req, nil, ErrMissingDate
	}
	if _, err := data.ParseSide(string(req.Side)); err != nil {
		return req, nil, err
	}

	third, err := SelectThird(req.Metric, req.Strike)
	if err != nil {
		return req, nil, err
	}
	if req.Metric != data.MetricVega {
		req.Strike = data.NoStrike
	}
	return req, third, nil
}

// Title is the heading shown above a session's panels.
func Title(req data.HistoricalRequest, third ThirdSeries, days int) string {
	if days <= 0 {
		days = DefaultHistoryDays
	}
	return fmt.Sprintf("%s - %s Historical Data (%d Days)%s",
		req.Symbol, strings.ToUpper(string(req.Side)), days, third.TitleSuffix())
}
