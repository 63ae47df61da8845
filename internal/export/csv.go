package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/dgnsrekt/options-dashboard/internal/data"
)

// SeriesRecord is one CSV line of a historical series. Optional values
// are blank when absent.
type SeriesRecord struct {
	Ticker          string `csv:"ticker"`
	Date            string `csv:"date"`
	PCRVolume       string `csv:"pcr_volume"`
	PCROI           string `csv:"pcr_oi"`
	UnderlyingPrice string `csv:"underlying_price"`
	StrikeVega      string `csv:"strike_vega"`
	AvgVega         string `csv:"avg_vega"`
	Moneyness       string `csv:"moneyness"`
	RSI             string `csv:"rsi"`
}

// SeriesFileName names the CSV for one historical request.
func SeriesFileName(req data.HistoricalRequest) string {
	name := fmt.Sprintf("History_%s_%s_%s", req.Symbol, req.Side, req.Metric)
	if req.Metric == data.MetricVega && req.Strike.Available() {
		name += "_" + req.Strike.String()
	}
	return name + "_" + req.Date + ".csv"
}

// WriteSeriesCSV writes a historical series as CSV with a header line.
func WriteSeriesCSV(w io.Writer, series data.HistoricalSeries) error {
	if len(series.Data) == 0 {
		return ErrNoSeries
	}

	records := make([]*SeriesRecord, 0, len(series.Data))
	for _, p := range series.Data {
		records = append(records, &SeriesRecord{
			Ticker:          series.Ticker,
			Date:            p.Date,
			PCRVolume:       number(p.PCRVolume),
			PCROI:           number(p.PCROI),
			UnderlyingPrice: number(p.UnderlyingPrice),
			StrikeVega:      optional(p.StrikeVega),
			AvgVega:         optional(p.AvgVega),
			Moneyness:       optional(p.Moneyness),
			RSI:             optional(p.RSI),
		})
	}

	if err := gocsv.Marshal(&records, w); err != nil {
		return fmt.Errorf("encoding %s series: %w", series.Ticker, err)
	}
	return nil
}

// ReadSeriesCSV parses records written by WriteSeriesCSV.
func ReadSeriesCSV(r io.Reader) ([]*SeriesRecord, error) {
	var records []*SeriesRecord
	if err := gocsv.Unmarshal(r, &records); err != nil {
		return nil, fmt.Errorf("decoding series csv: %w", err)
	}
	return records, nil
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optional(v *float64) string {
	if v == nil {
		return ""
	}
	return number(*v)
}
