package detail

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/options-dashboard/internal/data"
	"github.com/dgnsrekt/options-dashboard/internal/table"
)

func ptr(v float64) *float64 { return &v }

func sampleDetail() data.StockDetail {
	return data.StockDetail{
		ExpiryDates: []string{"2025-01-30", "2025-02-27"},
		Stats: &data.StockStats{
			PCROI:        ptr(1.25),
			TotalCEOI:    12_500_000,
			TotalPEOI:    15_625_000,
			TotalCEOIChg: 250_000,
			TotalPEOIChg: -40_000,
		},
		OptionChain: []data.ChainRow{
			{Strike: 2400, CallOI: 1000, PutOI: 5000, CallOIChg: 50, PutOIChg: -20, CallPrice: 110.5, PutPrice: 3.25, IV: ptr(18)},
			{Strike: 2450, CallOI: 8000, PutOI: 3000, CallOIChg: -10, PutOIChg: 400, CallPrice: 62, PutPrice: 9.8, IV: ptr(22)},
			{Strike: 2500, CallOI: 8000, PutOI: 1000, CallOIChg: 900, PutOIChg: 5, CallPrice: 25.1, PutPrice: 31, IV: nil},
		},
		LastUpdated: "2025-01-15 15:30",
	}
}

func TestBuild(t *testing.T) {
	v, err := Build("RELIANCE", "2025-01-15", sampleDetail())
	require.NoError(t, err)

	assert.Equal(t, Gauge{Value: "1.25", Min: "0.95", Max: "1.55"}, v.PCR)
	assert.Equal(t, Gauge{Value: "20.00", Min: "18.00", Max: "22.00"}, v.IV)
	assert.Empty(t, v.Placeholder)
	assert.Equal(t, []string{"2025-01-30", "2025-02-27"}, v.Expiries)

	assert.Equal(t, "1.25Cr", v.Stats.TotalCEOI)
	assert.Equal(t, "1.56Cr", v.Stats.TotalPEOI)
	assert.Equal(t, "3.12M", v.Stats.DiffOI)
	assert.Equal(t, "-290.00K", v.Stats.DiffOIChg)
	assert.Equal(t, TrendBearish, v.Stats.Trend)
	assert.Equal(t, TrendBullish, v.Stats.TrendChg)

	assert.Equal(t, MaxStrikes{CallOI: "2450", PutOI: "2400", CallOIChg: "2500", PutOIChg: "2450"}, v.MaxStrikes)

	require.Len(t, v.Chain, 3)
	first := v.Chain[0].Cells
	require.Len(t, first, len(ChainHeaders))
	assert.Equal(t, "2400", first[4].Text)
	assert.Equal(t, table.StyleStrike, first[4].Style)
	assert.Equal(t, table.StylePositive, first[1].Style)
	assert.Equal(t, table.StyleNegative, first[7].Style)
	assert.Equal(t, "110.50", first[3].Text)
}

func TestBuildEmptySnapshot(t *testing.T) {
	v, err := Build("TCS", "2025-01-15", data.StockDetail{})
	require.NoError(t, err)

	assert.Equal(t, NoExpiry, v.Placeholder)
	assert.Equal(t, emptyGauge, v.PCR)
	assert.Equal(t, emptyGauge, v.IV)
	assert.Equal(t, Dash, v.Stats.DiffOI)
	assert.Empty(t, v.Stats.Trend)
	assert.Equal(t, Dash, v.MaxStrikes.CallOI)
	assert.Empty(t, v.Chain)
}

func TestBuildBackendError(t *testing.T) {
	_, err := Build("TCS", "2025-01-15", data.StockDetail{Error: "no data for date"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data for date")
}

func TestPCRGaugeFloorsAtZero(t *testing.T) {
	g := pcrGauge(&data.StockStats{PCROI: ptr(0.1)})
	assert.Equal(t, "0.00", g.Min)
	assert.Equal(t, "0.40", g.Max)
}

func TestTrendFromPCR(t *testing.T) {
	assert.Equal(t, TrendBearish, TrendFromPCR(1.3))
	assert.Equal(t, TrendBullish, TrendFromPCR(0.7))
	assert.Equal(t, TrendNeutral, TrendFromPCR(1))
}
