package chart

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgnsrekt/options-dashboard/internal/data"
)

func fptr(v float64) *float64 { return &v }

func historicalPoints(n int) []data.HistoricalPoint {
	pts := make([]data.HistoricalPoint, n)
	for i := range pts {
		pts[i] = data.HistoricalPoint{
			Date:            fmt.Sprintf("2025-01-%02d", i+1),
			PCRVolume:       0.8 + float64(i)/100,
			PCROI:           1.1,
			UnderlyingPrice: 1500 + float64(i),
			StrikeVega:      fptr(float64(i)),
			AvgVega:         fptr(2 * float64(i)),
			Moneyness:       fptr(-float64(i)),
			RSI:             fptr(40 + float64(i)),
		}
	}
	return pts
}

func TestBuildSeries_OscillatorDropsNulls(t *testing.T) {
	pts := historicalPoints(40)
	pts[10].RSI = nil

	set, err := BuildSeries(pts, MoneynessChange{}, "")
	require.NoError(t, err)

	require.Len(t, set.Times, 40)
	require.Len(t, set.Primary, 4)
	for _, s := range set.Primary {
		require.Len(t, s.Points, 40, s.Name)
		for i, p := range s.Points {
			assert.Equal(t, set.Times[i], p.Time)
		}
	}

	require.NotNil(t, set.Oscillator)
	assert.Len(t, set.Oscillator.Points, 39)
	assert.Equal(t, DefaultOscillatorLabel, set.Oscillator.Name)
	for _, p := range set.Oscillator.Points {
		assert.NotEqual(t, pts[10].Date, p.Time)
	}
	// Ordering is shared with the time axis.
	assert.Equal(t, set.Times[9], set.Oscillator.Points[9].Time)
	assert.Equal(t, set.Times[11], set.Oscillator.Points[10].Time)
}

func TestBuildSeries_FixedSeries(t *testing.T) {
	set, err := BuildSeries(historicalPoints(3), VegaWithStrike{Strike: data.MustStrike("1500")}, "RSI (14)")
	require.NoError(t, err)

	want := []struct {
		name, color string
		axis        Axis
	}{
		{NamePCRVolume, ColorPCRVolume, AxisLeft},
		{NamePCROI, ColorPCROI, AxisLeft},
		{NameUnderlying, ColorUnderlying, AxisRight},
		{"Strike 1500 Vega", ColorVega, AxisLeft},
	}
	for i, w := range want {
		assert.Equal(t, w.name, set.Primary[i].Name)
		assert.Equal(t, w.color, set.Primary[i].Color)
		assert.Equal(t, w.axis, set.Primary[i].Axis)
		assert.Equal(t, PanelPrimary, set.Primary[i].Panel)
	}
	assert.Equal(t, 2.0, set.Primary[3].Points[2].Value)
	assert.Equal(t, "RSI (14)", set.Oscillator.Name)
	assert.Equal(t, ColorOscillator, set.Oscillator.Color)
	assert.Len(t, set.All(), 5)
}

func TestBuildSeries_MissingThirdValueIsZero(t *testing.T) {
	pts := historicalPoints(2)
	pts[1].AvgVega = nil

	set, err := BuildSeries(pts, VegaAverage{}, "")
	require.NoError(t, err)
	assert.Equal(t, 0.0, set.Primary[3].Points[1].Value)
	assert.Equal(t, "Average Vega (All Strikes)", set.Primary[3].Name)
}

func TestBuildSeries_NoOscillatorValues(t *testing.T) {
	pts := historicalPoints(5)
	for i := range pts {
		pts[i].RSI = nil
	}
	set, err := BuildSeries(pts, MoneynessChange{}, "")
	require.NoError(t, err)
	assert.Nil(t, set.Oscillator)
	assert.Len(t, set.All(), 4)
}

func TestBuildSeries_Errors(t *testing.T) {
	_, err := BuildSeries(nil, MoneynessChange{}, "")
	assert.ErrorIs(t, err, ErrEmptySeries)

	pts := historicalPoints(3)
	pts[2].Date = pts[1].Date
	_, err = BuildSeries(pts, MoneynessChange{}, "")
	assert.ErrorIs(t, err, ErrDuplicateTime)

	pts = historicalPoints(2)
	pts[0].Date = ""
	_, err = BuildSeries(pts, MoneynessChange{}, "")
	assert.ErrorIs(t, err, ErrMissingTime)
}

func TestSelectThird(t *testing.T) {
	third, err := SelectThird(data.MetricVega, data.MustStrike("1520"))
	require.NoError(t, err)
	assert.Equal(t, VegaWithStrike{Strike: data.MustStrike("1520")}, third)

	third, err = SelectThird(data.MetricVega, data.NoStrike)
	require.NoError(t, err)
	assert.Equal(t, VegaAverage{}, third)

	third, err = SelectThird(data.MetricMoney, data.MustStrike("1520"))
	require.NoError(t, err)
	assert.Equal(t, MoneynessChange{}, third)
	assert.Equal(t, ColorMoneyness, third.Color())

	_, err = SelectThird("gamma", data.NoStrike)
	assert.ErrorIs(t, err, data.ErrUnknownMetric)
}

func TestValidateAndTitle(t *testing.T) {
	req := data.HistoricalRequest{Symbol: " TCS ", Side: data.SidePut, Metric: data.MetricMoney, Strike: data.MustStrike("4000"), Date: "2025-01-10"}
	req, third, err := Validate(req)
	require.NoError(t, err)
	assert.Equal(t, "TCS", req.Symbol)
	assert.False(t, req.Strike.Available(), "money requests carry no strike")
	assert.Equal(t, "TCS - PUT Historical Data (40 Days) - Moneyness", Title(req, third, 40))

	req = data.HistoricalRequest{Symbol: "TCS", Side: data.SideCall, Metric: data.MetricVega, Strike: data.MustStrike("4000"), Date: "2025-01-10"}
	req, third, err = Validate(req)
	require.NoError(t, err)
	assert.Equal(t, "TCS - CALL Historical Data (40 Days) - Strike: 4000 - Vega Trend", Title(req, third, 0))

	_, _, err = Validate(data.HistoricalRequest{Side: data.SideCall, Metric: data.MetricVega, Date: "d"})
	assert.ErrorIs(t, err, ErrMissingSymbol)
	_, _, err = Validate(data.HistoricalRequest{Symbol: "A", Side: data.SideCall, Metric: data.MetricVega})
	assert.ErrorIs(t, err, ErrMissingDate)
	_, _, err = Validate(data.HistoricalRequest{Symbol: "A", Side: "both", Metric: data.MetricVega, Date: "d"})
	assert.ErrorIs(t, err, data.ErrUnknownSide)
}

func TestComputeLayout(t *testing.T) {
	l := ComputeLayout(800, 1000, true, DefaultPrimaryRatio)
	require.Len(t, l.Panels, 2)

	primary, ok := l.Panel(PanelPrimary)
	require.True(t, ok)
	assert.Equal(t, 720, primary.Height)
	assert.False(t, primary.ShowTimeAxis)

	osc, ok := l.Panel(PanelOscillator)
	require.True(t, ok)
	assert.Equal(t, 280, osc.Height)
	assert.Equal(t, 720, osc.Top)
	assert.True(t, osc.ShowTimeAxis)

	single := ComputeLayout(800, 1000, false, DefaultPrimaryRatio)
	require.Len(t, single.Panels, 1)
	assert.Equal(t, 1000, single.Panels[0].Height)
	assert.True(t, single.Panels[0].ShowTimeAxis)

	fallback := ComputeLayout(100, 100, true, 1.5)
	p, _ := fallback.Panel(PanelPrimary)
	assert.Equal(t, 72, p.Height)
}
