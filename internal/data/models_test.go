package data

import (
	"encoding/json"
	"errors"
	"testing"
)

const sampleRow = `{
	"stock": "RELIANCE",
	"call_delta_pos_strike": "1500", "call_delta_pos_pct": "1.23",
	"call_delta_neg_strike": "N/A", "call_delta_neg_pct": "0.00",
	"call_vega_pos_strike": "1520", "call_vega_pos_pct": "4.10",
	"call_vega_neg_strike": "1480", "call_vega_neg_pct": "-2.05",
	"call_total_tradval": 1234567.5, "call_total_money": -2500000000,
	"put_delta_pos_strike": "1400", "put_delta_pos_pct": "0.50",
	"put_delta_neg_strike": "1390", "put_delta_neg_pct": "-0.75",
	"put_vega_pos_strike": "N/A", "put_vega_pos_pct": "0.00",
	"put_vega_neg_strike": "1380", "put_vega_neg_pct": "-1.10",
	"put_total_tradval": 0, "put_total_money": 999,
	"closing_price": 1498.35,
	"rsi": null
}`

func TestMetricRowUnmarshal(t *testing.T) {
	var row MetricRow
	if err := json.Unmarshal([]byte(sampleRow), &row); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if row.Symbol != "RELIANCE" {
		t.Errorf("expected RELIANCE, got %s", row.Symbol)
	}
	if row.Call.DeltaPos.Strike.String() != "1500" {
		t.Errorf("unexpected call delta+ strike: %s", row.Call.DeltaPos.Strike)
	}
	if row.Call.DeltaNeg.Strike.Available() {
		t.Error("call delta- strike should be not-available")
	}
	if row.Call.VegaNeg.Percent.NonNegative() {
		t.Error("call vega- percent should be negative")
	}
	if row.Call.Money != -2500000000 {
		t.Errorf("unexpected call money: %v", row.Call.Money)
	}
	if row.Put.VegaPos.Strike.Available() {
		t.Error("put vega+ strike should be not-available")
	}
	if row.RSI != nil {
		t.Errorf("expected nil RSI, got %v", *row.RSI)
	}
	if row.Side(SidePut).Money != 999 {
		t.Errorf("Side(put) returned wrong metrics")
	}
}

func TestMetricRowMissingFieldsAreNotAvailable(t *testing.T) {
	var row MetricRow
	if err := json.Unmarshal([]byte(`{"stock":"TCS","closing_price":10}`), &row); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if row.Call.VegaPos.Strike.Available() || row.Call.VegaPos.Percent.Available() {
		t.Error("absent strike and percent should decode as not-available")
	}
}

func TestMetricRowRequiresSymbol(t *testing.T) {
	var row MetricRow
	err := json.Unmarshal([]byte(`{"closing_price":10}`), &row)
	if !errors.Is(err, ErrMissingSymbol) {
		t.Errorf("expected ErrMissingSymbol, got %v", err)
	}
}

func TestMetricRowRoundTripKeepsSentinel(t *testing.T) {
	var row MetricRow
	if err := json.Unmarshal([]byte(sampleRow), &row); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var wire map[string]any
	if err := json.Unmarshal(out, &wire); err != nil {
		t.Fatalf("unmarshal map: %v", err)
	}
	if wire["call_delta_neg_strike"] != "N/A" {
		t.Errorf("expected N/A sentinel on the wire, got %v", wire["call_delta_neg_strike"])
	}
}

func TestParseSideAndMetric(t *testing.T) {
	if s, err := ParseSide("PUT"); err != nil || s != SidePut {
		t.Errorf("ParseSide(PUT) = %v, %v", s, err)
	}
	if _, err := ParseSide("straddle"); !errors.Is(err, ErrUnknownSide) {
		t.Errorf("expected ErrUnknownSide, got %v", err)
	}
	if m, err := ParseMetricKind("vega"); err != nil || m != MetricVega {
		t.Errorf("ParseMetricKind(vega) = %v, %v", m, err)
	}
	if _, err := ParseMetricKind("gamma"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
}
