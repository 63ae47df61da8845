package main

import (
	"reflect"
	"testing"

	"go.uber.org/zap"
)

func TestParseDates(t *testing.T) {
	got, err := parseDates([]string{"2025-01-30", "2025-02-02"})
	if err != nil {
		t.Fatalf("parseDates: %v", err)
	}
	want := []string{"2025-01-30", "2025-01-31", "2025-02-01", "2025-02-02"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := parseDates([]string{"2025-02-02", "2025-01-30"}); err == nil {
		t.Error("expected error for reversed range")
	}
	if _, err := parseDates([]string{"01/30/2025"}); err == nil {
		t.Error("expected error for bad format")
	}
}

func TestTradingDates(t *testing.T) {
	logger = zap.NewNop()

	got := tradingDates(
		[]string{"2025-01-03", "2025-01-04", "2025-01-05", "2025-01-06"},
		[]string{"2025-01-06", "2025-01-03", "2024-12-31"},
	)
	want := []string{"2025-01-03", "2025-01-06"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}
