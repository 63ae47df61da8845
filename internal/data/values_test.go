package data

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseStrike(t *testing.T) {
	tests := []struct {
		in        string
		available bool
		text      string
		wantErr   bool
	}{
		{"1500", true, "1500", false},
		{" 24350.5 ", true, "24350.5", false},
		{"N/A", false, "N/A", false},
		{"n/a", false, "N/A", false},
		{"", false, "N/A", false},
		{"0", false, "", true},
		{"-100", false, "", true},
		{"abc", false, "", true},
	}

	for _, tt := range tests {
		s, err := ParseStrike(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseStrike(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseStrike(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if s.Available() != tt.available {
			t.Errorf("ParseStrike(%q).Available() = %v, want %v", tt.in, s.Available(), tt.available)
		}
		if s.String() != tt.text {
			t.Errorf("ParseStrike(%q).String() = %q, want %q", tt.in, s.String(), tt.text)
		}
	}
}

func TestParseStrike_NonPositiveSentinel(t *testing.T) {
	_, err := ParseStrike("0")
	if !errors.Is(err, ErrNonPositiveStrike) {
		t.Errorf("expected ErrNonPositiveStrike, got %v", err)
	}
}

func TestStrikeUnmarshalJSON(t *testing.T) {
	var holder struct {
		A Strike `json:"a"`
		B Strike `json:"b"`
		C Strike `json:"c"`
		D Strike `json:"d"`
	}
	if err := json.Unmarshal([]byte(`{"a":"1500","b":1520.5,"c":"N/A","d":null}`), &holder); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if holder.A.String() != "1500" || !holder.A.Available() {
		t.Errorf("a: got %q", holder.A)
	}
	if holder.B.String() != "1520.5" {
		t.Errorf("b: got %q", holder.B)
	}
	if holder.C.Available() || holder.D.Available() {
		t.Error("expected c and d to be not-available")
	}
}

func TestPercentSign(t *testing.T) {
	tests := []struct {
		in          string
		nonNegative bool
	}{
		{"1.23", true},
		{"0.00", true},
		{"-0.00", true},
		{"-0.01", false},
		{"-12.5", false},
		{"N/A", false},
	}

	for _, tt := range tests {
		p := MustPercent(tt.in)
		if p.NonNegative() != tt.nonNegative {
			t.Errorf("Percent(%q).NonNegative() = %v, want %v", tt.in, p.NonNegative(), tt.nonNegative)
		}
	}
}

func TestPercentNotAvailableDistinctFromZero(t *testing.T) {
	zero := MustPercent("0")
	var na Percent

	if !zero.Available() {
		t.Error("zero percent should be available")
	}
	if na.Available() {
		t.Error("zero value percent should be not-available")
	}
	if na.String() != NotAvailable {
		t.Errorf("expected %q, got %q", NotAvailable, na.String())
	}
}
