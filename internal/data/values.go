package data

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// NotAvailable is the wire and display sentinel for a missing strike or percent.
const NotAvailable = "N/A"

// Strike is a positive strike price or the not-available sentinel.
// The zero value is not-available.
type Strike struct {
	value decimal.Decimal
	text  string
	ok    bool
}

// NoStrike is the not-available strike.
var NoStrike = Strike{}

// ParseStrike parses a strike from its textual form. Blank and "N/A"
// yield NoStrike; zero, negative, and non-numeric values are rejected.
func ParseStrike(s string) (Strike, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, NotAvailable) {
		return NoStrike, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return NoStrike, fmt.Errorf("parsing strike %q: %w", s, err)
	}
	if !d.IsPositive() {
		return NoStrike, fmt.Errorf("strike %q: %w", s, ErrNonPositiveStrike)
	}
	return Strike{value: d, text: s, ok: true}, nil
}

// MustStrike is ParseStrike for literals known to be valid.
func MustStrike(s string) Strike {
	st, err := ParseStrike(s)
	if err != nil {
		panic(err)
	}
	return st
}

func (s Strike) Available() bool          { return s.ok }
func (s Strike) Decimal() decimal.Decimal { return s.value }

func (s Strike) String() string {
	if !s.ok {
		return NotAvailable
	}
	return s.text
}

func (s *Strike) UnmarshalJSON(b []byte) error {
	text, err := scalarText(b)
	if err != nil {
		return fmt.Errorf("strike: %w", err)
	}
	parsed, err := ParseStrike(text)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s Strike) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Percent is a signed percentage or the not-available sentinel, which is
// distinct from zero. The zero value is not-available.
type Percent struct {
	value decimal.Decimal
	text  string
	ok    bool
}

// ParsePercent parses a percentage such as "1.23" or "-0.50".
func ParsePercent(s string) (Percent, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, NotAvailable) {
		return Percent{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Percent{}, fmt.Errorf("parsing percent %q: %w", s, err)
	}
	return Percent{value: d, text: s, ok: true}, nil
}

// MustPercent is ParsePercent for literals known to be valid.
func MustPercent(s string) Percent {
	p, err := ParsePercent(s)
	if err != nil {
		panic(err)
	}
	return p
}

func (p Percent) Available() bool          { return p.ok }
func (p Percent) Decimal() decimal.Decimal { return p.value }

// NonNegative reports whether the numeric value is >= 0. It compares the
// parsed value, never the text.
func (p Percent) NonNegative() bool {
	return p.ok && p.value.Sign() >= 0
}

func (p Percent) Float64() float64 {
	f, _ := p.value.Float64()
	return f
}

func (p Percent) String() string {
	if !p.ok {
		return NotAvailable
	}
	return p.text
}

func (p *Percent) UnmarshalJSON(b []byte) error {
	text, err := scalarText(b)
	if err != nil {
		return fmt.Errorf("percent: %w", err)
	}
	parsed, err := ParsePercent(text)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p Percent) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// scalarText accepts a JSON string, number, or null and returns its text.
func scalarText(b []byte) (string, error) {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return "", nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return "", err
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}
