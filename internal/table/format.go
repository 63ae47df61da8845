package table

import (
	"math"
	"strconv"
)

// Unit is one rung of a magnitude ladder.
type Unit struct {
	Threshold float64
	Suffix    string
}

// Ladder scales a number by the largest unit whose threshold its
// absolute value reaches. Units must be ordered largest first.
type Ladder []Unit

var (
	// Western is the billions/millions/thousands ladder used by the
	// metrics tables.
	Western = Ladder{{1e9, "B"}, {1e6, "M"}, {1e3, "K"}}

	// Indian is the crore ladder used by the stock detail view.
	Indian = Ladder{{1e7, "Cr"}, {1e6, "M"}, {1e3, "K"}}
)

// Format renders v with two decimals after scaling. Exact zero is "0".
// A value that rounds up to 1000 of its unit moves to the next larger
// unit when the ladder has one.
func (l Ladder) Format(v float64) string {
	if v == 0 {
		return "0"
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "N/A"
	}

	abs := math.Abs(v)
	i := len(l)
	for j, u := range l {
		if abs >= u.Threshold {
			i = j
			break
		}
	}

	for {
		threshold, suffix := 1.0, ""
		if i < len(l) {
			threshold, suffix = l[i].Threshold, l[i].Suffix
		}
		text := strconv.FormatFloat(v/threshold, 'f', 2, 64)
		if i > 0 && roundsToThousand(text) {
			i--
			continue
		}
		return text + suffix
	}
}

func roundsToThousand(text string) bool {
	r, err := strconv.ParseFloat(text, 64)
	return err == nil && math.Abs(r) >= 1000
}

// FormatMagnitude formats a traded-value or money delta for the tables.
func FormatMagnitude(v float64) string {
	return Western.Format(v)
}
