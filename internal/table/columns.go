package table

import "github.com/dgnsrekt/options-dashboard/internal/data"

// Group is the header band a column belongs to.
type Group string

const (
	GroupSymbol Group = "stock"
	GroupCall   Group = "call"
	GroupPut    Group = "put"
	GroupClose  Group = "close"
	GroupRSI    Group = "rsi"
)

// Column describes one position of the row-model. The layout is the
// same for every classification.
type Column struct {
	Key    string `json:"key"`
	Header string `json:"header"`
	Group  Group  `json:"group"`
}

// Columns is the fixed column layout: symbol, ten call columns, close,
// RSI, ten put columns.
var Columns = buildColumns()

// ColumnIndex returns the position of key, or -1.
func ColumnIndex(key string) int {
	for i, c := range Columns {
		if c.Key == key {
			return i
		}
	}
	return -1
}

func buildColumns() []Column {
	cols := []Column{{Key: "stock", Header: "Stock", Group: GroupSymbol}}
	cols = append(cols, sideColumns(data.SideCall)...)
	cols = append(cols,
		Column{Key: "closing_price", Header: "Close", Group: GroupClose},
		Column{Key: "rsi", Header: "RSI", Group: GroupRSI},
	)
	cols = append(cols, sideColumns(data.SidePut)...)
	return cols
}

func sideColumns(side data.Side) []Column {
	group := GroupCall
	if side == data.SidePut {
		group = GroupPut
	}
	prefix := string(side)
	title := side.Title()

	specs := []struct{ key, header string }{
		{"delta_pos_strike", "Δ+ Strike"},
		{"delta_pos_pct", "Δ+ %"},
		{"delta_neg_strike", "Δ- Strike"},
		{"delta_neg_pct", "Δ- %"},
		{"vega_pos_strike", "Vega+ Strike"},
		{"vega_pos_pct", "Vega+ %"},
		{"vega_neg_strike", "Vega- Strike"},
		{"vega_neg_pct", "Vega- %"},
		{"total_tradval", "ΔTV"},
		{"total_money", "ΔMoney"},
	}

	cols := make([]Column, 0, len(specs))
	for _, s := range specs {
		cols = append(cols, Column{
			Key:    prefix + "_" + s.key,
			Header: title + " " + s.header,
			Group:  group,
		})
	}
	return cols
}
