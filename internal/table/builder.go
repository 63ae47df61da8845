package table

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgnsrekt/options-dashboard/internal/data"
)

// Classification is the backend-supplied moneyness bucket of a row set.
type Classification string

const (
	Total Classification = "TOTAL"
	OTM   Classification = "OTM"
	ITM   Classification = "ITM"
)

// Classifications lists the tabs in display order.
func Classifications() []Classification {
	return []Classification{Total, OTM, ITM}
}

func ParseClassification(s string) (Classification, error) {
	c := Classification(strings.ToUpper(strings.TrimSpace(s)))
	switch c {
	case Total, OTM, ITM:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownClassification, s)
}

// TabID is the lowercase identifier used in URLs and tab switches.
func (c Classification) TabID() string {
	return strings.ToLower(string(c))
}

// Rows selects this classification's rows from a snapshot.
func (c Classification) Rows(snap data.MetricsSnapshot) []data.MetricRow {
	switch c {
	case OTM:
		return snap.OTM
	case ITM:
		return snap.ITM
	default:
		return snap.Total
	}
}

// Placeholder replaces the rows of a model that has nothing to show.
type Placeholder string

const (
	PlaceholderNone      Placeholder = ""
	PlaceholderLoading   Placeholder = "Loading..."
	PlaceholderNoData    Placeholder = "No data available"
	PlaceholderLoadError Placeholder = "Error loading data"
	PlaceholderNoMatch   Placeholder = "No matching records found"
)

// Cell is one rendered value. Numeric cells carry their raw value as the
// sort key; clickable cells carry either a chart action or, when inert,
// the notice to show instead.
type Cell struct {
	Text    string       `json:"text"`
	Style   Style        `json:"style,omitempty"`
	Value   float64      `json:"-"`
	Numeric bool         `json:"-"`
	Action  *ChartAction `json:"action,omitempty"`
	Notice  string       `json:"notice,omitempty"`
}

// Clickable reports whether activating the cell does anything, including
// showing a notice.
func (c Cell) Clickable() bool {
	return c.Action != nil || c.Notice != ""
}

// Row is one symbol's rendered cells. Index is the position in the input,
// the default sort key.
type Row struct {
	Index  int    `json:"index"`
	Symbol string `json:"symbol"`
	Cells  []Cell `json:"cells"`
}

// RowModel is the grid-ready rendering of one classification.
type RowModel struct {
	Classification Classification `json:"classification"`
	Columns        []Column       `json:"columns"`
	Rows           []Row          `json:"rows"`
	Placeholder    Placeholder    `json:"placeholder,omitempty"`
}

// HasRows reports whether the model has real rows rather than a placeholder.
func (m RowModel) HasRows() bool {
	return m.Placeholder == PlaceholderNone && len(m.Rows) > 0
}

// Headers returns the column headers in order.
func (m RowModel) Headers() []string {
	headers := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		headers[i] = c.Header
	}
	return headers
}

// PlaceholderModel builds a model that shows p instead of rows.
func PlaceholderModel(c Classification, p Placeholder) RowModel {
	return RowModel{Classification: c, Columns: Columns, Placeholder: p}
}

// Build renders rows for one classification. Output order equals input
// order. An empty input yields the no-data placeholder.
func Build(c Classification, rows []data.MetricRow) RowModel {
	if len(rows) == 0 {
		return PlaceholderModel(c, PlaceholderNoData)
	}

	model := RowModel{
		Classification: c,
		Columns:        Columns,
		Rows:           make([]Row, 0, len(rows)),
	}
	for i, r := range rows {
		model.Rows = append(model.Rows, buildRow(i, r))
	}
	return model
}

func buildRow(index int, r data.MetricRow) Row {
	cells := make([]Cell, 0, len(Columns))
	cells = append(cells, Cell{Text: r.Symbol, Style: StyleSymbol})
	cells = append(cells, sideCells(r.Symbol, data.SideCall, r.Call)...)
	cells = append(cells,
		numberCell(strconv.FormatFloat(r.Close, 'f', 2, 64), StyleClose, r.Close),
		oscillatorCell(r.RSI),
	)
	cells = append(cells, sideCells(r.Symbol, data.SidePut, r.Put)...)

	return Row{Index: index, Symbol: r.Symbol, Cells: cells}
}

func sideCells(symbol string, side data.Side, m data.SideMetrics) []Cell {
	money := moneyCell(m.Money)
	money.Action = &ChartAction{Symbol: symbol, Side: side, Metric: data.MetricMoney}

	return []Cell{
		strikeCell(m.DeltaPos.Strike),
		percentCell(m.DeltaPos.Percent),
		strikeCell(m.DeltaNeg.Strike),
		percentCell(m.DeltaNeg.Percent),
		strikeCell(m.VegaPos.Strike),
		vegaCell(symbol, side, m.VegaPos),
		strikeCell(m.VegaNeg.Strike),
		vegaCell(symbol, side, m.VegaNeg),
		moneyCell(m.TradedValue),
		money,
	}
}

func strikeCell(s data.Strike) Cell {
	if !s.Available() {
		return Cell{Text: data.NotAvailable, Style: StyleStrike}
	}
	f, _ := s.Decimal().Float64()
	return numberCell(s.String(), StyleStrike, f)
}

func percentCell(p data.Percent) Cell {
	if !p.Available() {
		return Cell{Text: data.NotAvailable, Style: StyleNotAvailable}
	}
	return numberCell(p.String()+"%", ClassifyPercent(p), p.Float64())
}

// vegaCell is clickable: it opens the strike's vega trend, or shows a
// notice when the row has no strike for it.
func vegaCell(symbol string, side data.Side, shift data.StrikeShift) Cell {
	cell := percentCell(shift.Percent)
	if !shift.Strike.Available() {
		cell.Notice = NoticeNoStrike
		return cell
	}
	cell.Action = &ChartAction{
		Symbol: symbol,
		Side:   side,
		Metric: data.MetricVega,
		Strike: shift.Strike,
	}
	return cell
}

func moneyCell(v float64) Cell {
	return numberCell(FormatMagnitude(v), ClassifySign(v), v)
}

func oscillatorCell(rsi *float64) Cell {
	if rsi == nil {
		return Cell{Text: data.NotAvailable, Style: ClassifyOscillator(nil)}
	}
	return numberCell(strconv.FormatFloat(*rsi, 'f', 2, 64), ClassifyOscillator(rsi), *rsi)
}

func numberCell(text string, style Style, v float64) Cell {
	return Cell{Text: text, Style: style, Value: v, Numeric: true}
}
