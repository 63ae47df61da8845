package table

import (
	"errors"
	"fmt"

	"github.com/dgnsrekt/options-dashboard/internal/data"
)

// NoticeNoStrike is shown when a vega cell without a strike is activated.
const NoticeNoStrike = "No strike data available"

var (
	ErrUnknownClassification = errors.New("unknown classification")
	ErrNotClickable          = errors.New("cell does not open a chart")
	ErrCellOutOfRange        = errors.New("cell out of range")
	ErrColumnOutOfRange      = errors.New("column out of range")
)

// InertCellError is returned when a clickable cell has nothing to open.
type InertCellError struct {
	Notice string
}

func (e *InertCellError) Error() string {
	return e.Notice
}

// ChartAction identifies the historical series a cell opens.
type ChartAction struct {
	Symbol string          `json:"symbol"`
	Side   data.Side       `json:"side"`
	Metric data.MetricKind `json:"metric"`
	Strike data.Strike     `json:"strike"`
}

// Request turns the action into a historical request for date.
func (a ChartAction) Request(date string) data.HistoricalRequest {
	return data.HistoricalRequest{
		Symbol: a.Symbol,
		Side:   a.Side,
		Metric: a.Metric,
		Strike: a.Strike,
		Date:   date,
	}
}

// Activate resolves a click on cell. Inert cells yield *InertCellError and
// non-clickable cells ErrNotClickable; neither issues a request.
func Activate(cell Cell) (ChartAction, error) {
	if cell.Action != nil {
		return *cell.Action, nil
	}
	if cell.Notice != "" {
		return ChartAction{}, &InertCellError{Notice: cell.Notice}
	}
	return ChartAction{}, ErrNotClickable
}

// CellAt returns the cell at row/column of the given rows.
func CellAt(rows []Row, row, col int) (Cell, error) {
	if row < 0 || row >= len(rows) {
		return Cell{}, fmt.Errorf("row %d: %w", row, ErrCellOutOfRange)
	}
	cells := rows[row].Cells
	if col < 0 || col >= len(cells) {
		return Cell{}, fmt.Errorf("column %d: %w", col, ErrCellOutOfRange)
	}
	return cells[col], nil
}
