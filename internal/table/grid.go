package table

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"
)

// Grid is the capability set the dashboard needs from a tabular widget.
type Grid interface {
	Load(model RowModel)
	Model() RowModel
	SortBy(column int, desc bool) error
	SetFilter(query string)
	Filter() string
	FixColumns(n int) error
	FixedColumns() int
	Adjust(width, height int)
	Viewport() (width, height int)
	ColumnWidths() []int
	Ordered() []Row
	Visible() []Row
	Page(n int) Page
}

// GridOptions configures a grid on creation.
type GridOptions struct {
	PageLength   int
	FixedColumns int
	OrderColumn  int
	OrderDesc    bool
}

// DefaultGridOptions: 50 rows per page, first column frozen, ordered by
// symbol ascending.
func DefaultGridOptions() GridOptions {
	return GridOptions{PageLength: 50, FixedColumns: 1}
}

// Page is one page of the filtered, sorted rows.
type Page struct {
	Number       int         `json:"number"`
	Pages        int         `json:"pages"`
	PageLength   int         `json:"page_length"`
	Total        int         `json:"total"`
	Filtered     int         `json:"filtered"`
	FixedColumns int         `json:"fixed_columns"`
	Filter       string      `json:"filter"`
	Rows         []Row       `json:"rows"`
	Placeholder  Placeholder `json:"placeholder,omitempty"`
}

const (
	charWidth   = 7
	cellPadding = 16
)

// MemoryGrid is an in-process Grid. It is not safe for concurrent use;
// callers serialize access.
type MemoryGrid struct {
	opts    GridOptions
	model   RowModel
	ordered []Row
	filter  string
	sortCol int
	desc    bool
	fixed   int
	width   int
	height  int
}

func NewMemoryGrid(opts GridOptions) *MemoryGrid {
	if opts.PageLength < 1 {
		opts.PageLength = DefaultGridOptions().PageLength
	}
	return &MemoryGrid{
		opts:    opts,
		sortCol: opts.OrderColumn,
		desc:    opts.OrderDesc,
		fixed:   opts.FixedColumns,
	}
}

// Load replaces the grid's contents and restores the configured
// ordering. The filter is cleared.
func (g *MemoryGrid) Load(model RowModel) {
	g.model = model
	g.filter = ""
	g.sortCol = g.opts.OrderColumn
	g.desc = g.opts.OrderDesc
	g.resort()
}

func (g *MemoryGrid) Model() RowModel { return g.model }

// SortBy orders rows by column. The sort is stable and ties keep input
// order.
func (g *MemoryGrid) SortBy(column int, desc bool) error {
	if column < 0 || column >= len(g.model.Columns) {
		return fmt.Errorf("sort column %d: %w", column, ErrColumnOutOfRange)
	}
	g.sortCol = column
	g.desc = desc
	g.resort()
	return nil
}

func (g *MemoryGrid) SortColumn() (int, bool) { return g.sortCol, g.desc }

func (g *MemoryGrid) SetFilter(query string) { g.filter = query }
func (g *MemoryGrid) Filter() string         { return g.filter }

func (g *MemoryGrid) FixColumns(n int) error {
	if n < 0 || n > len(g.model.Columns) {
		return fmt.Errorf("fixed columns %d: %w", n, ErrColumnOutOfRange)
	}
	g.fixed = n
	return nil
}

func (g *MemoryGrid) FixedColumns() int { return g.fixed }

func (g *MemoryGrid) Adjust(width, height int) {
	g.width = width
	g.height = height
}

func (g *MemoryGrid) Viewport() (int, int) { return g.width, g.height }

// ColumnWidths returns pixel widths sized to content and stretched to
// fill the viewport when there is room.
func (g *MemoryGrid) ColumnWidths() []int {
	widths := make([]int, len(g.model.Columns))
	total := 0
	for i, c := range g.model.Columns {
		w := utf8.RuneCountInString(c.Header)
		for _, r := range g.ordered {
			if i < len(r.Cells) {
				if n := utf8.RuneCountInString(r.Cells[i].Text); n > w {
					w = n
				}
			}
		}
		widths[i] = w*charWidth + cellPadding
		total += widths[i]
	}

	if g.width <= total || total == 0 {
		return widths
	}

	// Stretch the scrolling columns; frozen ones keep their width.
	var scrolling int
	for i := g.fixed; i < len(widths); i++ {
		scrolling += widths[i]
	}
	if scrolling == 0 {
		return widths
	}
	extra := g.width - total
	for i := g.fixed; i < len(widths); i++ {
		widths[i] += extra * widths[i] / scrolling
	}
	return widths
}

// Ordered returns every row in the current sort order, ignoring the filter.
func (g *MemoryGrid) Ordered() []Row {
	out := make([]Row, len(g.ordered))
	copy(out, g.ordered)
	return out
}

// Visible returns the rows matching the filter in the current sort order.
func (g *MemoryGrid) Visible() []Row {
	query := strings.ToLower(strings.TrimSpace(g.filter))
	if query == "" {
		return g.Ordered()
	}

	var out []Row
	for _, r := range g.ordered {
		if rowMatches(r, query) {
			out = append(out, r)
		}
	}
	return out
}

// Page returns page n (zero-based) of the visible rows, clamped to range.
func (g *MemoryGrid) Page(n int) Page {
	visible := g.Visible()
	p := Page{
		PageLength:   g.opts.PageLength,
		Total:        len(g.ordered),
		Filtered:     len(visible),
		FixedColumns: g.fixed,
		Filter:       g.filter,
		Placeholder:  g.model.Placeholder,
	}

	if p.Placeholder == PlaceholderNone && len(visible) == 0 {
		p.Placeholder = PlaceholderNoMatch
	}
	if len(visible) == 0 {
		return p
	}

	p.Pages = (len(visible) + p.PageLength - 1) / p.PageLength
	if n < 0 {
		n = 0
	}
	if n >= p.Pages {
		n = p.Pages - 1
	}
	p.Number = n

	start := n * p.PageLength
	end := start + p.PageLength
	if end > len(visible) {
		end = len(visible)
	}
	p.Rows = visible[start:end]
	return p
}

func (g *MemoryGrid) resort() {
	g.ordered = make([]Row, len(g.model.Rows))
	copy(g.ordered, g.model.Rows)

	col, desc := g.sortCol, g.desc
	sort.SliceStable(g.ordered, func(i, j int) bool {
		c := compareCells(cellOf(g.ordered[i], col), cellOf(g.ordered[j], col))
		if c == 0 {
			return g.ordered[i].Index < g.ordered[j].Index
		}
		if desc {
			return c > 0
		}
		return c < 0
	})
}

func cellOf(r Row, col int) Cell {
	if col < 0 || col >= len(r.Cells) {
		return Cell{}
	}
	return r.Cells[col]
}

// compareCells orders numeric cells by value and places non-numeric
// cells (including N/A) before them; text compares case-insensitively.
func compareCells(a, b Cell) int {
	switch {
	case a.Numeric && b.Numeric:
		switch {
		case a.Value < b.Value:
			return -1
		case a.Value > b.Value:
			return 1
		}
		return 0
	case a.Numeric:
		return 1
	case b.Numeric:
		return -1
	}
	return strings.Compare(strings.ToLower(a.Text), strings.ToLower(b.Text))
}

func rowMatches(r Row, query string) bool {
	for _, c := range r.Cells {
		if strings.Contains(strings.ToLower(c.Text), query) {
			return true
		}
	}
	return false
}
