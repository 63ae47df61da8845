package table

import (
	"fmt"

	"github.com/dgnsrekt/options-dashboard/internal/data"
)

// TabSet holds one grid per classification and tracks which is active.
// Callers serialize access.
type TabSet struct {
	grids  map[Classification]Grid
	active Classification
}

// NewTabSet creates a grid per classification using newGrid. Total is
// active initially.
func NewTabSet(newGrid func() Grid) *TabSet {
	t := &TabSet{
		grids:  make(map[Classification]Grid),
		active: Total,
	}
	for _, c := range Classifications() {
		g := newGrid()
		g.Load(PlaceholderModel(c, PlaceholderLoading))
		t.grids[c] = g
	}
	return t
}

// Load builds and installs all three classifications from a snapshot.
func (t *TabSet) Load(snap data.MetricsSnapshot) {
	for _, c := range Classifications() {
		t.grids[c].Load(Build(c, c.Rows(snap)))
	}
}

// SetPlaceholder replaces every tab's rows with p.
func (t *TabSet) SetPlaceholder(p Placeholder) {
	for c, g := range t.grids {
		g.Load(PlaceholderModel(c, p))
	}
}

func (t *TabSet) Active() Classification { return t.active }

func (t *TabSet) ActiveGrid() Grid { return t.grids[t.active] }

func (t *TabSet) Grid(c Classification) (Grid, error) {
	g, ok := t.grids[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClassification, c)
	}
	return g, nil
}

// Switch activates target, carrying the active view's filter and
// viewport over to it.
func (t *TabSet) Switch(target Classification) error {
	dest, err := t.Grid(target)
	if err != nil {
		return err
	}

	src := t.grids[t.active]
	filter := src.Filter()
	width, height := src.Viewport()

	t.active = target
	dest.SetFilter(filter)
	dest.Adjust(width, height)
	return nil
}

// Adjust resizes every grid to the container.
func (t *TabSet) Adjust(width, height int) {
	for _, g := range t.grids {
		g.Adjust(width, height)
	}
}
