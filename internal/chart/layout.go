package chart

import "math"

// DefaultPrimaryRatio is the share of the container height given to the
// primary panel when an oscillator panel is present.
const DefaultPrimaryRatio = 0.72

// PanelGeometry is the placement of one panel within the container.
type PanelGeometry struct {
	Panel        Panel `json:"panel"`
	Top          int   `json:"top"`
	Width        int   `json:"width"`
	Height       int   `json:"height"`
	ShowTimeAxis bool  `json:"show_time_axis"`
}

// Layout is the stacked panel arrangement for a container size.
type Layout struct {
	Width  int             `json:"width"`
	Height int             `json:"height"`
	Panels []PanelGeometry `json:"panels"`
}

// Panel returns the geometry of p, if laid out.
func (l Layout) Panel(p Panel) (PanelGeometry, bool) {
	for _, g := range l.Panels {
		if g.Panel == p {
			return g, true
		}
	}
	return PanelGeometry{}, false
}

// ComputeLayout splits the container between the primary and oscillator
// panels. With an oscillator the primary panel hides its time axis and
// the oscillator panel shows the shared one.
func ComputeLayout(width, height int, withOscillator bool, ratio float64) Layout {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	if ratio <= 0 || ratio >= 1 {
		ratio = DefaultPrimaryRatio
	}

	l := Layout{Width: width, Height: height}
	if !withOscillator {
		l.Panels = []PanelGeometry{{Panel: PanelPrimary, Width: width, Height: height, ShowTimeAxis: true}}
		return l
	}

	primary := int(math.Round(float64(height) * ratio))
	l.Panels = []PanelGeometry{
		{Panel: PanelPrimary, Width: width, Height: primary, ShowTimeAxis: false},
		{Panel: PanelOscillator, Top: primary, Width: width, Height: height - primary, ShowTimeAxis: true},
	}
	return l
}
