package chart

// CrosshairEvent reports pointer movement over a panel. An empty Time
// means the pointer left the plot area.
type CrosshairEvent struct {
	Time string
}

// ChartOptions configures a new chart instance.
type ChartOptions struct {
	Panel        Panel
	Title        string
	Width        int
	Height       int
	ShowTimeAxis bool
}

// Factory creates chart instances.
type Factory interface {
	NewChart(opts ChartOptions) (Chart, error)
}

// Chart is the widget contract for one panel.
type Chart interface {
	AddSeries(spec SeriesSpec) (SeriesHandle, error)
	Resize(width, height int)
	SetTimeAxisVisible(visible bool)
	// SubscribeCrosshairMove registers fn for pointer events and returns
	// the function that removes it.
	SubscribeCrosshairMove(fn func(CrosshairEvent)) (unsubscribe func())
	SetCrosshair(time string, ref SeriesHandle)
	ClearCrosshair()
	Remove()
}

// SeriesHandle is a drawn series.
type SeriesHandle interface {
	SetVisible(visible bool)
}

// Container is the region the panels are laid out in.
type Container interface {
	Size() (width, height int)
	// OnResize registers fn for size changes and returns the function
	// that cancels it.
	OnResize(fn func(width, height int)) (cancel func())
}

// PointerInput is implemented by charts that receive pointer positions
// from outside the process, such as a remote browser.
type PointerInput interface {
	Pointer(time string)
}
