package export

import "errors"

var (
	// ErrNothingToExport is shown to the user as is.
	ErrNothingToExport = errors.New("No data to export")
	ErrNoSeries        = errors.New("no series points to export")
)
