package dashboard

import "errors"

const (
	NoticeNoDate      = "Please select a date"
	NoticeChartNoDate = "Select date"
	NoticeNoHistory   = "No historical data available"

	backendErrorPrefix = "Error: "
	historyErrorPrefix = "Error loading historical data: "
	chartErrorPrefix   = "Error loading chart: "
)

var (
	// ErrStale marks a response superseded by a newer request. Callers
	// drop it silently.
	ErrStale = errors.New("response superseded by a newer request")

	// ErrLoad is a transport or decode failure fetching metrics. The
	// tables already show the load-error placeholder.
	ErrLoad = errors.New("loading metrics failed")
)

// Notice is a message shown to the user in a blocking dialog. Nothing is
// rendered for the request that produced it.
type Notice struct {
	Message string
	Err     error
}

func (n *Notice) Error() string {
	return n.Message
}

func (n *Notice) Unwrap() error {
	return n.Err
}

func notice(msg string, err error) *Notice {
	return &Notice{Message: msg, Err: err}
}

// AsNotice reports whether err carries a user notice.
func AsNotice(err error) (*Notice, bool) {
	var n *Notice
	if errors.As(err, &n) {
		return n, true
	}
	return nil, false
}
