package notify

import (
	"fmt"
	"strings"
	"time"

	"github.com/dgnsrekt/options-dashboard/internal/export"
)

const maxListedErrors = 3

func FormatSuccessMessage(result *export.BatchResult, duration time.Duration) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Dates: %d\n", result.Total)
	fmt.Fprintf(&sb, "Workbooks: %d\n", result.Files)
	fmt.Fprintf(&sb, "Skipped: %d\n", result.Skipped)
	fmt.Fprintf(&sb, "No Data: %d\n", result.NotFound)
	fmt.Fprintf(&sb, "Duration: %s", duration.Round(time.Second))

	return sb.String()
}

// FormatFailureMessage lists the first few task errors.
func FormatFailureMessage(result *export.BatchResult, duration time.Duration, err error) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Dates: %d\n", result.Total)
	fmt.Fprintf(&sb, "Success: %d\n", result.Success)
	fmt.Fprintf(&sb, "Failed: %d\n", result.Failed)
	fmt.Fprintf(&sb, "Skipped: %d\n", result.Skipped)
	fmt.Fprintf(&sb, "Duration: %s", duration.Round(time.Second))

	if err != nil {
		fmt.Fprintf(&sb, "\n\nError: %v", err)
	}

	if len(result.Errors) > 0 {
		sb.WriteString("\n\nErrors:\n")
		limit := min(len(result.Errors), maxListedErrors)
		for _, e := range result.Errors[:limit] {
			fmt.Fprintf(&sb, "- %s\n", e)
		}
		if len(result.Errors) > maxListedErrors {
			fmt.Fprintf(&sb, "... and %d more errors", len(result.Errors)-maxListedErrors)
		}
	}

	return sb.String()
}
