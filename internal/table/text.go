package table

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
)

// TextOptions selects which columns a terminal rendering shows.
type TextOptions struct {
	// Keys limits output to these column keys; empty means all.
	Keys []string
}

// WriteText renders rows as a terminal table. A placeholder is printed on
// its own line instead of an empty table.
func WriteText(w io.Writer, model RowModel, rows []Row, opts TextOptions) error {
	if model.Placeholder != PlaceholderNone {
		_, err := fmt.Fprintf(w, "%s: %s\n", model.Classification, model.Placeholder)
		return err
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintf(w, "%s: %s\n", model.Classification, PlaceholderNoMatch)
		return err
	}

	idx, err := columnSelection(model.Columns, opts.Keys)
	if err != nil {
		return err
	}

	tw := tablewriter.NewWriter(w)
	tw.SetAutoFormatHeaders(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_RIGHT)

	headers := make([]string, len(idx))
	for i, c := range idx {
		headers[i] = model.Columns[c].Header
	}
	tw.SetHeader(headers)

	for _, r := range rows {
		line := make([]string, len(idx))
		for i, c := range idx {
			line[i] = cellOf(r, c).Text
		}
		tw.Append(line)
	}

	tw.Render()
	return nil
}

func columnSelection(cols []Column, keys []string) ([]int, error) {
	if len(keys) == 0 {
		idx := make([]int, len(cols))
		for i := range cols {
			idx[i] = i
		}
		return idx, nil
	}

	idx := make([]int, 0, len(keys))
	for _, k := range keys {
		i := ColumnIndex(k)
		if i < 0 {
			return nil, fmt.Errorf("column %q: %w", k, ErrColumnOutOfRange)
		}
		idx = append(idx, i)
	}
	return idx, nil
}
