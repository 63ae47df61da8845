// Package export writes dashboard views to spreadsheet and CSV files.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/dgnsrekt/options-dashboard/internal/table"
)

// FileName is the workbook name for one classification and date.
func FileName(c table.Classification, date string) string {
	return fmt.Sprintf("Options_%s_%s.xlsx", c, date)
}

// WriteWorkbook writes rows as a single sheet named after the model's
// classification: the header row, then each row's cell texts. Rows are
// written in the order given.
func WriteWorkbook(w io.Writer, model table.RowModel, rows []table.Row) error {
	if !model.HasRows() || len(rows) == 0 {
		return ErrNothingToExport
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := string(model.Classification)
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("naming sheet %s: %w", sheet, err)
	}

	headers := model.Headers()
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return fmt.Errorf("writing header row: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		texts := make([]string, len(r.Cells))
		for j, c := range r.Cells {
			texts[j] = c.Text
		}
		if err := f.SetSheetRow(sheet, cell, &texts); err != nil {
			return fmt.Errorf("writing row %d: %w", i+1, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("encoding workbook: %w", err)
	}
	return nil
}
