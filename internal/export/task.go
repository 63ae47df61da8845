package export

import (
	"fmt"
	"path/filepath"

	"github.com/dgnsrekt/options-dashboard/internal/table"
)

// Task exports one trading date: one workbook per classification.
type Task struct {
	Date            string
	Classifications []table.Classification
}

func (t Task) OutputPath(baseDir string, c table.Classification) string {
	return filepath.Join(baseDir, t.Date, FileName(c, t.Date))
}

func (t Task) String() string {
	return fmt.Sprintf("%s/%v", t.Date, t.Classifications)
}

type TaskResult struct {
	Task     Task
	Success  bool
	Skipped  bool
	NotFound bool
	Files    int
	Empty    int
	Bytes    int64
	Error    error
}
