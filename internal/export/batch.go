package export

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dgnsrekt/options-dashboard/internal/api"
	"github.com/dgnsrekt/options-dashboard/internal/data"
	"github.com/dgnsrekt/options-dashboard/internal/staging"
	"github.com/dgnsrekt/options-dashboard/internal/table"
)

// MetricsSource fetches one date's metrics snapshot.
type MetricsSource interface {
	GetMetrics(ctx context.Context, date string) (*data.MetricsSnapshot, error)
}

var _ MetricsSource = (api.Client)(nil)

// Manager exports date ranges with a pool of workers. Files are written
// into a per-batch staging directory and committed together at the end.
type Manager struct {
	source  MetricsSource
	staging *staging.Manager
	workers int
	grid    table.GridOptions
	logger  *zap.Logger
}

type BatchResult struct {
	ID       string
	Total    int
	Success  int
	Skipped  int
	NotFound int
	Failed   int
	Files    int
	Errors   []string
}

func NewManager(source MetricsSource, staging *staging.Manager, workers int, grid table.GridOptions, logger *zap.Logger) *Manager {
	if workers < 1 {
		workers = 1
	}
	return &Manager{
		source:  source,
		staging: staging,
		workers: workers,
		grid:    grid,
		logger:  logger,
	}
}

// Tasks builds one task per date covering every classification.
func Tasks(dates []string) []Task {
	tasks := make([]Task, 0, len(dates))
	for _, d := range dates {
		tasks = append(tasks, Task{Date: d, Classifications: table.Classifications()})
	}
	return tasks
}

func (m *Manager) Execute(ctx context.Context, tasks []Task) (*BatchResult, error) {
	result := &BatchResult{ID: uuid.NewString(), Total: len(tasks)}

	if len(tasks) == 0 {
		return result, nil
	}

	if err := m.staging.PrepareStaging(result.ID); err != nil {
		return nil, fmt.Errorf("preparing staging: %w", err)
	}
	defer func() {
		if err := m.staging.CleanupStaging(result.ID); err != nil {
			m.logger.Warn("cleaning staging", zap.String("batch", result.ID), zap.Error(err))
		}
	}()

	jobs := make(chan Task, len(tasks))
	results := make(chan TaskResult, len(tasks))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < m.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.worker(ctx, result.ID, jobs, results)
		}()
	}

	// Send jobs
	go func() {
		defer close(jobs)
		for _, task := range tasks {
			select {
			case <-ctx.Done():
				return
			case jobs <- task:
			}
		}
	}()

	// Wait for workers and close results
	go func() {
		wg.Wait()
		close(results)
	}()

	// Collect results
	for r := range results {
		result.Files += r.Files
		switch {
		case r.Skipped:
			result.Skipped++
		case r.NotFound:
			result.NotFound++
		case r.Success:
			result.Success++
		default:
			result.Failed++
			if r.Error != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", r.Task.Date, r.Error))
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	if err := m.staging.CommitStaging(result.ID); err != nil {
		return result, fmt.Errorf("committing batch %s: %w", result.ID, err)
	}

	m.logger.Info("export batch complete",
		zap.String("batch", result.ID),
		zap.Int("success", result.Success),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
		zap.Int("files", result.Files))

	return result, nil
}

func (m *Manager) worker(ctx context.Context, batch string, jobs <-chan Task, results chan<- TaskResult) {
	for task := range jobs {
		select {
		case <-ctx.Done():
			return
		default:
		}

		result := m.processTask(ctx, batch, task)

		select {
		case <-ctx.Done():
			return
		case results <- result:
		}
	}
}

func (m *Manager) processTask(ctx context.Context, batch string, task Task) TaskResult {
	result := TaskResult{Task: task}

	pending := m.pending(task)
	if len(pending) == 0 {
		m.logger.Debug("skipping exported date", zap.String("task", task.String()))
		result.Skipped = true
		result.Success = true
		return result
	}

	m.logger.Info("exporting", zap.String("date", task.Date))

	snap, err := m.source.GetMetrics(ctx, task.Date)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			m.logger.Debug("not found", zap.String("date", task.Date))
			result.NotFound = true
			return result
		}
		result.Error = err
		return result
	}
	if snap.Error != "" {
		result.Error = &api.BackendError{Message: snap.Error}
		return result
	}

	stagingDir := m.staging.StagingDir(batch)
	for _, c := range pending {
		grid := table.NewMemoryGrid(m.grid)
		grid.Load(table.Build(c, c.Rows(*snap)))
		model := grid.Model()
		if !model.HasRows() {
			result.Empty++
			continue
		}

		rows := grid.Ordered()
		size, err := m.staging.WriteToStaging(task.OutputPath(stagingDir, c), func(w io.Writer) error {
			return WriteWorkbook(w, model, rows)
		})
		if err != nil {
			result.Error = fmt.Errorf("%s: %w", c, err)
			return result
		}
		result.Files++
		result.Bytes += size
	}

	result.Success = true
	m.logger.Info("exported",
		zap.String("date", task.Date),
		zap.Int("files", result.Files),
		zap.Int("empty", result.Empty),
		zap.Int64("bytes", result.Bytes))
	return result
}

// pending lists the classifications whose workbook is not yet in the
// final directory.
func (m *Manager) pending(task Task) []table.Classification {
	var out []table.Classification
	for _, c := range task.Classifications {
		if _, err := os.Stat(task.OutputPath(m.staging.FinalDir(), c)); err == nil {
			continue
		}
		out = append(out, c)
	}
	return out
}
