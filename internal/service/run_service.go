package service

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"ticketscan/internal/domain"
	"ticketscan/internal/port"
)

// RunService manages persisted extraction runs.
type RunService interface {
	// Create records a queued run with one RunFile per input path.
	Create(ctx context.Context, paths []string) (*domain.Run, error)
	// Process executes a created run: OCR + extraction for every file,
	// persisting rows, per-file outcomes, and the final run status. It
	// returns the extracted rows in input order.
	Process(ctx context.Context, run *domain.Run, paths []string, opts BatchOptions) ([]domain.TicketRow, error)
	Get(ctx context.Context, runID uuid.UUID) (*domain.Run, error)
	List(ctx context.Context, offset, limit int) ([]domain.Run, int, error)
	Files(ctx context.Context, runID uuid.UUID) ([]domain.RunFile, error)
	Rows(ctx context.Context, runID uuid.UUID) ([]domain.TicketRow, error)
	Delete(ctx context.Context, runID uuid.UUID) error
}

type runService struct {
	runRepo   port.RunRepository
	rowRepo   port.RowRepository
	processor *BatchProcessor
}

// NewRunService creates a new RunService implementation.
func NewRunService(runRepo port.RunRepository, rowRepo port.RowRepository, processor *BatchProcessor) RunService {
	return &runService{runRepo: runRepo, rowRepo: rowRepo, processor: processor}
}

func (s *runService) Create(ctx context.Context, paths []string) (*domain.Run, error) {
	if len(paths) == 0 {
		return nil, domain.ErrNoInput
	}

	run := &domain.Run{
		ID:        uuid.New(),
		Status:    domain.RunStatusQueued,
		FileCount: len(paths),
	}
	files := make([]domain.RunFile, len(paths))
	for i, path := range paths {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		fileType, ok := domain.AllowedExtensions[ext]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFileType, filepath.Base(path))
		}
		files[i] = domain.RunFile{
			ID:       uuid.New(),
			FileName: filepath.Base(path),
			FileType: fileType,
			Status:   domain.RunFileStatusPending,
		}
	}

	if err := s.runRepo.CreateRun(ctx, run, files); err != nil {
		return nil, err
	}
	log.Printf("runService.Create: run %s queued with %d files", run.ID, len(paths))
	return run, nil
}

func (s *runService) Process(ctx context.Context, run *domain.Run, paths []string, opts BatchOptions) ([]domain.TicketRow, error) {
	started := time.Now().UTC()
	run.Status = domain.RunStatusRunning
	run.StartedAt = &started
	if err := s.runRepo.UpdateRun(ctx, run); err != nil {
		return nil, err
	}

	results, err := s.processor.Process(ctx, paths, opts)
	if err != nil {
		s.failRun(ctx, run, err.Error())
		return nil, err
	}

	files, filesErr := s.runRepo.ListRunFiles(ctx, run.ID)
	if filesErr != nil {
		log.Printf("runService.Process: listing run files for %s: %v", run.ID, filesErr)
	}

	failed := 0
	var rows []domain.TicketRow
	for i := range results {
		res := &results[i]
		for j := range res.Rows {
			res.Rows[j].RunID = run.ID
		}
		rows = append(rows, res.Rows...)

		// files come back ordered by position, matching the order the
		// paths were queued in; duplicate basenames stay distinct
		if i >= len(files) {
			continue
		}
		file := &files[i]
		if res.Err != nil {
			failed++
			file.Status = domain.RunFileStatusFailed
			file.Error = res.Err.Error()
		} else {
			file.Status = domain.RunFileStatusProcessed
			file.PageCount = res.Pages
			// pages lost to per-page OCR errors are recorded on the file
			file.Error = strings.Join(res.Warnings, "; ")
		}
		if err := s.runRepo.UpdateRunFile(ctx, file); err != nil {
			log.Printf("runService.Process: updating run file %s: %v", file.FileName, err)
		}
	}

	if err := s.rowRepo.InsertRows(ctx, rows); err != nil {
		s.failRun(ctx, run, fmt.Sprintf("persisting rows: %v", err))
		return nil, err
	}

	finished := time.Now().UTC()
	run.FinishedAt = &finished
	run.RowCount = len(rows)
	run.FailedCount = failed
	if failed == len(results) {
		// every file failed; a partially failed batch still completes
		run.Status = domain.RunStatusFailed
		run.Error = fmt.Sprintf("all %d files failed", failed)
	} else {
		run.Status = domain.RunStatusCompleted
	}
	if err := s.runRepo.UpdateRun(ctx, run); err != nil {
		return rows, err
	}

	log.Printf("runService.Process: run %s %s (%d rows, %d/%d files failed) in %s",
		run.ID, run.Status, run.RowCount, failed, len(results), finished.Sub(started).Round(time.Millisecond))
	return rows, nil
}

func (s *runService) failRun(ctx context.Context, run *domain.Run, msg string) {
	finished := time.Now().UTC()
	run.Status = domain.RunStatusFailed
	run.Error = msg
	run.FinishedAt = &finished
	if err := s.runRepo.UpdateRun(ctx, run); err != nil {
		log.Printf("runService.failRun: %v", err)
	}
}

func (s *runService) Get(ctx context.Context, runID uuid.UUID) (*domain.Run, error) {
	return s.runRepo.GetRun(ctx, runID)
}

func (s *runService) List(ctx context.Context, offset, limit int) ([]domain.Run, int, error) {
	return s.runRepo.ListRuns(ctx, offset, limit)
}

func (s *runService) Files(ctx context.Context, runID uuid.UUID) ([]domain.RunFile, error) {
	if _, err := s.runRepo.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return s.runRepo.ListRunFiles(ctx, runID)
}

func (s *runService) Rows(ctx context.Context, runID uuid.UUID) ([]domain.TicketRow, error) {
	if _, err := s.runRepo.GetRun(ctx, runID); err != nil {
		return nil, err
	}
	return s.rowRepo.ListByRun(ctx, runID)
}

func (s *runService) Delete(ctx context.Context, runID uuid.UUID) error {
	return s.runRepo.DeleteRun(ctx, runID)
}
