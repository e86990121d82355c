package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ticketscan/internal/domain"
	"ticketscan/internal/port"
)

type runRepo struct {
	db *sqlx.DB
}

// NewRunRepo creates a new SQLite-backed RunRepository.
func NewRunRepo(db *sqlx.DB) port.RunRepository {
	return &runRepo{db: db}
}

func (r *runRepo) CreateRun(ctx context.Context, run *domain.Run, files []domain.RunFile) error {
	now := time.Now().UTC()
	run.CreatedAt = now
	run.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("runRepo.CreateRun begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, status, file_count, row_count, failed_count, error,
		 started_at, finished_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Status, run.FileCount, run.RowCount, run.FailedCount, run.Error,
		run.StartedAt, run.FinishedAt, run.CreatedAt, run.UpdatedAt)
	if err != nil {
		return fmt.Errorf("runRepo.CreateRun: %w", err)
	}

	for i := range files {
		f := &files[i]
		f.RunID = run.ID
		f.Position = i
		f.CreatedAt = now
		f.UpdatedAt = now
		_, err = tx.ExecContext(ctx,
			`INSERT INTO run_files (id, run_id, position, file_name, file_type, file_size,
			 status, error, page_count, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			f.ID, f.RunID, f.Position, f.FileName, f.FileType, f.FileSize,
			f.Status, f.Error, f.PageCount, f.CreatedAt, f.UpdatedAt)
		if err != nil {
			return fmt.Errorf("runRepo.CreateRun file %s: %w", f.FileName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("runRepo.CreateRun commit: %w", err)
	}
	return nil
}

func (r *runRepo) UpdateRun(ctx context.Context, run *domain.Run) error {
	run.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, file_count = ?, row_count = ?, failed_count = ?,
		 error = ?, started_at = ?, finished_at = ?, updated_at = ?
		 WHERE id = ?`,
		run.Status, run.FileCount, run.RowCount, run.FailedCount,
		run.Error, run.StartedAt, run.FinishedAt, run.UpdatedAt, run.ID)
	if err != nil {
		return fmt.Errorf("runRepo.UpdateRun: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *runRepo) UpdateRunFile(ctx context.Context, file *domain.RunFile) error {
	file.UpdatedAt = time.Now().UTC()
	res, err := r.db.ExecContext(ctx,
		`UPDATE run_files SET status = ?, error = ?, page_count = ?, updated_at = ?
		 WHERE id = ?`,
		file.Status, file.Error, file.PageCount, file.UpdatedAt, file.ID)
	if err != nil {
		return fmt.Errorf("runRepo.UpdateRunFile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *runRepo) GetRun(ctx context.Context, runID uuid.UUID) (*domain.Run, error) {
	var run domain.Run
	err := r.db.GetContext(ctx, &run, "SELECT * FROM runs WHERE id = ?", runID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("runRepo.GetRun: %w", err)
	}
	return &run, nil
}

func (r *runRepo) ListRuns(ctx context.Context, offset, limit int) ([]domain.Run, int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM runs"); err != nil {
		return nil, 0, fmt.Errorf("runRepo.ListRuns count: %w", err)
	}

	var runs []domain.Run
	err := r.db.SelectContext(ctx, &runs,
		"SELECT * FROM runs ORDER BY created_at DESC LIMIT ? OFFSET ?", limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("runRepo.ListRuns: %w", err)
	}
	return runs, total, nil
}

func (r *runRepo) ListRunFiles(ctx context.Context, runID uuid.UUID) ([]domain.RunFile, error) {
	var files []domain.RunFile
	err := r.db.SelectContext(ctx, &files,
		"SELECT * FROM run_files WHERE run_id = ? ORDER BY position", runID)
	if err != nil {
		return nil, fmt.Errorf("runRepo.ListRunFiles: %w", err)
	}
	return files, nil
}

func (r *runRepo) DeleteRun(ctx context.Context, runID uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM runs WHERE id = ?", runID)
	if err != nil {
		return fmt.Errorf("runRepo.DeleteRun: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrNotFound
	}
	return nil
}
