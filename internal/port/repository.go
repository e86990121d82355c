package port

import (
	"context"

	"github.com/google/uuid"

	"ticketscan/internal/domain"
)

// RunRepository persists extraction runs and their input files.
type RunRepository interface {
	CreateRun(ctx context.Context, run *domain.Run, files []domain.RunFile) error
	UpdateRun(ctx context.Context, run *domain.Run) error
	UpdateRunFile(ctx context.Context, file *domain.RunFile) error
	GetRun(ctx context.Context, runID uuid.UUID) (*domain.Run, error)
	ListRuns(ctx context.Context, offset, limit int) ([]domain.Run, int, error)
	ListRunFiles(ctx context.Context, runID uuid.UUID) ([]domain.RunFile, error)
	DeleteRun(ctx context.Context, runID uuid.UUID) error
}

// RowRepository persists extracted ticket rows.
type RowRepository interface {
	InsertRows(ctx context.Context, rows []domain.TicketRow) error
	ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.TicketRow, error)
}
