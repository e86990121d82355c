package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"ticketscan/internal/domain"
	"ticketscan/internal/port"
)

type rowRepo struct {
	db *sqlx.DB
}

// NewRowRepo creates a new SQLite-backed RowRepository.
func NewRowRepo(db *sqlx.DB) port.RowRepository {
	return &rowRepo{db: db}
}

func (r *rowRepo) InsertRows(ctx context.Context, rows []domain.TicketRow) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("rowRepo.InsertRows begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO ticket_rows (run_id, source_file, page, ticket_id, date_time,
		 applicant, disaster, program, contractor, sub_contractor, crew, supervisor,
		 hazard_type, gps, address, measure, unit_count, monitor, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("rowRepo.InsertRows prepare: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for i := range rows {
		row := &rows[i]
		row.CreatedAt = now
		_, err = stmt.ExecContext(ctx,
			row.RunID, row.SourceFile, row.Page, row.TicketID, row.DateTime,
			row.Applicant, row.Disaster, row.Program, row.Contractor, row.SubContractor,
			row.Crew, row.Supervisor, row.HazardType, row.GPS, row.Address,
			row.Measure, row.UnitCount, row.Monitor, row.CreatedAt)
		if err != nil {
			return fmt.Errorf("rowRepo.InsertRows row %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("rowRepo.InsertRows commit: %w", err)
	}
	return nil
}

func (r *rowRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.TicketRow, error) {
	var rows []domain.TicketRow
	err := r.db.SelectContext(ctx, &rows,
		"SELECT * FROM ticket_rows WHERE run_id = ? ORDER BY id", runID)
	if err != nil {
		return nil, fmt.Errorf("rowRepo.ListByRun: %w", err)
	}
	return rows, nil
}
