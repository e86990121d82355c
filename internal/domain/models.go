package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotAvailable is the sentinel stored for fields the extractor could not find.
const NotAvailable = "N/A"

// Run represents a single batch extraction run over a set of input files.
type Run struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	Status      RunStatus  `db:"status" json:"status"`
	FileCount   int        `db:"file_count" json:"file_count"`
	RowCount    int        `db:"row_count" json:"row_count"`
	FailedCount int        `db:"failed_count" json:"failed_count"`
	Error       string     `db:"error" json:"error"`
	StartedAt   *time.Time `db:"started_at" json:"started_at"`
	FinishedAt  *time.Time `db:"finished_at" json:"finished_at"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at" json:"updated_at"`
}

// RunFile represents one input file of a run with its processing outcome.
type RunFile struct {
	ID        uuid.UUID     `db:"id" json:"id"`
	RunID     uuid.UUID     `db:"run_id" json:"run_id"`
	Position  int           `db:"position" json:"position"`
	FileName  string        `db:"file_name" json:"file_name"`
	FileType  FileType      `db:"file_type" json:"file_type"`
	FileSize  int64         `db:"file_size" json:"file_size"`
	Status    RunFileStatus `db:"status" json:"status"`
	Error     string        `db:"error" json:"error"`
	PageCount int           `db:"page_count" json:"page_count"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// TicketRow is one extracted ticket record, produced per recognized page.
// Field values hold the first regex capture group found in the page text,
// or NotAvailable when the pattern did not match.
type TicketRow struct {
	ID         int64     `db:"id" json:"id"`
	RunID      uuid.UUID `db:"run_id" json:"run_id"`
	SourceFile string    `db:"source_file" json:"source_file"`
	Page       int       `db:"page" json:"page"`

	TicketID      string `db:"ticket_id" json:"ticket_id"`
	DateTime      string `db:"date_time" json:"date_time"`
	Applicant     string `db:"applicant" json:"applicant"`
	Disaster      string `db:"disaster" json:"disaster"`
	Program       string `db:"program" json:"program"`
	Contractor    string `db:"contractor" json:"contractor"`
	SubContractor string `db:"sub_contractor" json:"sub_contractor"`
	Crew          string `db:"crew" json:"crew"`
	Supervisor    string `db:"supervisor" json:"supervisor"`
	HazardType    string `db:"hazard_type" json:"hazard_type"`
	GPS           string `db:"gps" json:"gps"`
	Address       string `db:"address" json:"address"`
	Measure       string `db:"measure" json:"measure"`
	UnitCount     string `db:"unit_count" json:"unit_count"`
	Monitor       string `db:"monitor" json:"monitor"`

	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
