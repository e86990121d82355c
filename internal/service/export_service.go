package service

import (
	"bytes"
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"ticketscan/internal/config"
	"ticketscan/internal/domain"
	"ticketscan/internal/export"
	"ticketscan/internal/port"
)

// ExportService renders persisted runs into downloadable spreadsheets.
type ExportService interface {
	// ExportRun renders every row of the run in the given format and
	// returns the suggested filename alongside the file contents.
	ExportRun(ctx context.Context, runID uuid.UUID, format domain.ExportFormat) (string, []byte, error)
	// ExportRows renders an in-memory row set without touching the store.
	ExportRows(rows []domain.TicketRow, format domain.ExportFormat) (string, []byte, error)
	// Publish uploads an export to object storage and returns its location.
	Publish(ctx context.Context, filename string, data []byte, format domain.ExportFormat) (string, error)
}

type exportService struct {
	rowRepo port.RowRepository
	runRepo port.RunRepository
	storage port.ObjectStorage
	cfg     config.ExportConfig
	bucket  string
}

// NewExportService creates a new ExportService implementation. storage may be
// nil when no object storage is configured; Publish then returns an error.
func NewExportService(runRepo port.RunRepository, rowRepo port.RowRepository, storage port.ObjectStorage, cfg config.ExportConfig, bucket string) ExportService {
	return &exportService{
		rowRepo: rowRepo,
		runRepo: runRepo,
		storage: storage,
		cfg:     cfg,
		bucket:  bucket,
	}
}

func (s *exportService) ExportRun(ctx context.Context, runID uuid.UUID, format domain.ExportFormat) (string, []byte, error) {
	if _, err := s.runRepo.GetRun(ctx, runID); err != nil {
		return "", nil, err
	}
	rows, err := s.rowRepo.ListByRun(ctx, runID)
	if err != nil {
		return "", nil, err
	}
	return s.ExportRows(rows, format)
}

func (s *exportService) ExportRows(rows []domain.TicketRow, format domain.ExportFormat) (string, []byte, error) {
	if len(rows) == 0 {
		return "", nil, domain.ErrEmptyResult
	}

	var buf bytes.Buffer
	switch format {
	case domain.ExportFormatXLSX:
		if err := export.WriteXLSX(&buf, s.cfg.SheetName, rows); err != nil {
			return "", nil, fmt.Errorf("writing xlsx: %w", err)
		}
	case domain.ExportFormatCSV:
		if err := export.WriteCSV(&buf, rows); err != nil {
			return "", nil, fmt.Errorf("writing csv: %w", err)
		}
	default:
		return "", nil, fmt.Errorf("%w: %s", domain.ErrInvalidFormat, format)
	}

	filename := export.BuildFilename(s.cfg.BaseName, format)
	log.Printf("exportService: rendered %d rows to %s", len(rows), filename)
	return filename, buf.Bytes(), nil
}

func (s *exportService) Publish(ctx context.Context, filename string, data []byte, format domain.ExportFormat) (string, error) {
	if s.storage == nil || s.bucket == "" {
		return "", fmt.Errorf("object storage is not configured")
	}
	out, err := s.storage.Upload(ctx, port.UploadInput{
		Bucket:      s.bucket,
		Key:         "exports/" + filename,
		Body:        bytes.NewReader(data),
		ContentType: domain.ExportContentTypes[format],
	})
	if err != nil {
		return "", fmt.Errorf("uploading export: %w", err)
	}
	log.Printf("exportService: published %s to %s", filename, out.Location)
	return out.Location, nil
}
