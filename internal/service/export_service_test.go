package service_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/xuri/excelize/v2"

	"ticketscan/internal/config"
	"ticketscan/internal/domain"
	"ticketscan/internal/export"
	"ticketscan/internal/port"
	"ticketscan/internal/service"
	"ticketscan/mocks"
)

func exportConfig() config.ExportConfig {
	return config.ExportConfig{SheetName: "Tickets", BaseName: "Ticket_Data_Export"}
}

func exportRows() []domain.TicketRow {
	return []domain.TicketRow{
		{SourceFile: "a.png", Page: 1, TicketID: "123456789", Applicant: "City of Dunwoody"},
		{SourceFile: "b.pdf", Page: 2, TicketID: domain.NotAvailable, Measure: "42.5"},
	}
}

func TestExportService_ExportRun_XLSX(t *testing.T) {
	runRepo := new(mocks.MockRunRepo)
	rowRepo := new(mocks.MockRowRepo)
	svc := service.NewExportService(runRepo, rowRepo, nil, exportConfig(), "")

	runID := uuid.New()
	runRepo.On("GetRun", mock.Anything, runID).Return(&domain.Run{ID: runID}, nil)
	rowRepo.On("ListByRun", mock.Anything, runID).Return(exportRows(), nil)

	filename, data, err := svc.ExportRun(context.Background(), runID, domain.ExportFormatXLSX)

	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "Ticket_Data_Export_"))
	assert.True(t, strings.HasSuffix(filename, ".xlsx"))

	f, err := excelize.OpenReader(bytes.NewReader(data))
	assert.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Tickets")
	assert.NoError(t, err)
	assert.Len(t, rows, 3)
	assert.Equal(t, export.Columns, rows[0])
	assert.Equal(t, "123456789", rows[1][2])
	runRepo.AssertExpectations(t)
	rowRepo.AssertExpectations(t)
}

func TestExportService_ExportRun_CSV(t *testing.T) {
	runRepo := new(mocks.MockRunRepo)
	rowRepo := new(mocks.MockRowRepo)
	svc := service.NewExportService(runRepo, rowRepo, nil, exportConfig(), "")

	runID := uuid.New()
	runRepo.On("GetRun", mock.Anything, runID).Return(&domain.Run{ID: runID}, nil)
	rowRepo.On("ListByRun", mock.Anything, runID).Return(exportRows(), nil)

	filename, data, err := svc.ExportRun(context.Background(), runID, domain.ExportFormatCSV)

	assert.NoError(t, err)
	assert.True(t, strings.HasSuffix(filename, ".csv"))
	assert.True(t, bytes.HasPrefix(data, export.BOM))

	records, err := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(data, export.BOM))).ReadAll()
	assert.NoError(t, err)
	assert.Len(t, records, 3)
	assert.Equal(t, "N/A", records[2][2])
}

func TestExportService_ExportRun_EmptyRun(t *testing.T) {
	runRepo := new(mocks.MockRunRepo)
	rowRepo := new(mocks.MockRowRepo)
	svc := service.NewExportService(runRepo, rowRepo, nil, exportConfig(), "")

	runID := uuid.New()
	runRepo.On("GetRun", mock.Anything, runID).Return(&domain.Run{ID: runID}, nil)
	rowRepo.On("ListByRun", mock.Anything, runID).Return([]domain.TicketRow{}, nil)

	_, _, err := svc.ExportRun(context.Background(), runID, domain.ExportFormatXLSX)
	assert.ErrorIs(t, err, domain.ErrEmptyResult)
}

func TestExportService_ExportRun_NotFound(t *testing.T) {
	runRepo := new(mocks.MockRunRepo)
	rowRepo := new(mocks.MockRowRepo)
	svc := service.NewExportService(runRepo, rowRepo, nil, exportConfig(), "")

	runID := uuid.New()
	runRepo.On("GetRun", mock.Anything, runID).Return(nil, domain.ErrNotFound)

	_, _, err := svc.ExportRun(context.Background(), runID, domain.ExportFormatXLSX)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	rowRepo.AssertNotCalled(t, "ListByRun", mock.Anything, mock.Anything)
}

func TestExportService_InvalidFormat(t *testing.T) {
	runRepo := new(mocks.MockRunRepo)
	rowRepo := new(mocks.MockRowRepo)
	svc := service.NewExportService(runRepo, rowRepo, nil, exportConfig(), "")

	_, _, err := svc.ExportRows(exportRows(), domain.ExportFormat("ods"))
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
}

func TestExportService_Publish(t *testing.T) {
	runRepo := new(mocks.MockRunRepo)
	rowRepo := new(mocks.MockRowRepo)
	storage := new(mocks.MockObjectStorage)
	svc := service.NewExportService(runRepo, rowRepo, storage, exportConfig(), "exports-bucket")

	storage.On("Upload", mock.Anything, mock.MatchedBy(func(in port.UploadInput) bool {
		return in.Bucket == "exports-bucket" &&
			in.Key == "exports/report.xlsx" &&
			in.ContentType == domain.ExportContentTypes[domain.ExportFormatXLSX]
	})).Return(&port.UploadOutput{Location: "s3://exports-bucket/exports/report.xlsx"}, nil)

	loc, err := svc.Publish(context.Background(), "report.xlsx", []byte("data"), domain.ExportFormatXLSX)

	assert.NoError(t, err)
	assert.Equal(t, "s3://exports-bucket/exports/report.xlsx", loc)
	storage.AssertExpectations(t)
}

func TestExportService_Publish_NoStorage(t *testing.T) {
	runRepo := new(mocks.MockRunRepo)
	rowRepo := new(mocks.MockRowRepo)
	svc := service.NewExportService(runRepo, rowRepo, nil, exportConfig(), "")

	_, err := svc.Publish(context.Background(), "report.xlsx", []byte("data"), domain.ExportFormatXLSX)
	assert.Error(t, err)
}
