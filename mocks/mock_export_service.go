package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"ticketscan/internal/domain"
)

// MockExportService is a mock implementation of service.ExportService.
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) ExportRun(ctx context.Context, runID uuid.UUID, format domain.ExportFormat) (string, []byte, error) {
	args := m.Called(ctx, runID, format)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).([]byte), args.Error(2)
}

func (m *MockExportService) ExportRows(rows []domain.TicketRow, format domain.ExportFormat) (string, []byte, error) {
	args := m.Called(rows, format)
	if args.Get(1) == nil {
		return args.String(0), nil, args.Error(2)
	}
	return args.String(0), args.Get(1).([]byte), args.Error(2)
}

func (m *MockExportService) Publish(ctx context.Context, filename string, data []byte, format domain.ExportFormat) (string, error) {
	args := m.Called(ctx, filename, data, format)
	return args.String(0), args.Error(1)
}
