package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"ticketscan/internal/domain"
)

// MockRowRepo is a mock implementation of port.RowRepository.
type MockRowRepo struct {
	mock.Mock
}

func (m *MockRowRepo) InsertRows(ctx context.Context, rows []domain.TicketRow) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func (m *MockRowRepo) ListByRun(ctx context.Context, runID uuid.UUID) ([]domain.TicketRow, error) {
	args := m.Called(ctx, runID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.TicketRow), args.Error(1)
}
