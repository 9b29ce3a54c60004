package mocks

import (
	"context"
	"mime/multipart"

	"invoiceapi/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) Upload(ctx context.Context, userID string, fh *multipart.FileHeader) (*model.Invoice, error) {
	args := m.Called(ctx, userID, fh)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Invoice), args.Error(1)
}

func (m *MockInvoiceService) ListByOwner(ctx context.Context, userID string) ([]model.Invoice, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Invoice), args.Error(1)
}
