package handlers

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"garagebill/internal/models"
	"garagebill/internal/reservation"
	"garagebill/internal/services"
)

type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) ListParts(ctx context.Context, ownerID uuid.UUID) ([]models.PartAvailability, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PartAvailability), args.Error(1)
}

func (m *MockInventoryService) RefreshSnapshot(ctx context.Context, ownerID uuid.UUID) error {
	return m.Called(ctx, ownerID).Error(0)
}

func (m *MockInventoryService) AddPart(ctx context.Context, ownerID uuid.UUID, part *models.Part) (*models.Part, error) {
	args := m.Called(ctx, ownerID, part)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Part), args.Error(1)
}

func (m *MockInventoryService) DeletePart(ctx context.Context, ownerID, partID uuid.UUID) error {
	return m.Called(ctx, ownerID, partID).Error(0)
}

func (m *MockInventoryService) Candidates(ctx context.Context, ownerID, listID uuid.UUID) ([]models.Candidate, error) {
	args := m.Called(ctx, ownerID, listID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Candidate), args.Error(1)
}

func (m *MockInventoryService) LowStock(ctx context.Context, ownerID uuid.UUID, threshold int) ([]models.LowStockAlert, error) {
	args := m.Called(ctx, ownerID, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LowStockAlert), args.Error(1)
}

func (m *MockInventoryService) CreateSelection(ctx context.Context, ownerID uuid.UUID, spec reservation.ListSpec) (models.SelectionView, error) {
	args := m.Called(ctx, ownerID, spec)
	return args.Get(0).(models.SelectionView), args.Error(1)
}

func (m *MockInventoryService) ListSelections(ctx context.Context, ownerID uuid.UUID) []models.SelectionList {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]models.SelectionList)
}

func (m *MockInventoryService) GetSelection(ctx context.Context, ownerID, listID uuid.UUID) (models.SelectionView, error) {
	args := m.Called(ctx, ownerID, listID)
	return args.Get(0).(models.SelectionView), args.Error(1)
}

func (m *MockInventoryService) DiscardSelection(ctx context.Context, ownerID, listID uuid.UUID) error {
	return m.Called(ctx, ownerID, listID).Error(0)
}

func (m *MockInventoryService) AddEntry(ctx context.Context, ownerID, listID uuid.UUID, in reservation.EntryInput) (models.SelectionView, error) {
	args := m.Called(ctx, ownerID, listID, in)
	return args.Get(0).(models.SelectionView), args.Error(1)
}

func (m *MockInventoryService) UpdateEntry(ctx context.Context, ownerID, listID, partID uuid.UUID, upd reservation.EntryUpdate) (models.SelectionView, error) {
	args := m.Called(ctx, ownerID, listID, partID, upd)
	return args.Get(0).(models.SelectionView), args.Error(1)
}

func (m *MockInventoryService) StepEntry(ctx context.Context, ownerID, listID, partID uuid.UUID, step int) (models.SelectionView, error) {
	args := m.Called(ctx, ownerID, listID, partID, step)
	return args.Get(0).(models.SelectionView), args.Error(1)
}

func (m *MockInventoryService) RemoveEntry(ctx context.Context, ownerID, listID, partID uuid.UUID) (models.SelectionView, error) {
	args := m.Called(ctx, ownerID, listID, partID)
	return args.Get(0).(models.SelectionView), args.Error(1)
}

func (m *MockInventoryService) Commit(ctx context.Context, ownerID, listID uuid.UUID) (*models.CommitResult, error) {
	args := m.Called(ctx, ownerID, listID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CommitResult), args.Error(1)
}

type MockInvoiceService struct {
	mock.Mock
}

func (m *MockInvoiceService) ComputeSummary(ctx context.Context, req models.BillRequest) (*services.SummaryPreview, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.SummaryPreview), args.Error(1)
}

func (m *MockInvoiceService) GenerateBill(ctx context.Context, ownerID, jobID uuid.UUID, req models.BillRequest) (*models.InvoiceResult, error) {
	args := m.Called(ctx, ownerID, jobID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceResult), args.Error(1)
}

func (m *MockInvoiceService) GetInvoice(ctx context.Context, ownerID, jobID uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, ownerID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceService) RenderPDF(ctx context.Context, ownerID, jobID uuid.UUID) (*models.Invoice, []byte, error) {
	args := m.Called(ctx, ownerID, jobID)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*models.Invoice), args.Get(1).([]byte), args.Error(2)
}

func (m *MockInvoiceService) ShareInvoice(ctx context.Context, ownerID, jobID uuid.UUID) (*models.InvoiceShare, error) {
	args := m.Called(ctx, ownerID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InvoiceShare), args.Error(1)
}

func (m *MockInvoiceService) ExportRegister(ctx context.Context, ownerID uuid.UUID, startDate, endDate time.Time) (*bytes.Buffer, error) {
	args := m.Called(ctx, ownerID, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*bytes.Buffer), args.Error(1)
}

type MockCacheService struct {
	mock.Mock
}

func (m *MockCacheService) GetPartsSnapshot(ctx context.Context, ownerID uuid.UUID) ([]models.Part, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Part), args.Error(1)
}

func (m *MockCacheService) SetPartsSnapshot(ctx context.Context, ownerID uuid.UUID, parts []models.Part, ttl time.Duration) error {
	return m.Called(ctx, ownerID, parts, ttl).Error(0)
}

func (m *MockCacheService) InvalidatePartsSnapshot(ctx context.Context, ownerID uuid.UUID) error {
	return m.Called(ctx, ownerID).Error(0)
}

func (m *MockCacheService) GetInvoice(ctx context.Context, ownerID, jobID uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, ownerID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockCacheService) SetInvoice(ctx context.Context, inv *models.Invoice, ttl time.Duration) error {
	return m.Called(ctx, inv, ttl).Error(0)
}

func (m *MockCacheService) MarkLowStockAlerted(ctx context.Context, ownerID, partID uuid.UUID, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, ownerID, partID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

type MockMinioService struct {
	mock.Mock
}

func (m *MockMinioService) UploadObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	return m.Called(ctx, bucketName, objectName, reader, objectSize, contentType).Error(0)
}

func (m *MockMinioService) GetPresignedURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, bucketName, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockMinioService) DeleteObject(ctx context.Context, bucketName, objectName string) error {
	return m.Called(ctx, bucketName, objectName).Error(0)
}

func (m *MockMinioService) EnsureBucketExists(ctx context.Context, bucketName string) error {
	return m.Called(ctx, bucketName).Error(0)
}

func (m *MockMinioService) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }
