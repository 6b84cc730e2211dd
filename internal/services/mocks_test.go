package services

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"garagebill/internal/models"
	"garagebill/internal/repositories"
)

type MockInventoryGateway struct {
	mock.Mock
}

func (m *MockInventoryGateway) ListParts(ctx context.Context, ownerID uuid.UUID) ([]models.Part, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Part), args.Error(1)
}

func (m *MockInventoryGateway) GetPart(ctx context.Context, ownerID, partID uuid.UUID) (*models.Part, error) {
	args := m.Called(ctx, ownerID, partID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Part), args.Error(1)
}

func (m *MockInventoryGateway) AddPart(ctx context.Context, part *models.Part) error {
	args := m.Called(ctx, part)
	return args.Error(0)
}

func (m *MockInventoryGateway) UpdateQuantity(ctx context.Context, ownerID, partID uuid.UUID, quantity int) error {
	args := m.Called(ctx, ownerID, partID, quantity)
	return args.Error(0)
}

func (m *MockInventoryGateway) DeletePart(ctx context.Context, ownerID, partID uuid.UUID) error {
	args := m.Called(ctx, ownerID, partID)
	return args.Error(0)
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
	args := m.Called(ctx, ownerID, parts, ttl)
	return args.Error(0)
}

func (m *MockCacheService) InvalidatePartsSnapshot(ctx context.Context, ownerID uuid.UUID) error {
	args := m.Called(ctx, ownerID)
	return args.Error(0)
}

func (m *MockCacheService) GetInvoice(ctx context.Context, ownerID, jobID uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, ownerID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockCacheService) SetInvoice(ctx context.Context, inv *models.Invoice, ttl time.Duration) error {
	args := m.Called(ctx, inv, ttl)
	return args.Error(0)
}

func (m *MockCacheService) MarkLowStockAlerted(ctx context.Context, ownerID, partID uuid.UUID, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, ownerID, partID, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheService) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Publish(ownerID uuid.UUID, eventType string, data interface{}) {
	m.Called(ownerID, eventType, data)
}

type MockJobRepository struct {
	mock.Mock
}

func (m *MockJobRepository) GetByID(ctx context.Context, ownerID, jobID uuid.UUID) (*models.Job, error) {
	args := m.Called(ctx, ownerID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Job), args.Error(1)
}

// MockInvoiceRepository keeps created invoices in memory so the
// create-once behaviour can be exercised end to end.
type MockInvoiceRepository struct {
	mock.Mock
	stored map[uuid.UUID]*models.Invoice
	seq    int
}

func (m *MockInvoiceRepository) CreateForJob(ctx context.Context, ownerID, jobID uuid.UUID, build repositories.BuildInvoiceFunc) (*models.Invoice, bool, error) {
	m.Called(ctx, ownerID, jobID)
	if m.stored == nil {
		m.stored = make(map[uuid.UUID]*models.Invoice)
	}
	if inv, ok := m.stored[jobID]; ok {
		return inv, false, nil
	}
	m.seq++
	inv, err := build(fmt.Sprintf("INV-TEST-%06d", m.seq))
	if err != nil {
		return nil, false, err
	}
	inv.ID = uuid.New()
	m.stored[jobID] = inv
	return inv, true, nil
}

func (m *MockInvoiceRepository) GetByJobID(ctx context.Context, ownerID, jobID uuid.UUID) (*models.Invoice, error) {
	args := m.Called(ctx, ownerID, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) ListByDateRange(ctx context.Context, ownerID uuid.UUID, startDate, endDate time.Time) ([]*models.Invoice, error) {
	args := m.Called(ctx, ownerID, startDate, endDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Invoice), args.Error(1)
}

type MockMinioService struct {
	mock.Mock
}

func (m *MockMinioService) UploadObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, contentType string) error {
	args := m.Called(ctx, bucketName, objectName, reader, objectSize, contentType)
	return args.Error(0)
}

func (m *MockMinioService) GetPresignedURL(ctx context.Context, bucketName, objectName string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, bucketName, objectName, expiry)
	return args.String(0), args.Error(1)
}

func (m *MockMinioService) DeleteObject(ctx context.Context, bucketName, objectName string) error {
	args := m.Called(ctx, bucketName, objectName)
	return args.Error(0)
}

func (m *MockMinioService) EnsureBucketExists(ctx context.Context, bucketName string) error {
	args := m.Called(ctx, bucketName)
	return args.Error(0)
}

func (m *MockMinioService) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}
