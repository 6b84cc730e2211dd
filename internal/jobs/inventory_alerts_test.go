package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"garagebill/internal/caching"
	"garagebill/internal/models"
	"garagebill/internal/services"
)

// MockInventoryService implements only what the alert job calls; the
// embedded interface panics on anything else.
type MockInventoryService struct {
	services.InventoryService
	mock.Mock
}

func (m *MockInventoryService) LowStock(ctx context.Context, ownerID uuid.UUID, threshold int) ([]models.LowStockAlert, error) {
	args := m.Called(ctx, ownerID, threshold)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.LowStockAlert), args.Error(1)
}

type MockCacheService struct {
	caching.CacheService
	mock.Mock
}

func (m *MockCacheService) MarkLowStockAlerted(ctx context.Context, ownerID, partID uuid.UUID, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, ownerID, partID, ttl)
	return args.Bool(0), args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Publish(ownerID uuid.UUID, eventType string, data interface{}) {
	m.Called(ownerID, eventType, data)
}

type InventoryAlertServiceTestSuite struct {
	suite.Suite
	inventory *MockInventoryService
	cache     *MockCacheService
	notifier  *MockNotifier
	owners    []uuid.UUID
	ownersErr error
	service   *InventoryAlertService
	ctx       context.Context
}

func (suite *InventoryAlertServiceTestSuite) SetupTest() {
	suite.inventory = new(MockInventoryService)
	suite.cache = new(MockCacheService)
	suite.notifier = new(MockNotifier)
	suite.owners = nil
	suite.ownersErr = nil
	lister := OwnerListerFunc(func(context.Context) ([]uuid.UUID, error) {
		return suite.owners, suite.ownersErr
	})
	suite.service = NewInventoryAlertService(suite.inventory, suite.cache, suite.notifier, lister, 2)
	suite.ctx = context.Background()
}

func (suite *InventoryAlertServiceTestSuite) TearDownTest() {
	suite.inventory.AssertExpectations(suite.T())
	suite.cache.AssertExpectations(suite.T())
	suite.notifier.AssertExpectations(suite.T())
}

func lowAlert(ownerID uuid.UUID, name string, qty int) models.LowStockAlert {
	return models.LowStockAlert{OwnerID: ownerID, PartID: uuid.New(), PartName: name, QuantityOnHand: qty, Threshold: 2}
}

func (suite *InventoryAlertServiceTestSuite) TestCheckLowStockSkipsAlreadyAlerted() {
	ownerID := uuid.New()
	wiper := lowAlert(ownerID, "Wiper blade", 0)
	bulb := lowAlert(ownerID, "Headlight bulb", 2)

	suite.inventory.On("LowStock", suite.ctx, ownerID, 2).Return([]models.LowStockAlert{wiper, bulb}, nil)
	suite.cache.On("MarkLowStockAlerted", suite.ctx, ownerID, wiper.PartID, defaultAlertWindow).Return(true, nil)
	suite.cache.On("MarkLowStockAlerted", suite.ctx, ownerID, bulb.PartID, defaultAlertWindow).Return(false, nil)

	alerts, err := suite.service.CheckLowStock(suite.ctx, ownerID, 2)

	suite.Require().NoError(err)
	suite.Require().Len(alerts, 1)
	suite.Equal("Wiper blade", alerts[0].PartName)
}

func (suite *InventoryAlertServiceTestSuite) TestCheckLowStockCacheErrorStillAlerts() {
	ownerID := uuid.New()
	wiper := lowAlert(ownerID, "Wiper blade", 1)

	suite.inventory.On("LowStock", suite.ctx, ownerID, 0).Return([]models.LowStockAlert{wiper}, nil)
	suite.cache.On("MarkLowStockAlerted", suite.ctx, ownerID, wiper.PartID, defaultAlertWindow).Return(false, errors.New("redis down"))

	alerts, err := suite.service.CheckLowStock(suite.ctx, ownerID, -5)

	suite.Require().NoError(err)
	suite.Len(alerts, 1)
}

func (suite *InventoryAlertServiceTestSuite) TestCheckLowStockInventoryError() {
	ownerID := uuid.New()
	suite.inventory.On("LowStock", suite.ctx, ownerID, 2).Return(nil, errors.New("inventory unreachable"))

	alerts, err := suite.service.CheckLowStock(suite.ctx, ownerID, 2)

	suite.Error(err)
	suite.Nil(alerts)
}

func (suite *InventoryAlertServiceTestSuite) TestScheduledCheckPublishesPerOwner() {
	quiet := uuid.New()
	busy := uuid.New()
	broken := uuid.New()
	suite.owners = []uuid.UUID{quiet, busy, broken}

	pads := lowAlert(busy, "Brake pads", 1)
	suite.inventory.On("LowStock", suite.ctx, quiet, 2).Return(nil, nil)
	suite.inventory.On("LowStock", suite.ctx, busy, 2).Return([]models.LowStockAlert{pads}, nil)
	suite.inventory.On("LowStock", suite.ctx, broken, 2).Return(nil, errors.New("timeout"))
	suite.cache.On("MarkLowStockAlerted", suite.ctx, busy, pads.PartID, defaultAlertWindow).Return(true, nil)
	suite.notifier.On("Publish", busy, EventLowStock, []models.LowStockAlert{pads}).Return()

	err := suite.service.ScheduledLowStockCheck(suite.ctx)

	suite.Error(err)
	suite.Contains(err.Error(), "timeout")
	suite.notifier.AssertNumberOfCalls(suite.T(), "Publish", 1)
}

func (suite *InventoryAlertServiceTestSuite) TestScheduledCheckOwnerListFails() {
	suite.ownersErr = errors.New("database unavailable")

	err := suite.service.ScheduledLowStockCheck(suite.ctx)

	suite.EqualError(err, "database unavailable")
}

func (suite *InventoryAlertServiceTestSuite) TestCancelledContextStops() {
	suite.owners = []uuid.UUID{uuid.New()}
	ctx, cancel := context.WithCancel(suite.ctx)
	cancel()

	err := suite.service.CheckAcrossAllOwners(ctx, 2)

	suite.ErrorIs(err, context.Canceled)
}

func TestInventoryAlertServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InventoryAlertServiceTestSuite))
}
