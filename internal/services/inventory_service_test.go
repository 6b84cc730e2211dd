package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"garagebill/internal/common"
	"garagebill/internal/models"
	"garagebill/internal/reservation"
	"garagebill/pkg/money"
)

const testSnapshotTTL = 5 * time.Minute

type InventoryServiceTestSuite struct {
	suite.Suite
	ctx      context.Context
	ownerID  uuid.UUID
	filter   models.Part
	pads     models.Part
	empty    models.Part
	gateway  *MockInventoryGateway
	cache    *MockCacheService
	notifier *MockNotifier
	service  InventoryService
}

func (suite *InventoryServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.ownerID = uuid.New()
	tax := decimal.NewFromInt(18)
	suite.filter = models.Part{ID: uuid.New(), OwnerID: suite.ownerID, Name: "Oil filter", QuantityOnHand: 5, PricePerUnit: money.MustParse("250"), TaxPercentage: &tax}
	suite.pads = models.Part{ID: uuid.New(), OwnerID: suite.ownerID, Name: "Brake pad", QuantityOnHand: 10, PricePerUnit: money.MustParse("1000"), TaxPercentage: &tax}
	suite.empty = models.Part{ID: uuid.New(), OwnerID: suite.ownerID, Name: "Clutch plate", QuantityOnHand: 0, PricePerUnit: money.MustParse("3200")}

	suite.gateway = new(MockInventoryGateway)
	suite.cache = new(MockCacheService)
	suite.notifier = new(MockNotifier)
	suite.service = NewInventoryService(reservation.NewRegistry(), suite.gateway, suite.cache, suite.notifier, testSnapshotTTL)
}

func (suite *InventoryServiceTestSuite) TearDownTest() {
	suite.gateway.AssertExpectations(suite.T())
	suite.cache.AssertExpectations(suite.T())
	suite.notifier.AssertExpectations(suite.T())
}

func TestInventoryServiceTestSuite(t *testing.T) {
	suite.Run(t, new(InventoryServiceTestSuite))
}

func (suite *InventoryServiceTestSuite) parts() []models.Part {
	return []models.Part{suite.filter, suite.pads, suite.empty}
}

func (suite *InventoryServiceTestSuite) primeFromCache() {
	suite.cache.On("GetPartsSnapshot", mock.Anything, suite.ownerID).Return(suite.parts(), nil).Once()
}

func (suite *InventoryServiceTestSuite) TestColdStartUsesCachedSnapshot() {
	suite.primeFromCache()

	candidates, err := suite.service.Candidates(suite.ctx, suite.ownerID, uuid.Nil)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), candidates, 2, "zero-stock parts are never offered")
	suite.gateway.AssertNotCalled(suite.T(), "ListParts", mock.Anything, mock.Anything)
}

func (suite *InventoryServiceTestSuite) TestColdStartCacheMissFetchesAndCaches() {
	suite.cache.On("GetPartsSnapshot", mock.Anything, suite.ownerID).Return(nil, nil).Once()
	suite.gateway.On("ListParts", mock.Anything, suite.ownerID).Return(suite.parts(), nil).Once()
	suite.cache.On("SetPartsSnapshot", mock.Anything, suite.ownerID, mock.Anything, testSnapshotTTL).Return(nil).Once()

	candidates, err := suite.service.Candidates(suite.ctx, suite.ownerID, uuid.Nil)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), candidates, 2)

	// Warm now; no further lookups.
	_, err = suite.service.Candidates(suite.ctx, suite.ownerID, uuid.Nil)
	assert.NoError(suite.T(), err)
}

func (suite *InventoryServiceTestSuite) TestCacheFailureFallsBackToGateway() {
	suite.cache.On("GetPartsSnapshot", mock.Anything, suite.ownerID).Return(nil, errors.New("redis down")).Once()
	suite.gateway.On("ListParts", mock.Anything, suite.ownerID).Return(suite.parts(), nil).Once()
	suite.cache.On("SetPartsSnapshot", mock.Anything, suite.ownerID, mock.Anything, testSnapshotTTL).Return(errors.New("redis down")).Once()

	_, err := suite.service.CreateSelection(suite.ctx, suite.ownerID, reservation.ListSpec{})
	assert.NoError(suite.T(), err)
}

func (suite *InventoryServiceTestSuite) TestGatewayFailureSurfacesNetworkError() {
	netErr := &common.NetworkError{Op: "list parts", Status: 503, Message: "Inventory is being recounted"}
	suite.cache.On("GetPartsSnapshot", mock.Anything, suite.ownerID).Return(nil, nil).Once()
	suite.gateway.On("ListParts", mock.Anything, suite.ownerID).Return(nil, netErr).Once()

	_, err := suite.service.CreateSelection(suite.ctx, suite.ownerID, reservation.ListSpec{})
	assert.ErrorIs(suite.T(), err, common.ErrNetworkFailure)
}

func (suite *InventoryServiceTestSuite) TestListPartsAlwaysRefreshes() {
	suite.primeFromCache()
	list, err := suite.service.CreateSelection(suite.ctx, suite.ownerID, reservation.ListSpec{})
	require.NoError(suite.T(), err)
	_, err = suite.service.AddEntry(suite.ctx, suite.ownerID, list.ID, reservation.EntryInput{PartID: suite.pads.ID, Quantity: 4})
	require.NoError(suite.T(), err)

	suite.gateway.On("ListParts", mock.Anything, suite.ownerID).Return(suite.parts(), nil).Once()
	suite.cache.On("SetPartsSnapshot", mock.Anything, suite.ownerID, mock.Anything, testSnapshotTTL).Return(nil).Once()

	parts, err := suite.service.ListParts(suite.ctx, suite.ownerID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), parts, 3)
	assert.Equal(suite.T(), suite.pads.ID, parts[1].ID)
	assert.Equal(suite.T(), 4, parts[1].Reserved)
	assert.Equal(suite.T(), 6, parts[1].Available)
}

func (suite *InventoryServiceTestSuite) TestCrossListReservation() {
	suite.primeFromCache()

	first, err := suite.service.CreateSelection(suite.ctx, suite.ownerID, reservation.ListSpec{})
	require.NoError(suite.T(), err)
	second, err := suite.service.CreateSelection(suite.ctx, suite.ownerID, reservation.ListSpec{Scope: models.ListScopeAssignment})
	require.NoError(suite.T(), err)

	_, err = suite.service.AddEntry(suite.ctx, suite.ownerID, first.ID, reservation.EntryInput{PartID: suite.filter.ID, Quantity: 3})
	require.NoError(suite.T(), err)

	_, err = suite.service.AddEntry(suite.ctx, suite.ownerID, second.ID, reservation.EntryInput{PartID: suite.filter.ID, Quantity: 4})
	var stockErr *common.StockError
	require.True(suite.T(), errors.As(err, &stockErr))
	assert.Equal(suite.T(), 2, stockErr.Limit)

	view, err := suite.service.AddEntry(suite.ctx, suite.ownerID, second.ID, reservation.EntryInput{PartID: suite.filter.ID, Quantity: 2})
	require.NoError(suite.T(), err)
	require.Len(suite.T(), view.Lines, 1)
	assert.Equal(suite.T(), 2, view.Lines[0].MaxSelectable)
	assert.False(suite.T(), view.Lines[0].CanIncrease)

	assert.Len(suite.T(), suite.service.ListSelections(suite.ctx, suite.ownerID), 2)
}

func (suite *InventoryServiceTestSuite) TestStepEntry() {
	suite.primeFromCache()
	list, err := suite.service.CreateSelection(suite.ctx, suite.ownerID, reservation.ListSpec{})
	require.NoError(suite.T(), err)
	_, err = suite.service.AddEntry(suite.ctx, suite.ownerID, list.ID, reservation.EntryInput{PartID: suite.filter.ID, Quantity: 4})
	require.NoError(suite.T(), err)

	view, err := suite.service.StepEntry(suite.ctx, suite.ownerID, list.ID, suite.filter.ID, 1)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 5, view.Lines[0].Quantity)

	_, err = suite.service.StepEntry(suite.ctx, suite.ownerID, list.ID, suite.filter.ID, 1)
	assert.ErrorIs(suite.T(), err, common.ErrOutOfStock)

	_, err = suite.service.StepEntry(suite.ctx, suite.ownerID, list.ID, suite.filter.ID, 2)
	assert.ErrorIs(suite.T(), err, common.ErrValidation)
}

func (suite *InventoryServiceTestSuite) TestRemoveAndUpdateEntry() {
	suite.primeFromCache()
	list, err := suite.service.CreateSelection(suite.ctx, suite.ownerID, reservation.ListSpec{})
	require.NoError(suite.T(), err)
	_, err = suite.service.AddEntry(suite.ctx, suite.ownerID, list.ID, reservation.EntryInput{PartID: suite.pads.ID, Quantity: 2})
	require.NoError(suite.T(), err)

	qty := 3
	off := models.LineTax{Enabled: false, Percentage: decimal.NewFromInt(9)}
	view, err := suite.service.UpdateEntry(suite.ctx, suite.ownerID, list.ID, suite.pads.ID, reservation.EntryUpdate{Quantity: &qty, SGST: &off})
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), "3270.00", view.Lines[0].LineTotal.String())

	view, err = suite.service.RemoveEntry(suite.ctx, suite.ownerID, list.ID, suite.pads.ID)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), view.Lines)
}

func (suite *InventoryServiceTestSuite) TestCommitWritesCachesAndPublishes() {
	suite.primeFromCache()
	list, err := suite.service.CreateSelection(suite.ctx, suite.ownerID, reservation.ListSpec{})
	require.NoError(suite.T(), err)
	_, err = suite.service.AddEntry(suite.ctx, suite.ownerID, list.ID, reservation.EntryInput{PartID: suite.filter.ID, Quantity: 3})
	require.NoError(suite.T(), err)

	current := suite.filter
	after := suite.filter
	after.QuantityOnHand = 2
	suite.gateway.On("GetPart", mock.Anything, suite.ownerID, suite.filter.ID).Return(&current, nil).Once()
	suite.gateway.On("UpdateQuantity", mock.Anything, suite.ownerID, suite.filter.ID, 2).Return(nil).Once()
	suite.gateway.On("ListParts", mock.Anything, suite.ownerID).Return([]models.Part{after, suite.pads, suite.empty}, nil).Once()
	suite.cache.On("SetPartsSnapshot", mock.Anything, suite.ownerID, mock.Anything, testSnapshotTTL).Return(nil).Once()
	suite.notifier.On("Publish", suite.ownerID, EventInventoryUpdated, mock.Anything).Once()

	result, err := suite.service.Commit(suite.ctx, suite.ownerID, list.ID)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), result.Movements, 1)
	assert.Equal(suite.T(), 5, result.Movements[0].Before)
	assert.Equal(suite.T(), 2, result.Movements[0].After)

	_, err = suite.service.GetSelection(suite.ctx, suite.ownerID, list.ID)
	assert.ErrorIs(suite.T(), err, common.ErrNotFound, "committed lists are closed")
}

func (suite *InventoryServiceTestSuite) TestCommitFailureKeepsListAndInvalidatesCache() {
	suite.primeFromCache()
	list, err := suite.service.CreateSelection(suite.ctx, suite.ownerID, reservation.ListSpec{})
	require.NoError(suite.T(), err)
	_, err = suite.service.AddEntry(suite.ctx, suite.ownerID, list.ID, reservation.EntryInput{PartID: suite.filter.ID, Quantity: 3})
	require.NoError(suite.T(), err)

	drained := suite.filter
	drained.QuantityOnHand = 1
	suite.gateway.On("GetPart", mock.Anything, suite.ownerID, suite.filter.ID).Return(&drained, nil).Once()
	suite.cache.On("InvalidatePartsSnapshot", mock.Anything, suite.ownerID).Return(nil).Once()

	_, err = suite.service.Commit(suite.ctx, suite.ownerID, list.ID)
	assert.ErrorIs(suite.T(), err, common.ErrInsufficientStock)
	suite.gateway.AssertNotCalled(suite.T(), "UpdateQuantity", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.notifier.AssertNotCalled(suite.T(), "Publish", mock.Anything, mock.Anything, mock.Anything)

	_, err = suite.service.GetSelection(suite.ctx, suite.ownerID, list.ID)
	assert.NoError(suite.T(), err)
}

func (suite *InventoryServiceTestSuite) TestDeletePart() {
	suite.primeFromCache()
	list, err := suite.service.CreateSelection(suite.ctx, suite.ownerID, reservation.ListSpec{})
	require.NoError(suite.T(), err)
	_, err = suite.service.AddEntry(suite.ctx, suite.ownerID, list.ID, reservation.EntryInput{PartID: suite.filter.ID, Quantity: 1})
	require.NoError(suite.T(), err)

	err = suite.service.DeletePart(suite.ctx, suite.ownerID, suite.filter.ID)
	assert.ErrorIs(suite.T(), err, common.ErrValidation)

	suite.gateway.On("DeletePart", mock.Anything, suite.ownerID, suite.empty.ID).Return(nil).Once()
	suite.cache.On("InvalidatePartsSnapshot", mock.Anything, suite.ownerID).Return(nil).Once()
	suite.notifier.On("Publish", suite.ownerID, EventInventoryUpdated, mock.Anything).Once()

	require.NoError(suite.T(), suite.service.DeletePart(suite.ctx, suite.ownerID, suite.empty.ID))
	parts, err := suite.service.LowStock(suite.ctx, suite.ownerID, 0)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), parts)
}

func (suite *InventoryServiceTestSuite) TestAddPart() {
	suite.primeFromCache()
	wiper := &models.Part{Name: "Wiper blade", QuantityOnHand: 6, PricePerUnit: money.MustParse("450")}

	suite.gateway.On("AddPart", mock.Anything, mock.AnythingOfType("*models.Part")).Run(func(args mock.Arguments) {
		args.Get(1).(*models.Part).ID = uuid.New()
	}).Return(nil).Once()
	suite.gateway.On("GetPart", mock.Anything, suite.ownerID, mock.AnythingOfType("uuid.UUID")).Return(wiper, nil).Once()
	suite.cache.On("InvalidatePartsSnapshot", mock.Anything, suite.ownerID).Return(nil).Once()
	suite.notifier.On("Publish", suite.ownerID, EventInventoryUpdated, mock.Anything).Once()

	stored, err := suite.service.AddPart(suite.ctx, suite.ownerID, wiper)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), suite.ownerID, stored.OwnerID)

	candidates, err := suite.service.Candidates(suite.ctx, suite.ownerID, uuid.Nil)
	require.NoError(suite.T(), err)
	assert.Len(suite.T(), candidates, 3)
}

func (suite *InventoryServiceTestSuite) TestLowStockOrdering() {
	suite.primeFromCache()

	alerts, err := suite.service.LowStock(suite.ctx, suite.ownerID, 5)
	require.NoError(suite.T(), err)
	require.Len(suite.T(), alerts, 2)
	assert.Equal(suite.T(), "Clutch plate", alerts[0].PartName)
	assert.Equal(suite.T(), "Oil filter", alerts[1].PartName)
	assert.Equal(suite.T(), 5, alerts[1].Threshold)
}

func (suite *InventoryServiceTestSuite) TestDiscardSelection() {
	err := suite.service.DiscardSelection(suite.ctx, suite.ownerID, uuid.New())
	assert.ErrorIs(suite.T(), err, common.ErrNotFound)

	suite.primeFromCache()
	list, err := suite.service.CreateSelection(suite.ctx, suite.ownerID, reservation.ListSpec{})
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.service.DiscardSelection(suite.ctx, suite.ownerID, list.ID))
	assert.Empty(suite.T(), suite.service.ListSelections(suite.ctx, suite.ownerID))
}
