package services

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/google/uuid"

	"garagebill/internal/caching"
	"garagebill/internal/common"
	"garagebill/internal/models"
	"garagebill/internal/reservation"
)

const EventInventoryUpdated = "inventory.updated"

// Notifier fans inventory events out to connected screens.
type Notifier interface {
	Publish(ownerID uuid.UUID, eventType string, data interface{})
}

// InventoryService is the selection-list workflow on top of the per-owner
// reservation ledgers. Every mutating call returns the list as the screen
// should now render it.
type InventoryService interface {
	ListParts(ctx context.Context, ownerID uuid.UUID) ([]models.PartAvailability, error)
	RefreshSnapshot(ctx context.Context, ownerID uuid.UUID) error
	AddPart(ctx context.Context, ownerID uuid.UUID, part *models.Part) (*models.Part, error)
	DeletePart(ctx context.Context, ownerID, partID uuid.UUID) error
	Candidates(ctx context.Context, ownerID, listID uuid.UUID) ([]models.Candidate, error)
	LowStock(ctx context.Context, ownerID uuid.UUID, threshold int) ([]models.LowStockAlert, error)

	CreateSelection(ctx context.Context, ownerID uuid.UUID, spec reservation.ListSpec) (models.SelectionView, error)
	ListSelections(ctx context.Context, ownerID uuid.UUID) []models.SelectionList
	GetSelection(ctx context.Context, ownerID, listID uuid.UUID) (models.SelectionView, error)
	DiscardSelection(ctx context.Context, ownerID, listID uuid.UUID) error
	AddEntry(ctx context.Context, ownerID, listID uuid.UUID, in reservation.EntryInput) (models.SelectionView, error)
	UpdateEntry(ctx context.Context, ownerID, listID, partID uuid.UUID, upd reservation.EntryUpdate) (models.SelectionView, error)
	StepEntry(ctx context.Context, ownerID, listID, partID uuid.UUID, step int) (models.SelectionView, error)
	RemoveEntry(ctx context.Context, ownerID, listID, partID uuid.UUID) (models.SelectionView, error)
	Commit(ctx context.Context, ownerID, listID uuid.UUID) (*models.CommitResult, error)
}

type inventoryService struct {
	registry     *reservation.Registry
	gateway      reservation.InventoryGateway
	cacheService caching.CacheService
	notifier     Notifier
	snapshotTTL  time.Duration
}

func NewInventoryService(registry *reservation.Registry, gateway reservation.InventoryGateway, cacheService caching.CacheService, notifier Notifier, snapshotTTL time.Duration) InventoryService {
	if registry == nil {
		registry = reservation.NewRegistry()
	}
	return &inventoryService{
		registry:     registry,
		gateway:      gateway,
		cacheService: cacheService,
		notifier:     notifier,
		snapshotTTL:  snapshotTTL,
	}
}

// ledger returns the owner's ledger with a populated snapshot. A cold
// snapshot is filled from the cache when possible, else from the gateway.
func (s *inventoryService) ledger(ctx context.Context, ownerID uuid.UUID) (*reservation.Ledger, error) {
	l := s.registry.Ledger(ownerID)
	if !l.Snapshot().FetchedAt().IsZero() {
		return l, nil
	}

	if s.cacheService != nil {
		parts, err := s.cacheService.GetPartsSnapshot(ctx, ownerID)
		if err != nil {
			log.Printf("Failed to read cached parts for owner %s: %v", ownerID, err)
		} else if parts != nil {
			l.Snapshot().Replace(parts)
			return l, nil
		}
	}

	if err := s.refresh(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *inventoryService) refresh(ctx context.Context, l *reservation.Ledger) error {
	if err := l.Refresh(ctx, s.gateway); err != nil {
		return err
	}
	s.storeSnapshot(ctx, l)
	return nil
}

func (s *inventoryService) storeSnapshot(ctx context.Context, l *reservation.Ledger) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.SetPartsSnapshot(ctx, l.OwnerID(), l.Snapshot().All(), s.snapshotTTL); err != nil {
		log.Printf("Failed to cache parts snapshot for owner %s: %v", l.OwnerID(), err)
	}
}

func (s *inventoryService) invalidateSnapshot(ctx context.Context, ownerID uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.InvalidatePartsSnapshot(ctx, ownerID); err != nil {
		log.Printf("Failed to invalidate cached parts for owner %s: %v", ownerID, err)
	}
}

func (s *inventoryService) publish(ownerID uuid.UUID, data interface{}) {
	if s.notifier != nil {
		s.notifier.Publish(ownerID, EventInventoryUpdated, data)
	}
}

func (s *inventoryService) ListParts(ctx context.Context, ownerID uuid.UUID) ([]models.PartAvailability, error) {
	l := s.registry.Ledger(ownerID)
	if err := s.refresh(ctx, l); err != nil {
		return nil, err
	}
	return l.Availability(), nil
}

func (s *inventoryService) RefreshSnapshot(ctx context.Context, ownerID uuid.UUID) error {
	return s.refresh(ctx, s.registry.Ledger(ownerID))
}

func (s *inventoryService) AddPart(ctx context.Context, ownerID uuid.UUID, part *models.Part) (*models.Part, error) {
	l, err := s.ledger(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	part.OwnerID = ownerID
	if part.TaxPercentage != nil {
		pct := models.ClampPercent(*part.TaxPercentage)
		part.TaxPercentage = &pct
	}
	if err := s.gateway.AddPart(ctx, part); err != nil {
		return nil, err
	}

	stored, err := s.gateway.GetPart(ctx, ownerID, part.ID)
	if err != nil {
		// The write went through; fall back to what was sent.
		log.Printf("Part %s added but could not be re-read: %v", part.ID, err)
		stored = part
	}
	l.Snapshot().Upsert(*stored)
	s.invalidateSnapshot(ctx, ownerID)
	s.publish(ownerID, map[string]interface{}{"added": stored.ID})
	return stored, nil
}

// DeletePart removes a part whose stock is zero. A part still held by an
// open selection list cannot be deleted.
func (s *inventoryService) DeletePart(ctx context.Context, ownerID, partID uuid.UUID) error {
	l, err := s.ledger(ctx, ownerID)
	if err != nil {
		return err
	}
	for _, lst := range l.Lists() {
		for _, e := range lst.Entries {
			if e.PartID == partID {
				return common.NewValidationError("part_id", "part is used by an open selection list")
			}
		}
	}
	if err := s.gateway.DeletePart(ctx, ownerID, partID); err != nil {
		return err
	}
	l.Snapshot().Remove(partID)
	s.invalidateSnapshot(ctx, ownerID)
	s.publish(ownerID, map[string]interface{}{"deleted": partID})
	return nil
}

func (s *inventoryService) Candidates(ctx context.Context, ownerID, listID uuid.UUID) ([]models.Candidate, error) {
	l, err := s.ledger(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return l.Candidates(listID)
}

// LowStock lists parts at or below threshold, lowest stock first.
func (s *inventoryService) LowStock(ctx context.Context, ownerID uuid.UUID, threshold int) ([]models.LowStockAlert, error) {
	l, err := s.ledger(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	var alerts []models.LowStockAlert
	for _, p := range l.Snapshot().All() {
		if p.QuantityOnHand <= threshold {
			alerts = append(alerts, models.LowStockAlert{
				OwnerID:        ownerID,
				PartID:         p.ID,
				PartName:       p.Name,
				QuantityOnHand: p.QuantityOnHand,
				Threshold:      threshold,
			})
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].QuantityOnHand < alerts[j].QuantityOnHand
	})
	return alerts, nil
}

func (s *inventoryService) CreateSelection(ctx context.Context, ownerID uuid.UUID, spec reservation.ListSpec) (models.SelectionView, error) {
	l, err := s.ledger(ctx, ownerID)
	if err != nil {
		return models.SelectionView{}, err
	}
	lst, err := l.CreateList(spec)
	if err != nil {
		return models.SelectionView{}, err
	}
	return l.View(lst.ID)
}

func (s *inventoryService) ListSelections(ctx context.Context, ownerID uuid.UUID) []models.SelectionList {
	if l, ok := s.registry.Lookup(ownerID); ok {
		return l.Lists()
	}
	return []models.SelectionList{}
}

func (s *inventoryService) GetSelection(ctx context.Context, ownerID, listID uuid.UUID) (models.SelectionView, error) {
	l, err := s.ledger(ctx, ownerID)
	if err != nil {
		return models.SelectionView{}, err
	}
	return l.View(listID)
}

func (s *inventoryService) DiscardSelection(ctx context.Context, ownerID, listID uuid.UUID) error {
	l, ok := s.registry.Lookup(ownerID)
	if !ok {
		return fmt.Errorf("selection %s: %w", listID, common.ErrNotFound)
	}
	return l.Discard(listID)
}

func (s *inventoryService) AddEntry(ctx context.Context, ownerID, listID uuid.UUID, in reservation.EntryInput) (models.SelectionView, error) {
	l, err := s.ledger(ctx, ownerID)
	if err != nil {
		return models.SelectionView{}, err
	}
	if _, err := l.AddEntry(listID, in); err != nil {
		return models.SelectionView{}, err
	}
	return l.View(listID)
}

func (s *inventoryService) UpdateEntry(ctx context.Context, ownerID, listID, partID uuid.UUID, upd reservation.EntryUpdate) (models.SelectionView, error) {
	l, err := s.ledger(ctx, ownerID)
	if err != nil {
		return models.SelectionView{}, err
	}
	if _, err := l.UpdateEntry(listID, partID, upd); err != nil {
		return models.SelectionView{}, err
	}
	return l.View(listID)
}

func (s *inventoryService) StepEntry(ctx context.Context, ownerID, listID, partID uuid.UUID, step int) (models.SelectionView, error) {
	if step != 1 && step != -1 {
		return models.SelectionView{}, common.NewValidationError("step", "must be 1 or -1")
	}
	l, err := s.ledger(ctx, ownerID)
	if err != nil {
		return models.SelectionView{}, err
	}
	if _, err := l.AdjustEntry(listID, partID, step); err != nil {
		return models.SelectionView{}, err
	}
	return l.View(listID)
}

func (s *inventoryService) RemoveEntry(ctx context.Context, ownerID, listID, partID uuid.UUID) (models.SelectionView, error) {
	l, err := s.ledger(ctx, ownerID)
	if err != nil {
		return models.SelectionView{}, err
	}
	if err := l.RemoveEntry(listID, partID); err != nil {
		return models.SelectionView{}, err
	}
	return l.View(listID)
}

// Commit writes the list's net deltas to the inventory store. On success
// the fresh snapshot is cached and other screens are told to re-fetch.
func (s *inventoryService) Commit(ctx context.Context, ownerID, listID uuid.UUID) (*models.CommitResult, error) {
	l, err := s.ledger(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	result, err := l.Commit(ctx, s.gateway, listID)
	if err != nil {
		// Another writer may have moved stock; make the next read go to the store.
		s.invalidateSnapshot(ctx, ownerID)
		return nil, err
	}
	s.storeSnapshot(ctx, l)
	log.Printf("Committed selection %s for owner %s: %d stock movements", listID, ownerID, len(result.Movements))
	s.publish(ownerID, result.Movements)
	return result, nil
}
