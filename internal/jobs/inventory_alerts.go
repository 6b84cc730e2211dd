package jobs

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"garagebill/internal/caching"
	"garagebill/internal/models"
	"garagebill/internal/services"
)

const (
	EventLowStock = "inventory.low_stock"

	// A part is re-alerted at most once per window while it stays low.
	defaultAlertWindow = 24 * time.Hour
)

// OwnerLister enumerates the owners whose inventory is checked.
type OwnerLister interface {
	ListOwners(ctx context.Context) ([]uuid.UUID, error)
}

// OwnerListerFunc adapts a function to OwnerLister.
type OwnerListerFunc func(ctx context.Context) ([]uuid.UUID, error)

func (f OwnerListerFunc) ListOwners(ctx context.Context) ([]uuid.UUID, error) { return f(ctx) }

type InventoryAlertService struct {
	inventoryService services.InventoryService
	cacheService     caching.CacheService
	notifier         services.Notifier
	owners           OwnerLister
	threshold        int
	window           time.Duration
}

func NewInventoryAlertService(inventoryService services.InventoryService, cacheService caching.CacheService, notifier services.Notifier, owners OwnerLister, threshold int) *InventoryAlertService {
	return &InventoryAlertService{
		inventoryService: inventoryService,
		cacheService:     cacheService,
		notifier:         notifier,
		owners:           owners,
		threshold:        threshold,
		window:           defaultAlertWindow,
	}
}

// CheckLowStock returns the owner's low parts that have not been alerted
// within the alert window. Without a cache every low part is returned.
func (a *InventoryAlertService) CheckLowStock(ctx context.Context, ownerID uuid.UUID, threshold int) ([]models.LowStockAlert, error) {
	if threshold < 0 {
		threshold = 0
	}

	low, err := a.inventoryService.LowStock(ctx, ownerID, threshold)
	if err != nil {
		log.Printf("Failed to check stock for owner %s: %v", ownerID.String(), err)
		return nil, err
	}
	if a.cacheService == nil {
		return low, nil
	}

	var fresh []models.LowStockAlert
	for _, alert := range low {
		first, err := a.cacheService.MarkLowStockAlerted(ctx, ownerID, alert.PartID, a.window)
		if err != nil {
			// Better a repeated alert than a missed one.
			log.Printf("Failed to record alert for part %s: %v", alert.PartID.String(), err)
			first = true
		}
		if first {
			fresh = append(fresh, alert)
		}
	}
	return fresh, nil
}

func (a *InventoryAlertService) LogLowStockAlerts(alerts []models.LowStockAlert) {
	if len(alerts) == 0 {
		return
	}

	log.Printf("Low stock alerts for owner %s:", alerts[0].OwnerID.String())
	for _, alert := range alerts {
		log.Printf("- Part '%s' has %d units (threshold: %d)",
			alert.PartName,
			alert.QuantityOnHand,
			alert.Threshold)
	}
}

// CheckAcrossAllOwners runs the check for every owner and pushes new
// alerts to connected screens. One owner failing does not stop the rest.
func (a *InventoryAlertService) CheckAcrossAllOwners(ctx context.Context, threshold int) error {
	owners, err := a.owners.ListOwners(ctx)
	if err != nil {
		return err
	}

	var errs []error
	for _, ownerID := range owners {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		alerts, err := a.CheckLowStock(ctx, ownerID, threshold)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		a.LogLowStockAlerts(alerts)
		if len(alerts) > 0 && a.notifier != nil {
			a.notifier.Publish(ownerID, EventLowStock, alerts)
		}
	}
	return errors.Join(errs...)
}

// ScheduledLowStockCheck is the periodic entry point.
func (a *InventoryAlertService) ScheduledLowStockCheck(ctx context.Context) error {
	log.Println("Starting scheduled low stock check")

	if err := a.CheckAcrossAllOwners(ctx, a.threshold); err != nil {
		log.Printf("Scheduled low stock check failed: %v", err)
		return err
	}

	log.Println("Scheduled low stock check completed successfully")
	return nil
}
