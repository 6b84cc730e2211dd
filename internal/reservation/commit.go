package reservation

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"

	"garagebill/internal/billing"
	"garagebill/internal/common"
	"garagebill/internal/models"
)

type delta struct {
	partID uuid.UUID
	qty    int
}

// deltas is what a commit has to take out of stock, in entry order.
// Negative quantities put stock back.
func (lst *list) deltas() []delta {
	out := make([]delta, 0, len(lst.Entries)+len(lst.released))
	for _, e := range lst.Entries {
		if d := e.Quantity - e.Baseline; d != 0 {
			out = append(out, delta{partID: e.PartID, qty: d})
		}
	}

	released := make([]uuid.UUID, 0, len(lst.released))
	for id := range lst.released {
		released = append(released, id)
	}
	sort.Slice(released, func(i, j int) bool { return released[i].String() < released[j].String() })
	for _, id := range released {
		out = append(out, delta{partID: id, qty: -lst.released[id]})
	}
	return out
}

// Refresh replaces the snapshot with the gateway's current part list.
func (l *Ledger) Refresh(ctx context.Context, gw InventoryGateway) error {
	parts, err := gw.ListParts(ctx, l.ownerID)
	if err != nil {
		return fmt.Errorf("failed to refresh inventory snapshot: %w", err)
	}
	l.snapshot.Replace(parts)
	return nil
}

// Commit writes a list's pending deltas to the gateway one part at a time.
// Each part is re-read right before its write and the commit stops at the
// first part whose stock no longer covers the delta. Writes already made
// by that commit are then reversed, so a failed commit leaves inventory
// and the list as they were. Edits to the list are refused while the
// commit runs.
func (l *Ledger) Commit(ctx context.Context, gw InventoryGateway, listID uuid.UUID) (*models.CommitResult, error) {
	l.commitMu.Lock()
	defer l.commitMu.Unlock()

	l.mu.Lock()
	lst, err := l.editableLocked(listID)
	if err != nil {
		l.mu.Unlock()
		return nil, err
	}
	lst.committing = true
	deltas := lst.deltas()
	committed := l.committedPartsLocked(lst)
	l.mu.Unlock()

	movements := make([]models.StockMovement, 0, len(deltas))
	for _, d := range deltas {
		mv, err := l.apply(ctx, gw, d)
		if err != nil {
			if cerr := l.compensate(context.WithoutCancel(ctx), gw, movements); cerr != nil {
				err = errors.Join(err, fmt.Errorf("restoring earlier writes: %w", cerr))
			}
			l.mu.Lock()
			lst.committing = false
			l.mu.Unlock()
			return nil, fmt.Errorf("commit of selection %s failed: %w", listID, err)
		}
		movements = append(movements, mv)
	}

	if err := l.Refresh(ctx, gw); err != nil {
		log.Printf("Commit of selection %s succeeded but snapshot refresh failed: %v", listID, err)
	}

	l.mu.Lock()
	delete(l.lists, listID)
	l.mu.Unlock()

	return &models.CommitResult{ListID: listID, Parts: committed, Movements: movements}, nil
}

func (l *Ledger) committedPartsLocked(lst *list) []models.CommittedPart {
	out := make([]models.CommittedPart, 0, len(lst.Entries))
	for _, e := range lst.Entries {
		part, _ := l.snapshot.Get(e.PartID)
		out = append(out, models.CommittedPart{
			PartID:        e.PartID,
			Name:          part.Name,
			Quantity:      e.Quantity,
			PricePerUnit:  part.PricePerUnit,
			TaxPercentage: billing.EffectiveLinePercentage(e.SGST, e.CGST),
			LineTotal:     billing.LineTotal(part.PricePerUnit, e.Quantity, e.SGST, e.CGST),
		})
	}
	return out
}

func (l *Ledger) apply(ctx context.Context, gw InventoryGateway, d delta) (models.StockMovement, error) {
	part, err := gw.GetPart(ctx, l.ownerID, d.partID)
	if err != nil {
		return models.StockMovement{}, fmt.Errorf("failed to fetch part %s: %w", d.partID, err)
	}

	next := part.QuantityOnHand - d.qty
	if next < 0 {
		return models.StockMovement{}, &common.StockError{
			Err:       common.ErrInsufficientStock,
			PartID:    part.ID,
			PartName:  part.Name,
			Requested: d.qty,
			Limit:     part.QuantityOnHand,
		}
	}
	if err := gw.UpdateQuantity(ctx, l.ownerID, d.partID, next); err != nil {
		return models.StockMovement{}, fmt.Errorf("failed to update quantity of %s: %w", part.Name, err)
	}

	updated := *part
	updated.QuantityOnHand = next
	l.snapshot.Upsert(updated)

	return models.StockMovement{PartID: d.partID, Delta: d.qty, Before: part.QuantityOnHand, After: next}, nil
}

// compensate reverses applied movements newest first. Failures are logged
// and returned joined; there is nothing further to fall back to.
func (l *Ledger) compensate(ctx context.Context, gw InventoryGateway, applied []models.StockMovement) error {
	var errs []error
	for i := len(applied) - 1; i >= 0; i-- {
		mv := applied[i]
		part, err := gw.GetPart(ctx, l.ownerID, mv.PartID)
		if err != nil {
			log.Printf("Compensation: failed to fetch part %s: %v", mv.PartID, err)
			errs = append(errs, err)
			continue
		}
		restored := part.QuantityOnHand + mv.Delta
		if err := gw.UpdateQuantity(ctx, l.ownerID, mv.PartID, restored); err != nil {
			log.Printf("Compensation: failed to restore part %s to %d: %v", mv.PartID, restored, err)
			errs = append(errs, err)
			continue
		}
		updated := *part
		updated.QuantityOnHand = restored
		l.snapshot.Upsert(updated)
	}
	return errors.Join(errs...)
}
