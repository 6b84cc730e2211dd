// Package reservation tracks logical holds on inventory parts across the
// selection lists a garage owner has open, and turns a list into stock
// movements when it is committed.
package reservation

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"garagebill/internal/billing"
	"garagebill/internal/common"
	"garagebill/internal/models"
	"garagebill/pkg/money"
)

// EntryInput adds a part to a list. Nil tax components default to the
// part's own tax percentage split evenly into SGST and CGST.
type EntryInput struct {
	PartID   uuid.UUID
	Quantity int
	SGST     *models.LineTax
	CGST     *models.LineTax
}

// EntryUpdate changes an entry in place; nil fields are left alone.
type EntryUpdate struct {
	Quantity *int
	SGST     *models.LineTax
	CGST     *models.LineTax
}

// ListSpec opens a list. Saved entries come from a previously committed
// job and are already deducted from stock.
type ListSpec struct {
	JobID *uuid.UUID
	Scope models.ListScope
	Label string
	Saved []models.SelectionEntry
}

type list struct {
	models.SelectionList
	// released holds the baseline of saved entries removed from the list;
	// that stock goes back to inventory on commit.
	released map[uuid.UUID]int
	// committing is set while a commit writes this list's deltas.
	committing bool
}

func (lst *list) find(partID uuid.UUID) int {
	for i, e := range lst.Entries {
		if e.PartID == partID {
			return i
		}
	}
	return -1
}

func (lst *list) copy() models.SelectionList {
	out := lst.SelectionList
	out.Entries = append([]models.SelectionEntry(nil), lst.Entries...)
	return out
}

// Ledger owns every open selection list of one owner. All lists share the
// owner's Snapshot.
type Ledger struct {
	ownerID  uuid.UUID
	snapshot *Snapshot

	mu    sync.Mutex
	lists map[uuid.UUID]*list

	// commitMu serializes commits so each one reads the quantities the
	// previous one wrote.
	commitMu sync.Mutex
}

func NewLedger(ownerID uuid.UUID, snapshot *Snapshot) *Ledger {
	if snapshot == nil {
		snapshot = NewSnapshot()
	}
	return &Ledger{
		ownerID:  ownerID,
		snapshot: snapshot,
		lists:    make(map[uuid.UUID]*list),
	}
}

func (l *Ledger) OwnerID() uuid.UUID { return l.ownerID }

func (l *Ledger) Snapshot() *Snapshot { return l.snapshot }

func (l *Ledger) reservedLocked(partID uuid.UUID) int {
	total := 0
	for _, lst := range l.lists {
		for _, e := range lst.Entries {
			if e.PartID == partID {
				total += e.Reserved()
			}
		}
	}
	return total
}

func (l *Ledger) availableLocked(partID uuid.UUID) int {
	available := l.snapshot.OnHand(partID) - l.reservedLocked(partID)
	if available < 0 {
		return 0
	}
	return available
}

// AvailableQuantity is what is still free to select for partID after every
// open list, including the caller's own, has been accounted for.
func (l *Ledger) AvailableQuantity(partID uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.availableLocked(partID)
}

// Reserved is the total pending hold on partID across all lists.
func (l *Ledger) Reserved(partID uuid.UUID) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.reservedLocked(partID)
}

// ValidateChange checks whether an entry currently holding
// currentlyReserved units may move to requested units.
func (l *Ledger) ValidateChange(partID uuid.UUID, requested, currentlyReserved int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.validateLocked(partID, requested, currentlyReserved, 0)
}

func (l *Ledger) maxSelectableLocked(partID uuid.UUID, currentlyReserved, baseline int) int {
	return baseline + l.availableLocked(partID) + currentlyReserved
}

func (l *Ledger) validateLocked(partID uuid.UUID, requested, currentlyReserved, baseline int) error {
	if requested < 1 {
		return fmt.Errorf("part %s: %w", partID, common.ErrInvalidQuantity)
	}
	maxSelectable := l.maxSelectableLocked(partID, currentlyReserved, baseline)
	if requested > maxSelectable {
		part, _ := l.snapshot.Get(partID)
		return &common.StockError{
			Err:       common.ErrOutOfStock,
			PartID:    partID,
			PartName:  part.Name,
			Requested: requested,
			Limit:     maxSelectable,
		}
	}
	return nil
}

func (l *Ledger) listLocked(listID uuid.UUID) (*list, error) {
	lst, ok := l.lists[listID]
	if !ok {
		return nil, fmt.Errorf("selection list %s: %w", listID, common.ErrNotFound)
	}
	return lst, nil
}

// editableLocked is listLocked for mutations. A list being committed
// cannot change until the commit finishes.
func (l *Ledger) editableLocked(listID uuid.UUID) (*list, error) {
	lst, err := l.listLocked(listID)
	if err != nil {
		return nil, err
	}
	if lst.committing {
		return nil, fmt.Errorf("selection list %s: %w", listID, common.ErrListCommitting)
	}
	return lst, nil
}

// CreateList opens a new selection list.
func (l *Ledger) CreateList(spec ListSpec) (models.SelectionList, error) {
	scope := spec.Scope
	if scope == "" {
		scope = models.ListScopeJob
	}
	if scope != models.ListScopeJob && scope != models.ListScopeAssignment {
		return models.SelectionList{}, common.NewValidationError("scope", "must be either 'job' or 'assignment'")
	}

	lst := &list{
		SelectionList: models.SelectionList{
			ID:        uuid.New(),
			OwnerID:   l.ownerID,
			JobID:     spec.JobID,
			Scope:     scope,
			Label:     spec.Label,
			Entries:   make([]models.SelectionEntry, 0, len(spec.Saved)),
			CreatedAt: time.Now(),
		},
		released: make(map[uuid.UUID]int),
	}

	for i, saved := range spec.Saved {
		if saved.Quantity < 1 {
			return models.SelectionList{}, common.NewValidationError(fmt.Sprintf("saved[%d].quantity", i), "must be at least 1")
		}
		if lst.find(saved.PartID) >= 0 {
			return models.SelectionList{}, fmt.Errorf("saved part %s: %w", saved.PartID, common.ErrDuplicatePart)
		}
		saved.Baseline = saved.Quantity
		saved.SGST.Percentage = models.ClampPercent(saved.SGST.Percentage)
		saved.CGST.Percentage = models.ClampPercent(saved.CGST.Percentage)
		lst.Entries = append(lst.Entries, saved)
	}

	l.mu.Lock()
	l.lists[lst.ID] = lst
	l.mu.Unlock()

	return lst.copy(), nil
}

// AddEntry puts a new part into a list.
func (l *Ledger) AddEntry(listID uuid.UUID, in EntryInput) (models.SelectionEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lst, err := l.editableLocked(listID)
	if err != nil {
		return models.SelectionEntry{}, err
	}
	part, ok := l.snapshot.Get(in.PartID)
	if !ok {
		return models.SelectionEntry{}, fmt.Errorf("part %s: %w", in.PartID, common.ErrNotFound)
	}
	if lst.find(in.PartID) >= 0 {
		return models.SelectionEntry{}, fmt.Errorf("part %s: %w", part.Name, common.ErrDuplicatePart)
	}
	if part.QuantityOnHand <= 0 {
		return models.SelectionEntry{}, &common.StockError{
			Err:       common.ErrOutOfStock,
			PartID:    part.ID,
			PartName:  part.Name,
			Requested: in.Quantity,
			Limit:     0,
		}
	}
	if err := l.validateLocked(in.PartID, in.Quantity, 0, 0); err != nil {
		return models.SelectionEntry{}, err
	}

	entry := models.SelectionEntry{PartID: in.PartID, Quantity: in.Quantity}
	if part.TaxPercentage != nil {
		entry.SGST, entry.CGST = billing.SplitLinePercentage(*part.TaxPercentage)
	}
	applyTax(&entry, in.SGST, in.CGST)

	lst.Entries = append(lst.Entries, entry)
	return entry, nil
}

// UpdateEntry changes quantity and/or tax toggles of an existing entry.
func (l *Ledger) UpdateEntry(listID, partID uuid.UUID, upd EntryUpdate) (models.SelectionEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.updateLocked(listID, partID, func(models.SelectionEntry) EntryUpdate { return upd })
}

// AdjustEntry moves an entry's quantity by step, as the +/- controls do.
func (l *Ledger) AdjustEntry(listID, partID uuid.UUID, step int) (models.SelectionEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.updateLocked(listID, partID, func(current models.SelectionEntry) EntryUpdate {
		next := current.Quantity + step
		return EntryUpdate{Quantity: &next}
	})
}

// updateLocked applies the update derived from the entry's current state,
// so read and write happen under one hold of l.mu.
func (l *Ledger) updateLocked(listID, partID uuid.UUID, derive func(models.SelectionEntry) EntryUpdate) (models.SelectionEntry, error) {
	lst, err := l.editableLocked(listID)
	if err != nil {
		return models.SelectionEntry{}, err
	}
	idx := lst.find(partID)
	if idx < 0 {
		return models.SelectionEntry{}, fmt.Errorf("part %s in list %s: %w", partID, listID, common.ErrNotFound)
	}

	entry := lst.Entries[idx]
	upd := derive(entry)
	if upd.Quantity != nil {
		if err := l.validateLocked(partID, *upd.Quantity, entry.Reserved(), entry.Baseline); err != nil {
			return models.SelectionEntry{}, err
		}
		entry.Quantity = *upd.Quantity
	}
	applyTax(&entry, upd.SGST, upd.CGST)

	lst.Entries[idx] = entry
	return entry, nil
}

func applyTax(entry *models.SelectionEntry, sgst, cgst *models.LineTax) {
	if sgst != nil {
		entry.SGST = models.LineTax{Enabled: sgst.Enabled, Percentage: models.ClampPercent(sgst.Percentage)}
	}
	if cgst != nil {
		entry.CGST = models.LineTax{Enabled: cgst.Enabled, Percentage: models.ClampPercent(cgst.Percentage)}
	}
}

// RemoveEntry drops a part from a list. For a saved entry the already
// committed quantity is returned to stock on the next commit.
func (l *Ledger) RemoveEntry(listID, partID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	lst, err := l.editableLocked(listID)
	if err != nil {
		return err
	}
	idx := lst.find(partID)
	if idx < 0 {
		return fmt.Errorf("part %s in list %s: %w", partID, listID, common.ErrNotFound)
	}
	if baseline := lst.Entries[idx].Baseline; baseline > 0 {
		lst.released[partID] += baseline
	}
	lst.Entries = append(lst.Entries[:idx], lst.Entries[idx+1:]...)
	return nil
}

// Discard throws a list away. Nothing was written to inventory, so there
// is nothing to undo.
func (l *Ledger) Discard(listID uuid.UUID) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, err := l.editableLocked(listID); err != nil {
		return err
	}
	delete(l.lists, listID)
	return nil
}

func (l *Ledger) Get(listID uuid.UUID) (models.SelectionList, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	lst, err := l.listLocked(listID)
	if err != nil {
		return models.SelectionList{}, err
	}
	return lst.copy(), nil
}

// Lists returns every open list, oldest first.
func (l *Ledger) Lists() []models.SelectionList {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]models.SelectionList, 0, len(l.lists))
	for _, lst := range l.lists {
		out = append(out, lst.copy())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// View renders a list with prices, taxes and per-entry limits.
func (l *Ledger) View(listID uuid.UUID) (models.SelectionView, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	lst, err := l.listLocked(listID)
	if err != nil {
		return models.SelectionView{}, err
	}

	view := models.SelectionView{SelectionList: lst.copy(), Lines: make([]models.SelectionLine, 0, len(lst.Entries))}
	partsTotal := money.Zero()
	for _, e := range lst.Entries {
		part, known := l.snapshot.Get(e.PartID)
		name := part.Name
		if !known {
			name = "Unknown part"
		}
		maxSelectable := l.maxSelectableLocked(e.PartID, e.Reserved(), e.Baseline)
		line := models.SelectionLine{
			PartID:         e.PartID,
			Name:           name,
			PartNumber:     part.PartNumber,
			Quantity:       e.Quantity,
			Baseline:       e.Baseline,
			PricePerUnit:   part.PricePerUnit,
			SGST:           e.SGST,
			CGST:           e.CGST,
			LineTax:        billing.CombinedLineTax(part.PricePerUnit, e.Quantity, e.SGST, e.CGST),
			LineTotal:      billing.LineTotal(part.PricePerUnit, e.Quantity, e.SGST, e.CGST),
			QuantityOnHand: part.QuantityOnHand,
			MaxSelectable:  maxSelectable,
			CanIncrease:    known && e.Quantity < maxSelectable,
		}
		partsTotal = partsTotal.Add(line.LineTotal)
		view.Lines = append(view.Lines, line)
	}
	view.PartsTotal = partsTotal
	return view, nil
}

// Candidates lists parts an "add part" picker may offer. Parts with no
// stock on hand are never offered; parts already in the list are skipped.
// A zero listID means no list context.
func (l *Ledger) Candidates(listID uuid.UUID) ([]models.Candidate, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var lst *list
	if listID != uuid.Nil {
		var err error
		if lst, err = l.listLocked(listID); err != nil {
			return nil, err
		}
	}

	var out []models.Candidate
	for _, p := range l.snapshot.All() {
		if p.QuantityOnHand <= 0 {
			continue
		}
		if lst != nil && lst.find(p.ID) >= 0 {
			continue
		}
		out = append(out, models.Candidate{
			PartID:         p.ID,
			Name:           p.Name,
			PartNumber:     p.PartNumber,
			PricePerUnit:   p.PricePerUnit,
			QuantityOnHand: p.QuantityOnHand,
			Available:      l.availableLocked(p.ID),
		})
	}
	return out, nil
}

// Availability reports on-hand, reserved and available for every part in
// the snapshot.
func (l *Ledger) Availability() []models.PartAvailability {
	l.mu.Lock()
	defer l.mu.Unlock()

	parts := l.snapshot.All()
	out := make([]models.PartAvailability, 0, len(parts))
	for _, p := range parts {
		out = append(out, models.PartAvailability{
			Part:      p,
			Reserved:  l.reservedLocked(p.ID),
			Available: l.availableLocked(p.ID),
		})
	}
	return out
}
