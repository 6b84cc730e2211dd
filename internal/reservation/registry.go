package reservation

import (
	"sync"

	"github.com/google/uuid"
)

// Registry hands out one Ledger per owner.
type Registry struct {
	mu      sync.Mutex
	ledgers map[uuid.UUID]*Ledger
}

func NewRegistry() *Registry {
	return &Registry{ledgers: make(map[uuid.UUID]*Ledger)}
}

// Ledger returns the owner's ledger, creating an empty one on first use.
func (r *Registry) Ledger(ownerID uuid.UUID) *Ledger {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.ledgers[ownerID]
	if !ok {
		l = NewLedger(ownerID, NewSnapshot())
		r.ledgers[ownerID] = l
	}
	return l
}

func (r *Registry) Lookup(ownerID uuid.UUID) (*Ledger, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.ledgers[ownerID]
	return l, ok
}

func (r *Registry) Owners() []uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]uuid.UUID, 0, len(r.ledgers))
	for id := range r.ledgers {
		out = append(out, id)
	}
	return out
}
