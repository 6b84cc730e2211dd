package reservation

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"garagebill/internal/models"
)

// Snapshot is the last-fetched authoritative inventory for one owner. It is
// shared by every selection list of that owner and replaced wholesale on
// refresh.
type Snapshot struct {
	mu        sync.RWMutex
	parts     map[uuid.UUID]models.Part
	order     []uuid.UUID
	fetchedAt time.Time
}

func NewSnapshot() *Snapshot {
	return &Snapshot{parts: make(map[uuid.UUID]models.Part)}
}

// Replace swaps in a freshly fetched part list, keeping its order.
func (s *Snapshot) Replace(parts []models.Part) {
	next := make(map[uuid.UUID]models.Part, len(parts))
	order := make([]uuid.UUID, 0, len(parts))
	for _, p := range parts {
		if _, seen := next[p.ID]; !seen {
			order = append(order, p.ID)
		}
		next[p.ID] = p
	}

	s.mu.Lock()
	s.parts = next
	s.order = order
	s.fetchedAt = time.Now()
	s.mu.Unlock()
}

// Upsert records a single part, e.g. one just created or re-fetched.
func (s *Snapshot) Upsert(p models.Part) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.parts[p.ID]; !ok {
		s.order = append(s.order, p.ID)
	}
	s.parts[p.ID] = p
}

func (s *Snapshot) Remove(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.parts[id]; !ok {
		return
	}
	delete(s.parts, id)
	for i, pid := range s.order {
		if pid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Snapshot) Get(id uuid.UUID) (models.Part, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.parts[id]
	return p, ok
}

// OnHand is 0 for parts the snapshot does not know.
func (s *Snapshot) OnHand(id uuid.UUID) int {
	p, _ := s.Get(id)
	return p.QuantityOnHand
}

func (s *Snapshot) All() []models.Part {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Part, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.parts[id])
	}
	return out
}

func (s *Snapshot) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.parts)
}

// FetchedAt is the zero time until the first Replace.
func (s *Snapshot) FetchedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fetchedAt
}
