package registration

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"eca-system/internal/matching"
)

// Hold is a registration withheld at the duplicate prompt. The keyed entries
// are kept so the operator can resolve the flagged pair and then finish the
// registration without re-encoding both forms.
type Hold struct {
	ID        string                  `json:"id"`
	First     Entry                   `json:"first"`
	Second    Entry                   `json:"second"`
	AdminID   int                     `json:"admin_id"`
	Hits      []matching.DuplicateHit `json:"hits"`
	CreatedAt time.Time               `json:"created_at"`
}

// HoldStore is in-memory on purpose: a hold is a desk-session artifact, not
// registry data. Anything older than the TTL is presumed abandoned.
type HoldStore struct {
	mu    sync.RWMutex
	holds map[string]*Hold
	ttl   time.Duration
	now   func() time.Time
}

func NewHoldStore(ttl time.Duration) *HoldStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &HoldStore{
		holds: make(map[string]*Hold),
		ttl:   ttl,
		now:   time.Now,
	}
}

// Save records a withheld registration and returns its hold.
func (s *HoldStore) Save(first, second Entry, adminID int, hits []matching.DuplicateHit) *Hold {
	h := &Hold{
		ID:        uuid.NewString(),
		First:     first,
		Second:    second,
		AdminID:   adminID,
		Hits:      hits,
		CreatedAt: s.now(),
	}
	s.mu.Lock()
	s.purgeLocked()
	s.holds[h.ID] = h
	s.mu.Unlock()
	return h
}

func (s *HoldStore) Get(id string) (*Hold, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.holds[id]
	if !ok || s.expired(h) {
		return nil, false
	}
	return h, true
}

func (s *HoldStore) Delete(id string) {
	s.mu.Lock()
	delete(s.holds, id)
	s.mu.Unlock()
}

// List returns live holds, oldest first.
func (s *HoldStore) List() []*Hold {
	s.mu.Lock()
	s.purgeLocked()
	out := make([]*Hold, 0, len(s.holds))
	for _, h := range s.holds {
		out = append(out, h)
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (s *HoldStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purgeLocked()
	return len(s.holds)
}

func (s *HoldStore) expired(h *Hold) bool {
	return s.now().Sub(h.CreatedAt) > s.ttl
}

func (s *HoldStore) purgeLocked() {
	for id, h := range s.holds {
		if s.expired(h) {
			delete(s.holds, id)
		}
	}
}
