package messaging

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store used by unit tests and local runs
// without a database. Semantics mirror the Mongo-backed store: assigned
// ids, filter matching, partial updates with matched counts, and
// newest-first listing by creation time.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]*Message
	// order preserves insertion order as the tie-break for equal
	// creation timestamps.
	order []string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]*Message)}
}

func (s *MemoryStore) Insert(_ context.Context, m *Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	c := m.clone()
	c.ID = id
	s.recs[id] = c
	s.order = append(s.order, id)
	return id, nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.recs[id]
	if !ok {
		return nil, ErrNoRecord
	}
	return m.clone(), nil
}

func (s *MemoryStore) List(_ context.Context, f Filter) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Message
	// walk newest-inserted first, then stable-sort on creation time
	for i := len(s.order) - 1; i >= 0; i-- {
		if m, ok := s.recs[s.order[i]]; ok && matches(m, f) {
			out = append(out, m.clone())
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryStore) Update(_ context.Context, f Filter, u Update) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched int64
	for _, m := range s.recs {
		if !matches(m, f) {
			continue
		}
		matched++
		if u.Content != nil {
			m.Content = *u.Content
		}
		if u.Recipient != nil {
			m.Recipient = *u.Recipient
		}
		if u.IsDraft != nil {
			m.IsDraft = *u.IsDraft
		}
		if u.DraftedAt != nil {
			m.DraftedAt = *u.DraftedAt
		}
		if u.IsSent != nil {
			m.IsSent = *u.IsSent
		}
		if u.SentAt != nil {
			m.SentAt = *u.SentAt
		}
		if u.MirrorID != nil {
			m.MirrorID = *u.MirrorID
		}
	}
	return matched, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.recs[id]; !ok {
		return 0, nil
	}
	delete(s.recs, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

func matches(m *Message, f Filter) bool {
	if f.ID != nil && m.ID != *f.ID {
		return false
	}
	if f.Sender != nil && m.Sender != *f.Sender {
		return false
	}
	if f.Recipient != nil && m.Recipient != *f.Recipient {
		return false
	}
	if f.IsDraft != nil && m.IsDraft != *f.IsDraft {
		return false
	}
	if f.IsSent != nil && m.IsSent != *f.IsSent {
		return false
	}
	if f.IsReceived != nil && m.IsReceived != *f.IsReceived {
		return false
	}
	return true
}
