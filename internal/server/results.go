package server

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"

	"docsum/internal/domain"
)

const (
	resultStoreMaxEntries = 256
	resultStoreTTL        = time.Hour
)

// resultStore keeps summarization results for the current session so the
// presentation layer can re-fetch them by ID. Bounded LRU with expiry;
// nothing survives the process.
type resultStore struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List
	maxEntries int
	ttl        time.Duration
}

type resultStoreEntry struct {
	id        string
	result    *domain.Result
	expiresAt time.Time
}

func newResultStore(maxEntries int, ttl time.Duration) *resultStore {
	if maxEntries <= 0 || ttl <= 0 {
		return nil
	}

	return &resultStore{
		entries:    make(map[string]*list.Element, maxEntries),
		order:      list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

func (s *resultStore) put(result *domain.Result, now time.Time) string {
	if s == nil || result == nil {
		return ""
	}

	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	elem := s.order.PushFront(&resultStoreEntry{
		id:        id,
		result:    result,
		expiresAt: now.Add(s.ttl),
	})
	s.entries[id] = elem

	s.evictExpiredLocked(now)
	s.enforceSizeLimitLocked()

	return id
}

func (s *resultStore) get(id string, now time.Time) (*domain.Result, bool) {
	if s == nil || id == "" {
		return nil, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[id]
	if !ok {
		return nil, false
	}

	entry, ok := elem.Value.(*resultStoreEntry)
	if !ok {
		return nil, false
	}

	if now.After(entry.expiresAt) {
		s.removeElement(elem)

		return nil, false
	}

	s.order.MoveToFront(elem)

	return entry.result, true
}

func (s *resultStore) evictExpiredLocked(now time.Time) {
	for elem := s.order.Back(); elem != nil; {
		prev := elem.Prev()
		entry, ok := elem.Value.(*resultStoreEntry)
		if !ok {
			continue
		}

		if now.After(entry.expiresAt) {
			s.removeElement(elem)
		}
		elem = prev
	}
}

func (s *resultStore) enforceSizeLimitLocked() {
	for len(s.entries) > s.maxEntries {
		elem := s.order.Back()
		if elem == nil {
			return
		}
		s.removeElement(elem)
	}
}

func (s *resultStore) removeElement(elem *list.Element) {
	entry, ok := elem.Value.(*resultStoreEntry)
	if !ok {
		return
	}

	delete(s.entries, entry.id)
	s.order.Remove(elem)
}
