// Package memory provides an in-memory LRU implementation of qa.Cache.
// Entries are lost when the process restarts. An optional TTL expires
// answers produced by a backend whose model may change under it.
package memory

import (
	"container/list"
	"sync"
	"time"

	"github.com/rhuss/qaserve/pkg/api"
	"github.com/rhuss/qaserve/pkg/qa"
)

// entry holds a cached answer and its LRU position.
type entry struct {
	key      string
	result   api.AnswerResult
	storedAt time.Time
	lruElem  *list.Element
}

// Store is an in-memory answer cache with LRU eviction.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry
	lruList *list.List // front = most recently used, back = least recently used
	maxSize int
	ttl     time.Duration // 0 = no expiry
	now     func() time.Time
}

// Ensure Store implements qa.Cache at compile time.
var _ qa.Cache = (*Store)(nil)

// New creates a cache holding at most maxSize answers. maxSize must be
// positive; callers disable caching by not installing a cache at all.
func New(maxSize int, ttl time.Duration) *Store {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Store{
		entries: make(map[string]*entry),
		lruList: list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the cached answer for key and marks it as recently used.
func (s *Store) Get(key string) (*api.AnswerResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	if s.expired(e) {
		s.remove(e)
		return nil, false
	}

	s.lruList.MoveToFront(e.lruElem)
	out := e.result
	return &out, true
}

// Put stores a copy of result under key, evicting the least recently used
// entry when the cache is full.
func (s *Store) Put(key string, result *api.AnswerResult) {
	if result == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[key]; ok {
		e.result = *result
		e.storedAt = s.now()
		s.lruList.MoveToFront(e.lruElem)
		return
	}

	for len(s.entries) >= s.maxSize {
		s.evictOldest()
	}

	e := &entry{key: key, result: *result, storedAt: s.now()}
	e.lruElem = s.lruList.PushFront(e)
	s.entries[key] = e
}

// Len returns the number of cached answers.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *Store) expired(e *entry) bool {
	return s.ttl > 0 && s.now().Sub(e.storedAt) >= s.ttl
}

func (s *Store) evictOldest() {
	back := s.lruList.Back()
	if back == nil {
		return
	}
	s.remove(back.Value.(*entry))
}

func (s *Store) remove(e *entry) {
	s.lruList.Remove(e.lruElem)
	delete(s.entries, e.key)
}
