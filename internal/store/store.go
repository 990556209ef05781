package store

import (
	"container/list"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"
)

type slot struct {
	item Item
	elem *list.Element // position in insertion order
}

// Store is an in-memory key space of string and list values.
// Every operation runs under one exclusive lock; expiration is lazy.
type Store struct {
	mu     sync.Mutex
	items  map[string]*slot
	order  *list.List
	now    func() time.Time
	logger *zap.Logger
}

// Option configures a Store
type Option func(*Store)

// WithClock replaces the wall clock used for expiration checks
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger used for expiration debug output
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a new Store
func New(opts ...Option) *Store {
	s := &Store{
		items:  make(map[string]*slot),
		order:  list.New(),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// alive reports whether key exists and has not expired, removing it if it has.
// Callers must hold s.mu.
func (s *Store) alive(key string) (*slot, bool) {
	sl, found := s.items[key]
	if !found {
		return nil, false
	}
	if sl.item.expired(s.now()) {
		s.remove(key, sl)
		s.logger.Debug("key expired", zap.String("key", key))
		return nil, false
	}
	return sl, true
}

func (s *Store) remove(key string, sl *slot) {
	s.order.Remove(sl.elem)
	delete(s.items, key)
}

func (s *Store) put(key string, item Item) {
	if sl, found := s.items[key]; found {
		sl.item = item
		return
	}
	s.items[key] = &slot{item: item, elem: s.order.PushBack(key)}
}

// Set stores a string value with no expiration
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sl, ok := s.alive(key); ok && sl.item.Value.kind != KindString {
		return ErrWrongType
	}
	s.put(key, Item{Value: StringValue(value)})
	return nil
}

// Get returns the string stored at key and whether it was found
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.alive(key)
	if !ok {
		return "", false, nil
	}
	if sl.item.Value.kind != KindString {
		return "", false, ErrWrongType
	}
	return sl.item.Value.str, true, nil
}

// Len returns the length of the list at key, 0 when the key is absent
func (s *Store) Len(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.alive(key)
	if !ok {
		return 0, nil
	}
	if sl.item.Value.kind != KindList {
		return 0, ErrWrongType
	}
	return len(sl.item.Value.list), nil
}

// RPush appends values to the list at key, creating it if needed, and returns the new length
func (s *Store) RPush(key string, values ...string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.alive(key)
	if !ok {
		s.put(key, Item{Value: ListValue()})
		sl = s.items[key]
	} else if sl.item.Value.kind != KindList {
		return 0, ErrWrongType
	}
	sl.item.Value.list = append(sl.item.Value.list, values...)
	return len(sl.item.Value.list), nil
}

// LPop removes and returns the first element of the list at key
func (s *Store) LPop(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.alive(key)
	if !ok {
		return "", false, nil
	}
	if sl.item.Value.kind != KindList {
		return "", false, ErrWrongType
	}
	l := sl.item.Value.list
	if len(l) == 0 {
		return "", false, nil
	}
	head := l[0]
	sl.item.Value.list = l[1:]
	return head, true, nil
}

// Range returns the inclusive slice [start, stop] of the list at key.
// stop is clamped to the last index; an absent key yields an empty result.
func (s *Store) Range(key string, start, stop int) ([]string, error) {
	if start < 0 || stop < 0 {
		return nil, indexOutOfRange("Negative indices are not allowed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.alive(key)
	if !ok {
		return nil, nil
	}
	if sl.item.Value.kind != KindList {
		return nil, ErrWrongType
	}

	l := sl.item.Value.list
	if start > len(l)-1 {
		return nil, indexOutOfRange("Start index %d is out of bounds for list '%s' of length %d",
			start, key, len(l))
	}
	if stop > len(l)-1 {
		stop = len(l) - 1
	}
	if start > stop {
		return nil, indexOutOfRange("Start index %d cannot be greater than stop index %d",
			start, stop)
	}

	out := make([]string, stop-start+1)
	copy(out, l[start:stop+1])
	return out, nil
}

// Keys purges every expired key and returns the rest in insertion order
func (s *Store) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	keys := make([]string, 0, len(s.items))
	for e := s.order.Front(); e != nil; {
		next := e.Next()
		key := e.Value.(string)
		if sl := s.items[key]; sl.item.expired(now) {
			s.remove(key, sl)
		} else {
			keys = append(keys, key)
		}
		e = next
	}
	return keys
}

// Exists reports whether key is alive
func (s *Store) Exists(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.alive(key)
	return ok
}

// Delete removes a key and reports whether it was alive
func (s *Store) Delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.alive(key)
	if !ok {
		return false
	}
	s.remove(key, sl)
	return true
}

// Flush removes every key
func (s *Store) Flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]*slot)
	s.order.Init()
}

// maxExpireSeconds is the longest expiration a time.Duration can hold.
const maxExpireSeconds = math.MaxInt64 / int64(time.Second)

// Expire installs an expiration seconds from now if the key has none.
// If one is already set it is left untouched and the remaining whole seconds are returned.
func (s *Store) Expire(key string, seconds int) (remaining int, installed bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.alive(key)
	if !ok {
		return 0, false, keyNotFound(key)
	}
	now := s.now()
	if sl.item.ExpiresAt.IsZero() {
		if int64(seconds) > maxExpireSeconds {
			seconds = int(maxExpireSeconds)
		}
		sl.item.ExpiresAt = now.Add(time.Duration(seconds) * time.Second)
		return seconds, true, nil
	}
	return wholeSeconds(sl.item.ExpiresAt.Sub(now)), false, nil
}

// TTL returns -2 for an absent key, -1 for a key without expiration,
// otherwise the remaining whole seconds
func (s *Store) TTL(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.alive(key)
	if !ok {
		return -2
	}
	if sl.item.ExpiresAt.IsZero() {
		return -1
	}
	return wholeSeconds(sl.item.ExpiresAt.Sub(s.now()))
}

func wholeSeconds(d time.Duration) int {
	return int(d / time.Second)
}
