package store

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Debabrta24/AgreesmartFinalSIH/internal/farm"
)

// MemoryTable is a concurrency-safe in-memory implementation of farm.Table.
type MemoryTable[T any] struct {
	mu sync.RWMutex

	rows  map[string]T
	order []string // insertion order of ids

	now     func() time.Time
	stamp   func(rec *T, id string, now time.Time)
	touch   func(rec *T, now time.Time)
	reverse bool
}

// Get returns the record with the given id.
func (t *MemoryTable[T]) Get(id string) (T, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	rec, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, farm.ErrNotFound
	}
	return rec, nil
}

// List returns matching records in insertion order, or newest first for
// tables built that way. A nil match returns everything.
func (t *MemoryTable[T]) List(match func(T) bool) []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]T, 0, len(t.order))
	for i := range t.order {
		idx := i
		if t.reverse {
			idx = len(t.order) - 1 - i
		}
		rec := t.rows[t.order[idx]]
		if match == nil || match(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// Create assigns an id and timestamp to rec, stores it and returns the stored copy.
func (t *MemoryTable[T]) Create(rec T) T {
	id := uuid.NewString()
	now := t.now().UTC()
	t.stamp(&rec, id, now)

	t.mu.Lock()
	defer t.mu.Unlock()

	t.rows[id] = rec
	t.order = append(t.order, id)
	return rec
}

// Update applies patch to the stored record. The id cannot be changed.
func (t *MemoryTable[T]) Update(id string, patch func(*T)) (T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	rec, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, farm.ErrNotFound
	}
	patch(&rec)
	now := t.now().UTC()
	if t.touch != nil {
		t.touch(&rec, now)
	}
	// stamp only fills zero fields, so this just pins the id
	t.stamp(&rec, id, now)
	t.rows[id] = rec
	return rec, nil
}

// Delete removes a record.
func (t *MemoryTable[T]) Delete(id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.rows[id]; !ok {
		return farm.ErrNotFound
	}
	t.removeLocked(id)
	return nil
}

// Len returns the number of stored records.
func (t *MemoryTable[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

func (t *MemoryTable[T]) removeLocked(id string) {
	delete(t.rows, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			return
		}
	}
}

func newTable[T any](now func() time.Time, stamp func(rec *T, id string, now time.Time)) *MemoryTable[T] {
	return &MemoryTable[T]{
		rows:  make(map[string]T),
		now:   now,
		stamp: stamp,
	}
}

// Option configures a MemoryStore.
type Option func(*MemoryStore)

// WithClock overrides the clock used to stamp records.
func WithClock(now func() time.Time) Option {
	return func(s *MemoryStore) { s.now = now }
}

// MemoryStore keeps every entity in process memory. It implements farm.Store.
// Records are only removed through Delete; weather history is never pruned.
type MemoryStore struct {
	now func() time.Time

	users   *MemoryTable[farm.User]
	weather *MemoryTable[farm.WeatherSnapshot]
	prices  *MemoryTable[farm.MarketPrice]
	crops   *MemoryTable[farm.CropRecommendation]
	pests   *MemoryTable[farm.PestDetection]
	iot     *MemoryTable[farm.IoTReading]
	posts   *MemoryTable[farm.CommunityPost]
	catalog *MemoryTable[farm.CatalogItem]
	cart    *MemoryTable[farm.CartItem]
	orders  *MemoryTable[farm.Order]
}

var _ farm.Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	s := &MemoryStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	now := func() time.Time { return s.now() }

	s.users = newTable(now, func(u *farm.User, id string, at time.Time) {
		u.ID = id
		if u.CreatedAt.IsZero() {
			u.CreatedAt = at
		}
	})
	s.weather = newTable(now, func(w *farm.WeatherSnapshot, id string, at time.Time) {
		w.ID = id
		if w.UpdatedAt.IsZero() {
			w.UpdatedAt = at
		}
	})
	s.prices = newTable(now, func(p *farm.MarketPrice, id string, at time.Time) {
		p.ID = id
		if p.UpdatedAt.IsZero() {
			p.UpdatedAt = at
		}
	})
	s.crops = newTable(now, func(c *farm.CropRecommendation, id string, at time.Time) {
		c.ID = id
		if c.CreatedAt.IsZero() {
			c.CreatedAt = at
		}
	})
	s.pests = newTable(now, func(p *farm.PestDetection, id string, at time.Time) {
		p.ID = id
		if p.CreatedAt.IsZero() {
			p.CreatedAt = at
		}
	})
	s.iot = newTable(now, func(r *farm.IoTReading, id string, at time.Time) {
		r.ID = id
		if r.Timestamp.IsZero() {
			r.Timestamp = at
		}
	})
	s.posts = newTable(now, func(p *farm.CommunityPost, id string, at time.Time) {
		p.ID = id
		if p.CreatedAt.IsZero() {
			p.CreatedAt = at
		}
		if p.Tags == nil {
			p.Tags = []string{}
		}
	})
	s.posts.reverse = true
	s.catalog = newTable(now, func(c *farm.CatalogItem, id string, at time.Time) {
		c.ID = id
		if c.CreatedAt.IsZero() {
			c.CreatedAt = at
		}
	})
	s.cart = newTable(now, func(c *farm.CartItem, id string, at time.Time) {
		c.ID = id
		if c.UpdatedAt.IsZero() {
			c.UpdatedAt = at
		}
	})
	s.cart.touch = func(c *farm.CartItem, at time.Time) { c.UpdatedAt = at }
	s.orders = newTable(now, func(o *farm.Order, id string, at time.Time) {
		o.ID = id
		if o.CreatedAt.IsZero() {
			o.CreatedAt = at
		}
		if o.Status == "" {
			o.Status = farm.OrderPending
		}
	})
	return s
}

func (s *MemoryStore) Users() farm.Table[farm.User]                             { return s.users }
func (s *MemoryStore) Weather() farm.Table[farm.WeatherSnapshot]                { return s.weather }
func (s *MemoryStore) MarketPrices() farm.Table[farm.MarketPrice]               { return s.prices }
func (s *MemoryStore) CropRecommendations() farm.Table[farm.CropRecommendation] { return s.crops }
func (s *MemoryStore) PestDetections() farm.Table[farm.PestDetection]           { return s.pests }
func (s *MemoryStore) IoTReadings() farm.Table[farm.IoTReading]                 { return s.iot }
func (s *MemoryStore) CommunityPosts() farm.Table[farm.CommunityPost]           { return s.posts }
func (s *MemoryStore) Catalog() farm.Table[farm.CatalogItem]                    { return s.catalog }
func (s *MemoryStore) CartItems() farm.Table[farm.CartItem]                     { return s.cart }
func (s *MemoryStore) Orders() farm.Table[farm.Order]                           { return s.orders }
