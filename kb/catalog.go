package kb

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/signalsfoundry/satobs/model"
)

// ErrExists is returned by Add when the catalog number is already present.
var ErrExists = errors.New("kb: element set already exists")

// EventType indicates what kind of change happened in the catalog.
type EventType int

const (
	EventAdded EventType = iota
	EventReplaced
	EventRemoved
)

func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "added"
	case EventReplaced:
		return "replaced"
	case EventRemoved:
		return "removed"
	default:
		return fmt.Sprintf("EventType(%d)", int(t))
	}
}

// Event is emitted to subscribers when the catalog changes. Previous is set
// for replacements and removals.
type Event struct {
	Type       EventType
	ElementSet *model.ElementSet
	Previous   *model.ElementSet
}

// MetricsRecorder receives the catalog size after every mutation.
type MetricsRecorder interface {
	SetCatalogEntries(n int)
}

// Catalog is an in-memory, thread-safe store of element sets keyed by
// catalog number. Stored element sets are shared read-only.
type Catalog struct {
	mu sync.RWMutex

	sets    map[int]*model.ElementSet
	subs    map[int]func(Event)
	nextSub int
	metrics MetricsRecorder
}

// NewCatalog constructs an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		sets: make(map[int]*model.ElementSet),
		subs: make(map[int]func(Event)),
	}
}

// SetMetricsRecorder installs m and reports the current size to it.
func (c *Catalog) SetMetricsRecorder(m MetricsRecorder) {
	c.mu.Lock()
	c.metrics = m
	n := len(c.sets)
	c.mu.Unlock()
	if m != nil {
		m.SetCatalogEntries(n)
	}
}

// Add stores a new element set. It returns ErrExists if the catalog number
// is already present.
func (c *Catalog) Add(es *model.ElementSet) error {
	if es == nil {
		return errors.New("kb: nil element set")
	}
	c.mu.Lock()
	if _, exists := c.sets[es.CatalogNumber]; exists {
		c.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrExists, es.CatalogNumber)
	}
	c.sets[es.CatalogNumber] = es
	c.commit(Event{Type: EventAdded, ElementSet: es})
	return nil
}

// Upsert stores es unless the catalog already holds an element set for the
// same satellite with the same or a later epoch. It reports whether the
// catalog changed.
func (c *Catalog) Upsert(es *model.ElementSet) bool {
	if es == nil {
		return false
	}
	c.mu.Lock()
	prev, exists := c.sets[es.CatalogNumber]
	if exists && !es.Epoch.After(prev.Epoch) {
		c.mu.Unlock()
		return false
	}
	c.sets[es.CatalogNumber] = es
	ev := Event{Type: EventAdded, ElementSet: es}
	if exists {
		ev = Event{Type: EventReplaced, ElementSet: es, Previous: prev}
	}
	c.commit(ev)
	return true
}

// Remove deletes the element set for catalogNumber and reports whether one
// was present.
func (c *Catalog) Remove(catalogNumber int) bool {
	c.mu.Lock()
	prev, ok := c.sets[catalogNumber]
	if !ok {
		c.mu.Unlock()
		return false
	}
	delete(c.sets, catalogNumber)
	c.commit(Event{Type: EventRemoved, Previous: prev})
	return true
}

// commit must be called with c.mu held; it releases the lock, then notifies
// subscribers and the metrics recorder outside it to avoid deadlocks.
func (c *Catalog) commit(ev Event) {
	subs := make([]func(Event), 0, len(c.subs))
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		subs = append(subs, c.subs[id])
	}
	n := len(c.sets)
	metrics := c.metrics
	c.mu.Unlock()

	if metrics != nil {
		metrics.SetCatalogEntries(n)
	}
	for _, sub := range subs {
		sub(ev)
	}
}

// Get returns the element set for catalogNumber.
func (c *Catalog) Get(catalogNumber int) (*model.ElementSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	es, ok := c.sets[catalogNumber]
	return es, ok
}

// Len returns the number of stored element sets.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sets)
}

// List returns a snapshot of all element sets ordered by catalog number.
func (c *Catalog) List() []*model.ElementSet {
	c.mu.RLock()
	res := make([]*model.ElementSet, 0, len(c.sets))
	for _, es := range c.sets {
		res = append(res, es)
	}
	c.mu.RUnlock()

	sort.Slice(res, func(i, j int) bool { return res[i].CatalogNumber < res[j].CatalogNumber })
	return res
}

// Subscribe registers a callback for catalog events. Callbacks run on the
// mutating goroutine, in subscription order. It returns an unsubscribe
// function.
func (c *Catalog) Subscribe(fn func(Event)) (unsubscribe func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}
