package repositories

import (
	"sort"
	"sync"
)

type record[T any] struct {
	seq   uint64
	value T
}

// collection is a mutex guarded set of entities keyed by ID. When persist is
// set every mutation is written through before it becomes visible; a failed
// write rolls the mutation back.
type collection[T any] struct {
	mu      sync.RWMutex
	items   map[string]record[T]
	next    uint64
	id      func(*T) string
	clone   func(T) T
	persist func([]T) error
}

func newCollection[T any](id func(*T) string, clone func(T) T) *collection[T] {
	return &collection[T]{
		items: make(map[string]record[T]),
		id:    id,
		clone: clone,
	}
}

// load seeds the collection in slice order without persisting.
func (c *collection[T]) load(values []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, v := range values {
		c.next++
		c.items[c.id(&v)] = record[T]{seq: c.next, value: c.clone(v)}
	}
}

func (c *collection[T]) snapshotLocked() []T {
	recs := make([]record[T], 0, len(c.items))
	for _, r := range c.items {
		recs = append(recs, r)
	}
	sort.Slice(recs, func(i, j int) bool { return recs[i].seq < recs[j].seq })
	out := make([]T, len(recs))
	for i, r := range recs {
		out[i] = c.clone(r.value)
	}
	return out
}

// all returns copies of every entity in insertion order.
func (c *collection[T]) all() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *collection[T]) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

func (c *collection[T]) get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	r, ok := c.items[id]
	if !ok {
		var zero T
		return zero, false
	}
	return c.clone(r.value), true
}

// insert adds v after check approves it against every stored entity.
func (c *collection[T]) insert(v T, check func(existing T) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if check != nil {
		for _, r := range c.items {
			if err := check(r.value); err != nil {
				return err
			}
		}
	}
	id := c.id(&v)
	c.next++
	c.items[id] = record[T]{seq: c.next, value: c.clone(v)}
	if err := c.flushLocked(); err != nil {
		delete(c.items, id)
		return err
	}
	return nil
}

// modify applies fn to the stored entity with id and returns the result.
func (c *collection[T]) modify(id string, fn func(*T)) (T, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok := c.items[id]
	if !ok {
		var zero T
		return zero, false, nil
	}
	next := c.clone(prev.value)
	fn(&next)
	c.items[id] = record[T]{seq: prev.seq, value: next}
	if err := c.flushLocked(); err != nil {
		c.items[id] = prev
		var zero T
		return zero, true, err
	}
	return c.clone(next), true, nil
}

func (c *collection[T]) remove(id string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev, ok := c.items[id]
	if !ok {
		return false, nil
	}
	delete(c.items, id)
	if err := c.flushLocked(); err != nil {
		c.items[id] = prev
		return true, err
	}
	return true, nil
}

func (c *collection[T]) flushLocked() error {
	if c.persist == nil {
		return nil
	}
	return c.persist(c.snapshotLocked())
}
