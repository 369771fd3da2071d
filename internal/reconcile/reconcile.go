// Package reconcile applies server mutations optimistically to a local
// cache and falls back to the server's copy when a mutation fails.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// List is an ordered cache of items keyed by id. It is safe for concurrent use.
type List[K comparable, T any] struct {
	mu    sync.RWMutex
	key   func(T) K
	items []T
}

// NewList creates an empty list; key extracts an item's id
func NewList[K comparable, T any](key func(T) K) *List[K, T] {
	return &List[K, T]{key: key}
}

// Replace swaps the whole content for items
func (l *List[K, T]) Replace(items []T) {
	cp := make([]T, len(items))
	copy(cp, items)

	l.mu.Lock()
	l.items = cp
	l.mu.Unlock()
}

// Items returns a copy of the content in order
func (l *List[K, T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cp := make([]T, len(l.items))
	copy(cp, l.items)
	return cp
}

// Len returns the number of items
func (l *List[K, T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}

// Get returns the item with the given id
func (l *List[K, T]) Get(id K) (T, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, it := range l.items {
		if l.key(it) == id {
			return it, true
		}
	}
	var zero T
	return zero, false
}

// Patch applies fn to the item with the given id. Other items are untouched.
func (l *List[K, T]) Patch(id K, fn func(*T)) bool {
	_, ok := l.swap(id, fn)
	return ok
}

// swap patches the item and returns its previous value
func (l *List[K, T]) swap(id K, fn func(*T)) (T, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.items {
		if l.key(l.items[i]) == id {
			prev := l.items[i]
			fn(&l.items[i])
			return prev, true
		}
	}
	var zero T
	return zero, false
}

func (l *List[K, T]) restore(id K, prev T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.items {
		if l.key(l.items[i]) == id {
			l.items[i] = prev
			return
		}
	}
}

// Apply patches the item with the given id, then runs call. When call fails
// the list is reloaded from reload and call's error is returned. If the
// reload fails as well the item is put back as it was and both errors are
// returned.
//
// The patch is visible to readers while call is in flight.
func Apply[K comparable, T any](
	ctx context.Context,
	list *List[K, T],
	id K,
	patch func(*T),
	call func(context.Context) error,
	reload func(context.Context) ([]T, error),
) error {
	prev, patched := list.swap(id, patch)

	err := call(ctx)
	if err == nil {
		return nil
	}

	items, reloadErr := reload(ctx)
	if reloadErr != nil {
		if patched {
			list.restore(id, prev)
		}
		return errors.Join(err, fmt.Errorf("reload after failed update: %w", reloadErr))
	}
	list.Replace(items)
	return err
}
