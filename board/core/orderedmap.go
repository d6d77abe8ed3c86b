// ABOUTME: OrderedMap keeps entries sorted by key for deterministic iteration.
// ABOUTME: The board stores cards keyed by id so views list cards in creation order.
package core

import (
	"cmp"
	"slices"
)

// OrderedMap maintains keys in ascending order.
type OrderedMap[K cmp.Ordered, V any] struct {
	data map[K]V
	keys []K
}

// NewOrderedMap creates an empty OrderedMap.
func NewOrderedMap[K cmp.Ordered, V any]() *OrderedMap[K, V] {
	return &OrderedMap[K, V]{data: make(map[K]V)}
}

// Set inserts or updates a key-value pair, maintaining sorted key order.
func (m *OrderedMap[K, V]) Set(key K, val V) {
	if _, exists := m.data[key]; !exists {
		i, _ := slices.BinarySearch(m.keys, key)
		m.keys = slices.Insert(m.keys, i, key)
	}
	m.data[key] = val
}

// Get retrieves a value by key. Returns the value and whether it was found.
func (m *OrderedMap[K, V]) Get(key K) (V, bool) {
	v, ok := m.data[key]
	return v, ok
}

// Delete removes a key-value pair.
func (m *OrderedMap[K, V]) Delete(key K) {
	if _, exists := m.data[key]; !exists {
		return
	}
	delete(m.data, key)
	if i, found := slices.BinarySearch(m.keys, key); found {
		m.keys = slices.Delete(m.keys, i, i+1)
	}
}

// Clear removes every entry.
func (m *OrderedMap[K, V]) Clear() {
	m.data = make(map[K]V)
	m.keys = nil
}

// Len returns the number of entries.
func (m *OrderedMap[K, V]) Len() int {
	return len(m.data)
}

// Keys returns all keys in sorted order.
func (m *OrderedMap[K, V]) Keys() []K {
	return slices.Clone(m.keys)
}

// Values returns all values in key-sorted order.
func (m *OrderedMap[K, V]) Values() []V {
	result := make([]V, 0, len(m.keys))
	for _, k := range m.keys {
		result = append(result, m.data[k])
	}
	return result
}

// Range iterates over entries in sorted key order. Return false to stop.
func (m *OrderedMap[K, V]) Range(fn func(K, V) bool) {
	for _, k := range m.keys {
		if !fn(k, m.data[k]) {
			break
		}
	}
}
