// Package omap provides an insertion-ordered map.
package omap

import "slices"

// Map keeps values in insertion order. Re-setting an existing key keeps its
// original position. The zero value is ready to use.
type Map[K comparable, V any] struct {
	keys   []K
	values map[K]V
}

// Set stores value under key.
func (m *Map[K, V]) Set(key K, value V) {
	if m.values == nil {
		m.values = make(map[K]V)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// SetIfAbsent stores value only when key is new and reports whether it did.
func (m *Map[K, V]) SetIfAbsent(key K, value V) bool {
	if m.Has(key) {
		return false
	}
	m.Set(key, value)
	return true
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map[K, V]) Has(key K) bool {
	_, ok := m.values[key]
	return ok
}

// Delete removes key.
func (m *Map[K, V]) Delete(key K) {
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	m.keys = slices.DeleteFunc(m.keys, func(k K) bool { return k == key })
}

// Len returns the number of entries.
func (m *Map[K, V]) Len() int { return len(m.keys) }

// Keys returns the keys in insertion order.
func (m *Map[K, V]) Keys() []K { return slices.Clone(m.keys) }

// Values returns the values in insertion order.
func (m *Map[K, V]) Values() []V {
	out := make([]V, len(m.keys))
	for i, k := range m.keys {
		out[i] = m.values[k]
	}
	return out
}

// Each calls fn for every entry in insertion order.
func (m *Map[K, V]) Each(fn func(K, V)) {
	for _, k := range m.keys {
		fn(k, m.values[k])
	}
}

// Update replaces every value with fn's result, keeping the order.
func (m *Map[K, V]) Update(fn func(K, V) V) {
	for _, k := range m.keys {
		m.values[k] = fn(k, m.values[k])
	}
}

// Clone returns a shallow copy.
func (m *Map[K, V]) Clone() Map[K, V] {
	out := Map[K, V]{keys: slices.Clone(m.keys)}
	if m.values != nil {
		out.values = make(map[K]V, len(m.values))
		for k, v := range m.values {
			out.values[k] = v
		}
	}
	return out
}
