// Package alias allocates collision-free table aliases.
//
// Every table in one composition tree shares a single Allocator. When two
// independently built trees are joined, their allocators are checked for
// conflicts and then merged, so aliases stay unique across arbitrarily deep
// self-joins and relation traversals.
package alias

import (
	"maps"
	"strconv"
	"sync"
)

// Vendor holds the alias naming state. It is not safe for concurrent use;
// share it through an Allocator.
type Vendor struct {
	assigned map[string]string
	avoided  map[string]struct{}
}

// NewVendor returns an empty Vendor.
func NewVendor() Vendor {
	return Vendor{
		assigned: make(map[string]string),
		avoided:  make(map[string]struct{}),
	}
}

func (v *Vendor) taken(name string) bool {
	if _, ok := v.avoided[name]; ok {
		return true
	}
	_, ok := v.assigned[name]
	return ok
}

// UniqueName returns desired if it is free, otherwise desired_2, desired_3,
// and so on. The returned name is recorded as assigned.
func (v *Vendor) UniqueName(desired string) string {
	name := desired
	for i := 2; v.taken(name); i++ {
		name = desired + "_" + strconv.Itoa(i)
	}
	v.assigned[name] = name
	return name
}

// Avoid reserves name without assigning it.
func (v *Vendor) Avoid(name string) {
	v.avoided[name] = struct{}{}
}

// Unavoid releases a reservation made by Avoid.
func (v *Vendor) Unavoid(name string) {
	delete(v.avoided, name)
}

// OneOf returns the first free candidate. When every candidate is taken it
// falls back to numeric suffixing of the last one. An empty candidate list
// yields UniqueName of fallback.
func (v *Vendor) OneOf(fallback string, candidates ...string) string {
	for _, name := range candidates {
		if _, ok := v.avoided[name]; ok {
			continue
		}
		if _, ok := v.assigned[name]; !ok {
			v.assigned[name] = name
			return name
		}
	}
	if len(candidates) == 0 {
		return v.UniqueName(fallback)
	}
	return v.UniqueName(candidates[len(candidates)-1])
}

// HasConflict reports whether any reserved or assigned name of v is also
// reserved or assigned in other.
func (v *Vendor) HasConflict(other *Vendor) bool {
	for name := range v.avoided {
		if other.taken(name) {
			return true
		}
	}
	for name := range v.assigned {
		if other.taken(name) {
			return true
		}
	}
	return false
}

// Merge folds other's state into v. Callers check HasConflict first.
func (v *Vendor) Merge(other *Vendor) {
	maps.Copy(v.assigned, other.assigned)
	for name := range other.avoided {
		v.avoided[name] = struct{}{}
	}
}

// Clone returns an independent copy.
func (v *Vendor) Clone() Vendor {
	return Vendor{
		assigned: maps.Clone(v.assigned),
		avoided:  maps.Clone(v.avoided),
	}
}

// Names returns every reserved or assigned name.
func (v *Vendor) Names() []string {
	names := make([]string, 0, len(v.assigned)+len(v.avoided))
	for name := range v.assigned {
		names = append(names, name)
	}
	for name := range v.avoided {
		if _, ok := v.assigned[name]; !ok {
			names = append(names, name)
		}
	}
	return names
}

// Prefixes returns the proper prefixes of name, shortest first:
// "name" gives "n", "na", "nam".
func Prefixes(name string) []string {
	runes := []rune(name)
	out := make([]string, 0, len(runes))
	for i := 1; i < len(runes); i++ {
		out = append(out, string(runes[:i]))
	}
	return out
}

// Allocator is a lock-guarded Vendor shared by reference between every
// table of one composition.
type Allocator struct {
	mu     sync.Mutex
	vendor Vendor
}

// NewAllocator returns an empty shared allocator.
func NewAllocator() *Allocator {
	return &Allocator{vendor: NewVendor()}
}

// Clone returns a new Allocator with a copy of a's state.
func (a *Allocator) Clone() *Allocator {
	a.mu.Lock()
	defer a.mu.Unlock()
	return &Allocator{vendor: a.vendor.Clone()}
}

// UniqueName is Vendor.UniqueName under the lock.
func (a *Allocator) UniqueName(desired string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.vendor.UniqueName(desired)
}

// Avoid is Vendor.Avoid under the lock.
func (a *Allocator) Avoid(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.vendor.Avoid(name)
}

// Unavoid is Vendor.Unavoid under the lock.
func (a *Allocator) Unavoid(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.vendor.Unavoid(name)
}

// ForTable picks an alias for a table name, trying its prefixes first.
// One-character names have no proper prefix and use the name itself.
func (a *Allocator) ForTable(table string) string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.vendor.OneOf(table, Prefixes(table)...)
}

// HasConflict reports whether a and other reserve or assign a common name.
// The same allocator never conflicts with itself; callers treat that case
// separately.
func (a *Allocator) HasConflict(other *Allocator) bool {
	if a == other {
		return false
	}
	snapshot := other.Snapshot()
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.vendor.HasConflict(&snapshot)
}

// Merge folds other's state into a.
func (a *Allocator) Merge(other *Allocator) {
	if a == other {
		return
	}
	snapshot := other.Snapshot()
	a.mu.Lock()
	defer a.mu.Unlock()
	a.vendor.Merge(&snapshot)
}

// Snapshot returns a copy of the current state.
func (a *Allocator) Snapshot() Vendor {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.vendor.Clone()
}
