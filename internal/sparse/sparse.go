// Package sparse provides a sparse set of small non-negative integers.
//
// The compiler's setup pass and the length analysis use it to track which
// capture groups are currently being visited, so that walks through
// subexpression calls terminate on recursion. Insert, Contains, Remove and
// Clear are all O(1); Clear in particular lets one set be reused across
// many walks without reallocating.
package sparse

// Set is a set of ints in [0, capacity).
type Set struct {
	sparse []int // value -> index in dense
	dense  []int
}

// New creates a set able to hold values in [0, capacity).
func New(capacity int) *Set {
	return &Set{
		sparse: make([]int, capacity),
		dense:  make([]int, 0, capacity),
	}
}

// Insert adds v and reports whether it was newly added.
// Values outside the capacity are ignored and reported as not added.
func (s *Set) Insert(v int) bool {
	if v < 0 || v >= len(s.sparse) || s.Contains(v) {
		return false
	}
	s.sparse[v] = len(s.dense)
	s.dense = append(s.dense, v)
	return true
}

// Contains reports whether v is in the set.
func (s *Set) Contains(v int) bool {
	if v < 0 || v >= len(s.sparse) {
		return false
	}
	idx := s.sparse[v]
	return idx < len(s.dense) && s.dense[idx] == v
}

// Remove deletes v from the set. Removing an absent value is a no-op.
func (s *Set) Remove(v int) {
	if !s.Contains(v) {
		return
	}
	idx := s.sparse[v]
	last := s.dense[len(s.dense)-1]
	s.dense[idx] = last
	s.sparse[last] = idx
	s.dense = s.dense[:len(s.dense)-1]
}

// Clear empties the set.
func (s *Set) Clear() {
	s.dense = s.dense[:0]
}

// Len returns the number of values in the set.
func (s *Set) Len() int {
	return len(s.dense)
}

// Values returns the members in insertion order, modulo removals.
// The slice is only valid until the next mutation.
func (s *Set) Values() []int {
	return s.dense
}
