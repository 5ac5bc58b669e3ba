// Package bitset implements a growable set of capture-group numbers.
package bitset

import "math/bits"

// Set is a bitset indexed by group number. The zero value is empty.
type Set struct {
	words []uint64
}

// Add inserts n. Negative values are ignored.
func (s *Set) Add(n int) {
	if n < 0 {
		return
	}
	w := n >> 6
	for len(s.words) <= w {
		s.words = append(s.words, 0)
	}
	s.words[w] |= 1 << (uint(n) & 63)
}

// Has reports whether n is in the set.
func (s *Set) Has(n int) bool {
	w := n >> 6
	if n < 0 || w >= len(s.words) {
		return false
	}
	return s.words[w]&(1<<(uint(n)&63)) != 0
}

// Empty reports whether no bit is set.
func (s *Set) Empty() bool {
	for _, w := range s.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Len returns the number of members.
func (s *Set) Len() int {
	n := 0
	for _, w := range s.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// Union adds every member of o.
func (s *Set) Union(o Set) {
	for i, w := range o.words {
		if w == 0 {
			continue
		}
		for len(s.words) <= i {
			s.words = append(s.words, 0)
		}
		s.words[i] |= w
	}
}

// Members returns the members in ascending order.
func (s *Set) Members() []int {
	var out []int
	for i, w := range s.words {
		for w != 0 {
			b := bits.TrailingZeros64(w)
			out = append(out, i*64+b)
			w &= w - 1
		}
	}
	return out
}
