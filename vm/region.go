package vm

import (
	"strconv"
	"strings"
)

// NotPos marks a group that did not participate in the match.
const NotPos = -1

// Region holds the byte offsets of a match: index 0 is the whole match,
// index i the i-th capture group. Offsets are absolute positions in the
// text passed to Matcher.Reset.
type Region struct {
	Beg []int
	End []int
}

// NewRegion creates a region for n slots, all unset.
func NewRegion(n int) *Region {
	r := &Region{Beg: make([]int, n), End: make([]int, n)}
	r.Clear()
	return r
}

// Len returns the number of slots, group 0 included.
func (r *Region) Len() int { return len(r.Beg) }

// Clear marks every slot unset.
func (r *Region) Clear() {
	for i := range r.Beg {
		r.Beg[i], r.End[i] = NotPos, NotPos
	}
}

// Clone returns a deep copy of r.
func (r *Region) Clone() *Region {
	return &Region{
		Beg: append([]int(nil), r.Beg...),
		End: append([]int(nil), r.End...),
	}
}

// Group returns the span of slot i and whether it is set.
func (r *Region) Group(i int) (beg, end int, ok bool) {
	if i < 0 || i >= len(r.Beg) || r.Beg[i] == NotPos {
		return NotPos, NotPos, false
	}
	return r.Beg[i], r.End[i], true
}

// Indices flattens r into [beg0, end0, beg1, end1, ...].
func (r *Region) Indices() []int {
	out := make([]int, 0, 2*len(r.Beg))
	for i := range r.Beg {
		out = append(out, r.Beg[i], r.End[i])
	}
	return out
}

// String renders r as "(0,3)(1,2)(-1,-1)".
func (r *Region) String() string {
	var sb strings.Builder
	for i := range r.Beg {
		sb.WriteByte('(')
		sb.WriteString(strconv.Itoa(r.Beg[i]))
		sb.WriteByte(',')
		sb.WriteString(strconv.Itoa(r.End[i]))
		sb.WriteByte(')')
	}
	return sb.String()
}
