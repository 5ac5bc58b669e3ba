package enc

import (
	"fmt"
	"sort"
	"strings"
)

// RuneRange is an inclusive range of characters.
type RuneRange struct {
	Lo, Hi rune
}

// CTypeItem is a classification inside a set, possibly negated (\W, \D).
type CTypeItem struct {
	Type CType
	Not  bool
}

// CharSet is the compiled membership test behind a character class.
// Characters below 256 live in a bitmap, the rest in sorted ranges, and
// classification items are evaluated through the Encoding at match time.
type CharSet struct {
	bits    [4]uint64
	ranges  []RuneRange
	types   []CTypeItem
	negated bool
	fold    bool
}

// NewCharSet builds a set from ranges and classification items.
// When fold is set, a character matches if any of its case variants does.
func NewCharSet(ranges []RuneRange, types []CTypeItem, negated, fold bool) *CharSet {
	cs := &CharSet{negated: negated, fold: fold}
	var wide []RuneRange
	for _, r := range ranges {
		lo, hi := r.Lo, r.Hi
		if lo > hi {
			continue
		}
		for ; lo <= hi && lo < 256; lo++ {
			cs.bits[lo>>6] |= 1 << (uint(lo) & 63)
		}
		if lo <= hi {
			wide = append(wide, RuneRange{lo, hi})
		}
	}
	cs.ranges = mergeRanges(wide)
	cs.types = append(cs.types, types...)
	return cs
}

func mergeRanges(rs []RuneRange) []RuneRange {
	if len(rs) < 2 {
		return rs
	}
	sort.Slice(rs, func(i, j int) bool { return rs[i].Lo < rs[j].Lo })
	out := rs[:1]
	for _, r := range rs[1:] {
		last := &out[len(out)-1]
		if r.Lo <= last.Hi+1 {
			if r.Hi > last.Hi {
				last.Hi = r.Hi
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// Negated reports whether the set is complemented.
func (cs *CharSet) Negated() bool { return cs.negated }

// Fold reports whether membership is case-insensitive.
func (cs *CharSet) Fold() bool { return cs.fold }

// Ranges returns the wide (>= 256) ranges.
func (cs *CharSet) Ranges() []RuneRange { return cs.ranges }

// Types returns the classification items.
func (cs *CharSet) Types() []CTypeItem { return cs.types }

// Bitmap returns the membership bitmap for characters below 256.
func (cs *CharSet) Bitmap() [4]uint64 { return cs.bits }

// Matches reports whether r is a member.
func (cs *CharSet) Matches(e Encoding, r rune) bool {
	in := cs.contains(e, r)
	if !in && cs.fold {
		for _, v := range e.CaseVariants(r) {
			if v != r && cs.contains(e, v) {
				in = true
				break
			}
		}
	}
	return in != cs.negated
}

func (cs *CharSet) contains(e Encoding, r rune) bool {
	if r >= 0 && r < 256 {
		if cs.bits[r>>6]&(1<<(uint(r)&63)) != 0 {
			return true
		}
	} else if len(cs.ranges) > 0 {
		i := sort.Search(len(cs.ranges), func(i int) bool { return cs.ranges[i].Hi >= r })
		if i < len(cs.ranges) && cs.ranges[i].Lo <= r {
			return true
		}
	}
	for _, t := range cs.types {
		if e.IsCType(r, t.Type) != t.Not {
			return true
		}
	}
	return false
}

// HasByte reports whether the bitmap holds b. It ignores ranges, types and
// negation; callers use it only for sets that are pure bitmaps.
func (cs *CharSet) HasByte(b byte) bool {
	return cs.bits[b>>6]&(1<<(uint(b)&63)) != 0
}

// String renders the set in bracket syntax for program dumps.
func (cs *CharSet) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	if cs.negated {
		sb.WriteByte('^')
	}
	for lo := 0; lo < 256; lo++ {
		if !cs.HasByte(byte(lo)) {
			continue
		}
		hi := lo
		for hi+1 < 256 && cs.HasByte(byte(hi+1)) {
			hi++
		}
		writeRange(&sb, rune(lo), rune(hi))
		lo = hi
	}
	for _, r := range cs.ranges {
		writeRange(&sb, r.Lo, r.Hi)
	}
	for _, t := range cs.types {
		if t.Not {
			fmt.Fprintf(&sb, "[:^%s:]", t.Type)
		} else {
			fmt.Fprintf(&sb, "[:%s:]", t.Type)
		}
	}
	sb.WriteByte(']')
	if cs.fold {
		sb.WriteString("/i")
	}
	return sb.String()
}

func writeRange(sb *strings.Builder, lo, hi rune) {
	if lo == hi {
		fmt.Fprintf(sb, "%q", lo)
		return
	}
	fmt.Fprintf(sb, "%q-%q", lo, hi)
}
