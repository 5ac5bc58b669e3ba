package optimize

import "github.com/coregx/btregex/enc"

// MaxExactLen caps the length of an exact-string hint.
const MaxExactLen = 24

// ExactInfo is a string every match contains, at a distance MMD from the
// match start.
type ExactInfo struct {
	MMD    MinMaxLen
	Anchor AnchorInfo
	// ReachEnd is set while the string still spans its whole subtree, so a
	// following literal may be appended to it.
	ReachEnd bool
	// IgnoreCase is -1 while unset, 0 for exact bytes and 1 for folded bytes.
	IgnoreCase int

	buf    [MaxExactLen]byte
	length int
}

// Bytes returns the hint. A non-positive length reads as empty.
func (e *ExactInfo) Bytes() []byte {
	if e.length <= 0 {
		return nil
	}
	return e.buf[:e.length]
}

// Len returns the hint length.
func (e *ExactInfo) Len() int { return e.length }

func (e *ExactInfo) isFull() bool { return e.length >= MaxExactLen }

// Clear resets to an empty hint with unset case sensitivity.
func (e *ExactInfo) Clear() {
	e.MMD.Clear()
	e.Anchor.Clear()
	e.ReachEnd = false
	e.IgnoreCase = -1
	e.length = 0
}

// appendChars appends whole characters of s while they fit and returns the
// number of bytes consumed.
func (e *ExactInfo) appendChars(s []byte, en enc.Encoding) int {
	p := 0
	for p < len(s) {
		_, n := en.Decode(s[p:])
		if e.length+n > MaxExactLen {
			break
		}
		copy(e.buf[e.length:], s[p:p+n])
		e.length += n
		p += n
	}
	return p
}

// ConcatStr appends raw string bytes.
func (e *ExactInfo) ConcatStr(s []byte, en enc.Encoding) {
	e.appendChars(s, en)
}

// Concat appends another hint. Hints of different case sensitivity are
// never joined.
func (e *ExactInfo) Concat(add *ExactInfo, en enc.Encoding) {
	if e.IgnoreCase < 0 {
		e.IgnoreCase = add.IgnoreCase
	} else if e.IgnoreCase != add.IgnoreCase {
		return
	}
	src := add.Bytes()
	p := e.appendChars(src, en)
	e.ReachEnd = p == len(src) && add.ReachEnd

	anc := concatAnchors(e.Anchor, add.Anchor, 1, 1)
	if !e.ReachEnd {
		anc.Right = 0
	}
	e.Anchor = anc
}

// AltMerge keeps the common prefix of two hints found at the same distance.
func (e *ExactInfo) AltMerge(add *ExactInfo, en enc.Encoding) {
	if add.length <= 0 || e.length <= 0 || !e.MMD.Equal(add.MMD) {
		e.Clear()
		return
	}
	i := 0
	for i < e.length && i < add.length {
		_, n := en.Decode(e.buf[i:e.length])
		if i+n > add.length {
			break
		}
		same := true
		for j := 0; j < n; j++ {
			if e.buf[i+j] != add.buf[i+j] {
				same = false
				break
			}
		}
		if !same {
			break
		}
		i += n
	}
	if !add.ReachEnd || i < add.length || i < e.length {
		e.ReachEnd = false
	}
	e.length = i
	if e.IgnoreCase < 0 {
		e.IgnoreCase = add.IgnoreCase
	} else if add.IgnoreCase >= 0 {
		e.IgnoreCase |= add.IgnoreCase
	}
	e.Anchor.AltMerge(add.Anchor)
	if !e.ReachEnd {
		e.Anchor.Right = 0
	}
}

// Select replaces e with alt when alt is the better hint.
//
// Short hints (two bytes or less) are scored by byte selectivity, with
// each side scored by the other side's first byte; the cross-over is the
// long-standing scoring and is kept as is.
func (e *ExactInfo) Select(alt *ExactInfo) {
	v1, v2 := e.length, alt.length
	switch {
	case v2 <= 0:
		return
	case v1 <= 0:
		*e = *alt
		return
	case v1 <= 2 && v2 <= 2:
		v2 = positionValue(e.buf[0])
		v1 = positionValue(alt.buf[0])
		if e.length > 1 {
			v1 += 5
		}
		if alt.length > 1 {
			v2 += 5
		}
	}
	if e.IgnoreCase <= 0 {
		v1 *= 2
	}
	if alt.IgnoreCase <= 0 {
		v2 *= 2
	}
	if compareDistanceValue(e.MMD, alt.MMD, v1, v2) > 0 {
		*e = *alt
	}
}

// truncate shortens the hint to at most n bytes. Callers pass a finite n.
func (e *ExactInfo) truncate(n int) {
	if e.length > n {
		e.length = n
	}
}
