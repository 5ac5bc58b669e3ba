// Package optimize computes static search hints for a pattern tree.
//
// Compute walks the tree bottom-up and summarizes every subtree as a
// NodeOptInfo: its length bounds, the anchors it implies, exact strings it
// must contain, and the set of bytes it can start with. Concatenation folds
// the summaries left to right; alternation keeps only what holds on every
// branch. NewSearchInfo then picks the cheapest hint for the search loop.
//
// Lengths are byte lengths. InfiniteDistance marks an unbounded maximum and
// is never used in arithmetic directly: all addition and multiplication
// saturate at it.
package optimize

import (
	"math"

	"github.com/coregx/btregex/internal/conv"
)

// InfiniteDistance is the maximum length of an unbounded subtree.
const InfiniteDistance = math.MaxInt32

// distanceAdd adds two distances, saturating at InfiniteDistance.
func distanceAdd(d1, d2 int) int {
	return conv.SaturatingAdd(d1, d2, InfiniteDistance)
}

// distanceMultiply multiplies a distance by a repeat count, saturating at
// InfiniteDistance.
func distanceMultiply(d, m int) int {
	return conv.SaturatingMul(d, m, InfiniteDistance)
}

// MinMaxLen bounds the byte length of a subtree's matches, or the distance
// of a hint from the match start.
type MinMaxLen struct {
	Min, Max int
}

// Set assigns both bounds.
func (m *MinMaxLen) Set(min, max int) {
	m.Min, m.Max = min, max
}

// Clear resets to the empty length.
func (m *MinMaxLen) Clear() {
	m.Min, m.Max = 0, 0
}

// Add appends the length of a following subtree.
func (m *MinMaxLen) Add(o MinMaxLen) {
	m.Min = distanceAdd(m.Min, o.Min)
	m.Max = distanceAdd(m.Max, o.Max)
}

// AltMerge widens m to cover o.
func (m *MinMaxLen) AltMerge(o MinMaxLen) {
	if m.Min > o.Min {
		m.Min = o.Min
	}
	if m.Max < o.Max {
		m.Max = o.Max
	}
}

// Equal reports whether both bounds match.
func (m MinMaxLen) Equal(o MinMaxLen) bool {
	return m.Min == o.Min && m.Max == o.Max
}

// IsInfinite reports whether the maximum is unbounded.
func (m MinMaxLen) IsInfinite() bool {
	return m.Max == InfiniteDistance
}

// distValues approximates 1000 / (max - min + 1).
var distValues = [...]int{
	1000, 500, 333, 250, 200, 167, 143, 125, 111, 100,
	91, 83, 77, 71, 67, 63, 59, 56, 53, 50,
	48, 45, 43, 42, 40, 38, 37, 36, 34, 33,
	32, 31, 30, 29, 29, 28, 27, 26, 26, 25,
	24, 24, 23, 23, 22, 22, 21, 21, 20, 20,
	20, 19, 19, 18, 18, 18, 17, 17, 17, 16,
	16, 16, 16, 15, 15, 15, 15, 14, 14, 14,
	14, 14, 14, 13, 13, 13, 13, 13, 13, 12,
	12, 12, 12, 12, 12, 11, 11, 11, 11, 11,
	11, 11, 11, 11, 10, 10, 10, 10, 10,
}

// distanceValue scores how precisely m pins down a position. An unbounded
// range scores 0.
func distanceValue(m MinMaxLen) int {
	if m.Max == InfiniteDistance {
		return 0
	}
	d := m.Max - m.Min
	if d >= 0 && d < len(distValues) {
		return distValues[d]
	}
	return 1
}

// compareDistanceValue returns 1 when the candidate (d2, v2) is better than
// the current (d1, v1), -1 when worse and 0 on a tie.
func compareDistanceValue(d1, d2 MinMaxLen, v1, v2 int) int {
	if v2 <= 0 {
		return -1
	}
	if v1 <= 0 {
		return 1
	}
	v1 *= distanceValue(d1)
	v2 *= distanceValue(d2)
	switch {
	case v2 > v1:
		return 1
	case v2 < v1:
		return -1
	case d2.Min < d1.Min:
		return 1
	case d2.Min > d1.Min:
		return -1
	}
	return 0
}

// byteValTable ranks how selective a byte is as a search target: common
// bytes (letters) score high, rare control bytes score low.
var byteValTable = [128]int{
	5, 1, 1, 1, 1, 1, 1, 1, 1, 10, 10, 1, 1, 10, 1, 1,
	1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1,
	12, 4, 7, 4, 4, 4, 4, 4, 4, 5, 5, 5, 5, 5, 5, 5,
	6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 5, 5, 5, 5, 5, 5,
	5, 6, 6, 6, 6, 7, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6,
	6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 5, 6, 5, 5, 5,
	5, 6, 6, 6, 6, 7, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6,
	6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 6, 5, 5, 5, 5, 1,
}

func positionValue(b byte) int {
	if int(b) < len(byteValTable) {
		return byteValTable[b]
	}
	return 4
}
