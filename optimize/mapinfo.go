package optimize

import "github.com/coregx/btregex/enc"

// MapInfo is the set of bytes a match can start with, at a distance MMD
// from the match start.
type MapInfo struct {
	MMD    MinMaxLen
	Anchor AnchorInfo
	// Value is the summed selectivity of the bytes in Map; 0 means no map.
	Value int
	Map   [256]bool
}

// Clear empties the map.
func (m *MapInfo) Clear() {
	*m = MapInfo{}
}

// AddByte adds b to the map.
func (m *MapInfo) AddByte(b byte) {
	if !m.Map[b] {
		m.Map[b] = true
		m.Value += positionValue(b)
	}
}

// AddCharFold adds the first byte of every case variant of r.
func (m *MapInfo) AddCharFold(r rune, en enc.Encoding) {
	var buf [8]byte
	for _, v := range en.CaseVariants(r) {
		b := en.Encode(buf[:0], v)
		if len(b) > 0 {
			m.AddByte(b[0])
		}
	}
}

// Select replaces m with alt when alt is the more selective map.
func (m *MapInfo) Select(alt *MapInfo) {
	const z = 1 << 15
	if alt.Value == 0 {
		return
	}
	if m.Value == 0 {
		*m = *alt
		return
	}
	v1 := z / m.Value
	v2 := z / alt.Value
	if compareDistanceValue(m.MMD, alt.MMD, v1, v2) > 0 {
		*m = *alt
	}
}

// AltMerge unions the maps of two branches.
func (m *MapInfo) AltMerge(add *MapInfo) {
	if m.Value == 0 {
		return
	}
	if add.Value == 0 || m.MMD.Max < add.MMD.Min {
		m.Clear()
		return
	}
	m.MMD.AltMerge(add.MMD)
	val := 0
	for i := range m.Map {
		if add.Map[i] {
			m.Map[i] = true
		}
		if m.Map[i] {
			val += positionValue(byte(i))
		}
	}
	m.Value = val
	m.Anchor.AltMerge(add.Anchor)
}

// compareExactOrMap returns 1 when the map beats the exact hint.
func compareExactOrMap(e *ExactInfo, m *MapInfo) int {
	const base = 20
	if m.Value <= 0 {
		return -1
	}
	fold := 2
	if e.IgnoreCase > 0 {
		fold = 1
	}
	ve := base * e.length * fold
	vm := base * 5 * 2 / m.Value
	return compareDistanceValue(e.MMD, m.MMD, ve, vm)
}
