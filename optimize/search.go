package optimize

import (
	"github.com/coregx/btregex/ast"
	"github.com/coregx/btregex/enc"
)

// HintKind selects the candidate finder used by the search loop.
type HintKind uint8

// Hint kinds.
const (
	HintNone HintKind = iota
	HintExact
	HintExactIC
	HintMap
)

func (k HintKind) String() string {
	switch k {
	case HintExact:
		return "exact"
	case HintExactIC:
		return "exact-ic"
	case HintMap:
		return "map"
	}
	return "none"
}

// SearchInfo is the final set of hints the search loop uses to skip start
// offsets that cannot match.
type SearchInfo struct {
	// Anchor holds start anchors (begin-buf, begin-position, anychar-star)
	// and end anchors (end-buf, semi-end-buf).
	Anchor AnchorType
	// AnchorDmin and AnchorDmax bound the match length when an end anchor
	// is set.
	AnchorDmin, AnchorDmax int
	// SubAnchor holds line anchors attached to the hint.
	SubAnchor AnchorType

	Kind HintKind
	// Exact is the literal hint; folded when Kind is HintExactIC.
	Exact []byte
	Map   [256]bool
	// Dmin and Dmax bound the distance of the hint from the match start.
	Dmin, Dmax int
	// Threshold is the shortest text remainder that can still match.
	Threshold int

	// Length bounds the whole pattern.
	Length MinMaxLen
}

// NewSearchInfo computes the search hints for root.
func NewSearchInfo(root ast.Node, opts ast.Options, en enc.Encoding) *SearchInfo {
	env := NewEnv(root, opts, en)
	opt := Compute(root, env)
	return selectHints(&opt)
}

func selectHints(opt *NodeOptInfo) *SearchInfo {
	si := &SearchInfo{Length: opt.Length}

	si.Anchor = opt.Anchor.Left & (AnchorBeginBuf | AnchorBeginPosition | AnchorAnyCharStar | AnchorAnyCharStarML)
	if opt.Anchor.Left&AnchorPrecReadNot != 0 {
		si.Anchor &^= AnchorAnyCharStarML
	}
	si.Anchor |= opt.Anchor.Right & (AnchorEndBuf | AnchorSemiEndBuf | AnchorPrecReadNot)
	if si.Anchor&(AnchorEndBuf|AnchorSemiEndBuf) != 0 {
		si.AnchorDmin = opt.Length.Min
		si.AnchorDmax = opt.Length.Max
	}

	switch {
	case opt.Exb.length > 0 || opt.Exm.length > 0:
		opt.Exb.Select(&opt.Exm)
		if opt.Map.Value > 0 && compareExactOrMap(&opt.Exb, &opt.Map) > 0 {
			si.setMap(&opt.Map)
		} else {
			si.setExact(&opt.Exb)
		}
	case opt.Map.Value > 0:
		si.setMap(&opt.Map)
	default:
		si.SubAnchor |= opt.Anchor.Left & AnchorBeginLine
		if opt.Length.Max == 0 {
			si.SubAnchor |= opt.Anchor.Right & AnchorEndLine
		}
	}
	return si
}

func (si *SearchInfo) setExact(e *ExactInfo) {
	if e.length <= 0 {
		return
	}
	si.Exact = append([]byte(nil), e.Bytes()...)
	si.Kind = HintExact
	if e.IgnoreCase > 0 {
		si.Kind = HintExactIC
	}
	si.Dmin, si.Dmax = e.MMD.Min, e.MMD.Max
	if si.Dmin != InfiniteDistance {
		si.Threshold = si.Dmin + len(si.Exact)
	}
	si.setSubAnchor(e.Anchor)
}

func (si *SearchInfo) setMap(m *MapInfo) {
	si.Map = m.Map
	si.Kind = HintMap
	si.Dmin, si.Dmax = m.MMD.Min, m.MMD.Max
	if si.Dmin != InfiniteDistance {
		si.Threshold = si.Dmin + 1
	}
	si.setSubAnchor(m.Anchor)
}

func (si *SearchInfo) setSubAnchor(a AnchorInfo) {
	si.SubAnchor |= a.Left & AnchorBeginLine
	si.SubAnchor |= a.Right & AnchorEndLine
}

// MapBytes returns the bytes set in the map, in ascending order.
func (si *SearchInfo) MapBytes() []byte {
	var out []byte
	for i, ok := range si.Map {
		if ok {
			out = append(out, byte(i))
		}
	}
	return out
}
