package optimize

import "strings"

// AnchorType is a set of anchors implied by a subtree.
type AnchorType uint16

// Anchor bits.
const (
	AnchorBeginBuf AnchorType = 1 << iota
	AnchorBeginLine
	AnchorBeginPosition
	AnchorEndBuf
	AnchorSemiEndBuf
	AnchorEndLine
	AnchorAnyCharStar
	AnchorAnyCharStarML
	AnchorPrecRead
	AnchorPrecReadNot

	AnchorAnyCharStarMask = AnchorAnyCharStar | AnchorAnyCharStarML
)

var anchorNames = []struct {
	bit  AnchorType
	name string
}{
	{AnchorBeginBuf, "begin-buf"},
	{AnchorBeginLine, "begin-line"},
	{AnchorBeginPosition, "begin-position"},
	{AnchorEndBuf, "end-buf"},
	{AnchorSemiEndBuf, "semi-end-buf"},
	{AnchorEndLine, "end-line"},
	{AnchorAnyCharStar, "anychar-star"},
	{AnchorAnyCharStarML, "anychar-star-ml"},
	{AnchorPrecRead, "prec-read"},
	{AnchorPrecReadNot, "prec-read-not"},
}

func (a AnchorType) String() string {
	var parts []string
	for _, n := range anchorNames {
		if a&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// isLeftAnchor reports whether a constrains the start of a match.
func isLeftAnchor(a AnchorType) bool {
	switch a {
	case AnchorEndBuf, AnchorSemiEndBuf, AnchorEndLine, AnchorPrecRead, AnchorPrecReadNot:
		return false
	}
	return true
}

// AnchorInfo holds the anchors that pin a subtree's left and right edges.
type AnchorInfo struct {
	Left, Right AnchorType
}

// Clear drops all anchors.
func (a *AnchorInfo) Clear() {
	a.Left, a.Right = 0, 0
}

// Add records a single anchor on the side it constrains.
func (a *AnchorInfo) Add(anc AnchorType) {
	if isLeftAnchor(anc) {
		a.Left |= anc
	} else {
		a.Right |= anc
	}
}

// Remove drops anc from the side it constrains.
func (a *AnchorInfo) Remove(anc AnchorType) {
	if isLeftAnchor(anc) {
		a.Left &^= anc
	} else {
		a.Right &^= anc
	}
}

// IsSet reports whether any bit of anc is present on either side.
func (a AnchorInfo) IsSet(anc AnchorType) bool {
	return a.Left&anc != 0 || a.Right&anc != 0
}

// concatAnchors joins left and right. A side's inner anchors reach the
// outer edge only across a zero-width neighbor.
func concatAnchors(left, right AnchorInfo, leftLen, rightLen int) AnchorInfo {
	to := AnchorInfo{Left: left.Left, Right: right.Right}
	if leftLen == 0 {
		to.Left |= right.Left
	}
	if rightLen == 0 {
		to.Right |= left.Right
	} else {
		to.Right |= left.Right & AnchorPrecReadNot
	}
	return to
}

// AltMerge keeps the anchors common to both branches.
func (a *AnchorInfo) AltMerge(o AnchorInfo) {
	a.Left &= o.Left
	a.Right &= o.Right
}
