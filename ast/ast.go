// Package ast defines the parsed pattern tree consumed by the compiler and
// the optimizer.
//
// The tree is produced by a parser outside this module; every parse-time
// decision of the dialect (escapes, option letters, group numbering) is
// already baked into the nodes. FromSyntax builds trees from Go's
// regexp/syntax parser, which is what the tests and the CLI use.
package ast

import (
	"math"

	"github.com/coregx/btregex/enc"
)

// Infinite is the Max of an unbounded Quantifier.
const Infinite = math.MaxInt32

// Kind is the tag of a Node.
type Kind uint8

// Node kinds.
const (
	KindSequence Kind = iota
	KindAlternation
	KindLiteral
	KindCharClass
	KindAnyChar
	KindBackreference
	KindQuantifier
	KindEnclose
	KindAnchor
	KindCall
)

var kindNames = [...]string{
	KindSequence:      "Sequence",
	KindAlternation:   "Alternation",
	KindLiteral:       "Literal",
	KindCharClass:     "CharClass",
	KindAnyChar:       "AnyChar",
	KindBackreference: "Backreference",
	KindQuantifier:    "Quantifier",
	KindEnclose:       "Enclose",
	KindAnchor:        "Anchor",
	KindCall:          "Call",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// Node is a pattern tree node.
type Node interface {
	Kind() Kind
}

// Options are match options that an option-scope Enclose can switch.
type Options uint32

// Option flags.
const (
	// IgnoreCase makes literals, classes and backreferences case-insensitive.
	IgnoreCase Options = 1 << iota
	// Multiline lets AnyChar match a newline.
	Multiline
	// FindLongest keeps searching for the longest match at a start offset.
	FindLongest
	// FindNotEmpty rejects empty matches.
	FindNotEmpty
	// NotBOL makes the text start fail BEGIN_LINE.
	NotBOL
	// NotEOL makes the text end fail END_LINE.
	NotEOL
)

// Sequence matches its children in order. An empty Sequence matches the
// empty string.
type Sequence struct {
	Nodes []Node
}

// Alternation tries its branches left to right.
type Alternation struct {
	Nodes []Node
}

// Literal matches Text exactly, or case-insensitively when IgnoreCase is set.
type Literal struct {
	Text       string
	IgnoreCase bool
}

// CharClass matches one character from a set.
type CharClass struct {
	Ranges     []enc.RuneRange
	Types      []enc.CTypeItem
	Negated    bool
	IgnoreCase bool
}

// AnyChar matches any character; a newline only when Multiline is set.
type AnyChar struct {
	Multiline bool
}

// Backreference matches the text last captured by one of Groups, tried in
// order. Unset groups are skipped.
type Backreference struct {
	Groups     []int
	IgnoreCase bool
}

// Quantifier repeats Node between Min and Max times. Max may be Infinite.
type Quantifier struct {
	Node       Node
	Min, Max   int
	Greedy     bool
	Possessive bool
}

// EncloseKind selects what an Enclose does with its child.
type EncloseKind uint8

// Enclose kinds.
const (
	// EncloseCapture records the child's span in group Group.
	EncloseCapture EncloseKind = iota
	// EncloseOption compiles the child under modified options.
	EncloseOption
	// EncloseLookAhead asserts the child at the current position.
	EncloseLookAhead
	// EncloseLookBehind asserts the child ending at the current position.
	EncloseLookBehind
	// EncloseAtomic matches the child once, discarding its backtrack points.
	EncloseAtomic
)

var encloseNames = [...]string{
	EncloseCapture:    "capture",
	EncloseOption:     "option",
	EncloseLookAhead:  "lookahead",
	EncloseLookBehind: "lookbehind",
	EncloseAtomic:     "atomic",
}

func (k EncloseKind) String() string {
	if int(k) < len(encloseNames) {
		return encloseNames[k]
	}
	return "unknown"
}

// Enclose wraps a child with group, option or assertion semantics.
type Enclose struct {
	Type EncloseKind
	Node Node

	// Group and Name identify a capture.
	Group int
	Name  string

	// On and Off are the options switched by an option scope.
	On, Off Options

	// Negate inverts a lookahead or lookbehind.
	Negate bool
}

// AnchorKind selects a zero-width test.
type AnchorKind uint8

// Anchor kinds.
const (
	BeginBuf      AnchorKind = iota // \A
	EndBuf                          // \z
	SemiEndBuf                      // \Z
	BeginLine                       // ^
	EndLine                         // $
	BeginPosition                   // \G
	WordBoundary                    // \b
	NotWordBoundary                 // \B
	WordBegin                       // \<
	WordEnd                         // \>
)

var anchorNames = [...]string{
	BeginBuf:        `\A`,
	EndBuf:          `\z`,
	SemiEndBuf:      `\Z`,
	BeginLine:       "^",
	EndLine:         "$",
	BeginPosition:   `\G`,
	WordBoundary:    `\b`,
	NotWordBoundary: `\B`,
	WordBegin:       `\<`,
	WordEnd:         `\>`,
}

func (k AnchorKind) String() string {
	if int(k) < len(anchorNames) {
		return anchorNames[k]
	}
	return "?"
}

// Anchor is a zero-width test.
type Anchor struct {
	Type AnchorKind
}

// Call invokes capture group Group as a subroutine.
type Call struct {
	Group int
}

func (*Sequence) Kind() Kind      { return KindSequence }
func (*Alternation) Kind() Kind   { return KindAlternation }
func (*Literal) Kind() Kind       { return KindLiteral }
func (*CharClass) Kind() Kind     { return KindCharClass }
func (*AnyChar) Kind() Kind       { return KindAnyChar }
func (*Backreference) Kind() Kind { return KindBackreference }
func (*Quantifier) Kind() Kind    { return KindQuantifier }
func (*Enclose) Kind() Kind       { return KindEnclose }
func (*Anchor) Kind() Kind        { return KindAnchor }
func (*Call) Kind() Kind          { return KindCall }

// IsInfinite reports whether q has no upper bound.
func (q *Quantifier) IsInfinite() bool { return q.Max == Infinite }
