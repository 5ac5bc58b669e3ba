package ast

import "github.com/coregx/btregex/enc"

// Constructors for hand-built trees. Tests and tools use them for
// constructs the regexp/syntax parser does not accept (backreferences,
// lookaround, possessive repeats, subexpression calls).

// Lit returns a case-sensitive literal.
func Lit(s string) *Literal { return &Literal{Text: s} }

// FoldLit returns a case-insensitive literal.
func FoldLit(s string) *Literal { return &Literal{Text: s, IgnoreCase: true} }

// Cat returns a sequence of nodes.
func Cat(nodes ...Node) *Sequence { return &Sequence{Nodes: nodes} }

// Alt returns an alternation of nodes.
func Alt(nodes ...Node) *Alternation { return &Alternation{Nodes: nodes} }

// Repeat returns a greedy quantifier.
func Repeat(n Node, min, max int) *Quantifier {
	return &Quantifier{Node: n, Min: min, Max: max, Greedy: true}
}

// Lazy returns a non-greedy quantifier.
func Lazy(n Node, min, max int) *Quantifier {
	return &Quantifier{Node: n, Min: min, Max: max}
}

// Possessive returns a possessive quantifier.
func Possessive(n Node, min, max int) *Quantifier {
	return &Quantifier{Node: n, Min: min, Max: max, Greedy: true, Possessive: true}
}

// Star returns n*.
func Star(n Node) *Quantifier { return Repeat(n, 0, Infinite) }

// Plus returns n+.
func Plus(n Node) *Quantifier { return Repeat(n, 1, Infinite) }

// Quest returns n?.
func Quest(n Node) *Quantifier { return Repeat(n, 0, 1) }

// Group returns a capture of n as group i.
func Group(i int, n Node) *Enclose {
	return &Enclose{Type: EncloseCapture, Group: i, Node: n}
}

// Named returns a named capture of n as group i.
func Named(i int, name string, n Node) *Enclose {
	return &Enclose{Type: EncloseCapture, Group: i, Name: name, Node: n}
}

// LookAhead returns (?=n), or (?!n) when negate is set.
func LookAhead(n Node, negate bool) *Enclose {
	return &Enclose{Type: EncloseLookAhead, Node: n, Negate: negate}
}

// LookBehind returns (?<=n), or (?<!n) when negate is set.
func LookBehind(n Node, negate bool) *Enclose {
	return &Enclose{Type: EncloseLookBehind, Node: n, Negate: negate}
}

// Atomic returns (?>n).
func Atomic(n Node) *Enclose { return &Enclose{Type: EncloseAtomic, Node: n} }

// WithOptions returns an option scope switching on and off around n.
func WithOptions(on, off Options, n Node) *Enclose {
	return &Enclose{Type: EncloseOption, On: on, Off: off, Node: n}
}

// Backref returns a backreference to groups.
func Backref(groups ...int) *Backreference { return &Backreference{Groups: groups} }

// Class returns a character class over the given inclusive pairs.
func Class(pairs ...rune) *CharClass {
	cc := &CharClass{}
	for i := 0; i+1 < len(pairs); i += 2 {
		cc.Ranges = append(cc.Ranges, enc.RuneRange{Lo: pairs[i], Hi: pairs[i+1]})
	}
	return cc
}

// At returns an anchor.
func At(k AnchorKind) *Anchor { return &Anchor{Type: k} }

// CallGroup returns a subexpression call of group i.
func CallGroup(i int) *Call { return &Call{Group: i} }
