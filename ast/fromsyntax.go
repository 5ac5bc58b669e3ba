package ast

import (
	"fmt"
	"regexp/syntax"

	"github.com/coregx/btregex/enc"
)

// ParseFlags are the regexp/syntax flags used by Parse: Perl classes and
// escapes, with ^ and $ matching at line boundaries.
const ParseFlags = syntax.ClassNL | syntax.PerlX | syntax.UnicodeGroups

// Parse parses pattern with Go's regexp/syntax parser and converts the
// result. Constructs that parser rejects must be built by hand.
func Parse(pattern string) (Node, error) {
	re, err := syntax.Parse(pattern, ParseFlags)
	if err != nil {
		return nil, err
	}
	return FromSyntax(re)
}

// MustParse is like Parse but panics on error.
func MustParse(pattern string) Node {
	n, err := Parse(pattern)
	if err != nil {
		panic(fmt.Sprintf("ast: Parse(%q): %v", pattern, err))
	}
	return n
}

// FromSyntax converts a regexp/syntax tree.
func FromSyntax(re *syntax.Regexp) (Node, error) {
	switch re.Op {
	case syntax.OpNoMatch:
		return &CharClass{}, nil
	case syntax.OpEmptyMatch:
		return &Sequence{}, nil
	case syntax.OpLiteral:
		return &Literal{Text: string(re.Rune), IgnoreCase: re.Flags&syntax.FoldCase != 0}, nil
	case syntax.OpCharClass:
		cc := &CharClass{}
		for i := 0; i+1 < len(re.Rune); i += 2 {
			cc.Ranges = append(cc.Ranges, enc.RuneRange{Lo: re.Rune[i], Hi: re.Rune[i+1]})
		}
		return cc, nil
	case syntax.OpAnyCharNotNL:
		return &AnyChar{}, nil
	case syntax.OpAnyChar:
		return &AnyChar{Multiline: true}, nil
	case syntax.OpBeginLine:
		return &Anchor{Type: BeginLine}, nil
	case syntax.OpEndLine:
		return &Anchor{Type: EndLine}, nil
	case syntax.OpBeginText:
		return &Anchor{Type: BeginBuf}, nil
	case syntax.OpEndText:
		return &Anchor{Type: EndBuf}, nil
	case syntax.OpWordBoundary:
		return &Anchor{Type: WordBoundary}, nil
	case syntax.OpNoWordBoundary:
		return &Anchor{Type: NotWordBoundary}, nil
	case syntax.OpCapture:
		sub, err := FromSyntax(re.Sub[0])
		if err != nil {
			return nil, err
		}
		return &Enclose{Type: EncloseCapture, Group: re.Cap, Name: re.Name, Node: sub}, nil
	case syntax.OpStar, syntax.OpPlus, syntax.OpQuest, syntax.OpRepeat:
		sub, err := FromSyntax(re.Sub[0])
		if err != nil {
			return nil, err
		}
		q := &Quantifier{Node: sub, Greedy: re.Flags&syntax.NonGreedy == 0}
		switch re.Op {
		case syntax.OpStar:
			q.Min, q.Max = 0, Infinite
		case syntax.OpPlus:
			q.Min, q.Max = 1, Infinite
		case syntax.OpQuest:
			q.Min, q.Max = 0, 1
		default:
			q.Min, q.Max = re.Min, re.Max
			if re.Max < 0 {
				q.Max = Infinite
			}
		}
		return q, nil
	case syntax.OpConcat, syntax.OpAlternate:
		nodes := make([]Node, 0, len(re.Sub))
		for _, s := range re.Sub {
			n, err := FromSyntax(s)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, n)
		}
		if re.Op == syntax.OpConcat {
			return &Sequence{Nodes: nodes}, nil
		}
		return &Alternation{Nodes: nodes}, nil
	}
	return nil, fmt.Errorf("ast: unsupported regexp/syntax op %v", re.Op)
}
