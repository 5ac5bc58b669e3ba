package literal

import (
	"github.com/coregx/btregex/ast"
)

// ExtractorConfig configures literal extraction limits.
//
// These limits prevent excessive extraction from complex patterns:
//   - MaxLiterals: prevents memory bloat from alternations like (a|b|c|d|...)
//   - MaxLiteralLen: prevents extracting very long literals
//   - MaxClassSize: prevents expanding large character classes like [a-z]
type ExtractorConfig struct {
	// MaxLiterals limits the number of literals in a result. Default: 64.
	MaxLiterals int

	// MaxLiteralLen limits the length of each literal. Longer literals are
	// cut and marked incomplete. Default: 64.
	MaxLiteralLen int

	// MaxClassSize limits the size of character classes to expand.
	// [abc] becomes ["a", "b", "c"]; classes above the limit stop the
	// extraction. Default: 10.
	MaxClassSize int

	// MaxDepth bounds the recursion over the tree. Default: 100.
	MaxDepth int
}

// DefaultConfig returns the default extractor configuration.
func DefaultConfig() ExtractorConfig {
	return ExtractorConfig{
		MaxLiterals:   64,
		MaxLiteralLen: 64,
		MaxClassSize:  10,
		MaxDepth:      100,
	}
}

// Extractor computes prefix literal sets from pattern trees.
//
// Example:
//
//	ex := literal.New(literal.DefaultConfig())
//	seq := ex.Prefixes(ast.Alt(ast.Lit("hello"), ast.Lit("world")), 0)
//	// seq = ["hello", "world"]
type Extractor struct {
	config ExtractorConfig
}

// New creates a new Extractor with the given configuration.
func New(config ExtractorConfig) *Extractor {
	if config.MaxDepth <= 0 {
		config.MaxDepth = DefaultConfig().MaxDepth
	}
	return &Extractor{config: config}
}

// Prefixes returns literals such that every match of n starts with one of
// them. opts are the options in effect at n. The result is empty when no
// such set is known; it never contains an empty literal.
//
// Examples:
//
//	"hello"         → ["hello"]
//	"(foo|bar)"     → ["foo", "bar"]
//	"[ab]c"         → ["ac", "bc"]
//	"\bfoo\d"       → ["foo"] (incomplete)
//	".*foo"         → []
func (e *Extractor) Prefixes(n ast.Node, opts ast.Options) *Seq {
	seq := e.prefixes(n, opts, 0)
	if seq.IsEmpty() || seq.HasEmpty() {
		return NewSeq()
	}
	seq.Minimize()
	return seq
}

// prefixes returns nil when nothing is known about the start of n.
// A zero-width n yields the single complete empty literal.
//
//nolint:gocyclo,cyclop // one case per node kind
func (e *Extractor) prefixes(n ast.Node, opts ast.Options, depth int) *Seq {
	if depth > e.config.MaxDepth {
		return nil
	}

	switch n := n.(type) {
	case *ast.Literal:
		if n.IgnoreCase || opts&ast.IgnoreCase != 0 {
			return nil
		}
		b := []byte(n.Text)
		if len(b) > e.config.MaxLiteralLen {
			return NewSeq(NewLiteral(b[:e.config.MaxLiteralLen], false))
		}
		return NewSeq(NewLiteral(b, true))

	case *ast.CharClass:
		if n.IgnoreCase || opts&ast.IgnoreCase != 0 {
			return nil
		}
		return e.expandCharClass(n)

	case *ast.Sequence:
		acc := NewSeq(NewLiteral(nil, true))
		for _, child := range n.Nodes {
			next := e.prefixes(child, opts, depth+1)
			if next.IsEmpty() {
				acc.MakeInexact()
				return acc
			}
			if !acc.Cross(next, e.config.MaxLiterals, e.config.MaxLiteralLen) {
				acc.MakeInexact()
				return acc
			}
			if !acc.AllComplete() {
				return acc
			}
		}
		return acc

	case *ast.Alternation:
		out := NewSeq()
		for _, child := range n.Nodes {
			seq := e.prefixes(child, opts, depth+1)
			if seq.IsEmpty() {
				return nil
			}
			out.Union(seq)
			if out.Len() > e.config.MaxLiterals {
				return nil
			}
		}
		return out

	case *ast.Quantifier:
		if n.Min == 0 {
			if n.Max == 0 {
				return NewSeq(NewLiteral(nil, true))
			}
			return NewSeq(NewLiteral(nil, false))
		}
		seq := e.prefixes(n.Node, opts, depth+1)
		if seq.IsEmpty() {
			return nil
		}
		if n.Min != 1 || n.Max != 1 {
			seq.MakeInexact()
		}
		return seq

	case *ast.Enclose:
		switch n.Type {
		case ast.EncloseCapture, ast.EncloseAtomic:
			return e.prefixes(n.Node, opts, depth+1)
		case ast.EncloseOption:
			return e.prefixes(n.Node, (opts|n.On)&^n.Off, depth+1)
		}
		// lookaround is zero-width
		return NewSeq(NewLiteral(nil, true))

	case *ast.Anchor:
		return NewSeq(NewLiteral(nil, true))
	}

	// AnyChar, Backreference, Call
	return nil
}

// expandCharClass expands a small positive class to one literal per
// character. Classes with classification types or non-ASCII members are
// not expanded.
func (e *Extractor) expandCharClass(cc *ast.CharClass) *Seq {
	if cc.Negated || len(cc.Types) > 0 || len(cc.Ranges) == 0 {
		return nil
	}

	count := 0
	for _, r := range cc.Ranges {
		if r.Lo < 0 || r.Hi > 0x7f || r.Lo > r.Hi {
			return nil
		}
		count += int(r.Hi - r.Lo + 1)
		if count > e.config.MaxClassSize || count > e.config.MaxLiterals {
			return nil
		}
	}

	lits := make([]Literal, 0, count)
	for _, r := range cc.Ranges {
		for c := r.Lo; c <= r.Hi; c++ {
			lits = append(lits, NewLiteral([]byte{byte(c)}, true))
		}
	}
	seq := NewSeq(lits...)
	seq.dedup()
	return seq
}
