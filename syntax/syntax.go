// Package syntax describes regex dialects: which constructs a dialect
// accepts and which options it starts with.
//
// Parsing itself happens outside this module, so a dialect here matters in
// two places. Validate rejects trees that use constructs the dialect does
// not allow (a configuration rejection, distinct from a matcher fault), and
// Options seeds the compile-time option set.
package syntax

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/coregx/btregex/ast"
)

// Op is a set of constructs a dialect allows.
type Op uint32

// Dialect constructs.
const (
	OpBackref Op = 1 << iota
	OpNamedGroup
	OpLazy
	OpPossessive
	OpInterval
	OpLookAhead
	OpLookBehind
	OpAtomicGroup
	OpOptionScope
	OpSubexpCall
	OpBufAnchors    // \A \z
	OpSemiEndBuf    // \Z
	OpBeginPosition // \G
	OpWordBoundary  // \b \B
	OpWordBeginEnd  // \< \>
	OpLineAnchors   // ^ $
	OpCTypes        // \w \d \s inside classes

	OpAll Op = 1<<iota - 1
)

var opNames = map[string]Op{
	"backref":        OpBackref,
	"named-group":    OpNamedGroup,
	"lazy":           OpLazy,
	"possessive":     OpPossessive,
	"interval":       OpInterval,
	"lookahead":      OpLookAhead,
	"lookbehind":     OpLookBehind,
	"atomic-group":   OpAtomicGroup,
	"option-scope":   OpOptionScope,
	"subexp-call":    OpSubexpCall,
	"buf-anchors":    OpBufAnchors,
	"semi-end-buf":   OpSemiEndBuf,
	"begin-position": OpBeginPosition,
	"word-boundary":  OpWordBoundary,
	"word-begin-end": OpWordBeginEnd,
	"line-anchors":   OpLineAnchors,
	"ctypes":         OpCTypes,
}

// ParseOp resolves a construct name as used in dialect files.
func ParseOp(name string) (Op, error) {
	op, ok := opNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown construct %q", name)
	}
	return op, nil
}

// String lists the construct names in op, sorted.
func (op Op) String() string {
	var names []string
	for name, bit := range opNames {
		if op&bit != 0 {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "none"
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}

var optionNames = map[string]ast.Options{
	"ignore-case":    ast.IgnoreCase,
	"multiline":      ast.Multiline,
	"find-longest":   ast.FindLongest,
	"find-not-empty": ast.FindNotEmpty,
	"not-bol":        ast.NotBOL,
	"not-eol":        ast.NotEOL,
}

// ParseOption resolves an option name as used in dialect files.
func ParseOption(name string) (ast.Options, error) {
	o, ok := optionNames[strings.ToLower(name)]
	if !ok {
		return 0, fmt.Errorf("unknown option %q", name)
	}
	return o, nil
}

// Syntax is a dialect.
type Syntax struct {
	Name    string
	Ops     Op
	Options ast.Options
}

// Allows reports whether every construct in op is allowed.
func (s *Syntax) Allows(op Op) bool {
	return s.Ops&op == op
}

// Dialect presets.
var (
	Ruby = &Syntax{Name: "ruby", Ops: OpAll}

	Perl = &Syntax{
		Name: "perl",
		Ops:  OpAll &^ (OpSubexpCall | OpWordBeginEnd),
	}

	Java = &Syntax{
		Name: "java",
		Ops:  OpAll &^ (OpSubexpCall | OpWordBeginEnd),
	}

	Python = &Syntax{
		Name: "python",
		Ops:  OpAll &^ (OpSubexpCall | OpPossessive | OpAtomicGroup | OpBeginPosition | OpSemiEndBuf | OpWordBeginEnd),
	}

	PosixExtended = &Syntax{
		Name: "posix-extended",
		Ops:  OpInterval | OpLineAnchors | OpCTypes,
	}

	GNU = &Syntax{
		Name: "gnu",
		Ops:  OpBackref | OpInterval | OpLineAnchors | OpBufAnchors | OpWordBoundary | OpWordBeginEnd | OpCTypes,
	}
)

// Default is the dialect used when none is configured.
var Default = Ruby

var presets = map[string]*Syntax{
	Ruby.Name:          Ruby,
	Perl.Name:          Perl,
	Java.Name:          Java,
	Python.Name:        Python,
	PosixExtended.Name: PosixExtended,
	GNU.Name:           GNU,
}

// Lookup returns the preset with the given name.
func Lookup(name string) (*Syntax, bool) {
	s, ok := presets[strings.ToLower(name)]
	return s, ok
}

// ErrRejected is the sentinel matched by every RejectError.
var ErrRejected = errors.New("construct not allowed by syntax")

// RejectError reports a construct the dialect does not allow.
type RejectError struct {
	Syntax    string
	Construct Op
}

// Error implements the error interface.
func (e *RejectError) Error() string {
	return fmt.Sprintf("regexp: %s not allowed by %s syntax", e.Construct, e.Syntax)
}

// Unwrap returns ErrRejected.
func (e *RejectError) Unwrap() error {
	return ErrRejected
}

// Validate walks n and returns a *RejectError for the first construct the
// dialect does not allow.
func (s *Syntax) Validate(n ast.Node) error {
	var err error
	ast.Walk(n, func(n ast.Node) bool {
		if err != nil {
			return false
		}
		if op := required(n); op != 0 && !s.Allows(op) {
			err = &RejectError{Syntax: s.Name, Construct: op &^ s.Ops}
			return false
		}
		return true
	})
	return err
}

func required(n ast.Node) Op {
	switch n := n.(type) {
	case *ast.Backreference:
		return OpBackref
	case *ast.Call:
		return OpSubexpCall
	case *ast.CharClass:
		if len(n.Types) > 0 {
			return OpCTypes
		}
	case *ast.Quantifier:
		var op Op
		if n.Possessive {
			op |= OpPossessive
		} else if !n.Greedy {
			op |= OpLazy
		}
		if !isSimpleRange(n.Min, n.Max) {
			op |= OpInterval
		}
		return op
	case *ast.Enclose:
		switch n.Type {
		case ast.EncloseCapture:
			if n.Name != "" {
				return OpNamedGroup
			}
		case ast.EncloseOption:
			return OpOptionScope
		case ast.EncloseLookAhead:
			return OpLookAhead
		case ast.EncloseLookBehind:
			return OpLookBehind
		case ast.EncloseAtomic:
			return OpAtomicGroup
		}
	case *ast.Anchor:
		switch n.Type {
		case ast.BeginBuf, ast.EndBuf:
			return OpBufAnchors
		case ast.SemiEndBuf:
			return OpSemiEndBuf
		case ast.BeginLine, ast.EndLine:
			return OpLineAnchors
		case ast.BeginPosition:
			return OpBeginPosition
		case ast.WordBoundary, ast.NotWordBoundary:
			return OpWordBoundary
		case ast.WordBegin, ast.WordEnd:
			return OpWordBeginEnd
		}
	}
	return 0
}

// isSimpleRange reports whether {min,max} is spelled *, + or ?.
func isSimpleRange(min, max int) bool {
	switch {
	case min == 0 && max == ast.Infinite,
		min == 1 && max == ast.Infinite,
		min == 0 && max == 1:
		return true
	}
	return false
}
