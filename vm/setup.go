package vm

import (
	"github.com/coregx/btregex/ast"
	"github.com/coregx/btregex/internal/bitset"
	"github.com/coregx/btregex/internal/sparse"
	"github.com/coregx/btregex/optimize"
)

// EmptyCheck selects the null check wrapped around a repeat body that can
// match the empty string.
type EmptyCheck uint8

// Empty check kinds.
const (
	// EmptyNone: the body always consumes input.
	EmptyNone EmptyCheck = iota
	// EmptyPlain compares positions only.
	EmptyPlain
	// EmptyMem also compares captures opened inside the body.
	EmptyMem
	// EmptyRec is EmptyMem for bodies that reach a recursive call.
	EmptyRec
)

// QuantInfo is what the setup pass learned about one quantifier.
type QuantInfo struct {
	Empty EmptyCheck
	// InRepeat is set when the quantifier sits inside another repeat.
	InRepeat bool
}

type setupState uint8

const (
	inAlt setupState = 1 << iota
	inNot
	inRepeat
	inVarRepeat
	inCall
)

type analysis struct {
	groups  map[int]*ast.Enclose
	numMem  int
	numCall int

	called     bitset.Set
	recursive  bitset.Set
	backrefed  bitset.Set
	btMemStart bitset.Set
	btMemEnd   bitset.Set

	quants map[*ast.Quantifier]QuantInfo
	env    *optimize.Env
}

func analyze(root ast.Node, env *optimize.Env, opts ast.Options) (*analysis, error) {
	a := &analysis{
		groups: env.Groups,
		numMem: ast.NumGroups(root),
		quants: make(map[*ast.Quantifier]QuantInfo),
		env:    env,
	}

	var err error
	ast.Walk(root, func(n ast.Node) bool {
		if err != nil {
			return false
		}
		switch n := n.(type) {
		case *ast.Backreference:
			if len(n.Groups) == 0 {
				err = &CompileError{Node: "backreference", Err: ErrInvalidBackref}
				return false
			}
			for _, g := range n.Groups {
				if g <= 0 {
					err = &CompileError{Node: "backreference", Err: ErrInvalidBackref}
					return false
				}
				if _, ok := a.groups[g]; !ok {
					err = &CompileError{Node: "backreference", Err: ErrUndefinedGroup}
					return false
				}
				a.backrefed.Add(g)
			}
		case *ast.Call:
			if _, ok := a.groups[n.Group]; !ok {
				err = &CompileError{Node: "call", Err: ErrUndefinedGroup}
				return false
			}
			a.called.Add(n.Group)
			a.numCall++
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	if a.numCall > 0 {
		visiting := sparse.New(a.numMem + 1)
		for _, g := range a.called.Members() {
			visiting.Clear()
			if a.reaches(a.groups[g].Node, g, visiting) {
				a.recursive.Add(g)
			}
		}
		for _, g := range a.recursive.Members() {
			visiting.Clear()
			if a.headCall(a.groups[g].Node, g, visiting) {
				return nil, &CompileError{Node: "call", Err: ErrNeverEndingRecursion}
			}
		}
	}

	a.setup(root, 0)

	if opts&(ast.FindLongest|ast.FindNotEmpty) != 0 {
		for g := 1; g <= a.numMem; g++ {
			a.btMemEnd.Add(g)
		}
	}
	return a, nil
}

// reaches reports whether n can call group target, directly or through
// other calls.
func (a *analysis) reaches(n ast.Node, target int, visiting *sparse.Set) bool {
	found := false
	ast.Walk(n, func(n ast.Node) bool {
		if found {
			return false
		}
		call, ok := n.(*ast.Call)
		if !ok {
			return true
		}
		if call.Group == target {
			found = true
			return false
		}
		if visiting.Insert(call.Group) && a.reaches(a.groups[call.Group].Node, target, visiting) {
			found = true
		}
		return false
	})
	return found
}

// headCall reports whether n can reach a call to target before consuming
// any input.
//
//nolint:gocyclo,cyclop // one case per node kind
func (a *analysis) headCall(n ast.Node, target int, visiting *sparse.Set) bool {
	switch n := n.(type) {
	case *ast.Sequence:
		for _, c := range n.Nodes {
			if a.headCall(c, target, visiting) {
				return true
			}
			if optimize.MinLength(c, a.env) > 0 {
				return false
			}
		}
	case *ast.Alternation:
		for _, c := range n.Nodes {
			if a.headCall(c, target, visiting) {
				return true
			}
		}
	case *ast.Quantifier:
		return n.Min > 0 && a.headCall(n.Node, target, visiting)
	case *ast.Enclose:
		if n.Type == ast.EncloseLookBehind {
			return false
		}
		return a.headCall(n.Node, target, visiting)
	case *ast.Call:
		if n.Group == target {
			return true
		}
		if visiting.Insert(n.Group) {
			return a.headCall(a.groups[n.Group].Node, target, visiting)
		}
	}
	return false
}

//nolint:gocyclo,cyclop // one case per node kind
func (a *analysis) setup(n ast.Node, state setupState) {
	switch n := n.(type) {
	case *ast.Sequence:
		for _, c := range n.Nodes {
			a.setup(c, state)
		}
	case *ast.Alternation:
		for _, c := range n.Nodes {
			a.setup(c, state|inAlt)
		}
	case *ast.Quantifier:
		info := QuantInfo{InRepeat: state&inRepeat != 0}
		if n.Max >= 1 && optimize.MinLength(n.Node, a.env) == 0 {
			switch {
			case a.reachesRecursion(n.Node):
				info.Empty = EmptyRec
			case containsCapture(n.Node):
				info.Empty = EmptyMem
			default:
				info.Empty = EmptyPlain
			}
		}
		a.quants[n] = info

		child := state
		if n.Max != 1 {
			child |= inRepeat
		}
		if n.Min != n.Max {
			child |= inVarRepeat
		}
		a.setup(n.Node, child)
	case *ast.Enclose:
		switch n.Type {
		case ast.EncloseCapture:
			g := n.Group
			if state&(inAlt|inNot|inVarRepeat|inCall) != 0 || a.recursive.Has(g) || a.backrefed.Has(g) {
				a.btMemStart.Add(g)
			}
			if a.called.Has(g) {
				state |= inCall
			}
		case ast.EncloseLookAhead, ast.EncloseLookBehind:
			if n.Negate {
				state |= inNot
			}
		}
		a.setup(n.Node, state)
	}
}

// reachesRecursion reports whether n calls a recursive group.
func (a *analysis) reachesRecursion(n ast.Node) bool {
	found := false
	ast.Walk(n, func(n ast.Node) bool {
		if call, ok := n.(*ast.Call); ok && a.recursive.Has(call.Group) {
			found = true
		}
		return !found
	})
	return found
}

func containsCapture(n ast.Node) bool {
	found := false
	ast.Walk(n, func(n ast.Node) bool {
		if e, ok := n.(*ast.Enclose); ok && e.Type == ast.EncloseCapture {
			found = true
		}
		return !found
	})
	return found
}
