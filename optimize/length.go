package optimize

import (
	"errors"

	"github.com/coregx/btregex/ast"
)

// MinLength returns the minimum byte length of n's matches.
func MinLength(n ast.Node, env *Env) int {
	return lengthOf(n, env).Min
}

// MaxLength returns the maximum byte length of n's matches, or
// InfiniteDistance.
func MaxLength(n ast.Node, env *Env) int {
	return lengthOf(n, env).Max
}

// Length returns both bounds of n's match length.
func Length(n ast.Node, env *Env) MinMaxLen {
	return lengthOf(n, env)
}

func lengthOf(n ast.Node, env *Env) MinMaxLen {
	var l MinMaxLen
	switch n := n.(type) {
	case *ast.Sequence:
		for _, c := range n.Nodes {
			l.Add(lengthOf(c, env))
		}
	case *ast.Alternation:
		for i, c := range n.Nodes {
			if i == 0 {
				l = lengthOf(c, env)
			} else {
				l.AltMerge(lengthOf(c, env))
			}
		}
	case *ast.Literal:
		if n.IgnoreCase || env.Options&ast.IgnoreCase != 0 {
			return foldedLength([]byte(n.Text), env.Enc)
		}
		l.Set(len(n.Text), len(n.Text))
	case *ast.CharClass:
		if n.Negated || n.IgnoreCase || env.Options&ast.IgnoreCase != 0 || len(n.Types) > 0 || !asciiOnly(n.Ranges) {
			l.Set(env.Enc.MinLength(), env.Enc.MaxLength())
		} else {
			l.Set(1, 1)
		}
	case *ast.AnyChar:
		l.Set(env.Enc.MinLength(), env.Enc.MaxLength())
	case *ast.Backreference:
		return backrefLength(n, env)
	case *ast.Call:
		g, ok := env.Groups[n.Group]
		if !ok || env.visiting.Contains(n.Group) {
			l.Set(0, InfiniteDistance)
			break
		}
		return lengthOf(g, env)
	case *ast.Quantifier:
		t := lengthOf(n.Node, env)
		l.Min = distanceMultiply(t.Min, n.Min)
		switch {
		case n.Max == 0 || t.Max == 0:
			l.Max = 0
		case n.IsInfinite():
			l.Max = InfiniteDistance
		default:
			l.Max = distanceMultiply(t.Max, n.Max)
		}
	case *ast.Enclose:
		switch n.Type {
		case ast.EncloseLookAhead, ast.EncloseLookBehind:
			// zero width
		case ast.EncloseOption:
			saved := env.Options
			env.Options = (env.Options | n.On) &^ n.Off
			l = lengthOf(n.Node, env)
			env.Options = saved
		case ast.EncloseCapture:
			fresh := env.visiting.Insert(n.Group)
			l = lengthOf(n.Node, env)
			if fresh {
				env.visiting.Remove(n.Group)
			}
		default:
			l = lengthOf(n.Node, env)
		}
	}
	return l
}

// backrefLength bounds a backreference by the groups it may refer to.
// A reference into a group still being walked is unbounded.
func backrefLength(br *ast.Backreference, env *Env) MinMaxLen {
	var l MinMaxLen
	for i, g := range br.Groups {
		node, ok := env.Groups[g]
		if !ok || env.visiting.Contains(g) {
			l.Set(0, InfiniteDistance)
			return l
		}
		t := lengthOf(node, env)
		if i == 0 {
			l = t
		} else {
			l.AltMerge(t)
		}
	}
	return l
}

// ErrVariableLength is returned by CharLength for subtrees whose matches
// do not all have the same number of characters.
var ErrVariableLength = errors.New("variable-length subtree")

// ErrTopAltVariableLength is returned by CharLength when only the
// top-level alternation differs in length; each branch is fixed.
var ErrTopAltVariableLength = errors.New("top-level alternatives differ in length")

// CharLength returns the fixed number of characters every match of n has.
func CharLength(n ast.Node, env *Env) (int, error) {
	return charLength(n, env, 0)
}

//nolint:gocyclo,cyclop // one case per node kind
func charLength(n ast.Node, env *Env, level int) (int, error) {
	level++
	switch n := n.(type) {
	case *ast.Sequence:
		total := 0
		for _, c := range n.Nodes {
			l, err := charLength(c, env, level)
			if err != nil {
				return 0, ErrVariableLength
			}
			total += l
		}
		return total, nil
	case *ast.Alternation:
		first := -1
		varlen := false
		for _, c := range n.Nodes {
			l, err := charLength(c, env, level)
			if err != nil {
				return 0, ErrVariableLength
			}
			if first < 0 {
				first = l
			} else if l != first {
				varlen = true
			}
		}
		if varlen {
			if level == 1 {
				return 0, ErrTopAltVariableLength
			}
			return 0, ErrVariableLength
		}
		if first < 0 {
			first = 0
		}
		return first, nil
	case *ast.Literal:
		count := 0
		for b := []byte(n.Text); len(b) > 0; count++ {
			_, size := env.Enc.Decode(b)
			b = b[size:]
		}
		return count, nil
	case *ast.CharClass, *ast.AnyChar:
		return 1, nil
	case *ast.Anchor:
		return 0, nil
	case *ast.Backreference:
		return 0, ErrVariableLength
	case *ast.Call:
		g, ok := env.Groups[n.Group]
		if !ok || env.visiting.Contains(n.Group) {
			return 0, ErrVariableLength
		}
		return charLength(g, env, level)
	case *ast.Quantifier:
		if n.Min != n.Max {
			return 0, ErrVariableLength
		}
		l, err := charLength(n.Node, env, level)
		if err != nil {
			return 0, ErrVariableLength
		}
		return l * n.Min, nil
	case *ast.Enclose:
		switch n.Type {
		case ast.EncloseLookAhead, ast.EncloseLookBehind:
			return 0, nil
		case ast.EncloseCapture:
			fresh := env.visiting.Insert(n.Group)
			l, err := charLength(n.Node, env, level)
			if fresh {
				env.visiting.Remove(n.Group)
			}
			return l, err
		default:
			return charLength(n.Node, env, level)
		}
	}
	return 0, ErrVariableLength
}
