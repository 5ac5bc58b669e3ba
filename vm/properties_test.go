package vm

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coregx/btregex/ast"
)

func TestMatchDeterministic(t *testing.T) {
	node := ast.Cat(
		ast.Group(1, ast.Alt(ast.Lit("foo"), ast.Lit("foobar"))),
		ast.Star(ast.Class('a', 'z')),
		ast.Backref(1),
	)
	prog := mustCompile(t, node, 0)
	text := []byte("foobarxyzfoobar")

	var first string
	for i := 0; i < 5; i++ {
		m := NewMatcher(prog)
		m.Reset(text, 0, len(text))
		r, err := m.MatchAt(context.Background(), 0, 0)
		require.NoError(t, err)
		require.NotNil(t, r)
		if i == 0 {
			first = r.String()
			continue
		}
		require.Equal(t, first, r.String(), "run %d", i)
	}
}

// A loop that never leaves a choice point behind keeps the stack depth
// independent of the input length.
func TestMatchBoundedStack(t *testing.T) {
	prog := mustCompile(t, ast.Cat(ast.Possessive(ast.Lit("a"), 0, ast.Infinite), ast.Lit("b")), 0)

	depth := func(n int) int {
		text := []byte(strings.Repeat("a", n) + "b")
		m := NewMatcher(prog)
		m.Reset(text, 0, len(text))
		r, err := m.MatchAt(context.Background(), 0, 0)
		require.NoError(t, err)
		require.NotNil(t, r)
		require.Equal(t, n+1, r.End[0])
		return m.Stats().MaxDepth
	}
	require.Equal(t, depth(4), depth(5000))
}

func TestMatchLookaheadNoLeak(t *testing.T) {
	node := ast.Cat(ast.LookAhead(ast.Group(1, ast.Lit("a")), false), ast.Lit("b"))
	require.Equal(t, "", run(t, node, 0, "ab", 0))
	require.Equal(t, "", run(t, node, 0, "ab", 1))

	node = ast.Cat(ast.LookAhead(ast.Group(1, ast.Lit("a")), false), ast.Lit("ab"))
	require.Equal(t, "(0,2)(0,1)", run(t, node, 0, "ab", 0))
}

func TestMatchNullLoopTerminates(t *testing.T) {
	node := ast.Star(ast.Group(1, ast.Star(ast.Lit("a"))))
	require.Equal(t, "(0,0)(0,0)", run(t, node, 0, "", 0))
	require.Equal(t, "(0,0)(0,0)", run(t, node, 0, "b", 0))
}

func TestMatchBackrefFreshness(t *testing.T) {
	node := ast.Cat(ast.Group(1, ast.Alt(ast.Lit("foo"), ast.Lit("foobar"))), ast.Backref(1))
	require.Equal(t, "(0,12)(0,6)", run(t, node, 0, "foobarfoobar", 0))
	require.Equal(t, "(0,6)(0,3)", run(t, node, 0, "foofoo", 0))
	require.Equal(t, "", run(t, node, 0, "foobarfoo", 0))
}

// Possessive and atomic loops over a body that can match empty must stop
// like plain ones. The deadline turns a runaway loop into a failure.
func TestMatchNullLoopPossessive(t *testing.T) {
	empty := ast.Group(1, ast.Lit(""))
	tests := []struct {
		name string
		node ast.Node
		want string
	}{
		{"empty literal", ast.Cat(ast.Possessive(ast.Lit(""), 0, ast.Infinite), ast.Lit("x")), "(0,1)"},
		{"possessive backreference", ast.Cat(empty, ast.Possessive(ast.Backref(1), 0, ast.Infinite), ast.Lit("x")), "(0,1)(0,0)"},
		{"atomic star", ast.Cat(empty, ast.Atomic(ast.Star(ast.Backref(1))), ast.Lit("x")), "(0,1)(0,0)"},
		{"plain star", ast.Cat(empty, ast.Star(ast.Backref(1)), ast.Lit("x")), "(0,1)(0,0)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prog := mustCompile(t, tt.node, 0)
			requireOp(t, prog, OpNullCheckEnd)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			m := NewMatcher(prog)
			m.Reset([]byte("x"), 0, 1)
			r, err := m.MatchAt(ctx, 0, 0)
			require.NoError(t, err)
			require.NotNil(t, r)
			require.Equal(t, tt.want, r.String())
		})
	}
}

// A zero-width iteration that re-captures a span away from the current
// position fails; the loop keeps the state of the previous iteration.
func TestMatchNullCheckCaptureMoved(t *testing.T) {
	node := ast.Star(ast.LookAhead(ast.Group(1, ast.Lit("a")), false))
	prog := mustCompile(t, node, 0)
	requireOp(t, prog, OpNullCheckEndMemST)
	require.Equal(t, "(0,0)(0,1)", run(t, node, 0, "a", 0))

	// The same loop reaching a recursive group is checked through the
	// recursion-aware variant.
	node = ast.Cat(
		ast.Named(1, "p", ast.Cat(ast.Lit("a"), ast.Quest(ast.CallGroup(1)), ast.Lit("b"))),
		ast.Star(ast.Cat(ast.LookAhead(ast.Group(2, ast.Lit("c")), false), ast.Quest(ast.CallGroup(1)))),
	)
	prog = mustCompile(t, node, 0)
	requireOp(t, prog, OpNullCheckEndMemSTPush)
	require.Equal(t, "(0,2)(0,2)(2,3)", run(t, node, 0, "abc", 0))
}

func requireOp(t *testing.T, prog *Program, op Op) {
	t.Helper()
	for _, in := range prog.Insts {
		if in.Op == op {
			return
		}
	}
	t.Fatalf("program has no %s:\n%s", op, prog)
}
