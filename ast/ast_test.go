package ast

import (
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{`abc`, "lit \"abc\"\n"},
		{`^a`, "seq\n  anchor ^\n  lit \"a\"\n"},
		{`a*?`, "repeat {0,inf} lazy\n  lit \"a\"\n"},
		{`a{2,5}`, "repeat {2,5}\n  lit \"a\"\n"},
		{`a{3,}`, "repeat {3,inf}\n  lit \"a\"\n"},
		{`(?P<x>.)`, "capture 1 <x>\n  any\n"},
		{`(?s).`, "any /m\n"},
		{`[0-9]`, "class ['0'-'9']\n"},
		{`\bx\B`, "seq\n  anchor \\b\n  lit \"x\"\n  anchor \\B\n"},
		{`(?i)ab`, "lit \"AB\" /i\n"},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			n, err := Parse(tt.pattern)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.pattern, err)
			}
			if got := String(n); got != tt.want {
				t.Errorf("Parse(%q) =\n%s\nwant\n%s", tt.pattern, got, tt.want)
			}
		})
	}
}

func TestParseError(t *testing.T) {
	if _, err := Parse(`a(`); err == nil {
		t.Error("Parse(`a(`) should fail")
	}
}

func TestGroups(t *testing.T) {
	n := MustParse(`(a)(?:b(c))|(d)`)
	if got := NumGroups(n); got != 3 {
		t.Errorf("NumGroups = %d, want 3", got)
	}
	groups := Groups(n)
	for i := 1; i <= 3; i++ {
		if groups[i] == nil {
			t.Errorf("group %d missing", i)
		}
	}
}

func TestWalkSkip(t *testing.T) {
	n := Cat(Group(1, Lit("a")), Lit("b"))
	var seen []Kind
	Walk(n, func(n Node) bool {
		seen = append(seen, n.Kind())
		return n.Kind() != KindEnclose
	})
	want := []Kind{KindSequence, KindEnclose, KindLiteral}
	if len(seen) != len(want) {
		t.Fatalf("Walk visited %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("Walk visited %v, want %v", seen, want)
		}
	}
}

func TestStringHandBuilt(t *testing.T) {
	n := Cat(
		Named(1, "p", Cat(Lit("a"), Quest(CallGroup(1)), Lit("b"))),
		Backref(1),
		LookBehind(Lit("x"), true),
		Possessive(Class('a', 'z'), 1, Infinite),
		Atomic(Lit("y")),
	)
	s := String(n)
	for _, want := range []string{"capture 1 <p>", "call 1", "backref [1]", "lookbehind not", "possessive", "atomic"} {
		if !strings.Contains(s, want) {
			t.Errorf("String() missing %q:\n%s", want, s)
		}
	}
}
