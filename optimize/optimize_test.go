package optimize

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/coregx/btregex/ast"
	"github.com/coregx/btregex/enc"
)

func compute(n ast.Node) NodeOptInfo {
	return Compute(n, NewEnv(n, 0, enc.UTF8))
}

func TestDistanceArithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  int
		want int
	}{
		{"add", distanceAdd(3, 4), 7},
		{"add infinite", distanceAdd(InfiniteDistance, 1), InfiniteDistance},
		{"add overflow", distanceAdd(InfiniteDistance-1, 5), InfiniteDistance},
		{"mul", distanceMultiply(3, 4), 12},
		{"mul zero", distanceMultiply(InfiniteDistance, 0), 0},
		{"mul infinite", distanceMultiply(InfiniteDistance, 2), InfiniteDistance},
		{"value exact", distanceValue(MinMaxLen{5, 5}), 1000},
		{"value span 9", distanceValue(MinMaxLen{1, 10}), 100},
		{"value infinite", distanceValue(MinMaxLen{0, InfiniteDistance}), 0},
		{"value wide", distanceValue(MinMaxLen{0, 500}), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.want)
		}
	}
}

func TestCompareDistanceValue(t *testing.T) {
	exact := MinMaxLen{0, 0}
	loose := MinMaxLen{0, 9}
	tests := []struct {
		d1, d2 MinMaxLen
		v1, v2 int
		want   int
	}{
		{exact, exact, 10, 0, -1},
		{exact, exact, 0, 10, 1},
		{exact, exact, 10, 20, 1},
		{exact, loose, 10, 20, -1},
		{MinMaxLen{2, 2}, MinMaxLen{1, 1}, 10, 10, 1},
		{exact, exact, 10, 10, 0},
	}
	for _, tt := range tests {
		if got := compareDistanceValue(tt.d1, tt.d2, tt.v1, tt.v2); got != tt.want {
			t.Errorf("compareDistanceValue(%v, %v, %d, %d) = %d, want %d", tt.d1, tt.d2, tt.v1, tt.v2, got, tt.want)
		}
	}
}

var lawPatterns = []string{`abc`, `^ab`, `a|b`, `a*b`, `(?:ab){2,3}`, `.*x`, `[a-c]+d`, `\Aq$`}

// Alternation with itself changes neither length nor anchors.
func TestAltMergeIdempotent(t *testing.T) {
	for _, p := range lawPatterns {
		x := compute(ast.MustParse(p))
		y := x.Copy()
		z := x.Copy()
		y.AltMerge(&z, enc.UTF8)
		if y.Length != x.Length {
			t.Errorf("%q: AltMerge(self) length = %v, want %v", p, y.Length, x.Length)
		}
		if y.Anchor != x.Anchor {
			t.Errorf("%q: AltMerge(self) anchor = %v, want %v", p, y.Anchor, x.Anchor)
		}
	}
}

// Concatenating an empty node on either side preserves the length.
func TestConcatEmptyIdentity(t *testing.T) {
	for _, p := range lawPatterns {
		x := compute(ast.MustParse(p))

		var empty NodeOptInfo
		empty.Clear()
		right := x.Copy()
		empty.ConcatLeftNode(&right, enc.UTF8)
		if empty.Length != x.Length {
			t.Errorf("%q: empty+X length = %v, want %v", p, empty.Length, x.Length)
		}

		left := x.Copy()
		var e2 NodeOptInfo
		e2.Clear()
		left.ConcatLeftNode(&e2, enc.UTF8)
		if left.Length != x.Length {
			t.Errorf("%q: X+empty length = %v, want %v", p, left.Length, x.Length)
		}
	}
}

func TestComputeLiteral(t *testing.T) {
	opt := compute(ast.Lit("abc"))
	if opt.Length != (MinMaxLen{3, 3}) {
		t.Errorf("length = %v", opt.Length)
	}
	if got := string(opt.Exb.Bytes()); got != "abc" {
		t.Errorf("exb = %q, want %q", got, "abc")
	}
	if !opt.Exb.ReachEnd || opt.Exb.IgnoreCase != 0 {
		t.Errorf("exb reachEnd=%v ignoreCase=%d", opt.Exb.ReachEnd, opt.Exb.IgnoreCase)
	}
	if !opt.Map.Map['a'] || opt.Map.Value != positionValue('a') {
		t.Errorf("map does not hold exactly 'a'")
	}
}

func TestComputeFoldLiteral(t *testing.T) {
	opt := compute(ast.FoldLit("ab"))
	if got := string(opt.Exb.Bytes()); got != "AB" {
		t.Errorf("exb = %q, want folded %q", got, "AB")
	}
	if opt.Exb.IgnoreCase != 1 {
		t.Errorf("exb ignoreCase = %d, want 1", opt.Exb.IgnoreCase)
	}
	if !opt.Map.Map['a'] || !opt.Map.Map['A'] {
		t.Error("map should hold both cases of 'a'")
	}

	// 'k' folds with the three-byte Kelvin sign.
	if got := compute(ast.FoldLit("k")).Length; got != (MinMaxLen{1, 3}) {
		t.Errorf("length of /k/i = %v, want {1 3}", got)
	}
}

func TestComputeLengths(t *testing.T) {
	tests := []struct {
		name string
		node ast.Node
		want MinMaxLen
	}{
		{"star", ast.MustParse(`a*`), MinMaxLen{0, InfiniteDistance}},
		{"counted", ast.MustParse(`(?:ab){1,3}`), MinMaxLen{2, 6}},
		{"alt", ast.MustParse(`ab|cde`), MinMaxLen{2, 3}},
		{"any", ast.MustParse(`.`), MinMaxLen{1, 4}},
		{"class", ast.MustParse(`[a-z]`), MinMaxLen{1, 1}},
		{"negated class", ast.MustParse(`[^a]`), MinMaxLen{1, 4}},
		{"empty star", ast.Star(ast.Cat()), MinMaxLen{0, 0}},
		{"backref", ast.Cat(ast.Group(1, ast.Alt(ast.Lit("ab"), ast.Lit("c"))), ast.Backref(1)), MinMaxLen{2, 4}},
		{"lookahead", ast.LookAhead(ast.Lit("abc"), false), MinMaxLen{0, 0}},
		{
			"recursive call",
			ast.Named(1, "p", ast.Cat(ast.Lit("a"), ast.Quest(ast.CallGroup(1)), ast.Lit("b"))),
			MinMaxLen{2, InfiniteDistance},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compute(tt.node).Length; got != tt.want {
				t.Errorf("length = %v, want %v", got, tt.want)
			}
			env := NewEnv(tt.node, 0, enc.UTF8)
			if got := Length(tt.node, env); got != tt.want {
				t.Errorf("Length() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeAnchors(t *testing.T) {
	tests := []struct {
		pattern string
		want    AnchorInfo
	}{
		{`^abc`, AnchorInfo{Left: AnchorBeginLine}},
		{`a^`, AnchorInfo{}},
		{`a$`, AnchorInfo{Right: AnchorEndLine}},
		{`$a`, AnchorInfo{}},
		{`\Aa|\Ab`, AnchorInfo{Left: AnchorBeginBuf}},
		{`\Aa|b`, AnchorInfo{}},
		{`.*a`, AnchorInfo{Left: AnchorAnyCharStar}},
		{`(?s).*a`, AnchorInfo{Left: AnchorAnyCharStarML}},
		{`a.*`, AnchorInfo{}},
	}
	for _, tt := range tests {
		if got := compute(ast.MustParse(tt.pattern)).Anchor; got != tt.want {
			t.Errorf("%q anchors = %+v, want %+v", tt.pattern, got, tt.want)
		}
	}
}

func TestAnyCharStarDroppedForBackrefedGroup(t *testing.T) {
	n := ast.Cat(ast.Group(1, ast.Star(&ast.AnyChar{})), ast.Lit("x"), ast.Backref(1))
	if got := compute(n).Anchor.Left; got&AnchorAnyCharStarMask != 0 {
		t.Errorf("anchor %v kept anychar-star for a backreferenced group", got)
	}
}

func TestQuantifierExactRepetition(t *testing.T) {
	opt := compute(ast.Repeat(ast.Lit("ab"), 3, 3))
	if got := string(opt.Exb.Bytes()); got != "ababab" {
		t.Errorf("exb = %q, want %q", got, "ababab")
	}
	if !opt.Exb.ReachEnd {
		t.Error("fixed repeat should keep reachEnd")
	}

	opt = compute(ast.Repeat(ast.Lit("ab"), 1, 3))
	if got := string(opt.Exb.Bytes()); got != "ab" {
		t.Errorf("exb = %q, want %q", got, "ab")
	}
	if opt.Exb.ReachEnd {
		t.Error("variable repeat must clear reachEnd")
	}
}

func TestExactCap(t *testing.T) {
	long := "abcdefghijklmnopqrstuvwxyz0123"
	opt := compute(ast.Lit(long))
	if opt.Exb.Len() != MaxExactLen {
		t.Errorf("exb length = %d, want %d", opt.Exb.Len(), MaxExactLen)
	}
	if opt.Exb.ReachEnd {
		t.Error("truncated hint must not reach end")
	}
	// multi-byte characters are never split
	opt = compute(ast.Lit("aaaaaaaaaaaaaaaaaaaaaaa日"))
	if opt.Exb.Len() != 23 {
		t.Errorf("exb length = %d, want 23", opt.Exb.Len())
	}
}

// A lookahead hint is cut to the finite max of the following sibling, and
// left whole when that sibling is unbounded.
func TestLookaheadHintTruncation(t *testing.T) {
	tests := []struct {
		name     string
		node     ast.Node
		wantExb  string
		wantExpr int
	}{
		{"finite", ast.Cat(ast.LookAhead(ast.Lit("abc"), false), ast.Lit("a")), "a", 1},
		{"bounded repeat", ast.Cat(ast.LookAhead(ast.Lit("abc"), false), ast.Repeat(ast.Lit("a"), 0, 2)), "ab", 2},
		{"infinite", ast.Cat(ast.LookAhead(ast.Lit("abc"), false), ast.Star(ast.Lit("a"))), "abc", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opt := compute(tt.node)
			if got := string(opt.Exb.Bytes()); got != tt.wantExb {
				t.Errorf("exb = %q, want %q", got, tt.wantExb)
			}
			if opt.Expr.Len() != tt.wantExpr {
				t.Errorf("expr length = %d, want %d", opt.Expr.Len(), tt.wantExpr)
			}
			if opt.Expr.Len() < 0 {
				t.Error("expr length went negative")
			}
		})
	}
}

func TestAltMergeCommonPrefix(t *testing.T) {
	opt := compute(ast.Alt(ast.Lit("abcd"), ast.Lit("abxy")))
	if got := string(opt.Exb.Bytes()); got != "ab" {
		t.Errorf("exb = %q, want %q", got, "ab")
	}
	if opt.Exb.ReachEnd {
		t.Error("common prefix must not reach end")
	}
	if !opt.Map.Map['a'] || opt.Map.Map['b'] {
		t.Error("map should hold only 'a'")
	}
}

func TestCharLength(t *testing.T) {
	tests := []struct {
		name    string
		node    ast.Node
		want    int
		wantErr error
	}{
		{"literal", ast.Lit("abc"), 3, nil},
		{"multibyte", ast.Lit("日本"), 2, nil},
		{"fixed repeat", ast.Repeat(ast.Class('a', 'z'), 2, 2), 2, nil},
		{"same-length alt", ast.Alt(ast.Lit("ab"), ast.Lit("cd")), 2, nil},
		{"top alt", ast.Alt(ast.Lit("a"), ast.Lit("bc")), 0, ErrTopAltVariableLength},
		{"nested alt", ast.Cat(ast.Lit("a"), ast.Alt(ast.Lit("b"), ast.Lit("cd"))), 0, ErrVariableLength},
		{"star", ast.Star(ast.Lit("a")), 0, ErrVariableLength},
		{"backref", ast.Backref(1), 0, ErrVariableLength},
		{"anchor", ast.Cat(ast.At(ast.WordBoundary), ast.Lit("x")), 1, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CharLength(tt.node, NewEnv(tt.node, 0, enc.UTF8))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("CharLength error = %v, want %v", err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("CharLength = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSearchInfo(t *testing.T) {
	tests := []struct {
		pattern string
		want    SearchInfo
	}{
		{`abc`, SearchInfo{Kind: HintExact, Exact: []byte("abc"), Threshold: 3, Length: MinMaxLen{3, 3}}},
		{`^abc`, SearchInfo{Kind: HintExact, Exact: []byte("abc"), Threshold: 3, SubAnchor: AnchorBeginLine, Length: MinMaxLen{3, 3}}},
		{
			`\Aab\z`,
			SearchInfo{
				Anchor: AnchorBeginBuf | AnchorEndBuf, AnchorDmin: 2, AnchorDmax: 2,
				Kind: HintExact, Exact: []byte("ab"), Threshold: 2, Length: MinMaxLen{2, 2},
			},
		},
		{
			`.*abc`,
			SearchInfo{
				Anchor: AnchorAnyCharStar, Kind: HintExact, Exact: []byte("abc"),
				Dmax: InfiniteDistance, Threshold: 3, Length: MinMaxLen{3, InfiniteDistance},
			},
		},
		{`x?yz`, SearchInfo{Kind: HintExact, Exact: []byte("yz"), Dmax: 1, Threshold: 2, Length: MinMaxLen{2, 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			got := NewSearchInfo(ast.MustParse(tt.pattern), 0, enc.UTF8)
			if diff := cmp.Diff(&tt.want, got); diff != "" {
				t.Errorf("NewSearchInfo(%q) mismatch (-want +got):\n%s", tt.pattern, diff)
			}
		})
	}
}

func TestSearchInfoMap(t *testing.T) {
	si := NewSearchInfo(ast.MustParse(`a|b`), 0, enc.UTF8)
	if si.Kind != HintMap {
		t.Fatalf("kind = %v, want map", si.Kind)
	}
	if got := string(si.MapBytes()); got != "ab" {
		t.Errorf("map bytes = %q, want %q", got, "ab")
	}
	if si.Threshold != 1 {
		t.Errorf("threshold = %d, want 1", si.Threshold)
	}
}

func TestSearchInfoNoHint(t *testing.T) {
	si := NewSearchInfo(ast.MustParse(`^.`), 0, enc.UTF8)
	if si.Kind != HintNone {
		t.Errorf("kind = %v, want none", si.Kind)
	}
	if si.SubAnchor != AnchorBeginLine {
		t.Errorf("sub anchor = %v, want begin-line", si.SubAnchor)
	}
}
