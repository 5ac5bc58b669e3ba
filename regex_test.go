package btregex

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/coregx/btregex/ast"
	"github.com/coregx/btregex/syntax"
	"github.com/coregx/btregex/vm"
)

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		node   ast.Node
		config func(*Config)
		target error
	}{
		{
			name:   "undefined backreference",
			node:   ast.Cat(ast.Lit("a"), ast.Backref(2)),
			target: vm.ErrUndefinedGroup,
		},
		{
			name:   "possessive rejected by python",
			node:   ast.Possessive(ast.Lit("a"), 1, ast.Infinite),
			config: func(c *Config) { c.Syntax = "python" },
			target: syntax.ErrRejected,
		},
		{
			name:   "variable look-behind",
			node:   ast.LookBehind(ast.Plus(ast.Lit("a")), false),
			target: vm.ErrInvalidLookBehind,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			if tt.config != nil {
				tt.config(&config)
			}
			_, err := Compile(tt.node, config)
			require.Error(t, err)
			require.True(t, errors.Is(err, tt.target), "got %v", err)
		})
	}
}

func TestCompileStringErrors(t *testing.T) {
	for _, pattern := range []string{`a(`, `[z-a]`, `*`, `a**`} {
		_, err := CompileString(pattern, DefaultConfig())
		require.Error(t, err, pattern)
	}

	config := DefaultConfig()
	config.MaxDepth = 1
	_, err := CompileString(`a`, config)
	var cerr *ConfigError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, "MaxDepth", cerr.Field)
}

func TestMustCompilePanics(t *testing.T) {
	require.Panics(t, func() { MustCompile(`a(`) })
	require.NotPanics(t, func() { MustCompile(`a`) })
}

func TestSearchRange(t *testing.T) {
	re := MustCompile(`^abc`)
	text := []byte("xabc")

	region, err := re.Search(context.Background(), text, 0)
	require.NoError(t, err)
	require.Nil(t, region)

	// A window starting inside the text moves the line start with it.
	region, err = re.SearchRange(context.Background(), text, Range{Begin: 1, End: 4, Start: 1, Last: 4})
	require.NoError(t, err)
	require.NotNil(t, region)
	require.Equal(t, "(1,4)", region.String())

	// Start offsets outside [Start, Last] are not tried.
	re = MustCompile(`b`)
	region, err = re.SearchRange(context.Background(), []byte("abcb"), Range{Begin: 0, End: 4, Start: 0, Last: 2})
	require.NoError(t, err)
	require.Equal(t, "(1,2)", region.String())
	region, err = re.SearchRange(context.Background(), []byte("abcb"), Range{Begin: 0, End: 4, Start: 2, Last: 2})
	require.NoError(t, err)
	require.Nil(t, region)

	// The window end hides the rest of the text.
	region, err = re.SearchRange(context.Background(), []byte("aaab"), Range{Begin: 0, End: 3, Start: 0, Last: 3})
	require.NoError(t, err)
	require.Nil(t, region)
}

func TestSearchRangeInvalid(t *testing.T) {
	re := MustCompile(`a`)
	text := []byte("abc")
	for _, rng := range []Range{
		{Begin: -1, End: 3, Start: 0, Last: 3},
		{Begin: 0, End: 4, Start: 0, Last: 3},
		{Begin: 2, End: 1, Start: 2, Last: 2},
		{Begin: 0, End: 3, Start: 2, Last: 1},
		{Begin: 1, End: 3, Start: 0, Last: 3},
	} {
		_, err := re.SearchRange(context.Background(), text, rng)
		require.ErrorIs(t, err, ErrInvalidRange, "%+v", rng)
	}

	_, err := re.MatchAt(context.Background(), text, 4, 0)
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestConstructs(t *testing.T) {
	tests := []struct {
		name string
		node ast.Node
		text string
		want string // region, or "" for no match
	}{
		{
			name: "backreference",
			node: ast.Cat(ast.Group(1, ast.Class('a', 'z')), ast.Backref(1)),
			text: "abccd",
			want: "(2,4)(2,3)",
		},
		{
			name: "case-insensitive backreference",
			node: ast.Cat(ast.Group(1, ast.Lit("ab")), &ast.Backreference{Groups: []int{1}, IgnoreCase: true}),
			text: "xabAB",
			want: "(1,5)(1,3)",
		},
		{
			name: "look-behind",
			node: ast.Cat(ast.LookBehind(ast.Lit("$"), false), ast.Plus(ast.Class('0', '9'))),
			text: "cost 12 $42",
			want: "(9,11)",
		},
		{
			name: "negative look-ahead",
			node: ast.Cat(ast.Lit("foo"), ast.LookAhead(ast.Lit("bar"), true)),
			text: "foobar foobaz",
			want: "(7,10)",
		},
		{
			name: "atomic group gives nothing back",
			node: ast.Cat(ast.Atomic(ast.Plus(ast.Lit("a"))), ast.Lit("a")),
			text: "aaa",
			want: "",
		},
		{
			name: "possessive repetition",
			node: ast.Cat(ast.Possessive(ast.Class('a', 'z'), 0, ast.Infinite), ast.Lit("z")),
			text: "abcz",
			want: "",
		},
		{
			name: "recursive call",
			node: ast.Named(1, "p", ast.Cat(ast.Lit("a"), ast.Quest(ast.CallGroup(1)), ast.Lit("b"))),
			text: "xaabbx",
			want: "(1,5)(1,5)",
		},
		{
			name: "begin position",
			node: ast.Cat(ast.At(ast.BeginPosition), ast.Lit("ab")),
			text: "abab",
			want: "(0,2)",
		},
		{
			name: "semi end buf",
			node: ast.Cat(ast.Lit("end"), ast.At(ast.SemiEndBuf)),
			text: "end end\n",
			want: "(4,7)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, err := Compile(tt.node, DefaultConfig())
			require.NoError(t, err)

			region, err := re.Search(context.Background(), []byte(tt.text), 0)
			require.NoError(t, err)
			if tt.want == "" {
				require.Nil(t, region)
				return
			}
			require.NotNil(t, region)
			require.Equal(t, tt.want, region.String())
		})
	}
}

func TestBeginPositionFollowsStart(t *testing.T) {
	re, err := Compile(ast.Cat(ast.At(ast.BeginPosition), ast.Lit("ab")), DefaultConfig())
	require.NoError(t, err)
	text := []byte("abab")

	region, err := re.Search(context.Background(), text, 2)
	require.NoError(t, err)
	require.Equal(t, "(2,4)", region.String())

	region, err = re.Search(context.Background(), text, 1)
	require.NoError(t, err)
	require.Nil(t, region)
}

func TestBeginLineAtTextEnd(t *testing.T) {
	// ^ does not match after a final newline.
	re := MustCompile(`^`)
	require.Equal(t, [][]int{{0, 0}, {2, 2}}, re.FindAllIndex([]byte("a\nb"), -1))
	require.Equal(t, [][]int{{0, 0}}, re.FindAllIndex([]byte("a\n"), -1))
}

func TestMatchAt(t *testing.T) {
	re := MustCompile(`b+`)
	text := []byte("abbc")

	region, err := re.MatchAt(context.Background(), text, 0, 0)
	require.NoError(t, err)
	require.Nil(t, region)

	region, err = re.MatchAt(context.Background(), text, 1, 0)
	require.NoError(t, err)
	require.Equal(t, "(1,3)", region.String())
}

func TestFindLongest(t *testing.T) {
	config := DefaultConfig()
	config.OptionNames = []string{"find-longest"}
	re, err := CompileString(`a|ab|abc`, config)
	require.NoError(t, err)
	require.Equal(t, []int{1, 4}, re.FindStringIndex("xabcx"))

	re = MustCompile(`a|ab|abc`)
	require.Equal(t, []int{1, 2}, re.FindStringIndex("xabcx"))

	// Longest over all starts, the leftmost among equals.
	re, err = CompileString(`b+|c+`, config)
	require.NoError(t, err)
	require.Equal(t, []int{2, 5}, re.FindStringIndex("abcccbb"))
}

func TestFindNotEmpty(t *testing.T) {
	config := DefaultConfig()
	config.Options = ast.FindNotEmpty
	re, err := CompileString(`a*`, config)
	require.NoError(t, err)
	require.Equal(t, []int{1, 3}, re.FindStringIndex("baab"))
}

func TestConvenience(t *testing.T) {
	re := MustCompile(`(?P<user>\w+)@(?P<host>\w+)`)

	require.True(t, re.MatchString("mail bob@example"))
	require.False(t, re.Match([]byte("no at sign")))
	require.Equal(t, "bob@example", re.FindString("mail bob@example"))
	require.Equal(t, []byte("bob@example"), re.Find([]byte("mail bob@example")))
	require.Nil(t, re.Find([]byte("nothing")))
	require.Equal(t, []int{5, 16}, re.FindIndex([]byte("mail bob@example")))
	require.Equal(t, []string{"bob@example", "bob", "example"}, re.FindStringSubmatch("mail bob@example"))
	require.Nil(t, re.FindStringSubmatch("nothing"))

	require.Equal(t, 2, re.NumSubexp())
	require.Equal(t, []string{"", "user", "host"}, re.SubexpNames())
	require.Equal(t, 2, re.SubexpIndex("host"))
	require.Equal(t, -1, re.SubexpIndex("port"))
	require.Equal(t, `(?P<user>\w+)@(?P<host>\w+)`, re.String())
}

func TestFindStringSubmatchUnsetGroup(t *testing.T) {
	re := MustCompile(`(a)|(b)`)
	require.Equal(t, []string{"b", "", "b"}, re.FindStringSubmatch("b"))
	require.Equal(t, []int{0, 1, -1, -1, 0, 1}, re.FindSubmatchIndex([]byte("b")))
}

func TestFindAll(t *testing.T) {
	re := MustCompile(`\d`)
	require.Equal(t, []string{"1", "2"}, re.FindAllString("1 2 3", 2))
	require.Equal(t, []string{"1", "2", "3"}, re.FindAllString("1 2 3", -1))
	require.Nil(t, re.FindAllString("none", -1))
	require.Nil(t, re.FindAllString("1 2 3", 0))

	// Empty matches advance by a whole character.
	re = MustCompile(`x*`)
	require.Equal(t, [][]int{{0, 0}, {3, 4}}, re.FindAllIndex([]byte("日x"), -1))
}

func TestPrefilterSelection(t *testing.T) {
	tests := []struct {
		name string
		node ast.Node
		want string
	}{
		{"begin-buf anchored", ast.Cat(ast.At(ast.BeginBuf), ast.Lit("abc")), "none"},
		{"literal", ast.Lit("hello"), `memmem("hello")`},
		{"alternation prefixes", ast.Cat(ast.Alt(ast.Lit("foo"), ast.Lit("bar"), ast.Lit("quux")), ast.Plus(&ast.AnyChar{})), "aho-corasick(3)"},
		{"optional", ast.Star(ast.Lit("a")), "none"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			re, err := Compile(tt.node, DefaultConfig())
			require.NoError(t, err)
			require.Equal(t, tt.want, re.PrefilterName())
		})
	}
}

func TestPrefilterMatchesAgree(t *testing.T) {
	text := "xx bar1 foo2 quux3 fo bar"
	node := ast.Cat(ast.Alt(ast.Lit("foo"), ast.Lit("bar"), ast.Lit("quux")), ast.Class('0', '9'))

	with, err := Compile(node, DefaultConfig())
	require.NoError(t, err)
	config := DefaultConfig()
	config.EnablePrefilter = false
	without, err := Compile(node, config)
	require.NoError(t, err)

	want := [][]int{{3, 7}, {8, 12}, {13, 18}}
	require.Equal(t, want, with.FindAllIndex([]byte(text), -1))
	require.Equal(t, want, without.FindAllIndex([]byte(text), -1))
}

func TestStackLimit(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	config := DefaultConfig()
	config.StackLimit = 16
	config.Logger = zap.New(core)

	re, err := CompileString(`[ab]*c`, config)
	require.NoError(t, err)

	text := []byte(strings.Repeat("a", 100) + "c")
	_, err = re.Search(context.Background(), text, 0)
	require.ErrorIs(t, err, vm.ErrMatchStackLimit)
	require.Equal(t, uint64(1), re.Stats().StackLimitHits)

	// Convenience methods report no match and log the failure.
	require.False(t, re.Match(text))
	require.Equal(t, 1, logs.FilterMessage("search failed").Len())

	// Unlimited stack.
	config.StackLimit = 0
	re, err = CompileString(`[ab]*c`, config)
	require.NoError(t, err)
	require.Equal(t, []int{0, 101}, re.FindIndex(text))
}

func TestContextCancel(t *testing.T) {
	re := MustCompile(`a`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := re.Search(ctx, []byte("xxxa"), 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStats(t *testing.T) {
	re := MustCompile(`b+`)
	region, err := re.Search(context.Background(), []byte("aaabbb"), 0)
	require.NoError(t, err)
	require.Equal(t, "(3,6)", region.String())

	st := re.Stats()
	require.Equal(t, uint64(1), st.Searches)
	require.Equal(t, uint64(1), st.Matches)
	require.GreaterOrEqual(t, st.Attempts, uint64(1))
	require.Greater(t, st.Steps, uint64(0))

	_, err = re.Search(context.Background(), []byte("aaa"), 0)
	require.NoError(t, err)
	st = re.Stats()
	require.Equal(t, uint64(2), st.Searches)
	require.Equal(t, uint64(1), st.Matches)

	re.ResetStats()
	require.Equal(t, Stats{}, re.Stats())
}

func TestConcurrentSearch(t *testing.T) {
	re := MustCompile(`(\w+)@(\w+)\.com`)
	text := []byte("mail bob@example.com, amy@test.com")
	want := [][]int{{5, 20, 5, 8, 9, 16}, {22, 34, 22, 25, 26, 30}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if got := re.FindAllSubmatchIndex(text, -1); len(got) != 2 || got[1][0] != want[1][0] {
					t.Errorf("FindAllSubmatchIndex = %v, want %v", got, want)
					return
				}
			}
		}()
	}
	wg.Wait()
	require.Equal(t, want, re.FindAllSubmatchIndex(text, -1))
	require.Equal(t, uint64(8*50*3+1*3), re.Stats().Searches)
}
