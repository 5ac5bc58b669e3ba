package btregex

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

// FindTest is a pattern and a text whose matches must agree with the
// regexp package. Both engines report the leftmost-first match, so every
// pattern here has the same answer under backtracking.
type FindTest struct {
	pat  string
	text string
}

var findTests = []FindTest{
	// Basic literals and repetition
	{`a+`, "baaab"},
	{`a*`, "baaab"},
	{`x`, "y"},
	{`[a-z]+`, "ab 12 cd"},
	{`[^a-z]+`, "ab1234cd"},
	{`[a\-\]z]+`, "az]-bcz"},
	{`[^\n]+`, "abcd\nef"},
	{`x{2,3}`, "xxxxxxx"},
	{`x{2,3}?`, "xxxxxxx"},
	{`(?:ab)+`, "ababab abab"},
	{`\d+`, "ab 123 cd 45"},
	{`\.\d{2}`, "3.14 2.5 0.99"},

	// Multibyte characters
	{`[日本語]+`, "日本語日本語"},
	{`日本語+`, "日本語語語語"},
	{`(.)(.)`, "日a"},
	{`\p{Greek}+`, "abc αβγ def"},

	// Capture groups
	{`()`, ""},
	{`(.*)`, "abcd"},
	{`(..)(..)`, "abcd"},
	{`(([^xyz]*)(d))`, "abcd"},
	{`((a|b|c)*(d))`, "abcd"},
	{`(((a|b|c)*)(d))`, "abcd"},
	{`a*(|(b))c*`, "aacc"},
	{`(.*).*`, "ab"},
	{`.(.)`, "abcd"},
	{`a(b*)`, "abbaab"},
	{`(x)?y`, "y xy"},
	{`(a+)(b+)?`, "aab ab a"},
	{`(a|b)*c`, "ababc abc"},
	{`(\w+)@(\w+)\.com`, "mail bob@example.com, amy@test.com"},

	// Alternation order
	{`(foo|foobar)baz`, "foobarbaz"},
	{`(a|ab)(c|bcd)(d*)`, "abcd"},
	{`a.*?b`, "aXbYb"},
	{`a.*b`, "aXbYb"},
	{`a[^b]*b`, "aXXb aYb"},

	// Anchors
	{`^abcd$`, "abcd"},
	{`^abcd$`, "abcde"},
	{`/$`, "/abc/"},
	{`/$`, "/abc"},
	{`ab$`, "abcab"},
	{`da(.)a$`, "daXY data"},
	{`zx+`, "zzx"},
	{`(aa)*$`, "a"},
	{`^[a-z]+$`, "abc\ndef\n12\nxyz"},
	{`^\s*#.*$`, "a\n  # c\nb"},
	{`(?:(?:^).)`, "\n"},
	{`(?s)(?:(?:^).)`, "\n"},
	{`\Aab`, "abab"},
	{`ab\z`, "abab"},

	// Word boundaries
	{`\b`, "x y"},
	{`\B`, "xx yy"},
	{`\bfoo\b`, "foo foobar barfoo foo"},

	// Case folding
	{`(?i)hello`, "say HeLLo hello"},

	// Escapes
	{`\a\f\n\r\t\v`, "\a\f\n\r\t\v"},
	{`[.]`, "."},
}

// stdlib compiles pat with ^ and $ at line boundaries, as CompileString
// parses them.
func stdlib(pat string) *regexp.Regexp {
	return regexp.MustCompile(`(?m)` + pat)
}

func TestStdlibFindSubmatchIndex(t *testing.T) {
	for _, tt := range findTests {
		t.Run(tt.pat, func(t *testing.T) {
			re := MustCompile(tt.pat)
			want := stdlib(tt.pat).FindSubmatchIndex([]byte(tt.text))
			require.Equal(t, want, re.FindSubmatchIndex([]byte(tt.text)), "text %q", tt.text)
		})
	}
}

func TestStdlibFindAllSubmatchIndex(t *testing.T) {
	for _, tt := range findTests {
		t.Run(tt.pat, func(t *testing.T) {
			re := MustCompile(tt.pat)
			want := stdlib(tt.pat).FindAllSubmatchIndex([]byte(tt.text), -1)
			require.Equal(t, want, re.FindAllSubmatchIndex([]byte(tt.text), -1), "text %q", tt.text)
		})
	}
}

func TestStdlibWithoutPrefilter(t *testing.T) {
	config := DefaultConfig()
	config.EnablePrefilter = false

	for _, tt := range findTests {
		t.Run(tt.pat, func(t *testing.T) {
			re, err := CompileString(tt.pat, config)
			require.NoError(t, err)
			require.Equal(t, "none", re.PrefilterName())

			want := stdlib(tt.pat).FindAllIndex([]byte(tt.text), -1)
			require.Equal(t, want, re.FindAllIndex([]byte(tt.text), -1), "text %q", tt.text)
		})
	}
}

func TestStdlibNumSubexp(t *testing.T) {
	for _, tt := range findTests {
		re := MustCompile(tt.pat)
		require.Equal(t, stdlib(tt.pat).NumSubexp(), re.NumSubexp(), tt.pat)
	}
}
