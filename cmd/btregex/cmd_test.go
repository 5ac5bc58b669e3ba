package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coregx/btregex/vm"
)

func run(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

const input = "foo 12\nbar\nbaz 345 6\n"

func TestMatch(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"lines", []string{"match", `\d+`}, "foo 12\nbaz 345 6\n"},
		{"only matching", []string{"match", "-o", `\d+`}, "12\n345\n6\n"},
		{"line numbers", []string{"match", "-n", `\d+`}, "1:foo 12\n3:baz 345 6\n"},
		{"count", []string{"match", "--count", `ba`}, "2\n"},
		{"no match", []string{"match", `qux`}, ""},
		{"ignore case", []string{"match", "-O", "ignore-case", "FOO"}, "foo 12\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, input, tt.args...)
			require.NoError(t, err)
			require.Equal(t, tt.want, out)
		})
	}
}

func TestMatchFiles(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("one\ntwo\n"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("three\n"), 0o644))

	out, _, err := run(t, "", "match", "-n", "t", a, b)
	require.NoError(t, err)
	require.Equal(t, a+":2:two\n"+b+":1:three\n", out)

	_, _, err = run(t, "", "match", "t", filepath.Join(dir, "missing.txt"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "open input")
}

func TestMatchStats(t *testing.T) {
	_, stderr, err := run(t, input, "match", "--stats", `\d+`)
	require.NoError(t, err)
	require.Contains(t, stderr, "btregex_searches_total 3\n")
	require.Contains(t, stderr, "btregex_matches_total 2\n")
}

func TestMatchErrors(t *testing.T) {
	_, _, err := run(t, input, "match", `a(`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "compile")

	line := strings.Repeat("a", 100) + "c\n"
	_, _, err = run(t, line, "match", "--stack-limit", "16", `[ab]*c`)
	require.ErrorIs(t, err, vm.ErrMatchStackLimit)

	out, _, err := run(t, line, "match", "--stack-limit", "0", "-o", `[ab]*c`)
	require.NoError(t, err)
	require.Equal(t, line, out)

	_, _, err = run(t, input, "--log-level", "loud", "match", "a")
	require.Error(t, err)

	_, _, err = run(t, input, "match")
	require.Error(t, err)
}

func TestConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "btregex.yaml")
	require.NoError(t, os.WriteFile(path, []byte("options: [ignore-case]\n"), 0o644))

	out, _, err := run(t, "Hello\nworld\n", "-c", path, "match", "hello")
	require.NoError(t, err)
	require.Equal(t, "Hello\n", out)

	require.NoError(t, os.WriteFile(path, []byte("max_depth: 1\n"), 0o644))
	_, _, err = run(t, "", "-c", path, "match", "hello")
	require.Error(t, err)
	require.Contains(t, err.Error(), "MaxDepth")
}

func TestDump(t *testing.T) {
	out, _, err := run(t, "", "dump", `(a+)b`)
	require.NoError(t, err)
	for _, want := range []string{"tree:\n", "program:\n", "search:\n", "  length: 2..inf\n", "  prefilter: "} {
		require.Contains(t, out, want)
	}
}

func TestGen(t *testing.T) {
	out, _, err := run(t, "", "gen", "--package", "patterns", "--name", "Digits", `\d+`)
	require.NoError(t, err)
	require.Contains(t, out, "package patterns")
	require.Contains(t, out, "var Digits = func() *btregex.Regex {")
	require.Contains(t, out, "// Digits matches `\\d+`.")

	path := filepath.Join(t.TempDir(), "digits.go")
	out, _, err = run(t, "", "gen", "-o", path, `\d+`)
	require.NoError(t, err)
	require.Empty(t, out)
	src, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(src), "package main")
	require.Contains(t, string(src), "var Pattern = ")

	_, _, err = run(t, "", "gen", "--name", "not valid", `\d+`)
	require.Error(t, err)
}
