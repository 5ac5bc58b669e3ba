// Package prefilter finds candidate match starts before the backtracking
// machine runs.
//
// A prefilter is built from the literals every match must start with (see
// package literal) or from the optimizer's leading-byte map. It only ever
// rejects offsets: a position it reports still has to be confirmed by the
// machine.
//
// The builder selects the strategy from the literal set:
//   - Single byte → memchr (bytes.IndexByte)
//   - Single substring → memmem (bytes.Index)
//   - Several single bytes → byte set scan
//   - Several substrings → Aho-Corasick automaton
//
// Example usage:
//
//	seq := literal.New(literal.DefaultConfig()).Prefixes(node, 0)
//	pf := prefilter.NewBuilder(seq).Build()
//	pos := pf.Find([]byte("foo hello bar world baz"), 0)
//	// pos == 4 (position of "hello")
package prefilter

import (
	"bytes"
	"fmt"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/btregex/literal"
)

// Prefilter reports candidate match starts.
type Prefilter interface {
	// Find returns the first candidate at or after start, or -1.
	// A candidate is a position where one of the prefilter's literals
	// begins; it does not guarantee a match.
	Find(haystack []byte, start int) int

	// IsComplete reports whether every literal is a whole match, so a
	// candidate is a match of the literal's length.
	IsComplete() bool

	// HeapBytes returns the number of bytes of heap memory held by the
	// prefilter.
	HeapBytes() int

	// String names the strategy, for logs and the CLI.
	String() string
}

// Builder constructs a prefilter from a literal set.
type Builder struct {
	prefixes *literal.Seq
}

// NewBuilder creates a builder over prefixes. A nil or empty sequence
// builds no prefilter.
func NewBuilder(prefixes *literal.Seq) *Builder {
	return &Builder{prefixes: prefixes}
}

// Build returns the best prefilter for the literals, or nil when none can
// narrow a search.
func (b *Builder) Build() Prefilter {
	return selectPrefilter(b.prefixes)
}

func selectPrefilter(seq *literal.Seq) Prefilter {
	if seq.IsEmpty() || seq.HasEmpty() {
		return nil
	}
	complete := seq.AllComplete()

	if seq.Len() == 1 {
		lit := seq.Get(0)
		if len(lit.Bytes) == 1 {
			return newMemchrPrefilter(lit.Bytes[0], complete)
		}
		return newMemmemPrefilter(lit.Bytes, complete)
	}

	if seq.MinLen() == 1 {
		var set [256]bool
		for i := 0; i < seq.Len(); i++ {
			set[seq.Get(i).Bytes[0]] = true
		}
		// Longer literals keep only their first byte.
		return newByteSetPrefilter(&set, complete && maxLen(seq) == 1)
	}

	pf, err := newAhoCorasickPrefilter(seq, complete)
	if err != nil {
		return nil
	}
	return pf
}

func maxLen(seq *literal.Seq) int {
	n := 0
	for i := 0; i < seq.Len(); i++ {
		if l := len(seq.Get(i).Bytes); l > n {
			n = l
		}
	}
	return n
}

// NewByteMap returns a prefilter reporting positions whose byte is set in
// m, or nil when m is empty or full.
func NewByteMap(m *[256]bool) Prefilter {
	n := 0
	for _, ok := range m {
		if ok {
			n++
		}
	}
	switch {
	case n == 0 || n == len(m):
		return nil
	case n == 1:
		for b, ok := range m {
			if ok {
				return newMemchrPrefilter(byte(b), false)
			}
		}
	}
	return newByteSetPrefilter(m, false)
}

// memchrPrefilter searches for a single byte.
type memchrPrefilter struct {
	needle   byte
	complete bool
}

func newMemchrPrefilter(needle byte, complete bool) Prefilter {
	return &memchrPrefilter{
		needle:   needle,
		complete: complete,
	}
}

// Find implements Prefilter.Find using bytes.IndexByte.
func (p *memchrPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}

	idx := bytes.IndexByte(haystack[start:], p.needle)
	if idx == -1 {
		return -1
	}
	return start + idx
}

// IsComplete implements Prefilter.IsComplete.
func (p *memchrPrefilter) IsComplete() bool {
	return p.complete
}

// HeapBytes implements Prefilter.HeapBytes.
func (p *memchrPrefilter) HeapBytes() int {
	return 0
}

func (p *memchrPrefilter) String() string {
	return fmt.Sprintf("memchr(%q)", p.needle)
}

// memmemPrefilter searches for a single substring.
type memmemPrefilter struct {
	needle   []byte
	complete bool
}

// newMemmemPrefilter copies needle.
func newMemmemPrefilter(needle []byte, complete bool) Prefilter {
	needleCopy := make([]byte, len(needle))
	copy(needleCopy, needle)

	return &memmemPrefilter{
		needle:   needleCopy,
		complete: complete,
	}
}

// Find implements Prefilter.Find using bytes.Index.
func (p *memmemPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}

	idx := bytes.Index(haystack[start:], p.needle)
	if idx == -1 {
		return -1
	}
	return start + idx
}

// IsComplete implements Prefilter.IsComplete.
func (p *memmemPrefilter) IsComplete() bool {
	return p.complete
}

// HeapBytes implements Prefilter.HeapBytes.
func (p *memmemPrefilter) HeapBytes() int {
	return len(p.needle)
}

func (p *memmemPrefilter) String() string {
	return fmt.Sprintf("memmem(%q)", p.needle)
}

// byteSetPrefilter reports positions whose byte belongs to a set.
type byteSetPrefilter struct {
	set      [256]bool
	complete bool
}

func newByteSetPrefilter(set *[256]bool, complete bool) Prefilter {
	return &byteSetPrefilter{set: *set, complete: complete}
}

// Find implements Prefilter.Find.
func (p *byteSetPrefilter) Find(haystack []byte, start int) int {
	if start < 0 {
		return -1
	}
	for i := start; i < len(haystack); i++ {
		if p.set[haystack[i]] {
			return i
		}
	}
	return -1
}

// IsComplete implements Prefilter.IsComplete.
func (p *byteSetPrefilter) IsComplete() bool {
	return p.complete
}

// HeapBytes implements Prefilter.HeapBytes.
func (p *byteSetPrefilter) HeapBytes() int {
	return len(p.set)
}

func (p *byteSetPrefilter) String() string {
	n := 0
	for _, ok := range p.set {
		if ok {
			n++
		}
	}
	return fmt.Sprintf("byteset(%d)", n)
}

// ahoCorasickPrefilter searches for several substrings at once. The
// automaton reports the leftmost occurrence, which is the earliest
// candidate start.
type ahoCorasickPrefilter struct {
	auto     *ahocorasick.Automaton
	patterns int
	size     int
	complete bool
}

func newAhoCorasickPrefilter(seq *literal.Seq, complete bool) (Prefilter, error) {
	builder := ahocorasick.NewBuilder()
	size := 0
	for _, pattern := range seq.Patterns() {
		builder.AddPattern(pattern)
		size += len(pattern)
	}
	auto, err := builder.Build()
	if err != nil {
		return nil, err
	}
	return &ahoCorasickPrefilter{
		auto:     auto,
		patterns: seq.Len(),
		size:     size,
		complete: complete,
	}, nil
}

// Find implements Prefilter.Find.
func (p *ahoCorasickPrefilter) Find(haystack []byte, start int) int {
	if start < 0 || start >= len(haystack) {
		return -1
	}
	m := p.auto.Find(haystack, start)
	if m == nil {
		return -1
	}
	return m.Start
}

// IsComplete implements Prefilter.IsComplete.
func (p *ahoCorasickPrefilter) IsComplete() bool {
	return p.complete
}

// HeapBytes implements Prefilter.HeapBytes. The automaton's own tables are
// not visible; the pattern bytes are a lower bound.
func (p *ahoCorasickPrefilter) HeapBytes() int {
	return p.size
}

func (p *ahoCorasickPrefilter) String() string {
	return fmt.Sprintf("aho-corasick(%d)", p.patterns)
}
