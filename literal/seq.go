// Package literal extracts the literal strings a match must start with.
//
// The search loop uses them to skip start offsets cheaply before running the
// backtracking machine: for /(hello|world)\d+/ every match begins with
// "hello" or "world", so a multi-literal scan finds all candidate starts.
//
// Key concepts:
//   - A Literal is a concrete byte sequence; Complete means the literal is
//     the whole match of the subtree it came from, not just its prefix
//   - A Seq is a set of alternative literals; an empty Seq carries no
//     information (any start offset may match)
package literal

import (
	"bytes"
	"sort"
)

// Literal is a byte sequence extracted from a pattern tree.
//
// Example:
//   - /hello/      → Literal{"hello", Complete: true}
//   - /hello\d+/   → Literal{"hello", Complete: false}
type Literal struct {
	// Bytes contains the literal.
	Bytes []byte

	// Complete reports whether the literal is the entire match of its
	// subtree. Only complete literals can be extended by what follows.
	Complete bool
}

// NewLiteral creates a new Literal from the given byte sequence and completeness flag.
func NewLiteral(b []byte, complete bool) Literal {
	return Literal{
		Bytes:    b,
		Complete: complete,
	}
}

// Len returns the length of the literal in bytes.
func (l Literal) Len() int {
	return len(l.Bytes)
}

// String returns a debugging representation: literal{bytes, complete=true/false}.
func (l Literal) String() string {
	complete := "false"
	if l.Complete {
		complete = "true"
	}
	return "literal{" + string(l.Bytes) + ", complete=" + complete + "}"
}

// Seq is a set of alternative literals.
//
// Example:
//
//	seq := literal.NewSeq(
//	    literal.NewLiteral([]byte("foo"), true),
//	    literal.NewLiteral([]byte("bar"), true),
//	)
//	fmt.Println(seq.Len()) // Output: 2
type Seq struct {
	literals []Literal
}

// NewSeq creates a new sequence from the given literals.
func NewSeq(lits ...Literal) *Seq {
	return &Seq{
		literals: lits,
	}
}

// Len returns the number of literals in the sequence.
func (s *Seq) Len() int {
	if s == nil {
		return 0
	}
	return len(s.literals)
}

// Get returns the literal at the specified index.
// Panics if index is out of bounds.
func (s *Seq) Get(i int) Literal {
	return s.literals[i]
}

// IsEmpty returns true if the sequence has no literals.
func (s *Seq) IsEmpty() bool {
	return s == nil || len(s.literals) == 0
}

// AllComplete reports whether every literal is complete. An empty sequence
// is not complete.
func (s *Seq) AllComplete() bool {
	if s.IsEmpty() {
		return false
	}
	for _, lit := range s.literals {
		if !lit.Complete {
			return false
		}
	}
	return true
}

// HasEmpty reports whether some literal has no bytes. Such a literal
// occurs at every offset, so the sequence cannot narrow a search.
func (s *Seq) HasEmpty() bool {
	if s == nil {
		return false
	}
	for _, lit := range s.literals {
		if len(lit.Bytes) == 0 {
			return true
		}
	}
	return false
}

// MinLen returns the length of the shortest literal, or 0 for an empty
// sequence.
func (s *Seq) MinLen() int {
	if s.IsEmpty() {
		return 0
	}
	n := len(s.literals[0].Bytes)
	for _, lit := range s.literals[1:] {
		if len(lit.Bytes) < n {
			n = len(lit.Bytes)
		}
	}
	return n
}

// MakeInexact marks every literal as a prefix only.
func (s *Seq) MakeInexact() {
	if s == nil {
		return
	}
	for i := range s.literals {
		s.literals[i].Complete = false
	}
}

// Union appends the literals of o, skipping exact duplicates.
func (s *Seq) Union(o *Seq) {
	if o == nil {
		return
	}
outer:
	for _, lit := range o.literals {
		for _, have := range s.literals {
			if have.Complete == lit.Complete && bytes.Equal(have.Bytes, lit.Bytes) {
				continue outer
			}
		}
		s.literals = append(s.literals, lit)
	}
}

// Cross extends every complete literal of s with every literal of o.
// Incomplete literals of s are kept as they are. Extended literals longer
// than maxLen are cut and marked incomplete. Cross reports false, leaving
// s untouched, when the product would hold more than maxLits literals.
func (s *Seq) Cross(o *Seq, maxLits, maxLen int) bool {
	n := 0
	for _, lit := range s.literals {
		if lit.Complete {
			n += o.Len()
		} else {
			n++
		}
	}
	if n > maxLits {
		return false
	}

	out := make([]Literal, 0, n)
	for _, lit := range s.literals {
		if !lit.Complete {
			out = append(out, lit)
			continue
		}
		for _, next := range o.literals {
			b := make([]byte, 0, len(lit.Bytes)+len(next.Bytes))
			b = append(b, lit.Bytes...)
			b = append(b, next.Bytes...)
			complete := next.Complete
			if len(b) > maxLen {
				b = b[:maxLen]
				complete = false
			}
			out = append(out, NewLiteral(b, complete))
		}
	}
	s.literals = out
	s.dedup()
	return true
}

func (s *Seq) dedup() {
	kept := s.literals[:0]
outer:
	for _, lit := range s.literals {
		for _, have := range kept {
			if have.Complete == lit.Complete && bytes.Equal(have.Bytes, lit.Bytes) {
				continue outer
			}
		}
		kept = append(kept, lit)
	}
	s.literals = kept
}

// Clone returns a deep copy of the sequence.
func (s *Seq) Clone() *Seq {
	if s == nil {
		return nil
	}

	cloned := make([]Literal, len(s.literals))
	for i, lit := range s.literals {
		bytesCopy := make([]byte, len(lit.Bytes))
		copy(bytesCopy, lit.Bytes)
		cloned[i] = Literal{
			Bytes:    bytesCopy,
			Complete: lit.Complete,
		}
	}

	return &Seq{literals: cloned}
}

// Patterns returns the literal bytes in order.
func (s *Seq) Patterns() [][]byte {
	if s == nil {
		return nil
	}
	out := make([][]byte, len(s.literals))
	for i, lit := range s.literals {
		out[i] = lit.Bytes
	}
	return out
}

// Minimize removes literals that have a shorter literal of the sequence as
// a prefix. Every offset where "foobar" starts also starts "foo", so
// {"foo", "foobar"} scans the same as {"foo"}. The kept literals are
// marked incomplete when they absorbed a longer one.
//
// Example:
//
//	seq := literal.NewSeq(
//	    literal.NewLiteral([]byte("foo"), true),
//	    literal.NewLiteral([]byte("foobar"), true),
//	)
//	seq.Minimize()
//	fmt.Println(seq.Len()) // Output: 1 (only "foo" remains)
func (s *Seq) Minimize() {
	if s.IsEmpty() {
		return
	}

	sort.SliceStable(s.literals, func(i, j int) bool {
		return len(s.literals[i].Bytes) < len(s.literals[j].Bytes)
	})

	kept := make([]Literal, 0, len(s.literals))
	for _, current := range s.literals {
		redundant := false
		for j := range kept {
			if bytes.HasPrefix(current.Bytes, kept[j].Bytes) {
				if !bytes.Equal(current.Bytes, kept[j].Bytes) || current.Complete != kept[j].Complete {
					kept[j].Complete = false
				}
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, current)
		}
	}

	s.literals = kept
}

// LongestCommonPrefix returns the longest common prefix of all literals in the sequence.
// If the sequence is empty or has no common prefix, returns an empty slice.
//
// Example:
//
//	seq := literal.NewSeq(
//	    literal.NewLiteral([]byte("hello"), true),
//	    literal.NewLiteral([]byte("help"), true),
//	    literal.NewLiteral([]byte("hero"), true),
//	)
//	fmt.Println(string(seq.LongestCommonPrefix())) // Output: he
func (s *Seq) LongestCommonPrefix() []byte {
	if s.IsEmpty() {
		return []byte{}
	}

	prefix := s.literals[0].Bytes
	for i := 1; i < len(s.literals); i++ {
		prefix = commonPrefix(prefix, s.literals[i].Bytes)
		if len(prefix) == 0 {
			return []byte{}
		}
	}

	result := make([]byte, len(prefix))
	copy(result, prefix)
	return result
}

// commonPrefix returns the longest common prefix of a and b.
func commonPrefix(a, b []byte) []byte {
	minLen := len(a)
	if len(b) < minLen {
		minLen = len(b)
	}

	for i := 0; i < minLen; i++ {
		if a[i] != b[i] {
			return a[:i]
		}
	}

	return a[:minLen]
}
