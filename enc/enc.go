// Package enc is the character-classification collaborator used by the
// optimizer and the matching VM.
//
// The engine works on byte slices. An Encoding tells it how bytes group into
// characters, which characters are newlines, word characters and so on, and
// how characters fold under case-insensitive matching. Classification is
// deliberately simple: it covers what the VM needs and nothing more.
package enc

import (
	"unicode"
	"unicode/utf8"
)

// CType is a character classification usable inside a character class.
type CType uint8

// Classification types.
const (
	CTypeWord CType = iota
	CTypeDigit
	CTypeSpace
	CTypeXDigit
	CTypeAlpha
	CTypeUpper
	CTypeLower
	CTypePunct
	CTypeNewline
)

var ctypeNames = [...]string{
	CTypeWord:    "word",
	CTypeDigit:   "digit",
	CTypeSpace:   "space",
	CTypeXDigit:  "xdigit",
	CTypeAlpha:   "alpha",
	CTypeUpper:   "upper",
	CTypeLower:   "lower",
	CTypePunct:   "punct",
	CTypeNewline: "newline",
}

// String returns the POSIX-style name of the type.
func (t CType) String() string {
	if int(t) < len(ctypeNames) {
		return ctypeNames[t]
	}
	return "unknown"
}

// Encoding classifies and decodes characters.
type Encoding interface {
	// Name identifies the encoding in dumps and generated code.
	Name() string
	// MinLength and MaxLength bound the byte length of one character.
	MinLength() int
	MaxLength() int
	// Decode returns the first character of b and its byte length.
	// Invalid bytes decode as a one-byte character.
	Decode(b []byte) (rune, int)
	// DecodeLast returns the last character of b and its byte length.
	DecodeLast(b []byte) (rune, int)
	// Encode appends the encoding of r to dst.
	Encode(dst []byte, r rune) []byte
	// IsCType reports whether r belongs to class t.
	IsCType(r rune, t CType) bool
	// Fold maps r to the canonical member of its case-folding orbit.
	Fold(r rune) rune
	// CaseVariants returns every character that folds to the same value as r,
	// r included.
	CaseVariants(r rune) []rune
}

// IsNewline reports whether r is a line terminator for line anchors and
// the non-multiline any-char.
func IsNewline(e Encoding, r rune) bool {
	return e.IsCType(r, CTypeNewline)
}

// IsWord reports whether r is a word character.
func IsWord(e Encoding, r rune) bool {
	return e.IsCType(r, CTypeWord)
}

// StepBack moves n characters backwards from s, never crossing begin.
// It returns -1 when fewer than n characters precede s.
func StepBack(e Encoding, text []byte, begin, s, n int) int {
	for ; n > 0; n-- {
		if s <= begin {
			return -1
		}
		_, size := e.DecodeLast(text[begin:s])
		s -= size
	}
	return s
}

// PrevCharHead returns the start of the character ending at s, or -1 when
// s is at begin.
func PrevCharHead(e Encoding, text []byte, begin, s int) int {
	if s <= begin {
		return -1
	}
	_, size := e.DecodeLast(text[begin:s])
	return s - size
}

// FoldString folds every character of b.
func FoldString(e Encoding, b []byte) []byte {
	out := make([]byte, 0, len(b))
	for len(b) > 0 {
		r, n := e.Decode(b)
		out = e.Encode(out, e.Fold(r))
		b = b[n:]
	}
	return out
}

// UTF8 is the default encoding.
var UTF8 Encoding = utf8Encoding{}

// ASCII treats every byte as one character and only ASCII letters as
// case-foldable or word characters.
var ASCII Encoding = asciiEncoding{}

type utf8Encoding struct{}

func (utf8Encoding) Name() string   { return "UTF-8" }
func (utf8Encoding) MinLength() int { return 1 }
func (utf8Encoding) MaxLength() int { return utf8.UTFMax }
func (utf8Encoding) Decode(b []byte) (rune, int) {
	if len(b) == 0 {
		return utf8.RuneError, 0
	}
	if b[0] < utf8.RuneSelf {
		return rune(b[0]), 1
	}
	return utf8.DecodeRune(b)
}

func (utf8Encoding) DecodeLast(b []byte) (rune, int) {
	if len(b) == 0 {
		return utf8.RuneError, 0
	}
	if c := b[len(b)-1]; c < utf8.RuneSelf {
		return rune(c), 1
	}
	return utf8.DecodeLastRune(b)
}

func (utf8Encoding) Encode(dst []byte, r rune) []byte {
	return utf8.AppendRune(dst, r)
}

func (utf8Encoding) IsCType(r rune, t CType) bool {
	switch t {
	case CTypeWord:
		return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
	case CTypeDigit:
		return unicode.IsDigit(r)
	case CTypeSpace:
		return unicode.IsSpace(r)
	case CTypeXDigit:
		return isXDigit(r)
	case CTypeAlpha:
		return unicode.IsLetter(r)
	case CTypeUpper:
		return unicode.IsUpper(r)
	case CTypeLower:
		return unicode.IsLower(r)
	case CTypePunct:
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	case CTypeNewline:
		return r == '\n'
	}
	return false
}

func (utf8Encoding) Fold(r rune) rune {
	return canonicalFold(r)
}

func (utf8Encoding) CaseVariants(r rune) []rune {
	out := []rune{r}
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		out = append(out, f)
	}
	return out
}

// canonicalFold returns the smallest rune in r's SimpleFold orbit.
func canonicalFold(r rune) rune {
	lo := r
	for f := unicode.SimpleFold(r); f != r; f = unicode.SimpleFold(f) {
		if f < lo {
			lo = f
		}
	}
	return lo
}

func isXDigit(r rune) bool {
	return ('0' <= r && r <= '9') || ('a' <= r && r <= 'f') || ('A' <= r && r <= 'F')
}

type asciiEncoding struct{}

func (asciiEncoding) Name() string   { return "ASCII" }
func (asciiEncoding) MinLength() int { return 1 }
func (asciiEncoding) MaxLength() int { return 1 }

func (asciiEncoding) Decode(b []byte) (rune, int) {
	if len(b) == 0 {
		return utf8.RuneError, 0
	}
	return rune(b[0]), 1
}

func (asciiEncoding) DecodeLast(b []byte) (rune, int) {
	if len(b) == 0 {
		return utf8.RuneError, 0
	}
	return rune(b[len(b)-1]), 1
}

func (asciiEncoding) Encode(dst []byte, r rune) []byte {
	return append(dst, byte(r))
}

func (asciiEncoding) IsCType(r rune, t CType) bool {
	if r >= utf8.RuneSelf {
		return false
	}
	switch t {
	case CTypeWord:
		return r == '_' || isAlpha(r) || ('0' <= r && r <= '9')
	case CTypeDigit:
		return '0' <= r && r <= '9'
	case CTypeSpace:
		return r == ' ' || ('\t' <= r && r <= '\r')
	case CTypeXDigit:
		return isXDigit(r)
	case CTypeAlpha:
		return isAlpha(r)
	case CTypeUpper:
		return 'A' <= r && r <= 'Z'
	case CTypeLower:
		return 'a' <= r && r <= 'z'
	case CTypePunct:
		return r > ' ' && r < 0x7f && !isAlpha(r) && !('0' <= r && r <= '9')
	case CTypeNewline:
		return r == '\n'
	}
	return false
}

func (asciiEncoding) Fold(r rune) rune {
	if 'a' <= r && r <= 'z' {
		return r - 'a' + 'A'
	}
	return r
}

func (asciiEncoding) CaseVariants(r rune) []rune {
	switch {
	case 'a' <= r && r <= 'z':
		return []rune{r, r - 'a' + 'A'}
	case 'A' <= r && r <= 'Z':
		return []rune{r, r - 'A' + 'a'}
	}
	return []rune{r}
}

func isAlpha(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}
