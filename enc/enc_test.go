package enc

import "testing"

func TestUTF8Decode(t *testing.T) {
	tests := []struct {
		in      string
		want    rune
		wantLen int
	}{
		{"a", 'a', 1},
		{"é", 'é', 2},
		{"日本", '日', 3},
		{"\xff", 0xFFFD, 1},
	}
	for _, tt := range tests {
		r, n := UTF8.Decode([]byte(tt.in))
		if r != tt.want || n != tt.wantLen {
			t.Errorf("Decode(%q) = %q,%d, want %q,%d", tt.in, r, n, tt.want, tt.wantLen)
		}
	}
}

func TestFold(t *testing.T) {
	tests := []struct {
		a, b rune
	}{
		{'a', 'A'},
		{'k', 'K'},
		{'\u212A', 'k'}, // Kelvin sign
		{'é', 'É'},
	}
	for _, tt := range tests {
		if UTF8.Fold(tt.a) != UTF8.Fold(tt.b) {
			t.Errorf("Fold(%q) != Fold(%q)", tt.a, tt.b)
		}
	}
	if UTF8.Fold('a') == UTF8.Fold('b') {
		t.Error("Fold('a') == Fold('b')")
	}
	if ASCII.Fold('a') != ASCII.Fold('A') {
		t.Error("ASCII fold mismatch")
	}
}

func TestCaseVariants(t *testing.T) {
	got := UTF8.CaseVariants('k')
	if len(got) != 3 {
		t.Errorf("CaseVariants('k') = %q, want 3 variants", got)
	}
	if got := ASCII.CaseVariants('1'); len(got) != 1 {
		t.Errorf("ASCII.CaseVariants('1') = %q", got)
	}
}

func TestStepBack(t *testing.T) {
	text := []byte("aé日")
	tests := []struct {
		s, n, want int
	}{
		{6, 1, 3},
		{6, 2, 1},
		{6, 3, 0},
		{6, 4, -1},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := StepBack(UTF8, text, 0, tt.s, tt.n); got != tt.want {
			t.Errorf("StepBack(s=%d, n=%d) = %d, want %d", tt.s, tt.n, got, tt.want)
		}
	}
	if got := StepBack(UTF8, text, 1, 3, 2); got != -1 {
		t.Errorf("StepBack crossing begin = %d, want -1", got)
	}
}

func TestCType(t *testing.T) {
	tests := []struct {
		r    rune
		t    CType
		want bool
	}{
		{'a', CTypeWord, true},
		{'_', CTypeWord, true},
		{'-', CTypeWord, false},
		{'é', CTypeWord, true},
		{'7', CTypeDigit, true},
		{'\t', CTypeSpace, true},
		{'F', CTypeXDigit, true},
		{'g', CTypeXDigit, false},
		{'\n', CTypeNewline, true},
		{'\r', CTypeNewline, false},
	}
	for _, tt := range tests {
		if got := UTF8.IsCType(tt.r, tt.t); got != tt.want {
			t.Errorf("IsCType(%q, %v) = %v, want %v", tt.r, tt.t, got, tt.want)
		}
	}
	if ASCII.IsCType('é', CTypeWord) {
		t.Error("ASCII word should not include é")
	}
}

func TestCharSet(t *testing.T) {
	cs := NewCharSet([]RuneRange{{'a', 'c'}, {0x3040, 0x309F}, {0x3000, 0x3045}}, nil, false, false)
	tests := []struct {
		r    rune
		want bool
	}{
		{'a', true},
		{'c', true},
		{'d', false},
		{0x3000, true},
		{0x3050, true},
		{0x30A0, false},
	}
	for _, tt := range tests {
		if got := cs.Matches(UTF8, tt.r); got != tt.want {
			t.Errorf("Matches(%q) = %v, want %v", tt.r, got, tt.want)
		}
	}
	if n := len(cs.Ranges()); n != 1 {
		t.Errorf("overlapping wide ranges not merged: %v", cs.Ranges())
	}
}

func TestCharSetNegatedFoldTypes(t *testing.T) {
	neg := NewCharSet([]RuneRange{{'0', '9'}}, nil, true, false)
	if neg.Matches(UTF8, '5') || !neg.Matches(UTF8, 'x') {
		t.Error("negated digit set wrong")
	}

	fold := NewCharSet([]RuneRange{{'a', 'z'}}, nil, false, true)
	if !fold.Matches(UTF8, 'Q') {
		t.Error("folded set should match 'Q'")
	}
	if !fold.Matches(UTF8, '\u212A') {
		t.Error("folded set should match the Kelvin sign")
	}

	notWord := NewCharSet(nil, []CTypeItem{{Type: CTypeWord, Not: true}}, false, false)
	if notWord.Matches(UTF8, 'a') || !notWord.Matches(UTF8, ' ') {
		t.Error("[\\W] membership wrong")
	}
}

func TestCharSetString(t *testing.T) {
	cs := NewCharSet([]RuneRange{{'a', 'c'}, {'x', 'x'}}, []CTypeItem{{Type: CTypeDigit}}, true, false)
	if got, want := cs.String(), "[^'a'-'c''x'[:digit:]]"; got != want {
		t.Errorf("String() = %s, want %s", got, want)
	}
}
