package vm

import (
	"bytes"
	"context"

	"github.com/coregx/btregex/ast"
	"github.com/coregx/btregex/enc"
)

const (
	initStackSize = 64

	// interruptMask sets how often, in executed instructions, the context
	// is polled.
	interruptMask = 1<<12 - 1
)

// Stats counts the work of the last match attempt.
type Stats struct {
	Steps      int
	Backtracks int
	MaxDepth   int
}

// Matcher executes a Program against a text window. A Matcher is not safe
// for concurrent use; use a Pool to share a Program between goroutines.
type Matcher struct {
	prog *Program
	enc  enc.Encoding

	text       []byte
	begin, end int
	gpos       int

	stack []stackEntry
	sp    int
	limit int

	// slots holds, per repeat id, the stack index of its REPEAT entry,
	// followed by the start and end slot of every group.
	slots    []int
	memStart int
	memEnd   int

	btStart []bool
	btEnd   []bool

	stats Stats
}

// NewMatcher creates a matcher for prog.
func NewMatcher(prog *Program) *Matcher {
	n := prog.NumMem + 1
	m := &Matcher{
		prog:     prog,
		enc:      prog.Enc,
		slots:    make([]int, prog.NumRepeat+2*n),
		memStart: prog.NumRepeat,
		memEnd:   prog.NumRepeat + n,
		btStart:  make([]bool, n),
		btEnd:    make([]bool, n),
	}
	if m.enc == nil {
		m.enc = enc.UTF8
	}
	for g := 1; g < n; g++ {
		m.btStart[g] = prog.BtMemStart.Has(g)
		m.btEnd[g] = prog.BtMemEnd.Has(g)
	}
	return m
}

// Program returns the program the matcher runs.
func (m *Matcher) Program() *Program { return m.prog }

// SetStackLimit caps the number of stack entries; 0 means unlimited.
func (m *Matcher) SetStackLimit(n int) { m.limit = n }

// Stats returns the counters of the last attempt.
func (m *Matcher) Stats() Stats { return m.stats }

// Reset points the matcher at text[begin:end]. begin is where string and
// line anchors see the text start; positions stay absolute in text.
func (m *Matcher) Reset(text []byte, begin, end int) {
	m.text = text
	m.begin = begin
	m.end = end
	m.gpos = begin
}

// MatchAt runs one attempt starting at at. \G matches at at. It returns
// nil and no error when the program does not match there.
func (m *Matcher) MatchAt(ctx context.Context, at int, opts ast.Options) (*Region, error) {
	return m.AttemptAt(ctx, at, at, opts)
}

// AttemptAt runs one attempt at at for a search that started at start,
// where \G matches.
func (m *Matcher) AttemptAt(ctx context.Context, at, start int, opts ast.Options) (region *Region, err error) {
	if at < m.begin || at > m.end {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			switch r := r.(type) {
			case *InternalError:
				region, err = nil, r
			case stackLimit:
				region, err = nil, ErrMatchStackLimit
			default:
				panic(r)
			}
		}
	}()
	m.gpos = start
	m.init(at)
	return m.run(ctx, at, m.prog.Options|opts)
}

func (m *Matcher) init(at int) {
	m.sp = 0
	m.stats = Stats{}
	for i := range m.slots {
		m.slots[i] = invalid
	}
	if m.prog.StackNeeded {
		m.pushAlt(len(m.prog.Insts)-1, at, invalid)
	}
}

// backtrack resumes at the topmost resume point. Without a stack there is
// none and the attempt finishes.
func (m *Matcher) backtrack() (pc, s, sprev int) {
	if !m.prog.StackNeeded {
		return len(m.prog.Insts) - 1, m.end, invalid
	}
	e := m.pop()
	m.stats.Backtracks++
	return e.state.pc, e.state.pos, e.state.prev
}

//nolint:gocyclo,cyclop,funlen,maintidx // the interpreter loop
func (m *Matcher) run(ctx context.Context, at int, opts ast.Options) (*Region, error) {
	insts := m.prog.Insts
	ranges := m.prog.RepeatRanges
	text, end := m.text, m.end
	done := ctx.Done()

	var region *Region
	best := -1
	pc, s := 0, at
	sprev := enc.PrevCharHead(m.enc, text, m.begin, s)

	for {
		m.stats.Steps++
		if done != nil && m.stats.Steps&interruptMask == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		in := &insts[pc]
		pc++
		switch in.Op {
		case OpFinish:
			return region, nil

		case OpEnd:
			n := s - at
			if opts&ast.FindNotEmpty != 0 && n == 0 {
				goto fail
			}
			if n > best {
				best = n
				region = m.capture(at, s)
			}
			if opts&ast.FindLongest != 0 && s < end {
				goto fail
			}
			return region, nil

		case OpExact:
			n := len(in.Str)
			if end-s < n || !bytes.Equal(text[s:s+n], in.Str) {
				goto fail
			}
			sprev = enc.PrevCharHead(m.enc, text, s, s+n)
			s += n

		case OpExactIC:
			p, ok := m.matchFold(in.Str, s)
			if !ok {
				goto fail
			}
			sprev = enc.PrevCharHead(m.enc, text, s, p)
			s = p

		case OpCClass:
			if s >= end {
				goto fail
			}
			r, n := m.enc.Decode(text[s:end])
			if !in.Set.Matches(m.enc, r) {
				goto fail
			}
			sprev = s
			s += n

		case OpAnyChar:
			if s >= end {
				goto fail
			}
			r, n := m.enc.Decode(text[s:end])
			if enc.IsNewline(m.enc, r) {
				goto fail
			}
			sprev = s
			s += n

		case OpAnyCharML:
			if s >= end {
				goto fail
			}
			_, n := m.enc.Decode(text[s:end])
			sprev = s
			s += n

		case OpAnyCharStar, OpAnyCharMLStar:
			for s < end {
				m.pushAlt(pc, s, sprev)
				r, n := m.enc.Decode(text[s:end])
				if in.Op == OpAnyCharStar && enc.IsNewline(m.enc, r) {
					goto fail
				}
				sprev = s
				s += n
			}

		case OpWordBound:
			if m.wordAt(s) == m.wordBefore(s, sprev) {
				goto fail
			}
		case OpNotWordBound:
			if m.wordAt(s) != m.wordBefore(s, sprev) {
				goto fail
			}
		case OpWordBegin:
			if !m.wordAt(s) || m.wordBefore(s, sprev) {
				goto fail
			}
		case OpWordEnd:
			if !m.wordBefore(s, sprev) || m.wordAt(s) {
				goto fail
			}

		case OpBeginBuf:
			if s != m.begin {
				goto fail
			}
		case OpEndBuf:
			if s != end {
				goto fail
			}
		case OpBeginLine:
			if s == m.begin {
				if opts&ast.NotBOL != 0 {
					goto fail
				}
			} else if s == end || !m.newlineAt(sprev) {
				goto fail
			}
		case OpEndLine:
			if s == end {
				if opts&ast.NotEOL != 0 {
					goto fail
				}
			} else if !m.newlineAt(s) {
				goto fail
			}
		case OpSemiEndBuf:
			if s == end {
				if opts&ast.NotEOL != 0 {
					goto fail
				}
			} else if !m.newlineAt(s) || s+m.charLen(s) != end {
				goto fail
			}
		case OpBeginPosition:
			if s != m.gpos {
				goto fail
			}

		case OpBackref:
			p, ok := m.backref(in, s)
			if !ok {
				goto fail
			}
			if p > s {
				sprev = enc.PrevCharHead(m.enc, text, s, p)
				s = p
			}

		case OpMemStart:
			m.slots[m.memStart+in.Num] = s
		case OpMemStartPush:
			m.pushMemStart(in.Num, s)
		case OpMemEnd:
			m.slots[m.memEnd+in.Num] = s
		case OpMemEndPush:
			m.pushMemEnd(in.Num, s)
		case OpMemEndPushRec:
			k := m.getMemStart(in.Num)
			m.pushMemEnd(in.Num, s)
			m.slots[m.memStart+in.Num] = k
		case OpMemEndRec:
			m.slots[m.memEnd+in.Num] = s
			k := m.getMemStart(in.Num)
			if m.btStart[in.Num] {
				m.slots[m.memStart+in.Num] = k
			} else {
				m.slots[m.memStart+in.Num] = m.stack[k].mem.pos
			}
			m.pushMemEndMark(in.Num)

		case OpFail:
			goto fail
		case OpJump:
			pc = in.Addr
		case OpPush:
			m.pushAlt(in.Addr, s, sprev)
		case OpPop:
			m.sp--

		case OpRepeat, OpRepeatNG:
			m.slots[in.Num] = m.sp
			m.pushRepeat(in.Num, pc)
			if ranges[in.Num].Lower == 0 {
				if in.Op == OpRepeat {
					m.pushAlt(in.Addr, s, sprev)
				} else {
					m.pushAlt(pc, s, sprev)
					pc = in.Addr
				}
			}

		case OpRepeatInc, OpRepeatIncSG:
			si := m.slots[in.Num]
			if in.Op == OpRepeatIncSG {
				si = m.getRepeat(in.Num)
			}
			m.stack[si].repeat.count++
			count, body := m.stack[si].repeat.count, m.stack[si].repeat.pc
			switch r := ranges[in.Num]; {
			case count >= r.Upper:
			case count >= r.Lower:
				m.pushAlt(pc, s, sprev)
				pc = body
			default:
				pc = body
			}
			m.pushRepeatInc(si)

		case OpRepeatIncNG, OpRepeatIncNGSG:
			si := m.slots[in.Num]
			if in.Op == OpRepeatIncNGSG {
				si = m.getRepeat(in.Num)
			}
			m.stack[si].repeat.count++
			count, body := m.stack[si].repeat.count, m.stack[si].repeat.pc
			switch r := ranges[in.Num]; {
			case count < r.Upper && count >= r.Lower:
				m.pushRepeatInc(si)
				m.pushAlt(body, s, sprev)
			case count < r.Upper:
				pc = body
				m.pushRepeatInc(si)
			case count == r.Upper:
				m.pushRepeatInc(si)
			}

		case OpNullCheckStart:
			m.pushNullCheck(entryNullCheckStart, in.Num, s)
		case OpNullCheckEnd:
			empty := false
			if m.prog.NumCall > 0 {
				empty = m.nullCheckRec(in.Num, s)
			} else {
				empty = m.nullCheck(in.Num, s)
			}
			if empty {
				pc = m.skipLoop(pc)
			}
		case OpNullCheckEndMemST:
			switch m.nullCheckMemSt(in.Num, s) {
			case -1:
				goto fail
			case 1:
				pc = m.skipLoop(pc)
			}
		case OpNullCheckEndMemSTPush:
			switch m.nullCheckMemStRec(in.Num, s) {
			case -1:
				goto fail
			case 1:
				pc = m.skipLoop(pc)
			default:
				m.pushNullCheck(entryNullCheckEnd, in.Num, s)
			}

		case OpPushPos:
			m.pushState(entryPos, pc, s, sprev)
		case OpPopPos:
			k := m.voidTil(entryPos)
			s, sprev = m.stack[k].state.pos, m.stack[k].state.prev
		case OpPushPosNot:
			m.pushState(entryPosNot, in.Addr, s, sprev)
		case OpFailPos:
			m.popTil(entryPosNot)
			goto fail

		case OpPushStopBT:
			m.push(entryStopBT)
		case OpPopStopBT:
			m.voidTil(entryStopBT)

		case OpLookBehind:
			q := enc.StepBack(m.enc, text, m.begin, s, in.Len)
			if q < 0 {
				goto fail
			}
			s = q
			sprev = enc.PrevCharHead(m.enc, text, m.begin, s)
		case OpPushLookBehindNot:
			q := enc.StepBack(m.enc, text, m.begin, s, in.Len)
			if q < 0 {
				// too little text before s: the assertion holds
				pc = in.Addr
			} else {
				m.pushState(entryLookBehindNot, in.Addr, s, sprev)
				s = q
				sprev = enc.PrevCharHead(m.enc, text, m.begin, s)
			}
		case OpFailLookBehindNot:
			m.popTil(entryLookBehindNot)
			goto fail

		case OpCall:
			m.pushState(entryCallFrame, pc, s, sprev)
			pc = in.Addr
		case OpReturn:
			pc = m.sreturn()
			m.push(entryReturn)

		default:
			panic(internalf("matcher", "unexpected opcode %s at %d", in.Op, pc-1))
		}
		continue

	fail:
		pc, s, sprev = m.backtrack()
	}
}

// skipLoop steps over the loop-back instruction that follows a null check
// that found an empty iteration.
func (m *Matcher) skipLoop(pc int) int {
	switch m.prog.Insts[pc].Op {
	case OpJump, OpPush, OpRepeatInc, OpRepeatIncNG, OpRepeatIncSG, OpRepeatIncNGSG:
		return pc + 1
	}
	panic(internalf("matcher", "null check followed by %s at %d", m.prog.Insts[pc].Op, pc))
}

func (m *Matcher) capture(at, s int) *Region {
	r := NewRegion(m.prog.NumMem + 1)
	r.Beg[0], r.End[0] = at, s
	for g := 1; g <= m.prog.NumMem; g++ {
		if m.slots[m.memEnd+g] == invalid || m.slots[m.memStart+g] == invalid {
			continue
		}
		r.Beg[g], r.End[g] = m.groupStart(g), m.groupEnd(g)
	}
	return r
}

// matchFold matches the folded string folded against the text at s and
// returns the position after it.
func (m *Matcher) matchFold(folded []byte, s int) (int, bool) {
	for len(folded) > 0 {
		if s >= m.end {
			return 0, false
		}
		pr, pn := m.enc.Decode(folded)
		tr, tn := m.enc.Decode(m.text[s:m.end])
		if m.enc.Fold(tr) != pr {
			return 0, false
		}
		folded = folded[pn:]
		s += tn
	}
	return s, true
}

// backref matches the first listed group that is set and matches at s.
func (m *Matcher) backref(in *Inst, s int) (int, bool) {
	for _, g := range in.Groups {
		if g > m.prog.NumMem || m.slots[m.memEnd+g] == invalid || m.slots[m.memStart+g] == invalid {
			continue
		}
		beg, end := m.groupStart(g), m.groupEnd(g)
		if end < beg {
			continue
		}
		if in.Fold {
			if p, ok := m.matchFold(enc.FoldString(m.enc, m.text[beg:end]), s); ok {
				return p, true
			}
			continue
		}
		n := end - beg
		if m.end-s >= n && bytes.Equal(m.text[s:s+n], m.text[beg:end]) {
			return s + n, true
		}
	}
	return 0, false
}

func (m *Matcher) charLen(s int) int {
	_, n := m.enc.Decode(m.text[s:m.end])
	return n
}

func (m *Matcher) wordAt(s int) bool {
	if s >= m.end {
		return false
	}
	r, _ := m.enc.Decode(m.text[s:m.end])
	return enc.IsWord(m.enc, r)
}

func (m *Matcher) wordBefore(s, sprev int) bool {
	return s > m.begin && sprev >= 0 && m.wordAt(sprev)
}

func (m *Matcher) newlineAt(s int) bool {
	if s < 0 || s >= m.end {
		return false
	}
	r, _ := m.enc.Decode(m.text[s:m.end])
	return enc.IsNewline(m.enc, r)
}
