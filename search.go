package btregex

import (
	"bytes"
	"context"
	"errors"
	"unicode/utf8"

	"github.com/coregx/btregex/ast"
	"github.com/coregx/btregex/enc"
	"github.com/coregx/btregex/optimize"
	"github.com/coregx/btregex/prefilter"
	"github.com/coregx/btregex/vm"
)

// ErrInvalidRange is returned for a search range outside the text.
var ErrInvalidRange = errors.New("btregex: invalid search range")

// attemptCheckMask sets how often, in attempts, the search loop polls the
// context between machine runs.
const attemptCheckMask = 1<<8 - 1

// Range bounds one search.
//
// Begin and End delimit the text the pattern sees: string and line anchors
// treat Begin as the text start and End as the text end. Start and Last
// bound the offsets a match may start at; \G matches at Start. All
// offsets, including those in the returned Region, index the full text.
type Range struct {
	Begin, End  int
	Start, Last int
	Options     ast.Options
}

func (rng Range) valid(n int) bool {
	return 0 <= rng.Begin && rng.Begin <= rng.End && rng.End <= n &&
		rng.Begin <= rng.Start && rng.Start <= rng.Last && rng.Last <= rng.End
}

// searcher runs the retry-at-next-offset loop of one search.
type searcher struct {
	re    *Regex
	m     *vm.Matcher
	ctx   context.Context
	text  []byte
	rng   Range
	opts  ast.Options
	tries int
	best  *vm.Region
}

func (s *searcher) run() (*vm.Region, error) {
	si := s.re.prog.Search
	lo, hi := s.rng.Start, s.rng.Last

	if s.rng.End-lo < si.Length.Min {
		return nil, nil
	}
	if h := s.rng.End - si.Length.Min; h < hi {
		hi = h
	}

	switch {
	case si.Anchor&optimize.AnchorBeginBuf != 0:
		if lo != s.rng.Begin {
			return nil, nil
		}
		hi = lo
	case si.Anchor&optimize.AnchorBeginPosition != 0:
		hi = lo
	case si.Anchor&optimize.AnchorAnyCharStarML != 0 && s.re.lineSkip:
		// .* crosses every newline: a later start can only match if this
		// one does.
		hi = lo
	}

	if si.Anchor&(optimize.AnchorEndBuf|optimize.AnchorSemiEndBuf) != 0 {
		minEnd := s.rng.End
		if si.Anchor&optimize.AnchorEndBuf == 0 && minEnd > s.rng.Begin && s.text[minEnd-1] == '\n' {
			minEnd--
		}
		if si.AnchorDmax != optimize.InfiniteDistance {
			if l := minEnd - si.AnchorDmax; l > lo {
				lo = l
			}
		}
		if h := s.rng.End - si.AnchorDmin; h < hi {
			hi = h
		}
	}

	if lo > hi {
		return nil, nil
	}
	return s.scan(lo, hi)
}

// scan tries every start offset in [lo, hi] the hints allow.
func (s *searcher) scan(lo, hi int) (*vm.Region, error) {
	lineSkip := s.re.prog.Search.Anchor&optimize.AnchorAnyCharStar != 0 && s.re.lineSkip

	var tr *prefilter.Tracker
	if s.re.pf != nil && !lineSkip {
		tr = prefilter.NewTracker(s.re.pf)
	}
	haystack := s.text[:s.rng.End]

	for at := lo; at <= hi; {
		if !tr.IsActive() {
			done, err := s.try(at)
			if done || err != nil {
				return s.best, err
			}
			at = s.next(at, lineSkip)
			continue
		}

		p := tr.Find(haystack, at+s.re.pfMin)
		if p < 0 {
			return s.best, nil
		}
		s.re.stats.candidates.Inc()
		if !tr.IsActive() {
			s.re.stats.retired.Inc()
		}

		cLo := at
		if s.re.pfMax != optimize.InfiniteDistance {
			if l := p - s.re.pfMax; l > cLo {
				cLo = l
			}
		}
		cHi := p - s.re.pfMin
		if cHi > hi {
			cHi = hi
		}
		for c := cLo; c <= cHi; c++ {
			if !s.isCharHead(c) {
				continue
			}
			before := s.best
			done, err := s.try(c)
			if err != nil {
				return nil, err
			}
			if s.best != before {
				tr.ConfirmMatch()
			}
			if done {
				return s.best, nil
			}
		}
		at = cHi + 1
	}
	return s.best, nil
}

// try runs one attempt at at and reports whether the search is over.
func (s *searcher) try(at int) (bool, error) {
	if s.tries&attemptCheckMask == 0 {
		if err := s.ctx.Err(); err != nil {
			return true, err
		}
	}
	s.tries++

	region, err := s.m.AttemptAt(s.ctx, at, s.rng.Start, s.opts)
	s.re.stats.attempt(s.m.Stats())
	if err != nil {
		if errors.Is(err, vm.ErrMatchStackLimit) {
			s.re.stats.stackLimitHits.Inc()
		}
		return true, err
	}
	if region == nil {
		return false, nil
	}

	if s.opts&ast.FindLongest == 0 {
		s.best = region
		return true, nil
	}
	if s.best == nil || region.End[0]-region.Beg[0] > s.best.End[0]-s.best.Beg[0] {
		s.best = region
	}
	return false, nil
}

// next returns the start offset after a failed attempt at at.
func (s *searcher) next(at int, lineSkip bool) int {
	if at >= s.rng.End {
		return at + 1
	}
	if lineSkip {
		// A start later on the same line is covered by .* from this one.
		i := bytes.IndexByte(s.text[at:s.rng.End], '\n')
		if i < 0 {
			return s.rng.Last + 1
		}
		return at + i + 1
	}
	_, n := s.re.prog.Enc.Decode(s.text[at:s.rng.End])
	if n <= 0 {
		n = 1
	}
	return at + n
}

func (s *searcher) isCharHead(at int) bool {
	if at >= s.rng.End || s.re.prog.Enc != enc.UTF8 {
		return true
	}
	return utf8.RuneStart(s.text[at])
}

// lineSkipSafe reports whether a failed attempt at the start of a leading
// .* rules out the rest of its line. Zero-width tests that look around the
// start offset break that.
func lineSkipSafe(prog *vm.Program) bool {
	for i := range prog.Insts {
		switch prog.Insts[i].Op {
		case vm.OpLookBehind, vm.OpPushLookBehindNot, vm.OpPushPos, vm.OpPushPosNot,
			vm.OpWordBound, vm.OpNotWordBound, vm.OpWordBegin, vm.OpWordEnd,
			vm.OpBeginPosition, vm.OpBackref, vm.OpCall:
			return false
		}
	}
	return true
}
