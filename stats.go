package btregex

import (
	"go.uber.org/atomic"

	"github.com/coregx/btregex/vm"
)

// Stats is a snapshot of the work a Regex has done since it was compiled
// or its statistics were last reset.
type Stats struct {
	// Searches counts calls into the search loop, MatchAt included.
	Searches uint64
	// Attempts counts machine runs, one per start offset tried.
	Attempts uint64
	// Matches counts searches that found a match.
	Matches uint64
	// Steps and Backtracks sum the machine counters over all attempts.
	Steps      uint64
	Backtracks uint64
	// MaxStackDepth is the deepest backtracking stack seen.
	MaxStackDepth int64
	// StackLimitHits counts attempts aborted by the stack limit.
	StackLimitHits uint64
	// PrefilterCandidates counts start offsets reported by the prefilter.
	PrefilterCandidates uint64
	// PrefilterRetired counts searches that retired the prefilter.
	PrefilterRetired uint64
}

type stats struct {
	searches       atomic.Uint64
	attempts       atomic.Uint64
	matches        atomic.Uint64
	steps          atomic.Uint64
	backtracks     atomic.Uint64
	maxDepth       atomic.Int64
	stackLimitHits atomic.Uint64
	candidates     atomic.Uint64
	retired        atomic.Uint64
}

func (s *stats) attempt(ms vm.Stats) {
	s.attempts.Inc()
	s.steps.Add(uint64(ms.Steps))
	s.backtracks.Add(uint64(ms.Backtracks))
	depth := int64(ms.MaxDepth)
	for {
		cur := s.maxDepth.Load()
		if depth <= cur || s.maxDepth.CompareAndSwap(cur, depth) {
			return
		}
	}
}

func (s *stats) snapshot() Stats {
	return Stats{
		Searches:            s.searches.Load(),
		Attempts:            s.attempts.Load(),
		Matches:             s.matches.Load(),
		Steps:               s.steps.Load(),
		Backtracks:          s.backtracks.Load(),
		MaxStackDepth:       s.maxDepth.Load(),
		StackLimitHits:      s.stackLimitHits.Load(),
		PrefilterCandidates: s.candidates.Load(),
		PrefilterRetired:    s.retired.Load(),
	}
}

func (s *stats) reset() {
	s.searches.Store(0)
	s.attempts.Store(0)
	s.matches.Store(0)
	s.steps.Store(0)
	s.backtracks.Store(0)
	s.maxDepth.Store(0)
	s.stackLimitHits.Store(0)
	s.candidates.Store(0)
	s.retired.Store(0)
}
