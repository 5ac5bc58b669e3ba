package prefilter

// TrackerConfig sets when a Tracker gives up on its prefilter.
type TrackerConfig struct {
	// Warmup is the number of candidates reported before the first check.
	// Default: 128
	Warmup uint64

	// Interval is the number of candidates between later checks.
	// Default: 64
	Interval uint64

	// MinRatio is the lowest confirmed/candidates ratio that keeps the
	// prefilter in use.
	// Default: 0.1
	MinRatio float64
}

// DefaultTrackerConfig returns the default tracker configuration.
func DefaultTrackerConfig() TrackerConfig {
	return TrackerConfig{Warmup: 128, Interval: 64, MinRatio: 0.1}
}

// TrackerStats counts what a Tracker has seen during one search.
type TrackerStats struct {
	Candidates uint64
	Confirmed  uint64
}

// Ratio returns Confirmed/Candidates, or 0 before the first candidate.
func (s TrackerStats) Ratio() float64 {
	if s.Candidates == 0 {
		return 0
	}
	return float64(s.Confirmed) / float64(s.Candidates)
}

// Tracker wraps a Prefilter for one search and retires it when too few of
// its candidates lead to a match.
//
// Every candidate costs at least one machine attempt. A literal that is
// common in the text while matches are rare makes the offset-by-offset
// scan cheaper, so the search loop drops back to it once IsActive turns
// false:
//
//	tr := prefilter.NewTracker(pf)
//	for at := 0; at <= len(text); {
//	    if !tr.IsActive() {
//	        // try at, then step one character
//	    }
//	    p := tr.Find(text, at)
//	    if p < 0 {
//	        break
//	    }
//	    if attempt(p) {
//	        tr.ConfirmMatch()
//	    }
//	    at = p + 1
//	}
//
// A nil *Tracker is valid and inactive. A Tracker is not safe for
// concurrent use.
type Tracker struct {
	pf      Prefilter
	cfg     TrackerConfig
	stats   TrackerStats
	next    uint64
	retired bool
}

// NewTracker wraps pf with the default configuration. It returns nil for a
// nil pf.
func NewTracker(pf Prefilter) *Tracker {
	return NewTrackerWithConfig(pf, DefaultTrackerConfig())
}

// NewTrackerWithConfig wraps pf with cfg. It returns nil for a nil pf.
func NewTrackerWithConfig(pf Prefilter, cfg TrackerConfig) *Tracker {
	if pf == nil {
		return nil
	}
	return &Tracker{pf: pf, cfg: cfg, next: cfg.Warmup}
}

// Find returns the next candidate at or after start. It returns -1 when
// there is none or the tracker is inactive.
func (t *Tracker) Find(haystack []byte, start int) int {
	if !t.IsActive() {
		return -1
	}
	pos := t.pf.Find(haystack, start)
	if pos < 0 {
		return -1
	}
	t.stats.Candidates++
	if t.stats.Candidates >= t.next {
		t.next = t.stats.Candidates + t.cfg.Interval
		t.retired = t.stats.Ratio() < t.cfg.MinRatio
	}
	return pos
}

// ConfirmMatch records that an attempt from the last candidate matched.
func (t *Tracker) ConfirmMatch() {
	if t != nil {
		t.stats.Confirmed++
	}
}

// IsActive reports whether Find still consults the prefilter.
func (t *Tracker) IsActive() bool {
	return t != nil && !t.retired
}

// Stats returns the counts so far.
func (t *Tracker) Stats() TrackerStats {
	if t == nil {
		return TrackerStats{}
	}
	return t.stats
}

// Reset clears the counts and reactivates the tracker.
func (t *Tracker) Reset() {
	t.stats = TrackerStats{}
	t.next = t.cfg.Warmup
	t.retired = false
}

// Prefilter returns the wrapped prefilter.
func (t *Tracker) Prefilter() Prefilter {
	return t.pf
}
