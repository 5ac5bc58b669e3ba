package btregex

import (
	"context"

	"go.uber.org/zap"

	"github.com/coregx/btregex/vm"
)

// The methods below mirror the regexp package. They search without a
// deadline; a search that fails with an error (the stack limit) is logged
// at warn level and reported as no match.

func (r *Regex) find(b []byte, start int) *vm.Region {
	region, err := r.Search(context.Background(), b, start)
	if err != nil {
		r.logger.Warn("search failed",
			zap.String("pattern", r.String()),
			zap.Int("start", start),
			zap.Error(err),
		)
		return nil
	}
	return region
}

// Match reports whether b contains any match of the pattern.
func (r *Regex) Match(b []byte) bool {
	return r.find(b, 0) != nil
}

// MatchString reports whether s contains any match of the pattern.
func (r *Regex) MatchString(s string) bool {
	return r.Match([]byte(s))
}

// Find returns the text of the leftmost match in b, or nil.
func (r *Regex) Find(b []byte) []byte {
	region := r.find(b, 0)
	if region == nil {
		return nil
	}
	return b[region.Beg[0]:region.End[0]:region.End[0]]
}

// FindString returns the text of the leftmost match in s. It returns ""
// both for no match and for an empty match; use FindStringIndex to tell
// them apart.
func (r *Regex) FindString(s string) string {
	loc := r.FindStringIndex(s)
	if loc == nil {
		return ""
	}
	return s[loc[0]:loc[1]]
}

// FindIndex returns the location of the leftmost match in b as
// [start, end], or nil.
func (r *Regex) FindIndex(b []byte) []int {
	region := r.find(b, 0)
	if region == nil {
		return nil
	}
	return []int{region.Beg[0], region.End[0]}
}

// FindStringIndex is FindIndex for a string.
func (r *Regex) FindStringIndex(s string) []int {
	return r.FindIndex([]byte(s))
}

// FindSubmatchIndex returns the locations of the leftmost match and its
// groups as pairs, -1 for groups that did not participate, or nil.
func (r *Regex) FindSubmatchIndex(b []byte) []int {
	region := r.find(b, 0)
	if region == nil {
		return nil
	}
	return region.Indices()
}

// FindStringSubmatch returns the text of the leftmost match and of its
// groups, "" for groups that did not participate, or nil.
func (r *Regex) FindStringSubmatch(s string) []string {
	loc := r.FindSubmatchIndex([]byte(s))
	if loc == nil {
		return nil
	}
	out := make([]string, len(loc)/2)
	for i := range out {
		if loc[2*i] >= 0 {
			out[i] = s[loc[2*i]:loc[2*i+1]]
		}
	}
	return out
}

// FindAllIndex returns the locations of successive non-overlapping
// matches. If n >= 0 it returns at most n matches. Empty matches abutting
// a preceding match are ignored.
func (r *Regex) FindAllIndex(b []byte, n int) [][]int {
	var out [][]int
	r.each(b, n, func(region *vm.Region) {
		out = append(out, []int{region.Beg[0], region.End[0]})
	})
	return out
}

// FindAllString returns the text of successive non-overlapping matches.
func (r *Regex) FindAllString(s string, n int) []string {
	var out []string
	r.each([]byte(s), n, func(region *vm.Region) {
		out = append(out, s[region.Beg[0]:region.End[0]])
	})
	return out
}

// FindAllSubmatchIndex returns the group locations of successive
// non-overlapping matches.
func (r *Regex) FindAllSubmatchIndex(b []byte, n int) [][]int {
	var out [][]int
	r.each(b, n, func(region *vm.Region) {
		out = append(out, region.Indices())
	})
	return out
}

func (r *Regex) each(b []byte, n int, fn func(*vm.Region)) {
	pos, prevEnd := 0, -1
	for count := 0; (n < 0 || count < n) && pos <= len(b); {
		region := r.find(b, pos)
		if region == nil {
			return
		}
		beg, end := region.Beg[0], region.End[0]
		if beg == end && beg == prevEnd {
			pos = r.advance(b, beg)
			continue
		}
		fn(region)
		count++
		prevEnd = end
		if end > beg {
			pos = end
		} else {
			pos = r.advance(b, end)
		}
	}
}

// advance returns the offset of the character after at.
func (r *Regex) advance(b []byte, at int) int {
	if at >= len(b) {
		return at + 1
	}
	_, n := r.prog.Enc.Decode(b[at:])
	if n <= 0 {
		n = 1
	}
	return at + n
}
