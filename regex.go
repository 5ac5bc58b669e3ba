// Package btregex is a backtracking regular-expression engine in the
// Oniguruma tradition.
//
// A pattern tree (package ast) is compiled into a bytecode program
// annotated with search hints (packages optimize and vm) and executed by a
// stack machine with an explicit, growable backtracking stack. The engine
// supports backreferences, lookahead and lookbehind, atomic groups,
// possessive and counted repetition, and recursive subexpression calls.
//
// Basic usage:
//
//	re, err := btregex.CompileString(`(\w+)@(\w+)\.com`, btregex.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(re.FindStringSubmatch("mail bob@example.com today"))
//	// [bob@example.com bob example]
//
// Trees the Go parser cannot express (calls, lookaround, atomic groups) are
// built with the ast helpers:
//
//	node := ast.Named(1, "p", ast.Cat(ast.Lit("a"), ast.Quest(ast.CallGroup(1)), ast.Lit("b")))
//	re, err := btregex.Compile(node, btregex.DefaultConfig())
//
// Backtracking can take exponential time on hostile patterns. Config.StackLimit
// and the context accepted by Search bound the work of one search.
package btregex

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/coregx/btregex/ast"
	"github.com/coregx/btregex/literal"
	"github.com/coregx/btregex/optimize"
	"github.com/coregx/btregex/prefilter"
	"github.com/coregx/btregex/vm"
)

// Regex is a compiled pattern.
//
// A Regex is safe to use concurrently from multiple goroutines. Matchers
// are drawn from an internal pool for each search.
type Regex struct {
	expr string
	node ast.Node
	prog *vm.Program
	pool *vm.Pool

	// pf reports candidate starts; a candidate at p allows starts in
	// [p-pfMax, p-pfMin].
	pf           prefilter.Prefilter
	pfMin, pfMax int
	lineSkip     bool

	logger *zap.Logger
	stats  stats
}

// Compile compiles a pattern tree.
//
// Example:
//
//	re, err := btregex.Compile(ast.Cat(ast.Lit("a"), ast.Plus(ast.Lit("b"))), btregex.DefaultConfig())
func Compile(node ast.Node, config Config) (*Regex, error) {
	return compile(node, "", config)
}

// CompileString parses pattern with Go's regexp/syntax parser and compiles
// the resulting tree. Constructs that parser rejects must be built with
// the ast helpers and passed to Compile.
func CompileString(pattern string, config Config) (*Regex, error) {
	node, err := ast.Parse(pattern)
	if err != nil {
		return nil, err
	}
	return compile(node, pattern, config)
}

// MustCompile is like CompileString with the default configuration but
// panics if the pattern cannot be compiled.
func MustCompile(pattern string) *Regex {
	re, err := CompileString(pattern, DefaultConfig())
	if err != nil {
		panic(`btregex: Compile(` + quote(pattern) + `): ` + err.Error())
	}
	return re
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}

func compile(node ast.Node, expr string, config Config) (*Regex, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	prog, err := vm.Compile(node, vm.CompileConfig{
		Syntax:   config.dialect(),
		Options:  config.options(),
		Enc:      config.encoding(),
		MaxDepth: config.MaxDepth,
	})
	if err != nil {
		return nil, err
	}

	re := &Regex{
		expr:     expr,
		node:     node,
		prog:     prog,
		pool:     vm.NewPool(prog, config.StackLimit),
		lineSkip: lineSkipSafe(prog),
		logger:   config.logger(),
	}
	if config.EnablePrefilter {
		re.selectPrefilter(config)
	}

	re.logger.Debug("compiled pattern",
		zap.String("pattern", re.String()),
		zap.Int("insts", len(prog.Insts)),
		zap.Int("groups", prog.NumMem),
		zap.Bool("stack", prog.StackNeeded),
		zap.Stringer("pop", prog.PopLevel),
		zap.Stringer("anchor", prog.Search.Anchor),
		zap.Stringer("hint", prog.Search.Kind),
		zap.String("prefilter", re.PrefilterName()),
	)
	return re, nil
}

// selectPrefilter picks the candidate finder for the search loop: the
// optimizer's exact hint, then the literal prefix set, then the
// optimizer's byte map.
func (r *Regex) selectPrefilter(config Config) {
	si := r.prog.Search
	if si.Anchor&(optimize.AnchorBeginBuf|optimize.AnchorBeginPosition) != 0 {
		return
	}

	if si.Kind == optimize.HintExact && si.Dmin != optimize.InfiniteDistance {
		seq := literal.NewSeq(literal.NewLiteral(si.Exact, false))
		r.pf = prefilter.NewBuilder(seq).Build()
		r.pfMin, r.pfMax = si.Dmin, si.Dmax
		return
	}

	lc := literal.DefaultConfig()
	lc.MaxLiterals = config.MaxLiterals
	lc.MaxDepth = config.MaxDepth
	seq := literal.New(lc).Prefixes(r.node, r.prog.Options)
	if pf := prefilter.NewBuilder(seq).Build(); pf != nil {
		r.pf = pf
		return
	}

	if si.Kind == optimize.HintMap && si.Dmin != optimize.InfiniteDistance {
		r.pf = prefilter.NewByteMap(&si.Map)
		r.pfMin, r.pfMax = si.Dmin, si.Dmax
	}
}

// String returns the source pattern, or the tree dump for a Regex compiled
// from a tree.
func (r *Regex) String() string {
	if r.expr != "" {
		return r.expr
	}
	return ast.String(r.node)
}

// Tree returns the pattern tree the Regex was compiled from.
func (r *Regex) Tree() ast.Node {
	return r.node
}

// Program returns the compiled program.
func (r *Regex) Program() *vm.Program {
	return r.prog
}

// PrefilterName names the candidate finder used by searches, or "none".
func (r *Regex) PrefilterName() string {
	if r.pf == nil {
		return "none"
	}
	return r.pf.String()
}

// NumSubexp returns the number of capture groups.
func (r *Regex) NumSubexp() int {
	return r.prog.NumMem
}

// SubexpNames returns the names of the capture groups, indexed by group
// number. names[0] and the names of unnamed groups are empty.
func (r *Regex) SubexpNames() []string {
	names := make([]string, r.prog.NumMem+1)
	copy(names, r.prog.Names)
	return names
}

// SubexpIndex returns the number of the group with the given name, or -1.
func (r *Regex) SubexpIndex(name string) int {
	return r.prog.GroupIndex(name)
}

// Stats returns a snapshot of the work done by searches.
func (r *Regex) Stats() Stats {
	return r.stats.snapshot()
}

// ResetStats zeroes the statistics.
func (r *Regex) ResetStats() {
	r.stats.reset()
}

// MatchAt runs one attempt anchored at offset at of text. It returns nil
// and no error when the pattern does not match there.
func (r *Regex) MatchAt(ctx context.Context, text []byte, at int, opts ast.Options) (*vm.Region, error) {
	if at < 0 || at > len(text) {
		return nil, ErrInvalidRange
	}
	r.stats.searches.Inc()

	m := r.pool.Get()
	defer r.pool.Put(m)
	m.Reset(text, 0, len(text))
	region, err := m.MatchAt(ctx, at, opts)
	r.stats.attempt(m.Stats())
	if region != nil {
		r.stats.matches.Inc()
	}
	return region, err
}

// Search finds the leftmost match starting at or after start.
func (r *Regex) Search(ctx context.Context, text []byte, start int) (*vm.Region, error) {
	return r.SearchRange(ctx, text, Range{Begin: 0, End: len(text), Start: start, Last: len(text)})
}

// SearchRange finds the leftmost match whose start lies in
// [rng.Start, rng.Last]. With the find-longest option it returns the
// longest match in the range instead, the leftmost among equals.
func (r *Regex) SearchRange(ctx context.Context, text []byte, rng Range) (*vm.Region, error) {
	if !rng.valid(len(text)) {
		return nil, ErrInvalidRange
	}
	r.stats.searches.Inc()

	m := r.pool.Get()
	defer r.pool.Put(m)
	m.Reset(text, rng.Begin, rng.End)

	s := searcher{
		re:   r,
		m:    m,
		ctx:  ctx,
		text: text,
		rng:  rng,
		opts: r.prog.Options | rng.Options,
	}
	region, err := s.run()
	if err != nil {
		return nil, err
	}
	if region != nil {
		r.stats.matches.Inc()
	}
	return region, nil
}
