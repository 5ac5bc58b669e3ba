package vm

import (
	"sync"

	"golang.org/x/sys/cpu"
)

// maxRetainedStack is the largest stack, in entries, a pooled Matcher
// keeps between uses.
const maxRetainedStack = 1 << 16

// Pool hands out Matchers for one Program. Get and Put are safe for
// concurrent use.
type Pool struct {
	prog  *Program
	limit int

	_    cpu.CacheLinePad
	mu   sync.Mutex
	free []*Matcher
	_    cpu.CacheLinePad
}

// NewPool creates a pool whose matchers use the given stack limit
// (0 means unlimited).
func NewPool(prog *Program, stackLimit int) *Pool {
	return &Pool{prog: prog, limit: stackLimit}
}

// Get returns an idle matcher or a new one.
func (p *Pool) Get() *Matcher {
	p.mu.Lock()
	if n := len(p.free); n > 0 {
		m := p.free[n-1]
		p.free[n-1] = nil
		p.free = p.free[:n-1]
		p.mu.Unlock()
		return m
	}
	p.mu.Unlock()

	m := NewMatcher(p.prog)
	m.SetStackLimit(p.limit)
	return m
}

// Put returns m to the pool. Oversized stacks are released.
func (p *Pool) Put(m *Matcher) {
	if m == nil || m.prog != p.prog {
		return
	}
	m.text = nil
	m.sp = 0
	if len(m.stack) > maxRetainedStack {
		m.stack = nil
	}
	p.mu.Lock()
	p.free = append(p.free, m)
	p.mu.Unlock()
}

// Idle returns the number of matchers waiting in the pool.
func (p *Pool) Idle() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Reclaim drops every idle matcher and returns how many were dropped.
func (p *Pool) Reclaim() int {
	p.mu.Lock()
	n := len(p.free)
	p.free = nil
	p.mu.Unlock()
	return n
}
