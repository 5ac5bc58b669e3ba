package vm

// entryKind tags a backtracking stack entry.
type entryKind uint8

const (
	// resumable kinds: a failing pop stops at them
	entryAlt entryKind = iota + 1
	entryLookBehindNot
	entryPosNot

	// kinds restored while popping
	entryMemStart
	entryMemEnd
	entryRepeatInc

	entryNullCheckStart
	entryNullCheckEnd
	entryMemEndMark
	entryPos
	entryStopBT
	entryRepeat
	entryCallFrame
	entryReturn
	entryVoid
)

func (k entryKind) resumable() bool { return k <= entryPosNot }

// stateFrame is a resume point: ALT, POS, POS_NOT, LOOK_BEHIND_NOT.
// CALL_FRAME keeps its return address in pc.
type stateFrame struct {
	pc   int
	pos  int
	prev int
}

// repeatFrame is a REPEAT (id, body pc, iteration count) or a
// REPEAT_INC (index si of its REPEAT entry).
type repeatFrame struct {
	id    int
	pc    int
	count int
	si    int
}

// memFrame is a MEM_START, MEM_END or MEM_END_MARK. prevStart and prevEnd
// hold the group slots as they were before the entry was pushed.
type memFrame struct {
	num       int
	pos       int
	prevStart int
	prevEnd   int
}

// nullFrame is a NULL_CHECK_START or NULL_CHECK_END.
type nullFrame struct {
	id  int
	pos int
}

// stackEntry is one backtracking stack element. Only the payload named by
// kind is meaningful.
type stackEntry struct {
	kind   entryKind
	state  stateFrame
	repeat repeatFrame
	mem    memFrame
	null   nullFrame
}

// invalid marks an unset slot.
const invalid = -1

// stackLimit is the panic value raised when the stack may not grow.
type stackLimit struct{}

func (m *Matcher) push(kind entryKind) *stackEntry {
	if m.sp == len(m.stack) {
		m.grow()
	}
	e := &m.stack[m.sp]
	e.kind = kind
	m.sp++
	if m.sp > m.stats.MaxDepth {
		m.stats.MaxDepth = m.sp
	}
	return e
}

func (m *Matcher) grow() {
	n := 2 * len(m.stack)
	if n < initStackSize {
		n = initStackSize
	}
	if m.limit > 0 && n > m.limit {
		if len(m.stack) >= m.limit {
			panic(stackLimit{})
		}
		n = m.limit
	}
	stack := make([]stackEntry, n)
	copy(stack, m.stack[:m.sp])
	m.stack = stack
}

func (m *Matcher) pushState(kind entryKind, pc, pos, prev int) {
	e := m.push(kind)
	e.state = stateFrame{pc: pc, pos: pos, prev: prev}
}

func (m *Matcher) pushAlt(pc, pos, prev int) { m.pushState(entryAlt, pc, pos, prev) }

func (m *Matcher) pushRepeat(id, pc int) {
	e := m.push(entryRepeat)
	e.repeat = repeatFrame{id: id, pc: pc}
}

func (m *Matcher) pushRepeatInc(si int) {
	e := m.push(entryRepeatInc)
	e.repeat.si = si
}

func (m *Matcher) pushMemStart(num, pos int) {
	e := m.push(entryMemStart)
	e.mem = memFrame{num: num, pos: pos, prevStart: m.slots[m.memStart+num], prevEnd: m.slots[m.memEnd+num]}
	m.slots[m.memStart+num] = m.sp - 1
	m.slots[m.memEnd+num] = invalid
}

func (m *Matcher) pushMemEnd(num, pos int) {
	e := m.push(entryMemEnd)
	e.mem = memFrame{num: num, pos: pos, prevStart: m.slots[m.memStart+num], prevEnd: m.slots[m.memEnd+num]}
	m.slots[m.memEnd+num] = m.sp - 1
}

func (m *Matcher) pushMemEndMark(num int) {
	e := m.push(entryMemEndMark)
	e.mem = memFrame{num: num, pos: invalid, prevStart: invalid, prevEnd: invalid}
}

func (m *Matcher) pushNullCheck(kind entryKind, id, pos int) {
	e := m.push(kind)
	e.null = nullFrame{id: id, pos: pos}
}

// restore undoes the side effect of a popped entry.
func (m *Matcher) restore(e *stackEntry) {
	switch e.kind {
	case entryMemStart, entryMemEnd:
		m.slots[m.memStart+e.mem.num] = e.mem.prevStart
		m.slots[m.memEnd+e.mem.num] = e.mem.prevEnd
	case entryRepeatInc:
		m.stack[e.repeat.si].repeat.count--
	}
}

// pop removes entries down to and including the topmost resumable one
// and returns it. What is restored on the way depends on the program's
// pop level.
func (m *Matcher) pop() *stackEntry {
	level := m.prog.PopLevel
	for {
		if m.sp == 0 {
			panic(internalf("stack", "pop below bottom"))
		}
		m.sp--
		e := &m.stack[m.sp]
		if e.kind.resumable() {
			return e
		}
		switch {
		case level == PopFree:
		case level == PopMemStart && e.kind != entryMemStart:
		default:
			m.restore(e)
		}
	}
}

// popTil pops and restores entries through the topmost one of kind.
func (m *Matcher) popTil(kind entryKind) {
	for {
		if m.sp == 0 {
			panic(internalf("stack", "no %d entry to pop to", kind))
		}
		m.sp--
		e := &m.stack[m.sp]
		if e.kind == kind {
			return
		}
		m.restore(e)
	}
}

// voidTil turns every resume point above the topmost entry of kind into a
// VOID entry, voids that entry too and returns its index.
func (m *Matcher) voidTil(kind entryKind) int {
	for k := m.sp - 1; k >= 0; k-- {
		e := &m.stack[k]
		if e.kind.resumable() {
			e.kind = entryVoid
		} else if e.kind == kind {
			e.kind = entryVoid
			return k
		}
	}
	panic(internalf("stack", "no %d entry to void to", kind))
}

// getMemStart finds the MEM_START entry of group num that matches the
// current nesting level, skipping groups closed by MEM_END entries or
// marks.
func (m *Matcher) getMemStart(num int) int {
	level := 0
	for k := m.sp - 1; k >= 0; k-- {
		e := &m.stack[k]
		switch e.kind {
		case entryMemEnd, entryMemEndMark:
			if e.mem.num == num {
				level++
			}
		case entryMemStart:
			if e.mem.num == num {
				if level == 0 {
					return k
				}
				level--
			}
		}
	}
	panic(internalf("stack", "no start for group %d", num))
}

// getRepeat finds the REPEAT entry for id in the current call frame.
func (m *Matcher) getRepeat(id int) int {
	level := 0
	for k := m.sp - 1; k >= 0; k-- {
		e := &m.stack[k]
		switch e.kind {
		case entryRepeat:
			if level == 0 && e.repeat.id == id {
				return k
			}
		case entryCallFrame:
			level--
		case entryReturn:
			level++
		}
	}
	panic(internalf("stack", "no repeat %d", id))
}

// sreturn finds the return address of the innermost open call.
func (m *Matcher) sreturn() int {
	level := 0
	for k := m.sp - 1; k >= 0; k-- {
		e := &m.stack[k]
		switch e.kind {
		case entryCallFrame:
			if level == 0 {
				return e.state.pc
			}
			level--
		case entryReturn:
			level++
		}
	}
	panic(internalf("stack", "return without call"))
}

// findNullCheck returns the NULL_CHECK_START entry for id. With rec set,
// iterations closed by a NULL_CHECK_END entry of the same id are skipped.
func (m *Matcher) findNullCheck(id int, rec bool) int {
	level := 0
	for k := m.sp - 1; k >= 0; k-- {
		e := &m.stack[k]
		switch e.kind {
		case entryNullCheckStart:
			if e.null.id != id {
				continue
			}
			if level == 0 {
				return k
			}
			level--
		case entryNullCheckEnd:
			if rec && e.null.id == id {
				level++
			}
		}
	}
	panic(internalf("stack", "no null check %d", id))
}

// nullCheck reports whether the loop iteration opened by NULL_CHECK_START
// id ends at the position it started.
func (m *Matcher) nullCheck(id, s int) bool {
	return m.stack[m.findNullCheck(id, false)].null.pos == s
}

// nullCheckRec is nullCheck for loops that recursion can re-enter.
func (m *Matcher) nullCheckRec(id, s int) bool {
	return m.stack[m.findNullCheck(id, true)].null.pos == s
}

// nullCheckMemSt is nullCheck that also looks at captures: it returns 1
// for an empty iteration, 0 when the iteration moved or changed a
// capture, and -1 when a capture reports a span away from s.
func (m *Matcher) nullCheckMemSt(id, s int) int {
	k := m.findNullCheck(id, false)
	if m.stack[k].null.pos != s {
		return 0
	}
	return m.capturesSettled(k+1, s)
}

// nullCheckMemStRec is nullCheckMemSt for loops that recursion can
// re-enter.
func (m *Matcher) nullCheckMemStRec(id, s int) int {
	k := m.findNullCheck(id, true)
	if m.stack[k].null.pos != s {
		return 0
	}
	return m.capturesSettled(k+1, s)
}

// capturesSettled compares every group opened above entry from with its
// value before the iteration.
func (m *Matcher) capturesSettled(from, s int) int {
	result := 1
	for k := from; k < m.sp; k++ {
		e := &m.stack[k]
		if e.kind != entryMemStart {
			continue
		}
		g := e.mem.num
		if m.slots[m.memEnd+g] == invalid {
			return 0
		}
		beg, end := m.groupStart(g), m.groupEnd(g)
		if beg != m.resolveStart(g, e.mem.prevStart) || end != m.resolveEnd(g, e.mem.prevEnd) {
			return 0
		}
		if end != s {
			result = -1
		}
	}
	return result
}

// resolveStart turns a start slot value into a position.
func (m *Matcher) resolveStart(g, v int) int {
	if v == invalid || !m.btStart[g] {
		return v
	}
	return m.stack[v].mem.pos
}

// resolveEnd turns an end slot value into a position.
func (m *Matcher) resolveEnd(g, v int) int {
	if v == invalid || !m.btEnd[g] {
		return v
	}
	return m.stack[v].mem.pos
}

func (m *Matcher) groupStart(g int) int { return m.resolveStart(g, m.slots[m.memStart+g]) }

func (m *Matcher) groupEnd(g int) int { return m.resolveEnd(g, m.slots[m.memEnd+g]) }
