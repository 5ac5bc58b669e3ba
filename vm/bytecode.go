package vm

import (
	"errors"
	"maps"

	"github.com/coregx/btregex/ast"
	"github.com/coregx/btregex/enc"
	"github.com/coregx/btregex/optimize"
)

// quantifierExpandLimit bounds, in instructions, how much code a counted
// repeat may unroll into before it is compiled as REPEAT/REPEAT_INC.
const quantifierExpandLimit = 50

type callSite struct {
	pc    int
	group int
}

type snapshot struct {
	insts, calls, ranges int
	numRepeat, numNull   int
	groupAddr            map[int]int
}

// ByteCode is the Backend that produces a Program for the Matcher.
type ByteCode struct {
	prog      *Program
	insts     []Inst
	calls     []callSite
	groupAddr map[int]int
	lengths   map[ast.Node]int
}

// NewByteCode creates an empty bytecode backend.
func NewByteCode() *ByteCode {
	return &ByteCode{
		prog:      &Program{},
		groupAddr: make(map[int]int),
		lengths:   make(map[ast.Node]int),
	}
}

// Program returns the compiled program. It is only complete after
// Compiler.Compile succeeded.
func (b *ByteCode) Program() *Program { return b.prog }

func (b *ByteCode) emit(in Inst) int {
	b.insts = append(b.insts, in)
	return len(b.insts) - 1
}

func (b *ByteCode) pc() int { return len(b.insts) }

func (b *ByteCode) save() snapshot {
	return snapshot{
		insts:     len(b.insts),
		calls:     len(b.calls),
		ranges:    len(b.prog.RepeatRanges),
		numRepeat: b.prog.NumRepeat,
		numNull:   b.prog.NumNullCheck,
		groupAddr: maps.Clone(b.groupAddr),
	}
}

func (b *ByteCode) rewind(s snapshot) {
	b.insts = b.insts[:s.insts]
	b.calls = b.calls[:s.calls]
	b.prog.RepeatRanges = b.prog.RepeatRanges[:s.ranges]
	b.prog.NumRepeat = s.numRepeat
	b.prog.NumNullCheck = s.numNull
	b.groupAddr = s.groupAddr
}

// length returns the number of instructions n compiles to. It compiles n
// and rewinds; the result does not depend on where n is placed.
func (b *ByteCode) length(c *Compiler, n ast.Node) (int, error) {
	if l, ok := b.lengths[n]; ok {
		return l, nil
	}
	s := b.save()
	if err := c.CompileTree(n); err != nil {
		return 0, err
	}
	l := b.pc() - s.insts
	b.rewind(s)
	b.lengths[n] = l
	return l, nil
}

// Prepare implements Backend.
func (b *ByteCode) Prepare(c *Compiler) error {
	b.prog.Options = c.Options()
	b.prog.Enc = c.Encoding()
	b.prog.NumMem = c.NumMem()
	b.prog.NumCall = c.NumCall()
	b.prog.Names = make([]string, c.NumMem()+1)
	for g := 1; g <= c.NumMem(); g++ {
		b.prog.Names[g] = c.GroupName(g)
	}
	return nil
}

// Finish implements Backend.
func (b *ByteCode) Finish(c *Compiler) error {
	b.emit(Inst{Op: OpEnd})
	b.emit(Inst{Op: OpFinish})

	for _, cs := range b.calls {
		addr, ok := b.groupAddr[cs.group]
		if !ok {
			return internalf("bytecode", "call to group %d has no body", cs.group)
		}
		b.insts[cs.pc].Addr = addr
	}

	p := b.prog
	p.Insts = b.insts
	p.BtMemStart = c.info.btMemStart
	p.BtMemEnd = c.info.btMemEnd
	p.Search = c.SearchInfo()
	for i := range p.Insts {
		if pushes(p.Insts[i].Op) {
			p.StackNeeded = true
			break
		}
	}
	switch {
	case p.NumRepeat != 0 || !p.BtMemEnd.Empty():
		p.PopLevel = PopDefault
	case !p.BtMemStart.Empty():
		p.PopLevel = PopMemStart
	default:
		p.PopLevel = PopFree
	}
	return nil
}

// pushes reports whether op can push a stack frame.
func pushes(op Op) bool {
	switch op {
	case OpAnyCharStar, OpAnyCharMLStar,
		OpMemStartPush, OpMemEndPush, OpMemEndRec, OpMemEndPushRec,
		OpPush, OpRepeat, OpRepeatNG,
		OpRepeatInc, OpRepeatIncNG, OpRepeatIncSG, OpRepeatIncNGSG,
		OpNullCheckStart, OpNullCheckEndMemSTPush,
		OpPushPos, OpPushPosNot, OpPushStopBT, OpPushLookBehindNot,
		OpCall, OpReturn:
		return true
	}
	return false
}

// CompileAlternatives implements Backend:
//
//	PUSH next; alt1; JUMP end; next: PUSH next2; alt2; JUMP end; ... altN; end:
func (b *ByteCode) CompileAlternatives(c *Compiler, nodes []ast.Node) error {
	if len(nodes) == 0 {
		b.emit(Inst{Op: OpFail})
		return nil
	}
	var jumps []int
	for i, n := range nodes {
		if i == len(nodes)-1 {
			if err := c.CompileTree(n); err != nil {
				return err
			}
			break
		}
		push := b.emit(Inst{Op: OpPush})
		if err := c.CompileTree(n); err != nil {
			return err
		}
		jumps = append(jumps, b.emit(Inst{Op: OpJump}))
		b.insts[push].Addr = b.pc()
	}
	for _, j := range jumps {
		b.insts[j].Addr = b.pc()
	}
	return nil
}

// CompileLiteral implements Backend.
func (b *ByteCode) CompileLiteral(_ *Compiler, lit *ast.Literal) error {
	if lit.Text != "" {
		b.emit(Inst{Op: OpExact, Str: []byte(lit.Text)})
	}
	return nil
}

// CompileFoldLiteral implements Backend. The operand is stored folded.
func (b *ByteCode) CompileFoldLiteral(c *Compiler, lit *ast.Literal) error {
	if lit.Text != "" {
		b.emit(Inst{Op: OpExactIC, Str: enc.FoldString(c.Encoding(), []byte(lit.Text))})
	}
	return nil
}

// CompileCharClass implements Backend.
func (b *ByteCode) CompileCharClass(c *Compiler, cc *ast.CharClass) error {
	fold := cc.IgnoreCase || c.Options()&ast.IgnoreCase != 0
	b.emit(Inst{Op: OpCClass, Set: enc.NewCharSet(cc.Ranges, cc.Types, cc.Negated, fold)})
	return nil
}

// CompileAnyChar implements Backend.
func (b *ByteCode) CompileAnyChar(c *Compiler, n *ast.AnyChar) error {
	if n.Multiline || c.Options()&ast.Multiline != 0 {
		b.emit(Inst{Op: OpAnyCharML})
	} else {
		b.emit(Inst{Op: OpAnyChar})
	}
	return nil
}

// CompileBackref implements Backend.
func (b *ByteCode) CompileBackref(c *Compiler, br *ast.Backreference) error {
	b.emit(Inst{
		Op:     OpBackref,
		Groups: append([]int(nil), br.Groups...),
		Fold:   br.IgnoreCase || c.Options()&ast.IgnoreCase != 0,
	})
	return nil
}

var anchorOps = [...]Op{
	ast.BeginBuf:        OpBeginBuf,
	ast.EndBuf:          OpEndBuf,
	ast.SemiEndBuf:      OpSemiEndBuf,
	ast.BeginLine:       OpBeginLine,
	ast.EndLine:         OpEndLine,
	ast.BeginPosition:   OpBeginPosition,
	ast.WordBoundary:    OpWordBound,
	ast.NotWordBoundary: OpNotWordBound,
	ast.WordBegin:       OpWordBegin,
	ast.WordEnd:         OpWordEnd,
}

// CompileAnchor implements Backend.
func (b *ByteCode) CompileAnchor(_ *Compiler, a *ast.Anchor) error {
	if int(a.Type) >= len(anchorOps) {
		return internalf("bytecode", "unknown anchor %d", a.Type)
	}
	b.emit(Inst{Op: anchorOps[a.Type]})
	return nil
}

// CompileCall implements Backend. The target address is patched by Finish.
func (b *ByteCode) CompileCall(_ *Compiler, call *ast.Call) error {
	b.calls = append(b.calls, callSite{pc: b.emit(Inst{Op: OpCall}), group: call.Group})
	return nil
}

// CompileEnclose implements Backend.
func (b *ByteCode) CompileEnclose(c *Compiler, e *ast.Enclose) error {
	switch e.Type {
	case ast.EncloseCapture:
		return b.compileCapture(c, e)
	case ast.EncloseLookAhead:
		if !e.Negate {
			b.emit(Inst{Op: OpPushPos})
			if err := c.CompileTree(e.Node); err != nil {
				return err
			}
			b.emit(Inst{Op: OpPopPos})
			return nil
		}
		push := b.emit(Inst{Op: OpPushPosNot})
		if err := c.CompileTree(e.Node); err != nil {
			return err
		}
		b.emit(Inst{Op: OpFailPos})
		b.insts[push].Addr = b.pc()
		return nil
	case ast.EncloseLookBehind:
		return b.compileLookBehind(c, e)
	case ast.EncloseAtomic:
		if q, ok := e.Node.(*ast.Quantifier); ok && isSimpleRepeat(c, q) {
			return b.compileSimpleRepeat(c, q)
		}
		b.emit(Inst{Op: OpPushStopBT})
		if err := c.CompileTree(e.Node); err != nil {
			return err
		}
		b.emit(Inst{Op: OpPopStopBT})
		return nil
	}
	return internalf("bytecode", "unexpected enclose %s", e.Type)
}

// compileCapture brackets the body with MEM_START/MEM_END. A called group
// is laid out as a subroutine entered in place:
//
//	CALL body; JUMP end; body: MEM_START; ...; MEM_END; RETURN; end:
func (b *ByteCode) compileCapture(c *Compiler, e *ast.Enclose) error {
	g := e.Group
	start := OpMemStart
	if c.BtMemStart(g) {
		start = OpMemStartPush
	}

	if !c.IsCalled(g) {
		b.emit(Inst{Op: start, Num: g})
		if err := c.CompileTree(e.Node); err != nil {
			return err
		}
		end := OpMemEnd
		if c.BtMemEnd(g) {
			end = OpMemEndPush
		}
		b.emit(Inst{Op: end, Num: g})
		return nil
	}

	call := b.emit(Inst{Op: OpCall})
	jump := b.emit(Inst{Op: OpJump})
	b.insts[call].Addr = b.pc()
	b.groupAddr[g] = b.pc()
	b.emit(Inst{Op: start, Num: g})
	if err := c.CompileTree(e.Node); err != nil {
		return err
	}
	var end Op
	switch {
	case c.IsRecursive(g) && c.BtMemEnd(g):
		end = OpMemEndPushRec
	case c.IsRecursive(g):
		end = OpMemEndRec
	case c.BtMemEnd(g):
		end = OpMemEndPush
	default:
		end = OpMemEnd
	}
	b.emit(Inst{Op: end, Num: g})
	b.emit(Inst{Op: OpReturn})
	b.insts[jump].Addr = b.pc()
	return nil
}

// compileLookBehind steps back a fixed number of characters and matches
// the body forward. A body whose top-level branches differ in length is
// split into one look-behind per branch.
func (b *ByteCode) compileLookBehind(c *Compiler, e *ast.Enclose) error {
	n, err := optimize.CharLength(e.Node, c.Env())
	if err != nil {
		alt, ok := e.Node.(*ast.Alternation)
		if !errors.Is(err, optimize.ErrTopAltVariableLength) || !ok {
			return &CompileError{Node: "look-behind", Err: ErrInvalidLookBehind}
		}
		parts := make([]ast.Node, len(alt.Nodes))
		for i, branch := range alt.Nodes {
			parts[i] = &ast.Enclose{Type: ast.EncloseLookBehind, Node: branch, Negate: e.Negate}
		}
		if e.Negate {
			return c.CompileTree(&ast.Sequence{Nodes: parts})
		}
		return c.CompileTree(&ast.Alternation{Nodes: parts})
	}

	if !e.Negate {
		b.emit(Inst{Op: OpLookBehind, Len: n})
		return c.CompileTree(e.Node)
	}
	push := b.emit(Inst{Op: OpPushLookBehindNot, Len: n})
	if err := c.CompileTree(e.Node); err != nil {
		return err
	}
	b.emit(Inst{Op: OpFailLookBehindNot})
	b.insts[push].Addr = b.pc()
	return nil
}

// CompileQuantifier implements Backend.
func (b *ByteCode) CompileQuantifier(c *Compiler, q *ast.Quantifier) error {
	if !q.Possessive {
		return b.compileRepeat(c, q, q.Greedy)
	}
	if isSimpleRepeat(c, q) {
		return b.compileSimpleRepeat(c, q)
	}
	b.emit(Inst{Op: OpPushStopBT})
	if err := b.compileRepeat(c, q, true); err != nil {
		return err
	}
	b.emit(Inst{Op: OpPopStopBT})
	return nil
}

// isSimpleRepeat reports whether q can never leave a backtrack point
// behind once its body matched, so an atomic wrapper reduces to a
// PUSH/POP loop. The loop has no null check, so the body must consume.
func isSimpleRepeat(c *Compiler, q *ast.Quantifier) bool {
	if !q.IsInfinite() || q.Min > 1 || !(q.Greedy || q.Possessive) {
		return false
	}
	switch q.Node.(type) {
	case *ast.Literal, *ast.CharClass, *ast.AnyChar, *ast.Backreference:
		return optimize.MinLength(q.Node, c.Env()) > 0
	}
	return false
}

// compileSimpleRepeat emits body*min; loop: PUSH exit; body; POP; JUMP loop.
func (b *ByteCode) compileSimpleRepeat(c *Compiler, q *ast.Quantifier) error {
	if err := c.CompileTreeNTimes(q.Node, q.Min); err != nil {
		return err
	}
	push := b.emit(Inst{Op: OpPush})
	if err := c.CompileTree(q.Node); err != nil {
		return err
	}
	b.emit(Inst{Op: OpPop})
	b.emit(Inst{Op: OpJump, Addr: push})
	b.insts[push].Addr = b.pc()
	return nil
}

//nolint:gocyclo,cyclop,funlen // one layout per repeat shape
func (b *ByteCode) compileRepeat(c *Compiler, q *ast.Quantifier, greedy bool) error {
	if q.Max == 0 {
		if !c.ContainsCalledGroup(q.Node) {
			return nil
		}
		// keep the body as a subroutine target, but never run it inline
		jump := b.emit(Inst{Op: OpJump})
		if err := c.CompileTree(q.Node); err != nil {
			return err
		}
		b.insts[jump].Addr = b.pc()
		return nil
	}

	if ac, ok := q.Node.(*ast.AnyChar); ok && greedy && q.IsInfinite() {
		if err := c.CompileTreeNTimes(q.Node, q.Min); err != nil {
			return err
		}
		if ac.Multiline || c.Options()&ast.Multiline != 0 {
			b.emit(Inst{Op: OpAnyCharMLStar})
		} else {
			b.emit(Inst{Op: OpAnyCharStar})
		}
		return nil
	}

	info := c.QuantInfo(q)
	tlen, err := b.length(c, q.Node)
	if err != nil {
		return err
	}

	switch {
	case q.IsInfinite() && (q.Min <= 1 || tlen*q.Min <= quantifierExpandLimit):
		toBody := -1
		if q.Min == 1 && tlen > quantifierExpandLimit {
			toBody = b.emit(Inst{Op: OpJump})
		} else if err := c.CompileTreeNTimes(q.Node, q.Min); err != nil {
			return err
		}
		if greedy {
			loop := b.emit(Inst{Op: OpPush})
			if toBody >= 0 {
				b.insts[toBody].Addr = b.pc()
			}
			if err := b.compileEmptyCheck(c, q.Node, info); err != nil {
				return err
			}
			b.emit(Inst{Op: OpJump, Addr: loop})
			b.insts[loop].Addr = b.pc()
			return nil
		}
		jump := b.emit(Inst{Op: OpJump})
		body := b.pc()
		if toBody >= 0 {
			b.insts[toBody].Addr = body
		}
		if err := b.compileEmptyCheck(c, q.Node, info); err != nil {
			return err
		}
		b.insts[jump].Addr = b.pc()
		b.emit(Inst{Op: OpPush, Addr: body})
		return nil

	case !q.IsInfinite() && greedy && (q.Max == 1 || (tlen+1)*q.Max <= quantifierExpandLimit):
		if err := c.CompileTreeNTimes(q.Node, q.Min); err != nil {
			return err
		}
		var pushes []int
		for i := q.Min; i < q.Max; i++ {
			pushes = append(pushes, b.emit(Inst{Op: OpPush}))
			if err := c.CompileTree(q.Node); err != nil {
				return err
			}
		}
		for _, p := range pushes {
			b.insts[p].Addr = b.pc()
		}
		return nil

	case !greedy && q.Min == 0 && q.Max == 1:
		b.emit(Inst{Op: OpPush, Addr: b.pc() + 2})
		jump := b.emit(Inst{Op: OpJump})
		if err := c.CompileTree(q.Node); err != nil {
			return err
		}
		b.insts[jump].Addr = b.pc()
		return nil
	}

	return b.compileRangeRepeat(c, q, greedy, info)
}

// compileRangeRepeat emits REPEAT id exit; body; REPEAT_INC id; exit:
func (b *ByteCode) compileRangeRepeat(c *Compiler, q *ast.Quantifier, greedy bool, info QuantInfo) error {
	id := b.prog.NumRepeat
	b.prog.NumRepeat++
	b.prog.RepeatRanges = append(b.prog.RepeatRanges, RepeatRange{Lower: q.Min, Upper: q.Max})

	op := OpRepeat
	if !greedy {
		op = OpRepeatNG
	}
	repeat := b.emit(Inst{Op: op, Num: id})
	if err := b.compileEmptyCheck(c, q.Node, info); err != nil {
		return err
	}

	scan := info.InRepeat || c.NumCall() > 0
	var inc Op
	switch {
	case greedy && scan:
		inc = OpRepeatIncSG
	case greedy:
		inc = OpRepeatInc
	case scan:
		inc = OpRepeatIncNGSG
	default:
		inc = OpRepeatIncNG
	}
	b.emit(Inst{Op: inc, Num: id})
	b.insts[repeat].Addr = b.pc()
	return nil
}

// compileEmptyCheck wraps a repeat body in NULL_CHECK_START/END when it can
// match the empty string.
func (b *ByteCode) compileEmptyCheck(c *Compiler, n ast.Node, info QuantInfo) error {
	if info.Empty == EmptyNone {
		return c.CompileTree(n)
	}
	id := b.prog.NumNullCheck
	b.prog.NumNullCheck++
	b.emit(Inst{Op: OpNullCheckStart, Num: id})
	if err := c.CompileTree(n); err != nil {
		return err
	}
	switch info.Empty {
	case EmptyMem:
		b.emit(Inst{Op: OpNullCheckEndMemST, Num: id})
	case EmptyRec:
		b.emit(Inst{Op: OpNullCheckEndMemSTPush, Num: id})
	default:
		b.emit(Inst{Op: OpNullCheckEnd, Num: id})
	}
	return nil
}
