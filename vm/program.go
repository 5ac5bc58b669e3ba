// Package vm compiles pattern trees into bytecode programs and runs them
// on a backtracking stack machine.
//
// A Program is immutable once Compile returns and may be shared by any
// number of goroutines. A Matcher holds the mutable state of one attempt:
// the backtracking stack, the capture slots and the repeat counters. It is
// used by one goroutine at a time and is recycled through a Pool.
//
// Alternatives, captures, lookaround, repeat counters and subexpression
// calls are all recorded as frames on the Matcher's own stack, so deep
// recursion in a pattern never grows the Go call stack.
package vm

import (
	"fmt"
	"strings"

	"github.com/coregx/btregex/ast"
	"github.com/coregx/btregex/enc"
	"github.com/coregx/btregex/internal/bitset"
	"github.com/coregx/btregex/optimize"
)

// Op is an instruction opcode.
type Op uint8

// Opcodes.
const (
	OpFinish Op = iota // overall failure sink
	OpEnd              // success: commit the region

	OpExact   // Str
	OpExactIC // Str, folded
	OpCClass  // Set

	OpAnyChar
	OpAnyCharML
	OpAnyCharStar
	OpAnyCharMLStar

	OpWordBound
	OpNotWordBound
	OpWordBegin
	OpWordEnd
	OpBeginBuf
	OpEndBuf
	OpSemiEndBuf
	OpBeginLine
	OpEndLine
	OpBeginPosition

	OpBackref // Groups, Fold

	OpMemStart      // Num
	OpMemStartPush  // Num
	OpMemEnd        // Num
	OpMemEndPush    // Num
	OpMemEndRec     // Num
	OpMemEndPushRec // Num

	OpFail
	OpJump // Addr
	OpPush // Addr
	OpPop

	OpRepeat        // Num, Addr (exit)
	OpRepeatNG      // Num, Addr (exit)
	OpRepeatInc     // Num
	OpRepeatIncNG   // Num
	OpRepeatIncSG   // Num
	OpRepeatIncNGSG // Num

	OpNullCheckStart        // Num
	OpNullCheckEnd          // Num
	OpNullCheckEndMemST     // Num
	OpNullCheckEndMemSTPush // Num

	OpPushPos
	OpPopPos
	OpPushPosNot // Addr
	OpFailPos

	OpPushStopBT
	OpPopStopBT

	OpLookBehind        // Len
	OpPushLookBehindNot // Addr, Len
	OpFailLookBehindNot

	OpCall // Addr
	OpReturn
)

var opNames = [...]string{
	OpFinish:                "finish",
	OpEnd:                   "end",
	OpExact:                 "exact",
	OpExactIC:               "exact-ic",
	OpCClass:                "cclass",
	OpAnyChar:               "anychar",
	OpAnyCharML:             "anychar-ml",
	OpAnyCharStar:           "anychar*",
	OpAnyCharMLStar:         "anychar-ml*",
	OpWordBound:             "word-bound",
	OpNotWordBound:          "not-word-bound",
	OpWordBegin:             "word-begin",
	OpWordEnd:               "word-end",
	OpBeginBuf:              "begin-buf",
	OpEndBuf:                "end-buf",
	OpSemiEndBuf:            "semi-end-buf",
	OpBeginLine:             "begin-line",
	OpEndLine:               "end-line",
	OpBeginPosition:         "begin-position",
	OpBackref:               "backref",
	OpMemStart:              "mem-start",
	OpMemStartPush:          "mem-start-push",
	OpMemEnd:                "mem-end",
	OpMemEndPush:            "mem-end-push",
	OpMemEndRec:             "mem-end-rec",
	OpMemEndPushRec:         "mem-end-push-rec",
	OpFail:                  "fail",
	OpJump:                  "jump",
	OpPush:                  "push",
	OpPop:                   "pop",
	OpRepeat:                "repeat",
	OpRepeatNG:              "repeat-ng",
	OpRepeatInc:             "repeat-inc",
	OpRepeatIncNG:           "repeat-inc-ng",
	OpRepeatIncSG:           "repeat-inc-sg",
	OpRepeatIncNGSG:         "repeat-inc-ng-sg",
	OpNullCheckStart:        "null-check-start",
	OpNullCheckEnd:          "null-check-end",
	OpNullCheckEndMemST:     "null-check-end-memst",
	OpNullCheckEndMemSTPush: "null-check-end-memst-push",
	OpPushPos:               "push-pos",
	OpPopPos:                "pop-pos",
	OpPushPosNot:            "push-pos-not",
	OpFailPos:               "fail-pos",
	OpPushStopBT:            "push-stop-bt",
	OpPopStopBT:             "pop-stop-bt",
	OpLookBehind:            "look-behind",
	OpPushLookBehindNot:     "push-look-behind-not",
	OpFailLookBehindNot:     "fail-look-behind-not",
	OpCall:                  "call",
	OpReturn:                "return",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", uint8(op))
}

// Inst is one program instruction. Which operand fields are meaningful
// depends on Op; the opcode list above names them.
type Inst struct {
	Op     Op
	Addr   int
	Num    int
	Len    int
	Str    []byte
	Set    *enc.CharSet
	Groups []int
	Fold   bool
}

func (in *Inst) String() string {
	switch in.Op {
	case OpExact, OpExactIC:
		return fmt.Sprintf("%s %q", in.Op, in.Str)
	case OpCClass:
		return fmt.Sprintf("%s %s", in.Op, in.Set)
	case OpBackref:
		if in.Fold {
			return fmt.Sprintf("%s %v /i", in.Op, in.Groups)
		}
		return fmt.Sprintf("%s %v", in.Op, in.Groups)
	case OpJump, OpPush, OpPushPosNot, OpCall:
		return fmt.Sprintf("%s -> %d", in.Op, in.Addr)
	case OpRepeat, OpRepeatNG:
		return fmt.Sprintf("%s #%d exit %d", in.Op, in.Num, in.Addr)
	case OpMemStart, OpMemStartPush, OpMemEnd, OpMemEndPush, OpMemEndRec, OpMemEndPushRec,
		OpRepeatInc, OpRepeatIncNG, OpRepeatIncSG, OpRepeatIncNGSG,
		OpNullCheckStart, OpNullCheckEnd, OpNullCheckEndMemST, OpNullCheckEndMemSTPush:
		return fmt.Sprintf("%s #%d", in.Op, in.Num)
	case OpLookBehind:
		return fmt.Sprintf("%s %d", in.Op, in.Len)
	case OpPushLookBehindNot:
		return fmt.Sprintf("%s %d -> %d", in.Op, in.Len, in.Addr)
	}
	return in.Op.String()
}

// PopLevel selects how much state a backtracking pop restores.
type PopLevel uint8

// Pop levels.
const (
	// PopFree discards frames without restoring anything.
	PopFree PopLevel = iota
	// PopMemStart restores capture slots saved by MEM_START frames.
	PopMemStart
	// PopDefault also restores MEM_END slots and repeat counters.
	PopDefault
)

func (l PopLevel) String() string {
	switch l {
	case PopFree:
		return "free"
	case PopMemStart:
		return "mem-start"
	}
	return "default"
}

// RepeatRange is the bounds of one counted repeat. Upper is ast.Infinite
// when unbounded.
type RepeatRange struct {
	Lower, Upper int
}

// Program is a compiled pattern. It is immutable after compilation and
// safe to share between goroutines.
type Program struct {
	Insts []Inst

	// NumMem is the number of capture groups, group 0 excluded.
	NumMem       int
	NumRepeat    int
	NumNullCheck int
	NumCall      int
	RepeatRanges []RepeatRange

	// StackNeeded is false when no instruction can push a frame.
	StackNeeded bool
	PopLevel    PopLevel
	// BtMemStart and BtMemEnd mark groups whose slots hold stack indices
	// rather than positions.
	BtMemStart bitset.Set
	BtMemEnd   bitset.Set

	Options ast.Options
	Enc     enc.Encoding
	// Names holds capture names indexed by group number.
	Names []string
	// Search holds the optimizer's hints for the search loop.
	Search *optimize.SearchInfo
}

// GroupIndex returns the number of the group called name, or -1.
func (p *Program) GroupIndex(name string) int {
	for i, n := range p.Names {
		if n != "" && n == name {
			return i
		}
	}
	return -1
}

// String renders the program one instruction per line.
func (p *Program) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "mem=%d repeat=%d null-check=%d call=%d stack=%v pop=%s\n",
		p.NumMem, p.NumRepeat, p.NumNullCheck, p.NumCall, p.StackNeeded, p.PopLevel)
	for i := range p.Insts {
		fmt.Fprintf(&sb, "%4d: %s\n", i, p.Insts[i].String())
	}
	return sb.String()
}
