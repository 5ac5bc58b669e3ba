package optimize

import (
	"github.com/coregx/btregex/ast"
	"github.com/coregx/btregex/enc"
	"github.com/coregx/btregex/internal/bitset"
	"github.com/coregx/btregex/internal/sparse"
)

// NodeOptInfo summarizes a subtree for search optimization.
type NodeOptInfo struct {
	Length MinMaxLen
	Anchor AnchorInfo
	// Exb is an exact string at the subtree's left boundary.
	Exb ExactInfo
	// Exm is an exact string somewhere in the middle.
	Exm ExactInfo
	// Expr is an exact string required by a lookahead.
	Expr ExactInfo
	Map  MapInfo
}

// Clear resets every field.
func (o *NodeOptInfo) Clear() {
	o.Length.Clear()
	o.Anchor.Clear()
	o.Exb.Clear()
	o.Exm.Clear()
	o.Expr.Clear()
	o.Map.Clear()
}

// Copy returns an independent copy.
func (o *NodeOptInfo) Copy() NodeOptInfo {
	return *o
}

// setBound records the distance of the subtree from the match start on
// every positioned hint.
func (o *NodeOptInfo) setBound(mmd MinMaxLen) {
	o.Exb.MMD = mmd
	o.Expr.MMD = mmd
	o.Map.MMD = mmd
}

// ConcatLeftNode folds the summary of the right sibling add into o, the
// summary of everything to its left. add may be modified.
func (o *NodeOptInfo) ConcatLeftNode(add *NodeOptInfo, en enc.Encoding) {
	o.Anchor = concatAnchors(o.Anchor, add.Anchor, o.Length.Max, add.Length.Max)

	if add.Exb.length > 0 && o.Length.Max == 0 {
		add.Exb.Anchor = concatAnchors(o.Anchor, add.Exb.Anchor, o.Length.Max, add.Length.Max)
	}
	if add.Map.Value > 0 && o.Length.Max == 0 && add.Map.MMD.Max == 0 {
		add.Map.Anchor.Left |= o.Anchor.Left
	}

	exbReach := o.Exb.ReachEnd
	exmReach := o.Exm.ReachEnd
	if add.Length.Max != 0 {
		o.Exb.ReachEnd = false
		o.Exm.ReachEnd = false
	}

	if add.Exb.length > 0 {
		switch {
		case exbReach:
			o.Exb.Concat(&add.Exb, en)
			add.Exb.Clear()
		case exmReach:
			o.Exm.Concat(&add.Exb, en)
			add.Exb.Clear()
		}
	}
	o.Exm.Select(&add.Exb)
	o.Exm.Select(&add.Exm)

	if o.Expr.length > 0 {
		if add.Length.Max > 0 {
			// An unbounded sibling leaves the lookahead hint intact; only a
			// finite maximum can cut it short.
			if add.Length.Max != InfiniteDistance {
				o.Expr.truncate(add.Length.Max)
			}
			if o.Expr.MMD.Max == 0 {
				o.Exb.Select(&o.Expr)
			} else {
				o.Exm.Select(&o.Expr)
			}
		}
	} else if add.Expr.length > 0 {
		o.Expr = add.Expr
	}

	o.Map.Select(&add.Map)
	o.Length.Add(add.Length)
}

// AltMerge keeps what o and add have in common.
func (o *NodeOptInfo) AltMerge(add *NodeOptInfo, en enc.Encoding) {
	o.Anchor.AltMerge(add.Anchor)
	o.Exb.AltMerge(&add.Exb, en)
	o.Exm.AltMerge(&add.Exm, en)
	o.Expr.AltMerge(&add.Expr, en)
	o.Map.AltMerge(&add.Map)
	o.Length.AltMerge(add.Length)
}

// Env carries the context of a Compute walk.
type Env struct {
	// MMD is the distance of the current subtree from the match start.
	MMD     MinMaxLen
	Options ast.Options
	Enc     enc.Encoding
	// Groups maps capture numbers to their nodes, for backreferences and
	// subexpression calls.
	Groups map[int]*ast.Enclose
	// Backrefed marks groups referenced by a backreference.
	Backrefed bitset.Set

	visiting *sparse.Set
}

// NewEnv builds the environment for root.
func NewEnv(root ast.Node, opts ast.Options, en enc.Encoding) *Env {
	if en == nil {
		en = enc.UTF8
	}
	env := &Env{
		Options: opts,
		Enc:     en,
		Groups:  ast.Groups(root),
	}
	ast.Walk(root, func(n ast.Node) bool {
		if br, ok := n.(*ast.Backreference); ok {
			for _, g := range br.Groups {
				env.Backrefed.Add(g)
			}
		}
		return true
	})
	env.visiting = sparse.New(ast.NumGroups(root) + 1)
	return env
}

// Compute summarizes n.
func Compute(n ast.Node, env *Env) NodeOptInfo {
	var opt NodeOptInfo
	optimizeNode(n, &opt, env)
	return opt
}

//nolint:gocyclo,cyclop // one case per node kind
func optimizeNode(n ast.Node, opt *NodeOptInfo, env *Env) {
	opt.Clear()
	opt.setBound(env.MMD)

	switch n := n.(type) {
	case *ast.Sequence:
		nenv := *env
		var nopt NodeOptInfo
		for _, c := range n.Nodes {
			optimizeNode(c, &nopt, &nenv)
			nenv.MMD.Add(nopt.Length)
			opt.ConcatLeftNode(&nopt, env.Enc)
		}

	case *ast.Alternation:
		var nopt NodeOptInfo
		for i, c := range n.Nodes {
			optimizeNode(c, &nopt, env)
			if i == 0 {
				*opt = nopt
			} else {
				opt.AltMerge(&nopt, env.Enc)
			}
		}

	case *ast.Literal:
		optimizeLiteral(n, opt, env)

	case *ast.CharClass:
		if n.Negated || n.IgnoreCase || env.Options&ast.IgnoreCase != 0 || len(n.Types) > 0 || !asciiOnly(n.Ranges) {
			opt.Length.Set(env.Enc.MinLength(), env.Enc.MaxLength())
			break
		}
		for _, r := range n.Ranges {
			for c := r.Lo; c <= r.Hi; c++ {
				opt.Map.AddByte(byte(c))
			}
		}
		opt.Length.Set(1, 1)

	case *ast.AnyChar:
		opt.Length.Set(env.Enc.MinLength(), env.Enc.MaxLength())

	case *ast.Anchor:
		switch n.Type {
		case ast.BeginBuf:
			opt.Anchor.Add(AnchorBeginBuf)
		case ast.BeginPosition:
			opt.Anchor.Add(AnchorBeginPosition)
		case ast.BeginLine:
			opt.Anchor.Add(AnchorBeginLine)
		case ast.EndBuf:
			opt.Anchor.Add(AnchorEndBuf)
		case ast.SemiEndBuf:
			opt.Anchor.Add(AnchorSemiEndBuf)
		case ast.EndLine:
			opt.Anchor.Add(AnchorEndLine)
		}

	case *ast.Backreference:
		opt.Length = backrefLength(n, env)

	case *ast.Call:
		g, ok := env.Groups[n.Group]
		if !ok || env.visiting.Contains(n.Group) {
			opt.Length.Set(0, InfiniteDistance)
			break
		}
		optimizeNode(g, opt, env)

	case *ast.Quantifier:
		optimizeQuantifier(n, opt, env)

	case *ast.Enclose:
		optimizeEnclose(n, opt, env)
	}
}

func optimizeLiteral(n *ast.Literal, opt *NodeOptInfo, env *Env) {
	text := []byte(n.Text)
	if !n.IgnoreCase && env.Options&ast.IgnoreCase == 0 {
		opt.Exb.ConcatStr(text, env.Enc)
		opt.Exb.IgnoreCase = 0
		if len(text) > 0 {
			opt.Map.AddByte(text[0])
		}
		opt.Length.Set(len(text), len(text))
		if opt.Exb.length == len(text) {
			opt.Exb.ReachEnd = true
		}
		return
	}

	folded := enc.FoldString(env.Enc, text)
	opt.Exb.ConcatStr(folded, env.Enc)
	opt.Exb.IgnoreCase = 1
	if len(text) > 0 {
		r, _ := env.Enc.Decode(text)
		opt.Map.AddCharFold(r, env.Enc)
	}
	opt.Length = foldedLength(text, env.Enc)
	if opt.Exb.length == len(folded) {
		opt.Exb.ReachEnd = true
	}
}

func optimizeQuantifier(q *ast.Quantifier, opt *NodeOptInfo, env *Env) {
	var nopt NodeOptInfo
	optimizeNode(q.Node, &nopt, env)

	if q.Min == 0 && q.IsInfinite() {
		if ac, ok := q.Node.(*ast.AnyChar); ok && env.MMD.Max == 0 && q.Greedy {
			if ac.Multiline || env.Options&ast.Multiline != 0 {
				opt.Anchor.Add(AnchorAnyCharStarML)
			} else {
				opt.Anchor.Add(AnchorAnyCharStar)
			}
		}
	} else if q.Min > 0 {
		*opt = nopt
		if nopt.Exb.length > 0 && nopt.Exb.ReachEnd {
			i := 2
			for ; i <= q.Min && !opt.Exb.isFull(); i++ {
				opt.Exb.Concat(&nopt.Exb, env.Enc)
			}
			if i < q.Min {
				opt.Exb.ReachEnd = false
			}
		}
		if q.Min != q.Max {
			opt.Exb.ReachEnd = false
			opt.Exm.ReachEnd = false
		}
		if q.Min > 1 {
			opt.Exm.ReachEnd = false
		}
	}

	lo := distanceMultiply(nopt.Length.Min, q.Min)
	var hi int
	switch {
	case q.IsInfinite() && nopt.Length.Max > 0:
		hi = InfiniteDistance
	case q.IsInfinite():
		hi = 0
	default:
		hi = distanceMultiply(nopt.Length.Max, q.Max)
	}
	opt.Length.Set(lo, hi)
}

func optimizeEnclose(e *ast.Enclose, opt *NodeOptInfo, env *Env) {
	switch e.Type {
	case ast.EncloseOption:
		saved := env.Options
		env.Options = (env.Options | e.On) &^ e.Off
		optimizeNode(e.Node, opt, env)
		env.Options = saved

	case ast.EncloseCapture:
		fresh := env.visiting.Insert(e.Group)
		optimizeNode(e.Node, opt, env)
		if fresh {
			env.visiting.Remove(e.Group)
		}
		if opt.Anchor.IsSet(AnchorAnyCharStarMask) && env.Backrefed.Has(e.Group) {
			opt.Anchor.Remove(AnchorAnyCharStar)
			opt.Anchor.Remove(AnchorAnyCharStarML)
		}

	case ast.EncloseAtomic:
		optimizeNode(e.Node, opt, env)

	case ast.EncloseLookAhead:
		if e.Negate {
			break
		}
		var nopt NodeOptInfo
		optimizeNode(e.Node, &nopt, env)
		switch {
		case nopt.Exb.length > 0:
			opt.Expr = nopt.Exb
		case nopt.Exm.length > 0:
			opt.Expr = nopt.Exm
		}
		opt.Expr.ReachEnd = false
		if nopt.Map.Value > 0 {
			opt.Map = nopt.Map
		}
	}
}

func asciiOnly(ranges []enc.RuneRange) bool {
	for _, r := range ranges {
		if r.Lo < 0 || r.Hi >= 0x80 {
			return false
		}
	}
	return true
}

// foldedLength bounds the byte length of any case variant of text.
func foldedLength(text []byte, en enc.Encoding) MinMaxLen {
	var l MinMaxLen
	var buf [8]byte
	for len(text) > 0 {
		r, n := en.Decode(text)
		lo, hi := n, n
		for _, v := range en.CaseVariants(r) {
			vn := len(en.Encode(buf[:0], v))
			if vn < lo {
				lo = vn
			}
			if vn > hi {
				hi = vn
			}
		}
		l.Min += lo
		l.Max += hi
		text = text[n:]
	}
	return l
}
