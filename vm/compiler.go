package vm

import (
	"github.com/coregx/btregex/ast"
	"github.com/coregx/btregex/enc"
	"github.com/coregx/btregex/optimize"
	"github.com/coregx/btregex/syntax"
)

// CompileConfig configures compilation.
type CompileConfig struct {
	// Syntax is the dialect trees are validated against.
	// Default: syntax.Default
	Syntax *syntax.Syntax

	// Options are added to the dialect's default options.
	Options ast.Options

	// Enc classifies characters.
	// Default: enc.UTF8
	Enc enc.Encoding

	// MaxDepth limits nesting during compilation.
	// Default: 1000
	MaxDepth int
}

// DefaultCompileConfig returns the default configuration.
func DefaultCompileConfig() CompileConfig {
	return CompileConfig{
		Syntax:   syntax.Default,
		Enc:      enc.UTF8,
		MaxDepth: 1000,
	}
}

func (cfg *CompileConfig) fill() {
	def := DefaultCompileConfig()
	if cfg.Syntax == nil {
		cfg.Syntax = def.Syntax
	}
	if cfg.Enc == nil {
		cfg.Enc = def.Enc
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = def.MaxDepth
	}
}

// Backend lowers individual nodes into a concrete program form. The
// Compiler owns traversal, option scopes and the setup analysis; a backend
// calls back into Compiler.CompileTree for child nodes.
type Backend interface {
	// Prepare is called once before the tree is lowered.
	Prepare(c *Compiler) error
	// Finish is called once after the tree is lowered.
	Finish(c *Compiler) error

	CompileAlternatives(c *Compiler, nodes []ast.Node) error
	CompileLiteral(c *Compiler, lit *ast.Literal) error
	// CompileFoldLiteral lowers a literal under case folding.
	CompileFoldLiteral(c *Compiler, lit *ast.Literal) error
	CompileCharClass(c *Compiler, cc *ast.CharClass) error
	CompileAnyChar(c *Compiler, n *ast.AnyChar) error
	CompileBackref(c *Compiler, br *ast.Backreference) error
	CompileQuantifier(c *Compiler, q *ast.Quantifier) error
	// CompileEnclose handles every enclose kind except option scopes.
	CompileEnclose(c *Compiler, e *ast.Enclose) error
	CompileAnchor(c *Compiler, a *ast.Anchor) error
	CompileCall(c *Compiler, call *ast.Call) error
}

// Compiler walks a pattern tree and drives a Backend.
type Compiler struct {
	backend Backend
	cfg     CompileConfig

	opts   ast.Options
	depth  int
	env    *optimize.Env
	info   *analysis
	search *optimize.SearchInfo
}

// NewCompiler creates a compiler for backend b.
func NewCompiler(b Backend, cfg CompileConfig) *Compiler {
	cfg.fill()
	return &Compiler{backend: b, cfg: cfg}
}

// Compile validates root against the dialect, analyzes it and lowers it
// through the backend.
func Compile(root ast.Node, cfg CompileConfig) (*Program, error) {
	b := NewByteCode()
	if err := NewCompiler(b, cfg).Compile(root); err != nil {
		return nil, err
	}
	return b.Program(), nil
}

// Compile lowers root.
func (c *Compiler) Compile(root ast.Node) error {
	if root == nil {
		return internalf("compiler", "nil tree")
	}
	if err := c.cfg.Syntax.Validate(root); err != nil {
		return err
	}
	c.opts = c.cfg.Options | c.cfg.Syntax.Options
	c.env = optimize.NewEnv(root, c.opts, c.cfg.Enc)

	info, err := analyze(root, c.env, c.opts)
	if err != nil {
		return err
	}
	c.info = info
	c.search = optimize.NewSearchInfo(root, c.opts, c.cfg.Enc)

	if err := c.backend.Prepare(c); err != nil {
		return err
	}
	if err := c.CompileTree(root); err != nil {
		return err
	}
	return c.backend.Finish(c)
}

// CompileTree lowers n at the current position.
//
//nolint:gocyclo,cyclop // dispatch on node kind
func (c *Compiler) CompileTree(n ast.Node) error {
	c.depth++
	defer func() { c.depth-- }()
	if c.depth > c.cfg.MaxDepth {
		return &CompileError{Node: n.Kind().String(), Err: ErrTooComplex}
	}

	switch n := n.(type) {
	case *ast.Sequence:
		for _, child := range n.Nodes {
			if err := c.CompileTree(child); err != nil {
				return err
			}
		}
		return nil
	case *ast.Alternation:
		if len(n.Nodes) == 1 {
			return c.CompileTree(n.Nodes[0])
		}
		return c.backend.CompileAlternatives(c, n.Nodes)
	case *ast.Literal:
		if n.IgnoreCase || c.opts&ast.IgnoreCase != 0 {
			return c.backend.CompileFoldLiteral(c, n)
		}
		return c.backend.CompileLiteral(c, n)
	case *ast.CharClass:
		return c.backend.CompileCharClass(c, n)
	case *ast.AnyChar:
		return c.backend.CompileAnyChar(c, n)
	case *ast.Backreference:
		return c.backend.CompileBackref(c, n)
	case *ast.Quantifier:
		return c.backend.CompileQuantifier(c, n)
	case *ast.Enclose:
		if n.Type == ast.EncloseOption {
			saved := c.opts
			c.opts = (c.opts | n.On) &^ n.Off
			err := c.CompileTree(n.Node)
			c.opts = saved
			return err
		}
		return c.backend.CompileEnclose(c, n)
	case *ast.Anchor:
		return c.backend.CompileAnchor(c, n)
	case *ast.Call:
		return c.backend.CompileCall(c, n)
	}
	return internalf("compiler", "unknown node type %T", n)
}

// CompileTreeNTimes lowers n k times in sequence.
func (c *Compiler) CompileTreeNTimes(n ast.Node, k int) error {
	for i := 0; i < k; i++ {
		if err := c.CompileTree(n); err != nil {
			return err
		}
	}
	return nil
}

// Options returns the options in effect at the current node.
func (c *Compiler) Options() ast.Options { return c.opts }

// Encoding returns the character encoding.
func (c *Compiler) Encoding() enc.Encoding { return c.cfg.Enc }

// Env returns the optimizer environment of the tree being compiled.
func (c *Compiler) Env() *optimize.Env { return c.env }

// SearchInfo returns the search hints of the tree being compiled.
func (c *Compiler) SearchInfo() *optimize.SearchInfo { return c.search }

// NumMem returns the number of capture groups.
func (c *Compiler) NumMem() int { return c.info.numMem }

// NumCall returns the number of subexpression calls.
func (c *Compiler) NumCall() int { return c.info.numCall }

// GroupName returns the name of group g, if any.
func (c *Compiler) GroupName(g int) string {
	if e, ok := c.info.groups[g]; ok {
		return e.Name
	}
	return ""
}

// IsCalled reports whether group g is the target of a subexpression call.
func (c *Compiler) IsCalled(g int) bool { return c.info.called.Has(g) }

// IsRecursive reports whether group g can call itself.
func (c *Compiler) IsRecursive(g int) bool { return c.info.recursive.Has(g) }

// BtMemStart reports whether group g's start must be tracked on the stack.
func (c *Compiler) BtMemStart(g int) bool { return c.info.btMemStart.Has(g) }

// BtMemEnd reports whether group g's end must be tracked on the stack.
func (c *Compiler) BtMemEnd(g int) bool { return c.info.btMemEnd.Has(g) }

// QuantInfo returns the setup analysis of q.
func (c *Compiler) QuantInfo(q *ast.Quantifier) QuantInfo { return c.info.quants[q] }

// ContainsCalledGroup reports whether n defines a group that is called.
func (c *Compiler) ContainsCalledGroup(n ast.Node) bool {
	found := false
	ast.Walk(n, func(n ast.Node) bool {
		if e, ok := n.(*ast.Enclose); ok && e.Type == ast.EncloseCapture && c.info.called.Has(e.Group) {
			found = true
		}
		return !found
	})
	return found
}
