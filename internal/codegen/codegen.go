// Package codegen emits Go source that rebuilds a pattern tree and
// compiles it at package initialization, so a pattern checked in as a
// tree needs no parser at run time.
package codegen

import (
	"fmt"
	"go/token"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/dave/jennifer/jen"

	"github.com/coregx/btregex/ast"
	"github.com/coregx/btregex/enc"
	"github.com/coregx/btregex/vm"
)

const (
	rootPkg = "github.com/coregx/btregex"
	astPkg  = "github.com/coregx/btregex/ast"
	encPkg  = "github.com/coregx/btregex/enc"
)

// Config controls the generated file.
type Config struct {
	// Package is the package clause of the generated file.
	Package string
	// Name is the variable holding the compiled pattern.
	Name string
	// Pattern is the source text, quoted in the doc comment when set.
	Pattern string

	// Syntax, Options, Encoding and StackLimit are set on the
	// btregex.Config the generated code compiles with. Zero values keep
	// the defaults.
	Syntax     string
	Options    ast.Options
	Encoding   string
	StackLimit int
}

// Validate checks the names used in the generated file.
func (c Config) Validate() error {
	if !token.IsIdentifier(c.Package) {
		return fmt.Errorf("codegen: invalid package name %q", c.Package)
	}
	if !token.IsIdentifier(c.Name) {
		return fmt.Errorf("codegen: invalid variable name %q", c.Name)
	}
	return nil
}

// Generate builds the file for node. When prog is non-nil its listing is
// added to the variable's doc comment.
func Generate(node ast.Node, prog *vm.Program, cfg Config) (*jen.File, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	tree, err := treeCode(node)
	if err != nil {
		return nil, err
	}

	f := jen.NewFile(cfg.Package)
	f.HeaderComment("Code generated by btregex gen. DO NOT EDIT.")

	if cfg.Pattern != "" {
		f.Comment(fmt.Sprintf("%s matches %s.", cfg.Name, quotePattern(cfg.Pattern)))
	} else {
		f.Comment(fmt.Sprintf("%s is a compiled pattern tree.", cfg.Name))
	}
	if prog != nil {
		f.Comment("//")
		f.Comment("// Program:")
		f.Comment("//")
		for _, line := range strings.Split(strings.TrimRight(prog.String(), "\n"), "\n") {
			f.Comment("//\t" + line)
		}
	}

	body := []jen.Code{
		jen.Id("config").Op(":=").Qual(rootPkg, "DefaultConfig").Call(),
	}
	if cfg.Syntax != "" {
		body = append(body, jen.Id("config").Dot("Syntax").Op("=").Lit(cfg.Syntax))
	}
	if cfg.Options != 0 {
		body = append(body, jen.Id("config").Dot("Options").Op("=").Add(optionsCode(cfg.Options)))
	}
	if cfg.Encoding != "" {
		body = append(body, jen.Id("config").Dot("Encoding").Op("=").Lit(cfg.Encoding))
	}
	if cfg.StackLimit != 0 {
		body = append(body, jen.Id("config").Dot("StackLimit").Op("=").Lit(cfg.StackLimit))
	}
	body = append(body,
		jen.List(jen.Id("re"), jen.Err()).Op(":=").Qual(rootPkg, "Compile").Call(tree, jen.Id("config")),
		jen.If(jen.Err().Op("!=").Nil()).Block(jen.Panic(jen.Err())),
		jen.Return(jen.Id("re")),
	)

	f.Var().Id(cfg.Name).Op("=").Func().Params().Op("*").Qual(rootPkg, "Regex").Block(body...).Call()
	return f, nil
}

// Write generates the file for node and writes the formatted source to w.
func Write(w io.Writer, node ast.Node, prog *vm.Program, cfg Config) error {
	f, err := Generate(node, prog, cfg)
	if err != nil {
		return err
	}
	if err := f.Render(w); err != nil {
		return fmt.Errorf("codegen: render: %w", err)
	}
	return nil
}

func quotePattern(p string) string {
	if strings.ContainsAny(p, "`\n") {
		return fmt.Sprintf("%q", p)
	}
	return "`" + p + "`"
}

var anchorIdents = [...]string{
	ast.BeginBuf:        "BeginBuf",
	ast.EndBuf:          "EndBuf",
	ast.SemiEndBuf:      "SemiEndBuf",
	ast.BeginLine:       "BeginLine",
	ast.EndLine:         "EndLine",
	ast.BeginPosition:   "BeginPosition",
	ast.WordBoundary:    "WordBoundary",
	ast.NotWordBoundary: "NotWordBoundary",
	ast.WordBegin:       "WordBegin",
	ast.WordEnd:         "WordEnd",
}

var encloseIdents = [...]string{
	ast.EncloseCapture:    "EncloseCapture",
	ast.EncloseOption:     "EncloseOption",
	ast.EncloseLookAhead:  "EncloseLookAhead",
	ast.EncloseLookBehind: "EncloseLookBehind",
	ast.EncloseAtomic:     "EncloseAtomic",
}

var ctypeIdents = [...]string{
	enc.CTypeWord:    "CTypeWord",
	enc.CTypeDigit:   "CTypeDigit",
	enc.CTypeSpace:   "CTypeSpace",
	enc.CTypeXDigit:  "CTypeXDigit",
	enc.CTypeAlpha:   "CTypeAlpha",
	enc.CTypeUpper:   "CTypeUpper",
	enc.CTypeLower:   "CTypeLower",
	enc.CTypePunct:   "CTypePunct",
	enc.CTypeNewline: "CTypeNewline",
}

var optionIdents = []struct {
	opt  ast.Options
	name string
}{
	{ast.IgnoreCase, "IgnoreCase"},
	{ast.Multiline, "Multiline"},
	{ast.FindLongest, "FindLongest"},
	{ast.FindNotEmpty, "FindNotEmpty"},
	{ast.NotBOL, "NotBOL"},
	{ast.NotEOL, "NotEOL"},
}

// optionsCode renders o as ast.IgnoreCase | ast.Multiline.
func optionsCode(o ast.Options) *jen.Statement {
	var s *jen.Statement
	for _, oi := range optionIdents {
		if o&oi.opt == 0 {
			continue
		}
		o &^= oi.opt
		if s == nil {
			s = jen.Qual(astPkg, oi.name)
		} else {
			s = s.Op("|").Qual(astPkg, oi.name)
		}
	}
	if o != 0 {
		rest := jen.Qual(astPkg, "Options").Call(jen.Lit(int(o)))
		if s == nil {
			return rest
		}
		return s.Op("|").Add(rest)
	}
	if s == nil {
		return jen.Lit(0)
	}
	return s
}

func runeCode(r rune) *jen.Statement {
	if utf8.ValidRune(r) {
		return jen.LitRune(r)
	}
	return jen.Lit(int(r))
}

func treeCode(n ast.Node) (jen.Code, error) {
	switch n := n.(type) {
	case *ast.Literal:
		if n.IgnoreCase {
			return jen.Qual(astPkg, "FoldLit").Call(jen.Lit(n.Text)), nil
		}
		return jen.Qual(astPkg, "Lit").Call(jen.Lit(n.Text)), nil

	case *ast.Sequence:
		children, err := childrenCode(n.Nodes)
		if err != nil {
			return nil, err
		}
		return jen.Qual(astPkg, "Cat").Call(children...), nil

	case *ast.Alternation:
		children, err := childrenCode(n.Nodes)
		if err != nil {
			return nil, err
		}
		return jen.Qual(astPkg, "Alt").Call(children...), nil

	case *ast.CharClass:
		return charClassCode(n), nil

	case *ast.AnyChar:
		if n.Multiline {
			return jen.Op("&").Qual(astPkg, "AnyChar").Values(jen.Dict{jen.Id("Multiline"): jen.True()}), nil
		}
		return jen.Op("&").Qual(astPkg, "AnyChar").Values(), nil

	case *ast.Backreference:
		groups := make([]jen.Code, len(n.Groups))
		for i, g := range n.Groups {
			groups[i] = jen.Lit(g)
		}
		if !n.IgnoreCase {
			return jen.Qual(astPkg, "Backref").Call(groups...), nil
		}
		return jen.Op("&").Qual(astPkg, "Backreference").Values(jen.Dict{
			jen.Id("Groups"):     jen.Index().Int().Values(groups...),
			jen.Id("IgnoreCase"): jen.True(),
		}), nil

	case *ast.Quantifier:
		child, err := treeCode(n.Node)
		if err != nil {
			return nil, err
		}
		d := jen.Dict{
			jen.Id("Node"): child,
			jen.Id("Min"):  jen.Lit(n.Min),
		}
		if n.IsInfinite() {
			d[jen.Id("Max")] = jen.Qual(astPkg, "Infinite")
		} else {
			d[jen.Id("Max")] = jen.Lit(n.Max)
		}
		if n.Greedy {
			d[jen.Id("Greedy")] = jen.True()
		}
		if n.Possessive {
			d[jen.Id("Possessive")] = jen.True()
		}
		return jen.Op("&").Qual(astPkg, "Quantifier").Values(d), nil

	case *ast.Enclose:
		if int(n.Type) >= len(encloseIdents) {
			return nil, fmt.Errorf("codegen: unknown enclose kind %d", n.Type)
		}
		child, err := treeCode(n.Node)
		if err != nil {
			return nil, err
		}
		d := jen.Dict{
			jen.Id("Type"): jen.Qual(astPkg, encloseIdents[n.Type]),
			jen.Id("Node"): child,
		}
		if n.Group != 0 {
			d[jen.Id("Group")] = jen.Lit(n.Group)
		}
		if n.Name != "" {
			d[jen.Id("Name")] = jen.Lit(n.Name)
		}
		if n.On != 0 {
			d[jen.Id("On")] = optionsCode(n.On)
		}
		if n.Off != 0 {
			d[jen.Id("Off")] = optionsCode(n.Off)
		}
		if n.Negate {
			d[jen.Id("Negate")] = jen.True()
		}
		return jen.Op("&").Qual(astPkg, "Enclose").Values(d), nil

	case *ast.Anchor:
		if int(n.Type) >= len(anchorIdents) {
			return nil, fmt.Errorf("codegen: unknown anchor kind %d", n.Type)
		}
		return jen.Qual(astPkg, "At").Call(jen.Qual(astPkg, anchorIdents[n.Type])), nil

	case *ast.Call:
		return jen.Qual(astPkg, "CallGroup").Call(jen.Lit(n.Group)), nil
	}
	return nil, fmt.Errorf("codegen: unsupported node %T", n)
}

func childrenCode(nodes []ast.Node) ([]jen.Code, error) {
	out := make([]jen.Code, len(nodes))
	for i, child := range nodes {
		c, err := treeCode(child)
		if err != nil {
			return nil, err
		}
		out[i] = c
	}
	return out, nil
}

func charClassCode(cc *ast.CharClass) jen.Code {
	d := jen.Dict{}
	if len(cc.Ranges) > 0 {
		d[jen.Id("Ranges")] = jen.Index().Qual(encPkg, "RuneRange").ValuesFunc(func(g *jen.Group) {
			for _, r := range cc.Ranges {
				g.Values(jen.Dict{
					jen.Id("Lo"): runeCode(r.Lo),
					jen.Id("Hi"): runeCode(r.Hi),
				})
			}
		})
	}
	if len(cc.Types) > 0 {
		d[jen.Id("Types")] = jen.Index().Qual(encPkg, "CTypeItem").ValuesFunc(func(g *jen.Group) {
			for _, t := range cc.Types {
				item := jen.Dict{jen.Id("Type"): ctypeCode(t.Type)}
				if t.Not {
					item[jen.Id("Not")] = jen.True()
				}
				g.Values(item)
			}
		})
	}
	if cc.Negated {
		d[jen.Id("Negated")] = jen.True()
	}
	if cc.IgnoreCase {
		d[jen.Id("IgnoreCase")] = jen.True()
	}
	return jen.Op("&").Qual(astPkg, "CharClass").Values(d)
}

func ctypeCode(t enc.CType) jen.Code {
	if int(t) < len(ctypeIdents) {
		return jen.Qual(encPkg, ctypeIdents[t])
	}
	return jen.Qual(encPkg, "CType").Call(jen.Lit(int(t)))
}
