package literal_test

import (
	"fmt"

	"github.com/coregx/btregex/ast"
	"github.com/coregx/btregex/literal"
)

// ExampleExtractor_Prefixes extracts the literals every match starts with.
func ExampleExtractor_Prefixes() {
	ex := literal.New(literal.DefaultConfig())
	node := ast.Cat(ast.Group(1, ast.Alt(ast.Lit("hello"), ast.Lit("world"))), ast.Plus(&ast.AnyChar{}))

	seq := ex.Prefixes(node, 0)
	for i := 0; i < seq.Len(); i++ {
		fmt.Println(seq.Get(i))
	}

	// Output:
	// literal{hello, complete=false}
	// literal{world, complete=false}
}
