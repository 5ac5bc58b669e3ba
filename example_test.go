package btregex_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/coregx/btregex"
	"github.com/coregx/btregex/ast"
)

func ExampleCompileString() {
	re, err := btregex.CompileString(`(\w+)@(\w+)\.com`, btregex.DefaultConfig())
	if err != nil {
		panic(err)
	}
	fmt.Println(re.FindStringSubmatch("mail bob@example.com today"))
	// Output: [bob@example.com bob example]
}

func ExampleCompile() {
	// p = a p? b
	node := ast.Named(1, "p", ast.Cat(ast.Lit("a"), ast.Quest(ast.CallGroup(1)), ast.Lit("b")))
	re, err := btregex.Compile(node, btregex.DefaultConfig())
	if err != nil {
		panic(err)
	}
	fmt.Println(re.FindString("xaabbx"))
	fmt.Println(re.MatchString("ab"), re.MatchString("ba"))
	// Output:
	// aabb
	// true false
}

func ExampleRegex_SearchRange() {
	re := btregex.MustCompile(`^abc`)
	text := []byte("xabc")

	region, _ := re.Search(context.Background(), text, 0)
	fmt.Println(region)

	region, _ = re.SearchRange(context.Background(), text, btregex.Range{Begin: 1, End: 4, Start: 1, Last: 4})
	fmt.Println(region)
	// Output:
	// <nil>
	// (1,4)
}

func ExampleLoadConfig() {
	config, err := btregex.LoadConfig(strings.NewReader("options: [ignore-case]\n"))
	if err != nil {
		panic(err)
	}
	re, err := btregex.CompileString(`hello`, config)
	if err != nil {
		panic(err)
	}
	fmt.Println(re.FindAllString("Hello HELLO help", -1))
	// Output: [Hello HELLO]
}
