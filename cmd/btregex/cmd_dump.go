package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/coregx/btregex"
	"github.com/coregx/btregex/ast"
	"github.com/coregx/btregex/optimize"
)

func newDumpCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "dump PATTERN",
		Short: "Print the tree, program and search hints of a pattern",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			re, _, err := g.compile(args[0])
			if err != nil {
				return err
			}
			dump(cmd.OutOrStdout(), re)
			return nil
		},
	}
}

func dump(w io.Writer, re *btregex.Regex) {
	prog := re.Program()
	si := prog.Search

	fmt.Fprintln(w, "tree:")
	fmt.Fprint(w, ast.String(re.Tree()))
	fmt.Fprintln(w, "program:")
	fmt.Fprint(w, prog.String())
	fmt.Fprintln(w, "search:")
	fmt.Fprintf(w, "  anchor: %s\n", si.Anchor)
	fmt.Fprintf(w, "  length: %s..%s\n", distance(si.Length.Min), distance(si.Length.Max))
	switch si.Kind {
	case optimize.HintExact, optimize.HintExactIC:
		fmt.Fprintf(w, "  hint: %s %q at %s..%s\n", si.Kind, si.Exact, distance(si.Dmin), distance(si.Dmax))
	case optimize.HintMap:
		fmt.Fprintf(w, "  hint: map %q at %s..%s\n", si.MapBytes(), distance(si.Dmin), distance(si.Dmax))
	default:
		fmt.Fprintln(w, "  hint: none")
	}
	fmt.Fprintf(w, "  prefilter: %s\n", re.PrefilterName())
}

func distance(d int) string {
	if d == optimize.InfiniteDistance {
		return "inf"
	}
	return strconv.Itoa(d)
}
