package ast

import (
	"fmt"
	"strings"
)

// Children returns the direct children of n.
func Children(n Node) []Node {
	switch n := n.(type) {
	case *Sequence:
		return n.Nodes
	case *Alternation:
		return n.Nodes
	case *Quantifier:
		return []Node{n.Node}
	case *Enclose:
		return []Node{n.Node}
	}
	return nil
}

// Walk calls fn for n and its descendants in depth-first pre-order.
// Returning false from fn skips the node's children.
func Walk(n Node, fn func(Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, c := range Children(n) {
		Walk(c, fn)
	}
}

// Groups maps each capture group number to its Enclose node.
func Groups(n Node) map[int]*Enclose {
	groups := make(map[int]*Enclose)
	Walk(n, func(n Node) bool {
		if e, ok := n.(*Enclose); ok && e.Type == EncloseCapture {
			groups[e.Group] = e
		}
		return true
	})
	return groups
}

// NumGroups returns the highest capture group number in n.
func NumGroups(n Node) int {
	max := 0
	Walk(n, func(n Node) bool {
		if e, ok := n.(*Enclose); ok && e.Type == EncloseCapture && e.Group > max {
			max = e.Group
		}
		return true
	})
	return max
}

// String renders n as an indented tree, one node per line.
func String(n Node) string {
	var sb strings.Builder
	dump(&sb, n, 0)
	return sb.String()
}

func dump(sb *strings.Builder, n Node, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	switch n := n.(type) {
	case *Sequence:
		sb.WriteString("seq")
	case *Alternation:
		sb.WriteString("alt")
	case *Literal:
		fmt.Fprintf(sb, "lit %q", n.Text)
		if n.IgnoreCase {
			sb.WriteString(" /i")
		}
	case *CharClass:
		sb.WriteString("class [")
		if n.Negated {
			sb.WriteByte('^')
		}
		for _, r := range n.Ranges {
			if r.Lo == r.Hi {
				fmt.Fprintf(sb, "%q", r.Lo)
			} else {
				fmt.Fprintf(sb, "%q-%q", r.Lo, r.Hi)
			}
		}
		for _, t := range n.Types {
			if t.Not {
				fmt.Fprintf(sb, "[:^%s:]", t.Type)
			} else {
				fmt.Fprintf(sb, "[:%s:]", t.Type)
			}
		}
		sb.WriteByte(']')
	case *AnyChar:
		sb.WriteString("any")
		if n.Multiline {
			sb.WriteString(" /m")
		}
	case *Backreference:
		fmt.Fprintf(sb, "backref %v", n.Groups)
	case *Quantifier:
		max := "inf"
		if !n.IsInfinite() {
			max = fmt.Sprint(n.Max)
		}
		fmt.Fprintf(sb, "repeat {%d,%s}", n.Min, max)
		switch {
		case n.Possessive:
			sb.WriteString(" possessive")
		case !n.Greedy:
			sb.WriteString(" lazy")
		}
	case *Enclose:
		sb.WriteString(n.Type.String())
		switch n.Type {
		case EncloseCapture:
			fmt.Fprintf(sb, " %d", n.Group)
			if n.Name != "" {
				fmt.Fprintf(sb, " <%s>", n.Name)
			}
		case EncloseOption:
			fmt.Fprintf(sb, " +%#x -%#x", uint32(n.On), uint32(n.Off))
		case EncloseLookAhead, EncloseLookBehind:
			if n.Negate {
				sb.WriteString(" not")
			}
		}
	case *Anchor:
		fmt.Fprintf(sb, "anchor %s", n.Type)
	case *Call:
		fmt.Fprintf(sb, "call %d", n.Group)
	default:
		fmt.Fprintf(sb, "unknown %T", n)
	}
	sb.WriteByte('\n')
	for _, c := range Children(n) {
		dump(sb, c, depth+1)
	}
}
