// Command btregex inspects, runs and generates backtracking regular
// expressions.
//
//	btregex dump '(\w+)@(\w+)'
//	btregex match -o '\d+' access.log
//	btregex gen --package patterns --name Email -o email.go '(\w+)@(\w+)\.com'
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		os.Exit(1)
	}
}
