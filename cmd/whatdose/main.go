// Command whatdose imports catalog records and profiles, generates
// personalised supplement stacks and shows what was stored.
package main

import (
	"fmt"
	"os"
)

var exitFunc = os.Exit

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "whatdose:", err)
		exitFunc(1)
	}
}
