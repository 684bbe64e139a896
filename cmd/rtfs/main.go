// Command rtfs is the CLI entry point: run scripts or start a REPL against
// the compiler/runtime pipeline in internal/runtime.
package main

import (
	"fmt"
	"os"

	"github.com/rtfs-lang/rtfs/cmd/rtfs/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
