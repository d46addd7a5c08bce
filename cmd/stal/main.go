// Command stal compiles set-algebra queries over Redis keys into Redis
// commands and optionally runs them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/stal/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
