// Command inet builds interaction nets from CUE programs and reduces them.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/inet/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(cli.GetExitCode(err))
	}
}
