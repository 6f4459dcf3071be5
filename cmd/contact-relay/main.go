package main

import (
	"fmt"
	"os"

	"github.com/ruscor/contact-relay/pkg/cli"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	root := cli.NewRootCommand(cli.Config{OutputWriter: os.Stdout, Input: os.Stdin})
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}
