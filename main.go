package main

import (
	"io"
	"os"

	"github.com/yanorepuser4/dagster/cmd"
)

func main() {
	os.Exit(run(os.Args, os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	rootCmd := cmd.NewRootCmd(stdin, stdout, stderr)
	rootCmd.SetArgs(args[1:])

	if err := rootCmd.Execute(); err != nil {
		return 1
	}
	return 0
}
