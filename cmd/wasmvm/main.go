// Command wasmvm decodes and runs WebAssembly MVP binary modules: `run`
// instantiates a module and invokes one of its exports, `dump` prints a
// disassembly of every defined function. Grounded on the teacher's
// single-file main.go, split into cobra subcommands the way grafana-k6's
// cmd package structures its CLI (one constructor function per command).
package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vertexdlt/wasmvm/internal/tracelog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// verbose is set by the root command's persistent flag and read by run.go
// to decide whether to pass vm.WithTrace() to the instantiated VM.
var verbose bool

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "wasmvm",
		Short: "Decode, disassemble, and run WebAssembly MVP modules",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				tracelog.SetLevel(logrus.TraceLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable execution tracing")
	root.AddCommand(newRunCmd(), newDumpCmd())
	return root
}
