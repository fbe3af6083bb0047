package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vertexdlt/wasmvm/wasm"
)

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file.wasm>",
		Short: "Disassemble every defined function in a module",
		Args:  cobra.ExactArgs(1),
		RunE:  runDump,
	}
}

func runDump(cmd *cobra.Command, args []string) error {
	code, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	module, err := wasm.ReadModule(code)
	if err != nil {
		return err
	}

	fs := module.FunctionSection()
	cs := module.CodeSection()
	if fs == nil || cs == nil {
		fmt.Println("(module defines no functions)")
		return nil
	}

	names := exportedFuncNames(module)
	importedFuncs := countImportedFuncs(module)
	for i, body := range cs.Bodies {
		funcIndex := importedFuncs + uint32(i)
		fmt.Printf("func %d%s (type %d)\n", funcIndex, names[funcIndex], fs.TypeIndices[i])
		instrs, err := wasm.DecodeInstrs(body.Body)
		if err != nil {
			return fmt.Errorf("func %d: %w", funcIndex, err)
		}
		for _, in := range instrs {
			fmt.Println("  " + in.Format())
		}
		fmt.Println()
	}
	return nil
}

// exportedFuncNames maps a function index to " (export \"name\")" for every
// exported function, or "" otherwise, so the dump header reads the way a
// reader cross-referencing the export section would expect.
func exportedFuncNames(m *wasm.Module) map[uint32]string {
	names := make(map[uint32]string)
	es := m.ExportSection()
	if es == nil {
		return names
	}
	for _, e := range es.Entries {
		if e.Kind == wasm.ExternalFunction {
			names[e.Index] = fmt.Sprintf(" (export %q)", e.Name)
		}
	}
	return names
}

func countImportedFuncs(m *wasm.Module) uint32 {
	is := m.ImportSection()
	if is == nil {
		return 0
	}
	var n uint32
	for _, e := range is.Entries {
		if e.Kind == wasm.ExternalFunction {
			n++
		}
	}
	return n
}
