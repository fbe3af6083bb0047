package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/vertexdlt/wasmvm/vm"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <file.wasm> <func> [args...]",
		Short: "Instantiate a module and invoke an exported function",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runRun,
	}
	return cmd
}

func runRun(cmd *cobra.Command, args []string) error {
	code, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	funcName := args[1]
	callArgs := make([]uint64, len(args)-2)
	for i, a := range args[2:] {
		v, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return fmt.Errorf("argument %d (%q): %w", i, a, err)
		}
		callArgs[i] = uint64(v)
	}

	var opts []vm.Option
	if verbose {
		opts = append(opts, vm.WithTrace())
	}
	v, err := vm.NewVM(code, &stdioResolver{}, opts...)
	if err != nil {
		return err
	}

	result, err := v.Invoke(funcName, callArgs...)
	if err != nil {
		return err
	}
	fmt.Println(result)
	return nil
}

// stdioResolver supplies a minimal "env" namespace: print_i32 writes a
// decimal integer to stdout and print_bytes writes the size bytes of
// linear memory starting at ptr as text, mirroring the teacher's main.go
// Resolver (print_bytes/set_storage/...), trimmed to what a CLI demo
// plausibly needs without a storage backend attached.
type stdioResolver struct{}

func (r *stdioResolver) GetFunction(module, field string) vm.HostFunction {
	if module != "env" {
		return nil
	}
	switch field {
	case "print_i32":
		return func(v *vm.VM, args ...uint64) (uint64, error) {
			fmt.Println(int32(args[0]))
			return 0, nil
		}
	case "print_bytes":
		return func(v *vm.VM, args ...uint64) (uint64, error) {
			ptr, size := uint32(args[0]), uint32(args[1])
			mem := v.GetMemory()
			if int(ptr+size) > len(mem) {
				return 0, fmt.Errorf("print_bytes: [%d, %d) out of bounds", ptr, ptr+size)
			}
			fmt.Println(string(mem[ptr : ptr+size]))
			return 0, nil
		}
	}
	return nil
}
