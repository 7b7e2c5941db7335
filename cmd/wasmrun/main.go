// Command wasmrun loads a WebAssembly binary, instantiates it against the tree-walking interpreter engine, and
// invokes one of its exported functions with integer arguments given on the command line.
package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/corewasm/corewasm/wasm"
	"github.com/corewasm/corewasm/wasm/interpreter"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var funcName string

	cmd := &cobra.Command{
		Use:   "wasmrun <module.wasm> [args...]",
		Short: "Run an exported function from a WebAssembly binary module",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], funcName, args[1:])
		},
	}
	cmd.Flags().StringVarP(&funcName, "func", "f", "_start", "exported function to invoke")
	return cmd
}

func run(path, funcName string, rawArgs []string) error {
	bin, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	module, err := wasm.DecodeModule(bin)
	if err != nil {
		return fmt.Errorf("decode module: %w", err)
	}

	store := wasm.NewStore(interpreter.NewEngine())
	const moduleName = "main"
	if err := store.Instantiate(module, moduleName); err != nil {
		return fmt.Errorf("instantiate: %w", err)
	}

	callArgs := make([]uint64, len(rawArgs))
	for i, a := range rawArgs {
		v, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return fmt.Errorf("argument %q is not an integer: %w", a, err)
		}
		callArgs[i] = uint64(v)
	}

	returns, _, err := store.CallFunction(moduleName, funcName, callArgs...)
	if err != nil {
		if trap, ok := wasm.AsTrap(err); ok {
			return fmt.Errorf("trapped: %s: %s", trap.Code, trap.Reason)
		}
		return err
	}

	for _, v := range returns {
		fmt.Println(v)
	}
	return nil
}
