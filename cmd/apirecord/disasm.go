package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/timewinder-dev/apirecord/vm"
)

var disasmCmd = &cobra.Command{
	Use:   "disasm FILE",
	Short: "Print the bytecode compiled from a .star file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prog, err := vm.CompilePath(args[0], vm.MainModule)
		if err != nil {
			return err
		}
		prog.DebugPrint(os.Stdout)
		return nil
	},
}
