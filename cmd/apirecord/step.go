package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/gookit/color"
	"github.com/spf13/cobra"
	"github.com/timewinder-dev/apirecord/interp"
	"github.com/timewinder-dev/apirecord/stdlib"
	"github.com/timewinder-dev/apirecord/vm"
)

var stepPath []string

var stepCmd = &cobra.Command{
	Use:   "step FILE",
	Short: "Run a .star file, printing every instruction and the stack before it",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prog, err := vm.CompilePath(args[0], vm.MainModule)
		if err != nil {
			return err
		}
		path := append([]string{filepath.Dir(args[0])}, stepPath...)
		th := interp.NewThread(stdlib.NewLoader(path...))
		defer th.Subscribe(&stepPrinter{w: os.Stdout})()
		err = th.Exec(prog, vm.NewModule(vm.MainModule))
		if err != nil {
			return err
		}
		fmt.Println(color.Green.Sprint("Finished"))
		return nil
	},
}

func init() {
	stepCmd.Flags().StringSliceVar(&stepPath, "path", nil, "Directories to search for loaded modules")
}

// stepPrinter is a hook that writes one line per instruction, indented by
// call depth.
type stepPrinter struct {
	w io.Writer
}

func (p *stepPrinter) OnCall(frame *interp.StackFrame) bool {
	fmt.Fprintf(p.w, "%s%s %s\n", indent(frame), color.Cyan.Sprint("call"), frame.Fn.QualifiedName())
	return true
}

func (p *stepPrinter) OnInstruction(frame *interp.StackFrame) {
	inst, err := vm.DecodeAt(frame.Fn.Code, frame.PC)
	if err != nil {
		fmt.Fprintf(p.w, "%s%s %v\n", indent(frame), color.Red.Sprint("bad instruction"), err)
		return
	}
	fmt.Fprintf(p.w, "%s%-10s %-28s %s\n", indent(frame),
		color.Gray.Sprint(frame.Location()), frame.Fn.Describe(inst), frame.FormatStack())
}

func (p *stepPrinter) OnReturn(frame *interp.StackFrame) {
	fmt.Fprintf(p.w, "%s%s %s\n", indent(frame), color.Cyan.Sprint("return"), frame.Fn.QualifiedName())
}

func indent(frame *interp.StackFrame) string {
	return strings.Repeat("  ", frame.Depth()-1)
}
