package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/timewinder-dev/apirecord/runner"
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize RECORDFILE",
	Short: "Count the calls per function in a JSON-lines record file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		sum, err := runner.Summarize(f)
		if err != nil {
			return err
		}
		fmt.Print(runner.FormatSummary(sum))
		return nil
	},
}
