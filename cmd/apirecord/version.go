package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of apirecord",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("apirecord version 0.1.0")
	},
}
