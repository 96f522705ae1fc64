package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/todosoa"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of todosoa",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "todosoa version %s\n", strings.TrimSpace(todosoa.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
