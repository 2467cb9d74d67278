package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/quicknote"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of quicknote",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "quicknote version %s\n", strings.TrimSpace(quicknote.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
