package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/aretw0/rigno"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of rigno",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rigno version %s\n", strings.TrimSpace(rigno.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
